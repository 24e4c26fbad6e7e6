package rate

import (
	"errors"
	"maps"
	"slices"
	"strings"

	"fxhub/internal/domain"
)

var (
	ErrBaseRequired     = errors.New("base currency is required")
	ErrQuoteRequired    = errors.New("quote currency is required")
	ErrBaseUnsupported  = errors.New("base currency not supported")
	ErrQuoteUnsupported = errors.New("quote currency not supported")
)

// Registry is the read-only set of currencies the service knows about.
type Registry struct {
	currencies map[string]domain.Currency // read only copy
	codes      []string                   // read only, sorted
}

// Get returns the currency for a code, case-insensitively.
func (r *Registry) Get(code string) (domain.Currency, error) {
	code = NormalizeCode(code)
	c, ok := r.currencies[code]
	if !ok {
		return domain.Currency{}, &domain.CurrencyNotFoundError{Code: code}
	}
	return c, nil
}

// ValidateCodes checks a base/quote pair given in normalized form.
// Same-code pairs are valid: they resolve to the identity rate.
func (r *Registry) ValidateCodes(base, quote string) error {
	if base == "" {
		return ErrBaseRequired
	}
	if quote == "" {
		return ErrQuoteRequired
	}
	if _, ok := r.currencies[base]; !ok {
		return errors.Join(ErrBaseUnsupported, &domain.CurrencyNotFoundError{Code: base})
	}
	if _, ok := r.currencies[quote]; !ok {
		return errors.Join(ErrQuoteUnsupported, &domain.CurrencyNotFoundError{Code: quote})
	}
	return nil
}

func (r *Registry) SupportedCodes() []string {
	return slices.Clone(r.codes)
}

func NewRegistry(currencies []domain.Currency) *Registry {
	m := make(map[string]domain.Currency, len(currencies))
	for _, c := range currencies {
		c.Code = NormalizeCode(c.Code)
		m[c.Code] = c
	}
	codes := slices.Collect(maps.Keys(m))
	slices.Sort(codes)

	return &Registry{
		currencies: m,
		codes:      codes,
	}
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
