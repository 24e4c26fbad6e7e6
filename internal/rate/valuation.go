package rate

import (
	"context"
	"errors"
	"math"
	"time"

	"fxhub/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type rateResolver interface {
	Resolve(ctx context.Context, from, to string, ttl time.Duration) (domain.RateQuote, error)
}

// Valuator converts balances into a base currency on a best-effort basis.
type Valuator struct {
	registry *Registry
	resolver rateResolver
	ttl      time.Duration
	logger   logrus.FieldLogger
}

func NewValuator(registry *Registry, resolver rateResolver, ttl time.Duration, logger logrus.FieldLogger) *Valuator {
	return &Valuator{registry: registry, resolver: resolver, ttl: ttl, logger: logger}
}

// ValuePortfolio never fails because of a single balance: entries whose rate
// is unknown, missing or stale are marked unavailable and left out of Total.
// Only an unknown base currency is returned as an error.
func (v *Valuator) ValuePortfolio(ctx context.Context, balances []domain.Balance, base string) (domain.Valuation, error) {
	base = NormalizeCode(base)
	if _, err := v.registry.Get(base); err != nil {
		return domain.Valuation{}, err
	}

	res := domain.Valuation{Base: base, Entries: make([]domain.ValuationEntry, 0, len(balances))}
	total := decimal.Zero

	for _, b := range balances {
		code := NormalizeCode(b.Code)
		entry := domain.ValuationEntry{Code: code, Balance: b.Amount}
		log := v.logger.WithFields(logrus.Fields{"code": code, "base": base})

		if !finite(b.Amount) {
			log.Warn("Balance is not a finite number, excluding balance from valuation")
			res.Entries = append(res.Entries, entry)
			continue
		}

		rate := 1.0
		if code != base {
			q, err := v.resolver.Resolve(ctx, code, base, v.ttl)
			if err != nil {
				var notFound *domain.CurrencyNotFoundError
				if errors.Is(err, domain.ErrStaleOrMissingRate) || errors.As(err, &notFound) {
					log.Debugf("Excluding balance from valuation: %v", err)
				} else {
					log.WithError(err).Warn("Rate lookup failed, excluding balance from valuation")
				}
				res.Entries = append(res.Entries, entry)
				continue
			}
			rate = q.Rate
		}
		if !finite(rate) {
			log.Warn("Rate is not a finite number, excluding balance from valuation")
			res.Entries = append(res.Entries, entry)
			continue
		}

		converted := decimal.NewFromFloat(b.Amount).Mul(decimal.NewFromFloat(rate))
		value := converted.InexactFloat64()
		next := total.Add(converted)
		// Total has to stay within float64 range to be encodable
		if !finite(value) || !finite(next.InexactFloat64()) {
			log.Warn("Converted value overflows, excluding balance from valuation")
			res.Entries = append(res.Entries, entry)
			continue
		}
		entry.Value, entry.Available = &value, true
		total = next
		res.Entries = append(res.Entries, entry)
	}

	res.Total = total.InexactFloat64()
	return res, nil
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
