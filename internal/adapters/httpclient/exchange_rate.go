package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"fxhub/internal/domain"
)

const ExchangeRateSourceName = "ExchangeRate-API"

// ExchangeRateSource fetches fiat rates from ExchangeRate-API. The API quotes
// base->foreign, so every rate is inverted into the FOREIGN_BASE direction.
type ExchangeRateSource struct {
	http    *http.Client
	baseURL string
	apiKey  string
	base    string
	codes   []string
}

type apiResponse struct {
	Result          string             `json:"result"`
	ErrorType       string             `json:"error-type"`
	BaseCode        string             `json:"base_code"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

func (c *ExchangeRateSource) Name() string { return ExchangeRateSourceName }

func (c *ExchangeRateSource) FetchRates(ctx context.Context) ([]domain.FetchedRate, error) {
	if c.apiKey == "" {
		return nil, domain.NewSourceError(c.Name(), domain.SourceErrCredential, errors.New("api key is not set (EXCHANGERATE_API_KEY)"))
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, domain.NewSourceError(c.Name(), domain.SourceErrNetwork, fmt.Errorf("failed to parse base URL: %w", err))
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + c.apiKey + "/latest/" + c.base

	var body apiResponse
	info, err := getJSON(ctx, c.http, c.Name(), u.String(), nil, &body)
	if err != nil {
		return nil, err
	}

	if body.Result != "success" {
		return nil, domain.NewSourceError(c.Name(), domain.SourceErrPayload,
			fmt.Errorf("api returned non-success result for currency %q: %s (%s)", c.base, body.Result, body.ErrorType))
	}

	baseCode := body.BaseCode
	if baseCode == "" {
		baseCode = c.base
	}

	rates := make([]domain.FetchedRate, 0, len(c.codes))
	for _, code := range c.codes {
		apiRate, ok := body.ConversionRates[code]
		if !ok || apiRate <= 0 {
			continue
		}
		rates = append(rates, domain.FetchedRate{
			Pair:   domain.RatePair{From: code, To: baseCode},
			Rate:   1 / apiRate,
			Source: c.Name(),
			Meta:   info.meta(baseCode),
		})
	}
	return rates, nil
}

func NewExchangeRateSource(httpClient *http.Client, baseURL, apiKey, base string, codes []string) *ExchangeRateSource {
	return &ExchangeRateSource{
		http:    httpClient,
		baseURL: baseURL,
		apiKey:  apiKey,
		base:    strings.ToUpper(base),
		codes:   codes,
	}
}
