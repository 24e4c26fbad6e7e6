package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"fxhub/internal/domain"
)

const CoinGeckoSourceName = "CoinGecko"

// CoinGeckoSource fetches crypto prices quoted in the base currency.
type CoinGeckoSource struct {
	http    *http.Client
	baseURL string
	apiKey  string
	base    string
	codes   []string
	ids     map[string]string // code -> coingecko id
}

func (c *CoinGeckoSource) Name() string { return CoinGeckoSourceName }

func (c *CoinGeckoSource) FetchRates(ctx context.Context) ([]domain.FetchedRate, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, domain.NewSourceError(c.Name(), domain.SourceErrNetwork, fmt.Errorf("failed to parse base URL: %w", err))
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/simple/price"

	ids := make([]string, 0, len(c.codes))
	for _, code := range c.codes {
		if id, ok := c.ids[code]; ok {
			ids = append(ids, id)
		}
	}
	vs := strings.ToLower(c.base)

	q := u.Query()
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", vs)
	u.RawQuery = q.Encode()

	var header http.Header
	if c.apiKey != "" {
		header = http.Header{"x-cg-demo-api-key": []string{c.apiKey}}
	}

	var body map[string]map[string]float64
	info, err := getJSON(ctx, c.http, c.Name(), u.String(), header, &body)
	if err != nil {
		return nil, err
	}

	if len(ids) > 0 && !containsAny(body, ids) {
		return nil, domain.NewSourceError(c.Name(), domain.SourceErrPayload,
			fmt.Errorf("response contains none of the requested ids: %s", strings.Join(ids, ",")))
	}

	rates := make([]domain.FetchedRate, 0, len(c.codes))
	for _, code := range c.codes {
		id, ok := c.ids[code]
		if !ok {
			continue
		}
		price, ok := body[id][vs]
		if !ok || price <= 0 {
			continue
		}
		rates = append(rates, domain.FetchedRate{
			Pair:   domain.RatePair{From: code, To: c.base},
			Rate:   price,
			Source: c.Name(),
			Meta:   info.meta(id),
		})
	}
	return rates, nil
}

func NewCoinGeckoSource(httpClient *http.Client, baseURL, apiKey, base string, codes []string, ids map[string]string) *CoinGeckoSource {
	return &CoinGeckoSource{
		http:    httpClient,
		baseURL: baseURL,
		apiKey:  apiKey,
		base:    strings.ToUpper(base),
		codes:   codes,
		ids:     ids,
	}
}

func containsAny(body map[string]map[string]float64, ids []string) bool {
	for _, id := range ids {
		if _, ok := body[id]; ok {
			return true
		}
	}
	return false
}
