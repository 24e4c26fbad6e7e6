package domain

import "fmt"

type CurrencyKind string

const (
	KindFiat   CurrencyKind = "fiat"
	KindCrypto CurrencyKind = "crypto"
)

type Currency struct {
	Code string       `json:"code"`
	Name string       `json:"name"`
	Kind CurrencyKind `json:"kind"`
	// fiat only
	IssuingCountry string `json:"issuing_country,omitempty"`
	// crypto only
	Algorithm string  `json:"algorithm,omitempty"`
	MarketCap float64 `json:"market_cap,omitempty"`
}

func (c Currency) DisplayInfo() string {
	if c.Kind == KindCrypto {
		return fmt.Sprintf("[CRYPTO] %s — %s (Algo: %s, MCAP: %.2e)", c.Code, c.Name, c.Algorithm, c.MarketCap)
	}
	return fmt.Sprintf("[FIAT] %s — %s (Issuing: %s)", c.Code, c.Name, c.IssuingCountry)
}

// DefaultCurrencies is the built-in registry content.
func DefaultCurrencies() []Currency {
	return []Currency{
		{Code: "USD", Name: "US Dollar", Kind: KindFiat, IssuingCountry: "United States"},
		{Code: "EUR", Name: "Euro", Kind: KindFiat, IssuingCountry: "Eurozone"},
		{Code: "GBP", Name: "Pound Sterling", Kind: KindFiat, IssuingCountry: "United Kingdom"},
		{Code: "RUB", Name: "Russian Ruble", Kind: KindFiat, IssuingCountry: "Russia"},
		{Code: "BTC", Name: "Bitcoin", Kind: KindCrypto, Algorithm: "SHA-256", MarketCap: 1.12e12},
		{Code: "ETH", Name: "Ethereum", Kind: KindCrypto, Algorithm: "Ethash", MarketCap: 4.50e11},
		{Code: "SOL", Name: "Solana", Kind: KindCrypto, Algorithm: "Proof of History", MarketCap: 7.8e10},
	}
}
