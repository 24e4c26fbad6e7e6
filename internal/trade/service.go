package trade

import (
	"context"
	"math"
	"time"

	"fxhub/internal/domain"
)

const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
)

type rateEstimator interface {
	Estimate(ctx context.Context, from, to string, ttl time.Duration) (domain.RateQuote, error)
}

type portfolioValuator interface {
	ValuePortfolio(ctx context.Context, balances []domain.Balance, base string) (domain.Valuation, error)
}

type currencyRegistry interface {
	Get(code string) (domain.Currency, error)
}

type Service interface {
	Buy(ctx context.Context, user, code string, amount float64) (Result, error)
	Sell(ctx context.Context, user, code string, amount float64) (Result, error)
	Portfolio(ctx context.Context, user, base string) (domain.Valuation, error)
}

// Result describes a completed trade. Rate and EstimatedValue are nil when
// no usable rate to Base was available; the trade itself still happened.
type Result struct {
	Action         string
	User           string
	Currency       string
	Amount         float64
	BalanceBefore  float64
	BalanceAfter   float64
	Base           string
	Rate           *float64
	EstimatedValue *float64
}

type service struct {
	wallets  *WalletStore
	registry currencyRegistry
	rates    rateEstimator
	valuator portfolioValuator
	base     string
	ttl      time.Duration
}

func NewService(wallets *WalletStore, registry currencyRegistry, rates rateEstimator, valuator portfolioValuator, base string, ttl time.Duration) Service {
	return &service{
		wallets:  wallets,
		registry: registry,
		rates:    rates,
		valuator: valuator,
		base:     base,
		ttl:      ttl,
	}
}

func (s *service) Buy(ctx context.Context, user, code string, amount float64) (Result, error) {
	return s.apply(ctx, ActionBuy, user, code, amount, true, func(w *domain.Wallet) error {
		return w.Deposit(amount)
	})
}

func (s *service) Sell(ctx context.Context, user, code string, amount float64) (Result, error) {
	return s.apply(ctx, ActionSell, user, code, amount, false, func(w *domain.Wallet) error {
		return w.Withdraw(amount)
	})
}

func (s *service) Portfolio(ctx context.Context, user, base string) (domain.Valuation, error) {
	if base == "" {
		base = s.base
	}
	return s.valuator.ValuePortfolio(ctx, s.wallets.Balances(user), base)
}

func (s *service) apply(ctx context.Context, action, user, code string, amount float64, create bool, fn func(w *domain.Wallet) error) (Result, error) {
	res := Result{Action: action, User: user, Amount: amount, Base: s.base}
	if !domain.ValidAmount(amount) {
		return res, domain.ErrInvalidAmount
	}
	currency, err := s.registry.Get(code)
	if err != nil {
		return res, err
	}
	res.Currency = currency.Code

	res.BalanceBefore, res.BalanceAfter, err = s.wallets.Update(user, currency.Code, create, fn)
	if err != nil {
		return res, err
	}

	// the estimate is informational, a missing rate never fails the trade
	if q, estErr := s.rates.Estimate(ctx, currency.Code, s.base, s.ttl); estErr == nil {
		rate := q.Rate
		res.Rate = &rate
		if value := amount * q.Rate; !math.IsInf(value, 0) {
			res.EstimatedValue = &value
		}
	}
	return res, nil
}
