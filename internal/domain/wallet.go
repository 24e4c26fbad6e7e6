package domain

import "math"

type Wallet struct {
	Code    string  `json:"currency_code"`
	Balance float64 `json:"balance"`
}

// ValidAmount reports whether amount is a positive finite number.
func ValidAmount(amount float64) bool {
	return amount > 0 && !math.IsInf(amount, 0) && !math.IsNaN(amount)
}

// Deposit rejects amounts that would push the balance out of float64 range.
func (w *Wallet) Deposit(amount float64) error {
	if !ValidAmount(amount) {
		return ErrInvalidAmount
	}
	next := w.Balance + amount
	if math.IsInf(next, 0) {
		return ErrInvalidAmount
	}
	w.Balance = next
	return nil
}

func (w *Wallet) Withdraw(amount float64) error {
	if !ValidAmount(amount) {
		return ErrInvalidAmount
	}
	if amount > w.Balance {
		return &InsufficientFundsError{Code: w.Code, Available: w.Balance, Required: amount}
	}
	w.Balance -= amount
	return nil
}

type Balance struct {
	Code   string
	Amount float64
}

type ValuationEntry struct {
	Code      string   `json:"code"`
	Balance   float64  `json:"balance"`
	Value     *float64 `json:"converted_value"`
	Available bool     `json:"available"`
}

// Valuation is a best-effort portfolio value; unavailable entries are
// excluded from Total.
type Valuation struct {
	Base    string           `json:"base"`
	Entries []ValuationEntry `json:"entries"`
	Total   float64          `json:"total"`
}
