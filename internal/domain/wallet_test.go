package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWallet_Deposit(t *testing.T) {
	w := &Wallet{Code: "USD"}
	require.NoError(t, w.Deposit(10))
	require.NoError(t, w.Deposit(2.5))
	require.Equal(t, 12.5, w.Balance)
}

func TestWallet_DepositRejectsInvalidAmounts(t *testing.T) {
	for name, amount := range map[string]float64{
		"zero":     0,
		"negative": -1,
		"nan":      math.NaN(),
		"inf":      math.Inf(1),
	} {
		t.Run(name, func(t *testing.T) {
			w := &Wallet{Code: "USD", Balance: 1}
			require.ErrorIs(t, w.Deposit(amount), ErrInvalidAmount)
			require.Equal(t, 1.0, w.Balance)
		})
	}
}

func TestWallet_DepositOverflowLeavesBalance(t *testing.T) {
	w := &Wallet{Code: "USD"}
	require.NoError(t, w.Deposit(1.7e308))
	require.ErrorIs(t, w.Deposit(1.7e308), ErrInvalidAmount)
	require.Equal(t, 1.7e308, w.Balance)
}

func TestWallet_Withdraw(t *testing.T) {
	w := &Wallet{Code: "BTC", Balance: 1}
	require.NoError(t, w.Withdraw(0.25))
	require.Equal(t, 0.75, w.Balance)

	var insufficient *InsufficientFundsError
	require.ErrorAs(t, w.Withdraw(2), &insufficient)
	require.Equal(t, 0.75, insufficient.Available)
	require.Equal(t, 2.0, insufficient.Required)

	require.ErrorIs(t, w.Withdraw(math.NaN()), ErrInvalidAmount)
	require.Equal(t, 0.75, w.Balance)
}
