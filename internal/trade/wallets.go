package trade

import (
	"errors"
	"slices"
	"sync"

	"fxhub/internal/domain"
)

var ErrWalletNotFound = errors.New("wallet not found")

// WalletStore keeps per-user wallets in memory.
type WalletStore struct {
	mu      sync.RWMutex
	wallets map[string]map[string]*domain.Wallet // user -> code -> wallet
}

func NewWalletStore() *WalletStore {
	return &WalletStore{wallets: make(map[string]map[string]*domain.Wallet)}
}

// Update applies fn to the user's wallet for code under the store lock and
// returns the balance before and after. When create is false a missing wallet
// is ErrWalletNotFound. A failing fn leaves the balance unchanged.
func (s *WalletStore) Update(user, code string, create bool, fn func(w *domain.Wallet) error) (before, after float64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userWallets, ok := s.wallets[user]
	if !ok {
		if !create {
			return 0, 0, ErrWalletNotFound
		}
		userWallets = make(map[string]*domain.Wallet)
		s.wallets[user] = userWallets
	}
	w, ok := userWallets[code]
	if !ok {
		if !create {
			return 0, 0, ErrWalletNotFound
		}
		w = &domain.Wallet{Code: code}
		userWallets[code] = w
	}

	before = w.Balance
	if err = fn(w); err != nil {
		return before, w.Balance, err
	}
	return before, w.Balance, nil
}

// Balances returns the user's balances ordered by currency code.
func (s *WalletStore) Balances(user string) []domain.Balance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]domain.Balance, 0, len(s.wallets[user]))
	for code, w := range s.wallets[user] {
		res = append(res, domain.Balance{Code: code, Amount: w.Balance})
	}
	slices.SortFunc(res, func(a, b domain.Balance) int {
		switch {
		case a.Code < b.Code:
			return -1
		case a.Code > b.Code:
			return 1
		}
		return 0
	})
	return res
}
