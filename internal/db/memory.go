package db

import (
	"context"
	"sync"

	"github.com/susu3304/cashubot/internal/ledger"
)

// MemoryStore keeps accounts in a map. It is used in tests.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]ledger.Account
	puts     int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]ledger.Account)}
}

func (m *MemoryStore) GetAccount(_ context.Context, userID string) (*ledger.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[userID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	acc.Balance = append([]string(nil), acc.Balance...)
	return &acc, nil
}

func (m *MemoryStore) PutAccount(_ context.Context, account *ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc := *account
	acc.Balance = append([]string(nil), account.Balance...)
	m.accounts[account.UserID] = acc
	m.puts++
	return nil
}

// Puts returns how many writes the store has accepted.
func (m *MemoryStore) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

func (m *MemoryStore) Close() error {
	return nil
}
