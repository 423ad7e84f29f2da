package balance

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type memoryKey struct {
	account    uuid.UUID
	currencyID string
}

type memoryStore struct {
	mu       sync.RWMutex
	balances map[memoryKey]decimal.Decimal

	// Lower-tier call counters, used by tests asserting load deduplication.
	allLoads int
}

// NewMemoryStore creates a concurrency-safe in-memory Store for tests and
// development runs without a database.
func NewMemoryStore() Store {
	return &memoryStore{balances: make(map[memoryKey]decimal.Decimal)}
}

func (s *memoryStore) GetBalance(_ context.Context, account uuid.UUID, currencyID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bal, ok := s.balances[memoryKey{account, currencyID}]
	if !ok {
		return decimal.Zero, nil
	}
	return bal, nil
}

func (s *memoryStore) GetAllBalances(_ context.Context, account uuid.UUID) (map[string]decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allLoads++

	out := make(map[string]decimal.Decimal)
	for key, bal := range s.balances {
		if key.account == account {
			out[key.currencyID] = bal
		}
	}
	return out, nil
}

func (s *memoryStore) GetBalances(_ context.Context, accounts []uuid.UUID, currencyID string) (map[uuid.UUID]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[uuid.UUID]decimal.Decimal, len(accounts))
	for _, account := range accounts {
		if bal, ok := s.balances[memoryKey{account, currencyID}]; ok {
			out[account] = bal
		}
	}
	return out, nil
}

func (s *memoryStore) Give(_ context.Context, account uuid.UUID, currencyID string, delta decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memoryKey{account, currencyID}
	s.balances[key] = s.balances[key].Add(delta)
	return nil
}

func (s *memoryStore) Set(_ context.Context, account uuid.UUID, currencyID string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[memoryKey{account, currencyID}] = amount
	return nil
}

// holders returns every entry for the currency ordered by descending balance,
// ties broken by ascending account id. Leaderboard and Rank share it so the
// two always agree.
func (s *memoryStore) holders(currencyID string) []Entry {
	var entries []Entry
	for key, bal := range s.balances {
		if key.currencyID == currencyID {
			entries = append(entries, Entry{Account: key.account, Balance: bal})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Balance.Equal(entries[j].Balance) {
			return entries[i].Balance.GreaterThan(entries[j].Balance)
		}
		return entries[i].Account.String() < entries[j].Account.String()
	})
	return entries
}

func (s *memoryStore) Leaderboard(_ context.Context, currencyID string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.holders(currencyID)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *memoryStore) Rank(_ context.Context, account uuid.UUID, currencyID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i, entry := range s.holders(currencyID) {
		if entry.Account == account {
			return int64(i) + 1, nil
		}
	}
	return RankNone, nil
}
