package balance

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SeedBalance is a test helper that writes a balance directly into an
// in-memory store, bypassing the mutation path.
func SeedBalance(s Store, account uuid.UUID, currencyID string, amount decimal.Decimal) {
	if mem, ok := s.(*memoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.balances[memoryKey{account, currencyID}] = amount
	}
}

// FullLoads is a test helper reporting how many whole-account loads an
// in-memory store has served.
func FullLoads(s Store) int {
	mem, ok := s.(*memoryStore)
	if !ok {
		return 0
	}
	mem.mu.RLock()
	defer mem.mu.RUnlock()
	return mem.allLoads
}
