// Package balance implements the layered balance engine: a Postgres system of
// record fronted by optional distributed (Redis) and in-process cache tiers.
package balance

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrMutationNotApplied signals that a store upsert reported zero affected
// rows. This is a logic or schema defect, never a transient condition, and
// must not be swallowed.
var ErrMutationNotApplied = errors.New("balance mutation affected no rows")

// RankNone is returned by Rank when the account holds no row for the
// requested currency.
const RankNone int64 = -1

// Entry is one leaderboard row.
type Entry struct {
	Account uuid.UUID
	Balance decimal.Decimal
}

// Store is the system of record for balances. Missing rows read as zero, and
// all mutations are atomic upserts safe under concurrent callers.
type Store interface {
	GetBalance(ctx context.Context, account uuid.UUID, currencyID string) (decimal.Decimal, error)
	GetAllBalances(ctx context.Context, account uuid.UUID) (map[string]decimal.Decimal, error)
	GetBalances(ctx context.Context, accounts []uuid.UUID, currencyID string) (map[uuid.UUID]decimal.Decimal, error)
	Give(ctx context.Context, account uuid.UUID, currencyID string, delta decimal.Decimal) error
	Set(ctx context.Context, account uuid.UUID, currencyID string, amount decimal.Decimal) error
	Leaderboard(ctx context.Context, currencyID string, limit int) ([]Entry, error)
	Rank(ctx context.Context, account uuid.UUID, currencyID string) (int64, error)
}

// Tier is one layer of the read/write chain. Reads are read-through: a miss
// consults the next lower tier and caches the result. Writes go to the lowest
// tier first and are reflected upward afterwards, so a failure between tiers
// can only lose a cache entry, never a committed write.
type Tier interface {
	Get(ctx context.Context, account uuid.UUID, currencyID string) (decimal.Decimal, error)
	GetAll(ctx context.Context, account uuid.UUID) (map[string]decimal.Decimal, error)
	GetMultiple(ctx context.Context, accounts []uuid.UUID, currencyID string) (map[uuid.UUID]decimal.Decimal, error)
	Update(ctx context.Context, account uuid.UUID, currencyID string, delta decimal.Decimal) error
	Set(ctx context.Context, account uuid.UUID, currencyID string, amount decimal.Decimal) error
}

// StoreTier adapts a Store directly to the Tier interface for configurations
// that skip the distributed tier.
type StoreTier struct {
	store Store
}

// NewStoreTier wraps the store as the lowest tier.
func NewStoreTier(store Store) *StoreTier {
	return &StoreTier{store: store}
}

func (t *StoreTier) Get(ctx context.Context, account uuid.UUID, currencyID string) (decimal.Decimal, error) {
	return t.store.GetBalance(ctx, account, currencyID)
}

func (t *StoreTier) GetAll(ctx context.Context, account uuid.UUID) (map[string]decimal.Decimal, error) {
	return t.store.GetAllBalances(ctx, account)
}

func (t *StoreTier) GetMultiple(ctx context.Context, accounts []uuid.UUID, currencyID string) (map[uuid.UUID]decimal.Decimal, error) {
	return t.store.GetBalances(ctx, accounts, currencyID)
}

func (t *StoreTier) Update(ctx context.Context, account uuid.UUID, currencyID string, delta decimal.Decimal) error {
	return t.store.Give(ctx, account, currencyID, delta)
}

func (t *StoreTier) Set(ctx context.Context, account uuid.UUID, currencyID string, amount decimal.Decimal) error {
	return t.store.Set(ctx, account, currencyID, amount)
}
