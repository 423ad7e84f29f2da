package balance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/coinvault/coinvault/internal/money"
)

const redisKeyPrefix = "currency:"

// RedisTier is the distributed cache tier. It holds one plain decimal string
// per (account, currency) key with a sliding TTL and reads/writes through to
// the balance store.
type RedisTier struct {
	rdb   *redis.Client
	store Store
	ttl   time.Duration
}

// NewRedisTier builds the distributed tier over the given client and store.
func NewRedisTier(rdb *redis.Client, store Store, ttl time.Duration) *RedisTier {
	return &RedisTier{rdb: rdb, store: store, ttl: ttl}
}

func redisKey(account uuid.UUID, currencyID string) string {
	return redisKeyPrefix + currencyID + ":" + account.String()
}

// Get returns the cached balance, extending its TTL on a hit. A miss (or an
// unparseable cached value) reads through to the store and caches the result.
func (t *RedisTier) Get(ctx context.Context, account uuid.UUID, currencyID string) (decimal.Decimal, error) {
	key := redisKey(account, currencyID)

	data, err := t.rdb.Get(ctx, key).Result()
	if err == nil {
		if cached, parseErr := decimal.NewFromString(data); parseErr == nil {
			if err := t.rdb.Expire(ctx, key, t.ttl).Err(); err != nil {
				return decimal.Decimal{}, err
			}
			return money.Scale(cached), nil
		}
		// Corrupt entry: fall through and reload from the store.
	} else if err != redis.Nil {
		return decimal.Decimal{}, err
	}

	stored, err := t.store.GetBalance(ctx, account, currencyID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if err := t.rdb.Set(ctx, key, stored.String(), t.ttl).Err(); err != nil {
		return decimal.Decimal{}, err
	}
	return stored, nil
}

// GetAll warms a whole account from the store in a single round trip and
// back-fills the per-currency cache keys in one pipeline.
func (t *RedisTier) GetAll(ctx context.Context, account uuid.UUID) (map[string]decimal.Decimal, error) {
	balances, err := t.store.GetAllBalances(ctx, account)
	if err != nil {
		return nil, err
	}

	if len(balances) > 0 {
		pipe := t.rdb.Pipeline()
		for currencyID, bal := range balances {
			pipe.Set(ctx, redisKey(account, currencyID), bal.String(), t.ttl)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, err
		}
	}
	return balances, nil
}

// GetMultiple resolves many accounts against one currency using at most two
// network round trips to the cache plus one batched store read: an MGET for
// every key, a single store query for the misses, and one pipelined
// write-back.
func (t *RedisTier) GetMultiple(ctx context.Context, accounts []uuid.UUID, currencyID string) (map[uuid.UUID]decimal.Decimal, error) {
	results := make(map[uuid.UUID]decimal.Decimal, len(accounts))
	if len(accounts) == 0 {
		return results, nil
	}

	keys := make([]string, len(accounts))
	for i, account := range accounts {
		keys[i] = redisKey(account, currencyID)
	}

	values, err := t.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var missing []uuid.UUID
	for i, account := range accounts {
		raw, ok := values[i].(string)
		if !ok {
			missing = append(missing, account)
			continue
		}
		cached, parseErr := decimal.NewFromString(raw)
		if parseErr != nil {
			missing = append(missing, account)
			continue
		}
		results[account] = money.Scale(cached)
	}

	if len(missing) > 0 {
		stored, err := t.store.GetBalances(ctx, missing, currencyID)
		if err != nil {
			return nil, err
		}
		pipe := t.rdb.Pipeline()
		for _, account := range missing {
			bal := stored[account] // zero value for absent rows
			pipe.Set(ctx, redisKey(account, currencyID), bal.String(), t.ttl)
			results[account] = bal
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Update applies the increment to the store first, then refreshes the cached
// value as the currently cached (possibly stale within the TTL window) amount
// plus the delta. The store stays authoritative; a cold load converges the
// cache. Re-fetching from the store on every update would close that window
// at the cost of an extra store round trip per mutation.
func (t *RedisTier) Update(ctx context.Context, account uuid.UUID, currencyID string, delta decimal.Decimal) error {
	if err := t.store.Give(ctx, account, currencyID, delta); err != nil {
		return err
	}

	current, err := t.Get(ctx, account, currencyID)
	if err != nil {
		return err
	}
	next := money.Scale(current.Add(delta))
	return t.rdb.Set(ctx, redisKey(account, currencyID), next.String(), t.ttl).Err()
}

// Set overwrites the store first, then the cache entry.
func (t *RedisTier) Set(ctx context.Context, account uuid.UUID, currencyID string, amount decimal.Decimal) error {
	if err := t.store.Set(ctx, account, currencyID, amount); err != nil {
		return err
	}
	return t.rdb.Set(ctx, redisKey(account, currencyID), amount.String(), t.ttl).Err()
}
