package balance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coinvault/coinvault/internal/money"
)

// LocalTier is the in-process cache tier. It holds one currency->balance map
// per account, expiring entries after a configurable idle window measured
// from last access. A miss loads the account's entire map from the lower tier
// under a per-account lock so concurrent cold reads trigger exactly one load.
type LocalTier struct {
	lower Tier
	ttl   time.Duration

	mu      sync.Mutex
	entries map[uuid.UUID]*localEntry

	// One lock per account, created lazily and never removed. Growth is
	// bounded by the number of distinct active accounts.
	loadLocks sync.Map
}

type localEntry struct {
	// balances maps are never mutated after install; writers replace the
	// whole map, so readers can use one without holding any lock.
	balances   map[string]decimal.Decimal
	lastAccess time.Time
}

// NewLocalTier builds the in-process tier over the given lower tier.
func NewLocalTier(lower Tier, ttl time.Duration) *LocalTier {
	return &LocalTier{
		lower:   lower,
		ttl:     ttl,
		entries: make(map[uuid.UUID]*localEntry),
	}
}

// lookup returns the account's resident map, refreshing its last-access time.
// Idle entries are dropped on the way.
func (t *LocalTier) lookup(account uuid.UUID) (map[string]decimal.Decimal, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[account]
	if !ok {
		return nil, false
	}
	if time.Since(entry.lastAccess) > t.ttl {
		delete(t.entries, account)
		return nil, false
	}
	entry.lastAccess = time.Now()
	return entry.balances, true
}

func (t *LocalTier) install(account uuid.UUID, balances map[string]decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[account] = &localEntry{balances: balances, lastAccess: time.Now()}
}

// load fetches the account's full currency map from the lower tier, scales it
// and installs it.
func (t *LocalTier) load(ctx context.Context, account uuid.UUID) (map[string]decimal.Decimal, error) {
	lower, err := t.lower.GetAll(ctx, account)
	if err != nil {
		return nil, err
	}

	balances := make(map[string]decimal.Decimal, len(lower))
	for currencyID, bal := range lower {
		balances[currencyID] = money.Scale(bal)
	}
	t.install(account, balances)
	return balances, nil
}

// Get returns the cached balance on a hit without touching the lower tier. On
// a miss it serializes with other cold reads for the same account, re-checks
// the cache, then loads the account's whole currency map in one lower-tier
// call. A currency absent from the loaded map reads as zero.
func (t *LocalTier) Get(ctx context.Context, account uuid.UUID, currencyID string) (decimal.Decimal, error) {
	if balances, ok := t.lookup(account); ok {
		if bal, ok := balances[currencyID]; ok {
			return bal, nil
		}
	}

	lockAny, _ := t.loadLocks.LoadOrStore(account, &sync.Mutex{})
	lock := lockAny.(*sync.Mutex)
	lock.Lock()
	defer lock.Unlock()

	// Second check: another caller may have loaded the account while this
	// one waited on the lock.
	if balances, ok := t.lookup(account); ok {
		if bal, ok := balances[currencyID]; ok {
			return bal, nil
		}
	}

	balances, err := t.load(ctx, account)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if bal, ok := balances[currencyID]; ok {
		return bal, nil
	}
	return decimal.Zero, nil
}

// GetAll returns the account's resident map, loading it on a miss.
func (t *LocalTier) GetAll(ctx context.Context, account uuid.UUID) (map[string]decimal.Decimal, error) {
	if balances, ok := t.lookup(account); ok {
		return balances, nil
	}
	return t.load(ctx, account)
}

// GetMultiple resolves each account through Get; every key is individually
// cache-checked, so no batching happens at this tier.
func (t *LocalTier) GetMultiple(ctx context.Context, accounts []uuid.UUID, currencyID string) (map[uuid.UUID]decimal.Decimal, error) {
	results := make(map[uuid.UUID]decimal.Decimal, len(accounts))
	for _, account := range accounts {
		bal, err := t.Get(ctx, account, currencyID)
		if err != nil {
			return nil, err
		}
		results[account] = bal
	}
	return results, nil
}

// Update applies the increment to the lower tier first, then refreshes the
// local entry by adding the delta to whichever value is resident.
func (t *LocalTier) Update(ctx context.Context, account uuid.UUID, currencyID string, delta decimal.Decimal) error {
	if err := t.lower.Update(ctx, account, currencyID, delta); err != nil {
		return err
	}

	balances, ok := t.lookup(account)
	if !ok {
		// A fresh load already reflects the increment.
		_, err := t.load(ctx, account)
		return err
	}

	next := make(map[string]decimal.Decimal, len(balances)+1)
	for k, v := range balances {
		next[k] = v
	}
	current, ok := next[currencyID]
	if !ok {
		current = decimal.Zero
	}
	next[currencyID] = money.Scale(current.Add(delta))
	t.install(account, next)
	return nil
}

// Set overwrites the lower tier first, then the local entry.
func (t *LocalTier) Set(ctx context.Context, account uuid.UUID, currencyID string, amount decimal.Decimal) error {
	scaled := money.Scale(amount)
	if err := t.lower.Set(ctx, account, currencyID, scaled); err != nil {
		return err
	}

	balances, ok := t.lookup(account)
	if !ok {
		var err error
		if balances, err = t.load(ctx, account); err != nil {
			return err
		}
	}

	next := make(map[string]decimal.Decimal, len(balances)+1)
	for k, v := range balances {
		next[k] = v
	}
	next[currencyID] = scaled
	t.install(account, next)
	return nil
}

// Invalidate drops the account's local entry. Used when external state
// changes bypass this cache.
func (t *LocalTier) Invalidate(account uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, account)
}

// SetLocalOnly overwrites the local view without touching any lower tier,
// for callers that already updated the lower tier through a separate path.
// When no entry is resident this is a no-op so a partial, unbacked entry can
// never appear.
func (t *LocalTier) SetLocalOnly(account uuid.UUID, currencyID string, amount decimal.Decimal) {
	balances, ok := t.lookup(account)
	if !ok {
		return
	}

	next := make(map[string]decimal.Decimal, len(balances)+1)
	for k, v := range balances {
		next[k] = v
	}
	next[currencyID] = money.Scale(amount)
	t.install(account, next)
}

// GetIfCached peeks at the local entry without consulting any lower tier.
func (t *LocalTier) GetIfCached(account uuid.UUID, currencyID string) (decimal.Decimal, bool) {
	balances, ok := t.lookup(account)
	if !ok {
		return decimal.Decimal{}, false
	}
	bal, ok := balances[currencyID]
	return bal, ok
}
