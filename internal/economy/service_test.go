package economy

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coinvault/coinvault/internal/balance"
	"github.com/coinvault/coinvault/internal/logging"
	"github.com/coinvault/coinvault/internal/notification"
)

type recordingNotifier struct {
	mu      sync.Mutex
	records []notification.Transaction
}

func (r *recordingNotifier) Send(_ context.Context, tx notification.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, tx)
	return nil
}

func (r *recordingNotifier) last(t *testing.T) notification.Transaction {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.records) == 0 {
		t.Fatal("expected a transaction record")
	}
	return r.records[len(r.records)-1]
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newService(t *testing.T) (*Service, balance.Store, *recordingNotifier) {
	t.Helper()
	store := balance.NewMemoryStore()
	tier := balance.NewLocalTier(balance.NewStoreTier(store), time.Minute)
	notifier := &recordingNotifier{}
	return NewService(tier, store, notifier, logging.Discard()), store, notifier
}

func TestGiveCreatesRowAndEmitsTransaction(t *testing.T) {
	svc, store, notifier := newService(t)
	account := uuid.New()
	ctx := context.Background()

	tx, err := svc.Give(ctx, account, "gold", dec("50.00"))
	if err != nil {
		t.Fatalf("give: %v", err)
	}
	if !tx.OldBalance.IsZero() || !tx.NewBalance.Equal(dec("50.00")) || !tx.Change.Equal(dec("50.00")) {
		t.Fatalf("unexpected transaction record: %+v", tx)
	}

	stored, err := store.GetBalance(ctx, account, "gold")
	if err != nil {
		t.Fatalf("store get: %v", err)
	}
	if !stored.Equal(dec("50.00")) {
		t.Fatalf("expected stored 50.00, got %s", stored)
	}

	last := notifier.last(t)
	if last.Account != account || last.CurrencyID != "gold" {
		t.Fatalf("transaction record misrouted: %+v", last)
	}
}

func TestGiveScalesHalfDownOnce(t *testing.T) {
	svc, store, _ := newService(t)
	account := uuid.New()
	ctx := context.Background()

	if _, err := svc.Give(ctx, account, "gold", dec("250.555")); err != nil {
		t.Fatalf("give: %v", err)
	}

	stored, _ := store.GetBalance(ctx, account, "gold")
	if !stored.Equal(dec("250.55")) {
		t.Fatalf("expected 250.55 after half-down scaling, got %s", stored)
	}
}

func TestReadAfterWriteThroughAllTiers(t *testing.T) {
	svc, _, _ := newService(t)
	account := uuid.New()
	ctx := context.Background()

	if _, err := svc.Set(ctx, account, "gold", dec("77.70")); err != nil {
		t.Fatalf("set: %v", err)
	}
	bal, err := svc.Balance(ctx, account, "gold")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !bal.Equal(dec("77.70")) {
		t.Fatalf("expected 77.70 immediately after set, got %s", bal)
	}

	if _, err := svc.Give(ctx, account, "gold", dec("2.30")); err != nil {
		t.Fatalf("give: %v", err)
	}
	bal, err = svc.Balance(ctx, account, "gold")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !bal.Equal(dec("80.00")) {
		t.Fatalf("expected 80.00 immediately after give, got %s", bal)
	}
}

func TestTakeNegatesAmount(t *testing.T) {
	svc, store, _ := newService(t)
	account := uuid.New()
	ctx := context.Background()

	if _, err := svc.Give(ctx, account, "gold", dec("100.00")); err != nil {
		t.Fatalf("give: %v", err)
	}
	tx, err := svc.Take(ctx, account, "gold", dec("30.00"))
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if !tx.Change.Equal(dec("-30.00")) {
		t.Fatalf("expected change -30.00, got %s", tx.Change)
	}

	stored, _ := store.GetBalance(ctx, account, "gold")
	if !stored.Equal(dec("70.00")) {
		t.Fatalf("expected 70.00, got %s", stored)
	}
}

func TestTryTake(t *testing.T) {
	svc, store, _ := newService(t)
	account := uuid.New()
	ctx := context.Background()

	if _, err := svc.Give(ctx, account, "gold", dec("20.00")); err != nil {
		t.Fatalf("give: %v", err)
	}

	ok, err := svc.TryTake(ctx, account, "gold", dec("25.00"))
	if err != nil {
		t.Fatalf("try take: %v", err)
	}
	if ok {
		t.Fatal("expected insufficient balance to refuse the take")
	}
	stored, _ := store.GetBalance(ctx, account, "gold")
	if !stored.Equal(dec("20.00")) {
		t.Fatalf("refused take must not mutate, got %s", stored)
	}

	ok, err = svc.TryTake(ctx, account, "gold", dec("15.00"))
	if err != nil {
		t.Fatalf("try take: %v", err)
	}
	if !ok {
		t.Fatal("expected covered take to succeed")
	}
	stored, _ = store.GetBalance(ctx, account, "gold")
	if !stored.Equal(dec("5.00")) {
		t.Fatalf("expected 5.00 after take, got %s", stored)
	}
}

func TestSetIsIdempotent(t *testing.T) {
	svc, store, _ := newService(t)
	account := uuid.New()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.Set(ctx, account, "gold", dec("250.555")); err != nil {
			t.Fatalf("set: %v", err)
		}
	}

	stored, _ := store.GetBalance(ctx, account, "gold")
	if !stored.Equal(dec("250.55")) {
		t.Fatalf("expected 250.55, got %s", stored)
	}
}

func TestLeaderboardAndRankThroughService(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	p1 := uuid.New()
	p2 := uuid.New()
	balance.SeedBalance(store, p1, "gold", dec("100.00"))
	balance.SeedBalance(store, p2, "gold", dec("250.55"))

	board, err := svc.Leaderboard(ctx, "gold", 1)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 1 || board[0].Account != p2 {
		t.Fatalf("unexpected leaderboard: %+v", board)
	}

	rank, err := svc.Rank(ctx, p1, "gold")
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if rank != 2 {
		t.Fatalf("expected rank 2, got %d", rank)
	}
}
