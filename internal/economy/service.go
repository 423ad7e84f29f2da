// Package economy exposes the currency operations built on top of the tiered
// balance engine: reads, signed mutations, leaderboards and ranks, with a
// transaction record emitted for every mutation.
package economy

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coinvault/coinvault/internal/balance"
	"github.com/coinvault/coinvault/internal/money"
	"github.com/coinvault/coinvault/internal/notification"
)

// Service wires the configured tier chain, the system of record and the
// notification sink. Ranking queries always go straight to the store.
type Service struct {
	tier     balance.Tier
	store    balance.Store
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService builds an economy service.
func NewService(tier balance.Tier, store balance.Store, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{tier: tier, store: store, notifier: notifier, logger: logger}
}

// Balance returns the account's balance for one currency through the tier
// chain. Never-written keys read as zero.
func (s *Service) Balance(ctx context.Context, account uuid.UUID, currencyID string) (decimal.Decimal, error) {
	return s.tier.Get(ctx, account, currencyID)
}

// Balances returns every currency balance the account holds.
func (s *Service) Balances(ctx context.Context, account uuid.UUID) (map[string]decimal.Decimal, error) {
	return s.tier.GetAll(ctx, account)
}

// BalancesFor returns the balance of each listed account for one currency.
func (s *Service) BalancesFor(ctx context.Context, accounts []uuid.UUID, currencyID string) (map[uuid.UUID]decimal.Decimal, error) {
	return s.tier.GetMultiple(ctx, accounts, currencyID)
}

// Give adds a signed delta to the account's balance. The delta is scaled
// half-down once here; the tiers below apply it exactly.
func (s *Service) Give(ctx context.Context, account uuid.UUID, currencyID string, amount decimal.Decimal) (notification.Transaction, error) {
	delta := money.Scale(amount)

	old, err := s.tier.Get(ctx, account, currencyID)
	if err != nil {
		return notification.Transaction{}, err
	}
	if err := s.tier.Update(ctx, account, currencyID, delta); err != nil {
		return notification.Transaction{}, err
	}

	tx := notification.Transaction{
		Account:    account,
		CurrencyID: currencyID,
		OldBalance: old,
		NewBalance: money.Scale(old.Add(delta)),
		Change:     delta,
		At:         time.Now().UTC(),
	}
	s.notify(ctx, tx)
	return tx, nil
}

// Take removes |amount| from the account's balance.
func (s *Service) Take(ctx context.Context, account uuid.UUID, currencyID string, amount decimal.Decimal) (notification.Transaction, error) {
	return s.Give(ctx, account, currencyID, amount.Abs().Neg())
}

// TryTake removes |amount| only when the current balance covers it, and
// reports whether the take happened.
func (s *Service) TryTake(ctx context.Context, account uuid.UUID, currencyID string, amount decimal.Decimal) (bool, error) {
	needed := money.Scale(amount.Abs())

	current, err := s.tier.Get(ctx, account, currencyID)
	if err != nil {
		return false, err
	}
	if current.LessThan(needed) {
		return false, nil
	}
	if _, err := s.Take(ctx, account, currencyID, needed); err != nil {
		return false, err
	}
	return true, nil
}

// Set overwrites the account's balance with the scaled amount.
func (s *Service) Set(ctx context.Context, account uuid.UUID, currencyID string, amount decimal.Decimal) (notification.Transaction, error) {
	scaled := money.Scale(amount)

	old, err := s.tier.Get(ctx, account, currencyID)
	if err != nil {
		return notification.Transaction{}, err
	}
	if err := s.tier.Set(ctx, account, currencyID, scaled); err != nil {
		return notification.Transaction{}, err
	}

	tx := notification.Transaction{
		Account:    account,
		CurrencyID: currencyID,
		OldBalance: old,
		NewBalance: scaled,
		Change:     scaled.Sub(old),
		At:         time.Now().UTC(),
	}
	s.notify(ctx, tx)
	return tx, nil
}

// Leaderboard returns up to limit holders of the currency ordered by
// descending balance.
func (s *Service) Leaderboard(ctx context.Context, currencyID string, limit int) ([]balance.Entry, error) {
	return s.store.Leaderboard(ctx, currencyID, limit)
}

// Rank returns the account's 1-based leaderboard position, or
// balance.RankNone when it holds no row for the currency.
func (s *Service) Rank(ctx context.Context, account uuid.UUID, currencyID string) (int64, error) {
	return s.store.Rank(ctx, account, currencyID)
}

func (s *Service) notify(ctx context.Context, tx notification.Transaction) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, tx); err != nil && s.logger != nil {
		s.logger.Warn("transaction notification failed",
			"account", tx.Account.String(),
			"currency", tx.CurrencyID,
			"error", err,
		)
	}
}
