package balance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore persists balances in PostgreSQL. The (account_id, currency_id)
// pair is the primary key, so the single-statement upserts in Give and Set are
// race-free without any application-level lock.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed balance store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// inTx runs fn inside a repeatable-read transaction.
func (s *PostgresStore) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetBalance returns the stored balance, or zero when no row exists.
func (s *PostgresStore) GetBalance(ctx context.Context, account uuid.UUID, currencyID string) (decimal.Decimal, error) {
	balance := decimal.Zero
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		const query = `SELECT balance::text FROM currency_balances
            WHERE account_id = $1 AND currency_id = $2`
		var raw string
		if err := tx.QueryRow(ctx, query, account, currencyID).Scan(&raw); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return err
		}
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("parse stored balance for %s/%s: %w", account, currencyID, err)
		}
		balance = parsed
		return nil
	})
	return balance, err
}

// GetAllBalances returns every currency balance held by the account in one
// round trip.
func (s *PostgresStore) GetAllBalances(ctx context.Context, account uuid.UUID) (map[string]decimal.Decimal, error) {
	balances := make(map[string]decimal.Decimal)
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		const query = `SELECT currency_id, balance::text FROM currency_balances
            WHERE account_id = $1`
		rows, err := tx.Query(ctx, query, account)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var currencyID, raw string
			if err := rows.Scan(&currencyID, &raw); err != nil {
				return err
			}
			parsed, err := decimal.NewFromString(raw)
			if err != nil {
				return fmt.Errorf("parse stored balance for %s/%s: %w", account, currencyID, err)
			}
			balances[currencyID] = parsed
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return balances, nil
}

// GetBalances returns the balance of each listed account for one currency.
// Accounts without a row are omitted from the result.
func (s *PostgresStore) GetBalances(ctx context.Context, accounts []uuid.UUID, currencyID string) (map[uuid.UUID]decimal.Decimal, error) {
	balances := make(map[uuid.UUID]decimal.Decimal, len(accounts))
	if len(accounts) == 0 {
		return balances, nil
	}

	err := s.inTx(ctx, func(tx pgx.Tx) error {
		const query = `SELECT account_id, balance::text FROM currency_balances
            WHERE account_id = ANY($1) AND currency_id = $2`
		rows, err := tx.Query(ctx, query, accounts, currencyID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var account uuid.UUID
			var raw string
			if err := rows.Scan(&account, &raw); err != nil {
				return err
			}
			parsed, err := decimal.NewFromString(raw)
			if err != nil {
				return fmt.Errorf("parse stored balance for %s/%s: %w", account, currencyID, err)
			}
			balances[account] = parsed
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return balances, nil
}

// Give atomically adds delta to the stored balance, inserting the row if it
// does not exist yet.
func (s *PostgresStore) Give(ctx context.Context, account uuid.UUID, currencyID string, delta decimal.Decimal) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		const query = `INSERT INTO currency_balances (account_id, currency_id, balance)
            VALUES ($1, $2, $3)
            ON CONFLICT (account_id, currency_id)
            DO UPDATE SET balance = currency_balances.balance + EXCLUDED.balance`
		tag, err := tx.Exec(ctx, query, account, currencyID, delta.String())
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("give %s to %s/%s: %w", delta, account, currencyID, ErrMutationNotApplied)
		}
		return nil
	})
}

// Set atomically overwrites the stored balance, inserting the row if it does
// not exist yet.
func (s *PostgresStore) Set(ctx context.Context, account uuid.UUID, currencyID string, amount decimal.Decimal) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		const query = `INSERT INTO currency_balances (account_id, currency_id, balance)
            VALUES ($1, $2, $3)
            ON CONFLICT (account_id, currency_id)
            DO UPDATE SET balance = EXCLUDED.balance`
		tag, err := tx.Exec(ctx, query, account, currencyID, amount.String())
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("set %s/%s: %w", account, currencyID, ErrMutationNotApplied)
		}
		return nil
	})
}

// Leaderboard returns up to limit accounts ordered by descending balance.
// Ties break on ascending account id, the same key Rank uses.
func (s *PostgresStore) Leaderboard(ctx context.Context, currencyID string, limit int) ([]Entry, error) {
	var entries []Entry
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		const query = `SELECT account_id, balance::text FROM currency_balances
            WHERE currency_id = $1
            ORDER BY balance DESC, account_id ASC
            LIMIT $2`
		rows, err := tx.Query(ctx, query, currencyID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var entry Entry
			var raw string
			if err := rows.Scan(&entry.Account, &raw); err != nil {
				return err
			}
			entry.Balance, err = decimal.NewFromString(raw)
			if err != nil {
				return fmt.Errorf("parse stored balance for %s/%s: %w", entry.Account, currencyID, err)
			}
			entries = append(entries, entry)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Rank returns the 1-based position of the account among all holders of the
// currency ordered by descending balance, or RankNone when the account holds
// no row.
func (s *PostgresStore) Rank(ctx context.Context, account uuid.UUID, currencyID string) (int64, error) {
	rank := RankNone
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		const balanceQuery = `SELECT balance::text FROM currency_balances
            WHERE account_id = $1 AND currency_id = $2`
		var raw string
		if err := tx.QueryRow(ctx, balanceQuery, account, currencyID).Scan(&raw); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return err
		}

		const rankQuery = `SELECT COUNT(*) + 1 FROM currency_balances
            WHERE currency_id = $1
              AND (balance > $2::numeric
                OR (balance = $2::numeric AND account_id < $3))`
		return tx.QueryRow(ctx, rankQuery, currencyID, raw, account).Scan(&rank)
	})
	if err != nil {
		return RankNone, err
	}
	return rank, nil
}
