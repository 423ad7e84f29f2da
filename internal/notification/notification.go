package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction records one completed balance mutation for downstream
// consumers. It is never persisted here.
type Transaction struct {
	Account    uuid.UUID
	CurrencyID string
	OldBalance decimal.Decimal
	NewBalance decimal.Decimal
	Change     decimal.Decimal
	At         time.Time
}

// Notifier delivers transaction records to downstream systems. Mutations
// never depend on a response from the sink.
type Notifier interface {
	Send(ctx context.Context, tx Transaction) error
}

// LoggerNotifier is a stub implementation that writes transaction records to
// the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the transaction record to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, tx Transaction) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("balance transaction",
		"account", tx.Account.String(),
		"currency", tx.CurrencyID,
		"old_balance", tx.OldBalance.String(),
		"new_balance", tx.NewBalance.String(),
		"change", tx.Change.String(),
	)
	return nil
}
