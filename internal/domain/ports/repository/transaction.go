package repository

import (
	"context"

	"course-marketplace/internal/domain/model"
)

// TransactionRepository is the append-only ledger. There is no update or
// delete; refunds are new rows referencing the original entry.
type TransactionRepository interface {
	Save(ctx context.Context, tx Tx, t *model.Transaction) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Transaction, error)
	FindByPaymentID(ctx context.Context, tx Tx, paymentID string) (*model.Transaction, error)
	ListByUser(ctx context.Context, tx Tx, userID string, offset, limit int) ([]*model.Transaction, error)
	SumByPeriod(ctx context.Context, tx Tx, period string) (int64, error)
}
