package repository

import (
	"context"
	"time"

	"course-marketplace/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByGatewayToken(ctx context.Context, tx Tx, token string) (*model.Payment, error)
	// SetCheckout persists the gateway token and checkout URL on a pending payment.
	SetCheckout(ctx context.Context, tx Tx, id, token, checkoutURL string) error
	// UpdateStatusIfPending atomically moves a payment out of 'pending'.
	// Returns false when the payment was not pending (the caller lost the race
	// or the transition was already applied).
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus, linkedTransactionID *string) (bool, error)
	// UpdateStatusIfCompleted atomically moves 'completed' to 'refunded'.
	UpdateStatusIfCompleted(ctx context.Context, tx Tx, id string, status model.PaymentStatus) (bool, error)
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)
}
