// File: internal/usecase/purchase_refund.go
package usecase

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/domain/ports/repository"
	"course-marketplace/internal/infra/metrics"
)

// Refund writes a new ledger entry with the negated amount referencing the
// original and flips the payment completed→refunded. The granted benefit is
// NOT revoked here: access revocation is a separate, explicit operation.
func (u *purchaseUC) Refund(ctx context.Context, actor Actor, transactionID, reason string) (*model.Transaction, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrUnauthorized
	}
	if transactionID == "" {
		return nil, domain.ErrInvalidArgument
	}
	orig, err := u.ledger.FindByID(ctx, nil, transactionID)
	if err != nil {
		return nil, err
	}
	if orig.Status == model.TransactionStatusRefunded || orig.RefundOfID != nil {
		return nil, domain.ErrAlreadyRefunded
	}
	p, err := u.payments.FindByID(ctx, nil, orig.PaymentID)
	if err != nil {
		return nil, err
	}
	switch p.Status {
	case model.PaymentStatusRefunded:
		return nil, domain.ErrAlreadyRefunded
	case model.PaymentStatusCompleted:
		// ok
	default:
		return nil, domain.ErrPaymentNotComplete
	}

	refund, err := model.NewRefundTransaction(orig, reason)
	if err != nil {
		return nil, err
	}
	txErr := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.ledger.Save(ctx, tx, refund); err != nil {
			return err
		}
		ok, err := u.payments.UpdateStatusIfCompleted(ctx, tx, p.ID, model.PaymentStatusRefunded)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrAlreadyRefunded
		}
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, domain.ErrAlreadyRefunded) {
			return nil, domain.ErrAlreadyRefunded
		}
		return nil, txErr
	}

	p.Status = model.PaymentStatusRefunded
	u.log.Info().
		Str("payment_id", p.ID).
		Str("transaction_id", orig.ID).
		Str("refund_transaction_id", refund.ID).
		Str("admin_id", actor.UserID).
		Int64("amount", refund.Amount).
		Str("currency", refund.Currency).
		Str("reason", reason).
		Msg("payment refunded")
	metrics.IncPayment(string(model.PaymentStatusRefunded))

	u.invalidateFor(ctx, p)
	u.emit(ctx, adapter.EventPaymentRefunded, map[string]interface{}{
		"payment_id":     p.ID,
		"transaction_id": refund.ID,
		"refund_of":      orig.ID,
		"user_id":        p.UserID,
		"amount":         refund.Amount,
	})
	return refund, nil
}
