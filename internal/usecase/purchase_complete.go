// File: internal/usecase/purchase_complete.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/domain/ports/repository"
	"course-marketplace/internal/infra/metrics"
)

// errCompletionRaced aborts the completion transaction when another caller
// won the pending→completed update first.
var errCompletionRaced = errors.New("payment completion lost the race")

// Complete is the idempotency-critical path. A webhook delivery and a client
// confirmation can race for the same payment; correctness rests on the
// conditional pending→completed update executed inside one DB transaction
// with the ledger insert. The loser rolls back its ledger entry and returns
// the winner's records.
func (u *purchaseUC) Complete(ctx context.Context, actor Actor, req CompleteRequest) (*CompletionResult, error) {
	var (
		p   *model.Payment
		err error
	)
	switch {
	case req.PaymentID != "":
		p, err = u.payments.FindByID(ctx, nil, req.PaymentID)
	case req.GatewayToken != "":
		// Some gateway callbacks omit the order id; the session token is
		// unique per checkout and correlates just as well.
		p, err = u.payments.FindByGatewayToken(ctx, nil, req.GatewayToken)
	default:
		return nil, domain.ErrInvalidArgument
	}
	if err != nil {
		return nil, err
	}
	if !actor.System && p.UserID != actor.UserID {
		return nil, domain.ErrUnauthorized
	}

	// Idempotency gate: an already-terminal payment is returned as-is, with
	// no new side effects. Keeps the webhook path safe against replay.
	if p.Status != model.PaymentStatusPending {
		return u.existingResult(ctx, p)
	}

	// Plan purchases need the plan row for the expiry computation; resolve it
	// before opening the transaction.
	var plan *model.SubscriptionPlan
	if p.Target.Kind == model.TargetPlan {
		plan, err = u.plans.FindByID(ctx, nil, p.Target.PlanID)
		if err != nil {
			return nil, fmt.Errorf("resolve plan %s for completion: %w", p.Target.PlanID, err)
		}
	}

	gatewayName := req.GatewayName
	if gatewayName == "" {
		gatewayName = u.gateway.Name()
	}

	var (
		entry      *model.Transaction
		enrollment *model.Enrollment
		subUpdated bool
	)
	txErr := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var courseID *string
		if p.Target.Kind == model.TargetCourse {
			courseID = &p.Target.CourseID
		}
		t, err := model.NewTransaction(p.ID, p.UserID, courseID, p.Amount, p.Currency, req.GatewayTransactionID, gatewayName, p.Title)
		if err != nil {
			return err
		}
		if err := u.ledger.Save(ctx, tx, t); err != nil {
			return err
		}
		ok, err := u.payments.UpdateStatusIfPending(ctx, tx, p.ID, model.PaymentStatusCompleted, &t.ID)
		if err != nil {
			return err
		}
		if !ok {
			return errCompletionRaced
		}
		switch p.Target.Kind {
		case model.TargetCourse:
			e, err := model.NewEnrollment(p.UserID, p.Target.CourseID, p.ID)
			if err != nil {
				return err
			}
			enrollment, err = u.enrollments.Create(ctx, tx, e)
			if err != nil {
				return err
			}
		case model.TargetPlan:
			expires := time.Now().Add(time.Duration(plan.DurationDays) * 24 * time.Hour)
			if err := u.users.UpdateSubscription(ctx, tx, p.UserID, true, plan.ID, &expires); err != nil {
				return err
			}
			subUpdated = true
		}
		entry = t
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, errCompletionRaced) {
			// Someone else completed this payment first; surface their records.
			fresh, err := u.payments.FindByID(ctx, nil, p.ID)
			if err != nil {
				return nil, err
			}
			return u.existingResult(ctx, fresh)
		}
		return nil, txErr
	}

	p.Status = model.PaymentStatusCompleted
	p.LinkedTransactionID = &entry.ID

	u.log.Info().
		Str("payment_id", p.ID).
		Str("transaction_id", entry.ID).
		Str("gateway_ref", req.GatewayTransactionID).
		Str("gateway", gatewayName).
		Int64("amount", p.Amount).
		Str("currency", p.Currency).
		Msg("purchase completed")
	metrics.IncPayment(string(model.PaymentStatusCompleted))
	metrics.AddPaymentRevenue(p.Currency, p.Amount)

	// Steps below are best-effort; their failure never unwinds the payment.
	u.invalidateFor(ctx, p)
	u.emit(ctx, adapter.EventPaymentCompleted, map[string]interface{}{
		"payment_id":     p.ID,
		"transaction_id": entry.ID,
		"user_id":        p.UserID,
		"amount":         p.Amount,
		"currency":       p.Currency,
	})
	if enrollment != nil {
		u.emit(ctx, adapter.EventEnrollmentCreated, map[string]interface{}{
			"enrollment_id": enrollment.ID,
			"user_id":       enrollment.UserID,
			"course_id":     enrollment.CourseID,
			"payment_id":    p.ID,
		})
	}

	return &CompletionResult{
		Payment:             p,
		Transaction:         entry,
		Enrollment:          enrollment,
		SubscriptionUpdated: subUpdated,
	}, nil
}

// existingResult assembles the side-effect-free response for a payment that
// is already terminal: the linked ledger entry and enrollment, if any.
func (u *purchaseUC) existingResult(ctx context.Context, p *model.Payment) (*CompletionResult, error) {
	res := &CompletionResult{Payment: p}
	if tr, err := u.ledger.FindByPaymentID(ctx, nil, p.ID); err == nil {
		res.Transaction = tr
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if p.Target.Kind == model.TargetCourse {
		if e, err := u.enrollments.FindByUserAndCourse(ctx, nil, p.UserID, p.Target.CourseID); err == nil {
			res.Enrollment = e
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	} else if p.Status == model.PaymentStatusCompleted {
		res.SubscriptionUpdated = true
	}
	return res, nil
}

// Fail records a failed gateway outcome: pending→failed, terminal, with no
// ledger entry and no fulfillment. Terminal payments are left untouched so a
// replayed webhook is a safe no-op.
func (u *purchaseUC) Fail(ctx context.Context, paymentID, gatewayTransactionID string) (*model.Payment, error) {
	p, err := u.payments.FindByID(ctx, nil, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != model.PaymentStatusPending {
		return p, nil
	}
	ok, err := u.payments.UpdateStatusIfPending(ctx, nil, p.ID, model.PaymentStatusFailed, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		// raced with a concurrent completion; report whatever won
		return u.payments.FindByID(ctx, nil, p.ID)
	}
	p.Status = model.PaymentStatusFailed
	u.log.Info().
		Str("payment_id", p.ID).
		Str("gateway_ref", gatewayTransactionID).
		Msg("payment failed")
	metrics.IncPayment(string(model.PaymentStatusFailed))
	u.emit(ctx, adapter.EventPaymentFailed, map[string]interface{}{
		"payment_id": p.ID,
		"user_id":    p.UserID,
	})
	return p, nil
}
