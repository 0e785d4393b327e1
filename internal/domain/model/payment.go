package model

import (
	"time"

	"course-marketplace/internal/domain"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // awaiting gateway outcome
	PaymentStatusCompleted PaymentStatus = "completed" // verified, ledger entry written, benefit granted
	PaymentStatusFailed    PaymentStatus = "failed"    // gateway reported failure
	PaymentStatusRefunded  PaymentStatus = "refunded"  // admin refund of a completed payment
)

type TargetKind string

const (
	TargetCourse TargetKind = "course"
	TargetPlan   TargetKind = "plan"
)

// PurchaseTarget identifies what a payment buys: a single course or a plan.
type PurchaseTarget struct {
	Kind     TargetKind
	CourseID string // set when Kind == TargetCourse
	PlanID   string // set when Kind == TargetPlan
}

func (t PurchaseTarget) Validate() error {
	switch t.Kind {
	case TargetCourse:
		if t.CourseID == "" {
			return domain.ErrInvalidArgument
		}
	case TargetPlan:
		if t.PlanID == "" {
			return domain.ErrInvalidArgument
		}
	default:
		return domain.ErrInvalidArgument
	}
	return nil
}

// Payment records one purchase attempt and its lifecycle state.
// It is created by initiation, mutated only by the purchase orchestrator,
// and never deleted (kept for audit).
type Payment struct {
	ID                  string        // UUID, doubles as the gateway order id
	UserID              string        // UUID
	Target              PurchaseTarget
	Title               string        // denormalized display name of the target
	Amount              int64         // minor units (millimes), to avoid float errors
	Currency            string        // e.g. "TND"
	Status              PaymentStatus
	GatewayToken        string        // opaque handle issued by the gateway; empty until checkout created
	CheckoutURL         string        // empty until checkout created
	LinkedTransactionID *string       // set when the payment completes
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func NewPayment(userID string, target PurchaseTarget, title string, amount int64, currency string) (*Payment, error) {
	if userID == "" || title == "" || amount <= 0 || currency == "" {
		return nil, domain.ErrInvalidArgument
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	return &Payment{
		ID:        uuid.NewString(),
		UserID:    userID,
		Target:    target,
		Title:     title,
		Amount:    amount,
		Currency:  currency,
		Status:    PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (p *Payment) IsZero() bool { return p == nil || p.ID == "" }

// CanTransition reports whether the payment state machine permits moving
// from the current status to next. pending→completed, pending→failed and
// completed→refunded are the only legal moves.
func (p *Payment) CanTransition(next PaymentStatus) bool {
	switch p.Status {
	case PaymentStatusPending:
		return next == PaymentStatusCompleted || next == PaymentStatusFailed
	case PaymentStatusCompleted:
		return next == PaymentStatusRefunded
	default:
		return false
	}
}
