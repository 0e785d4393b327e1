// File: internal/usecase/purchase_uc.go
package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/domain/ports/repository"
)

// Compile-time check
var _ PurchaseUseCase = (*purchaseUC)(nil)

// Actor identifies who is invoking an orchestrator operation. The webhook
// path runs as a system principal and is exempt from ownership checks; it is
// still correlated to the payment via the gateway order id.
type Actor struct {
	UserID  string
	IsAdmin bool
	System  bool
}

// SystemActor returns the principal used by the webhook handler and the
// reconciler, resolved from the payment's own user id.
func SystemActor(userID string) Actor {
	return Actor{UserID: userID, System: true}
}

type InitiateRequest struct {
	CourseID      string
	PlanID        string
	PaymentMethod string
}

type CompleteRequest struct {
	PaymentID            string
	GatewayToken         string // fallback correlation when the callback carries no order id
	GatewayTransactionID string
	GatewayName          string
}

// CompletionResult is what a completed (or replayed) purchase looks like to
// the caller: the payment, its single ledger entry and the granted benefit.
type CompletionResult struct {
	Payment             *model.Payment
	Transaction         *model.Transaction
	Enrollment          *model.Enrollment // nil for plan purchases
	SubscriptionUpdated bool
}

type StatusResult struct {
	Payment     *model.Payment
	Transaction *model.Transaction
	Enrollment  *model.Enrollment
}

type PurchaseUseCase interface {
	// Initiate creates a pending payment for a course or plan. It does not
	// talk to the gateway, so the payment id stays stable across checkout
	// retries.
	Initiate(ctx context.Context, userID string, req InitiateRequest) (*model.Payment, error)
	// Checkout creates a gateway checkout session for a pending payment and
	// persists the returned token and redirect URL.
	Checkout(ctx context.Context, userID, paymentID string, customer adapter.CustomerInfo) (*model.Payment, error)
	// Complete converts a successful gateway outcome into a ledger entry plus
	// fulfillment, exactly once per payment.
	Complete(ctx context.Context, actor Actor, req CompleteRequest) (*CompletionResult, error)
	// Fail records a failed gateway outcome. Replay-safe: terminal payments
	// are returned unchanged.
	Fail(ctx context.Context, paymentID, gatewayTransactionID string) (*model.Payment, error)
	// Refund writes a compensating ledger entry and flips the payment to
	// refunded. Admin only. Fulfillment is not reversed here.
	Refund(ctx context.Context, actor Actor, transactionID, reason string) (*model.Transaction, error)
	// Status returns the payment with its linked transaction and enrollment.
	Status(ctx context.Context, userID, paymentID string) (*StatusResult, error)
	// History lists the user's ledger entries, newest first.
	History(ctx context.Context, userID string, offset, limit int) ([]*model.Transaction, error)
	// Revenue sums ledger amounts (refunds included as negatives) for the
	// current day/week/month/year. Admin only.
	Revenue(ctx context.Context, actor Actor, period string) (int64, error)
	// ListPlans returns the purchasable plans, cheapest first.
	ListPlans(ctx context.Context) ([]*model.SubscriptionPlan, error)
}

type purchaseUC struct {
	payments    repository.PaymentRepository
	ledger      repository.TransactionRepository
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	plans       repository.SubscriptionPlanRepository
	users       repository.UserRepository
	gateway     adapter.PaymentGateway
	cache       adapter.CacheInvalidator
	notifier    adapter.EventNotifier
	tm          repository.TransactionManager
	log         *zerolog.Logger
}

func NewPurchaseUseCase(
	payments repository.PaymentRepository,
	ledger repository.TransactionRepository,
	enrollments repository.EnrollmentRepository,
	courses repository.CourseRepository,
	plans repository.SubscriptionPlanRepository,
	users repository.UserRepository,
	gateway adapter.PaymentGateway,
	cache adapter.CacheInvalidator,
	notifier adapter.EventNotifier,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *purchaseUC {
	return &purchaseUC{
		payments:    payments,
		ledger:      ledger,
		enrollments: enrollments,
		courses:     courses,
		plans:       plans,
		users:       users,
		gateway:     gateway,
		cache:       cache,
		notifier:    notifier,
		tm:          tm,
		log:         logger,
	}
}

func (u *purchaseUC) Initiate(ctx context.Context, userID string, req InitiateRequest) (*model.Payment, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if (req.CourseID == "") == (req.PlanID == "") {
		// exactly one target must be given
		return nil, fmt.Errorf("initiate requires courseId or planId: %w", domain.ErrInvalidArgument)
	}

	var (
		target model.PurchaseTarget
		title  string
		amount int64
		curr   string
	)
	if req.CourseID != "" {
		course, err := u.courses.FindByID(ctx, nil, req.CourseID)
		if err != nil {
			return nil, fmt.Errorf("resolve course %s: %w", req.CourseID, err)
		}
		enrolled, err := u.enrollments.Exists(ctx, nil, userID, course.ID)
		if err != nil {
			return nil, err
		}
		if enrolled {
			return nil, domain.ErrAlreadyEnrolled
		}
		target = model.PurchaseTarget{Kind: model.TargetCourse, CourseID: course.ID}
		title, amount, curr = course.Title, course.Price, course.Currency
	} else {
		plan, err := u.plans.FindByID(ctx, nil, req.PlanID)
		if err != nil {
			return nil, fmt.Errorf("resolve plan %s: %w", req.PlanID, err)
		}
		target = model.PurchaseTarget{Kind: model.TargetPlan, PlanID: plan.ID}
		title, amount, curr = plan.Name, plan.Price, plan.Currency
	}

	p, err := model.NewPayment(userID, target, title, amount, curr)
	if err != nil {
		return nil, err
	}
	if err := u.payments.Save(ctx, nil, p); err != nil {
		return nil, err
	}
	u.log.Info().
		Str("payment_id", p.ID).
		Str("user_id", userID).
		Str("target_kind", string(target.Kind)).
		Int64("amount", amount).
		Str("currency", curr).
		Msg("purchase initiated")
	return p, nil
}

func (u *purchaseUC) Checkout(ctx context.Context, userID, paymentID string, customer adapter.CustomerInfo) (*model.Payment, error) {
	p, err := u.payments.FindByID(ctx, nil, paymentID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	if p.Status != model.PaymentStatusPending {
		return nil, domain.ErrPaymentNotPending
	}

	// The payment id is the gateway order id: that is what makes the webhook
	// correlatable back to this payment.
	session, err := u.gateway.InitiateCheckout(ctx, p.Amount, p.Currency, customer, p.ID)
	if err != nil {
		// Payment stays pending; GatewayUnavailable is retryable for the caller.
		u.log.Warn().Err(err).Str("payment_id", p.ID).Msg("checkout session creation failed")
		return nil, err
	}

	if err := u.payments.SetCheckout(ctx, nil, p.ID, session.Token, session.CheckoutURL); err != nil {
		return nil, err
	}
	p.GatewayToken = session.Token
	p.CheckoutURL = session.CheckoutURL
	u.log.Info().
		Str("payment_id", p.ID).
		Str("gateway", u.gateway.Name()).
		Msg("checkout session created")
	return p, nil
}

func (u *purchaseUC) Status(ctx context.Context, userID, paymentID string) (*StatusResult, error) {
	p, err := u.payments.FindByID(ctx, nil, paymentID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	res := &StatusResult{Payment: p}
	if tr, err := u.ledger.FindByPaymentID(ctx, nil, p.ID); err == nil {
		res.Transaction = tr
	}
	if p.Target.Kind == model.TargetCourse {
		if e, err := u.enrollments.FindByUserAndCourse(ctx, nil, p.UserID, p.Target.CourseID); err == nil {
			res.Enrollment = e
		}
	}
	return res, nil
}

func (u *purchaseUC) History(ctx context.Context, userID string, offset, limit int) ([]*model.Transaction, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.ledger.ListByUser(ctx, nil, userID, offset, limit)
}

var revenuePeriods = map[string]bool{"day": true, "week": true, "month": true, "year": true}

func (u *purchaseUC) Revenue(ctx context.Context, actor Actor, period string) (int64, error) {
	if !actor.IsAdmin {
		return 0, domain.ErrUnauthorized
	}
	if !revenuePeriods[period] {
		return 0, fmt.Errorf("unknown revenue period %q: %w", period, domain.ErrInvalidArgument)
	}
	return u.ledger.SumByPeriod(ctx, nil, period)
}

func (u *purchaseUC) ListPlans(ctx context.Context) ([]*model.SubscriptionPlan, error) {
	return u.plans.ListAll(ctx, nil)
}

// invalidateFor evicts the derived views affected by a payment transition.
// Best-effort: a stale entry self-heals on its next TTL expiry.
func (u *purchaseUC) invalidateFor(ctx context.Context, p *model.Payment) {
	patterns := []string{
		"dashboard:user:" + p.UserID + ":*",
		"enrollments:user:" + p.UserID + ":*",
	}
	if p.Target.Kind == model.TargetCourse {
		patterns = append(patterns, "course:"+p.Target.CourseID+":stats:*")
	} else {
		patterns = append(patterns, "plans:*")
	}
	if err := u.cache.Invalidate(ctx, patterns...); err != nil {
		u.log.Warn().Err(err).Str("payment_id", p.ID).Msg("cache invalidation failed")
	}
}

// emit dispatches a lifecycle event. Failures are logged and swallowed: the
// notifier is structurally incapable of rolling back a financial write.
func (u *purchaseUC) emit(ctx context.Context, event string, payload map[string]interface{}) {
	if err := u.notifier.Emit(ctx, event, payload); err != nil {
		u.log.Warn().Err(err).Str("event", event).Msg("event emission failed")
	}
}
