package adapter

import "context"

// Purchase lifecycle event names.
const (
	EventPaymentCompleted  = "payment.completed"
	EventPaymentFailed     = "payment.failed"
	EventPaymentRefunded   = "payment.refunded"
	EventEnrollmentCreated = "enrollment.created"
)

// EventNotifier dispatches side effects (confirmation messages, downstream
// consumers) decoupled from the transactional path. Emit is fire-and-forget:
// its error is only ever logged, never used to roll back a completed write.
type EventNotifier interface {
	Emit(ctx context.Context, event string, payload map[string]interface{}) error
}
