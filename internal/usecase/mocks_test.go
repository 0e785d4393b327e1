//go:build !integration

// File: internal/usecase/mocks_test.go
package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// ----- payments -----

type MockPaymentRepo struct {
	mu           sync.Mutex
	store        map[string]*model.Payment
	SaveFunc     func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error)
}

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{store: make(map[string]*model.Payment)}
}

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, tx, p); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) FindByGatewayToken(ctx context.Context, tx repository.Tx, token string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.store {
		if p.GatewayToken == token {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPaymentRepo) SetCheckout(ctx context.Context, tx repository.Tx, id, token, checkoutURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Status != model.PaymentStatusPending {
		return domain.ErrPaymentNotPending
	}
	p.GatewayToken = token
	p.CheckoutURL = checkoutURL
	p.UpdatedAt = time.Now()
	return nil
}

func (m *MockPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, linkedTransactionID *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	if linkedTransactionID != nil {
		p.LinkedTransactionID = linkedTransactionID
	}
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockPaymentRepo) UpdateStatusIfCompleted(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if p.Status != model.PaymentStatusCompleted {
		return false, nil
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ----- ledger -----

type MockTransactionRepo struct {
	mu    sync.Mutex
	store map[string]*model.Transaction
	order []string // preserve insertion order
}

func NewMockTransactionRepo() *MockTransactionRepo {
	return &MockTransactionRepo{store: make(map[string]*model.Transaction)}
}

func (m *MockTransactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.store[t.ID] = &cp
	m.order = append(m.order, t.ID)
	return nil
}

func (m *MockTransactionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MockTransactionRepo) FindByPaymentID(ctx context.Context, tx repository.Tx, paymentID string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		t := m.store[id]
		if t.PaymentID == paymentID && t.RefundOfID == nil {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockTransactionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Transaction
	for _, id := range m.order {
		t := m.store[id]
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockTransactionRepo) SumByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, t := range m.store {
		sum += t.Amount
	}
	return sum, nil
}

// CountForPayment is a test helper for the one-ledger-entry invariant.
func (m *MockTransactionRepo) CountForPayment(paymentID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.store {
		if t.PaymentID == paymentID && t.RefundOfID == nil {
			n++
		}
	}
	return n
}

// ----- enrollments -----

type MockEnrollmentRepo struct {
	mu    sync.Mutex
	store map[string]*model.Enrollment // key userID+"/"+courseID
}

func NewMockEnrollmentRepo() *MockEnrollmentRepo {
	return &MockEnrollmentRepo{store: make(map[string]*model.Enrollment)}
}

func enrollKey(userID, courseID string) string { return userID + "/" + courseID }

func (m *MockEnrollmentRepo) Exists(ctx context.Context, tx repository.Tx, userID, courseID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.store[enrollKey(userID, courseID)]
	return ok, nil
}

func (m *MockEnrollmentRepo) Create(ctx context.Context, tx repository.Tx, e *model.Enrollment) (*model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := enrollKey(e.UserID, e.CourseID)
	if existing, ok := m.store[key]; ok {
		cp := *existing
		return &cp, nil
	}
	cp := *e
	m.store[key] = &cp
	out := cp
	return &out, nil
}

func (m *MockEnrollmentRepo) FindByUserAndCourse(ctx context.Context, tx repository.Tx, userID, courseID string) (*model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[enrollKey(userID, courseID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *MockEnrollmentRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

// ----- courses / plans / users -----

type MockCourseRepo struct {
	mu    sync.Mutex
	store map[string]*model.Course
}

func NewMockCourseRepo() *MockCourseRepo {
	return &MockCourseRepo{store: make(map[string]*model.Course)}
}

func (m *MockCourseRepo) Put(c *model.Course) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[c.ID] = c
}

func (m *MockCourseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

type MockPlanRepo struct {
	mu    sync.Mutex
	store map[string]*model.SubscriptionPlan
}

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{store: make(map[string]*model.SubscriptionPlan)}
}

func (m *MockPlanRepo) Put(p *model.SubscriptionPlan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[p.ID] = p
}

func (m *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.SubscriptionPlan
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

type MockUserRepo struct {
	mu    sync.Mutex
	store map[string]*model.User
}

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{store: make(map[string]*model.User)}
}

func (m *MockUserRepo) Put(u *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[u.ID] = u
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) UpdateSubscription(ctx context.Context, tx repository.Tx, userID string, active bool, planID string, expiresAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Subscription = model.SubscriptionState{Active: active, PlanID: planID, ExpiresAt: expiresAt}
	return nil
}

// ----- gateway -----

type MockPaymentGateway struct {
	mu          sync.Mutex
	seq         int
	InitiateErr error
	CheckFunc   func(ctx context.Context, token string) (adapter.WebhookOutcome, error)
	Sessions    []string // orderIDs for which checkout was created
}

func (g *MockPaymentGateway) Name() string { return "mock" }

func (g *MockPaymentGateway) InitiateCheckout(ctx context.Context, amount int64, currency string, customer adapter.CustomerInfo, orderID string) (adapter.CheckoutSession, error) {
	if g.InitiateErr != nil {
		return adapter.CheckoutSession{}, g.InitiateErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.Sessions = append(g.Sessions, orderID)
	token := fmt.Sprintf("tok-%d", g.seq)
	return adapter.CheckoutSession{Token: token, CheckoutURL: "https://gw.test/pay/" + token}, nil
}

func (g *MockPaymentGateway) VerifyWebhook(raw []byte) (bool, adapter.WebhookOutcome, error) {
	return false, adapter.WebhookOutcome{}, nil
}

func (g *MockPaymentGateway) CheckPayment(ctx context.Context, token string) (adapter.WebhookOutcome, error) {
	if g.CheckFunc != nil {
		return g.CheckFunc(ctx, token)
	}
	return adapter.WebhookOutcome{}, domain.ErrNotFound
}

// ----- cache / notifier / tx manager -----

type MockCacheInvalidator struct {
	mu       sync.Mutex
	Err      error
	Patterns []string
}

func (c *MockCacheInvalidator) Invalidate(ctx context.Context, patterns ...string) error {
	if c.Err != nil {
		return c.Err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Patterns = append(c.Patterns, patterns...)
	return nil
}

type emittedEvent struct {
	Name    string
	Payload map[string]interface{}
}

type MockNotifier struct {
	mu     sync.Mutex
	Err    error
	Events []emittedEvent
}

func (n *MockNotifier) Emit(ctx context.Context, event string, payload map[string]interface{}) error {
	if n.Err != nil {
		return n.Err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Events = append(n.Events, emittedEvent{Name: event, Payload: payload})
	return nil
}

func (n *MockNotifier) Named(name string) []emittedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []emittedEvent
	for _, e := range n.Events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// MockTxManager emulates transactional semantics over the in-memory repos:
// it snapshots their state before running the callback and restores it when
// the callback errors, mirroring a rollback.
type MockTxManager struct {
	payments    *MockPaymentRepo
	ledger      *MockTransactionRepo
	enrollments *MockEnrollmentRepo
}

func NewMockTxManager(payments *MockPaymentRepo, ledger *MockTransactionRepo, enrollments *MockEnrollmentRepo) *MockTxManager {
	return &MockTxManager{payments: payments, ledger: ledger, enrollments: enrollments}
}

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	ps := m.payments.snapshot()
	ls, lo := m.ledger.snapshot()
	es := m.enrollments.snapshot()
	if err := fn(ctx, nil); err != nil {
		m.payments.restore(ps)
		m.ledger.restore(ls, lo)
		m.enrollments.restore(es)
		return err
	}
	return nil
}

func (m *MockPaymentRepo) snapshot() map[string]*model.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*model.Payment, len(m.store))
	for k, v := range m.store {
		cp := *v
		out[k] = &cp
	}
	return out
}

func (m *MockPaymentRepo) restore(s map[string]*model.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = s
}

func (m *MockTransactionRepo) snapshot() (map[string]*model.Transaction, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*model.Transaction, len(m.store))
	for k, v := range m.store {
		cp := *v
		out[k] = &cp
	}
	return out, append([]string(nil), m.order...)
}

func (m *MockTransactionRepo) restore(s map[string]*model.Transaction, order []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = s
	m.order = order
}

func (m *MockEnrollmentRepo) snapshot() map[string]*model.Enrollment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*model.Enrollment, len(m.store))
	for k, v := range m.store {
		cp := *v
		out[k] = &cp
	}
	return out
}

func (m *MockEnrollmentRepo) restore(s map[string]*model.Enrollment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = s
}
