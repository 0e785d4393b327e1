//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
)

func seedUser(t *testing.T, ctx context.Context) string {
	t.Helper()
	id := uuid.NewString()
	_, err := testPool.Exec(ctx,
		`INSERT INTO users (id, email) VALUES ($1, $2);`,
		id, id+"@test.tn")
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return id
}

func seedCourse(t *testing.T, ctx context.Context) string {
	t.Helper()
	id := uuid.NewString()
	_, err := testPool.Exec(ctx,
		`INSERT INTO courses (id, title, price, currency, instructor_id, published)
		 VALUES ($1, 'Go for Backends', 10000, 'TND', $2, TRUE);`,
		id, uuid.NewString())
	if err != nil {
		t.Fatalf("failed to seed course: %v", err)
	}
	return id
}

func seedPlan(t *testing.T, ctx context.Context) string {
	t.Helper()
	id := "plan-" + uuid.NewString()[:8]
	_, err := testPool.Exec(ctx,
		`INSERT INTO subscription_plans (id, name, duration_days, price, currency)
		 VALUES ($1, 'Pro Monthly', 30, 25000, 'TND');`,
		id)
	if err != nil {
		t.Fatalf("failed to seed plan: %v", err)
	}
	return id
}

func coursePayment(userID, courseID string) *model.Payment {
	now := time.Now()
	return &model.Payment{
		ID:        uuid.NewString(),
		UserID:    userID,
		Target:    model.PurchaseTarget{Kind: model.TargetCourse, CourseID: courseID},
		Title:     "Go for Backends",
		Amount:    10000,
		Currency:  "TND",
		Status:    model.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPaymentRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewPaymentRepo(testPool)

	t.Run("should save and find a payment", func(t *testing.T) {
		cleanup(t)
		userID := seedUser(t, ctx)
		courseID := seedCourse(t, ctx)

		p := coursePayment(userID, courseID)
		if err := repo.Save(ctx, nil, p); err != nil {
			t.Fatalf("Failed to save new payment: %v", err)
		}

		found, err := repo.FindByID(ctx, nil, p.ID)
		if err != nil {
			t.Fatalf("Failed to find payment: %v", err)
		}
		if found.Status != model.PaymentStatusPending {
			t.Errorf("expected status 'pending', got '%s'", found.Status)
		}
		if found.Target.Kind != model.TargetCourse || found.Target.CourseID != courseID {
			t.Errorf("unexpected target: %+v", found.Target)
		}
		if found.GatewayToken != "" {
			t.Error("token must be empty before checkout")
		}
	})

	t.Run("should find by gateway token after checkout", func(t *testing.T) {
		cleanup(t)
		userID := seedUser(t, ctx)
		courseID := seedCourse(t, ctx)

		p := coursePayment(userID, courseID)
		if err := repo.Save(ctx, nil, p); err != nil {
			t.Fatal(err)
		}
		if err := repo.SetCheckout(ctx, nil, p.ID, "tok-abc", "https://gw/pay/tok-abc"); err != nil {
			t.Fatalf("Failed to set checkout: %v", err)
		}

		found, err := repo.FindByGatewayToken(ctx, nil, "tok-abc")
		if err != nil {
			t.Fatalf("Failed to find by token: %v", err)
		}
		if found.ID != p.ID || found.CheckoutURL == "" {
			t.Errorf("unexpected payment: %+v", found)
		}
	})

	t.Run("SetCheckout should reject a non-pending payment", func(t *testing.T) {
		cleanup(t)
		userID := seedUser(t, ctx)
		courseID := seedCourse(t, ctx)

		p := coursePayment(userID, courseID)
		if err := repo.Save(ctx, nil, p); err != nil {
			t.Fatal(err)
		}
		if _, err := repo.UpdateStatusIfPending(ctx, nil, p.ID, model.PaymentStatusFailed, nil); err != nil {
			t.Fatal(err)
		}

		err := repo.SetCheckout(ctx, nil, p.ID, "tok-late", "https://gw/pay/tok-late")
		if !errors.Is(err, domain.ErrPaymentNotPending) {
			t.Errorf("expected ErrPaymentNotPending, got %v", err)
		}
	})

	t.Run("UpdateStatusIfPending fires exactly once", func(t *testing.T) {
		cleanup(t)
		userID := seedUser(t, ctx)
		courseID := seedCourse(t, ctx)

		p := coursePayment(userID, courseID)
		if err := repo.Save(ctx, nil, p); err != nil {
			t.Fatal(err)
		}

		txID := "01TESTTRANSACTION0000000001"
		ok, err := repo.UpdateStatusIfPending(ctx, nil, p.ID, model.PaymentStatusCompleted, &txID)
		if err != nil {
			t.Fatalf("first update failed: %v", err)
		}
		if !ok {
			t.Fatal("first update must win")
		}

		ok, err = repo.UpdateStatusIfPending(ctx, nil, p.ID, model.PaymentStatusCompleted, &txID)
		if err != nil {
			t.Fatalf("second update errored: %v", err)
		}
		if ok {
			t.Error("second update must lose: the payment is no longer pending")
		}

		found, _ := repo.FindByID(ctx, nil, p.ID)
		if found.Status != model.PaymentStatusCompleted {
			t.Errorf("expected 'completed', got '%s'", found.Status)
		}
		if found.LinkedTransactionID == nil || *found.LinkedTransactionID != txID {
			t.Error("linked transaction id not persisted")
		}
	})

	t.Run("UpdateStatusIfCompleted only flips completed payments", func(t *testing.T) {
		cleanup(t)
		userID := seedUser(t, ctx)
		courseID := seedCourse(t, ctx)

		p := coursePayment(userID, courseID)
		if err := repo.Save(ctx, nil, p); err != nil {
			t.Fatal(err)
		}

		// still pending: no-op
		ok, err := repo.UpdateStatusIfCompleted(ctx, nil, p.ID, model.PaymentStatusRefunded)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Error("a pending payment must not refund")
		}

		if _, err := repo.UpdateStatusIfPending(ctx, nil, p.ID, model.PaymentStatusCompleted, nil); err != nil {
			t.Fatal(err)
		}
		ok, err = repo.UpdateStatusIfCompleted(ctx, nil, p.ID, model.PaymentStatusRefunded)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Error("a completed payment must refund")
		}
	})

	t.Run("ListPendingOlderThan returns only stale pending payments", func(t *testing.T) {
		cleanup(t)
		userID := seedUser(t, ctx)
		courseID := seedCourse(t, ctx)

		stale := coursePayment(userID, courseID)
		stale.CreatedAt = time.Now().Add(-time.Hour)
		fresh := coursePayment(userID, courseID)
		done := coursePayment(userID, courseID)
		done.CreatedAt = time.Now().Add(-time.Hour)

		for _, p := range []*model.Payment{stale, fresh, done} {
			if err := repo.Save(ctx, nil, p); err != nil {
				t.Fatal(err)
			}
		}
		if _, err := repo.UpdateStatusIfPending(ctx, nil, done.ID, model.PaymentStatusCompleted, nil); err != nil {
			t.Fatal(err)
		}

		out, err := repo.ListPendingOlderThan(ctx, nil, time.Now().Add(-10*time.Minute), 100)
		if err != nil {
			t.Fatalf("Failed to list: %v", err)
		}
		if len(out) != 1 || out[0].ID != stale.ID {
			t.Errorf("expected only the stale pending payment, got %d rows", len(out))
		}
	})

	t.Run("should return not found for an unknown id", func(t *testing.T) {
		cleanup(t)
		if _, err := repo.FindByID(ctx, nil, uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
