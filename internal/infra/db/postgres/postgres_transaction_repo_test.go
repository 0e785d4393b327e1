//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
)

func TestTransactionRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewTransactionRepo(testPool)
	paymentRepo := NewPaymentRepo(testPool)

	// seeds a user, course and completed-able payment, returns the payment
	seedPayment := func(t *testing.T) (*model.Payment, string) {
		t.Helper()
		cleanup(t)
		userID := seedUser(t, ctx)
		courseID := seedCourse(t, ctx)
		p := coursePayment(userID, courseID)
		if err := paymentRepo.Save(ctx, nil, p); err != nil {
			t.Fatalf("failed to save payment: %v", err)
		}
		return p, courseID
	}

	t.Run("should save and find a ledger entry", func(t *testing.T) {
		p, courseID := seedPayment(t)

		tr, err := model.NewTransaction(p.ID, p.UserID, &courseID, p.Amount, p.Currency, "5577", "paymee", p.Title)
		if err != nil {
			t.Fatal(err)
		}
		if err := repo.Save(ctx, nil, tr); err != nil {
			t.Fatalf("Failed to save transaction: %v", err)
		}

		found, err := repo.FindByID(ctx, nil, tr.ID)
		if err != nil {
			t.Fatalf("Failed to find transaction: %v", err)
		}
		if found.Amount != p.Amount || found.Status != model.TransactionStatusCompleted {
			t.Errorf("unexpected transaction: %+v", found)
		}
		if found.CourseID == nil || *found.CourseID != courseID {
			t.Error("course reference lost")
		}
	})

	t.Run("FindByPaymentID skips refund entries", func(t *testing.T) {
		p, courseID := seedPayment(t)

		orig, err := model.NewTransaction(p.ID, p.UserID, &courseID, p.Amount, p.Currency, "5577", "paymee", p.Title)
		if err != nil {
			t.Fatal(err)
		}
		if err := repo.Save(ctx, nil, orig); err != nil {
			t.Fatal(err)
		}
		refund, err := model.NewRefundTransaction(orig, "complaint")
		if err != nil {
			t.Fatal(err)
		}
		if err := repo.Save(ctx, nil, refund); err != nil {
			t.Fatalf("Failed to save refund: %v", err)
		}

		found, err := repo.FindByPaymentID(ctx, nil, p.ID)
		if err != nil {
			t.Fatalf("Failed to find by payment: %v", err)
		}
		if found.ID != orig.ID {
			t.Errorf("expected the original entry %s, got %s", orig.ID, found.ID)
		}

		storedRefund, err := repo.FindByID(ctx, nil, refund.ID)
		if err != nil {
			t.Fatal(err)
		}
		if storedRefund.Amount != -orig.Amount {
			t.Errorf("expected negated amount, got %d", storedRefund.Amount)
		}
		if storedRefund.RefundOfID == nil || *storedRefund.RefundOfID != orig.ID {
			t.Error("refund reference lost")
		}
	})

	t.Run("ListByUser orders newest first", func(t *testing.T) {
		p, courseID := seedPayment(t)

		first, _ := model.NewTransaction(p.ID, p.UserID, &courseID, p.Amount, p.Currency, "1", "paymee", p.Title)
		second, _ := model.NewTransaction(p.ID, p.UserID, &courseID, p.Amount, p.Currency, "2", "paymee", p.Title)
		second.CreatedAt = first.CreatedAt.Add(time.Second)
		for _, tr := range []*model.Transaction{first, second} {
			if err := repo.Save(ctx, nil, tr); err != nil {
				t.Fatal(err)
			}
		}

		out, err := repo.ListByUser(ctx, nil, p.UserID, 0, 10)
		if err != nil {
			t.Fatalf("Failed to list: %v", err)
		}
		if len(out) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(out))
		}
		if out[0].ID != second.ID {
			t.Error("expected the newest entry first")
		}
	})

	t.Run("should return not found for an unknown id", func(t *testing.T) {
		cleanup(t)
		if _, err := repo.FindByID(ctx, nil, "01UNKNOWN00000000000000000"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
