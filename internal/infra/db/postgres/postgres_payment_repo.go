package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, user_id, target_kind, course_id, plan_id, title, amount, currency, status, gateway_token, checkout_url, linked_transaction_id, created_at, updated_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	var courseID, planID, token, checkoutURL *string
	if err := row.Scan(&p.ID, &p.UserID, &p.Target.Kind, &courseID, &planID, &p.Title, &p.Amount, &p.Currency, &p.Status, &token, &checkoutURL, &p.LinkedTransactionID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if courseID != nil {
		p.Target.CourseID = *courseID
	}
	if planID != nil {
		p.Target.PlanID = *planID
	}
	if token != nil {
		p.GatewayToken = *token
	}
	if checkoutURL != nil {
		p.CheckoutURL = *checkoutURL
	}
	return p, nil
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, user_id, target_kind, course_id, plan_id, title, amount, currency, status, gateway_token, checkout_url, linked_transaction_id, created_at, updated_at
) VALUES (
  $1,$2,$3,NULLIF($4,''),NULLIF($5,''),$6,$7,$8,$9,NULLIF($10,''),NULLIF($11,''),$12,$13,$14
) ON CONFLICT (id) DO UPDATE SET
  title=$6, amount=$7, currency=$8, status=$9, gateway_token=NULLIF($10,''), checkout_url=NULLIF($11,''), linked_transaction_id=$12, updated_at=$14;`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.UserID, p.Target.Kind, p.Target.CourseID, p.Target.PlanID, p.Title,
		p.Amount, p.Currency, p.Status, p.GatewayToken, p.CheckoutURL, p.LinkedTransactionID,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindByGatewayToken(ctx context.Context, tx repository.Tx, token string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway_token=$1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, token)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) SetCheckout(ctx context.Context, tx repository.Tx, id, token, checkoutURL string) error {
	const q = `UPDATE payments SET gateway_token=$2, checkout_url=$3, updated_at=NOW() WHERE id=$1 AND status='pending';`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, token, checkoutURL)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrPaymentNotPending
	}
	return nil
}

// UpdateStatusIfPending atomically moves a payment out of 'pending'. The
// WHERE clause is the idempotency gate: under a concurrent webhook delivery
// and client confirmation exactly one caller observes RowsAffected()==1.
func (r *paymentRepo) UpdateStatusIfPending(
	ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, linkedTransactionID *string,
) (bool, error) {
	const q = `
    UPDATE payments
       SET status = $2,
           linked_transaction_id = COALESCE($3, linked_transaction_id),
           updated_at = NOW()
     WHERE id = $1
       AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status), linkedTransactionID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

// UpdateStatusIfCompleted is the refund-path counterpart: completed→refunded.
func (r *paymentRepo) UpdateStatusIfCompleted(
	ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus,
) (bool, error) {
	const q = `
    UPDATE payments
       SET status = $2,
           updated_at = NOW()
     WHERE id = $1
       AND status = 'completed';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status))
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
