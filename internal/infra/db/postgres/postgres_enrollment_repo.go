package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/repository"
)

var _ repository.EnrollmentRepository = (*enrollmentRepo)(nil)

type enrollmentRepo struct{ pool *pgxpool.Pool }

func NewEnrollmentRepo(pool *pgxpool.Pool) *enrollmentRepo {
	return &enrollmentRepo{pool: pool}
}

const enrollmentColumns = `id, user_id, course_id, payment_id, enrolled_at, completed_lessons, progress_percent, last_accessed_at`

func scanEnrollment(row pgx.Row) (*model.Enrollment, error) {
	e := &model.Enrollment{}
	if err := row.Scan(&e.ID, &e.UserID, &e.CourseID, &e.PaymentID, &e.EnrolledAt, &e.CompletedLessons, &e.ProgressPercent, &e.LastAccessedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return e, nil
}

func (r *enrollmentRepo) Exists(ctx context.Context, tx repository.Tx, userID, courseID string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM enrollments WHERE user_id=$1 AND course_id=$2);`
	row, err := pickRow(ctx, r.pool, tx, q, userID, courseID)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

// Create inserts the enrollment behind the UNIQUE (user_id, course_id)
// constraint. A conflicting insert is not an error: the existing row is
// re-read and returned, which is what makes completion replay-safe.
func (r *enrollmentRepo) Create(ctx context.Context, tx repository.Tx, e *model.Enrollment) (*model.Enrollment, error) {
	const q = `
INSERT INTO enrollments (id, user_id, course_id, payment_id, enrolled_at, completed_lessons, progress_percent)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (user_id, course_id) DO NOTHING;`

	_, err := execSQL(ctx, r.pool, tx, q, e.ID, e.UserID, e.CourseID, e.PaymentID, e.EnrolledAt, e.CompletedLessons, e.ProgressPercent)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	return r.FindByUserAndCourse(ctx, tx, e.UserID, e.CourseID)
}

func (r *enrollmentRepo) FindByUserAndCourse(ctx context.Context, tx repository.Tx, userID, courseID string) (*model.Enrollment, error) {
	const q = `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE user_id=$1 AND course_id=$2 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, courseID)
	if err != nil {
		return nil, err
	}
	return scanEnrollment(row)
}
