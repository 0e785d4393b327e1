package repository

import (
	"context"

	"course-marketplace/internal/domain/model"
)

type EnrollmentRepository interface {
	Exists(ctx context.Context, tx Tx, userID, courseID string) (bool, error)
	// Create inserts an enrollment, idempotent on (userID, courseID): if one
	// already exists it returns the existing row instead of a duplicate.
	Create(ctx context.Context, tx Tx, e *model.Enrollment) (*model.Enrollment, error)
	FindByUserAndCourse(ctx context.Context, tx Tx, userID, courseID string) (*model.Enrollment, error)
}
