package repository

import (
	"context"

	"course-marketplace/internal/domain/model"
)

// CourseRepository is a read-only collaborator: course CRUD lives outside
// the purchase engine.
type CourseRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Course, error)
}
