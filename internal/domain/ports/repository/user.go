package repository

import (
	"context"
	"time"

	"course-marketplace/internal/domain/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	// UpdateSubscription flips the plan entitlement stored on the profile.
	UpdateSubscription(ctx context.Context, tx Tx, userID string, active bool, planID string, expiresAt *time.Time) error
}
