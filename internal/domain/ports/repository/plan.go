package repository

import (
	"context"

	"course-marketplace/internal/domain/model"
)

// SubscriptionPlanRepository is a read-only collaborator for plan lookups.
type SubscriptionPlanRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.SubscriptionPlan, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.SubscriptionPlan, error)
}
