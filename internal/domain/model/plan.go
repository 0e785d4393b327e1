package model

import (
	"time"

	"course-marketplace/internal/domain"
)

// SubscriptionPlan represents a purchasable plan with a fixed duration
// and price in minor units.
type SubscriptionPlan struct {
	ID           string
	Name         string
	DurationDays int
	Price        int64
	Currency     string
	CreatedAt    time.Time
}

func (p *SubscriptionPlan) IsZero() bool { return p == nil || p.ID == "" }

// NewSubscriptionPlan validates and constructs a plan.
func NewSubscriptionPlan(id, name string, durationDays int, price int64, currency string) (*SubscriptionPlan, error) {
	if id == "" || name == "" || durationDays <= 0 || price <= 0 || currency == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &SubscriptionPlan{
		ID:           id,
		Name:         name,
		DurationDays: durationDays,
		Price:        price,
		Currency:     currency,
		CreatedAt:    time.Now(),
	}, nil
}
