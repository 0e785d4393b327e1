package model

import (
	"time"

	"course-marketplace/internal/domain"

	"github.com/google/uuid"
)

// User is the profile projection the purchase engine touches: identity,
// contact details handed to the gateway, and subscription state.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	Phone        string
	IsAdmin      bool
	Subscription SubscriptionState
	RegisteredAt time.Time
}

// SubscriptionState is the plan entitlement stored on the user profile.
type SubscriptionState struct {
	Active    bool
	PlanID    string
	ExpiresAt *time.Time
}

func NewUser(id, email, firstName, lastName string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if email == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:           id,
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		RegisteredAt: time.Now(),
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
