package model

import (
	"time"

	"course-marketplace/internal/domain"

	"github.com/google/uuid"
)

// Enrollment grants a user access to a course. Exactly one row exists per
// (UserID, CourseID) pair; it is created by a successful course purchase.
type Enrollment struct {
	ID               string
	UserID           string
	CourseID         string
	PaymentID        string
	EnrolledAt       time.Time
	CompletedLessons int
	ProgressPercent  float64
	LastAccessedAt   *time.Time
}

func NewEnrollment(userID, courseID, paymentID string) (*Enrollment, error) {
	if userID == "" || courseID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Enrollment{
		ID:         uuid.NewString(),
		UserID:     userID,
		CourseID:   courseID,
		PaymentID:  paymentID,
		EnrolledAt: time.Now(),
	}, nil
}
