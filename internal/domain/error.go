package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUnauthorized       = errors.New("not allowed to access this resource")
	ErrAlreadyEnrolled    = errors.New("user is already enrolled in this course")
	ErrPaymentNotPending  = errors.New("payment is not in a pending state")
	ErrPaymentNotComplete = errors.New("payment has not been completed")
	ErrAlreadyRefunded    = errors.New("payment has already been refunded")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// Storage-layer errors
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid database execution context")
)
