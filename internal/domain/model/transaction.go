package model

import (
	"crypto/rand"
	"time"

	"course-marketplace/internal/domain"

	"github.com/oklog/ulid/v2"
)

type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

// Transaction is an append-only ledger entry for a completed monetary event.
// A row is immutable once written; a refund creates a new row with a negated
// amount referencing the original via RefundOfID.
type Transaction struct {
	ID                   string // ULID, lexicographically sortable by creation time
	PaymentID            string
	UserID               string
	CourseID             *string // nil for plan purchases
	Amount               int64   // minor units; negative for refund entries
	Currency             string
	Status               TransactionStatus
	GatewayTransactionID string
	GatewayName          string
	Description          string
	RefundOfID           *string // original transaction id for refund entries
	CreatedAt            time.Time
}

func NewTransaction(paymentID, userID string, courseID *string, amount int64, currency, gatewayTxID, gatewayName, description string) (*Transaction, error) {
	if paymentID == "" || userID == "" || amount == 0 || currency == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Transaction{
		ID:                   ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		PaymentID:            paymentID,
		UserID:               userID,
		CourseID:             courseID,
		Amount:               amount,
		Currency:             currency,
		Status:               TransactionStatusCompleted,
		GatewayTransactionID: gatewayTxID,
		GatewayName:          gatewayName,
		Description:          description,
		CreatedAt:            now,
	}, nil
}

// NewRefundTransaction builds the compensating ledger entry for orig.
func NewRefundTransaction(orig *Transaction, reason string) (*Transaction, error) {
	if orig == nil || orig.ID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	origID := orig.ID
	return &Transaction{
		ID:                   ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		PaymentID:            orig.PaymentID,
		UserID:               orig.UserID,
		CourseID:             orig.CourseID,
		Amount:               -orig.Amount,
		Currency:             orig.Currency,
		Status:               TransactionStatusRefunded,
		GatewayTransactionID: orig.GatewayTransactionID,
		GatewayName:          orig.GatewayName,
		Description:          reason,
		RefundOfID:           &origID,
		CreatedAt:            now,
	}, nil
}
