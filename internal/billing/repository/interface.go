package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a transaction. A failed transaction is
// terminal and does not block a new charge attempt; any other state does.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

type Transaction struct {
	ID            uuid.UUID
	ProviderID    uuid.UUID
	LeadID        uuid.UUID
	AmountCents   int64
	Currency      string
	Status        Status
	PaymentRef    string
	RefundRef     string
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ChargeContext is everything the charge flow needs to know about the
// provider and the lead before touching the gateway.
type ChargeContext struct {
	ProviderName   string
	ProviderEmail  string
	PaymentAccount string
	ProviderActive bool
	CountryISO     string
}

type Reader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Transaction, error)
	// FindOpen returns the non-failed transaction for a provider/lead pair,
	// if one exists.
	FindOpen(ctx context.Context, providerID, leadID uuid.UUID) (Transaction, bool, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]Transaction, error)
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Transaction, error)
	// ChargeContext loads the provider payment account and the lead's
	// country in one query.
	ChargeContext(ctx context.Context, providerID, leadID uuid.UUID) (ChargeContext, error)
}

type Writer interface {
	// CreatePending inserts a pending transaction. The store's partial
	// unique index turns a duplicate open charge into a Conflict.
	CreatePending(ctx context.Context, providerID, leadID uuid.UUID, amountCents int64, currency string) (Transaction, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, paymentRef string) (Transaction, error)
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) (Transaction, error)
	MarkRefunded(ctx context.Context, id uuid.UUID, refundRef string) (Transaction, error)
}

type Repository interface {
	Reader
	Writer
}
