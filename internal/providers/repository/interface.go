package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is the provider lifecycle state. Only ACTIVE providers are
// eligible for lead distribution.
type Status string

const (
	StatusPendingOnboarding Status = "pending_onboarding"
	StatusActive            Status = "active"
	StatusInactive          Status = "inactive"
)

// Provider is a service business that receives leads in the zones and
// categories it opted into.
type Provider struct {
	ID             uuid.UUID `db:"id"`
	Name           string    `db:"name"`
	Email          string    `db:"email"`
	Phone          string    `db:"phone"`
	Status         Status    `db:"status"`
	PaymentAccount *string   `db:"payment_account"`
	ZoneIDs        []uuid.UUID
	CategoryIDs    []uuid.UUID
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// EligibleProvider is the projection the distribution engine works with.
type EligibleProvider struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// CreateParams contains parameters for registering a provider.
type CreateParams struct {
	Name  string
	Email string
	Phone string
}

// Reader provides read operations for providers.
type Reader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Provider, error)
	List(ctx context.Context) ([]Provider, error)
	// ListEligible returns ACTIVE providers subscribed to the zone with at
	// least one of the given categories.
	ListEligible(ctx context.Context, zoneID uuid.UUID, categoryIDs []uuid.UUID) ([]EligibleProvider, error)
}

// Writer provides write operations for providers.
type Writer interface {
	Create(ctx context.Context, params CreateParams) (Provider, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status) error
	SetZones(ctx context.Context, id uuid.UUID, zoneIDs []uuid.UUID) error
	SetCategories(ctx context.Context, id uuid.UUID, categoryIDs []uuid.UUID) error
	SetPaymentAccount(ctx context.Context, id uuid.UUID, account string) error
}

// Repository combines all provider repository operations.
type Repository interface {
	Reader
	Writer
}
