package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LeadStatus is the lifecycle state of a lead.
type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "new"
	LeadStatusDistributed LeadStatus = "distributed"
	LeadStatusClosed      LeadStatus = "closed"
)

// OfferStatus is the state of a single provider's offer record.
type OfferStatus string

const (
	OfferStatusSent     OfferStatus = "sent"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusDeclined OfferStatus = "declined"
)

// Decision is a provider's answer to an offer.
type Decision string

const (
	DecisionAccepted Decision = "accepted"
	DecisionDeclined Decision = "declined"
)

type Lead struct {
	ID           uuid.UUID
	ZoneID       uuid.UUID
	ZoneName     string
	CountryISO   string
	PostalCode   string
	ContactName  string
	ContactEmail string
	ContactPhone string
	Description  string
	Status       LeadStatus
	CategoryIDs  []uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Offer is one lead_providers row, the unit the response tracker operates on.
type Offer struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	ProviderID  uuid.UUID
	Status      OfferStatus
	SentAt      time.Time
	RespondedAt *time.Time
}

// OfferWithProvider augments an offer with the provider projection needed
// for notifications.
type OfferWithProvider struct {
	Offer
	ProviderName  string
	ProviderEmail string
}

type CreateLeadParams struct {
	ZoneID       uuid.UUID
	PostalCode   string
	ContactName  string
	ContactEmail string
	ContactPhone string
	Description  string
	CategoryIDs  []uuid.UUID
}

// DistributionResult reports what a fan-out run produced. Offers contains
// only rows created by this run; offers that already existed are skipped by
// the store-level conflict clause.
type DistributionResult struct {
	Lead   Lead
	Offers []OfferWithProvider
}

type Reader interface {
	GetLead(ctx context.Context, id uuid.UUID) (Lead, error)
	GetOffer(ctx context.Context, id uuid.UUID) (Offer, error)
	ListOffers(ctx context.Context, leadID uuid.UUID) ([]OfferWithProvider, error)
	ListLeads(ctx context.Context, status LeadStatus, limit, offset int) ([]Lead, error)
}

type Writer interface {
	CreateLead(ctx context.Context, params CreateLeadParams) (Lead, error)
	// Distribute matches eligible providers and inserts their offer rows in
	// one transaction. Safe to call repeatedly for the same lead.
	Distribute(ctx context.Context, leadID uuid.UUID) (DistributionResult, error)
	// Respond flips an offer from sent to the given decision, or fails with
	// PreconditionFailed when the offer already carries a response.
	Respond(ctx context.Context, offerID uuid.UUID, decision Decision) (Offer, error)
	CloseLead(ctx context.Context, id uuid.UUID) (Lead, error)
}

type Repository interface {
	Reader
	Writer
}
