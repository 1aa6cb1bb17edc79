// Package events defines the domain events exchanged between modules.
package events

import (
	"time"

	"github.com/google/uuid"
)

// LeadCreated is published when a customer lead has been created and its
// zone resolved.
type LeadCreated struct {
	BaseEvent
	LeadID      uuid.UUID
	ZoneID      uuid.UUID
	PostalCode  string
	CategoryIDs []uuid.UUID
}

// EventName returns the unique event identifier.
func (LeadCreated) EventName() string { return "lead.created" }

// LeadOffered is published once per distribution record created during
// fan-out. The notification module turns it into a provider email and a
// webhook sink event; delivery is best-effort.
type LeadOffered struct {
	BaseEvent
	LeadProviderID uuid.UUID
	LeadID         uuid.UUID
	ProviderID     uuid.UUID
	ProviderName   string
	ProviderEmail  string
	ZoneName       string
	PostalCode     string
	SentAt         time.Time
}

// EventName returns the unique event identifier.
func (LeadOffered) EventName() string { return "lead.offered" }

// LeadDistributed is published after the fan-out transaction commits.
type LeadDistributed struct {
	BaseEvent
	LeadID        uuid.UUID
	ZoneID        uuid.UUID
	ProviderCount int
}

// EventName returns the unique event identifier.
func (LeadDistributed) EventName() string { return "lead.distributed" }

// LeadProviderResponded is published when a provider accepts or declines
// a distributed lead.
type LeadProviderResponded struct {
	BaseEvent
	LeadProviderID uuid.UUID
	LeadID         uuid.UUID
	ProviderID     uuid.UUID
	Decision       string // accepted | declined
	RespondedAt    time.Time
}

// EventName returns the unique event identifier.
func (LeadProviderResponded) EventName() string { return "lead.provider_responded" }

// TransactionCompleted is published when a lead charge settles.
type TransactionCompleted struct {
	BaseEvent
	TransactionID uuid.UUID
	ProviderID    uuid.UUID
	ProviderName  string
	ProviderEmail string
	LeadID        uuid.UUID
	AmountCents   int64
	Currency      string
	PaymentRef    string
}

// EventName returns the unique event identifier.
func (TransactionCompleted) EventName() string { return "billing.transaction_completed" }

// TransactionRefunded is published when a settled charge is refunded.
type TransactionRefunded struct {
	BaseEvent
	TransactionID uuid.UUID
	ProviderID    uuid.UUID
	LeadID        uuid.UUID
	AmountCents   int64
	Currency      string
	RefundRef     string
}

// EventName returns the unique event identifier.
func (TransactionRefunded) EventName() string { return "billing.transaction_refunded" }

// NotificationOutboxDue is published by the scheduler worker when an outbox
// row is due for dispatch.
type NotificationOutboxDue struct {
	BaseEvent
	OutboxID uuid.UUID
}

// EventName returns the unique event identifier.
func (NotificationOutboxDue) EventName() string { return "notification.outbox_due" }
