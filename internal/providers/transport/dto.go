package transport

import "github.com/google/uuid"

// CreateProviderRequest registers a new provider. Providers start in
// pending_onboarding and must be activated before receiving leads.
type CreateProviderRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=200"`
	Email string `json:"email" validate:"required,email,max=254"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

// SetMembershipsRequest replaces a provider's zone or category memberships.
type SetMembershipsRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

// SetPaymentAccountRequest stores the provider's payment method reference
// at the external payment processor.
type SetPaymentAccountRequest struct {
	PaymentAccount string `json:"paymentAccount" validate:"required,min=1,max=200"`
}

// ProviderResponse represents a provider in API responses.
type ProviderResponse struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone,omitempty"`
	Status      string      `json:"status"`
	HasPayment  bool        `json:"hasPaymentAccount"`
	ZoneIDs     []uuid.UUID `json:"zoneIds,omitempty"`
	CategoryIDs []uuid.UUID `json:"categoryIds,omitempty"`
	CreatedAt   string      `json:"createdAt"`
	UpdatedAt   string      `json:"updatedAt"`
}

// ProviderListResponse wraps a list of providers.
type ProviderListResponse struct {
	Items []ProviderResponse `json:"items"`
	Total int                `json:"total"`
}
