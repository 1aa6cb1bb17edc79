// Package transport defines the HTTP request and response shapes of the
// leads module.
package transport

import (
	"time"

	"github.com/google/uuid"

	"leadmarket_backend/internal/leads/repository"
)

type CreateLeadRequest struct {
	PostalCode   string      `json:"postalCode" validate:"required,min=3,max=10"`
	Country      string      `json:"country" validate:"omitempty,len=2"`
	ContactName  string      `json:"contactName" validate:"required,min=2,max=200"`
	ContactEmail string      `json:"contactEmail" validate:"required,email"`
	ContactPhone string      `json:"contactPhone" validate:"required,min=5,max=20"`
	Description  string      `json:"description" validate:"max=4000"`
	CategoryIDs  []uuid.UUID `json:"categoryIds" validate:"required,min=1,max=5"`
}

type RespondRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accepted declined"`
}

type LeadResponse struct {
	ID           uuid.UUID   `json:"id"`
	ZoneID       uuid.UUID   `json:"zoneId"`
	ZoneName     string      `json:"zoneName"`
	Country      string      `json:"country"`
	PostalCode   string      `json:"postalCode"`
	ContactName  string      `json:"contactName"`
	ContactEmail string      `json:"contactEmail"`
	ContactPhone string      `json:"contactPhone"`
	Description  string      `json:"description,omitempty"`
	Status       string      `json:"status"`
	CategoryIDs  []uuid.UUID `json:"categoryIds"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func NewLeadResponse(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:           lead.ID,
		ZoneID:       lead.ZoneID,
		ZoneName:     lead.ZoneName,
		Country:      lead.CountryISO,
		PostalCode:   lead.PostalCode,
		ContactName:  lead.ContactName,
		ContactEmail: lead.ContactEmail,
		ContactPhone: lead.ContactPhone,
		Description:  lead.Description,
		Status:       string(lead.Status),
		CategoryIDs:  lead.CategoryIDs,
		CreatedAt:    lead.CreatedAt,
		UpdatedAt:    lead.UpdatedAt,
	}
}

type OfferResponse struct {
	ID                  uuid.UUID  `json:"id"`
	LeadID              uuid.UUID  `json:"leadId"`
	ProviderID          uuid.UUID  `json:"providerId"`
	ProviderName        string     `json:"providerName,omitempty"`
	Status              string     `json:"status"`
	SentAt              time.Time  `json:"sentAt"`
	RespondedAt         *time.Time `json:"respondedAt,omitempty"`
	ResponseTimeSeconds *int64     `json:"responseTimeSeconds,omitempty"`
}

func NewOfferResponse(offer repository.Offer) OfferResponse {
	resp := OfferResponse{
		ID:          offer.ID,
		LeadID:      offer.LeadID,
		ProviderID:  offer.ProviderID,
		Status:      string(offer.Status),
		SentAt:      offer.SentAt,
		RespondedAt: offer.RespondedAt,
	}
	if offer.RespondedAt != nil {
		seconds := int64(offer.RespondedAt.Sub(offer.SentAt).Seconds())
		resp.ResponseTimeSeconds = &seconds
	}
	return resp
}

func NewOfferWithProviderResponse(offer repository.OfferWithProvider) OfferResponse {
	resp := NewOfferResponse(offer.Offer)
	resp.ProviderName = offer.ProviderName
	return resp
}

// RespondResponse reports the recorded decision. ChargeStatus is set to
// "failed" when an accept was stored but the lead charge did not settle.
type RespondResponse struct {
	Offer        OfferResponse `json:"offer"`
	ChargeStatus string        `json:"chargeStatus,omitempty"`
}

type DistributeResponse struct {
	Lead       LeadResponse    `json:"lead"`
	NewOffers  []OfferResponse `json:"newOffers"`
	OfferCount int             `json:"offerCount"`
}

type EligibleProviderResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}
