// Package transport defines the HTTP request and response shapes of the
// billing module.
package transport

import (
	"time"

	"github.com/google/uuid"

	"leadmarket_backend/internal/billing/repository"
)

type ChargeRequest struct {
	ProviderID uuid.UUID `json:"providerId" validate:"required"`
	LeadID     uuid.UUID `json:"leadId" validate:"required"`
}

type TransactionResponse struct {
	ID            uuid.UUID `json:"id"`
	ProviderID    uuid.UUID `json:"providerId"`
	LeadID        uuid.UUID `json:"leadId"`
	AmountCents   int64     `json:"amountCents"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	PaymentRef    string    `json:"paymentRef,omitempty"`
	RefundRef     string    `json:"refundRef,omitempty"`
	FailureReason string    `json:"failureReason,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func NewTransactionResponse(tx repository.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            tx.ID,
		ProviderID:    tx.ProviderID,
		LeadID:        tx.LeadID,
		AmountCents:   tx.AmountCents,
		Currency:      tx.Currency,
		Status:        string(tx.Status),
		PaymentRef:    tx.PaymentRef,
		RefundRef:     tx.RefundRef,
		FailureReason: tx.FailureReason,
		CreatedAt:     tx.CreatedAt,
		UpdatedAt:     tx.UpdatedAt,
	}
}

func NewTransactionListResponse(txs []repository.Transaction) []TransactionResponse {
	resp := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		resp = append(resp, NewTransactionResponse(tx))
	}
	return resp
}
