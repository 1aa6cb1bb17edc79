// Package processor wraps the external payment gateway. The gateway is the
// system of record for money movement; this package only issues requests
// and classifies outcomes.
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"leadmarket_backend/platform/config"
)

// Outcome classifies a gateway answer that arrived. Transport-level
// failures (timeout, connection refused, 5xx) are returned as errors
// instead, because in those cases the charge state is unknown.
type Outcome string

const (
	OutcomeSucceeded       Outcome = "succeeded"
	OutcomeDeclined        Outcome = "declined"
	OutcomeNoPaymentMethod Outcome = "no_payment_method"
)

type ChargeRequest struct {
	AccountRef  string
	AmountCents int64
	Currency    string
	// Reference is our transaction ID, passed through for reconciliation.
	Reference string
}

type ChargeResult struct {
	Outcome    Outcome
	PaymentRef string
	Reason     string
}

type RefundRequest struct {
	PaymentRef  string
	AmountCents int64
	Currency    string
	Reference   string
}

type RefundResult struct {
	RefundRef string
}

// Processor is the gateway port the billing service calls.
type Processor interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
	Refund(ctx context.Context, req RefundRequest) (RefundResult, error)
}

// NoopProcessor approves everything without leaving the process. Used in
// development when no gateway is configured.
type NoopProcessor struct{}

func (NoopProcessor) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	return ChargeResult{Outcome: OutcomeSucceeded, PaymentRef: "noop-" + req.Reference}, nil
}

func (NoopProcessor) Refund(ctx context.Context, req RefundRequest) (RefundResult, error) {
	return RefundResult{RefundRef: "noop-refund-" + req.Reference}, nil
}

// HTTPProcessor talks JSON to the configured gateway. The client timeout
// bounds every call; a timed-out charge is reported as an error so the
// caller can leave its transaction pending for reconciliation.
type HTTPProcessor struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New builds a processor from config, falling back to the noop
// implementation when the gateway is not enabled.
func New(cfg config.PaymentConfig) Processor {
	if !cfg.IsPaymentEnabled() {
		return NoopProcessor{}
	}
	return &HTTPProcessor{
		baseURL: cfg.GetPaymentAPIURL(),
		apiKey:  cfg.GetPaymentAPIKey(),
		client:  &http.Client{Timeout: cfg.GetPaymentTimeout()},
	}
}

var _ Processor = (*HTTPProcessor)(nil)
var _ Processor = NoopProcessor{}

type chargePayload struct {
	AccountRef  string `json:"accountRef"`
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
	Reference   string `json:"reference"`
}

type chargeReply struct {
	Status     string `json:"status"` // succeeded | declined | no_payment_method
	PaymentRef string `json:"paymentRef"`
	Reason     string `json:"reason"`
}

func (p *HTTPProcessor) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	var reply chargeReply
	if err := p.post(ctx, "/v1/charges", chargePayload{
		AccountRef:  req.AccountRef,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Reference:   req.Reference,
	}, &reply); err != nil {
		return ChargeResult{}, err
	}

	switch reply.Status {
	case "succeeded", "processing":
		return ChargeResult{Outcome: OutcomeSucceeded, PaymentRef: reply.PaymentRef}, nil
	case "declined":
		return ChargeResult{Outcome: OutcomeDeclined, Reason: reply.Reason}, nil
	case "no_payment_method":
		return ChargeResult{Outcome: OutcomeNoPaymentMethod, Reason: reply.Reason}, nil
	default:
		return ChargeResult{}, fmt.Errorf("gateway returned unknown charge status %q", reply.Status)
	}
}

type refundPayload struct {
	PaymentRef  string `json:"paymentRef"`
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
	Reference   string `json:"reference"`
}

type refundReply struct {
	RefundRef string `json:"refundRef"`
}

func (p *HTTPProcessor) Refund(ctx context.Context, req RefundRequest) (RefundResult, error) {
	var reply refundReply
	if err := p.post(ctx, "/v1/refunds", refundPayload{
		PaymentRef:  req.PaymentRef,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Reference:   req.Reference,
	}, &reply); err != nil {
		return RefundResult{}, err
	}
	return RefundResult{RefundRef: reply.RefundRef}, nil
}

func (p *HTTPProcessor) post(ctx context.Context, path string, payload, reply any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("content-type", "application/json")
	req.Header.Set("accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("payment gateway call failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("payment gateway returned status %d: %s", resp.StatusCode, string(data))
	}
	return json.NewDecoder(resp.Body).Decode(reply)
}
