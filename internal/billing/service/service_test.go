package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadmarket_backend/internal/audit"
	"leadmarket_backend/internal/billing/pricing"
	"leadmarket_backend/internal/billing/processor"
	"leadmarket_backend/internal/billing/repository"
	"leadmarket_backend/internal/events"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/logger"
)

type stubRepo struct {
	chargeCtx    repository.ChargeContext
	chargeCtxErr error

	open      *repository.Transaction
	created   *repository.Transaction
	completed *repository.Transaction
	failed    *repository.Transaction
	refunded  *repository.Transaction
	byID      repository.Transaction
	byIDErr   error

	failReason string
}

func (r *stubRepo) GetByID(context.Context, uuid.UUID) (repository.Transaction, error) {
	return r.byID, r.byIDErr
}

func (r *stubRepo) FindOpen(context.Context, uuid.UUID, uuid.UUID) (repository.Transaction, bool, error) {
	if r.open != nil {
		return *r.open, true, nil
	}
	return repository.Transaction{}, false, nil
}

func (r *stubRepo) ListByProvider(context.Context, uuid.UUID, int, int) ([]repository.Transaction, error) {
	return nil, nil
}

func (r *stubRepo) ListByStatus(context.Context, repository.Status, int, int) ([]repository.Transaction, error) {
	return nil, nil
}

func (r *stubRepo) ChargeContext(context.Context, uuid.UUID, uuid.UUID) (repository.ChargeContext, error) {
	return r.chargeCtx, r.chargeCtxErr
}

func (r *stubRepo) CreatePending(_ context.Context, providerID, leadID uuid.UUID, amountCents int64, currency string) (repository.Transaction, error) {
	tx := repository.Transaction{
		ID:          uuid.New(),
		ProviderID:  providerID,
		LeadID:      leadID,
		AmountCents: amountCents,
		Currency:    currency,
		Status:      repository.StatusPending,
	}
	r.created = &tx
	return tx, nil
}

func (r *stubRepo) MarkCompleted(_ context.Context, id uuid.UUID, paymentRef string) (repository.Transaction, error) {
	tx := *r.created
	tx.ID = id
	tx.Status = repository.StatusCompleted
	tx.PaymentRef = paymentRef
	r.completed = &tx
	return tx, nil
}

func (r *stubRepo) MarkFailed(_ context.Context, id uuid.UUID, reason string) (repository.Transaction, error) {
	tx := *r.created
	tx.ID = id
	tx.Status = repository.StatusFailed
	tx.FailureReason = reason
	r.failed = &tx
	r.failReason = reason
	return tx, nil
}

func (r *stubRepo) MarkRefunded(_ context.Context, id uuid.UUID, refundRef string) (repository.Transaction, error) {
	tx := r.byID
	tx.ID = id
	tx.Status = repository.StatusRefunded
	tx.RefundRef = refundRef
	r.refunded = &tx
	return tx, nil
}

type stubGateway struct {
	chargeResult processor.ChargeResult
	chargeErr    error
	chargeCalls  int
	refundResult processor.RefundResult
	refundErr    error
	refundCalls  int
}

func (g *stubGateway) Charge(context.Context, processor.ChargeRequest) (processor.ChargeResult, error) {
	g.chargeCalls++
	return g.chargeResult, g.chargeErr
}

func (g *stubGateway) Refund(context.Context, processor.RefundRequest) (processor.RefundResult, error) {
	g.refundCalls++
	return g.refundResult, g.refundErr
}

type noopAuditor struct{}

func (noopAuditor) Record(context.Context, audit.Entry) {}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func testPrices(t *testing.T) *pricing.Book {
	t.Helper()
	book, err := pricing.Parse([]byte("countries:\n  NO:\n    amount: \"490.00\"\n    currency: NOK\n"))
	require.NoError(t, err)
	return book
}

func newChargeService(t *testing.T, repo *stubRepo, gateway *stubGateway) *Service {
	t.Helper()
	log := logger.New("test")
	return New(repo, testPrices(t), gateway, events.NewInMemoryBus(log), noopAuditor{}, log)
}

func activeChargeContext() repository.ChargeContext {
	return repository.ChargeContext{
		ProviderName:   "Rask Bygg AS",
		ProviderEmail:  "post@raskbygg.example",
		PaymentAccount: "acct_123",
		ProviderActive: true,
		CountryISO:     "NO",
	}
}

func TestCharge_Succeeds(t *testing.T) {
	repo := &stubRepo{chargeCtx: activeChargeContext()}
	gateway := &stubGateway{chargeResult: processor.ChargeResult{
		Outcome:    processor.OutcomeSucceeded,
		PaymentRef: "pay_42",
	}}
	svc := newChargeService(t, repo, gateway)

	tx, err := svc.Charge(context.Background(), uuid.New(), uuid.New())

	require.NoError(t, err)
	assert.Equal(t, repository.StatusCompleted, tx.Status)
	assert.Equal(t, int64(49000), tx.AmountCents)
	assert.Equal(t, "NOK", tx.Currency)
	assert.Equal(t, "pay_42", tx.PaymentRef)
	assert.Equal(t, 1, gateway.chargeCalls)
}

func TestCharge_NoPaymentMethod_FailsBeforeCreatingTransaction(t *testing.T) {
	cc := activeChargeContext()
	cc.PaymentAccount = ""
	repo := &stubRepo{chargeCtx: cc}
	gateway := &stubGateway{}
	svc := newChargeService(t, repo, gateway)

	_, err := svc.Charge(context.Background(), uuid.New(), uuid.New())

	require.Error(t, err)
	assert.Equal(t, apperr.KindPreconditionFailed, apperr.GetKind(err))
	assert.Nil(t, repo.created, "no transaction may be created without a payment method")
	assert.Equal(t, 0, gateway.chargeCalls)
}

func TestCharge_UnpricedCountry_FailsBeforeCreatingTransaction(t *testing.T) {
	cc := activeChargeContext()
	cc.CountryISO = "AU"
	repo := &stubRepo{chargeCtx: cc}
	gateway := &stubGateway{}
	svc := newChargeService(t, repo, gateway)

	_, err := svc.Charge(context.Background(), uuid.New(), uuid.New())

	require.Error(t, err)
	assert.Equal(t, apperr.KindPreconditionFailed, apperr.GetKind(err))
	assert.Nil(t, repo.created)
}

func TestCharge_OpenTransactionExists_Conflict(t *testing.T) {
	repo := &stubRepo{
		chargeCtx: activeChargeContext(),
		open:      &repository.Transaction{Status: repository.StatusCompleted},
	}
	gateway := &stubGateway{}
	svc := newChargeService(t, repo, gateway)

	_, err := svc.Charge(context.Background(), uuid.New(), uuid.New())

	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.GetKind(err))
	assert.Equal(t, 0, gateway.chargeCalls)
}

func TestCharge_Declined_ReturnsFailedTransactionWithoutError(t *testing.T) {
	repo := &stubRepo{chargeCtx: activeChargeContext()}
	gateway := &stubGateway{chargeResult: processor.ChargeResult{
		Outcome: processor.OutcomeDeclined,
		Reason:  "card_declined",
	}}
	svc := newChargeService(t, repo, gateway)

	tx, err := svc.Charge(context.Background(), uuid.New(), uuid.New())

	require.NoError(t, err, "a decline is a business outcome, not a call failure")
	assert.Equal(t, repository.StatusFailed, tx.Status)
	assert.Equal(t, "card_declined", tx.FailureReason)
}

func TestCharge_Timeout_LeavesTransactionPending(t *testing.T) {
	repo := &stubRepo{chargeCtx: activeChargeContext()}
	gateway := &stubGateway{chargeErr: timeoutErr{}}
	svc := newChargeService(t, repo, gateway)

	tx, err := svc.Charge(context.Background(), uuid.New(), uuid.New())

	require.Error(t, err)
	assert.Equal(t, apperr.KindExternal, apperr.GetKind(err))
	assert.Equal(t, repository.StatusPending, tx.Status)
	assert.Nil(t, repo.failed, "an ambiguous outcome must not be marked failed")
}

func TestCharge_TransportError_MarksTransactionFailed(t *testing.T) {
	repo := &stubRepo{chargeCtx: activeChargeContext()}
	gateway := &stubGateway{chargeErr: errors.New("connection refused")}
	svc := newChargeService(t, repo, gateway)

	tx, err := svc.Charge(context.Background(), uuid.New(), uuid.New())

	require.Error(t, err)
	assert.Equal(t, apperr.KindExternal, apperr.GetKind(err))
	assert.Equal(t, repository.StatusFailed, tx.Status)
	assert.Equal(t, "connection refused", repo.failReason)
}

func TestRefund_CompletedTransaction(t *testing.T) {
	repo := &stubRepo{byID: repository.Transaction{
		ID:          uuid.New(),
		ProviderID:  uuid.New(),
		LeadID:      uuid.New(),
		AmountCents: 49000,
		Currency:    "NOK",
		Status:      repository.StatusCompleted,
		PaymentRef:  "pay_42",
	}}
	gateway := &stubGateway{refundResult: processor.RefundResult{RefundRef: "re_7"}}
	svc := newChargeService(t, repo, gateway)

	tx, err := svc.Refund(context.Background(), repo.byID.ID, uuid.New())

	require.NoError(t, err)
	assert.Equal(t, repository.StatusRefunded, tx.Status)
	assert.Equal(t, "re_7", tx.RefundRef)
	assert.Equal(t, 1, gateway.refundCalls)
}

func TestRefund_RejectsNonCompletedStates(t *testing.T) {
	for _, status := range []repository.Status{
		repository.StatusPending,
		repository.StatusFailed,
		repository.StatusRefunded,
	} {
		t.Run(string(status), func(t *testing.T) {
			repo := &stubRepo{byID: repository.Transaction{ID: uuid.New(), Status: status}}
			gateway := &stubGateway{}
			svc := newChargeService(t, repo, gateway)

			_, err := svc.Refund(context.Background(), repo.byID.ID, uuid.New())

			require.Error(t, err)
			assert.Equal(t, apperr.KindPreconditionFailed, apperr.GetKind(err))
			assert.Equal(t, 0, gateway.refundCalls, "gateway must not be called for a non-refundable transaction")
		})
	}
}

func TestRefund_GatewayFailure_KeepsTransactionCompleted(t *testing.T) {
	repo := &stubRepo{byID: repository.Transaction{
		ID:     uuid.New(),
		Status: repository.StatusCompleted,
	}}
	gateway := &stubGateway{refundErr: errors.New("boom")}
	svc := newChargeService(t, repo, gateway)

	_, err := svc.Refund(context.Background(), repo.byID.ID, uuid.New())

	require.Error(t, err)
	assert.Equal(t, apperr.KindExternal, apperr.GetKind(err))
	assert.Nil(t, repo.refunded)
}
