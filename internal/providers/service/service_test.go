package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"leadmarket_backend/internal/audit"
	"leadmarket_backend/internal/providers/repository"
	"leadmarket_backend/internal/providers/transport"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/logger"
)

type stubRepo struct {
	provider repository.Provider
	created  *repository.CreateParams
	statuses map[uuid.UUID]repository.Status
}

func (r *stubRepo) GetByID(context.Context, uuid.UUID) (repository.Provider, error) {
	return r.provider, nil
}

func (r *stubRepo) List(context.Context) ([]repository.Provider, error) { return nil, nil }

func (r *stubRepo) ListEligible(context.Context, uuid.UUID, []uuid.UUID) ([]repository.EligibleProvider, error) {
	return nil, nil
}

func (r *stubRepo) Create(_ context.Context, params repository.CreateParams) (repository.Provider, error) {
	r.created = &params
	return repository.Provider{
		ID:     uuid.New(),
		Name:   params.Name,
		Email:  params.Email,
		Phone:  params.Phone,
		Status: repository.StatusPendingOnboarding,
	}, nil
}

func (r *stubRepo) SetStatus(_ context.Context, id uuid.UUID, status repository.Status) error {
	if r.statuses == nil {
		r.statuses = map[uuid.UUID]repository.Status{}
	}
	r.statuses[id] = status
	return nil
}

func (r *stubRepo) SetZones(context.Context, uuid.UUID, []uuid.UUID) error      { return nil }
func (r *stubRepo) SetCategories(context.Context, uuid.UUID, []uuid.UUID) error { return nil }
func (r *stubRepo) SetPaymentAccount(context.Context, uuid.UUID, string) error  { return nil }

type noopAuditor struct{}

func (noopAuditor) Record(context.Context, audit.Entry) {}

func newService(repo *stubRepo) *Service {
	return New(repo, noopAuditor{}, "NO", logger.New("test"))
}

func TestCreate_NormalizesAndStartsPending(t *testing.T) {
	repo := &stubRepo{}
	svc := newService(repo)

	resp, err := svc.Create(context.Background(), uuid.New(), transport.CreateProviderRequest{
		Name:  " Rask Bygg AS ",
		Email: " Post@RaskBygg.Example ",
		Phone: "22 34 56 78",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.Status != string(repository.StatusPendingOnboarding) {
		t.Fatalf("expected pending_onboarding, got %q", resp.Status)
	}
	if repo.created.Email != "post@raskbygg.example" {
		t.Fatalf("expected lower-cased email, got %q", repo.created.Email)
	}
	if repo.created.Phone != "+4722345678" {
		t.Fatalf("expected E.164 phone, got %q", repo.created.Phone)
	}
}

func TestActivate_RequiresPaymentAccount(t *testing.T) {
	id := uuid.New()
	repo := &stubRepo{provider: repository.Provider{ID: id, Status: repository.StatusPendingOnboarding}}
	svc := newService(repo)

	err := svc.Activate(context.Background(), uuid.New(), id)
	if apperr.GetKind(err) != apperr.KindPreconditionFailed {
		t.Fatalf("expected precondition failure, got %v", err)
	}
	if len(repo.statuses) != 0 {
		t.Fatal("provider must not be activated without a payment account")
	}
}

func TestActivate_WithPaymentAccount(t *testing.T) {
	id := uuid.New()
	account := "acct_123"
	repo := &stubRepo{provider: repository.Provider{
		ID:             id,
		Status:         repository.StatusPendingOnboarding,
		PaymentAccount: &account,
	}}
	svc := newService(repo)

	if err := svc.Activate(context.Background(), uuid.New(), id); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if repo.statuses[id] != repository.StatusActive {
		t.Fatalf("expected active status, got %q", repo.statuses[id])
	}
}

func TestListEligible_RequiresZoneAndCategories(t *testing.T) {
	svc := newService(&stubRepo{})

	if _, err := svc.ListEligible(context.Background(), uuid.Nil, []uuid.UUID{uuid.New()}); apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for nil zone, got %v", err)
	}
	if _, err := svc.ListEligible(context.Background(), uuid.New(), nil); apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for empty categories, got %v", err)
	}
}
