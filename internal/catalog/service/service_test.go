package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"leadmarket_backend/internal/audit"
	"leadmarket_backend/internal/catalog/repository"
	"leadmarket_backend/internal/catalog/transport"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/logger"
)

type stubRepo struct {
	byID            repository.Category
	byIDErr         error
	created         *repository.CreateParams
	activeProviders int
	setActive       map[uuid.UUID]bool
	existChecked    []uuid.UUID
}

func (r *stubRepo) GetByID(context.Context, uuid.UUID) (repository.Category, error) {
	return r.byID, r.byIDErr
}

func (r *stubRepo) List(context.Context) ([]repository.Category, error)       { return nil, nil }
func (r *stubRepo) ListActive(context.Context) ([]repository.Category, error) { return nil, nil }

func (r *stubRepo) ExistAll(_ context.Context, ids []uuid.UUID) (bool, error) {
	r.existChecked = ids
	return true, nil
}

func (r *stubRepo) CountActiveProviders(context.Context, uuid.UUID) (int, error) {
	return r.activeProviders, nil
}

func (r *stubRepo) Create(_ context.Context, params repository.CreateParams) (repository.Category, error) {
	r.created = &params
	return repository.Category{ID: uuid.New(), Name: params.Name, ParentID: params.ParentID, IsActive: true}, nil
}

func (r *stubRepo) Update(_ context.Context, params repository.UpdateParams) (repository.Category, error) {
	return repository.Category{ID: params.ID, Name: params.Name, IsActive: true}, nil
}

func (r *stubRepo) SetActive(_ context.Context, id uuid.UUID, isActive bool) error {
	if r.setActive == nil {
		r.setActive = map[uuid.UUID]bool{}
	}
	r.setActive[id] = isActive
	return nil
}

type noopAuditor struct{}

func (noopAuditor) Record(context.Context, audit.Entry) {}

func newService(repo *stubRepo) *Service {
	return New(repo, noopAuditor{}, logger.New("test"))
}

func TestCreate_RootCategory(t *testing.T) {
	repo := &stubRepo{}
	svc := newService(repo)

	resp, err := svc.Create(context.Background(), uuid.New(), transport.CreateCategoryRequest{Name: "  Plumbing  "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.Name != "Plumbing" {
		t.Fatalf("expected trimmed name, got %q", resp.Name)
	}
	if resp.Kind != string(repository.KindRoot) {
		t.Fatalf("expected root kind, got %q", resp.Kind)
	}
}

func TestCreate_ChildOfRoot(t *testing.T) {
	parentID := uuid.New()
	repo := &stubRepo{byID: repository.Category{ID: parentID, Name: "Plumbing", IsActive: true}}
	svc := newService(repo)

	resp, err := svc.Create(context.Background(), uuid.New(), transport.CreateCategoryRequest{
		Name:     "Drain cleaning",
		ParentID: &parentID,
	})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	if resp.Kind != string(repository.KindChild) {
		t.Fatalf("expected child kind, got %q", resp.Kind)
	}
}

func TestCreate_RejectsGrandchild(t *testing.T) {
	rootID := uuid.New()
	childID := uuid.New()
	repo := &stubRepo{byID: repository.Category{ID: childID, Name: "Drain cleaning", ParentID: &rootID}}
	svc := newService(repo)

	_, err := svc.Create(context.Background(), uuid.New(), transport.CreateCategoryRequest{
		Name:     "Kitchen drains",
		ParentID: &childID,
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for a two-level parent, got %v", err)
	}
	if repo.created != nil {
		t.Fatal("no category may be created under a child")
	}
}

func TestCreate_UnknownParent(t *testing.T) {
	parentID := uuid.New()
	repo := &stubRepo{byIDErr: apperr.NotFound("category not found")}
	svc := newService(repo)

	_, err := svc.Create(context.Background(), uuid.New(), transport.CreateCategoryRequest{
		Name:     "Drain cleaning",
		ParentID: &parentID,
	})
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestDeactivate_BlockedByActiveProviders(t *testing.T) {
	repo := &stubRepo{activeProviders: 3}
	svc := newService(repo)

	err := svc.Deactivate(context.Background(), uuid.New(), uuid.New())
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(repo.setActive) != 0 {
		t.Fatal("category must stay active while providers offer it")
	}
}

func TestDeactivate_NoActiveProviders(t *testing.T) {
	repo := &stubRepo{}
	svc := newService(repo)
	id := uuid.New()

	if err := svc.Deactivate(context.Background(), uuid.New(), id); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if active, ok := repo.setActive[id]; !ok || active {
		t.Fatalf("expected category flipped inactive, got %v", repo.setActive)
	}
}

func TestExistAll_RepeatedIDsCountOnce(t *testing.T) {
	repo := &stubRepo{}
	svc := newService(repo)
	id := uuid.New()

	ok, err := svc.ExistAll(context.Background(), []uuid.UUID{id, id, id})
	if err != nil || !ok {
		t.Fatalf("expected ok, got %v %v", ok, err)
	}
	if len(repo.existChecked) != 1 || repo.existChecked[0] != id {
		t.Fatalf("expected one unique ID checked, got %v", repo.existChecked)
	}
}
