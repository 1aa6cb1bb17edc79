package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadmarket_backend/platform/apperr"
)

const categoryNotFoundMessage = "category not found"

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new category repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves a category by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Category, error) {
	query := `
		SELECT id, name, parent_id, is_active, created_at, updated_at
		FROM categories
		WHERE id = $1`

	var category Category
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&category.ID, &category.Name, &category.ParentID,
		&category.IsActive, &category.CreatedAt, &category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, apperr.NotFound(categoryNotFoundMessage)
		}
		return Category{}, fmt.Errorf("get category by id: %w", err)
	}
	return category, nil
}

// List retrieves all categories, roots before children.
func (r *Repo) List(ctx context.Context) ([]Category, error) {
	return r.list(ctx, false)
}

// ListActive retrieves only active categories.
func (r *Repo) ListActive(ctx context.Context) ([]Category, error) {
	return r.list(ctx, true)
}

func (r *Repo) list(ctx context.Context, activeOnly bool) ([]Category, error) {
	query := `
		SELECT id, name, parent_id, is_active, created_at, updated_at
		FROM categories
		WHERE ($1 = false OR is_active = true)
		ORDER BY parent_id NULLS FIRST, name ASC`

	rows, err := r.pool.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var category Category
		if err := rows.Scan(
			&category.ID, &category.Name, &category.ParentID,
			&category.IsActive, &category.CreatedAt, &category.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// ExistAll reports whether every given ID refers to an active category.
func (r *Repo) ExistAll(ctx context.Context, ids []uuid.UUID) (bool, error) {
	if len(ids) == 0 {
		return false, nil
	}

	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM categories WHERE id = ANY($1) AND is_active = true`,
		ids,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check categories exist: %w", err)
	}
	return count == len(ids), nil
}

// CountActiveProviders returns how many ACTIVE providers offer the category.
func (r *Repo) CountActiveProviders(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*)
		 FROM provider_categories pc
		 JOIN providers p ON p.id = pc.provider_id
		 WHERE pc.category_id = $1 AND p.status = 'active'`,
		id,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active providers for category: %w", err)
	}
	return count, nil
}

// Create inserts a new category.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Category, error) {
	query := `
		INSERT INTO categories (name, parent_id)
		VALUES ($1, $2)
		RETURNING id, name, parent_id, is_active, created_at, updated_at`

	var category Category
	err := r.pool.QueryRow(ctx, query, params.Name, params.ParentID).Scan(
		&category.ID, &category.Name, &category.ParentID,
		&category.IsActive, &category.CreatedAt, &category.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Category{}, apperr.Conflict("a category with this name already exists")
		}
		return Category{}, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

// Update renames a category.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (Category, error) {
	query := `
		UPDATE categories
		SET name = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, name, parent_id, is_active, created_at, updated_at`

	var category Category
	err := r.pool.QueryRow(ctx, query, params.ID, params.Name).Scan(
		&category.ID, &category.Name, &category.ParentID,
		&category.IsActive, &category.CreatedAt, &category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, apperr.NotFound(categoryNotFoundMessage)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Category{}, apperr.Conflict("a category with this name already exists")
		}
		return Category{}, fmt.Errorf("update category: %w", err)
	}
	return category, nil
}

// SetActive toggles a category's active flag.
func (r *Repo) SetActive(ctx context.Context, id uuid.UUID, isActive bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE categories SET is_active = $2, updated_at = now() WHERE id = $1`,
		id, isActive,
	)
	if err != nil {
		return fmt.Errorf("set category active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(categoryNotFoundMessage)
	}
	return nil
}
