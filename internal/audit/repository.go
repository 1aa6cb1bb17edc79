package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LogEntry is a persisted audit record. Rows are append-only: no update or
// delete path exists in this repository.
type LogEntry struct {
	ID         uuid.UUID       `db:"id"`
	Action     string          `db:"action"`
	EntityType string          `db:"entity_type"`
	EntityID   string          `db:"entity_id"`
	ActorID    *uuid.UUID      `db:"actor_id"`
	Metadata   json.RawMessage `db:"metadata"`
	CreatedAt  time.Time       `db:"created_at"`
}

// ListParams filters the audit listing.
type ListParams struct {
	EntityType string
	EntityID   string
	Limit      int
	Offset     int
}

// Repository persists audit log entries in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new audit repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends one audit entry.
func (r *Repository) Insert(ctx context.Context, entry LogEntry) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = json.RawMessage(`{}`)
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_log (action, entity_type, entity_id, actor_id, metadata)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.Action, entry.EntityType, entry.EntityID, entry.ActorID, metadata,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns audit entries, newest first.
func (r *Repository) List(ctx context.Context, params ListParams) ([]LogEntry, error) {
	limit := params.Limit
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, action, entity_type, entity_id, actor_id, metadata, created_at
		FROM audit_log
		WHERE ($1 = '' OR entity_type = $1)
		  AND ($2 = '' OR entity_id = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, params.EntityType, params.EntityID, limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var entry LogEntry
		if err := rows.Scan(
			&entry.ID, &entry.Action, &entry.EntityType, &entry.EntityID,
			&entry.ActorID, &entry.Metadata, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
