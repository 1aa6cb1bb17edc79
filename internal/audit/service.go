// Package audit provides the append-only audit log consumed by every
// state-changing operation in the system.
package audit

import (
	"context"
	"encoding/json"

	"leadmarket_backend/platform/logger"

	"github.com/google/uuid"
)

// Entry describes a state-changing operation to record.
type Entry struct {
	Action     string
	EntityType string
	EntityID   string
	ActorID    *uuid.UUID
	Metadata   map[string]any
}

// Recorder is the narrow port other modules depend on. Record is
// fire-and-forget: a failed audit write must never abort the operation
// it describes.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// Inserter is the repository dependency of the service.
type Inserter interface {
	Insert(ctx context.Context, entry LogEntry) error
}

// Service writes audit entries and swallows (but logs) write failures.
type Service struct {
	repo Inserter
	log  *logger.Logger
}

// NewService creates a new audit service.
func NewService(repo Inserter, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Record appends an audit entry. Failures are logged and not returned so
// the primary operation always proceeds; the log line keeps the gap
// observable.
func (s *Service) Record(ctx context.Context, entry Entry) {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		s.log.AuditWriteFailed(entry.Action, entry.EntityType, entry.EntityID, err)
		return
	}

	row := LogEntry{
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		ActorID:    entry.ActorID,
		Metadata:   metadata,
	}

	if err := s.repo.Insert(ctx, row); err != nil {
		s.log.AuditWriteFailed(entry.Action, entry.EntityType, entry.EntityID, err)
	}
}

// Compile-time check that Service implements Recorder.
var _ Recorder = (*Service)(nil)
