package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	audit "folio/pkg/platform/audit"
	txcontext "folio/pkg/platform/tx"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id         UUID PRIMARY KEY,
	category   TEXT NOT NULL,
	timestamp  TIMESTAMPTZ NOT NULL,
	action     TEXT NOT NULL,
	signer     TEXT NOT NULL DEFAULT '',
	subject    TEXT NOT NULL DEFAULT '',
	decision   TEXT NOT NULL DEFAULT '',
	reason     TEXT NOT NULL DEFAULT '',
	request_id TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_signer_idx ON audit_events (signer, timestamp)`

// Store implements audit.Store on the audit_events table. Inserts are
// idempotent on event ID so a Kafka replay can materialize safely.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the audit table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate audit_events: %w", err)
	}
	return nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append inserts event, assigning an ID if it has none.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID, err := eventID(event)
	if err != nil {
		return err
	}
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}

	query := `
		INSERT INTO audit_events (
			id, category, timestamp, action, signer,
			subject, decision, reason, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		eventID,
		string(category),
		event.Timestamp,
		event.Action,
		event.Signer,
		event.Subject,
		event.Decision,
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySigner returns events for one signer, oldest first.
func (s *Store) ListBySigner(ctx context.Context, signer string) ([]audit.Event, error) {
	query := `
		SELECT id, category, timestamp, action, signer,
			   subject, decision, reason, request_id
		FROM audit_events
		WHERE signer = $1
		ORDER BY timestamp ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, signer)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event    audit.Event
			id       uuid.UUID
			category string
		)
		err := rows.Scan(
			&id,
			&category,
			&event.Timestamp,
			&event.Action,
			&event.Signer,
			&event.Subject,
			&event.Decision,
			&event.Reason,
			&event.RequestID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.ID = id.String()
		event.Category = audit.EventCategory(category)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func eventID(event audit.Event) (uuid.UUID, error) {
	if event.ID == "" {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(event.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("audit event id %q: %w", event.ID, err)
	}
	return id, nil
}
