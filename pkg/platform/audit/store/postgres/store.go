// Package postgres implements the audit sink using the transactional outbox
// pattern. Events are written to the outbox table and published to Kafka by
// the outbox worker; Kafka is the source of truth for downstream consumers.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	audit "origen/pkg/platform/audit"
	txcontext "origen/pkg/platform/tx"
)

// Store implements audit.Store against the audit_outbox table.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
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

// outboxPayload is the JSON structure published to Kafka. Field names match
// audit.Event for proper deserialization by consumers.
type outboxPayload struct {
	ID        string         `json:"ID"`
	Category  string         `json:"Category"`
	Timestamp string         `json:"Timestamp"`
	TenantID  string         `json:"TenantID,omitempty"`
	Subject   string         `json:"Subject"`
	Action    string         `json:"Action"`
	ActorID   string         `json:"ActorID,omitempty"`
	ActorType string         `json:"ActorType,omitempty"`
	Decision  string         `json:"Decision,omitempty"`
	Reason    string         `json:"Reason,omitempty"`
	RequestID string         `json:"RequestID,omitempty"`
	Detail    map[string]any `json:"Detail,omitempty"`
}

// Append writes an audit event to the outbox table for Kafka publishing.
// When the caller runs inside a transaction (pkg/platform/tx), the outbox row
// commits or rolls back with the triggering mutation.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	// Always derive category from action; eventCategories is the source of truth.
	category := audit.AuditEvent(event.Action).Category()
	if event.Category != "" {
		category = event.Category
	}

	payload := outboxPayload{
		ID:        eventID.String(),
		Category:  string(category),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Subject:   event.Subject,
		Action:    event.Action,
		ActorID:   event.ActorID,
		ActorType: event.ActorType,
		Decision:  event.Decision,
		Reason:    event.Reason,
		RequestID: event.RequestID,
		Detail:    event.Detail,
	}
	if !event.TenantID.IsNil() {
		payload.TenantID = event.TenantID.String()
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType := "audit"
	aggregateID := eventID.String()
	if event.Subject != "" {
		aggregateType = "subject"
		aggregateID = event.Subject
	}

	query := `
		INSERT INTO audit_outbox (id, aggregate_type, aggregate_id, event_type, category, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		eventID,
		aggregateType,
		aggregateID,
		event.Action,
		string(category),
		payloadBytes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// OutboxEntry is one unpublished outbox row claimed by the worker.
type OutboxEntry struct {
	ID       uuid.UUID
	Category string
	Payload  []byte
}

// FetchUnpublished returns up to limit unpublished outbox rows in insertion
// order. Rows are not claimed: the single worker in the server process is the
// only consumer, and duplicate delivery is tolerable because consumers
// de-duplicate on the event ID carried in the payload.
func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]OutboxEntry, error) {
	query := `
		SELECT id, category, payload
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch unpublished outbox entries: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var entry OutboxEntry
		if err := rows.Scan(&entry.ID, &entry.Category, &entry.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// MarkPublished stamps outbox rows as delivered to Kafka.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	pgIDs := make([]string, len(ids))
	for i, entryID := range ids {
		pgIDs[i] = entryID.String()
	}
	query := `UPDATE audit_outbox SET published_at = $1 WHERE id = ANY($2::uuid[])`
	_, err := s.db.ExecContext(ctx, query, time.Now(), pq.Array(pgIDs))
	if err != nil {
		return fmt.Errorf("mark outbox entries published: %w", err)
	}
	return nil
}
