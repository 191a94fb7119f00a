package models

import (
	"time"

	id "origen/pkg/domain"
)

// StatusHistoryEntry is the immutable audit record of one transition.
// Entries are append-only: created atomically with the status mutation and
// never updated or deleted.
type StatusHistoryEntry struct {
	ID            int64             `json:"id"`
	ApplicationID id.ApplicationID  `json:"application_id"`
	OldStatus     Status            `json:"old_status"`
	NewStatus     Status            `json:"new_status"`
	ActorID       string            `json:"actor_id"`
	ActorType     string            `json:"actor_type"`
	Reason        string            `json:"reason,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}
