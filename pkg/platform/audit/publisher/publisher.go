// Package publisher stamps and forwards audit events to the configured sink.
package publisher

import (
	"context"

	audit "origen/pkg/platform/audit"
	"origen/pkg/requestcontext"
)

// Publisher captures structured audit events. It is append-only and uses the
// audit store for persistence so tests can swap sinks easily.
type Publisher struct {
	store audit.Store
}

func New(store audit.Store) *Publisher {
	return &Publisher{store: store}
}

// Emit fills event defaults from the request context and appends it. When the
// calling service runs inside a transaction the tx-aware store writes the
// outbox row in the same transaction.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ActorType == "" {
		event.ActorType = string(requestcontext.Actor(ctx))
	}
	return p.store.Append(ctx, event)
}
