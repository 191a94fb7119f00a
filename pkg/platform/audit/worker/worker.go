// Package worker drains the audit outbox into Kafka. Running it outside the
// request path keeps mutating transactions fast while guaranteeing every
// committed event eventually reaches the bus.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"origen/pkg/platform/audit/store/postgres"
)

// topicFor maps outbox categories to Kafka topics. Compliance events get
// their own topic so retention can differ from operational chatter.
var topicFor = map[string]string{
	"compliance": "origen.audit.compliance",
	"security":   "origen.audit.security",
	"operations": "origen.audit.operations",
}

// OutboxStore is the slice of the Postgres audit store the worker needs.
type OutboxStore interface {
	FetchUnpublished(ctx context.Context, limit int) ([]postgres.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// OutboxWorker polls the outbox and produces entries to Kafka.
type OutboxWorker struct {
	store     OutboxStore
	client    *kgo.Client
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// New constructs an outbox worker. A nil client disables publishing (rows
// stay unpublished), which keeps local development usable without Kafka.
func New(store OutboxStore, client *kgo.Client, logger *slog.Logger) *OutboxWorker {
	return &OutboxWorker{
		store:     store,
		client:    client,
		logger:    logger,
		interval:  time.Second,
		batchSize: 100,
	}
}

// NewClient dials Kafka with the settings this worker needs.
func NewClient(brokers []string) (*kgo.Client, error) {
	return kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
}

// Run polls until the context is cancelled. Errors are logged and retried on
// the next tick; the outbox keeps events durable in the meantime.
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drainOnce(ctx); err != nil {
				w.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

func (w *OutboxWorker) drainOnce(ctx context.Context) error {
	if w.client == nil {
		return nil
	}
	entries, err := w.store.FetchUnpublished(ctx, w.batchSize)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	published := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		topic, ok := topicFor[entry.Category]
		if !ok {
			topic = topicFor["operations"]
		}
		record := &kgo.Record{
			Topic: topic,
			Key:   []byte(entry.ID.String()),
			Value: entry.Payload,
		}
		if err := w.client.ProduceSync(ctx, record).FirstErr(); err != nil {
			// Stop the batch; unpublished rows are retried next tick.
			w.logger.WarnContext(ctx, "kafka produce failed",
				"topic", topic,
				"entry_id", entry.ID,
				"error", err,
			)
			break
		}
		published = append(published, entry.ID)
	}
	return w.store.MarkPublished(ctx, published)
}
