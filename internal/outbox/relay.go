package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/cakepot/internal/metrics"
	"github.com/mmynk/cakepot/internal/models"
	"github.com/mmynk/cakepot/internal/storage"
)

// Config tunes the relay loop.
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// DefaultConfig returns the default relay settings.
func DefaultConfig() Config {
	return Config{
		Interval:   time.Second,
		BatchSize:  100,
		MaxRetries: 5,
	}
}

// Relay polls the outbox and hands pending events to a Publisher.
//
// Delivery is at least once: an event is marked sent only after the
// publisher acknowledges it, so a crash in between republishes it.
type Relay struct {
	store     storage.OutboxStore
	publisher Publisher
	metrics   *metrics.LedgerMetrics
	cfg       Config
}

// NewRelay creates a relay. Zero config fields take their defaults.
func NewRelay(store storage.OutboxStore, publisher Publisher, m *metrics.LedgerMetrics, cfg Config) *Relay {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	return &Relay{store: store, publisher: publisher, metrics: m, cfg: cfg}
}

// Run processes the outbox every interval until ctx is done.
func (r *Relay) Run(ctx context.Context) {
	slog.Info("Outbox relay started", "interval", r.cfg.Interval, "batch_size", r.cfg.BatchSize)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox relay stopped")
			return
		case <-ticker.C:
			if _, err := r.ProcessOnce(ctx); err != nil {
				slog.Error("Failed to process outbox", "error", err)
			}
		}
	}
}

// ProcessOnce publishes one batch of pending events and returns how many
// were delivered.
func (r *Relay) ProcessOnce(ctx context.Context) (int, error) {
	msgs, err := r.store.ListPendingEvents(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, msg := range msgs {
		if r.deliver(ctx, msg) {
			sent++
		}
	}
	return sent, nil
}

func (r *Relay) deliver(ctx context.Context, msg *models.OutboxMessage) bool {
	if err := r.publisher.Publish(ctx, msg); err != nil {
		failed := msg.RetryCount+1 >= r.cfg.MaxRetries
		slog.Warn("Failed to publish event",
			"id", msg.ID,
			"topic", msg.Topic,
			"retry_count", msg.RetryCount+1,
			"failed", failed,
			"error", err,
		)
		if err := r.store.MarkEventRetry(ctx, msg.ID, failed); err != nil {
			slog.Error("Failed to record outbox retry", "id", msg.ID, "error", err)
		}
		if failed {
			r.metrics.ObserveOutbox(msg.Topic, "failed")
		} else {
			r.metrics.ObserveOutbox(msg.Topic, "retry")
		}
		return false
	}

	if err := r.store.MarkEventSent(ctx, msg.ID); err != nil {
		slog.Error("Failed to mark event sent", "id", msg.ID, "error", err)
		return false
	}
	r.metrics.ObserveOutbox(msg.Topic, "sent")
	slog.Debug("Event sent", "id", msg.ID, "topic", msg.Topic, "key", msg.MessageKey)
	return true
}
