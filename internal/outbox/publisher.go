// Package outbox relays events committed to the outbox table to a message
// transport.
package outbox

import (
	"context"
	"log/slog"

	"github.com/mmynk/cakepot/internal/models"
)

// Publisher delivers one outbox event. A nil error means the transport
// acknowledged the event.
type Publisher interface {
	Publish(ctx context.Context, msg *models.OutboxMessage) error
	Close() error
}

// LogPublisher writes events to the structured log. It is used when no
// broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher. A nil logger means slog.Default().
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

// Publish implements Publisher.
func (p *LogPublisher) Publish(ctx context.Context, msg *models.OutboxMessage) error {
	p.logger.InfoContext(ctx, "Event published",
		"event_id", msg.EventID,
		"topic", msg.Topic,
		"key", msg.MessageKey,
		"payload", msg.Payload,
	)
	return nil
}

// Close implements Publisher.
func (p *LogPublisher) Close() error {
	return nil
}
