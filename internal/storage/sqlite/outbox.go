package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/cakepot/internal/models"
)

// EnqueueEvent writes a pending event to the outbox table.
// Called inside the same transaction as the ledger change that produced it.
func (s *SQLiteStore) EnqueueEvent(ctx context.Context, msg *models.OutboxMessage) error {
	if msg.EventID == "" {
		msg.EventID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	msg.UpdatedAt = msg.CreatedAt
	msg.Status = models.OutboxStatusPending

	res, err := s.q.ExecContext(ctx,
		`INSERT INTO outbox_messages (event_id, topic, message_key, payload, status, retry_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		msg.EventID, msg.Topic, msg.MessageKey, msg.Payload, msg.Status, toNanos(msg.CreatedAt), toNanos(msg.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox message: %w", err)
	}
	msg.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read outbox message id: %w", err)
	}
	return nil
}

// ListPendingEvents returns the oldest pending events, up to limit.
func (s *SQLiteStore) ListPendingEvents(ctx context.Context, limit int) ([]*models.OutboxMessage, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, event_id, topic, message_key, payload, status, retry_count, created_at, updated_at
		 FROM outbox_messages WHERE status = ? ORDER BY id LIMIT ?`,
		models.OutboxStatusPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending events: %w", err)
	}
	defer rows.Close()

	var msgs []*models.OutboxMessage
	for rows.Next() {
		msg := &models.OutboxMessage{}
		var createdAt, updatedAt int64
		if err := rows.Scan(&msg.ID, &msg.EventID, &msg.Topic, &msg.MessageKey, &msg.Payload,
			&msg.Status, &msg.RetryCount, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		msg.CreatedAt = fromNanos(createdAt)
		msg.UpdatedAt = fromNanos(updatedAt)
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// MarkEventSent marks an event as delivered.
func (s *SQLiteStore) MarkEventSent(ctx context.Context, id int64) error {
	_, err := s.q.ExecContext(ctx,
		"UPDATE outbox_messages SET status = ?, updated_at = ? WHERE id = ?",
		models.OutboxStatusSent, toNanos(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark event sent: %w", err)
	}
	return nil
}

// MarkEventRetry records a failed delivery attempt.
func (s *SQLiteStore) MarkEventRetry(ctx context.Context, id int64, failed bool) error {
	status := models.OutboxStatusPending
	if failed {
		status = models.OutboxStatusFailed
	}
	_, err := s.q.ExecContext(ctx,
		"UPDATE outbox_messages SET status = ?, retry_count = retry_count + 1, updated_at = ? WHERE id = ?",
		status, toNanos(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark event retry: %w", err)
	}
	return nil
}
