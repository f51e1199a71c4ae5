package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mmynk/cakepot/internal/models"
	"github.com/mmynk/cakepot/internal/money"
	"github.com/mmynk/cakepot/internal/storage"
)

// AppendBatch stores a batch and bumps the pot's batch counter.
func (s *SQLiteStore) AppendBatch(ctx context.Context, batch *models.Batch) error {
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now().UTC()
	}

	var count int64
	err := s.q.QueryRowContext(ctx, "SELECT batch_count FROM pots WHERE id = ?", batch.PotID).Scan(&count)
	if err == sql.ErrNoRows {
		return fmt.Errorf("pot %d: %w", batch.PotID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read batch count: %w", err)
	}
	batch.ID = count + 1

	// Weight overrides are stored as a JSON object keyed by member id
	var override any
	if batch.WeightsOverride != nil {
		data, err := json.Marshal(batch.WeightsOverride)
		if err != nil {
			return fmt.Errorf("failed to encode weights override: %w", err)
		}
		override = string(data)
	}

	_, err = s.q.ExecContext(ctx,
		"INSERT INTO batches (pot_id, id, weights_override, created_at) VALUES (?, ?, ?, ?)",
		batch.PotID, batch.ID, override, toNanos(batch.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}

	// Insert payments, preserving entry order
	for i, p := range batch.Payments {
		_, err := s.q.ExecContext(ctx,
			"INSERT INTO batch_payments (pot_id, batch_id, position, member_id, amount) VALUES (?, ?, ?, ?, ?)",
			batch.PotID, batch.ID, i, p.MemberID, money.UintString(p.Amount),
		)
		if err != nil {
			return fmt.Errorf("failed to insert batch payment: %w", err)
		}
	}

	if _, err := s.q.ExecContext(ctx, "UPDATE pots SET batch_count = ? WHERE id = ?", batch.ID, batch.PotID); err != nil {
		return fmt.Errorf("failed to update batch count: %w", err)
	}

	return nil
}

// GetBatch retrieves a single batch with its payments.
func (s *SQLiteStore) GetBatch(ctx context.Context, potID, batchID int64) (*models.Batch, error) {
	batches, err := s.queryBatches(ctx,
		"SELECT pot_id, id, weights_override, created_at FROM batches WHERE pot_id = ? AND id = ?",
		potID, batchID,
	)
	if err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		return nil, fmt.Errorf("batch %d/%d: %w", potID, batchID, storage.ErrNotFound)
	}
	return batches[0], nil
}

// ListBatchesAfter returns up to limit batches with ids greater than afterID.
func (s *SQLiteStore) ListBatchesAfter(ctx context.Context, potID, afterID int64, limit int) ([]*models.Batch, error) {
	return s.queryBatches(ctx,
		"SELECT pot_id, id, weights_override, created_at FROM batches WHERE pot_id = ? AND id > ? ORDER BY id LIMIT ?",
		potID, afterID, limit,
	)
}

func (s *SQLiteStore) queryBatches(ctx context.Context, query string, args ...any) ([]*models.Batch, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}

	var batches []*models.Batch
	for rows.Next() {
		batch := &models.Batch{}
		var (
			override  sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&batch.PotID, &batch.ID, &override, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batch.CreatedAt = fromNanos(createdAt)
		if override.Valid {
			if err := json.Unmarshal([]byte(override.String), &batch.WeightsOverride); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to decode weights override: %w", err)
			}
		}
		batches = append(batches, batch)
	}
	// Close before loading payments; the store runs on a single connection.
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate batches: %w", err)
	}

	for _, batch := range batches {
		if batch.Payments, err = s.getPayments(ctx, batch.PotID, batch.ID); err != nil {
			return nil, err
		}
	}
	return batches, nil
}

func (s *SQLiteStore) getPayments(ctx context.Context, potID, batchID int64) ([]models.Payment, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT member_id, amount FROM batch_payments WHERE pot_id = ? AND batch_id = ? ORDER BY position",
		potID, batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get batch payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var (
			p      models.Payment
			amount string
		)
		if err := rows.Scan(&p.MemberID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan batch payment: %w", err)
		}
		if p.Amount, err = parseUint(amount); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
