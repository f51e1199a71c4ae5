package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/cakepot/internal/models"
	"github.com/mmynk/cakepot/internal/money"
)

// CreateSettlement persists a new settlement to the database.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	// Generate ID if not set
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt.IsZero() {
		settlement.CreatedAt = time.Now().UTC()
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO settlements (id, pot_id, member_id, direction, asset, asset_amount, denomination_amount, refund, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.PotID, settlement.MemberID, string(settlement.Direction), settlement.Asset,
		money.UintString(settlement.AssetAmount), money.UintString(settlement.DenominationAmount),
		money.UintString(settlement.Refund), toNanos(settlement.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	return nil
}

// ListSettlementsByPot retrieves all settlements for a pot.
func (s *SQLiteStore) ListSettlementsByPot(ctx context.Context, potID int64) ([]*models.Settlement, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, pot_id, member_id, direction, asset, asset_amount, denomination_amount, refund, created_at
		 FROM settlements WHERE pot_id = ? ORDER BY created_at DESC, rowid DESC`,
		potID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by pot: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement := &models.Settlement{}
		var (
			direction                     string
			assetAmount, denomAmt, refund string
			createdAt                     int64
		)
		if err := rows.Scan(&settlement.ID, &settlement.PotID, &settlement.MemberID, &direction, &settlement.Asset,
			&assetAmount, &denomAmt, &refund, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlement.Direction = models.SettlementDirection(direction)
		settlement.CreatedAt = fromNanos(createdAt)
		if settlement.AssetAmount, err = parseUint(assetAmount); err != nil {
			return nil, err
		}
		if settlement.DenominationAmount, err = parseUint(denomAmt); err != nil {
			return nil, err
		}
		if settlement.Refund, err = parseUint(refund); err != nil {
			return nil, err
		}
		settlements = append(settlements, settlement)
	}

	return settlements, rows.Err()
}
