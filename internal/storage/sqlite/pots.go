package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/holiman/uint256"

	"github.com/mmynk/cakepot/internal/models"
	"github.com/mmynk/cakepot/internal/money"
	"github.com/mmynk/cakepot/internal/storage"
)

// CreatePot persists a new pot along with its membership rows.
func (s *SQLiteStore) CreatePot(ctx context.Context, pot *models.Pot) error {
	if pot.CreatedAt.IsZero() {
		pot.CreatedAt = time.Now().UTC()
	}

	res, err := s.q.ExecContext(ctx,
		`INSERT INTO pots (denomination_asset, interest_rate_bps, billing_period_seconds, last_cut_at,
		                   next_due_at, last_applied_batch_id, batch_count, liquidity, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pot.DenominationAsset, pot.InterestRateBps, int64(pot.BillingPeriod/time.Second),
		toNanos(pot.LastCutAt), toNanos(pot.NextDueAt), pot.LastAppliedBatchID, pot.BatchCount,
		money.UintString(pot.Liquidity), pot.Active, toNanos(pot.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert pot: %w", err)
	}
	pot.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read pot id: %w", err)
	}

	// Insert membership in creation order
	for i, memberID := range pot.MemberIDs {
		_, err := s.q.ExecContext(ctx,
			`INSERT INTO pot_members (pot_id, member_id, position, weight_bps, balance) VALUES (?, ?, ?, ?, ?)`,
			pot.ID, memberID, i, pot.WeightsBps[memberID], money.BigString(pot.Balances[memberID]),
		)
		if err != nil {
			return fmt.Errorf("failed to insert pot member: %w", err)
		}
	}

	return nil
}

// GetPot retrieves a pot with its members, weights and balances.
func (s *SQLiteStore) GetPot(ctx context.Context, id int64) (*models.Pot, error) {
	pot := &models.Pot{}
	var (
		periodSeconds                   int64
		lastCutAt, nextDueAt, createdAt int64
		liquidity                       string
	)

	err := s.q.QueryRowContext(ctx,
		`SELECT id, denomination_asset, interest_rate_bps, billing_period_seconds, last_cut_at, next_due_at,
		        last_applied_batch_id, batch_count, liquidity, active, created_at
		 FROM pots WHERE id = ?`,
		id,
	).Scan(&pot.ID, &pot.DenominationAsset, &pot.InterestRateBps, &periodSeconds, &lastCutAt, &nextDueAt,
		&pot.LastAppliedBatchID, &pot.BatchCount, &liquidity, &pot.Active, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("pot %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pot: %w", err)
	}

	pot.BillingPeriod = time.Duration(periodSeconds) * time.Second
	pot.LastCutAt = fromNanos(lastCutAt)
	pot.NextDueAt = fromNanos(nextDueAt)
	pot.CreatedAt = fromNanos(createdAt)
	if pot.Liquidity, err = money.ParseBaseUnits(liquidity); err != nil {
		return nil, fmt.Errorf("failed to parse pot liquidity: %w", err)
	}

	// Get members
	rows, err := s.q.QueryContext(ctx,
		"SELECT member_id, weight_bps, balance FROM pot_members WHERE pot_id = ? ORDER BY position",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get pot members: %w", err)
	}
	defer rows.Close()

	pot.WeightsBps = make(map[int64]uint32)
	pot.Balances = make(map[int64]*big.Int)
	for rows.Next() {
		var (
			memberID int64
			weight   uint32
			balance  string
		)
		if err := rows.Scan(&memberID, &weight, &balance); err != nil {
			return nil, fmt.Errorf("failed to scan pot member: %w", err)
		}
		b, err := money.ParseSigned(balance)
		if err != nil {
			return nil, fmt.Errorf("failed to parse balance: %w", err)
		}
		pot.MemberIDs = append(pot.MemberIDs, memberID)
		pot.WeightsBps[memberID] = weight
		pot.Balances[memberID] = b
	}

	return pot, rows.Err()
}

// UpdatePot writes back the mutable state of a pot.
func (s *SQLiteStore) UpdatePot(ctx context.Context, pot *models.Pot) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE pots SET last_cut_at = ?, next_due_at = ?, last_applied_batch_id = ?, liquidity = ?, active = ?
		 WHERE id = ?`,
		toNanos(pot.LastCutAt), toNanos(pot.NextDueAt), pot.LastAppliedBatchID,
		money.UintString(pot.Liquidity), pot.Active, pot.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update pot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("pot %d: %w", pot.ID, storage.ErrNotFound)
	}

	for _, memberID := range pot.MemberIDs {
		_, err := s.q.ExecContext(ctx,
			"UPDATE pot_members SET balance = ? WHERE pot_id = ? AND member_id = ?",
			money.BigString(pot.Balances[memberID]), pot.ID, memberID,
		)
		if err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}
	}

	return nil
}

// ListPotIDsByMember returns the ids of all pots that include the member.
func (s *SQLiteStore) ListPotIDsByMember(ctx context.Context, memberID int64) ([]int64, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT pot_id FROM pot_members WHERE member_id = ? ORDER BY pot_id",
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pots by member: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan pot id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RecordCut appends a cut to the audit log.
func (s *SQLiteStore) RecordCut(ctx context.Context, cut *models.Cut) error {
	residue := cut.Residue
	if residue == nil {
		residue = new(big.Int)
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO cuts (pot_id, first_batch_id, last_batch_id, periods_charged, residue, cut_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		cut.PotID, cut.FirstBatchID, cut.LastBatchID, cut.PeriodsCharged, residue.String(), toNanos(cut.CutAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert cut: %w", err)
	}
	return nil
}

// parseUint is a convenience for scanning TEXT amount columns.
func parseUint(s string) (*uint256.Int, error) {
	v, err := money.ParseBaseUnits(s)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	return v, nil
}
