package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/mmynk/cakepot/internal/calculator"
	"github.com/mmynk/cakepot/internal/models"
	"github.com/mmynk/cakepot/internal/money"
	"github.com/mmynk/cakepot/internal/storage"
)

// AddBatchParams describes a batch of payments.
type AddBatchParams struct {
	// WeightsOverride, if non-nil, replaces the pot's weights for this batch.
	// It is aligned with the pot's member order.
	WeightsOverride []uint32

	// Payers and Amounts are parallel lists. A payer may repeat.
	Payers  []int64
	Amounts []*uint256.Int
}

// AddBatch queues a batch against a pot. Balances do not change until the
// batch is cut.
func (l *Ledger) AddBatch(ctx context.Context, caller string, potID int64, params AddBatchParams) (batch *models.Batch, err error) {
	defer l.track("add_batch")(&err)

	err = l.withPot(ctx, potID, func(ctx context.Context, q storage.Queries) error {
		pot, err := loadPot(ctx, q, potID)
		if err != nil {
			return err
		}
		if !pot.Active {
			return fmt.Errorf("%w: %d", ErrPotInactive, potID)
		}
		if _, err := callerInPot(ctx, q, pot, caller); err != nil {
			return err
		}

		if len(params.Payers) == 0 || len(params.Payers) != len(params.Amounts) {
			return fmt.Errorf("%w: %d payers, %d amounts", ErrInvalidMembers, len(params.Payers), len(params.Amounts))
		}

		batch = &models.Batch{PotID: potID, CreatedAt: l.now()}
		for i, payer := range params.Payers {
			if !pot.IsMember(payer) {
				return fmt.Errorf("%w: payer %d", ErrNotMember, payer)
			}
			if params.Amounts[i] == nil {
				return fmt.Errorf("%w: missing amount for payer %d", ErrInvalidAmount, payer)
			}
			batch.Payments = append(batch.Payments, models.Payment{
				MemberID: payer,
				Amount:   new(uint256.Int).Set(params.Amounts[i]),
			})
		}

		if params.WeightsOverride != nil {
			if err := calculator.ValidateWeights(params.WeightsOverride, len(pot.MemberIDs)); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidWeights, err)
			}
			batch.WeightsOverride = calculator.WeightsByMember(pot.MemberIDs, params.WeightsOverride)
		}

		total, overflow := batch.Total()
		if overflow {
			return fmt.Errorf("%w: batch total overflows", ErrInvalidAmount)
		}

		if err := q.AppendBatch(ctx, batch); err != nil {
			return err
		}
		return l.emit(ctx, q, models.TopicBatchAdded, potID, batchAddedEvent{
			PotID:   potID,
			BatchID: batch.ID,
			Total:   money.UintString(total),
		})
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// GetBatch returns a batch by pot-scoped id.
func (l *Ledger) GetBatch(ctx context.Context, potID, batchID int64) (*models.Batch, error) {
	if _, err := loadPot(ctx, l.store, potID); err != nil {
		return nil, err
	}
	batch, err := l.store.GetBatch(ctx, potID, batchID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: pot %d, batch %d", ErrBatchDoesNotExist, potID, batchID)
	}
	return batch, err
}
