package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/mmynk/cakepot/internal/calculator"
	"github.com/mmynk/cakepot/internal/models"
	"github.com/mmynk/cakepot/internal/storage"
)

// CutResult reports what a cut applied.
type CutResult struct {
	// Pot is the pot state after the cut.
	Pot *models.Pot

	FirstBatchID int64
	LastBatchID  int64

	// PeriodsCharged is the number of interest periods applied.
	PeriodsCharged int64

	// Residue is the total rounding remainder forgiven across the applied batches.
	Residue *big.Int

	// Remaining is true when the batch cap left unapplied batches behind.
	Remaining bool
}

// Cut folds pending batches into balances, charges interest for elapsed
// billing periods and restarts the billing clock.
//
// A cut that would leave any balance wider than 256 bits fails with
// ErrBalanceOverflow and changes nothing.
func (l *Ledger) Cut(ctx context.Context, caller string, potID int64) (result *CutResult, err error) {
	defer l.track("cut")(&err)

	err = l.withPot(ctx, potID, func(ctx context.Context, q storage.Queries) error {
		pot, err := loadPot(ctx, q, potID)
		if err != nil {
			return err
		}
		if _, err := callerInPot(ctx, q, pot, caller); err != nil {
			return err
		}
		if !pot.HasPending() {
			return fmt.Errorf("%w: pot %d", ErrNothingToCut, potID)
		}

		batches, err := q.ListBatchesAfter(ctx, potID, pot.LastAppliedBatchID, l.cfg.MaxBatchesPerCut)
		if err != nil {
			return err
		}
		if len(batches) == 0 {
			return fmt.Errorf("failed to load pending batches for pot %d", potID)
		}

		result = &CutResult{
			Pot:          pot,
			FirstBatchID: batches[0].ID,
			Residue:      new(big.Int),
		}

		// Apply batches in order
		for _, batch := range batches {
			weights := batch.WeightsOverride
			if weights == nil {
				weights = pot.WeightsBps
			}
			payments := make([]calculator.Payment, len(batch.Payments))
			for i, p := range batch.Payments {
				payments[i] = calculator.Payment{MemberID: p.MemberID, Amount: p.Amount.ToBig()}
			}

			applied, err := calculator.ApplyBatch(pot.Balances, pot.MemberIDs, weights, payments)
			if err != nil {
				return fmt.Errorf("failed to apply batch %d: %w", batch.ID, err)
			}
			result.Residue.Add(result.Residue, applied.Residue)
			pot.LastAppliedBatchID = batch.ID
		}
		result.LastBatchID = pot.LastAppliedBatchID
		result.Remaining = pot.HasPending()
		if err := calculator.CheckBounds(pot.Balances); err != nil {
			return fmt.Errorf("%w: pot %d: %v", ErrBalanceOverflow, potID, err)
		}

		// Charge interest for elapsed periods, then restart the clock
		now := l.now()
		result.PeriodsCharged = calculator.PeriodsElapsed(pot.LastCutAt, pot.NextDueAt, pot.BillingPeriod, now)
		if err := calculator.ApplyInterest(pot.Balances, pot.InterestRateBps, result.PeriodsCharged); err != nil {
			return fmt.Errorf("%w: pot %d after %d periods: %v", ErrBalanceOverflow, potID, result.PeriodsCharged, err)
		}
		pot.LastCutAt = now
		pot.NextDueAt = now.Add(pot.BillingPeriod)

		if err := q.UpdatePot(ctx, pot); err != nil {
			return err
		}
		err = q.RecordCut(ctx, &models.Cut{
			PotID:          potID,
			FirstBatchID:   result.FirstBatchID,
			LastBatchID:    result.LastBatchID,
			PeriodsCharged: result.PeriodsCharged,
			Residue:        result.Residue,
			CutAt:          now,
		})
		if err != nil {
			return err
		}

		return l.emit(ctx, q, models.TopicPotCut, potID, potCutEvent{
			PotID:          potID,
			FirstBatchID:   result.FirstBatchID,
			LastBatchID:    result.LastBatchID,
			PeriodsCharged: result.PeriodsCharged,
			Balances:       balanceVector(pot),
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
