package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/holiman/uint256"

	"github.com/mmynk/cakepot/internal/calculator"
	"github.com/mmynk/cakepot/internal/models"
	"github.com/mmynk/cakepot/internal/storage"
)

// CreatePotParams describes a new pot.
type CreatePotParams struct {
	// DenominationAsset is the asset balances are kept in. Empty means models.NativeAsset.
	DenominationAsset string

	// MemberAccounts lists registered accounts in pot order.
	MemberAccounts []string

	// WeightsBps gives each member's share, aligned with MemberAccounts.
	WeightsBps []uint32

	InterestRateBps uint32
	BillingPeriod   time.Duration
}

// CreatePot validates params and creates an active pot with zero balances.
//
// Checks run in a fixed order: unregistered members, duplicates, member
// count, billing period, then weights.
func (l *Ledger) CreatePot(ctx context.Context, params CreatePotParams) (pot *models.Pot, err error) {
	defer l.track("create_pot")(&err)

	err = l.store.InTx(ctx, func(q storage.Queries) error {
		members := make([]*models.Member, 0, len(params.MemberAccounts))
		for _, account := range params.MemberAccounts {
			member, err := lookupMember(ctx, q, account)
			if err != nil {
				return err
			}
			members = append(members, member)
		}

		memberIDs := make([]int64, 0, len(members))
		seen := make(map[int64]bool, len(members))
		for _, member := range members {
			if seen[member.ID] {
				return fmt.Errorf("%w: %s", ErrDuplicateMember, member.Account)
			}
			seen[member.ID] = true
			memberIDs = append(memberIDs, member.ID)
		}

		if len(memberIDs) < 2 {
			return fmt.Errorf("%w: need at least 2 members, got %d", ErrInvalidMembers, len(memberIDs))
		}
		// Periods are stored with second resolution
		if params.BillingPeriod < time.Second {
			return fmt.Errorf("%w: %v", ErrInvalidBillingPeriod, params.BillingPeriod)
		}
		if err := calculator.ValidateWeights(params.WeightsBps, len(memberIDs)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidWeights, err)
		}

		now := l.now()
		period := params.BillingPeriod.Truncate(time.Second)
		pot = &models.Pot{
			DenominationAsset: normalizeAsset(params.DenominationAsset),
			MemberIDs:         memberIDs,
			WeightsBps:        calculator.WeightsByMember(memberIDs, params.WeightsBps),
			Balances:          make(map[int64]*big.Int, len(memberIDs)),
			InterestRateBps:   params.InterestRateBps,
			BillingPeriod:     period,
			LastCutAt:         now,
			NextDueAt:         now.Add(period),
			Liquidity:         new(uint256.Int),
			Active:            true,
			CreatedAt:         now,
		}
		for _, id := range memberIDs {
			pot.Balances[id] = new(big.Int)
		}

		if err := q.CreatePot(ctx, pot); err != nil {
			return err
		}

		return l.emit(ctx, q, models.TopicPotCreated, pot.ID, potCreatedEvent{
			PotID:             pot.ID,
			DenominationAsset: pot.DenominationAsset,
			MemberIDs:         pot.MemberIDs,
			WeightsBps:        params.WeightsBps,
			InterestRateBps:   pot.InterestRateBps,
			BillingPeriodSecs: int64(period / time.Second),
		})
	})
	if err != nil {
		return nil, err
	}
	return pot, nil
}

// GetPot returns the current state of a pot.
func (l *Ledger) GetPot(ctx context.Context, potID int64) (*models.Pot, error) {
	return loadPot(ctx, l.store, potID)
}

// GetBalance returns a member's signed balance in a pot.
func (l *Ledger) GetBalance(ctx context.Context, potID, memberID int64) (*big.Int, error) {
	pot, err := loadPot(ctx, l.store, potID)
	if err != nil {
		return nil, err
	}
	if !pot.IsMember(memberID) {
		return nil, fmt.Errorf("%w: member %d, pot %d", ErrNotMember, memberID, potID)
	}
	return pot.Balance(memberID), nil
}

// DeactivatePot closes a fully settled pot to new batches.
// Deactivating an inactive pot is a no-op.
func (l *Ledger) DeactivatePot(ctx context.Context, caller string, potID int64) (pot *models.Pot, err error) {
	defer l.track("deactivate_pot")(&err)

	err = l.withPot(ctx, potID, func(ctx context.Context, q storage.Queries) error {
		if pot, err = loadPot(ctx, q, potID); err != nil {
			return err
		}
		if _, err := callerInPot(ctx, q, pot, caller); err != nil {
			return err
		}
		if !pot.Active {
			return nil
		}

		if pot.HasPending() {
			return fmt.Errorf("%w: %d batches pending", ErrPotNotSettled, pot.BatchCount-pot.LastAppliedBatchID)
		}
		for _, id := range pot.MemberIDs {
			if pot.Balances[id].Sign() != 0 {
				return fmt.Errorf("%w: member %d has balance %s", ErrPotNotSettled, id, pot.Balances[id])
			}
		}

		pot.Active = false
		if err := q.UpdatePot(ctx, pot); err != nil {
			return err
		}
		return l.emit(ctx, q, models.TopicPotClosed, pot.ID, potDeactivatedEvent{PotID: pot.ID})
	})
	if err != nil {
		return nil, err
	}
	return pot, nil
}

func loadPot(ctx context.Context, q storage.Queries, potID int64) (*models.Pot, error) {
	pot, err := q.GetPot(ctx, potID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrPotDoesNotExist, potID)
	}
	return pot, err
}

// normalizeAsset maps the empty asset to the native sentinel.
func normalizeAsset(asset string) string {
	asset = strings.TrimSpace(asset)
	if asset == "" {
		return models.NativeAsset
	}
	return asset
}
