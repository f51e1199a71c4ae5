package models

import (
	"math/big"
	"time"

	"github.com/holiman/uint256"
)

// NativeAsset is the sentinel asset identifier for the chain-native asset.
const NativeAsset = "native"

// Pot represents a shared expense ledger ("cake").
//
// Membership and weights are fixed at creation. Balances change only through
// cuts and settlements.
type Pot struct {
	// ID is the pot identifier, allocated sequentially from 1.
	ID int64

	// DenominationAsset is the asset every balance is expressed in.
	// NativeAsset means the chain-native asset.
	DenominationAsset string

	// MemberIDs lists the members in creation order.
	MemberIDs []int64

	// WeightsBps maps each member to their default ownership weight.
	// The weights sum to exactly 10000 bps.
	WeightsBps map[int64]uint32

	// Balances maps each member to their signed balance.
	// Negative values are debts, positive values are credits.
	Balances map[int64]*big.Int

	// InterestRateBps is the per-period interest rate applied to unsettled balances.
	InterestRateBps uint32

	// BillingPeriod is the length of one interest period.
	BillingPeriod time.Duration

	// LastCutAt is when the pot was last cut (or created).
	LastCutAt time.Time

	// NextDueAt is LastCutAt + BillingPeriod.
	NextDueAt time.Time

	// LastAppliedBatchID is the highest batch id already folded into Balances.
	LastAppliedBatchID int64

	// BatchCount is the number of batches ever added to the pot.
	BatchCount int64

	// Liquidity is the amount of DenominationAsset held by the pot from payments.
	Liquidity *uint256.Int

	// Active is false once the pot has been deactivated.
	Active bool

	// CreatedAt is when the pot was created.
	CreatedAt time.Time
}

// IsMember reports whether memberID belongs to the pot.
func (p *Pot) IsMember(memberID int64) bool {
	_, ok := p.WeightsBps[memberID]
	return ok
}

// Balance returns a copy of the member's balance, or zero for non-members.
func (p *Pot) Balance(memberID int64) *big.Int {
	if b, ok := p.Balances[memberID]; ok && b != nil {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// HasPending reports whether batches remain that have not been cut.
func (p *Pot) HasPending() bool {
	return p.BatchCount > p.LastAppliedBatchID
}
