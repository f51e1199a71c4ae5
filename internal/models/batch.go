package models

import (
	"time"

	"github.com/holiman/uint256"
)

// Payment is one payer entry of a batch.
type Payment struct {
	MemberID int64
	Amount   *uint256.Int
}

// Batch is a pending expense entry ("ingredient") queued against a pot.
// Batches are immutable once created and are kept after being cut.
type Batch struct {
	// PotID is the pot the batch belongs to.
	PotID int64

	// ID is the pot-scoped batch number, starting at 1.
	ID int64

	// WeightsOverride replaces the pot's default weights for this batch only.
	// Nil means the pot's default weights are resolved when the batch is cut.
	WeightsOverride map[int64]uint32

	// Payments lists who paid what. A member may appear more than once.
	Payments []Payment

	// CreatedAt is when the batch was added.
	CreatedAt time.Time
}

// Total returns the sum of all payment amounts.
// The second result is true if the sum overflows 256 bits.
func (b *Batch) Total() (*uint256.Int, bool) {
	total := new(uint256.Int)
	for _, p := range b.Payments {
		if _, overflow := total.AddOverflow(total, p.Amount); overflow {
			return nil, true
		}
	}
	return total, false
}
