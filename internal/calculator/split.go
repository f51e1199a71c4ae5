package calculator

import (
	"fmt"
	"math/big"
)

// Payment is one payer entry of a batch, in the smallest unit of the pot's asset.
type Payment struct {
	MemberID int64
	Amount   *big.Int
}

// BatchResult summarizes the effect of applying one batch.
type BatchResult struct {
	// Total is the sum of all payments.
	Total *big.Int

	// Residue is Total minus the sum of all owed shares. Integer division
	// rounds every share down and the remainder is not redistributed.
	Residue *big.Int
}

// ApplyBatch folds one batch into balances.
//
// For every member: owed = total * weight / 10000 (rounded down) and
// balance += owed - paid, where paid accumulates all of the member's
// payments in the batch. balances must already contain every member id.
func ApplyBatch(balances map[int64]*big.Int, memberIDs []int64, weights map[int64]uint32, payments []Payment) (*BatchResult, error) {
	paid := make(map[int64]*big.Int, len(payments))
	total := new(big.Int)
	for _, p := range payments {
		if p.Amount.Sign() < 0 {
			return nil, fmt.Errorf("negative payment for member %d", p.MemberID)
		}
		if _, ok := balances[p.MemberID]; !ok {
			return nil, fmt.Errorf("payer %d is not a member", p.MemberID)
		}
		if _, ok := paid[p.MemberID]; !ok {
			paid[p.MemberID] = new(big.Int)
		}
		paid[p.MemberID].Add(paid[p.MemberID], p.Amount)
		total.Add(total, p.Amount)
	}

	owedSum := new(big.Int)
	denom := big.NewInt(BpsDenominator)
	for _, id := range memberIDs {
		bal, ok := balances[id]
		if !ok {
			return nil, fmt.Errorf("missing balance for member %d", id)
		}
		owed := new(big.Int).Mul(total, big.NewInt(int64(weights[id])))
		owed.Quo(owed, denom)
		owedSum.Add(owedSum, owed)

		bal.Add(bal, owed)
		if p, ok := paid[id]; ok {
			bal.Sub(bal, p)
		}
	}

	return &BatchResult{
		Total:   total,
		Residue: new(big.Int).Sub(total, owedSum),
	}, nil
}

// CheckBounds returns ErrOverflow if any balance exceeds MaxBalanceBits.
func CheckBounds(balances map[int64]*big.Int) error {
	for id, b := range balances {
		if b.BitLen() > MaxBalanceBits {
			return fmt.Errorf("%w: member %d needs %d bits", ErrOverflow, id, b.BitLen())
		}
	}
	return nil
}
