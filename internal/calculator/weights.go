package calculator

import (
	"errors"
	"fmt"
)

// BpsDenominator is the basis-point value of one whole.
const BpsDenominator = 10_000

var (
	ErrWeightsLength = errors.New("weights length does not match member count")
	ErrWeightsSum    = errors.New("weights must sum to 10000 bps")
)

// ValidateWeights checks that weights has one entry per member and that the
// entries sum to exactly BpsDenominator.
func ValidateWeights(weights []uint32, memberCount int) error {
	if len(weights) != memberCount {
		return fmt.Errorf("%w: got %d, want %d", ErrWeightsLength, len(weights), memberCount)
	}
	var sum uint64
	for _, w := range weights {
		sum += uint64(w)
	}
	if sum != BpsDenominator {
		return fmt.Errorf("%w: got %d", ErrWeightsSum, sum)
	}
	return nil
}

// WeightsByMember zips an ordered weight list with the matching member ids.
// Callers validate lengths first.
func WeightsByMember(memberIDs []int64, weights []uint32) map[int64]uint32 {
	out := make(map[int64]uint32, len(memberIDs))
	for i, id := range memberIDs {
		out[id] = weights[i]
	}
	return out
}

// OrderedWeights returns the weights in memberIDs order.
func OrderedWeights(memberIDs []int64, weights map[int64]uint32) []uint32 {
	out := make([]uint32, len(memberIDs))
	for i, id := range memberIDs {
		out[i] = weights[id]
	}
	return out
}
