package models

import (
	"math/big"
	"time"
)

// Cut records one cut of a pot for auditing.
type Cut struct {
	PotID        int64
	FirstBatchID int64
	LastBatchID  int64

	// PeriodsCharged is the number of interest periods applied (0 if none).
	PeriodsCharged int64

	// Residue is the rounding remainder forgiven across the applied batches.
	Residue *big.Int

	CutAt time.Time
}
