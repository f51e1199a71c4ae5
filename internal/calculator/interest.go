package calculator

import (
	"errors"
	"fmt"
	"math/big"
	"time"
)

// MaxBalanceBits is the widest magnitude a balance may have. Settlement
// moves balances through 256-bit unsigned amounts.
const MaxBalanceBits = 256

const (
	// exactPeriods is the largest period count compounded as an exact
	// fraction. Past it the fraction grows by ~13 bits per period.
	exactPeriods = 256

	// fixedPointBits is the fractional precision of the multiplier used
	// beyond exactPeriods.
	fixedPointBits = 320
)

// ErrOverflow is returned when a balance would exceed MaxBalanceBits.
var ErrOverflow = errors.New("balance exceeds 256 bits")

// PeriodsElapsed returns how many billing periods of interest a cut at now
// must charge.
//
// It is floor((now - lastCut) / period), but at least 1 once now has reached
// nextDue. Before the due date nothing is charged.
func PeriodsElapsed(lastCut, nextDue time.Time, period time.Duration, now time.Time) int64 {
	if period <= 0 || now.Before(nextDue) {
		return 0
	}
	periods := int64(now.Sub(lastCut) / period)
	if periods < 1 {
		periods = 1
	}
	return periods
}

// ApplyInterest compounds every balance by (1 + rateBps/10000)^periods.
//
// Debts and credits both move away from zero. The result is truncated
// toward zero, so positive and negative balances round symmetrically.
// If any result would exceed MaxBalanceBits, ApplyInterest returns
// ErrOverflow and leaves balances untouched.
func ApplyInterest(balances map[int64]*big.Int, rateBps uint32, periods int64) error {
	if rateBps == 0 || periods <= 0 || allZero(balances) {
		return nil
	}

	num, den, err := interestFactor(rateBps, periods)
	if err != nil {
		return err
	}

	scaled := make(map[int64]*big.Int, len(balances))
	for id, bal := range balances {
		if bal.Sign() == 0 {
			continue
		}
		v := new(big.Int).Mul(bal, num)
		v.Quo(v, den)
		if v.BitLen() > MaxBalanceBits {
			return fmt.Errorf("%w: member %d would need %d bits", ErrOverflow, id, v.BitLen())
		}
		scaled[id] = v
	}
	for id, v := range scaled {
		balances[id].Set(v)
	}
	return nil
}

// interestFactor returns the compounding multiplier as num/den.
//
// Up to exactPeriods the fraction is exact. Beyond that it is a fixed-point
// value rounded down at every step, which keeps the cost at O(log periods).
// Either way it fails with ErrOverflow as soon as the multiplier alone
// reaches 2^256, since any non-zero balance would then overflow.
func interestFactor(rateBps uint32, periods int64) (num, den *big.Int, err error) {
	base := big.NewInt(BpsDenominator + int64(rateBps))
	if periods <= exactPeriods {
		exp := big.NewInt(periods)
		num = new(big.Int).Exp(base, exp, nil)
		den = new(big.Int).Exp(big.NewInt(BpsDenominator), exp, nil)
		if num.BitLen()-den.BitLen() > MaxBalanceBits {
			return nil, nil, fmt.Errorf("%w: multiplier over %d periods", ErrOverflow, periods)
		}
		return num, den, nil
	}

	one := new(big.Int).Lsh(big.NewInt(1), fixedPointBits)
	limit := new(big.Int).Lsh(one, MaxBalanceBits)

	x := new(big.Int).Lsh(base, fixedPointBits)
	x.Quo(x, big.NewInt(BpsDenominator))
	z := new(big.Int).Set(one)
	for n := periods; ; {
		if n&1 == 1 {
			z.Rsh(z.Mul(z, x), fixedPointBits)
			if z.Cmp(limit) >= 0 {
				return nil, nil, fmt.Errorf("%w: multiplier over %d periods", ErrOverflow, periods)
			}
		}
		n >>= 1
		if n == 0 {
			break
		}
		// x only grows and one of the remaining bits will fold it into z
		x.Rsh(x.Mul(x, x), fixedPointBits)
		if x.Cmp(limit) >= 0 {
			return nil, nil, fmt.Errorf("%w: multiplier over %d periods", ErrOverflow, periods)
		}
	}
	return z, one, nil
}

func allZero(balances map[int64]*big.Int) bool {
	for _, b := range balances {
		if b.Sign() != 0 {
			return false
		}
	}
	return true
}
