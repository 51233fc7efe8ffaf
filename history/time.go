// Package history implements ValueHistory, a total function from Time to an
// optional value with finitely many changes. It is the leaf-most component
// of the simulation core: actors and signals both consult it, but it knows
// nothing about either.
package history

import (
	"math"

	"github.com/holiman/uint256"
)

// Time is a signed duration from an implied epoch. Arithmetic on Time
// saturates at StartOfTime and EndOfTime rather than wrapping.
type Time int64

// Duration is the span between two Time values, or a propagation delay.
type Duration int64

const (
	// StartOfTime is the most negative representable Time.
	StartOfTime Time = math.MinInt64

	// EndOfTime is the most positive representable Time, and doubles as the
	// NeverReceived sentinel used throughout the signal/event subsystem.
	EndOfTime Time = math.MaxInt64

	// NeverReceived marks a signal's reception time as unreachable under
	// the receiver's current (or any future) state history.
	NeverReceived Time = EndOfTime

	// OneUnit is the smallest positive Duration, used to step across a
	// discontinuity or to build a restoring transition one unit after a
	// window's end.
	OneUnit Duration = 1
)

// Before, After and Equal give Time a total order without exposing the
// underlying representation to callers that shouldn't rely on it.
func (t Time) Before(u Time) bool { return t < u }
func (t Time) After(u Time) bool  { return t > u }
func (t Time) Equal(u Time) bool  { return t == u }

// Add returns t+d, saturating at StartOfTime/EndOfTime instead of
// overflowing. The overflow check is done in 256-bit arithmetic (the same
// technique the teacher corpus uses for safe numeric evaluation elsewhere)
// so the saturation boundary is exact regardless of the sign or magnitude of
// either operand.
func (t Time) Add(d Duration) Time {
	if t == StartOfTime || t == EndOfTime {
		// Sentinels absorb any further arithmetic: a destroyed/unreachable
		// actor stays destroyed/unreachable no matter what is added.
		return t
	}

	sum, overflow := addSigned256(int64(t), int64(d))
	if overflow {
		if d > 0 {
			return EndOfTime
		}
		return StartOfTime
	}
	if sum > int64(EndOfTime) {
		return EndOfTime
	}
	if sum < int64(StartOfTime) {
		return StartOfTime
	}
	return Time(sum)
}

// Sub returns the saturating difference t-u as a Duration.
func (t Time) Sub(u Time) Duration {
	if t == EndOfTime && u != EndOfTime {
		return Duration(math.MaxInt64)
	}
	if t == StartOfTime && u != StartOfTime {
		return Duration(math.MinInt64)
	}
	diff, overflow := addSigned256(int64(t), -int64(u))
	if overflow {
		if int64(t) > int64(u) {
			return Duration(math.MaxInt64)
		}
		return Duration(math.MinInt64)
	}
	return Duration(diff)
}

// wideFromInt64 promotes a signed int64 into the 256-bit unsigned space
// uint256 operates in, encoding a negative value as its 256-bit two's
// complement so that modular addition of two encoded values yields the
// two's-complement encoding of their exact sum.
func wideFromInt64(v int64) *uint256.Int {
	u := new(uint256.Int)
	if v >= 0 {
		u.SetUint64(uint64(v))
	} else {
		u.SetUint64(uint64(-v))
		u.Neg(u)
	}
	return u
}

// addSigned256 adds two int64 values using uint256 intermediate arithmetic
// so overflow is detected precisely (rather than relying on undefined or
// implementation-specific int64 wraparound), returning the result truncated
// back to int64 plus whether it overflowed int64's range.
func addSigned256(a, b int64) (int64, bool) {
	wa := wideFromInt64(a)
	wb := wideFromInt64(b)
	sum := new(uint256.Int).Add(wa, wb)

	// Decode the two's-complement sum: a negative sum is the negation of
	// its 256-bit negation. Overflow happened if the exact sum doesn't fit
	// back into an int64.
	back := sum.ToBig()
	if sum.Sign() < 0 {
		back = new(uint256.Int).Neg(sum).ToBig()
		back.Neg(back)
	}
	if !back.IsInt64() {
		return 0, true
	}
	result := back.Int64()

	if a > 0 && b > 0 && result <= 0 {
		return 0, true
	}
	if a < 0 && b < 0 && result >= 0 {
		return 0, true
	}
	return result, false
}
