package history

import "errors"

var (
	// ErrOutOfOrderTransition is returned by AppendTransition when the
	// given time is not strictly after the last recorded transition.
	ErrOutOfOrderTransition = errors.New("history: transition out of order")

	// ErrRedundantTransition is returned by AppendTransition when the given
	// value equals the value already in effect (no-op transitions are not
	// representable — they would break the no-adjacent-equal-values
	// invariant).
	ErrRedundantTransition = errors.New("history: redundant transition")
)
