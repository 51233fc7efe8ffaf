package actor

import (
	"fmt"

	"github.com/chronoframe/chronos/cache"
	"github.com/chronoframe/chronos/history"
)

// WhenReceivedFromState is the derived reception-time function of §4.2
// applied to a single, already-resolved state: if state is absent the
// signal is never received; otherwise the reception time is WhenSent plus
// the propagation delay, saturating (never retreating to WhenSent or
// before — a zero or negative delay is impossible once the non-overflow
// check is applied, since Time.Add saturates forward only at EndOfTime).
func WhenReceivedFromState[S comparable](s Signal[S], state history.Option[S]) (t history.Time, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &SignalFault{SignalID: s.ID(), Cause: panicToError(r)}
		}
	}()

	if !state.Valid {
		return history.NeverReceived, nil
	}

	d := s.PropagationDelay(state.Value)
	when := s.WhenSent().Add(d)
	if when == history.EndOfTime || !when.After(s.WhenSent()) {
		return history.NeverReceived, nil
	}
	return when, nil
}

// WhenReceivedFromHistory is the derived reception-time function applied to
// a full state history: it walks forward across state-history segments
// looking for the earliest time a reception could actually happen, per
// §4.2's discontinuity-handling algorithm.
func WhenReceivedFromHistory[S comparable](s Signal[S], h *history.ValueHistory[S]) (t history.Time, err error) {
	probe := s.WhenSent().Add(history.OneUnit)

	for {
		if probe == history.NeverReceived {
			return history.NeverReceived, nil
		}

		segStart, segEnd, value := h.GetTimestamped(probe)

		candidate, err := WhenReceivedFromState(s, value)
		if err != nil {
			return 0, err
		}
		if candidate == history.NeverReceived {
			return history.NeverReceived, nil
		}

		switch {
		case candidate.Before(segStart):
			// A discontinuity: the computed reception time precedes the
			// segment we computed it against. The earliest time this
			// state could actually apply is the segment's own start.
			return segStart, nil
		case !candidate.After(segEnd):
			return candidate, nil
		default:
			if segEnd == history.EndOfTime {
				return history.NeverReceived, nil
			}
			probe = segEnd.Add(history.OneUnit)
		}
	}
}

// ReceiveAgainst computes the reception time against h and, if receivable,
// delegates to the signal's Receive primitive. It never mutates anything —
// Unreceivable is a normal result, not a caller-visible failure of any
// state.
func ReceiveAgainst[S comparable](s Signal[S], h *history.ValueHistory[S]) (event *Event[S], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &SignalFault{SignalID: s.ID(), Cause: panicToError(r)}
		}
	}()

	when, err := WhenReceivedFromHistory(s, h)
	if err != nil {
		return nil, err
	}
	if when == history.NeverReceived {
		return nil, ErrUnreceivableSignal
	}

	state := h.Get(when)
	if !state.Valid {
		// WhenReceivedFromHistory should never return a time at which the
		// state is absent; this would be an internal inconsistency.
		return nil, ErrEngineInvariantViolated
	}

	event, err = s.Receive(when, state.Value)
	if err != nil {
		return nil, &SignalFault{SignalID: s.ID(), Cause: err}
	}
	return event, nil
}

// ReceiveAgainstCached behaves exactly like ReceiveAgainst, except the
// WhenReceivedFromHistory computation is memoized in c under (s.ID(),
// version) — version must identify the exact state of h being computed
// against (the owning actor's commit version), or a stale hit is possible.
// A nil c disables memoization and this is equivalent to ReceiveAgainst.
func ReceiveAgainstCached[S comparable](s Signal[S], h *history.ValueHistory[S], c *cache.ReceptionCache, version uint64) (event *Event[S], err error) {
	if c == nil {
		return ReceiveAgainst(s, h)
	}

	defer func() {
		if r := recover(); r != nil {
			err = &SignalFault{SignalID: s.ID(), Cause: panicToError(r)}
		}
	}()

	when, err := c.GetOrCompute(s.ID(), version, func() (history.Time, error) {
		return WhenReceivedFromHistory(s, h)
	})
	if err != nil {
		return nil, err
	}
	if when == history.NeverReceived {
		return nil, ErrUnreceivableSignal
	}

	state := h.Get(when)
	if !state.Valid {
		return nil, ErrEngineInvariantViolated
	}

	event, err = s.Receive(when, state.Value)
	if err != nil {
		return nil, &SignalFault{SignalID: s.ID(), Cause: err}
	}
	return event, nil
}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
