package main

import (
	"github.com/chronoframe/chronos/actor"
	"github.com/chronoframe/chronos/history"
)

// relaySignal is the demo's one concrete Signal[int]: it adds delta to the
// receiver's integer state after delay, then forwards an identical
// increment to the next actor in chain, if any — used to build a chain of
// actors that relay a pulse down the line one hop per reception.
type relaySignal struct {
	actor.BaseSignal[int]
	delta int
	delay history.Duration
	chain []*actor.Actor[int]
	hop   int
}

func newRelaySignal(sender *actor.Actor[int], chain []*actor.Actor[int], hop int, whenSent history.Time, delta int, delay history.Duration) *relaySignal {
	return &relaySignal{
		BaseSignal: actor.NewBaseSignal(sender, chain[hop], whenSent),
		delta:      delta,
		delay:      delay,
		chain:      chain,
		hop:        hop,
	}
}

func (s *relaySignal) PropagationDelay(int) history.Duration { return s.delay }

func (s *relaySignal) Receive(when history.Time, state int) (*actor.Event[int], error) {
	next := state + s.delta
	event := &actor.Event[int]{
		CausingSignal:  s,
		When:           when,
		AffectedObject: s.Receiver(),
		State:          &next,
	}
	if s.hop+1 < len(s.chain) {
		event.SignalsEmitted = []actor.Signal[int]{
			newRelaySignal(s.Receiver(), s.chain, s.hop+1, when, s.delta, s.delay),
		}
	}
	return event, nil
}

func (s *relaySignal) TieBreakCompare(other actor.Signal[int]) int {
	return actor.CompareIDs(s.ID(), other.ID())
}
