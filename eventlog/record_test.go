package eventlog

import (
	"testing"

	"github.com/chronoframe/chronos/actor"
	"github.com/chronoframe/chronos/history"
)

// constSignal is the minimal Signal[int] needed to build an Event by hand
// for FromEvent's tests.
type constSignal struct {
	actor.BaseSignal[int]
}

func (s *constSignal) PropagationDelay(int) history.Duration { return 1 }
func (s *constSignal) Receive(when history.Time, state int) (*actor.Event[int], error) {
	return nil, nil
}
func (s *constSignal) TieBreakCompare(other actor.Signal[int]) int {
	return actor.CompareIDs(s.ID(), other.ID())
}

func TestFromEventCapturesActorsAndSignal(t *testing.T) {
	receiver := actor.NewActor[int](0, history.Some(0))
	sig := &constSignal{BaseSignal: actor.NewBaseSignal[int](nil, receiver, 0)}
	child := actor.NewActor[int](5, history.Some(1))
	state := 3

	event := &actor.Event[int]{
		CausingSignal:  sig,
		When:           5,
		AffectedObject: receiver,
		State:          &state,
		CreatedActors:  []*actor.Actor[int]{child},
	}

	rec := FromEvent(event)

	if rec.ActorID != receiver.Identity().String() {
		t.Errorf("ActorID = %q, want %q", rec.ActorID, receiver.Identity().String())
	}
	if rec.SignalID != sig.ID().String() {
		t.Errorf("SignalID = %q, want %q", rec.SignalID, sig.ID().String())
	}
	if rec.When != 5 {
		t.Errorf("When = %d, want 5", rec.When)
	}
	if len(rec.CreatedActors) != 1 || rec.CreatedActors[0] != child.Identity().String() {
		t.Errorf("CreatedActors = %+v, want [%s]", rec.CreatedActors, child.Identity().String())
	}
}

func TestFromEventNoCreatedActors(t *testing.T) {
	receiver := actor.NewActor[int](0, history.Some(0))
	sig := &constSignal{BaseSignal: actor.NewBaseSignal[int](nil, receiver, 0)}
	state := 0

	event := &actor.Event[int]{
		CausingSignal:  sig,
		When:           1,
		AffectedObject: receiver,
		State:          &state,
	}

	rec := FromEvent(event)
	if len(rec.CreatedActors) != 0 {
		t.Errorf("expected no created actors, got %+v", rec.CreatedActors)
	}
}
