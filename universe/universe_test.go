package universe

import (
	"context"
	"testing"
	"time"

	"github.com/chronoframe/chronos/actor"
	"github.com/chronoframe/chronos/history"
)

// incSignal is the minimal Signal[int] used across these tests: adds delta
// to the receiver's state after delay, optionally forwarding an identical
// increment to a second actor.
type incSignal struct {
	actor.BaseSignal[int]
	delta   int
	delay   history.Duration
	forward *actor.Actor[int]
}

func newIncSignal(sender, receiver *actor.Actor[int], whenSent history.Time, delta int, delay history.Duration) *incSignal {
	return &incSignal{
		BaseSignal: actor.NewBaseSignal(sender, receiver, whenSent),
		delta:      delta,
		delay:      delay,
	}
}

func (s *incSignal) PropagationDelay(int) history.Duration { return s.delay }

func (s *incSignal) Receive(when history.Time, state int) (*actor.Event[int], error) {
	next := state + s.delta
	event := &actor.Event[int]{
		CausingSignal:  s,
		When:           when,
		AffectedObject: s.Receiver(),
		State:          &next,
	}
	if s.forward != nil {
		event.SignalsEmitted = []actor.Signal[int]{
			newIncSignal(s.Receiver(), s.forward, when, s.delta, 1),
		}
	}
	return event, nil
}

func (s *incSignal) TieBreakCompare(other actor.Signal[int]) int {
	return actor.CompareIDs(s.ID(), other.ID())
}

// spawnOnce fires exactly once and brings a new actor into being.
type spawnOnce struct {
	actor.BaseSignal[int]
}

func (s *spawnOnce) PropagationDelay(int) history.Duration { return 1 }

func (s *spawnOnce) Receive(when history.Time, state int) (*actor.Event[int], error) {
	child := actor.NewActor[int](when, history.Some(0))
	next := state + 1
	return &actor.Event[int]{
		CausingSignal:  s,
		When:           when,
		AffectedObject: s.Receiver(),
		State:          &next,
		CreatedActors:  []*actor.Actor[int]{child},
	}, nil
}

func (s *spawnOnce) TieBreakCompare(other actor.Signal[int]) int {
	return actor.CompareIDs(s.ID(), other.ID())
}

// inlineExecutor runs every task on its own goroutine immediately — the
// simplest Executor that still satisfies "Submit must not run the task
// synchronously on the calling goroutine."
type inlineExecutor struct{}

func (inlineExecutor) Submit(_ context.Context, task func()) error {
	go task()
	return nil
}

func waitFor(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for AdvanceTo to quiesce")
		return nil
	}
}

func TestAdvanceToWithNoActorsResolvesImmediately(t *testing.T) {
	u := New[int]()
	err := waitFor(t, u.AdvanceTo(context.Background(), history.Time(100), inlineExecutor{}))
	if err != nil {
		t.Fatalf("AdvanceTo: %v", err)
	}
}

func TestAdvanceToProcessesSingleActor(t *testing.T) {
	u := New[int]()
	a := actor.NewActor[int](0, history.Some(0))
	sig := newIncSignal(nil, a, 0, 10, 5)
	if err := a.AddSignalToReceive(sig); err != nil {
		t.Fatalf("AddSignalToReceive: %v", err)
	}
	u.Add(a)

	if err := waitFor(t, u.AdvanceTo(context.Background(), history.Time(100), inlineExecutor{})); err != nil {
		t.Fatalf("AdvanceTo: %v", err)
	}

	if v := a.GetStateHistory().LastValue(); !v.Equal(history.Some(10)) {
		t.Errorf("state = %+v, want Some(10)", v)
	}
}

func TestAdvanceToRoutesEmittedSignalAcrossActors(t *testing.T) {
	u := New[int]()
	first := actor.NewActor[int](0, history.Some(0))
	second := actor.NewActor[int](0, history.Some(0))
	u.Add(first)
	u.Add(second)

	sig := newIncSignal(nil, first, 0, 5, 1)
	sig.forward = second
	if err := first.AddSignalToReceive(sig); err != nil {
		t.Fatalf("AddSignalToReceive: %v", err)
	}

	if err := waitFor(t, u.AdvanceTo(context.Background(), history.Time(1000), inlineExecutor{})); err != nil {
		t.Fatalf("AdvanceTo: %v", err)
	}

	if v := first.GetStateHistory().LastValue(); !v.Equal(history.Some(5)) {
		t.Errorf("first state = %+v, want Some(5)", v)
	}
	if v := second.GetStateHistory().LastValue(); !v.Equal(history.Some(5)) {
		t.Errorf("second state = %+v, want Some(5) (routed from first's emission)", v)
	}
}

func TestAdvanceToRegistersCreatedActorsBeforeSchedulingThem(t *testing.T) {
	u := New[int]()
	parent := actor.NewActor[int](0, history.Some(0))
	u.Add(parent)

	sig := &spawnOnce{BaseSignal: actor.NewBaseSignal[int](nil, parent, 0)}
	if err := parent.AddSignalToReceive(sig); err != nil {
		t.Fatalf("AddSignalToReceive: %v", err)
	}

	if err := waitFor(t, u.AdvanceTo(context.Background(), history.Time(1000), inlineExecutor{})); err != nil {
		t.Fatalf("AdvanceTo: %v", err)
	}

	events := parent.GetEvents()
	if len(events) != 1 || len(events[0].CreatedActors) != 1 {
		t.Fatalf("expected one created actor, got events=%+v", events)
	}
	child := events[0].CreatedActors[0]

	if _, ok := u.Get(child.Identity()); !ok {
		t.Error("expected the universe to have registered the created actor")
	}
}

func TestAdvanceToHonorsDeadline(t *testing.T) {
	u := New[int]()
	a := actor.NewActor[int](0, history.Some(0))
	sig := newIncSignal(nil, a, 0, 1, 100)
	if err := a.AddSignalToReceive(sig); err != nil {
		t.Fatalf("AddSignalToReceive: %v", err)
	}
	u.Add(a)

	if err := waitFor(t, u.AdvanceTo(context.Background(), history.Time(10), inlineExecutor{})); err != nil {
		t.Fatalf("AdvanceTo: %v", err)
	}

	if len(a.GetEvents()) != 0 {
		t.Errorf("expected no events before the signal's reception time, got %+v", a.GetEvents())
	}
	if len(a.GetSignalsToReceive()) != 1 {
		t.Error("expected the signal to remain pending past a deadline it hasn't reached yet")
	}
}

func TestAdvanceToPropagatesContextCancellation(t *testing.T) {
	u := New[int]()
	a := actor.NewActor[int](0, history.Some(0))
	u.Add(a)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := waitFor(t, u.AdvanceTo(ctx, history.Time(100), inlineExecutor{}))
	if err == nil {
		t.Error("expected AdvanceTo to surface the cancellation")
	}
}
