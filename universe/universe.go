// Package universe implements Universe[S], the identity-keyed set of actors
// and the work-counting barrier that drives them all forward to a common
// deadline in parallel over an externally supplied Executor.
package universe

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/chronoframe/chronos/actor"
	"github.com/chronoframe/chronos/history"
	"github.com/chronoframe/chronos/telemetry"
)

// Universe owns a set of actors keyed by identity. Iteration order is
// never meaningful; membership uses sync.Map, which gives the fine-grained,
// insertion-only locking the concurrent membership map calls for — actors
// are added far more often than the set is enumerated.
type Universe[S comparable] struct {
	actors sync.Map // actor.ActorID -> *actor.Actor[S]
	log    telemetry.Logger
}

// New returns an empty Universe with diagnostics discarded.
func New[S comparable]() *Universe[S] {
	return &Universe[S]{log: telemetry.Discard()}
}

// NewWithLogger returns an empty Universe that reports faults and
// quiescence transitions through log.
func NewWithLogger[S comparable](log telemetry.Logger) *Universe[S] {
	return &Universe[S]{log: log}
}

// Add inserts a into the universe, or replaces the entry if an actor with
// the same identity was already present.
func (u *Universe[S]) Add(a *actor.Actor[S]) {
	a.SetLogger(u.log)
	u.actors.Store(a.Identity(), a)
}

// Remove drops the actor with the given identity, if present. Supported
// through the same interface as Add, per the spec's note that removal
// shares the membership interface with insertion.
func (u *Universe[S]) Remove(id actor.ActorID) {
	u.actors.Delete(id)
}

// Get looks up an actor by identity.
func (u *Universe[S]) Get(id actor.ActorID) (*actor.Actor[S], bool) {
	v, ok := u.actors.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*actor.Actor[S]), true
}

// Actors returns a snapshot of every actor currently in the universe.
func (u *Universe[S]) Actors() []*actor.Actor[S] {
	out := make([]*actor.Actor[S], 0)
	u.actors.Range(func(_, v any) bool {
		out = append(out, v.(*actor.Actor[S]))
		return true
	})
	return out
}

// AdvanceTo drives every actor forward to deadline in parallel over
// executor, returning a channel that receives exactly one value — nil on
// success, or the first error that stops the round: an error other than a
// SignalFault returned by an actor's AdvanceTo (an invariant violation or an
// exhausted commit retry budget), a failed Submit, or context cancellation —
// and is then closed. A SignalFault is logged and does not fail the round.
//
// It submits one task per known actor; each task calls Actor.AdvanceTo and,
// if it surfaces newly created actors, registers and submits tasks for
// those too, atomically before they can be missed. Any actor that receives
// a new signal mid-round (because some other actor's commit routed a signal
// to it) is resubmitted through its dirty hook. The work-counting barrier —
// one increment per submission, one decrement per completion — resolves the
// returned future when it reaches zero with nothing in flight.
//
// Only one AdvanceTo call should be in flight on a given Universe at a
// time: dirty hooks are rebound to the active round on every call, so an
// overlapping second round would steal re-submissions meant for the first.
func (u *Universe[S]) AdvanceTo(ctx context.Context, deadline history.Time, executor Executor) <-chan error {
	result := make(chan error, 1)

	var counter int64
	var once sync.Once
	finish := func(err error) {
		once.Do(func() {
			if err != nil {
				u.log.AdvanceError(int64(deadline), err)
			} else {
				u.log.QuiescenceReached(int64(deadline), len(u.Actors()))
			}
			result <- err
			close(result)
		})
	}

	var submit func(a *actor.Actor[S])
	submit = func(a *actor.Actor[S]) {
		atomic.AddInt64(&counter, 1)
		err := executor.Submit(ctx, func() {
			defer func() {
				if atomic.AddInt64(&counter, -1) == 0 {
					finish(nil)
				}
			}()

			select {
			case <-ctx.Done():
				finish(ctx.Err())
				return
			default:
			}

			_, created, err := a.AdvanceTo(deadline)
			if err != nil {
				// Actor.AdvanceTo already logs and withdraws a faulting
				// signal on its own rather than returning it as an error;
				// this is defense in depth for the case spec.md §7 actually
				// describes — a SignalFault that escapes all the way up
				// still must not fail the other actors' rounds, only this
				// one's.
				var fault *actor.SignalFault
				if errors.As(err, &fault) {
					u.log.SignalFault(fault.SignalID.String(), fault.Cause)
				} else {
					finish(err)
					return
				}
			}
			for _, child := range created {
				u.log.ActorCreated(a.Identity().String(), child.Identity().String())
				u.admit(child, submit)
			}
		})
		if err != nil {
			atomic.AddInt64(&counter, -1)
			finish(err)
		}
	}

	actors := u.Actors()
	if len(actors) == 0 {
		finish(nil)
		return result
	}

	// Dirty hooks must be bound on every already-known actor before any of
	// them starts running: an actor early in this slice could emit to one
	// later in it before that one's hook is installed otherwise.
	for _, a := range actors {
		u.bindDirtyHook(a, submit)
	}
	for _, a := range actors {
		submit(a)
	}

	return result
}

// admit atomically inserts a newly created actor and schedules its first
// task, unless it is already present (defensive — identities are random
// and collisions are not expected in practice).
func (u *Universe[S]) admit(a *actor.Actor[S], submit func(*actor.Actor[S])) {
	if _, loaded := u.actors.LoadOrStore(a.Identity(), a); loaded {
		return
	}
	a.SetLogger(u.log)
	u.bindDirtyHook(a, submit)
	submit(a)
}

func (u *Universe[S]) bindDirtyHook(a *actor.Actor[S], submit func(*actor.Actor[S])) {
	a.SetDirtyHook(func(dirty *actor.Actor[S]) {
		submit(dirty)
	})
}
