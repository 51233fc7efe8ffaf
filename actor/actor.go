package actor

import (
	"errors"
	"sort"
	"sync"

	"github.com/chronoframe/chronos/cache"
	"github.com/chronoframe/chronos/history"
	"github.com/chronoframe/chronos/telemetry"
)

// maxCommitRetries bounds the optimistic lock-gather-and-recheck loop in
// ReceiveSignal. A retry only happens when another goroutine committed a
// change to some actor in the footprint between the unlocked peek and the
// locked recheck; in practice this converges in one or two iterations, but
// an unbounded loop under adversarial scheduling is its own kind of bug.
const maxCommitRetries = 64

// Actor owns one entity's state history, its committed events, and the
// signals addressed to it that have not yet been received. Every mutation
// to those three things happens under mu, in the order the spec's
// optimistic commit protocol describes: snapshot outside the lock, recompute
// outside the lock, then lock the full footprint of affected actors
// (ascending ActorID order, self included) and recheck before committing.
type Actor[S comparable] struct {
	id    ActorID
	start history.Time

	mu           sync.Mutex
	version      uint64
	stateHistory *history.ValueHistory[S]
	events       []*Event[S] // kept sorted ascending by compareEvents
	pending      map[SignalID]Signal[S]

	onDirty  func(*Actor[S])
	onCommit func(*Event[S])

	// receptions memoizes WhenReceivedFromHistory against this actor's own
	// history, keyed by (signal, version). Nil until SetReceptionCache is
	// called; a nil cache is simply not consulted.
	receptions *cache.ReceptionCache

	// log reports SignalFaults this actor withdraws on its own (they never
	// reach the Universe as an error) and cascade-invalidation activity.
	// Defaults to a discarding Logger; SetLogger installs a real one.
	log telemetry.Logger
}

// NewActor constructs an actor coming into existence at start with initial
// as its state from start onward (None means the actor does not yet exist
// and must be brought into being by a later event, per the spec's actor
// creation note).
func NewActor[S comparable](start history.Time, initial history.Option[S]) *Actor[S] {
	return &Actor[S]{
		id:           NewActorID(),
		start:        start,
		stateHistory: history.NewValueHistoryFrom(initial, nil),
		pending:      make(map[SignalID]Signal[S]),
		log:          telemetry.Discard(),
	}
}

// Identity returns this actor's unique ID.
func (a *Actor[S]) Identity() ActorID { return a.id }

// Start returns the time this actor came into existence.
func (a *Actor[S]) Start() history.Time { return a.start }

// SetReceptionCache installs a cache used to memoize reception-time
// computations against this actor's history. Not safe to call concurrently
// with ReceiveSignal.
func (a *Actor[S]) SetReceptionCache(c *cache.ReceptionCache) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.receptions = c
}

// SetCommitHook registers fn to be called, outside any lock, after every
// event this actor commits — including events later unwound by a future
// invalidation cascade, since the hook exists purely for diagnostic
// recording (an audit trail), not for driving engine logic. Not safe to
// call concurrently with ReceiveSignal.
func (a *Actor[S]) SetCommitHook(fn func(*Event[S])) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onCommit = fn
}

// SetLogger installs the fault sink used to report SignalFaults withdrawn
// without failing the Universe's advance_to future, and invalidation-cascade
// activity. Not safe to call concurrently with ReceiveSignal or AdvanceTo.
func (a *Actor[S]) SetLogger(log telemetry.Logger) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.log = log
}

// withdraw permanently removes id from pending and bumps version, for a
// signal that will never be retried — as opposed to an Unreceivable signal,
// which simply stays put for a future commit to reconsider.
func (a *Actor[S]) withdraw(id SignalID) {
	a.mu.Lock()
	delete(a.pending, id)
	a.version++
	a.mu.Unlock()
}

// SetDirtyHook registers fn to be called, outside any lock, whenever this
// actor gains a newly receivable signal or commits a change — the signal a
// Universe's work-counting barrier uses to know a quiescent actor must be
// resubmitted. Not safe to call concurrently with itself.
func (a *Actor[S]) SetDirtyHook(fn func(*Actor[S])) {
	a.mu.Lock()
	a.onDirty = fn
	a.mu.Unlock()
}

func (a *Actor[S]) notifyDirty() {
	a.mu.Lock()
	hook := a.onDirty
	a.mu.Unlock()
	if hook != nil {
		hook(a)
	}
}

// GetStateHistory returns a snapshot safe for the caller to read without
// holding any lock.
func (a *Actor[S]) GetStateHistory() *history.ValueHistory[S] {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stateHistory.Clone()
}

// GetEvents returns a snapshot of the events committed against this actor,
// in their total (When, TieBreakCompare) order.
func (a *Actor[S]) GetEvents() []*Event[S] {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Event[S], len(a.events))
	copy(out, a.events)
	return out
}

// GetLastEvent returns the most recent committed event, if any.
func (a *Actor[S]) GetLastEvent() (*Event[S], bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.events) == 0 {
		return nil, false
	}
	return a.events[len(a.events)-1], true
}

// GetSignalsToReceive returns a snapshot of the signals addressed to this
// actor that have not yet been received.
func (a *Actor[S]) GetSignalsToReceive() []Signal[S] {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Signal[S], 0, len(a.pending))
	for _, s := range a.pending {
		out = append(out, s)
	}
	return out
}

// AddSignalToReceive registers s as a signal this actor must eventually
// process. s must name this actor as its receiver and must have been sent
// at or after the actor's start time.
func (a *Actor[S]) AddSignalToReceive(s Signal[S]) error {
	if s.Receiver() != a {
		return ErrInvalidSignalReceiver
	}
	if s.WhenSent().Before(a.start) {
		return ErrSignalBeforeActorStart
	}

	a.mu.Lock()
	a.pending[s.ID()] = s
	a.version++
	a.mu.Unlock()

	a.notifyDirty()
	return nil
}

// eventPositionAfter returns the events in snapshot that sort strictly
// after newEvent in the total event order — the set that newEvent's
// insertion invalidates.
func eventPositionAfter[S comparable](snapshot []*Event[S], newEvent *Event[S]) []*Event[S] {
	idx := sort.Search(len(snapshot), func(i int) bool {
		return compareEvents(snapshot[i], newEvent) > 0
	})
	return snapshot[idx:]
}

func findEventCausedBy[S comparable](events []*Event[S], signalID SignalID) (*Event[S], bool) {
	for _, e := range events {
		if e.CausingSignal != nil && e.CausingSignal.ID() == signalID {
			return e, true
		}
	}
	return nil, false
}

func optionFromStatePointer[S comparable](state *S) history.Option[S] {
	if state == nil {
		return history.None[S]()
	}
	return history.Some(*state)
}

// footprint is the set of actors a single commit touches: the receiving
// actor itself plus every actor reached by walking the invalidated events'
// emitted signals out to their receivers, transitively. Actors are always
// locked in ascending ActorID order, never nested, to make the protocol
// deadlock-free regardless of how many actors a cascade spans.
type footprint[S comparable] struct {
	actors map[ActorID]*Actor[S]
}

func newFootprint[S comparable]() *footprint[S] {
	return &footprint[S]{actors: make(map[ActorID]*Actor[S])}
}

func (f *footprint[S]) add(a *Actor[S]) bool {
	if _, ok := f.actors[a.id]; ok {
		return false
	}
	f.actors[a.id] = a
	return true
}

func (f *footprint[S]) sorted() []*Actor[S] {
	out := make([]*Actor[S], 0, len(f.actors))
	for _, a := range f.actors {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i].id, out[j].id) })
	return out
}

func (f *footprint[S]) lockAll() {
	for _, a := range f.sorted() {
		a.mu.Lock()
	}
}

func (f *footprint[S]) unlockAll() {
	// Unlock order doesn't matter for correctness, but unlocking in the
	// reverse of acquisition order keeps lock/unlock symmetric in traces.
	sorted := f.sorted()
	for i := len(sorted) - 1; i >= 0; i-- {
		sorted[i].mu.Unlock()
	}
}

// gatherFootprint walks the cascade of invalidated events outward, peeking
// (briefly locking, one actor at a time — never two at once) at each reached
// actor's committed events to see whether the signal it received
// from an invalidated event has itself already produced further events that
// must also be pulled into the footprint.
func gatherFootprint[S comparable](self *Actor[S], seed []*Event[S]) *footprint[S] {
	fp := newFootprint[S]()
	fp.add(self)

	queue := append([]*Event[S]{}, seed...)
	visitedSignals := make(map[SignalID]bool)

	for len(queue) > 0 {
		ev := queue[0]
		queue = queue[1:]

		for _, emitted := range ev.SignalsEmitted {
			if visitedSignals[emitted.ID()] {
				continue
			}
			visitedSignals[emitted.ID()] = true

			recv := emitted.Receiver()
			if recv == nil {
				continue
			}
			// Peek even when recv is already in the footprint: the event it
			// committed for this signal may reach further actors.
			fp.add(recv)
			recv.mu.Lock()
			recvEvents := append([]*Event[S]{}, recv.events...)
			recv.mu.Unlock()

			if caused, ok := findEventCausedBy(recvEvents, emitted.ID()); ok {
				queue = append(queue, caused)
			}
		}
		for _, created := range ev.CreatedActors {
			fp.add(created)
		}
	}

	return fp
}

// sameEventSet reports whether two event slices (each already sorted by the
// total event order) contain the same events by identity.
func sameEventSet[S comparable](a, b []*Event[S]) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// footprintClosed reports whether fp already contains every actor that
// unwinding invalidated would touch, without mutating anything. gatherFootprint
// walks this same cascade before any lock is held, so a concurrent commit can
// legitimately extend it by one hop in the window between that walk and
// fp.lockAll() — a brand new event, committed by some other goroutine, whose
// emitted signals reach an actor outside what was gathered. Running this
// check after the full footprint is locked (and before any unwind mutation)
// catches that race for what it is — an attempt to commit against a
// footprint that's already stale — rather than silently leaving a stray
// committed event in place.
func footprintClosed[S comparable](invalidated []*Event[S], fp *footprint[S]) bool {
	visited := make(map[SignalID]bool)

	var walk func(e *Event[S]) bool
	walk = func(e *Event[S]) bool {
		for _, emitted := range e.SignalsEmitted {
			if visited[emitted.ID()] {
				continue
			}
			visited[emitted.ID()] = true

			recv := emitted.Receiver()
			if recv == nil {
				continue
			}
			target, ok := fp.actors[recv.id]
			if !ok {
				return false
			}
			if caused, ok := findEventCausedBy(target.events, emitted.ID()); ok {
				if !walk(caused) {
					return false
				}
			}
		}
		return true
	}

	for _, e := range invalidated {
		if !walk(e) {
			return false
		}
	}
	return true
}

// unwindEvent undoes one invalidated event: it is removed from its owning
// actor's committed events and, if it is not the actor presently being
// recomputed (self), the transition it recorded is rolled back out of that
// actor's history too. The signal that caused it is returned to its
// receiver's pending set so it gets a fresh chance against the corrected
// history, and every signal the event emitted is recalled from whatever
// actor received it.
func unwindEvent[S comparable](owner *Actor[S], e *Event[S], self *Actor[S], fp *footprint[S]) {
	self.log.Invalidation(owner.id.String(), int64(e.When))

	owner.events = removeEvent(owner.events, e)
	if owner != self {
		owner.stateHistory.RemoveTransitionsFrom(e.When)
	}
	if e.CausingSignal != nil {
		owner.pending[e.CausingSignal.ID()] = e.CausingSignal
	}
	owner.version++

	for _, emitted := range e.SignalsEmitted {
		recv := emitted.Receiver()
		if recv == nil {
			continue
		}
		target, ok := fp.actors[recv.id]
		if !ok {
			// footprintClosed runs over this exact cascade before any
			// unwind starts; ReceiveSignal retries the whole attempt
			// instead of calling unwindEvent when it finds an escape, so
			// this is unreachable by construction, not just in practice.
			continue
		}
		if caused, ok := findEventCausedBy(target.events, emitted.ID()); ok {
			unwindEvent(target, caused, self, fp)
		} else {
			delete(target.pending, emitted.ID())
			target.version++
		}
	}

	for _, created := range e.CreatedActors {
		// A created actor whose creating event is undone never came into
		// being; collapsing its history to the constant-absent function is
		// the actor-level equivalent of the transition never happening.
		created.stateHistory = history.NewValueHistory[S]()
		created.events = nil
		created.version++
	}
}

func removeEvent[S comparable](events []*Event[S], target *Event[S]) []*Event[S] {
	out := events[:0:0]
	for _, e := range events {
		if e != target {
			out = append(out, e)
		}
	}
	return out
}

func insertEventSorted[S comparable](events []*Event[S], e *Event[S]) []*Event[S] {
	idx := sort.Search(len(events), func(i int) bool {
		return compareEvents(events[i], e) > 0
	})
	events = append(events, nil)
	copy(events[idx+1:], events[idx:])
	events[idx] = e
	return events
}

// ReceiveSignal processes one signal addressed to this actor: it computes
// the event the signal causes against the actor's current state, undoes
// whatever already-committed events that insertion invalidates (recursively,
// across every actor the cascade touches), and commits the result. Both a
// signal that is currently unreceivable (left pending for a future commit to
// reconsider) and one whose primitive faulted (logged and withdrawn for
// good, since it can never un-fault against the same state) are reported as
// success — a nil event with a nil error, not a failure. On success the
// committed event is returned so a caller (the Universe's scheduler, in
// particular) can inspect CreatedActors without racing a second lookup.
func (a *Actor[S]) ReceiveSignal(s Signal[S]) (*Event[S], error) {
	for attempt := 0; attempt < maxCommitRetries; attempt++ {
		a.mu.Lock()
		if _, ok := a.pending[s.ID()]; !ok {
			a.mu.Unlock()
			return nil, nil
		}
		historySnapshot := a.stateHistory.Clone()
		eventsSnapshot := append([]*Event[S]{}, a.events...)
		selfVersionBefore := a.version
		receptions := a.receptions
		log := a.log
		a.mu.Unlock()

		event, err := ReceiveAgainstCached(s, historySnapshot, receptions, selfVersionBefore)
		if err != nil {
			if errors.Is(err, ErrUnreceivableSignal) {
				// Unreceivable under the current history is not withdrawal:
				// the signal stays in pending and gets another chance if a
				// later commit changes the history under it.
				return nil, nil
			}
			var fault *SignalFault
			if errors.As(err, &fault) {
				// A faulting Signal primitive never blocks the rest of this
				// actor, let alone the Universe: log it and withdraw the
				// offending signal so scheduling moves on to the next one.
				a.withdraw(fault.SignalID)
				log.SignalFault(fault.SignalID.String(), fault.Cause)
				return nil, nil
			}
			return nil, err
		}

		invalidated := eventPositionAfter(eventsSnapshot, event)

		// The footprint must cover every actor touched by undoing the
		// invalidated events AND every actor the new event itself sends to
		// — both need their pending set mutated under lock.
		fp := gatherFootprint(a, append(append([]*Event[S]{}, invalidated...), event))
		fp.lockAll()

		// Re-check: the snapshot above, and the footprint peek that followed
		// it, both ran outside any lock. If this actor committed anything in
		// between, historySnapshot and event are stale — retry from the top
		// rather than commit against a computation that no longer reflects
		// reality.
		if a.version != selfVersionBefore {
			fp.unlockAll()
			continue
		}
		recheckedInvalidated := eventPositionAfter(a.events, event)
		if !sameEventSet(recheckedInvalidated, invalidated) {
			fp.unlockAll()
			continue
		}

		// gatherFootprint walked this same cascade outside any lock; a
		// concurrent commit elsewhere can have extended it by one hop in the
		// window between that walk and the lock above. Every actor the
		// unwind is about to touch is now locked and can't gain a further
		// hop, so a closed check here is final — but if it finds an escape,
		// nothing has been mutated yet, so retrying the whole attempt from
		// the top is safe where patching the gap in place would not be.
		if !footprintClosed(recheckedInvalidated, fp) {
			fp.unlockAll()
			continue
		}

		for _, inv := range recheckedInvalidated {
			unwindEvent(a, inv, a, fp)
		}

		delete(a.pending, s.ID())
		a.stateHistory.SetValueFrom(event.When, optionFromStatePointer(event.State))
		a.events = insertEventSorted(a.events, event)
		a.version++

		for _, emitted := range event.SignalsEmitted {
			recv := emitted.Receiver()
			if recv == nil {
				continue
			}
			target, ok := fp.actors[recv.id]
			if !ok {
				target = recv
			}
			target.pending[emitted.ID()] = emitted
			if target != a {
				target.version++
			}
		}
		for _, created := range event.CreatedActors {
			fp.add(created)
		}

		touched := fp.sorted()
		onCommit := a.onCommit
		fp.unlockAll()

		for _, t := range touched {
			t.notifyDirty()
		}
		if onCommit != nil {
			onCommit(event)
		}
		return event, nil
	}

	return nil, ErrCommitRetriesExceeded
}

// AdvanceTo processes, in order, every pending signal this actor can
// receive at or before deadline, until none remain. It reports progress
// whenever it handled a signal — a ReceiveSignal call that returned without
// error (whether or not it committed an event), or a faulting signal it
// withdrew — and every actor freshly created along the way, so a
// caller driving many actors (the Universe's scheduler) can tell a
// quiescent actor (no progress, nothing left receivable by deadline) from
// one still making progress, and can register newly created actors before
// scheduling their first task.
func (a *Actor[S]) AdvanceTo(deadline history.Time) (progressed bool, created []*Actor[S], err error) {
	for {
		a.mu.Lock()
		h := a.stateHistory.Clone()
		pending := make([]Signal[S], 0, len(a.pending))
		for _, s := range a.pending {
			pending = append(pending, s)
		}
		log := a.log
		a.mu.Unlock()

		next, ok, err := earliestReceivable(pending, h, deadline)
		if err != nil {
			var fault *SignalFault
			if errors.As(err, &fault) {
				// A delay computation that panics is no different from a
				// Receive that does: log it, withdraw the offender, and keep
				// looking for the next receivable signal.
				a.withdraw(fault.SignalID)
				log.SignalFault(fault.SignalID.String(), fault.Cause)
				progressed = true
				continue
			}
			return progressed, created, err
		}
		if !ok {
			return progressed, created, nil
		}

		event, err := a.ReceiveSignal(next)
		if err != nil {
			return progressed, created, err
		}
		progressed = true
		if event != nil {
			created = append(created, event.CreatedActors...)
		}
	}
}

// earliestReceivable finds, among pending, the signal with the smallest
// (WhenReceived, TieBreakCompare) at or before deadline, per the spec's
// per-actor scheduling order.
func earliestReceivable[S comparable](pending []Signal[S], h *history.ValueHistory[S], deadline history.Time) (Signal[S], bool, error) {
	var best Signal[S]
	var bestWhen history.Time
	found := false

	for _, s := range pending {
		when, err := WhenReceivedFromHistory(s, h)
		if err != nil {
			return nil, false, err
		}
		if when == history.NeverReceived || when.After(deadline) {
			continue
		}
		if !found || when.Before(bestWhen) || (when.Equal(bestWhen) && s.TieBreakCompare(best) < 0) {
			best, bestWhen, found = s, when, true
		}
	}

	return best, found, nil
}
