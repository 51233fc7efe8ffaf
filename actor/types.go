// Package actor implements the Signal, Event and Actor components of the
// simulation core: a Signal carries a payload from a sender to a receiver
// and computes its own reception time against the receiver's state history;
// an Event is the immutable record of one reception; an Actor owns a state
// history, a set of past events, and a pending set of incoming signals, and
// drives itself forward signal by signal under an optimistic per-actor lock.
package actor

import (
	"bytes"

	"github.com/google/uuid"

	"github.com/chronoframe/chronos/history"
)

// ActorID identifies an Actor uniquely and also serves as the lock-ordering
// key described in the spec: whenever more than one actor's lock must be
// held at once, they are acquired in ascending ActorID order.
type ActorID = uuid.UUID

// SignalID identifies a Signal uniquely, independent of whatever
// TieBreakCompare a concrete signal type implements.
type SignalID = uuid.UUID

// NewActorID and NewSignalID mint fresh random identities.
func NewActorID() ActorID   { return uuid.New() }
func NewSignalID() SignalID { return uuid.New() }

// lessID gives ActorID (and SignalID) a total order usable for lock
// ordering and as a tie-break fallback, without requiring callers to know
// uuid.UUID is a [16]byte under the hood.
func lessID(a, b ActorID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

// CompareIDs is a convenience total-order comparator concrete Signal types
// can delegate to for TieBreakCompare when they have no more meaningful
// secondary key of their own.
func CompareIDs(a, b SignalID) int {
	return bytes.Compare(a[:], b[:])
}

// Signal[S] is the polymorphic message type of the spec: it carries a
// payload (defined entirely by the concrete implementation) from Sender to
// Receiver, computes its own reception time against the receiver's state,
// and produces an Event when received.
//
// Implementations must make PropagationDelay, Receive and TieBreakCompare
// pure functions of their inputs — the optimistic commit protocol in
// Actor.ReceiveSignal depends on being able to call them outside any lock
// and retry freely.
type Signal[S comparable] interface {
	// ID returns this signal's unique identity.
	ID() SignalID

	// Sender and Receiver return the actors this signal flows between.
	Sender() *Actor[S]
	Receiver() *Actor[S]

	// WhenSent returns the time the signal was sent. Always >= Receiver().Start().
	WhenSent() history.Time

	// PropagationDelay returns the delay, as a function of the receiver's
	// state at the candidate reception time. A NeverReceived-valued delay
	// (or one large enough to push WhenSent+delay past EndOfTime) means
	// this signal can never be received against this state.
	PropagationDelay(state S) history.Duration

	// Receive produces the Event this signal causes if delivered at when
	// against state. Called only with a when that WhenReceivedFromHistory actually
	// produced and a non-absent state.
	Receive(when history.Time, state S) (*Event[S], error)

	// TieBreakCompare is a deterministic total order over signals, used as
	// the secondary sort key when two signals are received at the same
	// time. It must return 0 only when comparing a signal to itself.
	TieBreakCompare(other Signal[S]) int
}

// BaseSignal provides the bookkeeping every concrete Signal implementation
// needs (identity, sender, receiver, send time) so user code only has to
// embed it and implement the three primitive methods. This mirrors the
// teacher's behavior/trigger embedding pattern (actor.Behavior embedding
// shared plumbing while concrete behaviors supply only their callbacks).
type BaseSignal[S comparable] struct {
	id       SignalID
	sender   *Actor[S]
	receiver *Actor[S]
	whenSent history.Time
}

// NewBaseSignal constructs the embeddable bookkeeping for a concrete signal.
func NewBaseSignal[S comparable](sender, receiver *Actor[S], whenSent history.Time) BaseSignal[S] {
	return BaseSignal[S]{
		id:       NewSignalID(),
		sender:   sender,
		receiver: receiver,
		whenSent: whenSent,
	}
}

func (b BaseSignal[S]) ID() SignalID           { return b.id }
func (b BaseSignal[S]) Sender() *Actor[S]      { return b.sender }
func (b BaseSignal[S]) Receiver() *Actor[S]    { return b.receiver }
func (b BaseSignal[S]) WhenSent() history.Time { return b.whenSent }

// Event[S] is the immutable record of one signal reception.
type Event[S comparable] struct {
	CausingSignal  Signal[S]
	When           history.Time
	AffectedObject *Actor[S]
	State          *S // nil means the actor is destroyed at When
	SignalsEmitted []Signal[S]
	CreatedActors  []*Actor[S]
}

// compareEvents totally orders events by (When, CausingSignal.TieBreakCompare),
// per the spec's Event ordering rule.
func compareEvents[S comparable](a, b *Event[S]) int {
	if a.When != b.When {
		if a.When.Before(b.When) {
			return -1
		}
		return 1
	}
	return a.CausingSignal.TieBreakCompare(b.CausingSignal)
}
