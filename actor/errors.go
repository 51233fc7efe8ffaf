package actor

import "errors"

var (
	// ErrInvalidSignalReceiver is returned by Actor.AddSignalToReceive when
	// the signal's declared receiver is a different actor.
	ErrInvalidSignalReceiver = errors.New("actor: signal receiver does not match actor")

	// ErrSignalBeforeActorStart is returned by Actor.AddSignalToReceive when
	// the signal was sent before the receiving actor's start time.
	ErrSignalBeforeActorStart = errors.New("actor: signal sent before actor start")

	// ErrUnreceivableSignal is returned by the synchronous ReceiveAgainst
	// and ReceiveAgainstCached helpers when a signal's reception time can
	// never occur.
	ErrUnreceivableSignal = errors.New("actor: signal is unreceivable")

	// ErrEngineInvariantViolated marks a fatal internal consistency failure
	// detected at commit time. It terminates the Universe's AdvanceTo
	// future; nothing else retries past it.
	ErrEngineInvariantViolated = errors.New("actor: engine invariant violated")

	// ErrCommitRetriesExceeded is returned when the optimistic commit
	// protocol in ReceiveSignal cannot converge after maxCommitRetries
	// attempts, each of which observed some other goroutine's commit race
	// past it between the footprint peek and the footprint lock.
	ErrCommitRetriesExceeded = errors.New("actor: commit retry budget exceeded")
)

// SignalFault wraps a panic raised by the user-supplied Signal primitives
// PropagationDelay or Receive, or an error returned by Receive. A panic in
// TieBreakCompare is not recovered and is not reported as a SignalFault.
// It never implies
// the calling Actor was mutated: SignalFault is always detected and
// returned before any commit step runs. It carries only the signal's
// identity (not the signal itself) so the error type stays free of the
// state-type parameter.
type SignalFault struct {
	SignalID SignalID
	Cause    error
}

func (f *SignalFault) Error() string {
	return "actor: signal fault (" + f.SignalID.String() + "): " + f.Cause.Error()
}

func (f *SignalFault) Unwrap() error { return f.Cause }
