// Package telemetry is a thin wrapper around zerolog, used as the fault
// sink and diagnostic logger for the actor/universe subsystem. It adds no
// abstraction beyond what zerolog already gives: a Logger is a zerolog.Logger
// plus a handful of named events that the universe and actor packages call
// into, in the same terse, field-based style the teacher uses for direct
// library wrapping elsewhere (cache.StateCache wrapping sha256 directly).
package telemetry

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger. The zero value is not usable; construct one
// with New or Discard.
type Logger struct {
	z zerolog.Logger
}

// New builds a Logger writing structured JSON lines to w.
func New(w io.Writer) Logger {
	return Logger{z: zerolog.New(w).With().Timestamp().Logger()}
}

// NewConsole builds a Logger writing human-readable lines to os.Stderr, for
// interactive use (the CLI demo's default).
func NewConsole() Logger {
	return Logger{z: zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()}
}

// Discard builds a Logger that drops everything, for tests and callers that
// don't care about diagnostics.
func Discard() Logger {
	return Logger{z: zerolog.Nop()}
}

// SignalFault logs a SignalFault that was recovered from a panicking or
// erroring Signal primitive without blocking the commit or advance_to
// future that observed it.
func (l Logger) SignalFault(signalID string, cause error) {
	l.z.Warn().
		Str("signal_id", signalID).
		Err(cause).
		Msg("signal fault")
}

// Invalidation logs one event invalidation-cascade step: an event owned by
// actorID, committed at when, was undone by a later, out-of-order reception.
func (l Logger) Invalidation(actorID string, when int64) {
	l.z.Debug().
		Str("actor_id", actorID).
		Int64("when", when).
		Msg("event invalidated")
}

// QuiescenceReached logs a Universe's advance_to future resolving: every
// actor reported complete for deadline with no in-flight tasks remaining.
func (l Logger) QuiescenceReached(deadline int64, actorCount int) {
	l.z.Info().
		Int64("deadline", deadline).
		Int("actor_count", actorCount).
		Msg("universe reached quiescence")
}

// AdvanceError logs a Universe's advance_to future resolving with an error —
// an invariant violation, an exhausted commit retry budget, a failed task
// submission, or a cancelled context. SignalFaults are reported through
// SignalFault instead and never reach AdvanceError.
func (l Logger) AdvanceError(deadline int64, err error) {
	l.z.Error().
		Int64("deadline", deadline).
		Err(err).
		Msg("universe advance_to failed")
}

// ActorCreated logs a new actor appearing as an event's side data.
func (l Logger) ActorCreated(parentID, childID string) {
	l.z.Debug().
		Str("parent_actor_id", parentID).
		Str("child_actor_id", childID).
		Msg("actor created")
}
