package eventlog

import "github.com/chronoframe/chronos/actor"

// FromEvent converts a committed Event into the JSONL Record shape,
// identifying actors and the causing signal by their string form. It is the
// natural thing to pass to a Trail from an Actor's commit hook:
//
//	a.SetCommitHook(func(e *actor.Event[MyState]) {
//	    trail.Record(eventlog.FromEvent(e))
//	})
func FromEvent[S comparable](e *actor.Event[S]) Record {
	created := make([]string, 0, len(e.CreatedActors))
	for _, c := range e.CreatedActors {
		created = append(created, c.Identity().String())
	}

	return Record{
		ActorID:       e.AffectedObject.Identity().String(),
		SignalID:      e.CausingSignal.ID().String(),
		When:          int64(e.When),
		CreatedActors: created,
	}
}
