// Package eventlog provides an append-only JSONL audit trail of committed
// events, for diagnostics only — nothing in the engine reads a Trail back,
// and losing one never affects a simulation's outcome.
package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// Record is one JSONL line: the externally visible facts about a single
// committed event, identified by string so the package stays independent
// of the actor package's generic state type.
type Record struct {
	ActorID       string   `json:"actor_id"`
	SignalID      string   `json:"signal_id"`
	When          int64    `json:"when"`
	CreatedActors []string `json:"created_actors,omitempty"`
}

// Trail appends Records as JSON lines to an underlying writer. Safe for
// concurrent use by many actors' commit hooks at once.
type Trail struct {
	mu     sync.Mutex
	w      *bufio.Writer
	enc    *json.Encoder
	closer io.Closer
}

// NewTrail wraps w; NewTrail does not take ownership of closing it.
func NewTrail(w io.Writer) *Trail {
	bw := bufio.NewWriter(w)
	return &Trail{w: bw, enc: json.NewEncoder(bw)}
}

// Open creates or appends to the JSONL file at path and returns a Trail
// that owns it — Close on the returned Trail closes the file too.
func Open(path string) (*Trail, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("eventlog: opening %s: %w", path, err)
	}
	t := NewTrail(f)
	t.closer = f
	return t, nil
}

// Record appends one line describing a committed event.
func (t *Trail) Record(r Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.enc.Encode(r); err != nil {
		return fmt.Errorf("eventlog: encoding record: %w", err)
	}
	return t.w.Flush()
}

// Close flushes any buffered output and, if Trail owns its writer (it was
// constructed via Open), closes it.
func (t *Trail) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.w.Flush(); err != nil {
		return fmt.Errorf("eventlog: flushing: %w", err)
	}
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}
