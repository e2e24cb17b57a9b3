package models

import (
	"sync"
	"time"
)

// EventKind identifies the type of a trace event.
type EventKind string

const (
	EventOutput EventKind = "output"
	EventInput  EventKind = "input"
	EventExit   EventKind = "exit"
)

// Event is one timestamped entry in the observed trace of a session.
type Event struct {
	Kind     EventKind `json:"kind"`
	Data     string    `json:"data,omitempty"`
	ExitCode int       `json:"exit_code,omitempty"`
	At       time.Time `json:"at"`
}

// Trace records everything observed during one session: output chunks in the
// order the OS delivered them, inputs in the order the orchestrator issued
// them, and the final process exit. The pump goroutine appends output
// concurrently with the orchestrator, so appends are mutex-guarded; once the
// session concludes the trace is read-only.
type Trace struct {
	mu     sync.Mutex
	events []Event
}

// NewTrace returns an empty trace.
func NewTrace() *Trace {
	return &Trace{}
}

// AppendOutput records a chunk of child output.
func (t *Trace) AppendOutput(chunk []byte) {
	t.append(Event{Kind: EventOutput, Data: string(chunk), At: time.Now()})
}

// AppendInput records bytes written to the child's input.
func (t *Trace) AppendInput(data []byte) {
	t.append(Event{Kind: EventInput, Data: string(data), At: time.Now()})
}

// AppendExit records the child's exit code.
func (t *Trace) AppendExit(code int) {
	t.append(Event{Kind: EventExit, ExitCode: code, At: time.Now()})
}

func (t *Trace) append(e Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
}

// Events returns a snapshot of all recorded events in order.
func (t *Trace) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, len(t.events))
	copy(out, t.events)
	return out
}

// Output returns all recorded child output, concatenated.
func (t *Trace) Output() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var b []byte
	for i := range t.events {
		if t.events[i].Kind == EventOutput {
			b = append(b, t.events[i].Data...)
		}
	}
	return string(b)
}

// Inputs returns every input payload in the order it was sent.
func (t *Trace) Inputs() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out [][]byte
	for i := range t.events {
		if t.events[i].Kind == EventInput {
			out = append(out, []byte(t.events[i].Data))
		}
	}
	return out
}

// Tail returns up to n trailing bytes of the recorded output. Failure
// verdicts carry this so a mismatch can be diagnosed without re-running.
func (t *Trace) Tail(n int) string {
	out := t.Output()
	if len(out) <= n {
		return out
	}
	return out[len(out)-n:]
}
