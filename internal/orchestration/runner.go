// Package orchestration runs many independent sessions, each against its own
// process, with a caller-chosen concurrency limit. Sessions share no state;
// one misbehaving fixture never prevents siblings from completing.
package orchestration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/session"
	"golang.org/x/sync/errgroup"
)

// Case pairs one executable with the script to drive it.
type Case struct {
	Name   string
	Exe    string
	Args   []string
	Script *models.Script
}

// EventType represents the type of progress event.
type EventType string

const (
	EventSuiteStart      EventType = "suite_start"
	EventSuiteComplete   EventType = "suite_complete"
	EventSessionStart    EventType = "session_start"
	EventSessionComplete EventType = "session_complete"
)

// ProgressEvent represents a progress update.
type ProgressEvent struct {
	EventType  EventType
	Name       string
	Num        int
	Total      int
	Verdict    models.Verdict
	DurationMs int64
}

// ProgressListener receives progress updates.
type ProgressListener func(event ProgressEvent)

// Runner orchestrates the execution of session cases.
type Runner struct {
	workers int

	progressMu sync.Mutex
	listeners  []ProgressListener
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers sets the maximum number of sessions running at once.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		r.workers = n
	}
}

// NewRunner creates a runner. The default concurrency limit is 4.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{workers: 4}
	for _, o := range opts {
		o(r)
	}
	if r.workers <= 0 {
		r.workers = 4
	}
	return r
}

// OnProgress registers a progress listener.
func (r *Runner) OnProgress(listener ProgressListener) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *Runner) notifyProgress(event ProgressEvent) {
	r.progressMu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// Run executes every case and returns the aggregate outcome. Verdicts are
// values, not errors: a crashed or timed-out case shows up in its session
// result while the rest of the suite keeps going. Cancellation of ctx
// terminates all in-flight children promptly.
func (r *Runner) Run(ctx context.Context, cases []Case) (*models.SuiteOutcome, error) {
	if len(cases) == 0 {
		return nil, fmt.Errorf("no cases to run")
	}

	started := time.Now()
	r.notifyProgress(ProgressEvent{EventType: EventSuiteStart, Total: len(cases)})

	results := make([]models.SessionResult, len(cases))

	g := new(errgroup.Group)
	g.SetLimit(r.workers)
	for i, c := range cases {
		i, c := i, c
		g.Go(func() error {
			r.notifyProgress(ProgressEvent{
				EventType: EventSessionStart,
				Name:      c.Name,
				Num:       i + 1,
				Total:     len(cases),
			})

			sess := session.New(c.Exe, c.Args, c.Script, session.WithName(c.Name))
			results[i] = sess.Run(ctx)

			r.notifyProgress(ProgressEvent{
				EventType:  EventSessionComplete,
				Name:       c.Name,
				Num:        i + 1,
				Total:      len(cases),
				Verdict:    results[i].Verdict,
				DurationMs: results[i].DurationMs,
			})
			return nil
		})
	}
	_ = g.Wait()

	outcome := &models.SuiteOutcome{
		RunID:     fmt.Sprintf("run-%d", started.Unix()),
		Timestamp: started,
		Digest:    models.BuildDigest(results, started),
		Sessions:  results,
	}

	r.notifyProgress(ProgressEvent{
		EventType:  EventSuiteComplete,
		Total:      len(cases),
		DurationMs: outcome.Digest.DurationMs,
	})

	return outcome, nil
}
