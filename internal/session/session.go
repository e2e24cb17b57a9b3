// Package session drives one script against one live process and produces a
// verdict. The orchestrator resolves exactly one step at a time: a response
// is never sent before its prompt has actually been observed, because
// speculative sends silently desynchronize the rest of the conversation and
// surface as misleading mismatches several steps later.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/parleyhq/parley/internal/execution"
	"github.com/parleyhq/parley/internal/match"
	"github.com/parleyhq/parley/internal/models"
)

// tailBytes is how much trailing output a failure verdict carries.
const tailBytes = 1024

// state is the orchestrator's position in the per-session state machine.
type state int

const (
	stateAwaitingPrompt state = iota
	stateSendingResponse
	stateCompleted
)

// Session ties one script to one spawned process instance and one observed
// trace. Create with New, drive with Run; a session is single-use.
type Session struct {
	name   string
	exe    string
	args   []string
	script *models.Script

	state state
	trace *models.Trace
}

// Option configures a Session.
type Option func(*Session)

// WithName overrides the session name used in results (default: script name).
func WithName(name string) Option {
	return func(s *Session) {
		s.name = name
	}
}

// New creates a session for running script against the executable at exe.
func New(exe string, args []string, script *models.Script, opts ...Option) *Session {
	s := &Session{
		name:   script.Name,
		exe:    exe,
		args:   args,
		script: script,
		trace:  models.NewTrace(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Trace returns the observed trace. Read it only after Run has returned.
func (s *Session) Trace() *models.Trace {
	return s.trace
}

// Run executes the session to completion and returns its result. All
// per-session failures are captured as verdicts, never as errors; a
// misbehaving target cannot abort sibling sessions. The child is reaped on
// every return path.
func (s *Session) Run(ctx context.Context) models.SessionResult {
	started := time.Now()
	verdict := s.run(ctx)
	s.state = stateCompleted

	return models.SessionResult{
		Name:       s.name,
		Verdict:    verdict,
		Events:     s.trace.Events(),
		DurationMs: time.Since(started).Milliseconds(),
	}
}

func (s *Session) run(ctx context.Context) models.Verdict {
	ctl, err := execution.Spawn(s.exe, s.args...)
	if err != nil {
		return models.Verdict{Outcome: models.OutcomeSpawnFailed, ErrorMsg: err.Error()}
	}
	defer ctl.Release()

	pump := execution.StartPump(ctl.Stdout(), s.trace.AppendOutput)

	stepTimeout := s.script.StepTimeout()

	for i := range s.script.Steps {
		if err := ctx.Err(); err != nil {
			return s.canceled(ctl)
		}

		step := &s.script.Steps[i]
		switch step.Kind {
		case models.StepExpect:
			s.state = stateAwaitingPrompt
			if v, ok := s.awaitPrompt(ctx, ctl, pump, i, step, stepTimeout); !ok {
				return v
			}
		case models.StepSend:
			s.state = stateSendingResponse
			if v, ok := s.sendResponse(ctx, ctl, pump, i, step); !ok {
				return v
			}
		}
	}

	// Script exhausted: the verdict now rests on how the process exits.
	return s.awaitExit(ctx, ctl, pump)
}

// awaitPrompt blocks until the step's expected text appears. The bool is
// false when the returned verdict is terminal.
func (s *Session) awaitPrompt(ctx context.Context, ctl *execution.Controller, pump *execution.Pump, idx int, step *models.Step, fallback time.Duration) (models.Verdict, bool) {
	opts, err := step.ExpectOptions()
	if err != nil {
		return models.Verdict{
			Outcome:   models.OutcomeMismatch,
			StepIndex: idx,
			Expected:  step.Text,
			ErrorMsg:  err.Error(),
		}, false
	}

	pattern := match.Exact(step.Text)
	if opts.Wildcard {
		pattern = match.Wildcard(step.Text)
	}

	slog.Debug("awaiting prompt", "session", s.name, "step", idx, "pattern", pattern.String())
	switch err := pump.WaitMatch(ctx, pattern, step.Timeout(fallback)); {
	case err == nil:
		return models.Verdict{}, true
	case errors.Is(err, execution.ErrOutputClosed):
		// The process closed its output before satisfying the expectation.
		// Not a timeout: collect the exit code and classify as a crash.
		code := s.collectExit(ctl)
		return models.Verdict{
			Outcome:   models.OutcomeCrashed,
			StepIndex: idx,
			Expected:  step.Text,
			Actual:    pump.Tail(tailBytes),
			ExitCode:  &code,
			ErrorMsg:  ctl.StderrTail(),
		}, false
	case errors.Is(err, execution.ErrExpectTimeout):
		return models.Verdict{
			Outcome:   models.OutcomeTimedOut,
			StepIndex: idx,
			Expected:  step.Text,
			Actual:    pump.Tail(tailBytes),
		}, false
	default:
		// Context cancellation always wins over other classifications.
		return s.canceled(ctl), false
	}
}

// sendResponse writes the step's payload to the child. A broken pipe is
// classified as crashed when the process has exited and mismatch otherwise.
func (s *Session) sendResponse(ctx context.Context, ctl *execution.Controller, pump *execution.Pump, idx int, step *models.Step) (models.Verdict, bool) {
	payload, err := step.Payload()
	if err != nil {
		return models.Verdict{
			Outcome:   models.OutcomeMismatch,
			StepIndex: idx,
			ErrorMsg:  err.Error(),
		}, false
	}

	slog.Debug("sending response", "session", s.name, "step", idx, "bytes", len(payload))
	if err := ctl.WriteInput(payload); err != nil {
		if code, exited := ctl.PollExit(); exited {
			s.trace.AppendExit(code)
			return models.Verdict{
				Outcome:   models.OutcomeCrashed,
				StepIndex: idx,
				Actual:    pump.Tail(tailBytes),
				ExitCode:  &code,
				ErrorMsg:  ctl.StderrTail(),
			}, false
		}
		return models.Verdict{
			Outcome:   models.OutcomeMismatch,
			StepIndex: idx,
			Actual:    pump.Tail(tailBytes),
			ErrorMsg:  err.Error(),
		}, false
	}
	s.trace.AppendInput(payload)
	return models.Verdict{}, true
}

// awaitExit waits for the process to finish after the script is exhausted,
// bounded by the session timeout. A lingering process is a timeout at index
// len(steps); a non-zero exit is a crash.
func (s *Session) awaitExit(ctx context.Context, ctl *execution.Controller, pump *execution.Pump) models.Verdict {
	ctl.CloseInput()

	waitCtx, cancel := context.WithTimeout(ctx, s.script.SessionTimeout())
	defer cancel()

	code, exited := ctl.WaitExit(waitCtx.Done())
	if !exited {
		if ctx.Err() != nil {
			return s.canceled(ctl)
		}
		return models.Verdict{
			Outcome:   models.OutcomeTimedOut,
			StepIndex: len(s.script.Steps),
			Expected:  "process exit",
		}
	}

	// Drain whatever the process wrote on its way out before the pipes are
	// released, so the trace holds its final output.
	pump.Wait()

	s.trace.AppendExit(code)
	if code != 0 {
		return models.Verdict{
			Outcome:   models.OutcomeCrashed,
			StepIndex: len(s.script.Steps),
			ExitCode:  &code,
			ErrorMsg:  ctl.StderrTail(),
		}
	}
	return models.Verdict{Outcome: models.OutcomePassed}
}

// canceled terminates the child promptly and returns the cancellation
// verdict. External cancellation always wins over other classifications.
func (s *Session) canceled(ctl *execution.Controller) models.Verdict {
	ctl.Terminate()
	return models.Verdict{Outcome: models.OutcomeCanceled}
}

// collectExit terminates the child if needed and returns its exit code.
func (s *Session) collectExit(ctl *execution.Controller) int {
	code, exited := ctl.PollExit()
	if !exited {
		// Output closed but the process lingers; reap it for the verdict.
		ctl.Terminate()
		code, _ = ctl.WaitExit(nil)
	}
	s.trace.AppendExit(code)
	return code
}
