package models

import "fmt"

// Outcome classifies how a session concluded.
type Outcome string

const (
	// OutcomePassed means every step was satisfied and the process exited cleanly.
	OutcomePassed Outcome = "passed"
	// OutcomeMismatch means a response could not be delivered while the
	// process was still running, or observed output diverged from the script.
	OutcomeMismatch Outcome = "mismatch"
	// OutcomeTimedOut means an expected prompt did not appear within its
	// timeout, or the process outlived the session timeout after the script.
	OutcomeTimedOut Outcome = "timeout"
	// OutcomeCrashed means the process exited before satisfying the script,
	// or exited non-zero after it.
	OutcomeCrashed Outcome = "crashed"
	// OutcomeSpawnFailed means the process could not be started at all.
	OutcomeSpawnFailed Outcome = "spawn_failed"
	// OutcomeCanceled means an external cancellation ended the session.
	OutcomeCanceled Outcome = "canceled"
)

// Verdict is the final, immutable classification of one session. Failure
// verdicts carry the step index, the expected text and the observed output
// tail so failures can be diagnosed without re-running.
type Verdict struct {
	Outcome   Outcome `json:"outcome"`
	StepIndex int     `json:"step_index,omitempty"`
	Expected  string  `json:"expected,omitempty"`
	Actual    string  `json:"actual,omitempty"`
	ExitCode  *int    `json:"exit_code,omitempty"`
	ErrorMsg  string  `json:"error,omitempty"`
}

// Passed reports whether the session passed.
func (v Verdict) Passed() bool {
	return v.Outcome == OutcomePassed
}

func (v Verdict) String() string {
	switch v.Outcome {
	case OutcomePassed:
		return "passed"
	case OutcomeMismatch:
		return fmt.Sprintf("mismatch at step %d: expected %q", v.StepIndex, v.Expected)
	case OutcomeTimedOut:
		return fmt.Sprintf("timed out at step %d: waiting for %q", v.StepIndex, v.Expected)
	case OutcomeCrashed:
		if v.ExitCode != nil {
			return fmt.Sprintf("process crashed at step %d (exit code %d)", v.StepIndex, *v.ExitCode)
		}
		return fmt.Sprintf("process crashed at step %d", v.StepIndex)
	case OutcomeSpawnFailed:
		return "spawn failed: " + v.ErrorMsg
	case OutcomeCanceled:
		return "canceled"
	}
	return string(v.Outcome)
}
