package models

import "time"

// SessionResult is the result of one script run against one process instance.
type SessionResult struct {
	Name       string  `json:"name"`
	Verdict    Verdict `json:"verdict"`
	Events     []Event `json:"events,omitempty"`
	DurationMs int64   `json:"duration_ms"`
}

// SuiteDigest summarizes a suite run.
type SuiteDigest struct {
	Total       int     `json:"total"`
	Passed      int     `json:"passed"`
	Mismatched  int     `json:"mismatched"`
	TimedOut    int     `json:"timed_out"`
	Crashed     int     `json:"crashed"`
	SpawnFailed int     `json:"spawn_failed"`
	Canceled    int     `json:"canceled"`
	SuccessRate float64 `json:"success_rate"`
	DurationMs  int64   `json:"duration_ms"`
}

// SuiteOutcome is the aggregate result of running many independent sessions.
type SuiteOutcome struct {
	RunID     string          `json:"run_id"`
	Timestamp time.Time       `json:"timestamp"`
	Digest    SuiteDigest     `json:"summary"`
	Sessions  []SessionResult `json:"sessions"`
}

// BuildDigest computes the digest counts from session results.
func BuildDigest(sessions []SessionResult, started time.Time) SuiteDigest {
	d := SuiteDigest{
		Total:      len(sessions),
		DurationMs: time.Since(started).Milliseconds(),
	}
	for i := range sessions {
		switch sessions[i].Verdict.Outcome {
		case OutcomePassed:
			d.Passed++
		case OutcomeMismatch:
			d.Mismatched++
		case OutcomeTimedOut:
			d.TimedOut++
		case OutcomeCrashed:
			d.Crashed++
		case OutcomeSpawnFailed:
			d.SpawnFailed++
		case OutcomeCanceled:
			d.Canceled++
		}
	}
	if d.Total > 0 {
		d.SuccessRate = float64(d.Passed) / float64(d.Total)
	}
	return d
}
