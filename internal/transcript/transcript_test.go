package transcript

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilename(t *testing.T) {
	ts := time.Date(2026, 8, 23, 14, 30, 5, 0, time.UTC)

	tests := []struct {
		name    string
		session string
		want    string
	}{
		{"simple", "quiz", "quiz-20260823-143005.json"},
		{"spaces and case", "My Quiz Run", "my-quiz-run-20260823-143005.json"},
		{"unsafe chars stripped", "a/b:c*d", "abcd-20260823-143005.json"},
		{"empty falls back", "///", "unnamed-20260823-143005.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.session, ts))
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "transcripts")
	ts := time.Date(2026, 8, 23, 14, 30, 5, 0, time.UTC)

	sr := &models.SessionResult{
		Name:    "quiz",
		Verdict: models.Verdict{Outcome: models.OutcomePassed},
		Events: []models.Event{
			{Kind: models.EventOutput, Data: "Q1: What is 2+2?\n"},
			{Kind: models.EventInput, Data: "4\n"},
			{Kind: models.EventExit, ExitCode: 0},
		},
		DurationMs: 1200,
	}

	path, err := Write(dir, ts, sr)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "quiz-20260823-143005.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got models.SessionResult
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "quiz", got.Name)
	assert.Equal(t, models.OutcomePassed, got.Verdict.Outcome)
	require.Len(t, got.Events, 3)
	assert.Equal(t, "4\n", got.Events[1].Data)
}
