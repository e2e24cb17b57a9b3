package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/parleyhq/parley/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const echoScriptYAML = `name: echo-session
config:
  step_timeout_ms: 5000
  session_timeout_ms: 5000
steps:
  - kind: expect
    text: "ready>"
  - kind: send
    text: "hello"
  - kind: expect
    text: "echo: hello"
  - kind: send
    text: "quit"
`

func writeScript(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func resetRunFlags(t *testing.T) {
	t.Helper()
	prevOutput, prevJUnit, prevTranscript := outputPath, junitPath, transcriptDir
	prevVerbose, prevWorkers := verbose, workers
	t.Cleanup(func() {
		outputPath, junitPath, transcriptDir = prevOutput, prevJUnit, prevTranscript
		verbose, workers = prevVerbose, prevWorkers
	})
	outputPath, junitPath, transcriptDir = "", "", ""
	verbose, workers = false, 0
}

func TestLoadCases(t *testing.T) {
	path := writeScript(t, "echo.yaml", echoScriptYAML)

	cases, err := loadCases([]string{path}, "/bin/target", []string{"-x"})
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "echo-session", cases[0].Name)
	assert.Equal(t, "/bin/target", cases[0].Exe)
	assert.Equal(t, []string{"-x"}, cases[0].Args)
	assert.Len(t, cases[0].Script.Steps, 4)
}

func TestLoadCasesRejectsSchemaViolations(t *testing.T) {
	path := writeScript(t, "bad.yaml", "name: broken\nsteps:\n  - kind: shout\n    text: hi\n")

	_, err := loadCases([]string{path}, "/bin/target", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid")
}

func TestLoadCasesMissingFile(t *testing.T) {
	_, err := loadCases([]string{"/nonexistent/script.yaml"}, "/bin/target", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading script")
}

func TestRunCommandRequiresDashSeparator(t *testing.T) {
	resetRunFlags(t)
	path := writeScript(t, "echo.yaml", echoScriptYAML)

	root := newRootCommand()
	root.SetArgs([]string{"run", path, "/bin/target"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"--"`)
}

func TestRunCommandEndToEnd(t *testing.T) {
	resetRunFlags(t)
	scriptPath := writeScript(t, "echo.yaml", echoScriptYAML)
	resultPath := filepath.Join(t.TempDir(), "results.json")
	exe, fixtureArgs := fixtureCmd(t, "echo")

	root := newRootCommand()
	args := append([]string{"run", "--output", resultPath, scriptPath, "--", exe}, fixtureArgs...)
	root.SetArgs(args)
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(resultPath)
	require.NoError(t, err)

	var outcome models.SuiteOutcome
	require.NoError(t, json.Unmarshal(data, &outcome))
	require.Len(t, outcome.Sessions, 1)
	assert.Equal(t, "echo-session", outcome.Sessions[0].Name)
	assert.Equal(t, models.OutcomePassed, outcome.Sessions[0].Verdict.Outcome)
	assert.Equal(t, 1, outcome.Digest.Passed)
}

func TestRunCommandFailingSuiteExitsNonZero(t *testing.T) {
	resetRunFlags(t)
	scriptPath := writeScript(t, "timeout.yaml", `name: never-prompts
steps:
  - kind: expect
    text: "this never appears"
    timeout_ms: 200
`)
	exe, fixtureArgs := fixtureCmd(t, "silent")

	root := newRootCommand()
	args := append([]string{"run", scriptPath, "--", exe}, fixtureArgs...)
	root.SetArgs(args)
	err := root.Execute()
	require.Error(t, err)

	var sessionErr *SessionFailureError
	assert.True(t, errors.As(err, &sessionErr), "failing sessions must map to the test-failure exit code")
}

func TestLastLines(t *testing.T) {
	assert.Equal(t, "a | b | c", lastLines("a\nb\nc\n", 3))
	assert.Equal(t, "c | d", lastLines("a\nb\nc\nd", 2))
	assert.Equal(t, "x", lastLines("\n\nx\n\n", 5))
	assert.Equal(t, "", lastLines("", 3))
}
