package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/orchestration"
	"github.com/parleyhq/parley/internal/reporting"
	"github.com/parleyhq/parley/internal/transcript"
	"github.com/parleyhq/parley/internal/validation"
	"github.com/spf13/cobra"
)

var (
	outputPath    string
	junitPath     string
	transcriptDir string
	verbose       bool
	workers       int
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script.yaml>... -- <executable> [args...]",
		Short: "Run scripted sessions against a target executable",
		Long: `Run one or more conversation scripts against a target executable.

Each script runs in its own session against a fresh process instance.
Everything before "--" is a script file; everything after it is the target
executable and its arguments.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runCommandE,
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output JSON file for results")
	cmd.Flags().StringVar(&junitPath, "junit", "", "Output JUnit XML file for CI systems")
	cmd.Flags().StringVar(&transcriptDir, "transcript-dir", "", "Directory to save per-session transcript JSON files")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output with detailed progress")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of concurrent sessions (default: 4)")

	return cmd
}

func runCommandE(cmd *cobra.Command, args []string) error {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		return fmt.Errorf("missing \"--\" separator before the target executable")
	}
	scriptPaths := args[:dash]
	target := args[dash:]
	if len(scriptPaths) == 0 {
		return fmt.Errorf("no script files given before \"--\"")
	}
	if len(target) == 0 {
		return fmt.Errorf("no target executable given after \"--\"")
	}
	exe, exeArgs := target[0], target[1:]

	cases, err := loadCases(scriptPaths, exe, exeArgs)
	if err != nil {
		return err
	}

	runner := orchestration.NewRunner(orchestration.WithWorkers(workers))
	if verbose {
		runner.OnProgress(verboseProgressListener)
	} else {
		runner.OnProgress(simpleProgressListener)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Printf("Target: %s\n", strings.Join(target, " "))
	fmt.Printf("Sessions: %d\n\n", len(cases))

	outcome, err := runner.Run(ctx, cases)
	if err != nil {
		return fmt.Errorf("suite failed: %w", err)
	}

	printSummary(outcome)

	if outputPath != "" {
		if err := saveOutcome(outcome, outputPath); err != nil {
			return fmt.Errorf("failed to save output: %w", err)
		}
		fmt.Printf("\nResults saved to: %s\n", outputPath)
	}

	if junitPath != "" {
		if err := reporting.WriteJUnitXML(outcome, junitPath); err != nil {
			return fmt.Errorf("failed to save JUnit report: %w", err)
		}
		fmt.Printf("JUnit report saved to: %s\n", junitPath)
	}

	if transcriptDir != "" {
		for i := range outcome.Sessions {
			if _, err := transcript.Write(transcriptDir, outcome.Timestamp, &outcome.Sessions[i]); err != nil {
				return fmt.Errorf("failed to save transcript: %w", err)
			}
		}
		fmt.Printf("Transcripts saved to: %s\n", transcriptDir)
	}

	failed := outcome.Digest.Total - outcome.Digest.Passed
	if failed > 0 {
		return &SessionFailureError{
			Message: fmt.Sprintf("suite completed with %d of %d session(s) not passing", failed, outcome.Digest.Total),
		}
	}

	return nil
}

// loadCases validates and loads every script file and pairs each with the
// target executable. Schema violations are reported per file, all at once.
func loadCases(paths []string, exe string, exeArgs []string) ([]orchestration.Case, error) {
	cases := make([]orchestration.Case, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading script %s: %w", path, err)
		}
		if violations := validation.ValidateScriptBytes(data); len(violations) > 0 {
			return nil, fmt.Errorf("script %s is invalid:\n  %s", path, strings.Join(violations, "\n  "))
		}
		script, err := models.ParseScript(data)
		if err != nil {
			return nil, fmt.Errorf("loading script %s: %w", path, err)
		}

		name := script.Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		cases = append(cases, orchestration.Case{
			Name:   name,
			Exe:    exe,
			Args:   exeArgs,
			Script: script,
		})
	}
	return cases, nil
}

func verboseProgressListener(event orchestration.ProgressEvent) {
	switch event.EventType {
	case orchestration.EventSuiteStart:
		fmt.Printf("Starting suite with %d session(s)...\n\n", event.Total)
	case orchestration.EventSessionStart:
		fmt.Printf("[%d/%d] Running session: %s\n", event.Num, event.Total, event.Name)
	case orchestration.EventSessionComplete:
		duration := time.Duration(event.DurationMs) * time.Millisecond
		fmt.Printf("[%d/%d] Session %s: %s (%v)\n", event.Num, event.Total, event.Name, event.Verdict, duration)
	case orchestration.EventSuiteComplete:
		duration := time.Duration(event.DurationMs) * time.Millisecond
		fmt.Printf("\nSuite completed in %v\n\n", duration)
	}
}

func simpleProgressListener(event orchestration.ProgressEvent) {
	if event.EventType != orchestration.EventSessionComplete {
		return
	}
	status := "✓"
	if !event.Verdict.Passed() {
		status = "✗"
	}
	fmt.Printf("%s [%d/%d] %s\n", status, event.Num, event.Total, event.Name)
}

func printSummary(outcome *models.SuiteOutcome) {
	fmt.Println("=" + strings.Repeat("=", 50))
	fmt.Println(" SESSION RESULTS")
	fmt.Println("=" + strings.Repeat("=", 50))
	fmt.Println()

	digest := outcome.Digest

	fmt.Printf("Total Sessions: %d\n", digest.Total)
	fmt.Printf("Passed:         %d\n", digest.Passed)
	fmt.Printf("Mismatched:     %d\n", digest.Mismatched)
	fmt.Printf("Timed Out:      %d\n", digest.TimedOut)
	fmt.Printf("Crashed:        %d\n", digest.Crashed)
	fmt.Printf("Spawn Failed:   %d\n", digest.SpawnFailed)
	fmt.Printf("Canceled:       %d\n", digest.Canceled)
	fmt.Printf("Success Rate:   %.1f%%\n", digest.SuccessRate*100)

	duration := time.Duration(digest.DurationMs) * time.Millisecond
	fmt.Printf("Duration:       %v\n", duration)
	fmt.Println()

	// Show failed sessions with enough context to diagnose without re-running
	failed := digest.Total - digest.Passed
	if failed == 0 {
		return
	}
	fmt.Println("Failed Sessions:")
	for _, sr := range outcome.Sessions {
		if sr.Verdict.Passed() {
			continue
		}
		fmt.Printf("  - %s: %s\n", sr.Name, sr.Verdict)
		if sr.Verdict.Actual != "" {
			fmt.Printf("    last output: %s\n", lastLines(sr.Verdict.Actual, 3))
		}
		if sr.Verdict.ErrorMsg != "" {
			fmt.Printf("    error: %s\n", sr.Verdict.ErrorMsg)
		}
	}
	fmt.Println()
}

// lastLines returns up to n trailing non-empty lines of s, joined by " | ".
func lastLines(s string, n int) string {
	var lines []string
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

func saveOutcome(outcome *models.SuiteOutcome, path string) error {
	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
