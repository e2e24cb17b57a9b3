// Package reporting converts suite outcomes into external report formats.
package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"

	"github.com/parleyhq/parley/internal/models"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one suite run.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one session.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
}

// JUnitFailure represents a script expectation that was not met.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitError represents a session that could not run to a conformance verdict.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit converts a SuiteOutcome to JUnit XML format. Mismatched and
// timed-out sessions map to failures; crashed, spawn-failed and canceled
// sessions map to errors, since the script never got a fair hearing.
func ConvertToJUnit(outcome *models.SuiteOutcome) *JUnitTestSuites {
	durationSec := float64(outcome.Digest.DurationMs) / 1000.0
	failures := outcome.Digest.Mismatched + outcome.Digest.TimedOut
	errors := outcome.Digest.Crashed + outcome.Digest.SpawnFailed + outcome.Digest.Canceled

	suite := JUnitTestSuite{
		Name:      outcome.RunID,
		Tests:     outcome.Digest.Total,
		Failures:  failures,
		Errors:    errors,
		Time:      durationSec,
		Timestamp: outcome.Timestamp.Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "success_rate", Value: fmt.Sprintf("%.4f", outcome.Digest.SuccessRate)},
		},
	}

	for i := range outcome.Sessions {
		suite.TestCases = append(suite.TestCases, convertSession(outcome.RunID, &outcome.Sessions[i]))
	}

	return &JUnitTestSuites{
		Tests:      outcome.Digest.Total,
		Failures:   failures,
		Errors:     errors,
		Time:       durationSec,
		TestSuites: []JUnitTestSuite{suite},
	}
}

func convertSession(runID string, sr *models.SessionResult) JUnitTestCase {
	tc := JUnitTestCase{
		Name:      sr.Name,
		Classname: runID,
		Time:      float64(sr.DurationMs) / 1000.0,
	}

	switch sr.Verdict.Outcome {
	case models.OutcomePassed:
	case models.OutcomeMismatch, models.OutcomeTimedOut:
		tc.Failure = buildFailure(&sr.Verdict)
	default:
		tc.Error = buildError(&sr.Verdict)
	}

	return tc
}

func buildFailure(v *models.Verdict) *JUnitFailure {
	body := ""
	if v.Actual != "" {
		body = "last output:\n" + v.Actual
	}
	return &JUnitFailure{
		Message: v.String(),
		Type:    string(v.Outcome),
		Body:    body,
	}
}

func buildError(v *models.Verdict) *JUnitError {
	msg := v.String()
	if v.ErrorMsg != "" && v.Outcome == models.OutcomeSpawnFailed {
		msg = v.ErrorMsg
	}
	return &JUnitError{
		Message: msg,
		Type:    string(v.Outcome),
		Body:    v.ErrorMsg,
	}
}

// WriteJUnitXML writes JUnit XML to the specified file path.
func WriteJUnitXML(outcome *models.SuiteOutcome, path string) error {
	suites := ConvertToJUnit(outcome)

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	output := append([]byte(xml.Header), data...)
	return os.WriteFile(path, output, 0644)
}
