package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess       = 0 // All sessions passed
	ExitSessionFailed = 1 // One or more sessions did not pass
	ExitError         = 2 // Configuration or runtime error
)

// SessionFailureError indicates that the suite ran to completion,
// but one or more sessions did not end in a passing verdict.
type SessionFailureError struct {
	Message string
}

func (e *SessionFailureError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		// Check error type to determine exit code
		var sessionErr *SessionFailureError
		if errors.As(err, &sessionErr) {
			os.Exit(ExitSessionFailed)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}
