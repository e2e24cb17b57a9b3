package main

import (
	"errors"
	"os"
	"testing"

	"github.com/parleyhq/parley/internal/testprog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureEnv = "PARLEY_WANT_FIXTURE"

func TestHelperFixtureProcess(t *testing.T) {
	if os.Getenv(fixtureEnv) != "1" {
		return
	}
	name := ""
	for i := range os.Args {
		if os.Args[i] == "--" && i+1 < len(os.Args) {
			name = os.Args[i+1]
			break
		}
	}
	os.Exit(testprog.Run(name, os.Stdin, os.Stdout))
}

// fixtureCmd returns the exe and args that re-run this test binary as the
// named fixture program.
func fixtureCmd(t *testing.T, name string) (string, []string) {
	t.Helper()
	t.Setenv(fixtureEnv, "1")
	return os.Args[0], []string{"-test.run=TestHelperFixtureProcess$", "--", name}
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCommand()
	assert.Equal(t, "parley", root.Name())

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["validate"])
}

func TestSessionFailureError(t *testing.T) {
	var err error = &SessionFailureError{Message: "2 of 3 session(s) not passing"}

	var sessionErr *SessionFailureError
	require.True(t, errors.As(err, &sessionErr))
	assert.Equal(t, "2 of 3 session(s) not passing", sessionErr.Error())
}
