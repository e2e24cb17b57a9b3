package execution

import (
	"os"
	"testing"

	"github.com/parleyhq/parley/internal/testprog"
)

// fixtureEnv guards the helper-process entry point: tests set it before
// re-execing the test binary so the child runs a fixture program instead of
// the test suite.
const fixtureEnv = "PARLEY_WANT_FIXTURE"

func TestHelperFixtureProcess(t *testing.T) {
	if os.Getenv(fixtureEnv) != "1" {
		return
	}
	os.Exit(testprog.Run(fixtureArg(os.Args), os.Stdin, os.Stdout))
}

// fixtureArg returns the fixture name following "--" on the command line.
func fixtureArg(args []string) string {
	for i := range args {
		if args[i] == "--" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// fixtureCmd returns the exe and args that re-run this test binary as the
// named fixture program.
func fixtureCmd(t *testing.T, name string) (string, []string) {
	t.Helper()
	t.Setenv(fixtureEnv, "1")
	return os.Args[0], []string{"-test.run=TestHelperFixtureProcess$", "--", name}
}
