package orchestration

import (
	"os"
	"testing"

	"github.com/parleyhq/parley/internal/testprog"
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
