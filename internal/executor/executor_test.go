package executor

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestOSRunnerRunDetaches exercises the real Runner against a trivial
// shell command. It only checks that the command starts without error;
// it does not observe the detached process afterwards.
func TestOSRunnerRunDetaches(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no /bin/sh available")
	}
	r := NewOSRunner(nil)
	err := r.Run("/bin/sh", "true", false)
	require.NoError(t, err)
}

func TestOSRunnerRunInvalidShellFails(t *testing.T) {
	r := NewOSRunner(nil)
	err := r.Run("/no/such/shell", "true", false)
	require.Error(t, err)
}

// fakeRunner records the exact shell command that would have been
// executed, without spawning processes; the assignment below checks at
// compile time that it satisfies Runner. The dispatch-engine tests use
// their own fake in that package.
type fakeRunner struct {
	calls []fakeRunnerCall
	err   error
}

type fakeRunnerCall struct {
	Shell   string
	Command string
	Verbose bool
}

func (f *fakeRunner) Run(shell, command string, verbose bool) error {
	f.calls = append(f.calls, fakeRunnerCall{Shell: shell, Command: command, Verbose: verbose})
	return f.err
}

var _ Runner = (*fakeRunner)(nil)
