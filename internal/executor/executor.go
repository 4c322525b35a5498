// Package executor runs configured shell commands fully detached from
// the dispatcher (spec.md §4.F). Classic double-fork is not a syscall
// Go exposes directly; the session-detachment half of that contract
// (no controlling terminal, immune to SIGHUP on ours) comes from
// Setsid in SysProcAttr. kbhookd remains the command's real parent of
// record regardless of Setsid, so the zombie-avoidance half comes from
// always reaping it: an unsupervised background goroutine calls
// cmd.Wait() for every command, independent of Run's own return.
package executor

import (
	"os"
	"os/exec"
	"syscall"

	"go.uber.org/zap"
)

// Runner is the interface the dispatch engine depends on, following the
// teacher's pattern of interface-wrapping os/exec for testability
// (utils.CommandExecutor).
type Runner interface {
	Run(shell, command string, verbose bool) error
}

// OSRunner is the real Runner, backed by os/exec and syscall.Setsid.
type OSRunner struct {
	Logger *zap.Logger
}

// NewOSRunner builds an OSRunner. logger may be nil, in which case
// zap.NewNop() is used.
func NewOSRunner(logger *zap.Logger) *OSRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OSRunner{Logger: logger}
}

// Run launches `shell -c command` fully detached (spec.md §4.F): Setsid
// moves it to a new session with no controlling terminal, and a
// background goroutine reaps it via Wait so it never lingers as a
// zombie under kbhookd's PID, however long kbhookd itself keeps
// running. Run itself returns as soon as the command has started — it
// never blocks on the command's completion.
//
// When verbose is false, stdout/stderr are redirected to the null
// device; verbose runs inherit the dispatcher's own streams so a user
// debugging a misbehaving hotkey can see the command's output.
func (r *OSRunner) Run(shell, command string, verbose bool) error {
	cmd := exec.Command(shell, "-c", command)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if verbose {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		null, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			return err
		}
		defer null.Close()
		cmd.Stdout = null
		cmd.Stderr = null
	}

	if err := cmd.Start(); err != nil {
		r.Logger.Warn("command failed to start", zap.String("shell", shell), zap.Error(err))
		return err
	}
	pid := cmd.Process.Pid
	r.Logger.Debug("dispatched detached command", zap.Int("pid", pid), zap.String("shell", shell))

	go func() {
		if err := cmd.Wait(); err != nil {
			r.Logger.Debug("detached command exited with error", zap.Int("pid", pid), zap.Error(err))
		}
	}()
	return nil
}

