// Package pidfile tracks the PID of a running kbhookd instance on
// disk, letting --status find it and check that it is alive without
// going through launchd's own bookkeeping. This
// is plain file and process-signal plumbing with no domain library in
// the example corpus addressing it; see DESIGN.md for that
// justification.
package pidfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Path is where the running instance's PID is recorded: a per-user
// well-known path under the system temp directory, following the
// convention skhd-family tools use so multiple users on the same
// machine never collide.
func Path() string {
	return os.TempDir() + "/kbhookd_" + os.Getenv("USER") + ".pid"
}

// LogPath is where a launchd-managed instance's stdout/stderr are
// redirected, alongside its PID file.
func LogPath() string {
	return os.TempDir() + "/kbhookd_" + os.Getenv("USER") + ".out.log"
}

// Write records the current process's PID at path, writing the file
// with mode 0644 (readable by the owning user's other tooling,
// e.g. a status check run outside the dispatcher).
func Write(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

// Remove deletes the PID file. A missing file is not an error — the
// dispatcher may be asked to clean up twice (e.g. on a repeated
// --stop-service).
func Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Read returns the PID recorded at path.
func Read(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, fmt.Errorf("pidfile: malformed pid in %s: %w", path, err)
	}
	return pid, nil
}

// Running reports whether the process recorded at path is alive, by
// sending it signal 0 (the standard liveness probe: no signal is
// actually delivered, only the existence/permission check runs).
func Running(path string) (pid int, alive bool) {
	pid, err := Read(path)
	if err != nil {
		return 0, false
	}
	if err := unix.Kill(pid, 0); err != nil {
		return pid, false
	}
	return pid, true
}

// Signal delivers sig to the process recorded at path.
func Signal(path string, sig unix.Signal) error {
	pid, err := Read(path)
	if err != nil {
		return err
	}
	return unix.Kill(pid, sig)
}
