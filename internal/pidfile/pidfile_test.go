package pidfile

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathIsPerUserUnderTempDir(t *testing.T) {
	p := Path()
	assert.Contains(t, p, os.TempDir())
	assert.Contains(t, p, "kbhookd_"+os.Getenv("USER"))
	assert.NotEqual(t, p, LogPath())
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kbhookd.pid")
	require.NoError(t, Write(path))

	pid, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestRemoveMissingFileIsNotError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.pid")
	assert.NoError(t, Remove(path))
}

func TestRunningReportsSelfAlive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kbhookd.pid")
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644))

	pid, alive := Running(path)
	assert.Equal(t, os.Getpid(), pid)
	assert.True(t, alive)
}

func TestRunningReportsDeadForBogusPid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kbhookd.pid")
	// PID 999999 is vanishingly unlikely to exist on any test host.
	require.NoError(t, os.WriteFile(path, []byte("999999"), 0o644))

	_, alive := Running(path)
	assert.False(t, alive)
}

func TestReadMalformedPidFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kbhookd.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0o644))

	_, err := Read(path)
	assert.Error(t, err)
}
