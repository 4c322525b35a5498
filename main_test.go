package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbhookd/kbhookd/internal/keymap"
)

// testKeyTableForMain mirrors internal/langparser's synthetic test
// layout so CLI-level tests can parse real configuration text without a
// live macOS keyboard layout.
func testKeyTableForMain() *keymap.KeyTable {
	layout := make(map[rune]uint32)
	for i, r := range "abcdefghijklmnopqrstuvwxyz0123456789" {
		layout[r] = uint32(i + 1)
	}
	return keymap.NewKeyTable(layout)
}

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}

func TestParseDefaults(t *testing.T) {
	opts, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "", opts.ConfigPath)
	assert.False(t, opts.Reload)
	assert.False(t, opts.Verbose)
	assert.False(t, opts.Version)
}

func TestParseConfigFlagMarksExplicit(t *testing.T) {
	opts, err := Parse([]string{"--config", "/tmp/custom.kbhookdrc"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.kbhookdrc", opts.ConfigPath)
	assert.True(t, opts.configPathSet)
}

func TestParseConfigFlagNotSetWhenAbsent(t *testing.T) {
	opts, err := Parse([]string{"--reload"})
	require.NoError(t, err)
	assert.False(t, opts.configPathSet)
	assert.True(t, opts.Reload)
}

func TestParseServiceFlags(t *testing.T) {
	opts, err := Parse([]string{"--install-service"})
	require.NoError(t, err)
	assert.True(t, opts.InstallService)

	opts, err = Parse([]string{"--status"})
	require.NoError(t, err)
	assert.True(t, opts.Status)
}

func TestParseVersionShorthand(t *testing.T) {
	opts, err := Parse([]string{"-v"})
	require.NoError(t, err)
	assert.True(t, opts.Version)
}

func TestParseValidateFlag(t *testing.T) {
	opts, err := Parse([]string{"--validate", "--config", "/tmp/x.kbhookdrc"})
	require.NoError(t, err)
	assert.True(t, opts.Validate)
	assert.Equal(t, "/tmp/x.kbhookdrc", opts.ConfigPath)
}

func TestParseUnknownFlagFails(t *testing.T) {
	_, err := Parse([]string{"--does-not-exist"})
	assert.Error(t, err)
}

func TestRunValidateReportsSuccess(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/kbhookdrc"
	require.NoError(t, writeFile(path, "alt - a : open -a Terminal\n"))

	keys := testKeyTableForMain()
	code := runValidate(keys, path)
	assert.Equal(t, 0, code)
}

func TestRunValidateReportsParseError(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/kbhookdrc"
	require.NoError(t, writeFile(path, "alt - : open -a Terminal\n"))

	keys := testKeyTableForMain()
	code := runValidate(keys, path)
	assert.Equal(t, 1, code)
}
