package reload

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbhookd/kbhookd/internal/keymap"
	"github.com/kbhookd/kbhookd/internal/ruletable"
)

func testKeyTable() *keymap.KeyTable {
	layout := make(map[rune]uint32)
	for i, r := range "abcdefghijklmnopqrstuvwxyz0123456789" {
		layout[r] = uint32(i + 1)
	}
	return keymap.NewKeyTable(layout)
}

type fakeEngine struct {
	tables chan *ruletable.RuleTable
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{tables: make(chan *ruletable.RuleTable, 16)}
}

func (f *fakeEngine) SetTable(rt *ruletable.RuleTable) {
	f.tables <- rt
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestControllerReloadAppliesValidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "kbhookdrc")
	writeFile(t, cfgPath, `alt - a : echo hi`)

	engine := newFakeEngine()
	c, err := New(cfgPath, testKeyTable(), engine, nil, nil)
	require.NoError(t, err)
	defer c.Close()

	c.Reload()

	select {
	case rt := <-engine.tables:
		require.NotNil(t, rt)
		assert.Len(t, rt.DefaultMode().Hotkeys(), 1)
	default:
		t.Fatal("expected Reload to call SetTable")
	}
}

func TestControllerReloadKeepsRunningTableOnParseError(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "kbhookdrc")
	writeFile(t, cfgPath, `alt - a : echo hi`)

	engine := newFakeEngine()
	c, err := New(cfgPath, testKeyTable(), engine, nil, nil)
	require.NoError(t, err)
	defer c.Close()

	c.Reload()
	<-engine.tables // drain the first successful load

	writeFile(t, cfgPath, `this is not valid kbhookd syntax {{{`)
	c.Reload()

	select {
	case <-engine.tables:
		t.Fatal("SetTable must not be called again after a parse error")
	default:
	}
}

func TestControllerWatchesLoadedFiles(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "kbhookdrc")
	includedPath := filepath.Join(dir, "included.khd")
	writeFile(t, includedPath, `cmd - b : echo included`)
	writeFile(t, cfgPath, `.load "included.khd"
alt - a : echo hi`)

	engine := newFakeEngine()
	c, err := New(cfgPath, testKeyTable(), engine, nil, nil)
	require.NoError(t, err)
	defer c.Close()

	c.Reload()
	rt := <-engine.tables
	require.Len(t, rt.DefaultMode().Hotkeys(), 2)

	c.mu.Lock()
	_, watchingIncluded := c.watched[includedPath]
	c.mu.Unlock()
	assert.True(t, watchingIncluded)
}

func TestControllerStartDebouncesAndReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "kbhookdrc")
	writeFile(t, cfgPath, `alt - a : echo hi`)

	engine := newFakeEngine()
	c, err := New(cfgPath, testKeyTable(), engine, nil, nil)
	require.NoError(t, err)
	defer c.Close()

	c.Reload()
	<-engine.tables

	stop := make(chan struct{})
	go c.Start(stop)
	defer close(stop)

	writeFile(t, cfgPath, `alt - a : echo hi
cmd - b : echo added`)

	select {
	case rt := <-engine.tables:
		assert.Len(t, rt.DefaultMode().Hotkeys(), 2)
	case <-time.After(3 * time.Second):
		t.Fatal("expected a debounced reload after the file write")
	}
}
