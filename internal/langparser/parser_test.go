package langparser

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbhookd/kbhookd/internal/keymap"
	"github.com/kbhookd/kbhookd/internal/langerr"
	"github.com/kbhookd/kbhookd/internal/ruletable"
)

// testKeyTable builds a KeyTable over a small synthetic layout so tests
// can run without a live macOS keyboard layout (spec.md §9: the core
// logic must be testable off-macOS).
func testKeyTable() *keymap.KeyTable {
	layout := make(map[rune]uint32)
	for i, r := range "abcdefghijklmnopqrstuvwxyz0123456789" {
		layout[r] = uint32(i + 1)
	}
	return keymap.NewKeyTable(layout)
}

func filesReader(files map[string]string) FileReader {
	return func(path string) (string, error) {
		if src, ok := files[path]; ok {
			return src, nil
		}
		return "", fmt.Errorf("no such file: %s", path)
	}
}

func parseSrc(t *testing.T, src string) (*ruletable.RuleTable, error) {
	t.Helper()
	return Parse(testKeyTable(), filesReader(map[string]string{"/cfg": src}), "/cfg")
}

func TestParseSimpleWildcardCommand(t *testing.T) {
	rt, err := parseSrc(t, `alt - a : echo hi`)
	require.NoError(t, err)

	mode := rt.DefaultMode()
	require.NotNil(t, mode)
	require.Len(t, mode.Hotkeys(), 1)

	entry := mode.Hotkeys()[0]
	require.NotNil(t, entry.Wildcard)
	assert.Equal(t, ruletable.ActionCommand, entry.Wildcard.Kind)
	assert.Equal(t, "echo hi", entry.Wildcard.Command)
	assert.True(t, entry.Trigger.Mods.Has(ruletable.ModAlt))
}

func TestParsePerProcessAndWildcard(t *testing.T) {
	rt, err := parseSrc(t, `cmd - h [
	"Terminal" : echo term
	*          : echo other
]`)
	require.NoError(t, err)

	entry := rt.DefaultMode().Hotkeys()[0]
	action, ok := entry.FindAction("Terminal")
	require.True(t, ok)
	assert.Equal(t, "echo term", action.Command)

	action, ok = entry.FindAction("Finder")
	require.True(t, ok)
	assert.Equal(t, "echo other", action.Command)
}

func TestParseModeDeclarationAndActivation(t *testing.T) {
	rt, err := parseSrc(t, "::focus @\ncmd - h ; focus\n")
	require.NoError(t, err)

	focus, ok := rt.Modes["focus"]
	require.True(t, ok)
	assert.True(t, focus.Capture)

	entry := rt.DefaultMode().Hotkeys()[0]
	require.NotNil(t, entry.Wildcard)
	assert.Equal(t, ruletable.ActionActivation, entry.Wildcard.Kind)
	assert.Equal(t, "focus", entry.Wildcard.ModeName)
	assert.False(t, entry.Wildcard.HasActivationCmd)
}

func TestParseActivationReferencingUndeclaredModeFails(t *testing.T) {
	_, err := parseSrc(t, `cmd - h ; focus`)
	require.Error(t, err)

	var lerr *langerr.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, langerr.UnknownMode, lerr.Kind)
}

func TestParseArrowSetsPassthrough(t *testing.T) {
	rt, err := parseSrc(t, `alt - a -> : echo hi`)
	require.NoError(t, err)

	entry := rt.DefaultMode().Hotkeys()[0]
	assert.True(t, entry.Trigger.Mods.Has(ruletable.ModPassthrough))
}

func TestParseMacroExpansion(t *testing.T) {
	rt, err := parseSrc(t, ".define greet : echo hello {{1}} and {{2}}\nalt - a : @greet(\"west\", \"east\")\n")
	require.NoError(t, err)

	entry := rt.DefaultMode().Hotkeys()[0]
	require.NotNil(t, entry.Wildcard)
	assert.Equal(t, "echo hello west and east", entry.Wildcard.Command)
}

func TestParseMacroPlaceholderOutOfRangeFails(t *testing.T) {
	_, err := parseSrc(t, ".define greet : echo {{2}}\nalt - a : @greet(\"west\")\n")
	require.Error(t, err)

	var lerr *langerr.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, langerr.MacroPlaceholderOutOfRange, lerr.Kind)
}

func TestParseNestedMacroInvocationRejected(t *testing.T) {
	_, err := parseSrc(t, ".define outer : @inner\n")
	require.Error(t, err)

	var lerr *langerr.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, langerr.NestedMacroInvocation, lerr.Kind)
}

func TestParseUnknownMacroFails(t *testing.T) {
	_, err := parseSrc(t, `alt - a : @nope`)
	require.Error(t, err)

	var lerr *langerr.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, langerr.UnknownMacro, lerr.Kind)
}

func TestParseProcessGroupExpansion(t *testing.T) {
	rt, err := parseSrc(t, `.define editors [ "Code" "Sublime Text" ]
cmd - e [
	@editors : echo edit
]
`)
	require.NoError(t, err)

	entry := rt.DefaultMode().Hotkeys()[0]
	action, ok := entry.FindAction("Code")
	require.True(t, ok)
	assert.Equal(t, "echo edit", action.Command)

	action, ok = entry.FindAction("Sublime Text")
	require.True(t, ok)
	assert.Equal(t, "echo edit", action.Command)
}

func TestParseUnknownGroupFails(t *testing.T) {
	_, err := parseSrc(t, `cmd - e [
	@nosuch : echo edit
]`)
	require.Error(t, err)

	var lerr *langerr.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, langerr.UnknownGroup, lerr.Kind)
}

func TestParseBlacklistAndShellOptions(t *testing.T) {
	rt, err := parseSrc(t, `.shell "/bin/zsh"
.blacklist [ "1Password" "VMware Fusion" ]
`)
	require.NoError(t, err)
	assert.Equal(t, "/bin/zsh", rt.Shell)
	assert.True(t, rt.IsBlacklisted("1password"))
	assert.True(t, rt.IsBlacklisted("VMware Fusion"))
	assert.False(t, rt.IsBlacklisted("Terminal"))
}

func TestParseDuplicateWildcardConflictFails(t *testing.T) {
	_, err := parseSrc(t, "alt - a : echo one\nalt - a : echo two\n")
	require.Error(t, err)

	var lerr *langerr.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, langerr.WildcardCommandAlreadyExists, lerr.Kind)
}

func TestParseDuplicateWildcardIdempotentSucceeds(t *testing.T) {
	rt, err := parseSrc(t, "alt - a : echo one\nalt - a : echo one\n")
	require.NoError(t, err)
	assert.Len(t, rt.DefaultMode().Hotkeys(), 1)
}

func TestParseLoadDirectiveMergesIntoSameTable(t *testing.T) {
	files := map[string]string{
		"/main": ".load \"included\"\nalt - a : echo main\n",
		"/included": "alt - b : echo included\n",
	}
	rt, err := Parse(testKeyTable(), filesReader(files), "/main")
	require.NoError(t, err)
	assert.Len(t, rt.DefaultMode().Hotkeys(), 2)
	assert.Contains(t, rt.LoadedFiles, "/main")
	assert.Contains(t, rt.LoadedFiles, "/included")
}

func TestParseLoadCycleIsSilentlySkipped(t *testing.T) {
	files := map[string]string{
		"/a": ".load \"/b\"\nalt - a : echo a\n",
		"/b": ".load \"/a\"\nalt - b : echo b\n",
	}
	rt, err := Parse(testKeyTable(), filesReader(files), "/a")
	require.NoError(t, err)
	assert.Len(t, rt.DefaultMode().Hotkeys(), 2)
}

func TestParseLeftAndRightSidedModifiersDistinct(t *testing.T) {
	rt, err := parseSrc(t, "lalt - a : echo left\nralt - a : echo right\n")
	require.NoError(t, err)
	assert.Len(t, rt.DefaultMode().Hotkeys(), 2)
}

func TestParseForwardAction(t *testing.T) {
	rt, err := parseSrc(t, `alt - a | cmd - b`)
	require.NoError(t, err)

	entry := rt.DefaultMode().Hotkeys()[0]
	require.NotNil(t, entry.Wildcard)
	assert.Equal(t, ruletable.ActionForward, entry.Wildcard.Kind)
	assert.True(t, entry.Wildcard.Forward.Mods.Has(ruletable.ModCmd))
}

func TestParseUnboundAction(t *testing.T) {
	rt, err := parseSrc(t, `alt - a ~`)
	require.NoError(t, err)

	entry := rt.DefaultMode().Hotkeys()[0]
	require.NotNil(t, entry.Wildcard)
	assert.Equal(t, ruletable.ActionUnbound, entry.Wildcard.Kind)
}

func TestParseEmptyProcessClauseListFails(t *testing.T) {
	_, err := parseSrc(t, "alt - a [\n]\n")
	require.Error(t, err)

	var lerr *langerr.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, langerr.EmptyProcessList, lerr.Kind)
}
