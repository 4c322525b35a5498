package dispatch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbhookd/kbhookd/internal/eventtap"
	"github.com/kbhookd/kbhookd/internal/ruletable"
)

// fakeRunner is a local Runner test double; internal/executor's own
// fakeRunner is unexported and package-test-local, so each consumer
// defines its own.
type fakeRunner struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeRunner) Run(shell, command string, verbose bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, command)
	return nil
}

func (f *fakeRunner) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

type fakeLookup struct {
	name string
}

func (f *fakeLookup) Name() (string, error) { return f.name, nil }
func (f *fakeLookup) Subscribe(onChange func()) func() {
	return func() {}
}

type fakeSynth struct {
	mu    sync.Mutex
	posts []uint32
	mods  []uint32
}

func (f *fakeSynth) PostKeyEvent(keycode uint32, mods uint32, down bool, marker uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, keycode)
	f.mods = append(f.mods, mods)
	return nil
}

func newTestEngine(frontmostName string) (*Engine, *fakeRunner, *fakeSynth) {
	runner := &fakeRunner{}
	synth := &fakeSynth{}
	e := New(Config{
		Frontmost: &fakeLookup{name: frontmostName},
		Synth:     synth,
		Exec:      runner,
	})
	return e, runner, synth
}

func tableWithRule(trigger ruletable.KeyPress, action ruletable.ProcessAction) *ruletable.RuleTable {
	rt := ruletable.New()
	mode := rt.GetOrCreateMode(ruletable.DefaultModeName)
	mode.GetOrCreateRule(trigger).SetWildcard(action)
	return rt
}

func TestEngineNoActiveModePassesThrough(t *testing.T) {
	e, _, _ := newTestEngine("Finder")
	decision := e.Handle(eventtap.Event{Kind: eventtap.KindKeyDown, Keycode: 10})
	assert.Equal(t, eventtap.Unchanged, decision)
}

func TestEngineSelfEventMarkerIgnored(t *testing.T) {
	e, runner, _ := newTestEngine("Finder")
	trigger := ruletable.KeyPress{Keycode: 10}
	e.SetTable(tableWithRule(trigger, ruletable.ProcessAction{Kind: ruletable.ActionCommand, Command: "echo hi"}))

	decision := e.Handle(eventtap.Event{Kind: eventtap.KindKeyDown, Keycode: 10, Marker: SelfEventMarker})
	assert.Equal(t, eventtap.Unchanged, decision)
	assert.Empty(t, runner.commands())
}

func TestEngineBlacklistedFrontmostPassesThrough(t *testing.T) {
	e, runner, _ := newTestEngine("blocked-app")
	trigger := ruletable.KeyPress{Keycode: 10}
	rt := tableWithRule(trigger, ruletable.ProcessAction{Kind: ruletable.ActionCommand, Command: "echo hi"})
	rt.Blacklist["blocked-app"] = true
	e.SetTable(rt)

	decision := e.Handle(eventtap.Event{Kind: eventtap.KindKeyDown, Keycode: 10})
	assert.Equal(t, eventtap.Unchanged, decision)
	assert.Empty(t, runner.commands())
}

func TestEngineNoMatchNonCapturingPassesThrough(t *testing.T) {
	e, _, _ := newTestEngine("Finder")
	rt := ruletable.New()
	rt.GetOrCreateMode(ruletable.DefaultModeName)
	e.SetTable(rt)

	decision := e.Handle(eventtap.Event{Kind: eventtap.KindKeyDown, Keycode: 99})
	assert.Equal(t, eventtap.Unchanged, decision)
}

func TestEngineNoMatchCapturingConsumes(t *testing.T) {
	e, _, _ := newTestEngine("Finder")
	rt := ruletable.New()
	mode := rt.GetOrCreateMode(ruletable.DefaultModeName)
	mode.Capture = true
	e.SetTable(rt)

	decision := e.Handle(eventtap.Event{Kind: eventtap.KindKeyDown, Keycode: 99})
	assert.Equal(t, eventtap.Consumed, decision)
}

func TestEngineNoApplicableActionPassesThrough(t *testing.T) {
	e, _, _ := newTestEngine("Finder")
	rt := ruletable.New()
	mode := rt.GetOrCreateMode(ruletable.DefaultModeName)
	entry := mode.GetOrCreateRule(ruletable.KeyPress{Keycode: 10})
	require.NoError(t, entry.SetProcessAction("SomeOtherApp", ruletable.ProcessAction{Kind: ruletable.ActionCommand, Command: "echo hi"}))
	e.SetTable(rt)

	decision := e.Handle(eventtap.Event{Kind: eventtap.KindKeyDown, Keycode: 10})
	assert.Equal(t, eventtap.Unchanged, decision)
}

func TestEngineUnboundActionPassesThrough(t *testing.T) {
	e, runner, _ := newTestEngine("Finder")
	e.SetTable(tableWithRule(ruletable.KeyPress{Keycode: 10}, ruletable.UnboundAction))

	decision := e.Handle(eventtap.Event{Kind: eventtap.KindKeyDown, Keycode: 10})
	assert.Equal(t, eventtap.Unchanged, decision)
	assert.Empty(t, runner.commands())
}

func TestEngineCommandActionConsumesAndRuns(t *testing.T) {
	e, runner, _ := newTestEngine("Finder")
	e.SetTable(tableWithRule(ruletable.KeyPress{Keycode: 10}, ruletable.ProcessAction{Kind: ruletable.ActionCommand, Command: "say hi"}))

	decision := e.Handle(eventtap.Event{Kind: eventtap.KindKeyDown, Keycode: 10})
	assert.Equal(t, eventtap.Consumed, decision)
	assert.Equal(t, []string{"say hi"}, runner.commands())
}

func TestEngineCommandActionWithPassthroughDoesNotConsume(t *testing.T) {
	e, runner, _ := newTestEngine("Finder")
	trigger := ruletable.KeyPress{Keycode: 10, Mods: ruletable.ModPassthrough}
	e.SetTable(tableWithRule(trigger, ruletable.ProcessAction{Kind: ruletable.ActionCommand, Command: "say hi"}))

	decision := e.Handle(eventtap.Event{Kind: eventtap.KindKeyDown, Keycode: 10})
	assert.Equal(t, eventtap.Unchanged, decision)
	assert.Equal(t, []string{"say hi"}, runner.commands())
}

func TestEngineForwardActionSynthesizesDownAndUp(t *testing.T) {
	e, _, synth := newTestEngine("Finder")
	e.SetTable(tableWithRule(ruletable.KeyPress{Keycode: 10}, ruletable.ProcessAction{Kind: ruletable.ActionForward, Forward: ruletable.KeyPress{Keycode: 42}}))

	decision := e.Handle(eventtap.Event{Kind: eventtap.KindKeyDown, Keycode: 10})
	assert.Equal(t, eventtap.Consumed, decision)
	assert.Equal(t, []uint32{42, 42}, synth.posts)
	assert.Equal(t, []uint32{0, 0}, synth.mods)
}

// A forwarded hotkey configured with modifiers (e.g. forward(ctrl - p))
// must carry those modifiers into the synthesized event, not just the
// bare keycode.
func TestEngineForwardActionCarriesConfiguredModifiers(t *testing.T) {
	e, _, synth := newTestEngine("Finder")
	forward := ruletable.KeyPress{Keycode: 42, Mods: ruletable.ModLControl}
	e.SetTable(tableWithRule(ruletable.KeyPress{Keycode: 10}, ruletable.ProcessAction{Kind: ruletable.ActionForward, Forward: forward}))

	decision := e.Handle(eventtap.Event{Kind: eventtap.KindKeyDown, Keycode: 10})
	assert.Equal(t, eventtap.Consumed, decision)
	assert.Equal(t, []uint32{42, 42}, synth.posts)
	require.Len(t, synth.mods, 2)
	assert.Equal(t, uint32(flagLControl|flagControl), synth.mods[0])
	assert.Equal(t, synth.mods[0], synth.mods[1])
}

func TestEngineActivationSwitchesModeAndRunsOnEntry(t *testing.T) {
	e, runner, _ := newTestEngine("Finder")
	rt := ruletable.New()
	rt.GetOrCreateMode(ruletable.DefaultModeName)
	target := rt.GetOrCreateMode("resize")
	target.OnEntry = "notify resize"
	target.HasOnEntry = true
	defaultMode := rt.GetOrCreateMode(ruletable.DefaultModeName)
	defaultMode.GetOrCreateRule(ruletable.KeyPress{Keycode: 10}).SetWildcard(ruletable.ProcessAction{
		Kind: ruletable.ActionActivation, ModeName: "resize",
	})
	e.SetTable(rt)

	decision := e.Handle(eventtap.Event{Kind: eventtap.KindKeyDown, Keycode: 10})
	assert.Equal(t, eventtap.Consumed, decision)
	assert.Same(t, target, e.CurrentMode())
	assert.Equal(t, []string{"notify resize"}, runner.commands())
}

func TestEngineActivationWithCommandRunsBoth(t *testing.T) {
	e, runner, _ := newTestEngine("Finder")
	rt := ruletable.New()
	rt.GetOrCreateMode(ruletable.DefaultModeName)
	rt.GetOrCreateMode("resize")
	rt.GetOrCreateMode(ruletable.DefaultModeName).GetOrCreateRule(ruletable.KeyPress{Keycode: 10}).SetWildcard(ruletable.ProcessAction{
		Kind: ruletable.ActionActivation, ModeName: "resize",
		HasActivationCmd: true, ActivationCommand: "echo entering",
	})
	e.SetTable(rt)

	e.Handle(eventtap.Event{Kind: eventtap.KindKeyDown, Keycode: 10})
	assert.Equal(t, []string{"echo entering"}, runner.commands())
	assert.Equal(t, "resize", e.CurrentMode().Name)
}

func TestEngineActivationUnknownModeFallsBackToDefault(t *testing.T) {
	e, _, _ := newTestEngine("Finder")
	rt := ruletable.New()
	def := rt.GetOrCreateMode(ruletable.DefaultModeName)
	other := rt.GetOrCreateMode("other")
	other.GetOrCreateRule(ruletable.KeyPress{Keycode: 10}).SetWildcard(ruletable.ProcessAction{
		Kind: ruletable.ActionActivation, ModeName: "nonexistent",
	})
	e.SetTable(rt)
	e.mode.Store(other)

	decision := e.Handle(eventtap.Event{Kind: eventtap.KindKeyDown, Keycode: 10})
	assert.Equal(t, eventtap.Consumed, decision)
	assert.Same(t, def, e.CurrentMode())
}

func TestEngineSystemDefinedKeyUpIgnored(t *testing.T) {
	e, _, _ := newTestEngine("Finder")
	e.SetTable(tableWithRule(ruletable.KeyPress{Keycode: 10, Mods: ruletable.ModNX}, ruletable.ProcessAction{Kind: ruletable.ActionCommand, Command: "echo hi"}))

	decision := e.Handle(eventtap.Event{Kind: eventtap.KindSystemDefined, Keycode: 10, IsKeyDown: false})
	assert.Equal(t, eventtap.Unchanged, decision)
}

func TestEngineSystemDefinedKeyDownMatches(t *testing.T) {
	e, runner, _ := newTestEngine("Finder")
	e.SetTable(tableWithRule(ruletable.KeyPress{Keycode: 10, Mods: ruletable.ModNX}, ruletable.ProcessAction{Kind: ruletable.ActionCommand, Command: "echo hi"}))

	decision := e.Handle(eventtap.Event{Kind: eventtap.KindSystemDefined, Keycode: 10, IsKeyDown: true})
	assert.Equal(t, eventtap.Consumed, decision)
	assert.Equal(t, []string{"echo hi"}, runner.commands())
}

func TestEngineDisabledEventPassesThrough(t *testing.T) {
	e, _, _ := newTestEngine("Finder")
	decision := e.Handle(eventtap.Event{Kind: eventtap.KindDisabled})
	assert.Equal(t, eventtap.Unchanged, decision)
}

func TestEnginePerProcessOverridesWildcard(t *testing.T) {
	e, runner, _ := newTestEngine("Finder")
	rt := ruletable.New()
	mode := rt.GetOrCreateMode(ruletable.DefaultModeName)
	entry := mode.GetOrCreateRule(ruletable.KeyPress{Keycode: 10})
	require.NoError(t, entry.SetWildcard(ruletable.ProcessAction{Kind: ruletable.ActionCommand, Command: "wildcard cmd"}))
	require.NoError(t, entry.SetProcessAction("Finder", ruletable.ProcessAction{Kind: ruletable.ActionCommand, Command: "finder cmd"}))
	e.SetTable(rt)

	e.Handle(eventtap.Event{Kind: eventtap.KindKeyDown, Keycode: 10})
	assert.Equal(t, []string{"finder cmd"}, runner.commands())
}

func TestDecodeModifiersGeneralVsSided(t *testing.T) {
	// lalt sided bit set directly; general alt bit absent because the
	// sided private bit is present (spec.md §4.E rule).
	got := decodeModifiers(flagLAlt | flagAlt)
	assert.True(t, got.Has(ruletable.ModLAlt))
	assert.False(t, got.Has(ruletable.ModAlt))

	// general mask alone (no sided private bit) yields the general bit.
	got = decodeModifiers(flagCmd)
	assert.True(t, got.Has(ruletable.ModCmd))
	assert.False(t, got.Has(ruletable.ModLCmd))
	assert.False(t, got.Has(ruletable.ModRCmd))
}
