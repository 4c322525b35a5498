// Package dispatch implements the dispatch engine: the component that
// receives key events from the Event Tap, matches them against the
// active Rule Table and Mode, and carries out the resulting Process
// Action (spec.md §4.E).
package dispatch

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kbhookd/kbhookd/internal/eventtap"
	"github.com/kbhookd/kbhookd/internal/executor"
	"github.com/kbhookd/kbhookd/internal/frontmost"
	"github.com/kbhookd/kbhookd/internal/ruletable"
	"github.com/kbhookd/kbhookd/internal/synth"
	"github.com/kbhookd/kbhookd/internal/tracer"
)

// SelfEventMarker tags key events synthesized by this process's own
// Forward action, so the Engine never reacts to its own output
// (spec.md §4.E state item (b)). The value only needs to be a marker
// this process's synthesizer consistently stamps and the tap
// consistently reports back.
const SelfEventMarker uint64 = 0x7368_6b64_7368_6b64

// CGEventFlags bit positions for the sided private-modifier masks and
// the four general masks, per spec.md §4.E's decoding rule. Mirrors
// Carbon/CoreGraphics' NX event flag layout.
const (
	flagLAlt     = 0x00000020
	flagRAlt     = 0x00000040
	flagLShift   = 0x00000002
	flagRShift   = 0x00000004
	flagLCmd     = 0x00000008
	flagRCmd     = 0x00000010
	flagLControl = 0x00000001
	flagRControl = 0x00002000

	flagAlt     = 0x00080000
	flagShift   = 0x00020000
	flagCmd     = 0x00100000
	flagControl = 0x00040000
)

// Engine is the dispatcher's single stateful component: the currently
// active Rule Table and Mode, held behind atomic pointers so the Event
// Tap callback (which cgo forces onto a locked OS thread), the reload
// watcher, and the signal handler can each update or read them without
// a mutex. A literal single-OS-thread model as described in spec.md §5
// does not map onto Go's goroutine-per-concern idioms; atomic pointer
// swap gives the same observable guarantee (no reader ever sees a
// torn/partial Rule Table) without forcing every subsystem onto one
// goroutine.
type Engine struct {
	table atomic.Pointer[ruletable.RuleTable]
	mode  atomic.Pointer[ruletable.Mode]

	frontmostCached atomic.Pointer[string]

	frontmost frontmost.Lookup
	synth     synth.Synthesizer
	exec      executor.Runner
	tracer    *tracer.Tracer
	logger    *zap.Logger
	verbose   bool
}

// Config bundles an Engine's collaborators.
type Config struct {
	Frontmost frontmost.Lookup
	Synth     synth.Synthesizer
	Exec      executor.Runner
	Tracer    *tracer.Tracer
	Logger    *zap.Logger
	Verbose   bool
}

// New builds an Engine with no active Rule Table; call SetTable before
// routing events to it.
func New(cfg Config) *Engine {
	e := &Engine{
		frontmost: cfg.Frontmost,
		synth:     cfg.Synth,
		exec:      cfg.Exec,
		tracer:    cfg.Tracer,
		logger:    cfg.Logger,
		verbose:   cfg.Verbose,
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.frontmost != nil {
		e.frontmost.Subscribe(func() { e.frontmostCached.Store(nil) })
	}
	return e
}

// SetTable installs rt as the active Rule Table, resetting the active
// Mode to rt's default mode. This is the sole entry point used by the
// live-reload controller and the SIGUSR1 handler (spec.md §4.G): both
// call it directly from their own goroutines, safe under the atomic
// pointer design above.
func (e *Engine) SetTable(rt *ruletable.RuleTable) {
	e.table.Store(rt)
	if rt != nil {
		e.mode.Store(rt.DefaultMode())
	} else {
		e.mode.Store(nil)
	}
}

// CurrentTable returns the active Rule Table, or nil if none has been
// installed yet.
func (e *Engine) CurrentTable() *ruletable.RuleTable { return e.table.Load() }

// CurrentMode returns the active Mode, or nil if none has been
// installed yet.
func (e *Engine) CurrentMode() *ruletable.Mode {
	if m := e.mode.Load(); m != nil {
		return m
	}
	return nil
}

// decodeModifiers translates a CGEventFlags-style bitmask into a
// ruletable.Modifiers value, applying spec.md §4.E's rule per modifier
// family: the sided private bit is set when present; the general bit is
// set only when the general mask is present and neither sided private
// bit is present.
func decodeModifiers(flags uint32) ruletable.Modifiers {
	var m ruletable.Modifiers

	lalt, ralt := flags&flagLAlt != 0, flags&flagRAlt != 0
	if lalt {
		m |= ruletable.ModLAlt
	}
	if ralt {
		m |= ruletable.ModRAlt
	}
	if flags&flagAlt != 0 && !lalt && !ralt {
		m |= ruletable.ModAlt
	}

	lshift, rshift := flags&flagLShift != 0, flags&flagRShift != 0
	if lshift {
		m |= ruletable.ModLShift
	}
	if rshift {
		m |= ruletable.ModRShift
	}
	if flags&flagShift != 0 && !lshift && !rshift {
		m |= ruletable.ModShift
	}

	lcmd, rcmd := flags&flagLCmd != 0, flags&flagRCmd != 0
	if lcmd {
		m |= ruletable.ModLCmd
	}
	if rcmd {
		m |= ruletable.ModRCmd
	}
	if flags&flagCmd != 0 && !lcmd && !rcmd {
		m |= ruletable.ModCmd
	}

	lctrl, rctrl := flags&flagLControl != 0, flags&flagRControl != 0
	if lctrl {
		m |= ruletable.ModLControl
	}
	if rctrl {
		m |= ruletable.ModRControl
	}
	if flags&flagControl != 0 && !lctrl && !rctrl {
		m |= ruletable.ModControl
	}

	return m
}

// encodeModifiers is the inverse of decodeModifiers: it translates a
// configured ruletable.Modifiers value back into a CGEventFlags-style
// bitmask suitable for synth.Forward, setting both the sided private
// bit and its family's general bit whenever either sided bit is
// configured, since CGEventCreateKeyboardEvent-consuming applications
// generally key off the general bit.
func encodeModifiers(m ruletable.Modifiers) uint32 {
	var flags uint32
	if m.Has(ruletable.ModLAlt) {
		flags |= flagLAlt | flagAlt
	}
	if m.Has(ruletable.ModRAlt) {
		flags |= flagRAlt | flagAlt
	}
	if m.Has(ruletable.ModAlt) {
		flags |= flagAlt
	}
	if m.Has(ruletable.ModLShift) {
		flags |= flagLShift | flagShift
	}
	if m.Has(ruletable.ModRShift) {
		flags |= flagRShift | flagShift
	}
	if m.Has(ruletable.ModShift) {
		flags |= flagShift
	}
	if m.Has(ruletable.ModLCmd) {
		flags |= flagLCmd | flagCmd
	}
	if m.Has(ruletable.ModRCmd) {
		flags |= flagRCmd | flagCmd
	}
	if m.Has(ruletable.ModCmd) {
		flags |= flagCmd
	}
	if m.Has(ruletable.ModLControl) {
		flags |= flagLControl | flagControl
	}
	if m.Has(ruletable.ModRControl) {
		flags |= flagRControl | flagControl
	}
	if m.Has(ruletable.ModControl) {
		flags |= flagControl
	}
	return flags
}

// currentFrontmost returns the cached frontmost process name, refilling
// the cache on demand. The cache is invalidated by the Subscribe
// callback registered in New whenever the OS reports a frontmost-app
// change, so repeated lookups between changes avoid the cgo round trip.
func (e *Engine) currentFrontmost() string {
	if p := e.frontmostCached.Load(); p != nil {
		return *p
	}
	var name string
	if e.frontmost != nil {
		if n, err := e.frontmost.Name(); err == nil {
			name = n
		}
	}
	e.frontmostCached.Store(&name)
	return name
}

// Handle implements the Event Tap callback contract (spec.md §4.E): it
// receives one observed event and returns whether the tap should
// suppress it.
func (e *Engine) Handle(ev eventtap.Event) eventtap.Decision {
	var decision eventtap.Decision
	switch ev.Kind {
	case eventtap.KindDisabled:
		decision = eventtap.Unchanged
	case eventtap.KindSystemDefined:
		if !ev.IsKeyDown {
			decision = eventtap.Unchanged
		} else {
			decision = e.handleKeyPress(ruletable.KeyPress{Mods: ruletable.ModNX, Keycode: ev.Keycode}, ev.Marker)
		}
	case eventtap.KindKeyDown:
		kp := ruletable.KeyPress{Mods: decodeModifiers(ev.Mods), Keycode: ev.Keycode}
		decision = e.handleKeyPress(kp, ev.Marker)
	default:
		decision = eventtap.Unchanged
	}
	if e.tracer != nil {
		if decision == eventtap.Consumed {
			e.tracer.ObserveDecision("consumed")
		} else {
			e.tracer.ObserveDecision("unchanged")
		}
	}
	return decision
}

// handleKeyPress runs the full match-and-act sequence of spec.md §4.E:
// (a) no active mode passes the event through untouched; (b) events
// carrying this process's own marker are ignored; (c) the frontmost
// process's blacklist membership short-circuits to passthrough; (d) no
// matching Rule Entry (or no match while the mode captures) decides
// passthrough/consume; (e) no applicable Process Action for the
// frontmost process passes through; (f) otherwise the action runs.
func (e *Engine) handleKeyPress(kp ruletable.KeyPress, marker uint64) eventtap.Decision {
	mode := e.mode.Load()
	if mode == nil {
		return eventtap.Unchanged
	}
	if marker == SelfEventMarker {
		return eventtap.Unchanged
	}

	table := e.table.Load()
	frontmostName := e.currentFrontmost()
	if table != nil && table.IsBlacklisted(frontmostName) {
		return eventtap.Unchanged
	}

	entry, found := mode.Lookup(kp)
	if !found {
		if mode.Capture {
			return eventtap.Consumed
		}
		return eventtap.Unchanged
	}

	action, ok := entry.FindAction(frontmostName)
	if !ok {
		return eventtap.Unchanged
	}
	return e.act(entry, action)
}

// act carries out a resolved Process Action, exhaustively switching
// over ruletable.ActionKind as required by spec.md §9.
func (e *Engine) act(entry *ruletable.RuleEntry, action ruletable.ProcessAction) eventtap.Decision {
	switch action.Kind {
	case ruletable.ActionUnbound:
		return eventtap.Unchanged
	case ruletable.ActionCommand:
		e.runCommand(action.Command)
		if entry.Trigger.Mods.Has(ruletable.ModPassthrough) {
			return eventtap.Unchanged
		}
		return eventtap.Consumed
	case ruletable.ActionForward:
		e.forwardKey(action.Forward.Keycode, action.Forward.Mods)
		return eventtap.Consumed
	case ruletable.ActionActivation:
		e.activate(action)
		return eventtap.Consumed
	default:
		return eventtap.Unchanged
	}
}

// runCommand dispatches command through the Executor under the active
// Rule Table's configured shell, logging (but not failing the handler
// on) an execution error per spec.md §4.F.
func (e *Engine) runCommand(command string) {
	if e.exec == nil {
		return
	}
	shell := "/bin/bash"
	if table := e.table.Load(); table != nil && table.Shell != "" {
		shell = table.Shell
	}
	if e.tracer != nil {
		e.tracer.ObserveCommand()
	}
	if err := e.exec.Run(shell, command, e.verbose); err != nil {
		e.logger.Warn("command execution failed", zap.String("command", command), zap.Error(err))
	}
}

// forwardKey re-synthesizes keycode held with mods as a down/up pair
// stamped with SelfEventMarker, so the event tap's own next pass
// ignores it. mods is encoded back into a raw CGEventFlags-style
// bitmask so a forwarded hotkey like ctrl - p carries its modifier
// through instead of arriving as a bare keystroke.
func (e *Engine) forwardKey(keycode uint32, mods ruletable.Modifiers) {
	if e.synth == nil {
		return
	}
	if e.tracer != nil {
		e.tracer.ObserveForward()
	}
	if err := synth.Forward(e.synth, keycode, encodeModifiers(mods), SelfEventMarker); err != nil {
		e.logger.Warn("failed to forward synthesized key event", zap.Error(err))
	}
}

// activate runs an Activation Process Action: an optional activation
// command, then the mode switch itself, falling back to "default" if
// the named mode is unknown and default exists, else leaving the
// active mode unchanged and logging a non-fatal warning (spec.md §4.E).
func (e *Engine) activate(action ruletable.ProcessAction) {
	if action.HasActivationCmd {
		e.runCommand(action.ActivationCommand)
	}

	table := e.table.Load()
	if table == nil {
		return
	}
	target, ok := table.Modes[action.ModeName]
	if !ok {
		if def := table.DefaultMode(); def != nil {
			e.mode.Store(def)
		}
		e.logger.Warn("activation target mode unknown, left mode unchanged unless default exists",
			zap.String("mode", action.ModeName))
		return
	}

	e.mode.Store(target)
	if e.tracer != nil {
		e.tracer.ObserveActivation(target.Name)
	}
	if target.HasOnEntry {
		e.runCommand(target.OnEntry)
	}
}
