// Package synth posts synthesized key-down/key-up events back into the
// OS event stream for the Forward action (spec.md §4.E case "Forward").
// Every synthesized event must carry the dispatcher's self-event marker
// so the tap recognizes and ignores it on the way back in (spec.md §5).
package synth

// Synthesizer posts a single key-down or key-up event for keycode with
// mods held (a CGEventFlags-style bitmask), tagged with marker in its
// event-source-user-data field.
type Synthesizer interface {
	PostKeyEvent(keycode uint32, mods uint32, down bool, marker uint64) error
}

// Forward posts a key-down immediately followed by a key-up for
// keycode with mods held, both tagged with marker (spec.md §4.E:
// "synthesize a key-down and a key-up ... tag both with the marker").
// Carrying the configured key's modifiers is required for a forwarded
// hotkey like ctrl - p to reach the frontmost application as ctrl-p
// rather than a bare p.
func Forward(s Synthesizer, keycode uint32, mods uint32, marker uint64) error {
	if err := s.PostKeyEvent(keycode, mods, true, marker); err != nil {
		return err
	}
	return s.PostKeyEvent(keycode, mods, false, marker)
}
