// Package eventtap defines the dispatch engine's only inbound
// collaborator: a source of raw OS key events (spec.md §4.E "Event
// handling contract"). The interface is deliberately narrow so
// internal/dispatch can be driven by a fake in tests and by the real
// CGEventTap on darwin (spec.md §9: "the core matching/dispatch logic
// must be host-portable and unit-testable without a real macOS event
// tap").
package eventtap

import "context"

// Kind discriminates the three callback shapes spec.md §4.E lists.
type Kind int

const (
	// KindDisabled corresponds to a disabled-by-timeout or
	// disabled-by-user-input callback: the tap must be re-enabled and
	// the event passed through untouched.
	KindDisabled Kind = iota
	// KindKeyDown is a normal keyboard key-down event.
	KindKeyDown
	// KindSystemDefined is a system-defined event (media keys and
	// similar aux-control buttons).
	KindSystemDefined
)

// Event is the decoded form of one tap callback. For KindKeyDown,
// Keycode and Mods are populated from the event's keycode and modifier
// flags. For KindSystemDefined, Keycode holds the decoded NX subtype
// and IsKeyDown reports whether the aux-control button was pressed (as
// opposed to released); non-key-down aux events are not hotkey
// candidates per spec.md §4.E case 3. Marker is the 8-byte
// event-source-user-data field used for self-event loop prevention
// (spec.md §5); it is read directly off the OS event, never decoded.
type Event struct {
	Kind      Kind
	Keycode   uint32
	Mods      uint32 // raw OS modifier flag bits, decoded by internal/dispatch
	IsKeyDown bool
	Marker    uint64
}

// Decision tells the tap what to do with the event that produced it.
type Decision int

const (
	// Unchanged passes the event through to the rest of the system.
	Unchanged Decision = iota
	// Consumed swallows the event entirely.
	Consumed
)

// Handler processes one decoded Event and returns a Decision.
type Handler func(Event) Decision

// Tap is the OS collaborator that delivers key events to Handler and
// acts on the returned Decision. Run blocks until ctx is cancelled or
// the tap fails to install.
type Tap interface {
	Run(ctx context.Context, handler Handler) error
}
