// Package frontmost resolves the name of the currently active
// application, cached by internal/dispatch and invalidated by an
// external "frontmost app changed" notification (spec.md §4.E state).
package frontmost

// Lookup is the OS collaborator for frontmost-process resolution.
type Lookup interface {
	// Name returns the frontmost application's process name.
	Name() (string, error)
	// Subscribe registers onChange to be called whenever the frontmost
	// application changes, and returns a function to unsubscribe.
	Subscribe(onChange func()) (unsubscribe func())
}
