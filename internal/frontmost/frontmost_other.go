//go:build !darwin

package frontmost

// staticLookup is a host-portable stand-in used only so non-darwin
// builds link; the dispatcher itself only ever runs on darwin (spec.md
// §1 scope). Tests exercising internal/dispatch supply their own fake
// Lookup.
type staticLookup struct{ name string }

// NewLookup returns a Lookup that always reports an empty frontmost
// process name.
func NewLookup() Lookup { return staticLookup{} }

func (s staticLookup) Name() (string, error) { return s.name, nil }

func (staticLookup) Subscribe(onChange func()) func() { return func() {} }
