package ruletable

// DefaultModeName is the mode created lazily at first reference and
// guaranteed to exist after any successful parse (spec.md §3, §4.B
// rule 1).
const DefaultModeName = "default"

// Mode is a named bucket of hotkeys (spec.md §3). The hotkey index is
// kept as a flat, insertion-ordered slice searched linearly rather than
// a true hash index — spec.md §9 explicitly allows this, since modes
// typically hold tens of bindings, and a linear scan lets Lookup apply
// the general-vs-sided runtime-equality rule (spec.md §4.E) that a
// plain map key cannot express.
type Mode struct {
	Name        string
	Capture     bool
	OnEntry     string
	HasOnEntry  bool
	hotkeys     []*RuleEntry
	configIndex map[KeyPress]*RuleEntry // exact-match index, parse time only
}

// NewMode builds an empty, non-capturing Mode with the given name.
func NewMode(name string) *Mode {
	return &Mode{
		Name:        name,
		configIndex: make(map[KeyPress]*RuleEntry),
	}
}

// GetOrCreateRule returns the RuleEntry already registered for trigger
// in this mode (exact config equality — spec.md §4.C), creating and
// registering a new one if none exists yet.
func (m *Mode) GetOrCreateRule(trigger KeyPress) *RuleEntry {
	if e, ok := m.configIndex[trigger]; ok {
		return e
	}
	e := NewRuleEntry(trigger)
	m.configIndex[trigger] = e
	m.hotkeys = append(m.hotkeys, e)
	return e
}

// Lookup finds the RuleEntry matching an observed runtime KeyPress using
// the general-vs-sided runtime-equality rule (spec.md §4.E), scanning
// hotkeys in registration order. Returns (nil, false) on no match.
func (m *Mode) Lookup(event KeyPress) (*RuleEntry, bool) {
	for _, e := range m.hotkeys {
		if RuntimeMatch(e.Trigger, event) {
			return e, true
		}
	}
	return nil, false
}

// Hotkeys returns the mode's registered rule entries in registration
// order. The caller must not mutate the returned slice.
func (m *Mode) Hotkeys() []*RuleEntry { return m.hotkeys }
