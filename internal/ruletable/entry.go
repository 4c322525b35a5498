package ruletable

import "strings"

// processBinding is one (lowercased process name, action) pair. A slice
// of these backs RuleEntry.PerProcess so iteration order matches
// insertion order, per spec.md §3's "ordered mapping" requirement —
// plain Go maps make no such promise.
type processBinding struct {
	name   string
	action ProcessAction
}

// RuleEntry is a single configured hotkey: a trigger plus the set of
// per-process actions (and optional wildcard) attached to it (spec.md
// §3). A RuleEntry can be shared by more than one Mode (the same
// trigger declared under "mode1,mode2 < ...") — ContainingModes tracks
// which.
type RuleEntry struct {
	Trigger         KeyPress
	PerProcess      []processBinding
	perProcessIndex map[string]int // name -> index into PerProcess, for O(1) lookup
	Wildcard        *ProcessAction
	ContainingModes map[string]bool
}

// NewRuleEntry builds an empty RuleEntry for the given trigger.
func NewRuleEntry(trigger KeyPress) *RuleEntry {
	return &RuleEntry{
		Trigger:         trigger,
		perProcessIndex: make(map[string]int),
		ContainingModes: make(map[string]bool),
	}
}

// FindAction resolves the Process Action for a frontmost process name
// per spec.md §4.E(e): lowercased exact match against PerProcess, then
// fall back to Wildcard. The bool is false if neither applies.
func (e *RuleEntry) FindAction(frontmostProcess string) (ProcessAction, bool) {
	name := strings.ToLower(frontmostProcess)
	if idx, ok := e.perProcessIndex[name]; ok {
		return e.PerProcess[idx].action, true
	}
	if e.Wildcard != nil {
		return *e.Wildcard, true
	}
	return ProcessAction{}, false
}

// SetProcessAction attaches action to the lowercased process name,
// applying the duplicate/idempotence rule from spec.md §4.B rule 6: a
// second action for the same name is accepted silently if it is
// value-equal to the existing one, and rejected otherwise.
func (e *RuleEntry) SetProcessAction(processName string, action ProcessAction) error {
	name := strings.ToLower(processName)
	if idx, ok := e.perProcessIndex[name]; ok {
		if e.PerProcess[idx].action.Equal(action) {
			return nil
		}
		return errProcessCommandAlreadyExists(name)
	}
	e.perProcessIndex[name] = len(e.PerProcess)
	e.PerProcess = append(e.PerProcess, processBinding{name: name, action: action})
	return nil
}

// SetWildcard attaches action as the wildcard Process Action, applying
// the same idempotence rule as SetProcessAction.
func (e *RuleEntry) SetWildcard(action ProcessAction) error {
	if e.Wildcard != nil {
		if e.Wildcard.Equal(action) {
			return nil
		}
		return errWildcardCommandAlreadyExists()
	}
	a := action
	e.Wildcard = &a
	return nil
}
