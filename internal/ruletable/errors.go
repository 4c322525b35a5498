package ruletable

import "fmt"

// DuplicateActionError is returned by RuleEntry.SetProcessAction and
// SetWildcard when a conflicting (non-value-equal) action is already
// present. The parser catches this sentinel and re-raises it as a
// positioned langerr.Error (spec.md §4.B rule 6).
type DuplicateActionError struct {
	Wildcard    bool
	ProcessName string
}

func (e *DuplicateActionError) Error() string {
	if e.Wildcard {
		return "wildcard action already exists for this trigger"
	}
	return fmt.Sprintf("action already exists for process %q on this trigger", e.ProcessName)
}

func errProcessCommandAlreadyExists(name string) error {
	return &DuplicateActionError{ProcessName: name}
}

func errWildcardCommandAlreadyExists() error {
	return &DuplicateActionError{Wildcard: true}
}
