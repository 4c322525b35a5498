package ruletable

import "strings"

// RuleTable is the full in-memory result of one parse (spec.md §3). A
// new RuleTable is built per reload; the previous one is discarded only
// after the dispatcher's active pointer is swapped (spec.md §5).
type RuleTable struct {
	Modes       map[string]*Mode
	Blacklist   map[string]bool // lowercased process names
	Shell       string
	LoadedFiles []string // absolute paths read while building this table
}

// New returns an empty RuleTable with no modes yet (the parser creates
// "default" lazily on first reference, per spec.md §4.B rule 1).
func New() *RuleTable {
	return &RuleTable{
		Modes:     make(map[string]*Mode),
		Blacklist: make(map[string]bool),
	}
}

// GetOrCreateMode returns the named mode, creating it if absent.
func (rt *RuleTable) GetOrCreateMode(name string) *Mode {
	if m, ok := rt.Modes[name]; ok {
		return m
	}
	m := NewMode(name)
	rt.Modes[name] = m
	return m
}

// DefaultMode returns the "default" mode, or nil if the table somehow
// has none (should not happen after a successful parse).
func (rt *RuleTable) DefaultMode() *Mode {
	return rt.Modes[DefaultModeName]
}

// IsBlacklisted reports whether processName (any case) is in the
// blacklist. Matching is exact on the lowercased name — no glob/prefix
// semantics (spec.md §9 Open Question, resolved).
func (rt *RuleTable) IsBlacklisted(processName string) bool {
	return rt.Blacklist[strings.ToLower(processName)]
}

// AddLoadedFile appends an absolute path to the loaded-files list used
// by the live-reload controller to know what to watch (spec.md §4.G).
// Callers are responsible for cycle detection before calling this.
func (rt *RuleTable) AddLoadedFile(absPath string) {
	rt.LoadedFiles = append(rt.LoadedFiles, absPath)
}

// HasLoadedFile reports whether absPath is already in LoadedFiles,
// implementing the include-cycle guard of spec.md §4.B rule 5.
func (rt *RuleTable) HasLoadedFile(absPath string) bool {
	for _, p := range rt.LoadedFiles {
		if p == absPath {
			return true
		}
	}
	return false
}
