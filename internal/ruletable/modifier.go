// Package ruletable holds the in-memory configuration model produced by
// the parser: modifier sets, key presses, process actions, rule
// entries, modes, and the rule table itself (spec.md §3, §4.C).
package ruletable

// Modifiers is a fixed-width bitset over the modifier names in spec.md
// §3. "General" and its two sided variants are distinct bits, matching
// the spec's invariant that the set is value-typed and equality is
// bitwise.
type Modifiers uint32

const (
	ModAlt Modifiers = 1 << iota
	ModLAlt
	ModRAlt
	ModShift
	ModLShift
	ModRShift
	ModCmd
	ModLCmd
	ModRCmd
	ModControl
	ModLControl
	ModRControl
	ModFn
	ModPassthrough
	ModActivate
	ModNX
)

// Hyper and Meh are the two built-in aliases from spec.md §3. Aliases
// expand to their full bitset before storage — callers never see a
// "hyper" bit.
const (
	Hyper = ModCmd | ModAlt | ModShift | ModControl
	Meh   = ModControl | ModShift | ModAlt
)

// Has reports whether all bits in mask are set in m.
func (m Modifiers) Has(mask Modifiers) bool { return m&mask == mask }

// Any reports whether any bit in mask is set in m.
func (m Modifiers) Any(mask Modifiers) bool { return m&mask != 0 }

// sidedPairs enumerates the four modifiers that distinguish
// general/left/right, used by the runtime-equality rule (spec.md §4.E).
type sidedTriple struct {
	General, Left, Right Modifiers
}

var sidedPairs = []sidedTriple{
	{ModAlt, ModLAlt, ModRAlt},
	{ModCmd, ModLCmd, ModRCmd},
	{ModControl, ModLControl, ModRControl},
	{ModShift, ModLShift, ModRShift},
}

// KeyPress pairs a Modifiers bitset with a keycode. It is used both for
// configured triggers and for observed runtime events (spec.md §3).
type KeyPress struct {
	Mods    Modifiers
	Keycode uint32
}

// ConfigEqual is the equality used when inserting a trigger from config
// (spec.md §4.C): keycode and the full modifier bitset must match
// exactly, so two differently-sided configs (e.g. "lalt" vs "alt") are
// distinct.
func (k KeyPress) ConfigEqual(other KeyPress) bool {
	return k == other
}

// RuntimeMatch implements the event-vs-configured-trigger equality rule
// from spec.md §4.E: keycode must match; for each of {alt, cmd, control,
// shift}, a "general" configured bit matches any of {general, left,
// right} on the event, while a sided configured bit requires exactly
// that side and not the other. fn and nx must match exactly.
func RuntimeMatch(configured, event KeyPress) bool {
	if configured.Keycode != event.Keycode {
		return false
	}
	for _, p := range sidedPairs {
		cfgGeneral := configured.Mods.Has(p.General)
		cfgLeft := configured.Mods.Has(p.Left)
		cfgRight := configured.Mods.Has(p.Right)

		switch {
		case cfgLeft:
			if !event.Mods.Has(p.Left) || event.Mods.Has(p.Right) {
				return false
			}
		case cfgRight:
			if !event.Mods.Has(p.Right) || event.Mods.Has(p.Left) {
				return false
			}
		case cfgGeneral:
			if !event.Mods.Any(p.General | p.Left | p.Right) {
				return false
			}
		default:
			if event.Mods.Any(p.General | p.Left | p.Right) {
				return false
			}
		}
	}
	if configured.Mods.Has(ModFn) != event.Mods.Has(ModFn) {
		return false
	}
	if configured.Mods.Has(ModNX) != event.Mods.Has(ModNX) {
		return false
	}
	return true
}
