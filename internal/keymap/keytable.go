package keymap

import "fmt"

// KeyTable resolves the three key-token forms the grammar allows
// (spec.md §4.B: `key := Key | KeyHex | Literal`) into a keycode plus
// any implicit modifier bits.
type KeyTable struct {
	layout map[rune]uint32 // built once at startup from the live layout
}

// NewKeyTable builds a KeyTable over the given layout map (see
// BuildLayoutMap).
func NewKeyTable(layout map[rune]uint32) *KeyTable {
	return &KeyTable{layout: layout}
}

// ResolveLiteral resolves a reserved key name to its keycode and
// implicit modifiers. ok is false if name is not a reserved key.
func (t *KeyTable) ResolveLiteral(name string) (keycode uint32, implicit uint32, ok bool) {
	kc, ok := ReservedKeycode(name)
	if !ok {
		return 0, 0, false
	}
	return kc, uint32(ImplicitModifiers(name)), true
}

// ResolveRune resolves a single-character Key token to a keycode using
// the layout-dependent map. ok is false if the rune is not reachable
// under the current keyboard layout.
func (t *KeyTable) ResolveRune(r rune) (uint32, bool) {
	kc, ok := t.layout[r]
	return kc, ok
}

// ResolveHex parses a KeyHex token's hex digits (without the "0x"
// prefix) into a raw keycode. Hex keycodes bypass the layout map
// entirely — they are an escape hatch for keys the layout translation
// cannot reach.
func ResolveHex(digits string) (uint32, error) {
	var v uint32
	if _, err := fmt.Sscanf(digits, "%x", &v); err != nil {
		return 0, fmt.Errorf("invalid hex keycode %q: %w", digits, err)
	}
	return v, nil
}
