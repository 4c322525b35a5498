//go:build !darwin

package keymap

// BuildLayoutMap returns an empty layout map on non-darwin platforms,
// where there is no live keyboard layout to query. This keeps the
// tokenizer/parser/dispatch-engine tests host-portable; only the
// darwin build ever runs the real dispatcher (spec.md §1 scope).
func BuildLayoutMap() map[rune]uint32 {
	return map[rune]uint32{}
}
