// Package keymap builds the two lookup tables the parser and dispatch
// engine need to turn configuration text and OS events into Modifiers
// and keycodes (spec.md §4.D): the layout-dependent ASCII keycode map
// (built once at startup from the live keyboard layout) and the
// compile-time reserved-name/modifier-name tables.
//
// The reserved-key constants below are grounded on the virtual-keycode
// table in the pack's Danondso-palaver hotkey_darwin.go (extended here
// to the full reserved-key and modifier set spec.md §6 requires,
// including the media/NX keys and left/right-sided modifiers that file
// does not need).
package keymap

import "github.com/kbhookd/kbhookd/internal/ruletable"

// macOS virtual keycodes (kVK_* from Carbon/HIToolbox) for the
// non-layout-dependent reserved keys.
const (
	vkReturn    = 0x24
	vkTab       = 0x30
	vkSpace     = 0x31
	vkBackspace = 0x33 // kVK_Delete (backspace on US keyboards)
	vkEscape    = 0x35
	vkForwardDelete = 0x75
	vkHome      = 0x73
	vkEnd       = 0x77
	vkPageUp    = 0x74
	vkPageDown  = 0x79
	vkInsert    = 0x72 // kVK_Help, conventionally mapped to "insert"
	vkLeft      = 0x7B
	vkRight     = 0x7C
	vkDown      = 0x7D
	vkUp        = 0x7E

	vkF1  = 0x7A
	vkF2  = 0x78
	vkF3  = 0x63
	vkF4  = 0x76
	vkF5  = 0x60
	vkF6  = 0x61
	vkF7  = 0x62
	vkF8  = 0x64
	vkF9  = 0x65
	vkF10 = 0x6D
	vkF11 = 0x67
	vkF12 = 0x6F
	vkF13 = 0x69
	vkF14 = 0x6B
	vkF15 = 0x71
	vkF16 = 0x6A
	vkF17 = 0x40
	vkF18 = 0x4F
	vkF19 = 0x50
	vkF20 = 0x5A
)

// NX_KEYTYPE_* media-key subtypes, as decoded from a kCGEventSystemDefined
// event's aux-control-button payload (spec.md §4.E case 3). These live in
// a separate keyspace from virtual keycodes, which is fine: a KeyPress's
// Keycode field is opaque and the `nx` modifier bit disambiguates it.
const (
	nxSoundUp          = 0
	nxSoundDown        = 1
	nxBrightnessUp     = 2
	nxBrightnessDown   = 3
	nxMute             = 7
	nxPlay             = 16
	nxFast             = 19 // "next" scan direction on some keyboards
	nxRewind           = 20
	nxNext             = 17
	nxIlluminationUp   = 21
	nxIlluminationDown = 22
)

// reservedKeycodes maps a reserved key literal name (spec.md §6) to its
// fixed keycode, independent of keyboard layout.
var reservedKeycodes = map[string]uint32{
	"return":    vkReturn,
	"tab":       vkTab,
	"space":     vkSpace,
	"backspace": vkBackspace,
	"escape":    vkEscape,
	"delete":    vkForwardDelete,
	"home":      vkHome,
	"end":       vkEnd,
	"pageup":    vkPageUp,
	"pagedown":  vkPageDown,
	"insert":    vkInsert,
	"left":      vkLeft,
	"right":     vkRight,
	"up":        vkUp,
	"down":      vkDown,
	"f1": vkF1, "f2": vkF2, "f3": vkF3, "f4": vkF4, "f5": vkF5,
	"f6": vkF6, "f7": vkF7, "f8": vkF8, "f9": vkF9, "f10": vkF10,
	"f11": vkF11, "f12": vkF12, "f13": vkF13, "f14": vkF14, "f15": vkF15,
	"f16": vkF16, "f17": vkF17, "f18": vkF18, "f19": vkF19, "f20": vkF20,

	"sound_up":          nxSoundUp,
	"sound_down":        nxSoundDown,
	"mute":               nxMute,
	"play":               nxPlay,
	"previous":           nxRewind,
	"next":               nxFast,
	"rewind":             nxRewind,
	"fast":               nxFast,
	"brightness_up":      nxBrightnessUp,
	"brightness_down":    nxBrightnessDown,
	"illumination_up":    nxIlluminationUp,
	"illumination_down":  nxIlluminationDown,
}

// fnGroup is the set of reserved names whose trigger implicitly carries
// the fn modifier bit (spec.md §4.B rule 8, §6 "first group starting at
// delete").
var fnGroup = map[string]bool{
	"delete": true, "home": true, "end": true, "pageup": true, "pagedown": true,
	"insert": true, "left": true, "right": true, "up": true, "down": true,
	"f1": true, "f2": true, "f3": true, "f4": true, "f5": true,
	"f6": true, "f7": true, "f8": true, "f9": true, "f10": true,
	"f11": true, "f12": true, "f13": true, "f14": true, "f15": true,
	"f16": true, "f17": true, "f18": true, "f19": true, "f20": true,
}

// nxGroup is the set of reserved names whose trigger implicitly carries
// the nx modifier bit (spec.md §4.B rule 8, §6 "second group starting at
// sound_up").
var nxGroup = map[string]bool{
	"sound_up": true, "sound_down": true, "mute": true, "play": true,
	"previous": true, "next": true, "rewind": true, "fast": true,
	"brightness_up": true, "brightness_down": true,
	"illumination_up": true, "illumination_down": true,
}

// ReservedKeycode returns the fixed keycode for a reserved literal name
// and ok=true, or ok=false if name is not a reserved key.
func ReservedKeycode(name string) (uint32, bool) {
	kc, ok := reservedKeycodes[name]
	return kc, ok
}

// ImplicitModifiers returns the modifier bits that spec.md §4.B rule 8
// implicitly ORs into a trigger built from the given reserved literal.
func ImplicitModifiers(name string) ruletable.Modifiers {
	var m ruletable.Modifiers
	if fnGroup[name] {
		m |= ruletable.ModFn
	}
	if nxGroup[name] {
		m |= ruletable.ModNX
	}
	return m
}

// modifierNameBits maps every modifier name the tokenizer/parser
// recognize (spec.md §6, including the "ctrl" spelling used in source
// text vs. the "control" bit name used internally) to its Modifiers
// bit. "hyper" and "meh" expand to their alias bitsets.
var modifierNameBits = map[string]ruletable.Modifiers{
	"alt": ruletable.ModAlt, "lalt": ruletable.ModLAlt, "ralt": ruletable.ModRAlt,
	"shift": ruletable.ModShift, "lshift": ruletable.ModLShift, "rshift": ruletable.ModRShift,
	"cmd": ruletable.ModCmd, "lcmd": ruletable.ModLCmd, "rcmd": ruletable.ModRCmd,
	"ctrl": ruletable.ModControl, "lctrl": ruletable.ModLControl, "rctrl": ruletable.ModRControl,
	"fn":    ruletable.ModFn,
	"hyper": ruletable.Hyper,
	"meh":   ruletable.Meh,
}

// ModifierBits returns the bit(s) a modifier name expands to, and
// ok=false if name is not recognized.
func ModifierBits(name string) (ruletable.Modifiers, bool) {
	m, ok := modifierNameBits[name]
	return m, ok
}
