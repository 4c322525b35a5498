//go:build darwin

package keymap

/*
#cgo LDFLAGS: -framework Carbon -framework CoreFoundation

#include <Carbon/Carbon.h>
#include <stdlib.h>

// translateKeycodeToRune asks the current ASCII-capable keyboard layout
// what character virtualKeycode currently produces with no modifiers
// held. Returns 0 if the keycode produces no printable character under
// this layout.
static UInt32 translateKeycodeToRune(CGKeyCode virtualKeycode) {
	TISInputSourceRef source = TISCopyCurrentASCIICapableKeyboardLayoutInputSource();
	if (source == NULL) {
		return 0;
	}
	CFDataRef layoutData = (CFDataRef)TISGetInputSourceProperty(source, kTISPropertyUnicodeKeyLayoutData);
	if (layoutData == NULL) {
		CFRelease(source);
		return 0;
	}
	const UCKeyboardLayout *keyboardLayout = (const UCKeyboardLayout *)CFDataGetBytePtr(layoutData);

	UInt32 deadKeyState = 0;
	UniChar chars[4];
	UniCharCount actualLength = 0;

	OSStatus status = UCKeyTranslate(keyboardLayout, virtualKeycode, kUCKeyActionDown, 0,
		LMGetKbdType(), kUCKeyTranslateNoDeadKeysBit, &deadKeyState, 4, &actualLength, chars);

	CFRelease(source);

	if (status != noErr || actualLength == 0) {
		return 0;
	}
	return (UInt32)chars[0];
}
*/
import "C"

// layoutDependentKeycodes is the fixed list of virtual keycodes whose
// produced character depends on the active keyboard layout (letters,
// digits, and punctuation — everything that is not a reserved name).
var layoutDependentKeycodes = []uint32{
	0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09,
	0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10, 0x11, 0x12, 0x13, 0x14,
	0x15, 0x16, 0x17, 0x18, 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E,
	0x1F, 0x20, 0x21, 0x22, 0x23, 0x25, 0x26, 0x27, 0x28, 0x29,
	0x2A, 0x2B, 0x2C, 0x2D, 0x2E, 0x2F, 0x32,
}

// BuildLayoutMap asks the OS for the current ASCII-capable keyboard
// layout and returns a rune->virtual-keycode map covering every
// layout-dependent key (spec.md §4.D). Called once at startup; the
// result does not update if the user switches layouts while the
// dispatcher is running (matching the spec's "built once" contract).
func BuildLayoutMap() map[rune]uint32 {
	out := make(map[rune]uint32, len(layoutDependentKeycodes))
	for _, vk := range layoutDependentKeycodes {
		r := rune(C.translateKeycodeToRune(C.CGKeyCode(vk)))
		if r == 0 {
			continue
		}
		out[r] = vk
	}
	return out
}
