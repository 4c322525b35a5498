//go:build darwin

package synth

/*
#cgo LDFLAGS: -framework CoreGraphics

#include <stdint.h>
#include <ApplicationServices/ApplicationServices.h>

// postSynthKeyEvent synthesizes a single key-down or key-up event for
// keycode with flags held, stamping marker into the event's
// EventSourceUserData field so internal/eventtap's callback can
// recognize and ignore it on the way back in. Returns non-zero if the
// event could not be created.
static int postSynthKeyEvent(uint16_t keycode, uint64_t flags, int down, uint64_t marker) {
	CGEventRef event = CGEventCreateKeyboardEvent(NULL, (CGKeyCode)keycode, down != 0);
	if (event == NULL) {
		return 1;
	}
	CGEventSetFlags(event, (CGEventFlags)flags);
	CGEventSetIntegerValueField(event, kCGEventSourceUserData, (int64_t)marker);
	CGEventPost(kCGSessionEventTap, event);
	CFRelease(event);
	return 0;
}
*/
import "C"

import "fmt"

// darwinSynthesizer posts events through CGEventCreateKeyboardEvent +
// CGEventPost (native side in C; see postSynthKeyEvent). The marker is
// written into the posted event's EventSourceUserData field, the same
// field internal/eventtap reads on the way back in.
type darwinSynthesizer struct{}

// NewSynthesizer returns the real macOS Synthesizer.
func NewSynthesizer() Synthesizer { return darwinSynthesizer{} }

func (darwinSynthesizer) PostKeyEvent(keycode uint32, mods uint32, down bool, marker uint64) error {
	downFlag := C.int(0)
	if down {
		downFlag = 1
	}
	if ret := C.postSynthKeyEvent(C.uint16_t(keycode), C.uint64_t(mods), downFlag, C.uint64_t(marker)); ret != 0 {
		return fmt.Errorf("failed to post synthesized key event for keycode %d", keycode)
	}
	return nil
}
