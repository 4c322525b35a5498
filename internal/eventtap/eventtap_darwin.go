//go:build darwin

package eventtap

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation

#include <stdint.h>
#include <ApplicationServices/ApplicationServices.h>

extern int tapEventCallback(int tapID, int64_t eventType, int64_t keycode, uint64_t flags, uint64_t marker);

#define KBHOOKD_MAX_TAPS 8

static CFMachPortRef runningTaps[KBHOOKD_MAX_TAPS];
static CFRunLoopRef   runningLoops[KBHOOKD_MAX_TAPS];
static CFRunLoopSourceRef runningSources[KBHOOKD_MAX_TAPS];

// eventTapCallback is the native trampoline CGEventTapCreate invokes for
// every matched event; it reads the keycode/flags/marker out of the
// CGEventRef and hands them to the exported Go callback, which decides
// whether to swallow the event.
static CGEventRef eventTapCallback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *refcon) {
	int tapID = (int)(intptr_t)refcon;

	if (type == kCGEventTapDisabledByTimeout || type == kCGEventTapDisabledByUserInput) {
		tapEventCallback(tapID, (int64_t)type, 0, 0, 0);
		if (runningTaps[tapID] != NULL) {
			CGEventTapEnable(runningTaps[tapID], true);
		}
		return event;
	}

	int64_t keycode = CGEventGetIntegerValueField(event, kCGKeyboardEventKeycode);
	uint64_t flags = (uint64_t)CGEventGetFlags(event);
	uint64_t marker = (uint64_t)CGEventGetIntegerValueField(event, kCGEventSourceUserData);

	int consumed = tapEventCallback(tapID, (int64_t)type, keycode, flags, marker);
	if (consumed) {
		return NULL;
	}
	return event;
}

// startEventTap installs a CGEventTap covering key-down and
// system-defined (media key) events and blocks running the current
// thread's CFRunLoop until stopEventTap is called for the same tapID.
// Returns non-zero if the tap could not be created, typically because
// Input Monitoring permission has not been granted.
#define KBHOOKD_NX_SYSDEFINED 14

static int startEventTap(int tapID) {
	CGEventMask mask = CGEventMaskBit(kCGEventKeyDown) | CGEventMaskBit(KBHOOKD_NX_SYSDEFINED);

	CFMachPortRef tap = CGEventTapCreate(kCGSessionEventTap, kCGHeadInsertEventTap,
		kCGEventTapOptionDefault, mask, eventTapCallback, (void *)(intptr_t)tapID);
	if (tap == NULL) {
		return 1;
	}

	CFRunLoopSourceRef source = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, tap, 0);
	CFRunLoopRef loop = CFRunLoopGetCurrent();
	CFRunLoopAddSource(loop, source, kCFRunLoopCommonModes);
	CGEventTapEnable(tap, true);

	runningTaps[tapID] = tap;
	runningLoops[tapID] = loop;
	runningSources[tapID] = source;

	CFRunLoopRun();

	CFRelease(source);
	CFRelease(tap);
	runningTaps[tapID] = NULL;
	runningLoops[tapID] = NULL;
	runningSources[tapID] = NULL;
	return 0;
}

// stopEventTap disables the tap and stops the CFRunLoop startEventTap is
// blocked in, letting it return.
static void stopEventTap(int tapID) {
	if (runningTaps[tapID] != NULL) {
		CGEventTapEnable(runningTaps[tapID], false);
	}
	if (runningLoops[tapID] != NULL) {
		CFRunLoopStop(runningLoops[tapID]);
	}
}
*/
import "C"

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// CGEvent type constants (grounded on the palaver package's tap file,
// extended with kCGEventSystemDefined for the media-key path spec.md
// §4.E case 3 requires and that single-hotkey listener didn't need).
const (
	cgEventKeyDown                = 10
	cgEventSystemDefined          = 14
	cgEventTapDisabledByTimeout   = 0xFFFFFFFE
	cgEventTapDisabledByUserInput = 0xFFFFFFFF
)

const maxTapID = 8

var (
	tapMu     sync.Mutex
	tapByID   = make(map[int]*darwinTap)
	nextTapID int
)

// darwinTap installs a single global CGEventTap and feeds every
// key-down / system-defined / disabled callback through handler
// (spec.md §4.E). Unlike the teacher's per-hotkey darwinListener, one
// tap instance serves the whole Rule Table: matching against it is the
// dispatch engine's job, not the tap's.
type darwinTap struct {
	id      int
	handler Handler
}

// NewTap returns the real macOS Tap.
func NewTap() Tap {
	return &darwinTap{}
}

func (t *darwinTap) Run(ctx context.Context, handler Handler) error {
	t.handler = handler

	tapMu.Lock()
	if nextTapID >= maxTapID {
		tapMu.Unlock()
		return fmt.Errorf("event tap limit reached")
	}
	t.id = nextTapID
	nextTapID++
	tapByID[t.id] = t
	tapMu.Unlock()

	go func() {
		<-ctx.Done()
		C.stopEventTap(C.int(t.id))
	}()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ret := C.startEventTap(C.int(t.id))

	tapMu.Lock()
	delete(tapByID, t.id)
	tapMu.Unlock()

	if ret != 0 {
		return fmt.Errorf("failed to create event tap (grant Input Monitoring permission in System Settings > Privacy & Security > Input Monitoring)")
	}
	return ctx.Err()
}

//export tapEventCallback
func tapEventCallback(tapID C.int, eventType C.int64_t, keycode C.int64_t, flags C.uint64_t, marker C.uint64_t) C.int {
	tapMu.Lock()
	t, ok := tapByID[int(tapID)]
	tapMu.Unlock()
	if !ok {
		return 0
	}

	var ev Event
	switch int64(eventType) {
	case cgEventTapDisabledByTimeout, cgEventTapDisabledByUserInput:
		ev.Kind = KindDisabled
	case cgEventKeyDown:
		ev.Kind = KindKeyDown
		ev.Keycode = uint32(keycode)
		ev.Mods = uint32(flags)
		ev.IsKeyDown = true
	case cgEventSystemDefined:
		ev.Kind = KindSystemDefined
		ev.Keycode = uint32(keycode)
		ev.IsKeyDown = keycode != 0
	default:
		return 0
	}
	ev.Marker = uint64(marker)

	if t.handler(ev) == Consumed {
		return 1
	}
	return 0
}
