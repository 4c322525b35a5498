//go:build darwin

package frontmost

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework Foundation

#include <stdint.h>
#include <stdlib.h>
#import <AppKit/AppKit.h>

extern void frontmostChangedCallback(int handle);

#define KBHOOKD_MAX_OBSERVERS 32

// KBHookdFrontmostObserver forwards NSWorkspace's activation notification
// to the exported Go callback for a single registered handle.
@interface KBHookdFrontmostObserver : NSObject
@property(assign) int handle;
- (void)appActivated:(NSNotification *)note;
@end

@implementation KBHookdFrontmostObserver
- (void)appActivated:(NSNotification *)note {
	frontmostChangedCallback(self.handle);
}
@end

static KBHookdFrontmostObserver *registeredObservers[KBHOOKD_MAX_OBSERVERS];

// copyFrontmostProcessName returns a newly allocated C string holding the
// frontmost application's localized name, or NULL if there is none. The
// caller owns the returned string and must free() it.
static char *copyFrontmostProcessName(void) {
	NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
	if (app == nil || app.localizedName == nil) {
		return NULL;
	}
	const char *utf8 = [app.localizedName UTF8String];
	if (utf8 == NULL) {
		return NULL;
	}
	return strdup(utf8);
}

// installFrontmostObserver registers an observer for handle on the
// shared workspace's notification center, invoking
// frontmostChangedCallback(handle) whenever the frontmost application
// changes. Returns non-zero if handle is out of range.
static int installFrontmostObserver(int handle) {
	if (handle < 0 || handle >= KBHOOKD_MAX_OBSERVERS) {
		return 1;
	}
	KBHookdFrontmostObserver *observer = [[KBHookdFrontmostObserver alloc] init];
	observer.handle = handle;
	registeredObservers[handle] = observer;

	[[[NSWorkspace sharedWorkspace] notificationCenter]
		addObserver:observer
		   selector:@selector(appActivated:)
		       name:NSWorkspaceDidActivateApplicationNotification
		     object:nil];
	return 0;
}

// removeFrontmostObserver unregisters the observer installed for handle.
static void removeFrontmostObserver(int handle) {
	if (handle < 0 || handle >= KBHOOKD_MAX_OBSERVERS) {
		return;
	}
	KBHookdFrontmostObserver *observer = registeredObservers[handle];
	if (observer == nil) {
		return;
	}
	[[[NSWorkspace sharedWorkspace] notificationCenter] removeObserver:observer];
	registeredObservers[handle] = nil;
	[observer release];
}
*/
import "C"

import (
	"errors"
	"sync"
	"unsafe"
)

var (
	observerMu      sync.Mutex
	observerHandles = make(map[int]func())
	nextHandle      int
)

type darwinLookup struct{}

// NewLookup returns the real macOS Lookup, backed by
// NSWorkspace.sharedWorkspace.frontmostApplication.
func NewLookup() Lookup { return darwinLookup{} }

func (darwinLookup) Name() (string, error) {
	cstr := C.copyFrontmostProcessName()
	if cstr == nil {
		return "", errors.New("frontmost: no frontmost application")
	}
	defer C.free(unsafe.Pointer(cstr))
	return C.GoString(cstr), nil
}

func (darwinLookup) Subscribe(onChange func()) func() {
	observerMu.Lock()
	handle := nextHandle
	nextHandle++
	observerHandles[handle] = onChange
	observerMu.Unlock()

	C.installFrontmostObserver(C.int(handle))

	return func() {
		C.removeFrontmostObserver(C.int(handle))
		observerMu.Lock()
		delete(observerHandles, handle)
		observerMu.Unlock()
	}
}

//export frontmostChangedCallback
func frontmostChangedCallback(handle C.int) {
	observerMu.Lock()
	cb, ok := observerHandles[int(handle)]
	observerMu.Unlock()
	if ok && cb != nil {
		cb()
	}
}
