//go:build webkit_cgo

package webkit

import (
	"runtime"

	"github.com/diamondburned/gotk4/pkg/glib/v2"
)

var (
	mainLoop      *glib.MainLoop
	isInitialized bool
)

// InitMainThread locks the current goroutine to the OS thread for GTK
// operations. Must be called before any GTK work.
func InitMainThread() {
	if !isInitialized {
		runtime.LockOSThread()
		isInitialized = true
	}
}

// RunMainLoop starts the GTK main event loop and blocks until QuitMainLoop.
func RunMainLoop() {
	InitMainThread()
	if mainLoop == nil {
		mainLoop = glib.NewMainLoop(nil, false)
	}
	mainLoop.Run()
}

// QuitMainLoop stops the GTK main event loop.
func QuitMainLoop() {
	if mainLoop != nil {
		mainLoop.Quit()
	}
}

// runOnMain executes fn on the GTK main thread and waits for it. Calls
// already on the main thread run fn directly.
func runOnMain(fn func()) {
	if glib.MainContextDefault().IsOwner() {
		fn()
		return
	}
	done := make(chan struct{})
	glib.IdleAdd(func() bool {
		fn()
		close(done)
		return false
	})
	<-done
}
