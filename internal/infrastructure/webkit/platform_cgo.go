//go:build webkit_cgo

package webkit

import (
	"fmt"
	"os"

	"github.com/diamondburned/gotk4/pkg/gio/v2"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// PlatformAvailable reports whether the WebKitGTK adapter is compiled in.
func PlatformAvailable() bool { return true }

// RunPlatform initializes GTK, creates the host window and surface engine,
// then blocks in the GTK main loop. ready runs on its own goroutine once
// the window is up; calling quit ends the loop and returns control.
func RunPlatform(opts PlatformOptions, ready func(engine *PlatformEngine, host *PlatformWindow, quit func())) error {
	InitMainThread()

	app := gtk.NewApplication(opts.ApplicationID, gio.ApplicationFlagsNone)
	app.ConnectActivate(func() {
		window := NewPlatformWindow(app, opts.Title, opts.Width, opts.Height, opts.Opener, opts.Logger)
		engine, err := NewPlatformEngine(window, opts.Logger)
		if err != nil {
			opts.Logger.Error().Err(err).Msg("surface engine init failed")
			app.Quit()
			return
		}

		quit := func() {
			glib.IdleAdd(func() bool {
				app.Quit()
				return false
			})
		}
		go ready(engine, window, quit)
	})

	if code := app.Run(os.Args[:1]); code != 0 {
		return fmt.Errorf("webkit: gtk application exited with code %d", code)
	}
	return nil
}
