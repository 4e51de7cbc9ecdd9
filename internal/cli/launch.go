package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberhost/emberview/internal/application/port"
	"github.com/emberhost/emberview/internal/config"
	"github.com/emberhost/emberview/internal/domain/entity"
	"github.com/emberhost/emberview/internal/infrastructure/desktop"
	"github.com/emberhost/emberview/internal/infrastructure/persistence/sqlite"
	"github.com/emberhost/emberview/internal/infrastructure/webkit"
	"github.com/emberhost/emberview/internal/logging"
	"github.com/emberhost/emberview/internal/viewmanager"
)

var launchHeadless bool

var launchCmd = &cobra.Command{
	Use:   "launch [app-id]",
	Short: "Start the host window and show an app",
	Long: `Launch opens the host window, loads the chosen app, and keeps the
remaining configured apps registered for instant switching. With no
argument an interactive picker lists the configured apps.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLaunch,
}

func init() {
	launchCmd.Flags().BoolVar(&launchHeadless, "headless", false, "run without a display (offscreen surfaces)")
	rootCmd.AddCommand(launchCmd)
}

func runLaunch(cmd *cobra.Command, args []string) error {
	apps := app.Config.AppConfigs()
	if len(apps) == 0 {
		configDir, _ := config.GetConfigDir()
		return fmt.Errorf("no apps configured, add [apps.<id>] tables to %s/config.toml", configDir)
	}

	var appID string
	if len(args) == 1 {
		appID = args[0]
	} else {
		picked, err := pickApp(apps)
		if err != nil {
			return err
		}
		if picked == "" {
			return nil
		}
		appID = picked
	}
	if _, ok := app.Config.Apps[appID]; !ok {
		return fmt.Errorf("unknown app %q, run 'emberview apps' to list configured apps", appID)
	}

	opener := desktop.NewOpener(app.Log)

	headless := launchHeadless
	if !headless && !webkit.PlatformAvailable() {
		app.Log.Warn().Msg("webkit support not compiled in, running headless")
		headless = true
	}

	if headless {
		host := webkit.NewOffscreenWindow(entity.Bounds{
			Width:  app.Config.Window.Width,
			Height: app.Config.Window.Height,
		}, opener.Open, app.Log)
		engine := webkit.NewOffscreenEngine(app.Log)
		return runSession(cmd.Context(), engine, host, appID)
	}

	return webkit.RunPlatform(webkit.PlatformOptions{
		ApplicationID: "com.emberhost.emberview",
		Title:         app.Config.Window.Title,
		Width:         app.Config.Window.Width,
		Height:        app.Config.Window.Height,
		Opener:        opener.Open,
		Logger:        app.Log,
	}, func(engine *webkit.PlatformEngine, host *webkit.PlatformWindow, quit func()) {
		defer quit()
		if err := runSession(context.Background(), engine, host, appID); err != nil {
			app.Log.Error().Err(err).Msg("session ended with error")
		}
	})
}

// runSession wires the manager, journal, and config reload, then blocks
// until the process is signalled.
func runSession(ctx context.Context, engine port.SurfaceEngine, host port.HostWindow, appID string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	mgr, err := viewmanager.New(viewmanager.Options{
		Engine:         engine,
		Host:           host,
		Logger:         app.Log,
		BoundsDebounce: time.Duration(app.Config.Bounds.DebounceMS) * time.Millisecond,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := mgr.Close(context.Background()); err != nil {
			app.Log.Warn().Err(err).Msg("manager shutdown reported errors")
		}
	}()

	registerApps(mgr, app.Config)

	if app.Config.Journal.Enabled {
		db, err := sqlite.NewConnection(logging.WithContext(ctx, app.Log), app.Config.Journal.Path)
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		journal := sqlite.NewJournal(db, app.Config.Journal.RetainPerApp, app.Log)
		unsubscribe := mgr.OnStateChange(journal.Record)
		defer func() {
			unsubscribe()
			_ = journal.Close()
			_ = db.Close()
		}()
	}

	app.ConfigManager.OnConfigChange(func(cfg *config.Config) {
		registerApps(mgr, cfg)
		app.Log.Info().Int("apps", len(cfg.Apps)).Msg("configuration reloaded")
	})
	if err := app.ConfigManager.Watch(); err != nil {
		app.Log.Warn().Err(err).Msg("config watching unavailable")
	}

	if _, err := mgr.Open(ctx, appID); err != nil {
		return fmt.Errorf("opening %q: %w", appID, err)
	}
	if _, err := mgr.Show(ctx, appID, entity.Bounds{}); err != nil {
		return fmt.Errorf("showing %q: %w", appID, err)
	}
	app.Log.Info().Str("app", appID).Msg("view shown")

	<-ctx.Done()
	app.Log.Info().Msg("shutting down")
	return nil
}

func registerApps(mgr *viewmanager.Manager, cfg *config.Config) {
	for _, ac := range cfg.AppConfigs() {
		if err := mgr.RegisterConfig(ac); err != nil {
			app.Log.Warn().Err(err).Str("app", ac.ID).Msg("app config rejected")
		}
	}
}
