// Package cli provides the command-line interface for emberview.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/emberhost/emberview/internal/config"
	"github.com/emberhost/emberview/internal/logging"
)

// BuildInfo is stamped by the linker in cmd/emberview.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// App carries configuration and logging shared by all commands.
type App struct {
	ConfigManager *config.Manager
	Config        *config.Config
	Log           zerolog.Logger
	BuildInfo     BuildInfo
}

// NewApp loads configuration and builds the logger commands run with.
func NewApp() (*App, error) {
	cm, err := config.NewManager()
	if err != nil {
		return nil, err
	}
	if err := cm.Load(); err != nil {
		return nil, err
	}
	cfg := cm.Get()

	log := logging.New(logging.Config{
		Level:      logging.ParseLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		TimeFormat: "15:04:05",
	})

	return &App{ConfigManager: cm, Config: cfg, Log: log}, nil
}

var (
	app     *App
	rootCmd = &cobra.Command{
		Use:   "emberview",
		Short: "Embedded mini-app view manager",
		Long: `Emberview hosts web mini-apps as embedded views inside one window.

Apps are declared in the config file as [apps.<id>] tables with a primary
URL and optional fallbacks. One view is visible at a time; the rest stay
loaded in the background and swap in instantly.

Use 'emberview launch' to start the host window, or the subcommands for
inspection: 'apps' lists configured apps, 'journal' shows recent view
state transitions.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "help", "completion", "version":
				return nil
			}
			var err error
			app, err = NewApp()
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}
			app.BuildInfo = buildInfo
			return nil
		},
	}
	buildInfo BuildInfo
)

// Execute runs the root command.
func Execute(info BuildInfo) error {
	buildInfo = info
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", info.Version, info.Commit, info.Date)
	return rootCmd.Execute()
}
