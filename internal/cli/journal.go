package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberhost/emberview/internal/domain/entity"
	"github.com/emberhost/emberview/internal/infrastructure/persistence/sqlite"
	"github.com/emberhost/emberview/internal/logging"
)

var journalLimit int

var journalCmd = &cobra.Command{
	Use:   "journal [app-id]",
	Short: "Show recent view state transitions",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJournal,
}

func init() {
	journalCmd.Flags().IntVar(&journalLimit, "limit", 50, "maximum number of transitions to show")
	rootCmd.AddCommand(journalCmd)
}

func runJournal(cmd *cobra.Command, args []string) error {
	if !app.Config.Journal.Enabled {
		return fmt.Errorf("journal is disabled in the configuration")
	}

	ctx := logging.WithContext(cmd.Context(), app.Log)
	db, err := sqlite.NewConnection(ctx, app.Config.Journal.Path)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer func() { _ = db.Close() }()

	journal := sqlite.NewJournal(db, 0, app.Log)
	defer func() { _ = journal.Close() }()

	appID := ""
	if len(args) == 1 {
		appID = args[0]
	}

	transitions, err := journal.Recent(ctx, appID, journalLimit)
	if err != nil {
		return err
	}
	if len(transitions) == 0 {
		fmt.Println(theme.Subtle.Render("no transitions recorded"))
		return nil
	}

	fmt.Println(theme.Title.Render("Recent transitions"))
	fmt.Println()
	for _, tr := range transitions {
		state := tr.State.String()
		switch tr.State {
		case entity.StateVisible:
			state = theme.Active.Render(state)
		case entity.StateError:
			state = theme.ErrState.Render(state)
		}
		line := fmt.Sprintf("%s  %-16s %-10s %s",
			tr.OccurredAt.Local().Format("2006-01-02 15:04:05"), tr.AppID, state, tr.CurrentURL)
		fmt.Println(line)
	}
	return nil
}
