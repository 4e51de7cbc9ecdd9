package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List configured apps",
	RunE:  runApps,
}

func init() {
	rootCmd.AddCommand(appsCmd)
}

func runApps(cmd *cobra.Command, _ []string) error {
	apps := app.Config.AppConfigs()
	if len(apps) == 0 {
		fmt.Println(theme.Subtle.Render("no apps configured"))
		return nil
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render("Configured apps") + "\n\n")
	b.WriteString(theme.Header.Render(fmt.Sprintf("%-16s %-24s %s", "ID", "NAME", "URL")) + "\n")

	for _, ac := range apps {
		line := fmt.Sprintf("%-16s %-24s %s", ac.ID, ac.Name, ac.URL)
		b.WriteString(theme.Cell.Render(line) + "\n")
		for _, fallback := range ac.FallbackURLs {
			b.WriteString(theme.Subtle.Render(fmt.Sprintf("%-41s ↳ %s", "", fallback)) + "\n")
		}
	}

	fmt.Println(b.String())
	return nil
}
