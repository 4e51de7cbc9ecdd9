package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/emberhost/emberview/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and maintain the configuration",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(_ *cobra.Command, _ []string) error {
		dir, err := config.GetConfigDir()
		if err != nil {
			return err
		}
		fmt.Println(filepath.Join(dir, "config.toml"))
		return nil
	},
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema for the config file",
	RunE: func(_ *cobra.Command, _ []string) error {
		data, err := config.SchemaJSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configPathCmd, configSchemaCmd)
	rootCmd.AddCommand(configCmd)
}
