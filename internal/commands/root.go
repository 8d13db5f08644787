package commands

import (
	"github.com/spf13/cobra"
)

const defaultConfigPath = "./config/application.yaml"

// NewRootCommand creates the root CLI command with all subcommands registered. Running it
// without a subcommand starts the server.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "expenses",
		Short: "Personal expense tracker with budgets and spending insights",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "path to the YAML configuration file")

	rootCmd.AddCommand(newServeCommand(&configPath))
	rootCmd.AddCommand(newMigrateCommand(&configPath))

	return rootCmd
}
