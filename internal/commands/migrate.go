package commands

import (
	"fmt"

	"github.com/expensetracker/expenses/internal/config"
	"github.com/expensetracker/expenses/internal/database"
	"github.com/spf13/cobra"
	log "github.com/sirupsen/logrus"
)

func newMigrateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := database.Migrate(cfg.Database); err != nil {
				return err
			}
			log.Info("Migrations applied")
			return nil
		},
	}
}
