package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpelletier/boardwalk/internal/db"
	"github.com/mpelletier/boardwalk/internal/db/driver"
)

// newMigrateCmd creates the migrate command
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Apply pending database migrations for the configured storage.

Migrations are embedded in the binary and tracked in a _migrations table,
so re-running this command is safe.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			dialect, err := driver.ParseDialect(cfg.Storage.Dialect)
			if err != nil {
				return err
			}

			store, err := db.OpenWithDialect(cfg.Storage.DSN, dialect)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer store.Close()

			if err := store.Migrate(); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}

			fmt.Printf("Migrations applied (%s, %s)\n", cfg.Storage.Dialect, cfg.Storage.DSN)
			return nil
		},
	}
}
