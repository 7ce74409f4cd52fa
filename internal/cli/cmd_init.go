package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpelletier/boardwalk/internal/config"
)

// newInitCmd creates the init command
func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize boardwalk in the current directory",
		Long: `Initialize boardwalk in the current directory.

Creates the .boardwalk directory with a default config file pointing at a
local SQLite database and the direct storage backend. Edit the config to
switch to PostgreSQL or the proxy batch executor.

Examples:
  boardwalk init           # Write .boardwalk/config.yaml
  boardwalk init --force   # Overwrite an existing config`,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			if err := config.Init(force); err != nil {
				return err
			}

			fmt.Printf("Initialized boardwalk in %s/\n", config.Dir)
			fmt.Println("Next steps:")
			fmt.Println("  boardwalk migrate   # Apply database migrations")
			fmt.Println("  boardwalk serve     # Start the API server")
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "overwrite an existing config")
	return cmd
}
