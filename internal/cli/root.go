// Package cli implements the boardwalk command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "boardwalk",
	Short: "Multi-board task tracker with a consistent ordering engine",
	Long: `boardwalk serves multi-board task tracking backed by a task ordering
and relationship consistency engine.

Every task holds a dense, gap-free position within its column; parent/child
relationships are maintained as mirrored pairs; all mutations apply
atomically whether storage is a local database or a remote batch executor;
and committed changes stream to connected clients per tenant.

Quick start:
  boardwalk migrate           Apply database migrations
  boardwalk serve             Start the API and event stream server`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .boardwalk/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// initConfig reads in ENV variables and the config file if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".boardwalk")
		viper.AddConfigPath("$HOME/.boardwalk")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("BOARDWALK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
