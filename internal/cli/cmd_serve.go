package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mpelletier/boardwalk/internal/api"
	"github.com/mpelletier/boardwalk/internal/config"
	"github.com/mpelletier/boardwalk/internal/db"
	"github.com/mpelletier/boardwalk/internal/db/driver"
	"github.com/mpelletier/boardwalk/internal/engine"
	"github.com/mpelletier/boardwalk/internal/events"
)

// newServeCmd creates the serve command for the API server
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the boardwalk API server.

The API server provides REST endpoints and a WebSocket event stream for:
  • Board, column, and task management
  • Task reordering within and across columns and boards
  • Task relationships and connected-graph queries
  • Live per-tenant change events

Storage is selected by config: "direct" applies mutations in a native
database transaction, "proxy" sends them as a statement batch to a remote
executor.

Example:
  boardwalk serve              # Start on the configured address (default :8080)
  boardwalk serve --addr :3000 # Start on a custom address`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
			}

			logger := newLogger()

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

			var gateway engine.Gateway
			switch cfg.Storage.Backend {
			case config.BackendProxy:
				gateway = engine.NewProxyGateway(cfg.Storage.ProxyURL, logger)
			default:
				gateway = engine.NewDirectGateway(store)
			}

			publisher := events.NewMemoryPublisher()
			defer publisher.Close()

			coord := engine.NewCoordinator(gateway, logger)
			eng := engine.New(store, coord, publisher, logger)

			server := api.New(&api.Config{
				Addr:        cfg.Server.Addr,
				Engine:      eng,
				Publisher:   publisher,
				Logger:      logger,
				MultiTenant: cfg.MultiTenant,
			})

			fmt.Printf("Starting API server on %s (backend: %s, dialect: %s)...\n",
				cfg.Server.Addr, cfg.Storage.Backend, cfg.Storage.Dialect)
			fmt.Println("Press Ctrl+C to stop")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(server.Start)
			g.Go(func() error {
				<-ctx.Done()
				fmt.Println("\nShutting down...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}

	cmd.Flags().String("addr", ":8080", "address to listen on")

	return cmd
}

// loadConfig loads the boardwalk config, honoring the --config flag.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFrom(cfgFile)
	}
	return config.Load()
}

// newLogger builds the process logger. Verbose mode enables debug output.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
