// Command expenses runs the expenses API.
//
//	expenses serve     start the HTTP server (migrating first when database.auto_migrate is set)
//	expenses migrate   apply pending migrations and exit
package main

import (
	"fmt"
	"os"

	"github.com/deppfellow/expenses-api/internal/config"
	"github.com/deppfellow/expenses-api/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "expenses",
		Short:         "Expenses Tracker API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCommand(), newMigrateCommand())

	return root
}

// bootstrap loads the config and builds the application logger.
func bootstrap() (*config.Config, *zerolog.Logger, *logger.LoggerService, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	loggerService, err := logger.NewLoggerService(cfg.Observability)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to start New Relic: %w", err)
	}

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	return cfg, &log, loggerService, nil
}
