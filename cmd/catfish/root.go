package main

import (
	"fmt"

	"github.com/datallboy/catfish/internal/app"
	"github.com/datallboy/catfish/internal/infra/config"
	"github.com/datallboy/catfish/internal/infra/logger"
	"github.com/datallboy/catfish/internal/store"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags
var Version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "catfish",
		Short:         "Bulk-download the cat vs fish image dataset",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (default catfish.yaml if present)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	downloadCmd := newDownloadCmd(opts)
	root.AddCommand(downloadCmd, newRunsCmd(opts), newFailuresCmd(opts), newServeCmd(opts))

	// Bare `catfish` behaves like `catfish download`
	root.RunE = downloadCmd.RunE
	root.Flags().AddFlagSet(downloadCmd.Flags())

	return root
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

// newAppContext builds the logger and opens the ledger. The returned cleanup
// closes the ledger.
func newAppContext(cfg *config.Config) (*app.Context, func(), error) {
	log, err := logger.New(cfg.Log.Path, logger.ParseLevel(cfg.Log.Level), cfg.Log.IncludeStdout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	appCtx := app.NewContext(cfg, log)

	s, err := store.Open(cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	cleanup := func() {}
	if s != nil {
		appCtx.Store = s
		cleanup = func() {
			if err := s.Close(); err != nil {
				log.Warn("Failed to close ledger: %v", err)
			}
		}
	}

	return appCtx, cleanup, nil
}

func requireStore(a *app.Context) error {
	if a.Store == nil {
		return fmt.Errorf("the run ledger is disabled (store.driver = none)")
	}
	return nil
}
