package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/datallboy/catfish/internal/domain"
	"github.com/datallboy/catfish/internal/engine"
	"github.com/spf13/cobra"
)

func newDownloadCmd(root *rootOptions) *cobra.Command {
	var (
		manifestPath string
		outDir       string
		reportPath   string
		workers      int
		noProgress   bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download every image listed in the manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			if manifestPath != "" {
				cfg.Manifest.Path = manifestPath
			}
			if outDir != "" {
				cfg.Download.OutDir = outDir
			}
			if reportPath != "" {
				cfg.Report.Path = reportPath
			}
			if workers > 0 {
				cfg.Download.MaxWorkers = workers
			}

			// Fail before touching the filesystem (log file, ledger, output tree)
			if _, err := os.Stat(cfg.Manifest.Path); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%s not found. Please generate the manifest first: %w", cfg.Manifest.Path, domain.ErrManifestNotFound)
			}

			appCtx, cleanup, err := newAppContext(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			pipeline := engine.NewPipeline(appCtx, cmd.OutOrStdout())
			if noProgress {
				pipeline.NewProgress = engine.NoProgress
			}

			_, err = pipeline.Run(cmd.Context())
			return err
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "manifest CSV with url,class,type columns")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "root of the split/class output tree")
	cmd.Flags().StringVar(&reportPath, "report", "", "where to write the failed downloads CSV")
	cmd.Flags().IntVar(&workers, "workers", 0, "number of concurrent downloads")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")

	return cmd
}
