package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/datallboy/catfish/internal/report"
	"github.com/spf13/cobra"
)

func newRunsCmd(root *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded download runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			appCtx, cleanup, err := newAppContext(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := requireStore(appCtx); err != nil {
				return err
			}

			runs, err := appCtx.Store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTARTED\tDURATION\tTOTAL\tDOWNLOADED\tSKIPPED\tFAILED")
			for _, r := range runs {
				duration := "running"
				if !r.FinishedAt.IsZero() {
					duration = r.FinishedAt.Sub(r.StartedAt).Truncate(time.Second).String()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
					r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), duration,
					r.Total, r.Downloaded, r.Skipped, r.Failed)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show (0 for all)")
	return cmd
}

func newFailuresCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "failures <run-id>",
		Short: "Print the failed downloads of a run as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			appCtx, cleanup, err := newAppContext(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := requireStore(appCtx); err != nil {
				return err
			}

			run, err := appCtx.Store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run %s not found", args[0])
			}

			failures, err := appCtx.Store.GetFailures(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			return report.WriteCSV(cmd.OutOrStdout(), failures)
		},
	}
}
