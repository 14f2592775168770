package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	statusRunID string
	statusJSON  bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show run status and diagnostics",
	Long:  "With --run-id, shows one run with its diagnostics; otherwise lists the 20 most recent runs.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if statusRunID != "" {
			run, err := env.Pipeline.Status(ctx, statusRunID)
			if err != nil {
				return err
			}
			return writeJSON(os.Stdout, run, statusJSON)
		}

		runs, err := env.Pipeline.RecentRuns(ctx, 20)
		if err != nil {
			return err
		}
		return writeJSON(os.Stdout, runs, statusJSON)
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusRunID, "run-id", "", "run to inspect")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "compact JSON output")
	rootCmd.AddCommand(statusCmd)
}
