package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	reportRunID   string
	reportRoleKey string
	reportDate    string
	reportJSON    bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the daily workflow report",
	Long:  "Aggregates sourcing counts, review workflow states, verification outcomes, and quota usage for one UTC day. Without --run-id, resolves the most recent run for --role-key.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := env.Pipeline.GetDailyReport(ctx, reportRunID, reportRoleKey, reportDate)
		if err != nil {
			return err
		}
		return writeJSON(os.Stdout, report, reportJSON)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportRunID, "run-id", "", "run to report on")
	reportCmd.Flags().StringVar(&reportRoleKey, "role-key", "", "role to resolve when --run-id is absent")
	reportCmd.Flags().StringVar(&reportDate, "date", "", "UTC day (YYYY-MM-DD, default today)")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "compact JSON output")
	rootCmd.AddCommand(reportCmd)
}
