package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	resultsRunID string
	resultsLimit int
	resultsJSON  bool
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show a run's scored candidates",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		results, err := env.Pipeline.Results(ctx, resultsRunID, resultsLimit)
		if err != nil {
			return err
		}
		return writeJSON(os.Stdout, results, resultsJSON)
	},
}

func init() {
	resultsCmd.Flags().StringVar(&resultsRunID, "run-id", "", "run to read (required)")
	resultsCmd.Flags().IntVar(&resultsLimit, "limit", 100, "maximum candidates to return")
	resultsCmd.Flags().BoolVar(&resultsJSON, "json", false, "compact JSON output")
	_ = resultsCmd.MarkFlagRequired("run-id")
	rootCmd.AddCommand(resultsCmd)
}
