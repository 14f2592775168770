package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var candidateJSON bool

var candidateCmd = &cobra.Command{
	Use:   "candidate <id>",
	Short: "Show a candidate's full detail document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		detail, err := env.Pipeline.Candidate(ctx, args[0])
		if err != nil {
			return err
		}
		return writeJSON(os.Stdout, detail, candidateJSON)
	},
}

func init() {
	candidateCmd.Flags().BoolVar(&candidateJSON, "json", false, "compact JSON output")
	rootCmd.AddCommand(candidateCmd)
}
