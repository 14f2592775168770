package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openclaw/talent-pipeline/internal/model"
	"github.com/openclaw/talent-pipeline/internal/pipeline"
)

var (
	reviewCandidateID string
	reviewRunID       string
	reviewStatus      string
	reviewPriority    int
	reviewNotes       string
	reviewJSON        bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Update a candidate's review state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		err = env.Pipeline.UpdateReviewStatus(ctx, pipeline.ReviewUpdateInput{
			CandidateID: reviewCandidateID,
			RunID:       reviewRunID,
			Status:      model.ReviewStatus(reviewStatus),
			Priority:    reviewPriority,
			Notes:       reviewNotes,
		})
		if err != nil {
			return err
		}
		return writeJSON(os.Stdout, map[string]any{"success": true}, reviewJSON)
	},
}

var (
	verifyCandidateID string
	verifyRunID       string
	verifyMethod      string
	verifyOutcome     string
	verifyConfidence  float64
	verifyProofLinks  []string
	verifyNotes       string
	verifyJSON        bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Submit a verification result",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		err = env.Pipeline.SubmitVerification(ctx, pipeline.VerificationInput{
			CandidateID:     verifyCandidateID,
			RunID:           verifyRunID,
			Method:          model.VerificationMethod(verifyMethod),
			Outcome:         model.VerificationOutcome(verifyOutcome),
			ConfidenceAfter: verifyConfidence,
			ProofLinks:      verifyProofLinks,
			Notes:           verifyNotes,
		})
		if err != nil {
			return err
		}
		return writeJSON(os.Stdout, map[string]any{"success": true}, verifyJSON)
	},
}

var (
	queueRunID    string
	queueLimit    int
	queuePriority string
	queueJSON     bool
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List candidates awaiting verification",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		entries, err := env.Pipeline.GetVerificationQueue(ctx, queueRunID, queueLimit, queuePriority)
		if err != nil {
			return err
		}
		return writeJSON(os.Stdout, entries, queueJSON)
	},
}

var (
	promoteCandidateID string
	promoteRunID       string
	promoteReason      string
	promoteAngle       string
	promoteProofLinks  []string
	promoteJSON        bool
)

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Promote a candidate to the shortlist",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.PromoteCandidate(ctx, pipeline.PromotionInput{
			CandidateID:     promoteCandidateID,
			RunID:           promoteRunID,
			PromotionReason: promoteReason,
			OutreachAngle:   promoteAngle,
			ProofLinks:      promoteProofLinks,
		})
		if err != nil {
			return err
		}
		return writeJSON(os.Stdout, result, promoteJSON)
	},
}

func init() {
	reviewCmd.Flags().StringVar(&reviewCandidateID, "candidate-id", "", "candidate to review (required)")
	reviewCmd.Flags().StringVar(&reviewRunID, "run-id", "", "run scope (required)")
	reviewCmd.Flags().StringVar(&reviewStatus, "status", "", "new_review, under_verification, promoted_shortlist, rejected, or deferred (required)")
	reviewCmd.Flags().IntVar(&reviewPriority, "priority", 0, "review priority (0-100)")
	reviewCmd.Flags().StringVar(&reviewNotes, "notes", "", "reviewer notes")
	reviewCmd.Flags().BoolVar(&reviewJSON, "json", false, "compact JSON output")
	_ = reviewCmd.MarkFlagRequired("candidate-id")
	_ = reviewCmd.MarkFlagRequired("run-id")
	_ = reviewCmd.MarkFlagRequired("status")
	rootCmd.AddCommand(reviewCmd)

	verifyCmd.Flags().StringVar(&verifyCandidateID, "candidate-id", "", "candidate verified (required)")
	verifyCmd.Flags().StringVar(&verifyRunID, "run-id", "", "run scope (required)")
	verifyCmd.Flags().StringVar(&verifyMethod, "method", "browser", "verification method: browser or api")
	verifyCmd.Flags().StringVar(&verifyOutcome, "outcome", "", "confirmed, rejected, or inconclusive (required)")
	verifyCmd.Flags().Float64Var(&verifyConfidence, "confidence", 0, "confidence after verification")
	verifyCmd.Flags().StringArrayVar(&verifyProofLinks, "proof-link", nil, "proof URL (repeatable)")
	verifyCmd.Flags().StringVar(&verifyNotes, "notes", "", "verifier notes")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "compact JSON output")
	_ = verifyCmd.MarkFlagRequired("candidate-id")
	_ = verifyCmd.MarkFlagRequired("run-id")
	_ = verifyCmd.MarkFlagRequired("outcome")
	rootCmd.AddCommand(verifyCmd)

	queueCmd.Flags().StringVar(&queueRunID, "run-id", "", "run scope (required)")
	queueCmd.Flags().IntVar(&queueLimit, "limit", 20, "maximum entries")
	queueCmd.Flags().StringVar(&queuePriority, "priority", "", `"high" filters to priority >= 50`)
	queueCmd.Flags().BoolVar(&queueJSON, "json", false, "compact JSON output")
	_ = queueCmd.MarkFlagRequired("run-id")
	rootCmd.AddCommand(queueCmd)

	promoteCmd.Flags().StringVar(&promoteCandidateID, "candidate-id", "", "candidate to promote (required)")
	promoteCmd.Flags().StringVar(&promoteRunID, "run-id", "", "run scope (required)")
	promoteCmd.Flags().StringVar(&promoteReason, "reason", "", "promotion reason")
	promoteCmd.Flags().StringVar(&promoteAngle, "outreach-angle", "", "outreach angle override")
	promoteCmd.Flags().StringArrayVar(&promoteProofLinks, "proof-link", nil, "proof URL (repeatable)")
	promoteCmd.Flags().BoolVar(&promoteJSON, "json", false, "compact JSON output")
	_ = promoteCmd.MarkFlagRequired("candidate-id")
	_ = promoteCmd.MarkFlagRequired("run-id")
	rootCmd.AddCommand(promoteCmd)
}
