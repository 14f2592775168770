package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/openclaw/talent-pipeline/internal/model"
	"github.com/openclaw/talent-pipeline/internal/pipeline"
)

var (
	runRoleKey         string
	runRoleTitle       string
	runKeywords        string
	runRoleKeywords    []string
	runSkills          []string
	runCompanies       []string
	runLocation        string
	runIndustry        string
	runAPI             string
	runAccountID       string
	runTarget          int
	runIdempotencyKey  string
	runSourceQueryMode string
	runEvidenceMode    string
	runBrowserVerify   bool
	runJSON            bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sourcing pipeline for a role",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		switch runAPI {
		case "classic", "recruiter", "sales_navigator":
		default:
			return eris.Errorf("invalid --api %q (use classic, recruiter, or sales_navigator)", runAPI)
		}
		switch runSourceQueryMode {
		case string(model.SourceQueryDefault), string(model.SourceQueryBroad):
		default:
			return eris.Errorf("invalid --source-query-mode %q (use default or broad)", runSourceQueryMode)
		}
		switch runEvidenceMode {
		case string(model.EvidenceQueryDefault), string(model.EvidenceQueryStrict):
		default:
			return eris.Errorf("invalid --evidence-query-mode %q (use default or strict)", runEvidenceMode)
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		out := env.Pipeline.Run(ctx, pipeline.RunInput{
			Role: model.RoleSpec{
				RoleKey:   runRoleKey,
				RoleTitle: runRoleTitle,
				Search: model.TalentSearch{
					Keywords:     runKeywords,
					RoleKeywords: toFilters(runRoleKeywords),
					Skills:       toFilters(runSkills),
					Companies:    toFilters(runCompanies),
					Location:     runLocation,
					Industry:     runIndustry,
					API:          runAPI,
					AccountID:    runAccountID,
				},
				TargetCandidates: runTarget,
			},
			IdempotencyKey:             runIdempotencyKey,
			BrowserVerificationEnabled: runBrowserVerify || cfg.Recruiting.BrowserVerification.Enabled,
			SourceQueryMode:            model.SourceQueryMode(runSourceQueryMode),
			EvidenceQueryMode:          model.EvidenceQueryMode(runEvidenceMode),
		})

		return writeJSON(os.Stdout, out, runJSON)
	},
}

func toFilters(texts []string) []model.SearchFilter {
	var out []model.SearchFilter
	for _, t := range texts {
		out = append(out, model.SearchFilter{Text: t})
	}
	return out
}

func init() {
	runCmd.Flags().StringVar(&runRoleKey, "role-key", "", "stable role identifier (required)")
	runCmd.Flags().StringVar(&runRoleTitle, "role-title", "", "human-readable role title (required)")
	runCmd.Flags().StringVar(&runKeywords, "keywords", "", "free-text search keywords")
	runCmd.Flags().StringArrayVar(&runRoleKeywords, "role-keyword", nil, "role keyword filter (repeatable)")
	runCmd.Flags().StringArrayVar(&runSkills, "skill", nil, "skill filter (repeatable)")
	runCmd.Flags().StringArrayVar(&runCompanies, "company", nil, "company filter (repeatable)")
	runCmd.Flags().StringVar(&runLocation, "location", "", "location filter")
	runCmd.Flags().StringVar(&runIndustry, "industry", "", "industry filter")
	runCmd.Flags().StringVar(&runAPI, "api", "classic", "LinkedIn API tier: classic, recruiter, sales_navigator")
	runCmd.Flags().StringVar(&runAccountID, "account-id", "", "override LinkedIn account id")
	runCmd.Flags().IntVar(&runTarget, "target-candidates", 0, "target candidate count (default from config)")
	runCmd.Flags().StringVar(&runIdempotencyKey, "idempotency-key", "", "explicit idempotency key")
	runCmd.Flags().StringVar(&runSourceQueryMode, "source-query-mode", "default", "source query mode: default or broad")
	runCmd.Flags().StringVar(&runEvidenceMode, "evidence-query-mode", "default", "evidence query mode: default or strict")
	runCmd.Flags().BoolVar(&runBrowserVerify, "browser-verification", false, "emit browser verification signals")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "compact JSON output")
	_ = runCmd.MarkFlagRequired("role-key")
	_ = runCmd.MarkFlagRequired("role-title")
	rootCmd.AddCommand(runCmd)
}
