package pipeline

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/openclaw/talent-pipeline/internal/model"
	"github.com/openclaw/talent-pipeline/internal/store"
)

// ReviewUpdateInput is the operator's review state change.
type ReviewUpdateInput struct {
	CandidateID string
	RunID       string
	Status      model.ReviewStatus
	Priority    int
	Notes       string
}

// UpdateReviewStatus upserts the (candidate, run) review row.
func (p *Pipeline) UpdateReviewStatus(ctx context.Context, in ReviewUpdateInput) error {
	switch in.Status {
	case model.ReviewNewReview, model.ReviewUnderVerification, model.ReviewPromotedShortlist,
		model.ReviewRejected, model.ReviewDeferred:
	default:
		return eris.Errorf("pipeline: unknown review status %q", in.Status)
	}
	return p.store.UpsertReviewStatus(ctx, model.Review{
		CandidateID: in.CandidateID,
		RunID:       in.RunID,
		Status:      in.Status,
		Priority:    in.Priority,
		Notes:       in.Notes,
	})
}

// VerificationInput is one verification submission.
type VerificationInput struct {
	CandidateID     string
	RunID           string
	Method          model.VerificationMethod
	Outcome         model.VerificationOutcome
	ConfidenceAfter float64
	ProofLinks      []string
	Notes           string
}

// SubmitVerification records a verification attempt. The identity's
// cross-platform confidence at submission time is captured as the before
// value; the store applies the review transition the outcome implies.
func (p *Pipeline) SubmitVerification(ctx context.Context, in VerificationInput) error {
	var before float64
	id, err := p.store.GetIdentity(ctx, in.CandidateID, model.PlatformCrossPlatform)
	if err != nil {
		return err
	}
	if id != nil {
		before = id.Confidence
	}

	if err := p.store.InsertVerification(ctx, model.Verification{
		CandidateID:      in.CandidateID,
		RunID:            in.RunID,
		Method:           in.Method,
		Outcome:          in.Outcome,
		ConfidenceBefore: before,
		ConfidenceAfter:  in.ConfidenceAfter,
		ProofLinks:       in.ProofLinks,
		Notes:            in.Notes,
	}); err != nil {
		return err
	}

	zap.L().Info("verification submitted",
		zap.String("candidate_id", in.CandidateID),
		zap.String("run_id", in.RunID),
		zap.String("outcome", string(in.Outcome)),
	)
	return nil
}

// PromotionInput is one promotion attempt.
type PromotionInput struct {
	CandidateID        string
	RunID              string
	PromotionReason    string
	ConfidenceOverride *float64
	OutreachAngle      string
	ProofLinks         []string
}

// PromotionResult reports a business-rule verdict without throwing.
type PromotionResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// PromoteCandidate enforces the promotion preconditions: the proof-link
// floor, at most one promotion per (candidate, run), and a prior confirmed
// verification unless unverified promotion is allowed. The store's
// InsertPromotion owns the review upsert.
func (p *Pipeline) PromoteCandidate(ctx context.Context, in PromotionInput) (*PromotionResult, error) {
	min := p.cfg.Promotion.MinProofLinks
	if len(in.ProofLinks) < min {
		return &PromotionResult{
			Error: fmt.Sprintf("promotion requires at least %d proof links, got %d", min, len(in.ProofLinks)),
		}, nil
	}

	promoted, err := p.store.HasPromotion(ctx, in.CandidateID, in.RunID)
	if err != nil {
		return nil, err
	}
	if promoted {
		return &PromotionResult{Error: "candidate already promoted for this run"}, nil
	}

	if !p.cfg.Promotion.AllowUnverifiedPromotion {
		confirmed, err := p.store.HasConfirmedVerification(ctx, in.CandidateID, in.RunID)
		if err != nil {
			return nil, err
		}
		if !confirmed {
			return &PromotionResult{Error: "promotion requires a confirmed verification"}, nil
		}
	}

	if err := p.store.InsertPromotion(ctx, model.Promotion{
		CandidateID:        in.CandidateID,
		RunID:              in.RunID,
		PromotionReason:    in.PromotionReason,
		ConfidenceOverride: in.ConfidenceOverride,
		OutreachAngle:      in.OutreachAngle,
		ProofLinks:         in.ProofLinks,
	}); err != nil {
		return nil, err
	}

	zap.L().Info("candidate promoted",
		zap.String("candidate_id", in.CandidateID),
		zap.String("run_id", in.RunID),
	)
	return &PromotionResult{Success: true}, nil
}

// GetVerificationQueue lists candidates under verification for the run.
// priority "high" additionally filters to review priority >= 50.
func (p *Pipeline) GetVerificationQueue(ctx context.Context, runID string, limit int, priority string) ([]model.QueueEntry, error) {
	return p.store.GetVerificationQueue(ctx, runID, store.QueueFilter{
		Limit:        limit,
		HighPriority: priority == "high",
	})
}

// GetDailyReport assembles the operator's daily rollup. An empty runID
// resolves to the most recent run for the role among the 20 latest runs;
// an empty date defaults to today UTC.
func (p *Pipeline) GetDailyReport(ctx context.Context, runID, roleKey, date string) (*model.DailyReport, error) {
	if date == "" {
		date = model.DateUTC(p.now())
	}

	if runID == "" {
		runs, err := p.store.ListRecentRuns(ctx, 20)
		if err != nil {
			return nil, err
		}
		for _, r := range runs {
			if r.RoleKey == roleKey {
				runID = r.ID
				break
			}
		}
		if runID == "" {
			return nil, eris.Errorf("pipeline: no recent run found for role %q", roleKey)
		}
	}

	run, err := p.store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	var contract model.RunCounts
	if run.Diagnostics != nil {
		contract = run.Diagnostics.Counts
	}

	workflow, err := p.store.GetWorkflowStats(ctx, runID, date)
	if err != nil {
		return nil, err
	}
	verification, err := p.store.GetVerificationStats(ctx, runID, date)
	if err != nil {
		return nil, err
	}
	quota, err := p.store.GetQuotaStatus(ctx, runID, date, store.QuotaTargets{
		PromotedTarget:     p.cfg.DailyQuotas.PromotedTarget,
		ReviewedTarget:     p.cfg.DailyQuotas.ReviewedTarget,
		VerificationBudget: p.cfg.DailyQuotas.VerificationBudget,
	})
	if err != nil {
		return nil, err
	}

	return &model.DailyReport{
		RunID:        runID,
		RoleKey:      run.RoleKey,
		Date:         date,
		Contract:     contract,
		Workflow:     *workflow,
		Verification: *verification,
		Quota:        *quota,
	}, nil
}
