package store

import (
	"context"

	"github.com/openclaw/talent-pipeline/internal/model"
)

// BeginRunInput describes the run to create (or resume).
type BeginRunInput struct {
	IdempotencyKey   string
	RoleKey          string
	RoleTitle        string
	TargetCandidates int
	// ConfigJSON carries the serialized search criteria and mode markers.
	ConfigJSON string
}

// BeginRunResult reports the winning run for an idempotency key.
type BeginRunResult struct {
	Run     model.PipelineRun
	Resumed bool
}

// QueueFilter bounds a verification queue query.
type QueueFilter struct {
	Limit int
	// HighPriority additionally filters to review.priority >= 50.
	HighPriority bool
}

// QuotaTargets are the configured daily quota ceilings.
type QuotaTargets struct {
	PromotedTarget     int
	ReviewedTarget     int
	VerificationBudget int
}

// Store is the persistence interface for the candidate pipeline.
type Store interface {
	// Runs
	BeginRun(ctx context.Context, in BeginRunInput) (*BeginRunResult, error)
	MarkRunCompleted(ctx context.Context, runID string, diag *model.Diagnostics) error
	MarkRunFailed(ctx context.Context, runID string, diag *model.Diagnostics) error
	GetRun(ctx context.Context, runID string) (*model.PipelineRun, error)
	ListRecentRuns(ctx context.Context, limit int) ([]model.PipelineRun, error)
	AddRunFailure(ctx context.Context, failure model.RunFailure) error

	// Candidates
	UpsertCandidate(ctx context.Context, c model.Candidate) (string, error)
	AddSourceRecord(ctx context.Context, rec model.SourceRecord) error
	AddSignals(ctx context.Context, signals []model.Signal) error
	AddEvidenceLinks(ctx context.Context, links []model.EvidenceLink) error
	UpsertIdentity(ctx context.Context, id model.Identity) error
	UpsertScore(ctx context.Context, score model.Score) error

	// Read side
	GetResults(ctx context.Context, runID string, limit int) (*model.PipelineResults, error)
	GetCandidateDetail(ctx context.Context, candidateID string) (*model.CandidateDetail, error)
	GetIdentity(ctx context.Context, candidateID string, platform model.Platform) (*model.Identity, error)

	// Review workflow
	UpsertReviewStatus(ctx context.Context, review model.Review) error
	GetReview(ctx context.Context, candidateID, runID string) (*model.Review, error)
	GetVerificationQueue(ctx context.Context, runID string, filter QueueFilter) ([]model.QueueEntry, error)
	InsertVerification(ctx context.Context, v model.Verification) error
	HasConfirmedVerification(ctx context.Context, candidateID, runID string) (bool, error)
	HasPromotion(ctx context.Context, candidateID, runID string) (bool, error)
	InsertPromotion(ctx context.Context, p model.Promotion) error

	// Daily reporting
	UpsertDailyOutput(ctx context.Context, out model.DailyOutput) error
	GetWorkflowStats(ctx context.Context, runID, date string) (*model.WorkflowStats, error)
	GetVerificationStats(ctx context.Context, runID, date string) (*model.VerificationStats, error)
	GetQuotaStatus(ctx context.Context, runID, date string, targets QuotaTargets) (*model.QuotaStatus, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
