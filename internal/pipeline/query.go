package pipeline

import (
	"context"

	"github.com/openclaw/talent-pipeline/internal/model"
)

// Status returns one run with its diagnostics.
func (p *Pipeline) Status(ctx context.Context, runID string) (*model.PipelineRun, error) {
	return p.store.GetRun(ctx, runID)
}

// RecentRuns lists the most recent runs, newest first.
func (p *Pipeline) RecentRuns(ctx context.Context, limit int) ([]model.PipelineRun, error) {
	return p.store.ListRecentRuns(ctx, limit)
}

// Results returns the run's scored candidates partitioned into shortlist
// and review queue, with diagnostics attached to meta.
func (p *Pipeline) Results(ctx context.Context, runID string, limit int) (*model.PipelineResults, error) {
	return p.store.GetResults(ctx, runID, limit)
}

// Candidate returns the full detail document for one candidate.
func (p *Pipeline) Candidate(ctx context.Context, candidateID string) (*model.CandidateDetail, error) {
	return p.store.GetCandidateDetail(ctx, candidateID)
}
