package pipeline

import (
	"fmt"

	"github.com/openclaw/talent-pipeline/pkg/unipile"
)

// Pipeline stage labels used in failures and diagnostics.
const (
	StagePreflight      = "linkedin_preflight"
	StageSearch         = "linkedin_search"
	StageCandidateScore = "candidate_enrich_score"
)

// StageError is a classified failure attributed to a pipeline stage.
type StageError struct {
	Stage     string
	Type      string
	Retryable bool
	Message   string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline: stage %s failed (%s): %s", e.Stage, e.Type, e.Message)
}

// newStageError builds a StageError from a classified LinkedIn failure.
func newStageError(stage string, c unipile.Classification) *StageError {
	return &StageError{
		Stage:     stage,
		Type:      string(c.Type),
		Retryable: c.IsTransient,
		Message:   c.Message,
	}
}

// classify maps any error onto the shared taxonomy, preserving an existing
// StageError's classification.
func classify(stage string, err error) *StageError {
	if se, ok := err.(*StageError); ok { //nolint:errorlint
		return se
	}
	return newStageError(stage, unipile.ClassifyError(err))
}
