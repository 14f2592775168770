package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAccumulator_AggregatesTopThreeMessages(t *testing.T) {
	acc := newRunAccumulator()

	for i := 0; i < 5; i++ {
		acc.recordStageError("candidate_enrich_score", "rate_limit", "LinkedIn API error (429)")
	}
	for i := 0; i < 3; i++ {
		acc.recordStageError("candidate_enrich_score", "timeout", "request timeout")
	}
	acc.recordStageError("candidate_enrich_score", "network", "connection reset")
	acc.recordStageError("candidate_enrich_score", "not_found", "profile gone")

	aggs := acc.aggregates()
	require.Len(t, aggs, 1)

	agg := aggs[0]
	assert.Equal(t, "candidate_enrich_score", agg.Stage)
	assert.Equal(t, 10, agg.Total)
	require.Len(t, agg.TopMessages, 3)
	assert.Equal(t, "LinkedIn API error (429)", agg.TopMessages[0].Message)
	assert.Equal(t, 5, agg.TopMessages[0].Count)
	assert.Equal(t, "request timeout", agg.TopMessages[1].Message)
}

func TestRunAccumulator_MultipleStagesSorted(t *testing.T) {
	acc := newRunAccumulator()
	acc.recordStageError("linkedin_search", "rate_limit", "429")
	acc.recordStageError("candidate_enrich_score", "timeout", "slow")

	aggs := acc.aggregates()
	require.Len(t, aggs, 2)
	assert.Equal(t, "candidate_enrich_score", aggs[0].Stage)
	assert.Equal(t, "linkedin_search", aggs[1].Stage)
}

func TestRunAccumulator_Empty(t *testing.T) {
	acc := newRunAccumulator()
	assert.Empty(t, acc.aggregates())
	assert.Zero(t, acc.counts.Sourced)
}

func TestRunAccumulator_DeterministicTieBreak(t *testing.T) {
	acc := newRunAccumulator()
	acc.recordStageError("s", "a", "bravo")
	acc.recordStageError("s", "a", "alpha")

	for i := 0; i < 3; i++ {
		aggs := acc.aggregates()
		require.Len(t, aggs[0].TopMessages, 2)
		assert.Equal(t, "alpha", aggs[0].TopMessages[0].Message,
			fmt.Sprintf("iteration %d", i))
	}
}
