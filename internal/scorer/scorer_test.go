package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/talent-pipeline/internal/model"
)

func signalsFixture() []model.Signal {
	return []model.Signal{
		model.NumericSignal(model.SignalBuilderActivity, 0.8, "linkedin_posts", ""),
		model.NumericSignal(model.SignalAINativeEvidence, 0.7, "external", ""),
		model.NumericSignal(model.SignalTechnicalDepth, 0.6, "linkedin_profile", ""),
		model.NumericSignal(model.SignalRoleFit, 0.9, "linkedin_profile", ""),
	}
}

func TestCompute_Deterministic(t *testing.T) {
	in := Input{
		Signals:          signalsFixture(),
		IdentityScore:    0.91,
		IdentityEligible: true,
		Evidence: []model.EvidenceLink{
			{URL: "https://github.com/alice/agent-tool", Title: "agent-tool"},
		},
		OpenToWork: true,
	}

	first := Compute(in)
	second := Compute(in)
	assert.Equal(t, first, second)

	assert.Contains(t, first.Concerns, ConcernOpenToWork)
	assert.True(t, first.ShortlistEligible)
}

func TestCompute_TotalMatchesWeightedSum(t *testing.T) {
	score := Compute(Input{
		Signals:          signalsFixture(),
		IdentityScore:    0.91,
		IdentityEligible: true,
	})

	sum := WeightBuilderActivity*score.Breakdown.BuilderActivity +
		WeightAINativeEvidence*score.Breakdown.AINativeEvidence +
		WeightTechnicalDepth*score.Breakdown.TechnicalDepth +
		WeightRoleFit*score.Breakdown.RoleFit +
		WeightIdentityConfidence*score.Breakdown.IdentityConfidence
	assert.InDelta(t, sum, score.Total, 1e-3)
}

func TestCompute_TakesMaxPerSignalKey(t *testing.T) {
	score := Compute(Input{
		Signals: []model.Signal{
			model.NumericSignal(model.SignalBuilderActivity, 0.2, "linkedin_posts", ""),
			model.NumericSignal(model.SignalBuilderActivity, 0.5, "linkedin_comments", ""),
			model.NumericSignal(model.SignalBuilderActivity, 0.4, "external", ""),
		},
	})
	assert.InDelta(t, 0.5, score.Breakdown.BuilderActivity, 1e-9)
}

func TestCompute_EvidenceKeywordFloor(t *testing.T) {
	score := Compute(Input{
		Evidence: []model.EvidenceLink{
			{URL: "https://example.com/blog", Title: "Building with Claude Code"},
		},
	})
	assert.InDelta(t, 0.7, score.Breakdown.AINativeEvidence, 1e-9)

	// A stronger signal is not dragged down to the floor.
	score = Compute(Input{
		Signals: []model.Signal{
			model.NumericSignal(model.SignalAINativeEvidence, 0.9, "external", ""),
		},
		Evidence: []model.EvidenceLink{
			{URL: "https://github.com/x/mcp-server"},
		},
	})
	assert.InDelta(t, 0.9, score.Breakdown.AINativeEvidence, 1e-9)
}

func TestCompute_LowConfidenceIdentityConcerns(t *testing.T) {
	score := Compute(Input{
		Signals:          signalsFixture(),
		IdentityScore:    0.55,
		IdentityEligible: false,
	})

	assert.False(t, score.ShortlistEligible)
	assert.Contains(t, score.Concerns, ConcernIdentityUnconfirmed)
}

func TestCompute_ConcernOrder(t *testing.T) {
	score := Compute(Input{
		IdentityScore:    0.1,
		IdentityEligible: false,
		OpenToWork:       true,
	})

	require.Equal(t, []string{
		ConcernIdentityUnconfirmed,
		ConcernLowBuilderActivity,
		ConcernLimitedAIEvidence,
		ConcernWeakRoleFit,
		ConcernOpenToWork,
	}, score.Concerns)
}

func TestCompute_OpenToWorkHasNoScoreEffect(t *testing.T) {
	base := Compute(Input{Signals: signalsFixture(), IdentityScore: 0.91, IdentityEligible: true})
	open := Compute(Input{Signals: signalsFixture(), IdentityScore: 0.91, IdentityEligible: true, OpenToWork: true})

	assert.Equal(t, base.Total, open.Total)
	assert.Equal(t, base.Breakdown, open.Breakdown)
}

func TestOutreachAngle(t *testing.T) {
	tests := []struct {
		name     string
		signals  []model.Signal
		expected string
	}{
		{
			"ai native leads",
			[]model.Signal{
				model.NumericSignal(model.SignalAINativeEvidence, 0.6, "", ""),
				model.NumericSignal(model.SignalBuilderActivity, 0.9, "", ""),
			},
			AngleAINative,
		},
		{
			"builder activity second",
			[]model.Signal{
				model.NumericSignal(model.SignalAINativeEvidence, 0.5, "", ""),
				model.NumericSignal(model.SignalBuilderActivity, 0.6, "", ""),
			},
			AngleBuilder,
		},
		{
			"role fit fallback",
			nil,
			AngleRoleFit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Compute(Input{Signals: tt.signals})
			assert.Equal(t, tt.expected, score.OutreachAngle)
		})
	}
}

func TestCompute_ClampsComponents(t *testing.T) {
	score := Compute(Input{
		Signals: []model.Signal{
			model.NumericSignal(model.SignalBuilderActivity, 1.7, "", ""),
		},
		IdentityScore: 1.4,
	})
	assert.InDelta(t, 1.0, score.Breakdown.BuilderActivity, 1e-9)
	assert.InDelta(t, 1.0, score.Breakdown.IdentityConfidence, 1e-9)
}
