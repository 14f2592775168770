// Package scorer computes the fixed candidate rubric. Scoring is pure and
// deterministic: the same input always produces a byte-identical result.
package scorer

import (
	"strings"

	"github.com/openclaw/talent-pipeline/internal/model"
)

// Rubric weights. They sum to 1.0.
const (
	WeightBuilderActivity    = 0.25
	WeightAINativeEvidence   = 0.25
	WeightTechnicalDepth     = 0.20
	WeightRoleFit            = 0.20
	WeightIdentityConfidence = 0.10
)

// evidenceKeywords floor ai_native_evidence at 0.7 when any evidence URL
// or title mentions them.
var evidenceKeywords = []string{"codex", "claude code", "mcp", "agent", "agents", "automation"}

// Concern tags appended in a fixed order.
const (
	ConcernIdentityUnconfirmed = "identity_unconfirmed"
	ConcernLowBuilderActivity  = "low_recent_builder_activity"
	ConcernLimitedAIEvidence   = "limited_ai_native_evidence"
	ConcernWeakRoleFit         = "weak_role_fit"
	ConcernOpenToWork          = "open_to_work_signal_recorded_no_penalty"
)

// Outreach angles by dominant strength.
const (
	AngleAINative = "Lead with AI-native shipping evidence and ask about current build velocity."
	AngleBuilder  = "Lead with recent shipped work and invite a builder-focused conversation."
	AngleRoleFit  = "Lead with role fit and verify current hands-on project scope."
)

// Input is everything the rubric reads.
type Input struct {
	Signals          []model.Signal
	IdentityScore    float64
	IdentityEligible bool
	Evidence         []model.EvidenceLink
	OpenToWork       bool
}

// Compute evaluates the weighted rubric. Components are rounded to 3
// decimals before summation; the total is rounded the same way.
func Compute(in Input) model.Score {
	breakdown := model.ScoreBreakdown{
		BuilderActivity:    model.Round3(maxSignal(in.Signals, model.SignalBuilderActivity)),
		AINativeEvidence:   model.Round3(aiNativeComponent(in)),
		TechnicalDepth:     model.Round3(maxSignal(in.Signals, model.SignalTechnicalDepth)),
		RoleFit:            model.Round3(maxSignal(in.Signals, model.SignalRoleFit)),
		IdentityConfidence: model.Round3(model.Clamp01(in.IdentityScore)),
	}

	total := WeightBuilderActivity*breakdown.BuilderActivity +
		WeightAINativeEvidence*breakdown.AINativeEvidence +
		WeightTechnicalDepth*breakdown.TechnicalDepth +
		WeightRoleFit*breakdown.RoleFit +
		WeightIdentityConfidence*breakdown.IdentityConfidence

	var concerns []string
	if !in.IdentityEligible {
		concerns = append(concerns, ConcernIdentityUnconfirmed)
	}
	if breakdown.BuilderActivity < 0.3 {
		concerns = append(concerns, ConcernLowBuilderActivity)
	}
	if breakdown.AINativeEvidence < 0.3 {
		concerns = append(concerns, ConcernLimitedAIEvidence)
	}
	if breakdown.RoleFit < 0.3 {
		concerns = append(concerns, ConcernWeakRoleFit)
	}
	if in.OpenToWork {
		concerns = append(concerns, ConcernOpenToWork)
	}

	return model.Score{
		Total:             model.Round3(total),
		Breakdown:         breakdown,
		Concerns:          concerns,
		ShortlistEligible: in.IdentityEligible,
		OutreachAngle:     outreachAngle(breakdown),
	}
}

func maxSignal(signals []model.Signal, key model.SignalKey) float64 {
	var out float64
	for _, s := range signals {
		if s.Key != key || s.NumericValue == nil {
			continue
		}
		if v := model.Clamp01(*s.NumericValue); v > out {
			out = v
		}
	}
	return out
}

// aiNativeComponent takes the stronger of the derived signal and the
// evidence-keyword floor of 0.7.
func aiNativeComponent(in Input) float64 {
	component := maxSignal(in.Signals, model.SignalAINativeEvidence)
	for _, link := range in.Evidence {
		haystack := strings.ToLower(link.URL + " " + link.Title)
		for _, kw := range evidenceKeywords {
			if strings.Contains(haystack, kw) {
				if component < 0.7 {
					component = 0.7
				}
				return component
			}
		}
	}
	return component
}

func outreachAngle(b model.ScoreBreakdown) string {
	switch {
	case b.AINativeEvidence >= 0.6:
		return AngleAINative
	case b.BuilderActivity >= 0.6:
		return AngleBuilder
	default:
		return AngleRoleFit
	}
}
