package pipeline

import (
	"sort"

	"github.com/openclaw/talent-pipeline/internal/model"
)

// runAccumulator carries the shared mutable diagnostic state for one run:
// counters plus per-stage failure message tallies. The orchestrator
// processes candidates sequentially, so no locking is needed; passing the
// accumulator explicitly keeps every update auditable.
type runAccumulator struct {
	counts      model.RunCounts
	stageErrors map[string]map[string]*stageTally
}

type stageTally struct {
	errorType string
	count     int
}

func newRunAccumulator() *runAccumulator {
	return &runAccumulator{
		stageErrors: make(map[string]map[string]*stageTally),
	}
}

// recordStageError tallies one failure message under its stage.
func (a *runAccumulator) recordStageError(stage, errorType, message string) {
	byMessage, ok := a.stageErrors[stage]
	if !ok {
		byMessage = make(map[string]*stageTally)
		a.stageErrors[stage] = byMessage
	}
	if t, ok := byMessage[message]; ok {
		t.count++
		return
	}
	byMessage[message] = &stageTally{errorType: errorType, count: 1}
}

// aggregates returns per-stage failure summaries, each carrying its top-3
// messages by count.
func (a *runAccumulator) aggregates() []model.StageErrorAggregate {
	stages := make([]string, 0, len(a.stageErrors))
	for stage := range a.stageErrors {
		stages = append(stages, stage)
	}
	sort.Strings(stages)

	var out []model.StageErrorAggregate
	for _, stage := range stages {
		agg := model.StageErrorAggregate{Stage: stage}
		for message, tally := range a.stageErrors[stage] {
			agg.Total += tally.count
			agg.TopMessages = append(agg.TopMessages, model.StageErrorMessage{
				Message:   message,
				ErrorType: tally.errorType,
				Count:     tally.count,
			})
		}
		sort.Slice(agg.TopMessages, func(i, j int) bool {
			if agg.TopMessages[i].Count != agg.TopMessages[j].Count {
				return agg.TopMessages[i].Count > agg.TopMessages[j].Count
			}
			return agg.TopMessages[i].Message < agg.TopMessages[j].Message
		})
		if len(agg.TopMessages) > 3 {
			agg.TopMessages = agg.TopMessages[:3]
		}
		out = append(out, agg)
	}
	return out
}
