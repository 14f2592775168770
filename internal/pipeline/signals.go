package pipeline

import (
	"fmt"
	"time"

	"github.com/openclaw/talent-pipeline/internal/model"
	"github.com/openclaw/talent-pipeline/pkg/unipile"
)

const (
	// recentActivityWindow bounds what counts as recent builder activity.
	recentActivityWindow = 90 * 24 * time.Hour

	// activitySaturation is the recent-item count that maps to a full
	// builder_activity signal.
	activitySaturation = 12

	// skillSaturation is the skill count that maps to full
	// technical_depth.
	skillSaturation = 12
)

// activitySignal derives a builder_activity signal from one activity feed:
// min(1, recent/12) where recent counts items inside the 90-day window.
func activitySignal(items []unipile.ActivityItem, source string, now time.Time) model.Signal {
	cutoff := now.Add(-recentActivityWindow)
	recent := 0
	for _, item := range items {
		if item.Timestamp.Valid && item.Timestamp.Time().After(cutoff) {
			recent++
		}
	}
	value := float64(recent) / activitySaturation
	if value > 1 {
		value = 1
	}
	return model.NumericSignal(model.SignalBuilderActivity, value, source,
		fmt.Sprintf("%d recent items in 90 days", recent))
}

// profileSignals derives technical_depth and role_fit from the profile.
func profileSignals(profile *unipile.ProfileItem) []model.Signal {
	var signals []model.Signal

	depth := 0.0
	skills := 0
	if profile != nil {
		skills = len(profile.Skills)
		depth = float64(skills) / skillSaturation
		if depth > 1 {
			depth = 1
		}
	}
	signals = append(signals, model.NumericSignal(model.SignalTechnicalDepth, depth, "linkedin_profile",
		fmt.Sprintf("%d skills listed", skills)))

	roleFit := 0.3
	if profile != nil && profile.Headline != "" {
		roleFit = 0.6
	}
	signals = append(signals, model.NumericSignal(model.SignalRoleFit, roleFit, "linkedin_profile", "headline heuristic"))

	return signals
}
