// Package identity resolves cross-platform candidate identity from a
// LinkedIn profile plus whatever hints external evidence surfaced. The
// resolver is deterministic and reads only its input.
package identity

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/openclaw/talent-pipeline/internal/model"
)

// Reason tags for the rules that can fire.
const (
	ReasonDirectProfileLink  = "direct_profile_link"
	ReasonReverseLinkViaSite = "reverse_link_via_site"
	ReasonFullContext        = "strong_context_employer_location_handle"
	ReasonPartialContext     = "context_partial_match"
	ReasonNoMatch            = "unconfirmed_no_strong_match"
)

// Rule scores.
const (
	scoreDirectLink  = 0.95
	scoreReverseLink = 0.90
	scoreFullContext = 0.82
	scorePartial     = 0.70
)

// Result is the resolver verdict before any threshold override.
type Result struct {
	Confidence        float64
	Band              model.Band
	Reasons           []string
	ShortlistEligible bool
}

var fold = cases.Fold()

func normalizeURL(raw string) string {
	u := strings.TrimSpace(strings.ToLower(raw))
	return strings.TrimSuffix(u, "/")
}

func foldEqual(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return fold.String(a) == fold.String(b)
}

// Resolve applies every rule and keeps the maximum score encountered.
// Confidence is rounded to 3 decimals; eligibility at this layer is purely
// band-based (CONFIRMED or HIGH) and may be tightened by the caller's
// configured threshold.
func Resolve(in model.IdentityInput) Result {
	linked := normalizeURL(in.LinkedInProfileURL)

	var score float64
	var reasons []string

	fire := func(s float64, reason string) {
		reasons = append(reasons, reason)
		if s > score {
			score = s
		}
	}

	// Direct profile link: an external profile declares this LinkedIn URL.
	if linked != "" {
		for _, hint := range []*model.PlatformHint{in.GitHub, in.X, in.PersonalSite} {
			if hint != nil && normalizeURL(hint.LinkedInURL) == linked {
				fire(scoreDirectLink, ReasonDirectProfileLink)
				break
			}
		}
	}

	// Reverse link via the personal site: the site points at the same
	// GitHub or X profile the candidate was found on.
	if linked != "" && in.PersonalSite != nil {
		site := in.PersonalSite
		githubMatch := in.GitHub != nil && in.GitHub.URL != "" &&
			normalizeURL(site.GitHubURL) == normalizeURL(in.GitHub.URL)
		xMatch := in.X != nil && in.X.URL != "" &&
			normalizeURL(site.XURL) == normalizeURL(in.X.URL)
		if githubMatch || xMatch {
			fire(scoreReverseLink, ReasonReverseLinkViaSite)
		}
	}

	// Context rules: employer, location, and handle agreement.
	employerMatch := in.GitHub != nil && foldEqual(in.LinkedInEmployer, in.GitHub.Employer)
	locationMatch := in.GitHub != nil && foldEqual(in.LinkedInLocation, in.GitHub.Location)
	handleMatch := in.GitHub != nil && in.X != nil && foldEqual(in.GitHub.Handle, in.X.Handle)

	if employerMatch && locationMatch && handleMatch {
		fire(scoreFullContext, ReasonFullContext)
	} else if (employerMatch && locationMatch) || (employerMatch && handleMatch) {
		fire(scorePartial, ReasonPartialContext)
	}

	if len(reasons) == 0 {
		reasons = append(reasons, ReasonNoMatch)
	}

	confidence := model.Round3(score)
	band := BandFor(confidence)
	return Result{
		Confidence:        confidence,
		Band:              band,
		Reasons:           reasons,
		ShortlistEligible: band == model.BandConfirmed || band == model.BandHigh,
	}
}

// BandFor discretizes a confidence value.
func BandFor(confidence float64) model.Band {
	switch {
	case confidence >= 0.9:
		return model.BandConfirmed
	case confidence >= 0.8:
		return model.BandHigh
	case confidence >= 0.6:
		return model.BandMedium
	default:
		return model.BandLow
	}
}
