package model

// Platform identifies which external platform an identity row refers to.
type Platform string

const (
	PlatformCrossPlatform Platform = "cross_platform"
	PlatformGitHub        Platform = "github"
	PlatformX             Platform = "x"
	PlatformLinkedIn      Platform = "linkedin"
)

// Band discretizes identity confidence.
type Band string

const (
	BandConfirmed Band = "CONFIRMED"
	BandHigh      Band = "HIGH"
	BandMedium    Band = "MEDIUM"
	BandLow       Band = "LOW"
)

// Identity is a per-(candidate, platform) resolution result.
type Identity struct {
	CandidateID       string   `json:"candidate_id"`
	Platform          Platform `json:"platform"`
	Handle            string   `json:"handle,omitempty"`
	URL               string   `json:"url,omitempty"`
	Confidence        float64  `json:"confidence"`
	Band              Band     `json:"band"`
	Reasons           []string `json:"reasons,omitempty"`
	ShortlistEligible bool     `json:"shortlist_eligible"`
	UpdatedAt         int64    `json:"updated_at,omitempty"`
}

// PlatformHint is a discovered handle/URL on an external platform, plus any
// profile facts declared there that help cross-platform matching.
type PlatformHint struct {
	Handle      string `json:"handle,omitempty"`
	URL         string `json:"url,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
	GitHubURL   string `json:"github_url,omitempty"`
	XURL        string `json:"x_url,omitempty"`
	Employer    string `json:"employer,omitempty"`
	Location    string `json:"location,omitempty"`
}

// IdentityInput is everything the resolver reads: the LinkedIn side of the
// candidate plus whatever hints external evidence surfaced.
type IdentityInput struct {
	LinkedInProfileURL string        `json:"linkedin_profile_url"`
	LinkedInEmployer   string        `json:"linkedin_employer,omitempty"`
	LinkedInLocation   string        `json:"linkedin_location,omitempty"`
	GitHub             *PlatformHint `json:"github,omitempty"`
	X                  *PlatformHint `json:"x,omitempty"`
	PersonalSite       *PlatformHint `json:"personal_site,omitempty"`
}
