package model

// ReviewStatus is the human-in-the-loop workflow state for a
// (candidate, run) pair.
type ReviewStatus string

const (
	ReviewNewReview         ReviewStatus = "new_review"
	ReviewUnderVerification ReviewStatus = "under_verification"
	ReviewPromotedShortlist ReviewStatus = "promoted_shortlist"
	ReviewRejected          ReviewStatus = "rejected"
	ReviewDeferred          ReviewStatus = "deferred"
)

// Review is the upserted workflow row for a (candidate, run) pair.
type Review struct {
	CandidateID string       `json:"candidate_id"`
	RunID       string       `json:"run_id"`
	Status      ReviewStatus `json:"status"`
	Priority    int          `json:"priority"`
	Notes       string       `json:"notes,omitempty"`
	UpdatedAt   int64        `json:"updated_at"`
}

// VerificationMethod is how a verification was performed.
type VerificationMethod string

const (
	VerificationBrowser VerificationMethod = "browser"
	VerificationAPI     VerificationMethod = "api"
)

// VerificationOutcome is the result of a verification attempt.
type VerificationOutcome string

const (
	OutcomeConfirmed    VerificationOutcome = "confirmed"
	OutcomeRejected     VerificationOutcome = "rejected"
	OutcomeInconclusive VerificationOutcome = "inconclusive"
)

// Verification is one append-only verification record.
type Verification struct {
	ID               int64               `json:"id,omitempty"`
	CandidateID      string              `json:"candidate_id"`
	RunID            string              `json:"run_id"`
	Method           VerificationMethod  `json:"method"`
	Outcome          VerificationOutcome `json:"outcome"`
	ConfidenceBefore float64             `json:"confidence_before"`
	ConfidenceAfter  float64             `json:"confidence_after"`
	ProofLinks       []string            `json:"proof_links,omitempty"`
	Notes            string              `json:"notes,omitempty"`
	CreatedAt        int64               `json:"created_at"`
}

// Promotion is the single promotion record for a (candidate, run) pair.
type Promotion struct {
	CandidateID        string   `json:"candidate_id"`
	RunID              string   `json:"run_id"`
	PromotionReason    string   `json:"promotion_reason,omitempty"`
	ConfidenceOverride *float64 `json:"confidence_override,omitempty"`
	OutreachAngle      string   `json:"outreach_angle,omitempty"`
	ProofLinks         []string `json:"proof_links,omitempty"`
	PromotedAt         int64    `json:"promoted_at"`
}

// DailyOutput is the per-(run, role, date) aggregate counter row.
type DailyOutput struct {
	RunID     string `json:"run_id"`
	RoleKey   string `json:"role_key"`
	Date      string `json:"date"`
	Sourced   int    `json:"sourced"`
	Reviewed  int    `json:"reviewed"`
	Verified  int    `json:"verified"`
	Promoted  int    `json:"promoted"`
	UpdatedAt int64  `json:"updated_at"`
}

// WorkflowStats counts reviews by state over a UTC day window.
type WorkflowStats struct {
	NewReview         int `json:"new_review"`
	UnderVerification int `json:"under_verification"`
	PromotedShortlist int `json:"promoted_shortlist"`
	Rejected          int `json:"rejected"`
	Deferred          int `json:"deferred"`
}

// VerificationStats counts verifications by outcome over a UTC day window.
type VerificationStats struct {
	Total        int `json:"total"`
	Confirmed    int `json:"confirmed"`
	Rejected     int `json:"rejected"`
	Inconclusive int `json:"inconclusive"`
}

// QuotaStatus compares a day's activity against configured quotas.
type QuotaStatus struct {
	Date                string `json:"date"`
	PromotedToday       int    `json:"promoted_today"`
	PromotedTarget      int    `json:"promoted_target"`
	ReviewedToday       int    `json:"reviewed_today"`
	ReviewedTarget      int    `json:"reviewed_target"`
	VerificationsToday  int    `json:"verifications_today"`
	VerificationBudget  int    `json:"verification_budget"`
	PromotionQuotaMet   bool   `json:"promotion_quota_met"`
	VerificationBudget0 bool   `json:"verification_budget_exhausted"`
}

// DailyReport is the operator-facing daily rollup for a run.
type DailyReport struct {
	RunID        string            `json:"run_id"`
	RoleKey      string            `json:"role_key"`
	Date         string            `json:"date"`
	Contract     RunCounts         `json:"contract"`
	Workflow     WorkflowStats     `json:"workflow"`
	Verification VerificationStats `json:"verification"`
	Quota        QuotaStatus       `json:"quota"`
}
