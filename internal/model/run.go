package model

// RunStatus represents the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// SourceQueryMode controls how the LinkedIn search criteria are issued.
type SourceQueryMode string

const (
	SourceQueryDefault SourceQueryMode = "default"
	// SourceQueryBroad strips AI-native terms from the criteria to widen
	// the sourcing net; evidence filtering happens downstream instead.
	SourceQueryBroad SourceQueryMode = "broad"
)

// EvidenceQueryMode controls how aggressively external evidence is gathered.
type EvidenceQueryMode string

const (
	EvidenceQueryDefault EvidenceQueryMode = "default"
	EvidenceQueryStrict  EvidenceQueryMode = "strict"
)

// PipelineRun is one logical sourcing run for a role.
type PipelineRun struct {
	ID               string       `json:"id"`
	IdempotencyKey   string       `json:"idempotency_key"`
	Status           RunStatus    `json:"status"`
	RoleKey          string       `json:"role_key"`
	RoleTitle        string       `json:"role_title"`
	TargetCandidates int          `json:"target_candidates"`
	ConfigJSON       string       `json:"config_json,omitempty"`
	StartedAt        int64        `json:"started_at"`
	FinishedAt       int64        `json:"finished_at,omitempty"`
	Diagnostics      *Diagnostics `json:"diagnostics,omitempty"`
}

// RunCounts aggregates per-run pipeline counters.
type RunCounts struct {
	Sourced               int `json:"sourced"`
	Enriched              int `json:"enriched"`
	EnrichFailed          int `json:"enrich_failed"`
	ExternalDiscovered    int `json:"external_discovered"`
	IdentityConfirmedHigh int `json:"identity_confirmed_high"`
	IdentityMediumLow     int `json:"identity_medium_low"`
	ShortlistEligible     int `json:"shortlist_eligible"`
}

// StageErrorMessage is one distinct failure message within a stage,
// with how often it occurred.
type StageErrorMessage struct {
	Message   string `json:"message"`
	ErrorType string `json:"error_type"`
	Count     int    `json:"count"`
}

// StageErrorAggregate summarizes failures for one pipeline stage.
// TopMessages holds at most the three most frequent messages.
type StageErrorAggregate struct {
	Stage       string              `json:"stage"`
	Total       int                 `json:"total"`
	TopMessages []StageErrorMessage `json:"top_messages"`
}

// RunModes records the query modes a run was executed with.
type RunModes struct {
	SourceQueryMode   SourceQueryMode   `json:"source_query_mode"`
	EvidenceQueryMode EvidenceQueryMode `json:"evidence_query_mode"`
}

// FailureDescriptor describes the fatal failure of a run.
type FailureDescriptor struct {
	Stage     string `json:"stage"`
	ErrorType string `json:"error_type"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// AccountHealth mirrors the LinkedIn account resolution at run time.
type AccountHealth struct {
	AccountID          string   `json:"account_id"`
	UnipileAccountID   string   `json:"unipile_account_id,omitempty"`
	Enabled            bool     `json:"enabled"`
	APIKeySource       string   `json:"api_key_source"`
	MissingCredentials []string `json:"missing_credentials,omitempty"`
}

// Diagnostics is the summary blob attached to a completed or failed run.
type Diagnostics struct {
	Counts         RunCounts             `json:"counts"`
	StageErrors    []StageErrorAggregate `json:"stage_errors,omitempty"`
	Account        *AccountHealth        `json:"account,omitempty"`
	EffectiveQuery string                `json:"effective_query,omitempty"`
	Modes          RunModes              `json:"modes"`
	Failure        *FailureDescriptor    `json:"failure,omitempty"`
}

// RunFailure is one recorded failure row (append-only).
type RunFailure struct {
	ID           int64  `json:"id"`
	RunID        string `json:"run_id"`
	Stage        string `json:"stage"`
	CandidateRef string `json:"candidate_ref,omitempty"`
	ErrorType    string `json:"error_type"`
	Message      string `json:"message"`
	Retryable    bool   `json:"retryable"`
	Payload      string `json:"payload,omitempty"`
	CreatedAt    int64  `json:"created_at"`
}
