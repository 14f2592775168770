package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ProviderLinkedIn is the only sourcing provider currently supported.
const ProviderLinkedIn = "linkedin"

// Candidate is a provider-scoped person record. The three natural keys
// (provider id, public identifier, normalized profile URL hash) each dedup
// to the same row.
type Candidate struct {
	ID               string `json:"id"`
	Provider         string `json:"provider"`
	ProviderID       string `json:"provider_id,omitempty"`
	PublicIdentifier string `json:"public_identifier,omitempty"`
	ProfileURL       string `json:"profile_url,omitempty"`
	ProfileURLHash   string `json:"profile_url_hash,omitempty"`
	Name             string `json:"name"`
	Headline         string `json:"headline,omitempty"`
	Location         string `json:"location,omitempty"`
	CurrentCompany   string `json:"current_company,omitempty"`
	CurrentRole      string `json:"current_role,omitempty"`
	OpenToWork       bool   `json:"open_to_work,omitempty"`
	FirstSeenAt      int64  `json:"first_seen_at"`
	LastSeenAt       int64  `json:"last_seen_at"`
}

// NormalizeProfileURL lowercases a profile URL and strips the query string
// and any trailing slash, producing the canonical dedup form.
func NormalizeProfileURL(raw string) string {
	u := strings.TrimSpace(strings.ToLower(raw))
	if i := strings.IndexByte(u, '?'); i >= 0 {
		u = u[:i]
	}
	return strings.TrimSuffix(u, "/")
}

// ProfileURLHash returns the SHA-256 hex of the normalized profile URL.
func ProfileURLHash(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(NormalizeProfileURL(raw)))
	return hex.EncodeToString(sum[:])
}

// SourceRecord is the raw sourcing snapshot for a (candidate, run, source,
// rank) tuple.
type SourceRecord struct {
	CandidateID string `json:"candidate_id"`
	RunID       string `json:"run_id"`
	Source      string `json:"source"`
	SourceRank  int    `json:"source_rank"`
	Payload     string `json:"payload,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

// SearchFilter is one keyword fragment of a talent search. Filters that
// carry an ID survive text normalization even when the text reduces to
// empty.
type SearchFilter struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text,omitempty"`
}

// TalentSearch is the LinkedIn search criteria for a role.
type TalentSearch struct {
	Keywords     string         `json:"keywords,omitempty"`
	RoleKeywords []SearchFilter `json:"role_keywords,omitempty"`
	Skills       []SearchFilter `json:"skills,omitempty"`
	Companies    []SearchFilter `json:"companies,omitempty"`
	Location     string         `json:"location,omitempty"`
	Industry     string         `json:"industry,omitempty"`
	API          string         `json:"api,omitempty"`
	AccountID    string         `json:"account_id,omitempty"`
}

// RoleSpec describes the role a run sources candidates for.
type RoleSpec struct {
	RoleKey          string       `json:"role_key"`
	RoleTitle        string       `json:"role_title"`
	Search           TalentSearch `json:"search"`
	TargetCandidates int          `json:"target_candidates,omitempty"`
}
