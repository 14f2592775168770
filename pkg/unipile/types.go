package unipile

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// SearchFilter is one fragment of a talent search. Filters resolved by ID
// survive even when their display text is empty.
type SearchFilter struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text,omitempty"`
}

// SearchParams is the request body for a LinkedIn talent search.
type SearchParams struct {
	Keywords     string         `json:"keywords,omitempty"`
	RoleKeywords []SearchFilter `json:"role_keywords,omitempty"`
	Skills       []SearchFilter `json:"skills,omitempty"`
	Companies    []SearchFilter `json:"companies,omitempty"`
	Location     string         `json:"location,omitempty"`
	Industry     string         `json:"industry,omitempty"`
	API          string         `json:"api,omitempty"` // classic | recruiter | sales_navigator
	AccountID    string         `json:"account_id,omitempty"`
	PageSize     int            `json:"page_size,omitempty"`
	MaxPages     int            `json:"max_pages,omitempty"`
}

// CandidateHit is one sourced person from a talent search.
type CandidateHit struct {
	ProviderID       string `json:"provider_id"`
	PublicIdentifier string `json:"public_identifier"`
	ProfileURL       string `json:"profile_url"`
	Name             string `json:"name"`
	Headline         string `json:"headline"`
	Location         string `json:"location"`
	CurrentCompany   string `json:"current_company"`
	CurrentRole      string `json:"current_role"`
	OpenToWork       bool   `json:"is_open_to_work"`
}

// SearchResponse is the talent search result envelope.
type SearchResponse struct {
	Success    bool           `json:"success"`
	Candidates []CandidateHit `json:"candidates"`
	Error      string         `json:"error,omitempty"`
}

// EpochTime accepts the three timestamp shapes LinkedIn activity payloads
// carry: epoch seconds, epoch milliseconds, or an RFC3339 string. Numbers
// above 1e12 are milliseconds; anything else is seconds.
type EpochTime struct {
	Millis int64
	Valid  bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *EpochTime) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*e = EpochTime{}
		return nil
	}

	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339, str)
		if err != nil {
			// Unknown string shape: leave invalid rather than fail the
			// whole payload.
			*e = EpochTime{}
			return nil
		}
		*e = EpochTime{Millis: t.UnixMilli(), Valid: true}
		return nil
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*e = EpochTime{}
		return nil
	}
	if n > 1e12 {
		*e = EpochTime{Millis: int64(n), Valid: true}
		return nil
	}
	*e = EpochTime{Millis: int64(n) * 1000, Valid: true}
	return nil
}

// Time returns the timestamp as a time.Time in UTC.
func (e EpochTime) Time() time.Time {
	return time.UnixMilli(e.Millis).UTC()
}

// ProfileItem is one profile record; unknown fields are ignored.
type ProfileItem struct {
	Headline     string   `json:"headline"`
	Location     string   `json:"location"`
	Company      string   `json:"company"`
	Role         string   `json:"role"`
	Skills       []string `json:"skills"`
	IsOpenToWork bool     `json:"is_open_to_work"`
}

// ProfileResponse wraps profile items.
type ProfileResponse struct {
	Items []ProfileItem `json:"items"`
}

// ActivityItem is one post, comment, or reaction.
type ActivityItem struct {
	ID        string    `json:"id"`
	Timestamp EpochTime `json:"timestamp"`
	Text      string    `json:"text"`
}

// ActivityResponse wraps activity items.
type ActivityResponse struct {
	Items []ActivityItem `json:"items"`
}

// Client is the LinkedIn collaborator contract consumed by the pipeline.
type Client interface {
	SearchTalent(ctx context.Context, params SearchParams) (*SearchResponse, error)
	GetUserProfile(ctx context.Context, providerID string) (*ProfileResponse, error)
	GetUserPosts(ctx context.Context, providerID string) (*ActivityResponse, error)
	GetUserComments(ctx context.Context, providerID string) (*ActivityResponse, error)
	GetUserReactions(ctx context.Context, providerID string) (*ActivityResponse, error)
}
