package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/talent-pipeline/internal/config"
	"github.com/openclaw/talent-pipeline/internal/enrich"
	"github.com/openclaw/talent-pipeline/internal/model"
	"github.com/openclaw/talent-pipeline/internal/store"
	"github.com/openclaw/talent-pipeline/pkg/unipile"
	"github.com/openclaw/talent-pipeline/pkg/websearch"
)

func testConfig() config.RecruitingConfig {
	return config.RecruitingConfig{
		Enabled: true,
		Identity: config.IdentityConfig{
			MinConfidenceForShortlist: 0.8,
		},
		Run: config.RunConfig{
			TargetCandidatesPerRole: 300,
		},
		BrowserVerification: config.BrowserVerificationConfig{Mode: "high_only"},
		DailyQuotas: config.DailyQuotasConfig{
			PromotedTarget:     10,
			ReviewedTarget:     30,
			VerificationBudget: 20,
		},
		Promotion: config.PromotionConfig{MinProofLinks: 2},
	}
}

func enabledAccount() unipile.Account {
	return unipile.Account{
		AccountID:        "acct-1",
		UnipileAccountID: "acct-1",
		Enabled:          true,
		APIKeySource:     unipile.KeySourceEnv,
	}
}

func testStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func newTestPipeline(t *testing.T, st store.Store, linkedin *mockLinkedIn, search *mockSearch, fetch *mockFetch, cfg config.RecruitingConfig, account unipile.Account) *Pipeline {
	t.Helper()
	if search == nil {
		search = &mockSearch{}
	}
	if fetch == nil {
		fetch = &mockFetch{}
	}
	enricher := enrich.NewEnricher(search, fetch, enrich.WithoutCache())
	return New(st, linkedin, account, enricher, cfg)
}

func twoCandidateSearch() *unipile.SearchResponse {
	return &unipile.SearchResponse{
		Success: true,
		Candidates: []unipile.CandidateHit{
			{
				ProviderID:       "p-1",
				PublicIdentifier: "alice",
				ProfileURL:       "https://linkedin.com/in/alice",
				Name:             "Alice Smith",
				Headline:         "Founding Engineer",
				Location:         "San Francisco",
				CurrentCompany:   "OpenClaw",
			},
			{
				ProviderID:       "p-2",
				PublicIdentifier: "bob",
				ProfileURL:       "https://linkedin.com/in/bob",
				Name:             "Bob Jones",
			},
		},
	}
}

func roleInput() RunInput {
	return RunInput{
		Role: model.RoleSpec{
			RoleKey:          "founding-engineer",
			RoleTitle:        "Founding Engineer",
			Search:           model.TalentSearch{Keywords: "golang founding engineer"},
			TargetCandidates: 10,
		},
	}
}

func TestRun_HappyPath(t *testing.T) {
	st := testStore(t)
	linkedin := &mockLinkedIn{
		searchResp: twoCandidateSearch(),
		profiles: map[string]*unipile.ProfileResponse{
			"p-1": {Items: []unipile.ProfileItem{{
				Headline: "Founding Engineer",
				Skills:   []string{"go", "typescript", "mcp", "llm", "distributed systems", "sqlite"},
			}}},
		},
		posts: map[string]*unipile.ActivityResponse{
			"p-1": {Items: []unipile.ActivityItem{
				{Timestamp: unipile.EpochTime{Millis: time.Now().Add(-24 * time.Hour).UnixMilli(), Valid: true}},
				{Timestamp: unipile.EpochTime{Millis: time.Now().Add(-48 * time.Hour).UnixMilli(), Valid: true}},
			}},
		},
	}

	p := newTestPipeline(t, st, linkedin, nil, nil, testConfig(), enabledAccount())
	out := p.Run(context.Background(), roleInput())

	require.Equal(t, model.RunStatusCompleted, out.Status)
	require.NotEmpty(t, out.RunID)
	assert.False(t, out.Resumed)

	run, err := st.GetRun(context.Background(), out.RunID)
	require.NoError(t, err)
	require.NotNil(t, run.Diagnostics)
	assert.Equal(t, 2, run.Diagnostics.Counts.Sourced)
	assert.Equal(t, 2, run.Diagnostics.Counts.Enriched)
	assert.Zero(t, run.Diagnostics.Counts.EnrichFailed)
	require.NotNil(t, run.Diagnostics.Account)
	assert.Equal(t, "env", run.Diagnostics.Account.APIKeySource)

	results, err := st.GetResults(context.Background(), out.RunID, 10)
	require.NoError(t, err)
	total := len(results.Shortlist) + len(results.ReviewQueue)
	assert.Equal(t, 2, total)

	detail, err := st.GetCandidateDetail(context.Background(), "li:p-1")
	require.NoError(t, err)
	require.Len(t, detail.Scores, 1)
	assert.NotEmpty(t, detail.Signals)
	assert.NotEmpty(t, detail.Evidence)
	assert.Equal(t, "https://linkedin.com/in/alice", detail.Evidence[0].URL)
}

func TestRun_IdempotentResume(t *testing.T) {
	st := testStore(t)
	linkedin := &mockLinkedIn{searchResp: twoCandidateSearch()}
	p := newTestPipeline(t, st, linkedin, nil, nil, testConfig(), enabledAccount())

	in := roleInput()
	in.IdempotencyKey = "founding-engineer:2026-01-01"

	first := p.Run(context.Background(), in)
	require.Equal(t, model.RunStatusCompleted, first.Status)

	second := p.Run(context.Background(), in)
	assert.True(t, second.Resumed)
	assert.Equal(t, first.RunID, second.RunID)
	assert.Equal(t, 1, linkedin.searchCalls)
}

func TestRun_PreflightFailure(t *testing.T) {
	st := testStore(t)
	p := newTestPipeline(t, st, &mockLinkedIn{}, nil, nil, testConfig(), unipile.Account{
		AccountID:          "acct-1",
		Enabled:            false,
		APIKeySource:       unipile.KeySourceNone,
		MissingCredentials: []string{"api_key"},
	})

	out := p.Run(context.Background(), roleInput())
	require.Equal(t, model.RunStatusFailed, out.Status)

	run, err := st.GetRun(context.Background(), out.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, run.Status)
	require.NotNil(t, run.Diagnostics)
	require.NotNil(t, run.Diagnostics.Failure)
	assert.Equal(t, StagePreflight, run.Diagnostics.Failure.Stage)
	assert.Equal(t, "auth", run.Diagnostics.Failure.ErrorType)
	assert.False(t, run.Diagnostics.Failure.Retryable)
}

func TestRun_SearchFailureIsFatal(t *testing.T) {
	st := testStore(t)
	linkedin := &mockLinkedIn{
		searchResp: &unipile.SearchResponse{Success: false, Error: "invalid search parameters"},
	}
	p := newTestPipeline(t, st, linkedin, nil, nil, testConfig(), enabledAccount())

	out := p.Run(context.Background(), roleInput())
	require.Equal(t, model.RunStatusFailed, out.Status)

	run, err := st.GetRun(context.Background(), out.RunID)
	require.NoError(t, err)
	require.NotNil(t, run.Diagnostics.Failure)
	assert.Equal(t, StageSearch, run.Diagnostics.Failure.Stage)
	assert.Equal(t, "invalid search parameters", run.Diagnostics.Failure.Message)
}

func TestRun_PerCandidateFailureIsIsolated(t *testing.T) {
	st := testStore(t)
	linkedin := &mockLinkedIn{
		searchResp: twoCandidateSearch(),
		profileErrs: map[string]error{
			"p-2": &unipile.APIError{StatusCode: 404, Body: "profile gone"},
		},
	}
	p := newTestPipeline(t, st, linkedin, nil, nil, testConfig(), enabledAccount())

	out := p.Run(context.Background(), roleInput())
	require.Equal(t, model.RunStatusCompleted, out.Status)

	run, err := st.GetRun(context.Background(), out.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2, run.Diagnostics.Counts.Sourced)
	assert.Equal(t, 1, run.Diagnostics.Counts.Enriched)
	assert.Equal(t, 1, run.Diagnostics.Counts.EnrichFailed)

	require.Len(t, run.Diagnostics.StageErrors, 1)
	agg := run.Diagnostics.StageErrors[0]
	assert.Equal(t, StageCandidateScore, agg.Stage)
	assert.Equal(t, 1, agg.Total)
	assert.Equal(t, "not_found", agg.TopMessages[0].ErrorType)
}

func TestRun_ClampsTarget(t *testing.T) {
	st := testStore(t)
	linkedin := &mockLinkedIn{searchResp: twoCandidateSearch()}
	p := newTestPipeline(t, st, linkedin, nil, nil, testConfig(), enabledAccount())

	in := roleInput()
	in.Role.TargetCandidates = 99999
	out := p.Run(context.Background(), in)

	run, err := st.GetRun(context.Background(), out.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2000, run.TargetCandidates)
}

func TestRun_TargetCapsProcessedCandidates(t *testing.T) {
	st := testStore(t)
	linkedin := &mockLinkedIn{searchResp: twoCandidateSearch()}
	p := newTestPipeline(t, st, linkedin, nil, nil, testConfig(), enabledAccount())

	in := roleInput()
	in.Role.TargetCandidates = 1
	out := p.Run(context.Background(), in)

	run, err := st.GetRun(context.Background(), out.RunID)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Diagnostics.Counts.Sourced)
}

func TestRun_ModesInDiagnostics(t *testing.T) {
	st := testStore(t)
	linkedin := &mockLinkedIn{searchResp: twoCandidateSearch()}
	p := newTestPipeline(t, st, linkedin, nil, nil, testConfig(), enabledAccount())

	in := roleInput()
	in.SourceQueryMode = model.SourceQueryBroad
	in.EvidenceQueryMode = model.EvidenceQueryStrict
	out := p.Run(context.Background(), in)

	results, err := st.GetResults(context.Background(), out.RunID, 10)
	require.NoError(t, err)
	assert.Equal(t, model.SourceQueryBroad, results.Meta.Modes.SourceQueryMode)
	assert.Equal(t, model.EvidenceQueryStrict, results.Meta.Modes.EvidenceQueryMode)
}

func TestRun_UnconfirmedGitHubHintNotShortlistEligible(t *testing.T) {
	st := testStore(t)
	linkedin := &mockLinkedIn{searchResp: &unipile.SearchResponse{
		Success: true,
		Candidates: []unipile.CandidateHit{{
			ProviderID:       "p-1",
			PublicIdentifier: "alice",
			ProfileURL:       "https://linkedin.com/in/alice",
			Name:             "Alice Smith",
			CurrentCompany:   "OpenClaw",
		}},
	}}
	// The GitHub search surfaces a profile; the resolver cannot confirm it
	// without declared links, so the candidate stays below threshold.
	search := &mockSearch{results: map[string][]websearch.Result{
		"github": {{URL: "https://github.com/alice-dev", Title: "alice-dev"}},
	}}

	p := newTestPipeline(t, st, linkedin, search, nil, testConfig(), enabledAccount())
	out := p.Run(context.Background(), roleInput())
	require.Equal(t, model.RunStatusCompleted, out.Status)

	run, err := st.GetRun(context.Background(), out.RunID)
	require.NoError(t, err)
	assert.Zero(t, run.Diagnostics.Counts.ShortlistEligible)
	assert.Equal(t, 1, run.Diagnostics.Counts.IdentityMediumLow)

	id, err := st.GetIdentity(context.Background(), "li:p-1", model.PlatformGitHub)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "alice-dev", id.Handle)
}
