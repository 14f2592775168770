package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/talent-pipeline/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func beginTestRun(t *testing.T, st *SQLiteStore, key string) string {
	t.Helper()
	result, err := st.BeginRun(context.Background(), BeginRunInput{
		IdempotencyKey:   key,
		RoleKey:          "founding-engineer",
		RoleTitle:        "Founding Engineer",
		TargetCandidates: 50,
	})
	require.NoError(t, err)
	return result.Run.ID
}

// --- Runs ---

func TestBeginRun_Idempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first, err := st.BeginRun(ctx, BeginRunInput{
		IdempotencyKey:   "role:2026-01-01",
		RoleKey:          "founding-engineer",
		RoleTitle:        "Founding Engineer",
		TargetCandidates: 50,
	})
	require.NoError(t, err)
	assert.False(t, first.Resumed)
	assert.Equal(t, model.RunStatusRunning, first.Run.Status)

	second, err := st.BeginRun(ctx, BeginRunInput{
		IdempotencyKey:   "role:2026-01-01",
		RoleKey:          "founding-engineer",
		RoleTitle:        "Founding Engineer",
		TargetCandidates: 50,
	})
	require.NoError(t, err)
	assert.True(t, second.Resumed)
	assert.Equal(t, first.Run.ID, second.Run.ID)
}

func TestBeginRun_CompletedRunStillWins(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	runID := beginTestRun(t, st, "key-1")
	require.NoError(t, st.MarkRunCompleted(ctx, runID, &model.Diagnostics{}))

	again, err := st.BeginRun(ctx, BeginRunInput{IdempotencyKey: "key-1", RoleKey: "r", RoleTitle: "R", TargetCandidates: 1})
	require.NoError(t, err)
	assert.True(t, again.Resumed)
	assert.Equal(t, runID, again.Run.ID)
	assert.Equal(t, model.RunStatusCompleted, again.Run.Status)
}

func TestBeginRun_FailedRunReleasesKey(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	runID := beginTestRun(t, st, "key-2")
	require.NoError(t, st.MarkRunFailed(ctx, runID, &model.Diagnostics{}))

	fresh, err := st.BeginRun(ctx, BeginRunInput{IdempotencyKey: "key-2", RoleKey: "r", RoleTitle: "R", TargetCandidates: 1})
	require.NoError(t, err)
	assert.False(t, fresh.Resumed)
	assert.NotEqual(t, runID, fresh.Run.ID)
}

func TestBeginRun_EmptyKeyNeverResumes(t *testing.T) {
	st := newTestStore(t)

	a := beginTestRun(t, st, "")
	b := beginTestRun(t, st, "")
	assert.NotEqual(t, a, b)
}

func TestDiagnosticsRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	runID := beginTestRun(t, st, "diag-key")

	diag := &model.Diagnostics{
		Counts: model.RunCounts{Sourced: 12, Enriched: 10, EnrichFailed: 2},
		StageErrors: []model.StageErrorAggregate{{
			Stage: "candidate_enrich_score",
			Total: 2,
			TopMessages: []model.StageErrorMessage{
				{Message: "LinkedIn API error (429)", ErrorType: "rate_limit", Count: 2},
			},
		}},
		Account: &model.AccountHealth{AccountID: "acct-1", Enabled: true, APIKeySource: "env"},
		Modes: model.RunModes{
			SourceQueryMode:   model.SourceQueryBroad,
			EvidenceQueryMode: model.EvidenceQueryStrict,
		},
	}
	require.NoError(t, st.MarkRunCompleted(ctx, runID, diag))

	run, err := st.GetRun(ctx, runID)
	require.NoError(t, err)
	require.NotNil(t, run.Diagnostics)
	assert.Equal(t, 12, run.Diagnostics.Counts.Sourced)
	assert.Equal(t, "rate_limit", run.Diagnostics.StageErrors[0].TopMessages[0].ErrorType)
	assert.NotZero(t, run.FinishedAt)

	results, err := st.GetResults(ctx, runID, 10)
	require.NoError(t, err)
	assert.Equal(t, model.SourceQueryBroad, results.Meta.Modes.SourceQueryMode)
	require.NotNil(t, results.Meta.Diagnostics)
	assert.Equal(t, 12, results.Meta.Diagnostics.Counts.Sourced)
}

func TestListRecentRuns_RespectsLimit(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	beginTestRun(t, st, "a")
	beginTestRun(t, st, "b")
	beginTestRun(t, st, "c")

	runs, err := st.ListRecentRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestAddRunFailure(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	runID := beginTestRun(t, st, "fail-key")

	require.NoError(t, st.AddRunFailure(ctx, model.RunFailure{
		RunID:        runID,
		Stage:        "candidate_enrich_score",
		CandidateRef: "alice",
		ErrorType:    "rate_limit",
		Message:      "LinkedIn API error (429)",
		Retryable:    true,
	}))
}

// --- Candidates ---

func TestUpsertCandidate_ThreeDedupPaths(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.UpsertCandidate(ctx, model.Candidate{
		ProviderID:       "p-1",
		PublicIdentifier: "alice",
		ProfileURL:       "https://linkedin.com/in/alice",
		Name:             "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "li:p-1", id)

	// Same provider id.
	byProvider, err := st.UpsertCandidate(ctx, model.Candidate{ProviderID: "p-1", Name: "Alice Smith"})
	require.NoError(t, err)
	assert.Equal(t, id, byProvider)

	// Same public identifier.
	byPublic, err := st.UpsertCandidate(ctx, model.Candidate{PublicIdentifier: "alice", Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, id, byPublic)

	// Same profile URL modulo query string and case.
	byURL, err := st.UpsertCandidate(ctx, model.Candidate{
		ProfileURL: "https://LinkedIn.com/in/alice?trk=search",
		Name:       "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, id, byURL)
}

func TestUpsertCandidate_GeneratedIDs(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	byPublic, err := st.UpsertCandidate(ctx, model.Candidate{PublicIdentifier: "bob", Name: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, "li_pub:bob", byPublic)

	byURL, err := st.UpsertCandidate(ctx, model.Candidate{ProfileURL: "https://linkedin.com/in/carol", Name: "Carol"})
	require.NoError(t, err)
	assert.Contains(t, byURL, "li_url:")
	assert.Len(t, byURL, len("li_url:")+24)

	random, err := st.UpsertCandidate(ctx, model.Candidate{Name: "Nameless"})
	require.NoError(t, err)
	assert.Contains(t, random, "li_rand:")
}

func TestUpsertCandidate_UpdatesMutableFields(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.UpsertCandidate(ctx, model.Candidate{ProviderID: "p-9", Name: "Old Name"})
	require.NoError(t, err)

	_, err = st.UpsertCandidate(ctx, model.Candidate{
		ProviderID:     "p-9",
		Name:           "New Name",
		Headline:       "Engineer",
		CurrentCompany: "OpenClaw",
	})
	require.NoError(t, err)

	detail, err := st.GetCandidateDetail(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "New Name", detail.Candidate.Name)
	assert.Equal(t, "OpenClaw", detail.Candidate.CurrentCompany)
	assert.GreaterOrEqual(t, detail.Candidate.LastSeenAt, detail.Candidate.FirstSeenAt)
}

func TestAddSourceRecord_DuplicateIgnored(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	runID := beginTestRun(t, st, "src-key")

	id, err := st.UpsertCandidate(ctx, model.Candidate{ProviderID: "p-2", Name: "Bob"})
	require.NoError(t, err)

	rec := model.SourceRecord{CandidateID: id, RunID: runID, Source: "linkedin_search", SourceRank: 1}
	require.NoError(t, st.AddSourceRecord(ctx, rec))
	require.NoError(t, st.AddSourceRecord(ctx, rec))
}

func TestEvidenceLinks_URLUniquePerRun(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	runID := beginTestRun(t, st, "ev-key")

	id, err := st.UpsertCandidate(ctx, model.Candidate{ProviderID: "p-3", Name: "Eve"})
	require.NoError(t, err)

	require.NoError(t, st.AddEvidenceLinks(ctx, []model.EvidenceLink{
		{CandidateID: id, RunID: runID, URL: "https://a.dev", Title: "first", Relevance: 0.4, CreatedAt: 100},
		{CandidateID: id, RunID: runID, URL: "https://b.dev", Relevance: 0.9, CreatedAt: 100},
	}))
	// Re-adding the same URL keeps the first row.
	require.NoError(t, st.AddEvidenceLinks(ctx, []model.EvidenceLink{
		{CandidateID: id, RunID: runID, URL: "https://a.dev", Title: "second", Relevance: 1, CreatedAt: 200},
	}))

	require.NoError(t, st.UpsertScore(ctx, model.Score{CandidateID: id, RunID: runID, Total: 0.5}))

	results, err := st.GetResults(ctx, runID, 10)
	require.NoError(t, err)
	require.Len(t, results.ReviewQueue, 1)

	evidence := results.ReviewQueue[0].Evidence
	require.Len(t, evidence, 2)
	// Ordered by relevance DESC.
	assert.Equal(t, "https://b.dev", evidence[0].URL)
	assert.Equal(t, "first", evidence[1].Title)
}

func TestGetResults_TopEvidenceLimitAndOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	runID := beginTestRun(t, st, "ev-top")

	id, err := st.UpsertCandidate(ctx, model.Candidate{ProviderID: "p-4", Name: "Dee"})
	require.NoError(t, err)

	require.NoError(t, st.AddEvidenceLinks(ctx, []model.EvidenceLink{
		{CandidateID: id, RunID: runID, URL: "https://one.dev", Relevance: 1, CreatedAt: 100},
		{CandidateID: id, RunID: runID, URL: "https://two.dev", Relevance: 0.5, CreatedAt: 300},
		{CandidateID: id, RunID: runID, URL: "https://three.dev", Relevance: 0.5, CreatedAt: 200},
		{CandidateID: id, RunID: runID, URL: "https://four.dev", Relevance: 0.1, CreatedAt: 400},
	}))
	require.NoError(t, st.UpsertScore(ctx, model.Score{CandidateID: id, RunID: runID, Total: 0.4}))

	results, err := st.GetResults(ctx, runID, 10)
	require.NoError(t, err)
	evidence := results.ReviewQueue[0].Evidence
	require.Len(t, evidence, 3)
	assert.Equal(t, "https://one.dev", evidence[0].URL)
	// Equal relevance ties break on created_at DESC.
	assert.Equal(t, "https://two.dev", evidence[1].URL)
	assert.Equal(t, "https://three.dev", evidence[2].URL)
}

func TestGetResults_PartitionsByEligibility(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	runID := beginTestRun(t, st, "part-key")

	eligible, err := st.UpsertCandidate(ctx, model.Candidate{ProviderID: "p-5", Name: "High"})
	require.NoError(t, err)
	other, err := st.UpsertCandidate(ctx, model.Candidate{ProviderID: "p-6", Name: "Low"})
	require.NoError(t, err)

	require.NoError(t, st.UpsertScore(ctx, model.Score{CandidateID: eligible, RunID: runID, Total: 0.9, ShortlistEligible: true}))
	require.NoError(t, st.UpsertScore(ctx, model.Score{CandidateID: other, RunID: runID, Total: 0.3}))
	require.NoError(t, st.UpsertIdentity(ctx, model.Identity{
		CandidateID: eligible, Platform: model.PlatformCrossPlatform,
		Confidence: 0.95, Band: model.BandConfirmed, ShortlistEligible: true,
	}))

	results, err := st.GetResults(ctx, runID, 10)
	require.NoError(t, err)
	require.Len(t, results.Shortlist, 1)
	require.Len(t, results.ReviewQueue, 1)
	assert.Equal(t, "High", results.Shortlist[0].Name)
	assert.Equal(t, model.BandConfirmed, results.Shortlist[0].IdentityBand)
	assert.InDelta(t, 0.95, results.Shortlist[0].IdentityScore, 1e-9)
}

func TestUpsertIdentity_Conflict(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.UpsertCandidate(ctx, model.Candidate{ProviderID: "p-7", Name: "Ida"})
	require.NoError(t, err)

	require.NoError(t, st.UpsertIdentity(ctx, model.Identity{
		CandidateID: id, Platform: model.PlatformCrossPlatform, Confidence: 0.5, Band: model.BandLow,
	}))
	require.NoError(t, st.UpsertIdentity(ctx, model.Identity{
		CandidateID: id, Platform: model.PlatformCrossPlatform, Confidence: 0.95,
		Band: model.BandConfirmed, Reasons: []string{"direct_profile_link"}, ShortlistEligible: true,
	}))

	got, err := st.GetIdentity(ctx, id, model.PlatformCrossPlatform)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 0.95, got.Confidence, 1e-9)
	assert.Equal(t, model.BandConfirmed, got.Band)
	assert.Equal(t, []string{"direct_profile_link"}, got.Reasons)
}

func TestAddSignals_Batch(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	runID := beginTestRun(t, st, "sig-key")

	id, err := st.UpsertCandidate(ctx, model.Candidate{ProviderID: "p-8", Name: "Sig"})
	require.NoError(t, err)

	sig := model.NumericSignal(model.SignalBuilderActivity, 0.75, "linkedin_posts", "9 recent items")
	sig.CandidateID = id
	sig.RunID = runID
	require.NoError(t, st.AddSignals(ctx, []model.Signal{sig}))

	detail, err := st.GetCandidateDetail(ctx, id)
	require.NoError(t, err)
	require.Len(t, detail.Signals, 1)
	require.NotNil(t, detail.Signals[0].NumericValue)
	assert.InDelta(t, 0.75, *detail.Signals[0].NumericValue, 1e-9)
}
