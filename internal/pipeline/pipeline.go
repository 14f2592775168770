// Package pipeline orchestrates candidate sourcing runs: idempotent run
// creation, LinkedIn sourcing, per-candidate enrichment and scoring, and
// the hybrid review workflow on top of the store.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openclaw/talent-pipeline/internal/config"
	"github.com/openclaw/talent-pipeline/internal/enrich"
	"github.com/openclaw/talent-pipeline/internal/identity"
	"github.com/openclaw/talent-pipeline/internal/model"
	"github.com/openclaw/talent-pipeline/internal/resilience"
	"github.com/openclaw/talent-pipeline/internal/scorer"
	"github.com/openclaw/talent-pipeline/internal/store"
	"github.com/openclaw/talent-pipeline/pkg/unipile"
)

const (
	searchPageSize  = 50
	searchMinPages  = 3
	maxTargetPerRun = 2000
	sourceLinkedIn  = "linkedin_search"
)

// Pipeline is the run orchestrator.
type Pipeline struct {
	store    store.Store
	linkedin unipile.Client
	account  unipile.Account
	enricher *enrich.Enricher
	cfg      config.RecruitingConfig
	retry    resilience.RetryConfig
	now      func() time.Time
}

// New creates a pipeline over its collaborators.
func New(st store.Store, linkedin unipile.Client, account unipile.Account, enricher *enrich.Enricher, cfg config.RecruitingConfig) *Pipeline {
	return &Pipeline{
		store:    st,
		linkedin: linkedin,
		account:  account,
		enricher: enricher,
		cfg:      cfg,
		retry:    resilience.DefaultRetryConfig(),
		now:      time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (p *Pipeline) WithNow(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// RunInput describes one pipeline run request.
type RunInput struct {
	Role                       model.RoleSpec
	IdempotencyKey             string
	BrowserVerificationEnabled bool
	SourceQueryMode            model.SourceQueryMode
	EvidenceQueryMode          model.EvidenceQueryMode
}

// RunOutput is what Run reports back. Run never returns an error; failures
// are captured in the run's diagnostics and reflected in Status.
type RunOutput struct {
	RunID   string          `json:"run_id"`
	Resumed bool            `json:"resumed"`
	Status  model.RunStatus `json:"status"`
}

type runConfig struct {
	Role                model.RoleSpec `json:"role"`
	Modes               model.RunModes `json:"modes"`
	BrowserVerification bool           `json:"browser_verification"`
}

// Run executes the sourcing state machine for a role.
func (p *Pipeline) Run(ctx context.Context, in RunInput) *RunOutput {
	if in.SourceQueryMode == "" {
		in.SourceQueryMode = model.SourceQueryDefault
	}
	if in.EvidenceQueryMode == "" {
		in.EvidenceQueryMode = model.EvidenceQueryDefault
	}

	target := in.Role.TargetCandidates
	if target <= 0 {
		target = p.cfg.Run.TargetCandidatesPerRole
	}
	if target < 1 {
		target = 1
	}
	if target > maxTargetPerRun {
		target = maxTargetPerRun
	}
	in.Role.TargetCandidates = target

	key := in.IdempotencyKey
	if key == "" {
		key = fmt.Sprintf("%s:%d:%s", in.Role.RoleKey, target, model.DateUTC(p.now()))
	}

	modes := model.RunModes{
		SourceQueryMode:   in.SourceQueryMode,
		EvidenceQueryMode: in.EvidenceQueryMode,
	}
	configJSON, err := json.Marshal(runConfig{
		Role:                in.Role,
		Modes:               modes,
		BrowserVerification: in.BrowserVerificationEnabled,
	})
	if err != nil {
		zap.L().Error("marshal run config", zap.Error(err))
		return &RunOutput{Status: model.RunStatusFailed}
	}

	begin, err := p.store.BeginRun(ctx, store.BeginRunInput{
		IdempotencyKey:   key,
		RoleKey:          in.Role.RoleKey,
		RoleTitle:        in.Role.RoleTitle,
		TargetCandidates: target,
		ConfigJSON:       string(configJSON),
	})
	if err != nil {
		zap.L().Error("begin run", zap.Error(err))
		return &RunOutput{Status: model.RunStatusFailed}
	}
	if begin.Resumed {
		zap.L().Info("run resumed",
			zap.String("run_id", begin.Run.ID),
			zap.String("idempotency_key", key),
		)
		return &RunOutput{RunID: begin.Run.ID, Resumed: true, Status: begin.Run.Status}
	}

	run := begin.Run
	log := zap.L().With(zap.String("run_id", run.ID), zap.String("role_key", in.Role.RoleKey))
	acc := newRunAccumulator()
	accountHealth := p.accountHealth()

	if err := p.execute(ctx, run.ID, in, acc, log); err != nil {
		se := classify(StageSearch, err)
		log.Error("run failed", zap.String("stage", se.Stage), zap.Error(err))

		if ferr := p.store.AddRunFailure(ctx, model.RunFailure{
			RunID:     run.ID,
			Stage:     se.Stage,
			ErrorType: se.Type,
			Message:   se.Message,
			Retryable: se.Retryable,
		}); ferr != nil {
			log.Warn("record run failure", zap.Error(ferr))
		}
		acc.recordStageError(se.Stage, se.Type, se.Message)

		diag := p.diagnostics(acc, accountHealth, in, modes)
		diag.Failure = &model.FailureDescriptor{
			Stage:     se.Stage,
			ErrorType: se.Type,
			Message:   se.Message,
			Retryable: se.Retryable,
		}
		if merr := p.store.MarkRunFailed(ctx, run.ID, diag); merr != nil {
			log.Error("mark run failed", zap.Error(merr))
		}
		return &RunOutput{RunID: run.ID, Status: model.RunStatusFailed}
	}

	diag := p.diagnostics(acc, accountHealth, in, modes)
	if err := p.store.MarkRunCompleted(ctx, run.ID, diag); err != nil {
		log.Error("mark run completed", zap.Error(err))
		return &RunOutput{RunID: run.ID, Status: model.RunStatusFailed}
	}

	if err := p.store.UpsertDailyOutput(ctx, model.DailyOutput{
		RunID:   run.ID,
		RoleKey: in.Role.RoleKey,
		Date:    model.DateUTC(p.now()),
		Sourced: acc.counts.Sourced,
	}); err != nil {
		log.Warn("upsert daily output", zap.Error(err))
	}

	log.Info("run completed",
		zap.Int("sourced", acc.counts.Sourced),
		zap.Int("enriched", acc.counts.Enriched),
		zap.Int("enrich_failed", acc.counts.EnrichFailed),
		zap.Int("shortlist_eligible", acc.counts.ShortlistEligible),
	)
	return &RunOutput{RunID: run.ID, Status: model.RunStatusCompleted}
}

// execute runs preflight, sourcing, and the sequential per-candidate loop.
// The returned error is fatal for the run; per-candidate failures are
// absorbed into the accumulator.
func (p *Pipeline) execute(ctx context.Context, runID string, in RunInput, acc *runAccumulator, log *zap.Logger) error {
	// Preflight: the account must be enabled with usable credentials.
	if !p.account.Enabled || p.account.APIKeySource == unipile.KeySourceNone || len(p.account.MissingCredentials) > 0 {
		return &StageError{
			Stage:     StagePreflight,
			Type:      string(unipile.KindAuth),
			Retryable: false,
			Message:   "linkedin account disabled or credentials missing",
		}
	}

	search := in.Role.Search
	if in.SourceQueryMode == model.SourceQueryBroad {
		search = normalizeSearchForBroadMode(search)
	}

	params := searchParams(search, in.Role.TargetCandidates)
	resp, err := resilience.DoVal(ctx, p.linkedinRetry("search_talent"), func(ctx context.Context) (*unipile.SearchResponse, error) {
		return p.linkedin.SearchTalent(ctx, params)
	})
	if err != nil {
		return newStageError(StageSearch, unipile.ClassifyError(err))
	}
	if !resp.Success {
		c := unipile.ClassifyError(fmt.Errorf("linkedin search: %s", resp.Error))
		c.Message = resp.Error
		return newStageError(StageSearch, c)
	}

	candidates := resp.Candidates
	if len(candidates) > in.Role.TargetCandidates {
		candidates = candidates[:in.Role.TargetCandidates]
	}
	log.Info("sourcing complete", zap.Int("candidates", len(candidates)))

	for i, hit := range candidates {
		if ctx.Err() != nil {
			// Cancellation between candidates leaves the run in running
			// state; a re-run with the same key resumes it.
			return nil
		}
		acc.counts.Sourced++

		if err := p.enrichCandidate(ctx, runID, i+1, hit, in, acc); err != nil {
			acc.counts.EnrichFailed++
			se := classify(StageCandidateScore, err)
			acc.recordStageError(StageCandidateScore, se.Type, se.Message)

			ref := hit.PublicIdentifier
			if ref == "" {
				ref = hit.ProviderID
			}
			if ferr := p.store.AddRunFailure(ctx, model.RunFailure{
				RunID:        runID,
				Stage:        StageCandidateScore,
				CandidateRef: ref,
				ErrorType:    se.Type,
				Message:      se.Message,
				Retryable:    se.Retryable,
			}); ferr != nil {
				log.Warn("record candidate failure", zap.Error(ferr))
			}
			log.Warn("candidate enrich failed",
				zap.String("candidate", ref),
				zap.String("error_type", se.Type),
			)
		}
	}
	return nil
}

// enrichCandidate upserts the candidate, fans out the four LinkedIn calls,
// gathers external evidence, resolves identity, scores, and persists.
// The candidate row and its source record are written first; identities,
// signals, score, and evidence are written only after all collaborator
// calls have returned, each through its own store call.
func (p *Pipeline) enrichCandidate(ctx context.Context, runID string, rank int, hit unipile.CandidateHit, in RunInput, acc *runAccumulator) error {
	candidateID, err := p.store.UpsertCandidate(ctx, model.Candidate{
		Provider:         model.ProviderLinkedIn,
		ProviderID:       hit.ProviderID,
		PublicIdentifier: hit.PublicIdentifier,
		ProfileURL:       hit.ProfileURL,
		Name:             hit.Name,
		Headline:         hit.Headline,
		Location:         hit.Location,
		CurrentCompany:   hit.CurrentCompany,
		CurrentRole:      hit.CurrentRole,
		OpenToWork:       hit.OpenToWork,
	})
	if err != nil {
		return err
	}

	payload, _ := json.Marshal(hit)
	if err := p.store.AddSourceRecord(ctx, model.SourceRecord{
		CandidateID: candidateID,
		RunID:       runID,
		Source:      sourceLinkedIn,
		SourceRank:  rank,
		Payload:     string(payload),
	}); err != nil {
		return err
	}

	// The four activity calls go out in parallel; candidates themselves
	// are processed sequentially to bound outstanding traffic.
	var (
		profile   *unipile.ProfileResponse
		posts     *unipile.ActivityResponse
		comments  *unipile.ActivityResponse
		reactions *unipile.ActivityResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		profile, err = resilience.DoVal(gctx, p.linkedinRetry("get_user_profile"), func(ctx context.Context) (*unipile.ProfileResponse, error) {
			return p.linkedin.GetUserProfile(ctx, hit.ProviderID)
		})
		return err
	})
	g.Go(func() (err error) {
		posts, err = resilience.DoVal(gctx, p.linkedinRetry("get_user_posts"), func(ctx context.Context) (*unipile.ActivityResponse, error) {
			return p.linkedin.GetUserPosts(ctx, hit.ProviderID)
		})
		return err
	})
	g.Go(func() (err error) {
		comments, err = resilience.DoVal(gctx, p.linkedinRetry("get_user_comments"), func(ctx context.Context) (*unipile.ActivityResponse, error) {
			return p.linkedin.GetUserComments(ctx, hit.ProviderID)
		})
		return err
	})
	g.Go(func() (err error) {
		reactions, err = resilience.DoVal(gctx, p.linkedinRetry("get_user_reactions"), func(ctx context.Context) (*unipile.ActivityResponse, error) {
			return p.linkedin.GetUserReactions(ctx, hit.ProviderID)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	now := p.now()
	var signals []model.Signal
	signals = append(signals, activitySignal(posts.Items, "linkedin_posts", now))
	signals = append(signals, activitySignal(comments.Items, "linkedin_comments", now))
	signals = append(signals, activitySignal(reactions.Items, "linkedin_reactions", now))

	var profileItem *unipile.ProfileItem
	openToWork := hit.OpenToWork
	if len(profile.Items) > 0 {
		profileItem = &profile.Items[0]
		openToWork = openToWork || profileItem.IsOpenToWork
	}
	signals = append(signals, profileSignals(profileItem)...)

	footprint, err := resilience.DoVal(ctx, p.externalRetry("external_footprint"), func(ctx context.Context) (*enrich.Footprint, error) {
		return p.enricher.EnrichExternalFootprint(ctx, enrich.Input{
			Name:              hit.Name,
			Company:           hit.CurrentCompany,
			Headline:          hit.Headline,
			EvidenceQueryMode: in.EvidenceQueryMode,
		})
	})
	if err != nil {
		return err
	}
	signals = append(signals, footprint.Signals...)
	acc.counts.ExternalDiscovered += len(footprint.Evidence)

	resolved := identity.Resolve(model.IdentityInput{
		LinkedInProfileURL: hit.ProfileURL,
		LinkedInEmployer:   hit.CurrentCompany,
		LinkedInLocation:   hit.Location,
		GitHub:             footprint.GitHub,
		X:                  footprint.X,
		PersonalSite:       footprint.PersonalSite,
	})
	eligible := resolved.ShortlistEligible && resolved.Confidence >= p.cfg.Identity.MinConfidenceForShortlist

	if in.BrowserVerificationEnabled && p.browserVerificationWanted(resolved.Band) {
		signals = append(signals, model.NumericSignal(model.SignalBrowserVerificationNeeded, 1, "pipeline",
			"identity band warrants browser verification"))
	}

	evidence := []model.EvidenceLink{{
		CandidateID: candidateID,
		RunID:       runID,
		URL:         hit.ProfileURL,
		Title:       hit.Name,
		Source:      "linkedin",
		Relevance:   1,
	}}
	seen := map[string]bool{hit.ProfileURL: true}
	for _, link := range footprint.Evidence {
		if seen[link.URL] {
			continue
		}
		seen[link.URL] = true
		link.CandidateID = candidateID
		link.RunID = runID
		evidence = append(evidence, link)
	}

	score := scorer.Compute(scorer.Input{
		Signals:          signals,
		IdentityScore:    resolved.Confidence,
		IdentityEligible: eligible,
		Evidence:         evidence,
		OpenToWork:       openToWork,
	})
	score.CandidateID = candidateID
	score.RunID = runID

	// Persist: identities per platform, then signals, score, evidence.
	if err := p.persistIdentities(ctx, candidateID, hit, footprint, resolved, eligible); err != nil {
		return err
	}

	for i := range signals {
		signals[i].CandidateID = candidateID
		signals[i].RunID = runID
	}
	if err := p.store.AddSignals(ctx, signals); err != nil {
		return err
	}
	if err := p.store.UpsertScore(ctx, score); err != nil {
		return err
	}
	if err := p.store.AddEvidenceLinks(ctx, evidence); err != nil {
		return err
	}

	acc.counts.Enriched++
	if resolved.Band == model.BandConfirmed || resolved.Band == model.BandHigh {
		acc.counts.IdentityConfirmedHigh++
	} else {
		acc.counts.IdentityMediumLow++
	}
	if eligible {
		acc.counts.ShortlistEligible++
	}
	return nil
}

func (p *Pipeline) persistIdentities(ctx context.Context, candidateID string, hit unipile.CandidateHit, footprint *enrich.Footprint, resolved identity.Result, eligible bool) error {
	identities := []model.Identity{
		{
			CandidateID:       candidateID,
			Platform:          model.PlatformCrossPlatform,
			Confidence:        resolved.Confidence,
			Band:              resolved.Band,
			Reasons:           resolved.Reasons,
			ShortlistEligible: eligible,
		},
		{
			CandidateID:       candidateID,
			Platform:          model.PlatformLinkedIn,
			Handle:            hit.PublicIdentifier,
			URL:               hit.ProfileURL,
			Confidence:        1,
			Band:              model.BandConfirmed,
			ShortlistEligible: eligible,
		},
	}
	if footprint.GitHub != nil {
		identities = append(identities, model.Identity{
			CandidateID:       candidateID,
			Platform:          model.PlatformGitHub,
			Handle:            footprint.GitHub.Handle,
			URL:               footprint.GitHub.URL,
			Confidence:        resolved.Confidence,
			Band:              resolved.Band,
			ShortlistEligible: eligible,
		})
	}
	if footprint.X != nil {
		identities = append(identities, model.Identity{
			CandidateID:       candidateID,
			Platform:          model.PlatformX,
			Handle:            footprint.X.Handle,
			URL:               footprint.X.URL,
			Confidence:        resolved.Confidence,
			Band:              resolved.Band,
			ShortlistEligible: eligible,
		})
	}

	for _, id := range identities {
		if err := p.store.UpsertIdentity(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) browserVerificationWanted(band model.Band) bool {
	switch p.cfg.BrowserVerification.Mode {
	case "always":
		return true
	default:
		return band == model.BandHigh
	}
}

func (p *Pipeline) accountHealth() *model.AccountHealth {
	return &model.AccountHealth{
		AccountID:          p.account.AccountID,
		UnipileAccountID:   p.account.UnipileAccountID,
		Enabled:            p.account.Enabled,
		APIKeySource:       string(p.account.APIKeySource),
		MissingCredentials: p.account.MissingCredentials,
	}
}

func (p *Pipeline) diagnostics(acc *runAccumulator, account *model.AccountHealth, in RunInput, modes model.RunModes) *model.Diagnostics {
	return &model.Diagnostics{
		Counts:         acc.counts,
		StageErrors:    acc.aggregates(),
		Account:        account,
		EffectiveQuery: effectiveQuery(in.Role.Search, in.SourceQueryMode),
		Modes:          modes,
	}
}

// effectiveQuery renders the search the run actually issued, for operator
// diagnostics.
func effectiveQuery(search model.TalentSearch, mode model.SourceQueryMode) string {
	if mode == model.SourceQueryBroad {
		search = normalizeSearchForBroadMode(search)
	}
	parts := []string{search.Keywords}
	for _, f := range search.RoleKeywords {
		parts = append(parts, f.Text)
	}
	for _, f := range search.Skills {
		parts = append(parts, f.Text)
	}
	for _, f := range search.Companies {
		parts = append(parts, f.Text)
	}
	if search.Location != "" {
		parts = append(parts, search.Location)
	}
	var kept []string
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, " ")
}

func searchParams(search model.TalentSearch, target int) unipile.SearchParams {
	maxPages := int(math.Ceil(float64(target) / searchPageSize))
	if maxPages < searchMinPages {
		maxPages = searchMinPages
	}
	return unipile.SearchParams{
		Keywords:     search.Keywords,
		RoleKeywords: toUnipileFilters(search.RoleKeywords),
		Skills:       toUnipileFilters(search.Skills),
		Companies:    toUnipileFilters(search.Companies),
		Location:     search.Location,
		Industry:     search.Industry,
		API:          search.API,
		AccountID:    search.AccountID,
		PageSize:     searchPageSize,
		MaxPages:     maxPages,
	}
}

func toUnipileFilters(filters []model.SearchFilter) []unipile.SearchFilter {
	if len(filters) == 0 {
		return nil
	}
	out := make([]unipile.SearchFilter, len(filters))
	for i, f := range filters {
		out[i] = unipile.SearchFilter{ID: f.ID, Text: f.Text}
	}
	return out
}

// linkedinRetry builds the retry policy for LinkedIn calls: retryable when
// the classified error is transient.
func (p *Pipeline) linkedinRetry(operation string) resilience.RetryConfig {
	cfg := p.retry
	cfg.ShouldRetry = func(err error) bool {
		return unipile.ClassifyError(err).IsTransient
	}
	cfg.OnRetry = resilience.RetryLogger("linkedin", operation)
	return cfg
}

// externalRetry builds the retry policy for external collaborator calls.
func (p *Pipeline) externalRetry(operation string) resilience.RetryConfig {
	cfg := p.retry
	cfg.OnRetry = resilience.RetryLogger("external", operation)
	return cfg
}
