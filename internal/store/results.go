package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/openclaw/talent-pipeline/internal/model"
)

// GetResults implements Store. Rows are the run's top candidates by total
// score joined with their cross-platform identity, each carrying its top-3
// evidence links by (relevance DESC, created_at DESC), partitioned into
// shortlist and review queue by shortlist eligibility.
func (s *SQLiteStore) GetResults(ctx context.Context, runID string, limit int) (*model.PipelineResults, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.headline, c.location, c.current_company, c.profile_url,
			sc.total_score, sc.breakdown_json, sc.concerns_json, sc.shortlist_eligible, sc.outreach_angle,
			ci.band, ci.confidence
		 FROM candidate_scores sc
		 JOIN candidates c ON c.id = sc.candidate_id
		 LEFT JOIN candidate_identities ci ON ci.candidate_id = sc.candidate_id AND ci.platform = ?
		 WHERE sc.run_id = ?
		 ORDER BY sc.total_score DESC
		 LIMIT ?`,
		string(model.PlatformCrossPlatform), runID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: query results")
	}
	defer rows.Close() //nolint:errcheck

	results := &model.PipelineResults{
		Meta: model.ResultsMeta{
			RunID:       run.ID,
			RoleKey:     run.RoleKey,
			RoleTitle:   run.RoleTitle,
			Status:      run.Status,
			Diagnostics: run.Diagnostics,
		},
		Shortlist:   []model.ResultRow{},
		ReviewQueue: []model.ResultRow{},
	}
	results.Meta.Modes = runModes(run)

	var candidateIDs []string
	var parsed []model.ResultRow
	for rows.Next() {
		var r model.ResultRow
		var headline, location, company, profileURL, breakdown, concerns, angle, band sql.NullString
		var eligible int
		var identityScore sql.NullFloat64
		if err := rows.Scan(&r.CandidateID, &r.Name, &headline, &location, &company, &profileURL,
			&r.TotalScore, &breakdown, &concerns, &eligible, &angle, &band, &identityScore); err != nil {
			return nil, eris.Wrap(err, "store: scan result row")
		}
		r.Headline = headline.String
		r.Location = location.String
		r.CurrentCompany = company.String
		r.ProfileURL = profileURL.String
		r.OutreachAngle = angle.String
		r.ShortlistEligible = eligible != 0
		r.IdentityBand = model.Band(band.String)
		r.IdentityScore = identityScore.Float64
		r.Concerns = unmarshalStrings(concerns)
		if breakdown.Valid && breakdown.String != "" {
			if err := json.Unmarshal([]byte(breakdown.String), &r.Breakdown); err != nil {
				return nil, eris.Wrap(err, "store: unmarshal breakdown")
			}
		}
		parsed = append(parsed, r)
		candidateIDs = append(candidateIDs, r.CandidateID)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: results iterate")
	}

	for i := range parsed {
		evidence, err := s.topEvidence(ctx, candidateIDs[i], runID, 3)
		if err != nil {
			return nil, err
		}
		parsed[i].Evidence = evidence
		if parsed[i].ShortlistEligible {
			results.Shortlist = append(results.Shortlist, parsed[i])
		} else {
			results.ReviewQueue = append(results.ReviewQueue, parsed[i])
		}
	}

	return results, nil
}

func runModes(run *model.PipelineRun) model.RunModes {
	if run.Diagnostics != nil && run.Diagnostics.Modes.SourceQueryMode != "" {
		return run.Diagnostics.Modes
	}
	if run.ConfigJSON != "" {
		var cfg struct {
			Modes model.RunModes `json:"modes"`
		}
		if err := json.Unmarshal([]byte(run.ConfigJSON), &cfg); err == nil {
			return cfg.Modes
		}
	}
	return model.RunModes{}
}

func (s *SQLiteStore) topEvidence(ctx context.Context, candidateID, runID string, limit int) ([]model.EvidenceLink, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT candidate_id, run_id, url, title, source, relevance, created_at
		 FROM candidate_evidence_links
		 WHERE candidate_id = ? AND run_id = ?
		 ORDER BY relevance DESC, created_at DESC
		 LIMIT ?`,
		candidateID, runID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: query evidence")
	}
	defer rows.Close() //nolint:errcheck

	var links []model.EvidenceLink
	for rows.Next() {
		var l model.EvidenceLink
		var title, source sql.NullString
		if err := rows.Scan(&l.CandidateID, &l.RunID, &l.URL, &title, &source, &l.Relevance, &l.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan evidence")
		}
		l.Title = title.String
		l.Source = source.String
		links = append(links, l)
	}
	return links, eris.Wrap(rows.Err(), "store: evidence iterate")
}

// GetCandidateDetail implements Store.
func (s *SQLiteStore) GetCandidateDetail(ctx context.Context, candidateID string) (*model.CandidateDetail, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, provider, provider_id, public_identifier, profile_url, profile_url_hash,
			name, headline, location, current_company, current_role, open_to_work, first_seen_at, last_seen_at
		 FROM candidates WHERE id = ?`, candidateID)

	var c model.Candidate
	var providerID, publicID, profileURL, hash, headline, location, company, role sql.NullString
	var openToWork int
	err := row.Scan(&c.ID, &c.Provider, &providerID, &publicID, &profileURL, &hash,
		&c.Name, &headline, &location, &company, &role, &openToWork, &c.FirstSeenAt, &c.LastSeenAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("store: candidate not found: %s", candidateID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: get candidate")
	}
	c.ProviderID = providerID.String
	c.PublicIdentifier = publicID.String
	c.ProfileURL = profileURL.String
	c.ProfileURLHash = hash.String
	c.Headline = headline.String
	c.Location = location.String
	c.CurrentCompany = company.String
	c.CurrentRole = role.String
	c.OpenToWork = openToWork != 0

	detail := &model.CandidateDetail{Candidate: c}

	if detail.Identities, err = s.candidateIdentities(ctx, candidateID); err != nil {
		return nil, err
	}
	if detail.Signals, err = s.candidateSignals(ctx, candidateID); err != nil {
		return nil, err
	}
	if detail.Scores, err = s.candidateScores(ctx, candidateID); err != nil {
		return nil, err
	}
	if detail.Evidence, err = s.candidateEvidence(ctx, candidateID); err != nil {
		return nil, err
	}
	if detail.Reviews, err = s.candidateReviews(ctx, candidateID); err != nil {
		return nil, err
	}
	if detail.Verifications, err = s.candidateVerifications(ctx, candidateID); err != nil {
		return nil, err
	}
	if detail.Promotions, err = s.candidatePromotions(ctx, candidateID); err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *SQLiteStore) candidateIdentities(ctx context.Context, candidateID string) ([]model.Identity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT candidate_id, platform, handle, url, confidence, band, reasons_json, shortlist_eligible, updated_at
		 FROM candidate_identities WHERE candidate_id = ?`, candidateID)
	if err != nil {
		return nil, eris.Wrap(err, "store: query identities")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Identity
	for rows.Next() {
		id, err := scanIdentity(rows)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan identity")
		}
		out = append(out, *id)
	}
	return out, eris.Wrap(rows.Err(), "store: identities iterate")
}

func (s *SQLiteStore) candidateSignals(ctx context.Context, candidateID string) ([]model.Signal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT candidate_id, run_id, key, numeric_value, source, details, created_at
		 FROM candidate_signals WHERE candidate_id = ? ORDER BY created_at`, candidateID)
	if err != nil {
		return nil, eris.Wrap(err, "store: query signals")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Signal
	for rows.Next() {
		var sig model.Signal
		var numeric sql.NullFloat64
		var source, details sql.NullString
		if err := rows.Scan(&sig.CandidateID, &sig.RunID, &sig.Key, &numeric, &source, &details, &sig.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan signal")
		}
		if numeric.Valid {
			v := numeric.Float64
			sig.NumericValue = &v
		}
		sig.Source = source.String
		sig.Details = details.String
		out = append(out, sig)
	}
	return out, eris.Wrap(rows.Err(), "store: signals iterate")
}

func (s *SQLiteStore) candidateScores(ctx context.Context, candidateID string) ([]model.Score, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT candidate_id, run_id, total_score, breakdown_json, concerns_json, shortlist_eligible, outreach_angle, updated_at
		 FROM candidate_scores WHERE candidate_id = ? ORDER BY updated_at DESC`, candidateID)
	if err != nil {
		return nil, eris.Wrap(err, "store: query scores")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Score
	for rows.Next() {
		var sc model.Score
		var breakdown string
		var concerns, angle sql.NullString
		var eligible int
		if err := rows.Scan(&sc.CandidateID, &sc.RunID, &sc.Total, &breakdown, &concerns, &eligible, &angle, &sc.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan score")
		}
		if err := json.Unmarshal([]byte(breakdown), &sc.Breakdown); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal breakdown")
		}
		sc.Concerns = unmarshalStrings(concerns)
		sc.ShortlistEligible = eligible != 0
		sc.OutreachAngle = angle.String
		out = append(out, sc)
	}
	return out, eris.Wrap(rows.Err(), "store: scores iterate")
}

func (s *SQLiteStore) candidateEvidence(ctx context.Context, candidateID string) ([]model.EvidenceLink, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT candidate_id, run_id, url, title, source, relevance, created_at
		 FROM candidate_evidence_links WHERE candidate_id = ?
		 ORDER BY relevance DESC, created_at DESC`, candidateID)
	if err != nil {
		return nil, eris.Wrap(err, "store: query candidate evidence")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.EvidenceLink
	for rows.Next() {
		var l model.EvidenceLink
		var title, source sql.NullString
		if err := rows.Scan(&l.CandidateID, &l.RunID, &l.URL, &title, &source, &l.Relevance, &l.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan candidate evidence")
		}
		l.Title = title.String
		l.Source = source.String
		out = append(out, l)
	}
	return out, eris.Wrap(rows.Err(), "store: candidate evidence iterate")
}

func (s *SQLiteStore) candidateReviews(ctx context.Context, candidateID string) ([]model.Review, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT candidate_id, run_id, status, priority, notes, updated_at
		 FROM candidate_reviews WHERE candidate_id = ? ORDER BY updated_at DESC`, candidateID)
	if err != nil {
		return nil, eris.Wrap(err, "store: query reviews")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan review")
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "store: reviews iterate")
}

func (s *SQLiteStore) candidateVerifications(ctx context.Context, candidateID string) ([]model.Verification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, candidate_id, run_id, method, outcome, confidence_before, confidence_after, proof_links_json, notes, created_at
		 FROM candidate_verifications WHERE candidate_id = ? ORDER BY created_at DESC`, candidateID)
	if err != nil {
		return nil, eris.Wrap(err, "store: query verifications")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Verification
	for rows.Next() {
		var v model.Verification
		var proofLinks, notes sql.NullString
		if err := rows.Scan(&v.ID, &v.CandidateID, &v.RunID, &v.Method, &v.Outcome,
			&v.ConfidenceBefore, &v.ConfidenceAfter, &proofLinks, &notes, &v.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan verification")
		}
		v.ProofLinks = unmarshalStrings(proofLinks)
		v.Notes = notes.String
		out = append(out, v)
	}
	return out, eris.Wrap(rows.Err(), "store: verifications iterate")
}

func (s *SQLiteStore) candidatePromotions(ctx context.Context, candidateID string) ([]model.Promotion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT candidate_id, run_id, promotion_reason, confidence_override, outreach_angle, proof_links_json, promoted_at
		 FROM candidate_promotions WHERE candidate_id = ? ORDER BY promoted_at DESC`, candidateID)
	if err != nil {
		return nil, eris.Wrap(err, "store: query promotions")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Promotion
	for rows.Next() {
		var p model.Promotion
		var reason, angle, proofLinks sql.NullString
		var override sql.NullFloat64
		if err := rows.Scan(&p.CandidateID, &p.RunID, &reason, &override, &angle, &proofLinks, &p.PromotedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan promotion")
		}
		p.PromotionReason = reason.String
		p.OutreachAngle = angle.String
		p.ProofLinks = unmarshalStrings(proofLinks)
		if override.Valid {
			v := override.Float64
			p.ConfidenceOverride = &v
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "store: promotions iterate")
}
