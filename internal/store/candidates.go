package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/openclaw/talent-pipeline/internal/model"
)

// UpsertCandidate implements Store. Existing candidates are resolved by the
// three dedup paths in priority order: provider id, public identifier,
// normalized profile URL hash. Matches update mutable fields and
// last_seen_at; misses insert a new row whose id is derived from the first
// key present (provider id, public identifier, URL hash), or is a random
// li_rand id when none of them is set.
func (s *SQLiteStore) UpsertCandidate(ctx context.Context, c model.Candidate) (string, error) {
	if c.Provider == "" {
		c.Provider = model.ProviderLinkedIn
	}
	if c.ProfileURLHash == "" && c.ProfileURL != "" {
		c.ProfileURLHash = model.ProfileURLHash(c.ProfileURL)
	}
	now := model.Millis(time.Now())

	existingID, err := s.resolveCandidate(ctx, c)
	if err != nil {
		return "", err
	}

	if existingID != "" {
		_, err := s.db.ExecContext(ctx,
			`UPDATE candidates SET
				name = ?, headline = ?, location = ?, current_company = ?, current_role = ?,
				open_to_work = ?, last_seen_at = ?,
				provider_id = COALESCE(NULLIF(provider_id, ''), ?),
				public_identifier = COALESCE(NULLIF(public_identifier, ''), ?),
				profile_url = COALESCE(NULLIF(profile_url, ''), ?),
				profile_url_hash = COALESCE(NULLIF(profile_url_hash, ''), ?)
			 WHERE id = ?`,
			c.Name, nullIfEmpty(c.Headline), nullIfEmpty(c.Location),
			nullIfEmpty(c.CurrentCompany), nullIfEmpty(c.CurrentRole),
			boolToInt(c.OpenToWork), now,
			nullIfEmpty(c.ProviderID), nullIfEmpty(c.PublicIdentifier),
			nullIfEmpty(c.ProfileURL), nullIfEmpty(c.ProfileURLHash),
			existingID,
		)
		if err != nil {
			return "", eris.Wrapf(err, "store: update candidate %s", existingID)
		}
		return existingID, nil
	}

	id := candidateID(c)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO candidates (id, provider, provider_id, public_identifier, profile_url, profile_url_hash,
			name, headline, location, current_company, current_role, open_to_work, first_seen_at, last_seen_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, c.Provider, nullIfEmpty(c.ProviderID), nullIfEmpty(c.PublicIdentifier),
		nullIfEmpty(c.ProfileURL), nullIfEmpty(c.ProfileURLHash),
		c.Name, nullIfEmpty(c.Headline), nullIfEmpty(c.Location),
		nullIfEmpty(c.CurrentCompany), nullIfEmpty(c.CurrentRole),
		boolToInt(c.OpenToWork), now, now,
	)
	if err != nil {
		return "", eris.Wrap(err, "store: insert candidate")
	}
	return id, nil
}

func (s *SQLiteStore) resolveCandidate(ctx context.Context, c model.Candidate) (string, error) {
	lookups := []struct {
		column string
		value  string
	}{
		{"provider_id", c.ProviderID},
		{"public_identifier", c.PublicIdentifier},
		{"profile_url_hash", c.ProfileURLHash},
	}

	for _, l := range lookups {
		if l.value == "" {
			continue
		}
		var id string
		err := s.db.QueryRowContext(ctx,
			`SELECT id FROM candidates WHERE provider = ? AND `+l.column+` = ?`,
			c.Provider, l.value,
		).Scan(&id)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return "", eris.Wrapf(err, "store: resolve candidate by %s", l.column)
		}
		return id, nil
	}
	return "", nil
}

func candidateID(c model.Candidate) string {
	switch {
	case c.ProviderID != "":
		return "li:" + c.ProviderID
	case c.PublicIdentifier != "":
		return "li_pub:" + c.PublicIdentifier
	case c.ProfileURLHash != "":
		return "li_url:" + c.ProfileURLHash[:24]
	default:
		return "li_rand:" + uuid.New().String()
	}
}

// AddSourceRecord implements Store. Duplicate (candidate, run, source,
// rank) tuples are ignored.
func (s *SQLiteStore) AddSourceRecord(ctx context.Context, rec model.SourceRecord) error {
	createdAt := rec.CreatedAt
	if createdAt == 0 {
		createdAt = model.Millis(time.Now())
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO candidate_source_records (candidate_id, run_id, source, source_rank, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.CandidateID, rec.RunID, rec.Source, rec.SourceRank, nullIfEmpty(rec.Payload), createdAt,
	)
	return eris.Wrap(err, "store: add source record")
}

// AddSignals implements Store. The batch is written inside one transaction
// so a candidate's signals land atomically.
func (s *SQLiteStore) AddSignals(ctx context.Context, signals []model.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin signals tx")
	}
	defer tx.Rollback() //nolint:errcheck

	now := model.Millis(time.Now())
	for _, sig := range signals {
		createdAt := sig.CreatedAt
		if createdAt == 0 {
			createdAt = now
		}
		var numeric any
		if sig.NumericValue != nil {
			numeric = *sig.NumericValue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO candidate_signals (candidate_id, run_id, key, numeric_value, source, details, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sig.CandidateID, sig.RunID, string(sig.Key), numeric,
			nullIfEmpty(sig.Source), nullIfEmpty(sig.Details), createdAt,
		)
		if err != nil {
			return eris.Wrap(err, "store: insert signal")
		}
	}

	return eris.Wrap(tx.Commit(), "store: commit signals")
}

// AddEvidenceLinks implements Store. Links are URL-unique per
// (candidate, run); duplicates are ignored, first-seen wins.
func (s *SQLiteStore) AddEvidenceLinks(ctx context.Context, links []model.EvidenceLink) error {
	if len(links) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin evidence tx")
	}
	defer tx.Rollback() //nolint:errcheck

	now := model.Millis(time.Now())
	for _, link := range links {
		createdAt := link.CreatedAt
		if createdAt == 0 {
			createdAt = now
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO candidate_evidence_links (candidate_id, run_id, url, title, source, relevance, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			link.CandidateID, link.RunID, link.URL, nullIfEmpty(link.Title),
			nullIfEmpty(link.Source), link.Relevance, createdAt,
		)
		if err != nil {
			return eris.Wrap(err, "store: insert evidence link")
		}
	}

	return eris.Wrap(tx.Commit(), "store: commit evidence")
}

// UpsertIdentity implements Store.
func (s *SQLiteStore) UpsertIdentity(ctx context.Context, id model.Identity) error {
	reasons, err := marshalJSON(id.Reasons)
	if err != nil {
		return err
	}
	updatedAt := id.UpdatedAt
	if updatedAt == 0 {
		updatedAt = model.Millis(time.Now())
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO candidate_identities (candidate_id, platform, handle, url, confidence, band, reasons_json, shortlist_eligible, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(candidate_id, platform) DO UPDATE SET
			handle = excluded.handle,
			url = excluded.url,
			confidence = excluded.confidence,
			band = excluded.band,
			reasons_json = excluded.reasons_json,
			shortlist_eligible = excluded.shortlist_eligible,
			updated_at = excluded.updated_at`,
		id.CandidateID, string(id.Platform), nullIfEmpty(id.Handle), nullIfEmpty(id.URL),
		id.Confidence, string(id.Band), nullIfEmpty(reasons), boolToInt(id.ShortlistEligible), updatedAt,
	)
	return eris.Wrap(err, "store: upsert identity")
}

// UpsertScore implements Store.
func (s *SQLiteStore) UpsertScore(ctx context.Context, score model.Score) error {
	breakdown, err := marshalJSON(score.Breakdown)
	if err != nil {
		return err
	}
	concerns, err := marshalJSON(score.Concerns)
	if err != nil {
		return err
	}
	updatedAt := score.UpdatedAt
	if updatedAt == 0 {
		updatedAt = model.Millis(time.Now())
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO candidate_scores (candidate_id, run_id, total_score, breakdown_json, concerns_json, shortlist_eligible, outreach_angle, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(candidate_id, run_id) DO UPDATE SET
			total_score = excluded.total_score,
			breakdown_json = excluded.breakdown_json,
			concerns_json = excluded.concerns_json,
			shortlist_eligible = excluded.shortlist_eligible,
			outreach_angle = excluded.outreach_angle,
			updated_at = excluded.updated_at`,
		score.CandidateID, score.RunID, score.Total, breakdown, nullIfEmpty(concerns),
		boolToInt(score.ShortlistEligible), nullIfEmpty(score.OutreachAngle), updatedAt,
	)
	return eris.Wrap(err, "store: upsert score")
}

// GetIdentity implements Store.
func (s *SQLiteStore) GetIdentity(ctx context.Context, candidateID string, platform model.Platform) (*model.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT candidate_id, platform, handle, url, confidence, band, reasons_json, shortlist_eligible, updated_at
		 FROM candidate_identities WHERE candidate_id = ? AND platform = ?`,
		candidateID, string(platform),
	)
	id, err := scanIdentity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: get identity")
	}
	return id, nil
}

func scanIdentity(row interface{ Scan(...any) error }) (*model.Identity, error) {
	var id model.Identity
	var handle, url, reasons sql.NullString
	var eligible int
	err := row.Scan(&id.CandidateID, &id.Platform, &handle, &url,
		&id.Confidence, &id.Band, &reasons, &eligible, &id.UpdatedAt)
	if err != nil {
		return nil, err
	}
	id.Handle = handle.String
	id.URL = url.String
	id.Reasons = unmarshalStrings(reasons)
	id.ShortlistEligible = eligible != 0
	return &id, nil
}
