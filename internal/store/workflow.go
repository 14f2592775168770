package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"

	"github.com/openclaw/talent-pipeline/internal/model"
)

// UpsertReviewStatus implements Store.
func (s *SQLiteStore) UpsertReviewStatus(ctx context.Context, review model.Review) error {
	updatedAt := review.UpdatedAt
	if updatedAt == 0 {
		updatedAt = model.Millis(time.Now())
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO candidate_reviews (candidate_id, run_id, status, priority, notes, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(candidate_id, run_id) DO UPDATE SET
			status = excluded.status,
			priority = excluded.priority,
			notes = excluded.notes,
			updated_at = excluded.updated_at`,
		review.CandidateID, review.RunID, string(review.Status), review.Priority,
		nullIfEmpty(review.Notes), updatedAt,
	)
	return eris.Wrap(err, "store: upsert review")
}

func scanReview(row interface{ Scan(...any) error }) (*model.Review, error) {
	var r model.Review
	var notes sql.NullString
	if err := row.Scan(&r.CandidateID, &r.RunID, &r.Status, &r.Priority, &notes, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Notes = notes.String
	return &r, nil
}

// GetReview implements Store. A missing review returns nil without error.
func (s *SQLiteStore) GetReview(ctx context.Context, candidateID, runID string) (*model.Review, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT candidate_id, run_id, status, priority, notes, updated_at
		 FROM candidate_reviews WHERE candidate_id = ? AND run_id = ?`,
		candidateID, runID,
	)
	r, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: get review")
	}
	return r, nil
}

// GetVerificationQueue implements Store. Candidates under verification for
// the run, ordered by review priority then total score.
func (s *SQLiteStore) GetVerificationQueue(ctx context.Context, runID string, filter QueueFilter) ([]model.QueueEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT c.id, c.name, c.headline, c.profile_url, r.priority,
			COALESCE(sc.total_score, 0), COALESCE(ci.band, ''), COALESCE(ci.confidence, 0)
		 FROM candidate_reviews r
		 JOIN candidates c ON c.id = r.candidate_id
		 LEFT JOIN candidate_scores sc ON sc.candidate_id = r.candidate_id AND sc.run_id = r.run_id
		 LEFT JOIN candidate_identities ci ON ci.candidate_id = r.candidate_id AND ci.platform = ?
		 WHERE r.run_id = ? AND r.status = ?`
	args := []any{string(model.PlatformCrossPlatform), runID, string(model.ReviewUnderVerification)}

	if filter.HighPriority {
		query += ` AND r.priority >= 50`
	}
	query += ` ORDER BY r.priority DESC, sc.total_score DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: query verification queue")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.QueueEntry
	for rows.Next() {
		var e model.QueueEntry
		var headline, profileURL sql.NullString
		if err := rows.Scan(&e.CandidateID, &e.Name, &headline, &profileURL,
			&e.Priority, &e.TotalScore, &e.Band, &e.Confidence); err != nil {
			return nil, eris.Wrap(err, "store: scan queue entry")
		}
		e.Headline = headline.String
		e.ProfileURL = profileURL.String
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "store: queue iterate")
}

// InsertVerification implements Store. The verification row and the review
// transition it implies are committed in one transaction: confirmed moves
// the review to promoted_shortlist, rejected to rejected, inconclusive
// leaves the review untouched.
func (s *SQLiteStore) InsertVerification(ctx context.Context, v model.Verification) error {
	proofLinks, err := marshalJSON(v.ProofLinks)
	if err != nil {
		return err
	}
	createdAt := v.CreatedAt
	if createdAt == 0 {
		createdAt = model.Millis(time.Now())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin verification tx")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO candidate_verifications (candidate_id, run_id, method, outcome, confidence_before, confidence_after, proof_links_json, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.CandidateID, v.RunID, string(v.Method), string(v.Outcome),
		v.ConfidenceBefore, v.ConfidenceAfter, nullIfEmpty(proofLinks), nullIfEmpty(v.Notes), createdAt,
	)
	if err != nil {
		return eris.Wrap(err, "store: insert verification")
	}

	var status model.ReviewStatus
	var notePrefix string
	switch v.Outcome {
	case model.OutcomeConfirmed:
		status = model.ReviewPromotedShortlist
		notePrefix = "Verified via browser."
	case model.OutcomeRejected:
		status = model.ReviewRejected
		notePrefix = "Verification rejected."
	default:
		// Inconclusive: record only.
		return eris.Wrap(tx.Commit(), "store: commit verification")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO candidate_reviews (candidate_id, run_id, status, priority, notes, updated_at)
		 VALUES (?, ?, ?, 0, ?, ?)
		 ON CONFLICT(candidate_id, run_id) DO UPDATE SET
			status = excluded.status,
			notes = ? || ' ' || COALESCE(candidate_reviews.notes, ''),
			updated_at = excluded.updated_at`,
		v.CandidateID, v.RunID, string(status), notePrefix, createdAt, notePrefix,
	)
	if err != nil {
		return eris.Wrap(err, "store: transition review")
	}

	return eris.Wrap(tx.Commit(), "store: commit verification")
}

// HasConfirmedVerification implements Store.
func (s *SQLiteStore) HasConfirmedVerification(ctx context.Context, candidateID, runID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM candidate_verifications
		 WHERE candidate_id = ? AND run_id = ? AND outcome = ?`,
		candidateID, runID, string(model.OutcomeConfirmed),
	).Scan(&n)
	return n > 0, eris.Wrap(err, "store: count confirmed verifications")
}

// HasPromotion implements Store.
func (s *SQLiteStore) HasPromotion(ctx context.Context, candidateID, runID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM candidate_promotions WHERE candidate_id = ? AND run_id = ?`,
		candidateID, runID,
	).Scan(&n)
	return n > 0, eris.Wrap(err, "store: count promotions")
}

// InsertPromotion implements Store. The promotion insert and the
// promoted_shortlist review upsert share one transaction; this method is
// the single writer of review state on promotion.
func (s *SQLiteStore) InsertPromotion(ctx context.Context, p model.Promotion) error {
	proofLinks, err := marshalJSON(p.ProofLinks)
	if err != nil {
		return err
	}
	promotedAt := p.PromotedAt
	if promotedAt == 0 {
		promotedAt = model.Millis(time.Now())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin promotion tx")
	}
	defer tx.Rollback() //nolint:errcheck

	var override any
	if p.ConfidenceOverride != nil {
		override = *p.ConfidenceOverride
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO candidate_promotions (candidate_id, run_id, promotion_reason, confidence_override, outreach_angle, proof_links_json, promoted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.CandidateID, p.RunID, nullIfEmpty(p.PromotionReason), override,
		nullIfEmpty(p.OutreachAngle), nullIfEmpty(proofLinks), promotedAt,
	)
	if err != nil {
		return eris.Wrap(err, "store: insert promotion")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO candidate_reviews (candidate_id, run_id, status, priority, notes, updated_at)
		 VALUES (?, ?, ?, 0, NULL, ?)
		 ON CONFLICT(candidate_id, run_id) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at`,
		p.CandidateID, p.RunID, string(model.ReviewPromotedShortlist), promotedAt,
	)
	if err != nil {
		return eris.Wrap(err, "store: promote review")
	}

	return eris.Wrap(tx.Commit(), "store: commit promotion")
}

// UpsertDailyOutput implements Store.
func (s *SQLiteStore) UpsertDailyOutput(ctx context.Context, out model.DailyOutput) error {
	updatedAt := out.UpdatedAt
	if updatedAt == 0 {
		updatedAt = model.Millis(time.Now())
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_run_outputs (run_id, role_key, date, sourced, reviewed, verified, promoted, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, role_key, date) DO UPDATE SET
			sourced = excluded.sourced,
			reviewed = excluded.reviewed,
			verified = excluded.verified,
			promoted = excluded.promoted,
			updated_at = excluded.updated_at`,
		out.RunID, out.RoleKey, out.Date, out.Sourced, out.Reviewed, out.Verified, out.Promoted, updatedAt,
	)
	return eris.Wrap(err, "store: upsert daily output")
}

// GetWorkflowStats implements Store. Counts reviews touched within the
// [date, date+24h) UTC window for the run.
func (s *SQLiteStore) GetWorkflowStats(ctx context.Context, runID, date string) (*model.WorkflowStats, error) {
	start, end := model.DayWindow(date)
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM candidate_reviews
		 WHERE run_id = ? AND updated_at >= ? AND updated_at < ?
		 GROUP BY status`,
		runID, start, end,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: workflow stats")
	}
	defer rows.Close() //nolint:errcheck

	stats := &model.WorkflowStats{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "store: scan workflow stats")
		}
		switch model.ReviewStatus(status) {
		case model.ReviewNewReview:
			stats.NewReview = n
		case model.ReviewUnderVerification:
			stats.UnderVerification = n
		case model.ReviewPromotedShortlist:
			stats.PromotedShortlist = n
		case model.ReviewRejected:
			stats.Rejected = n
		case model.ReviewDeferred:
			stats.Deferred = n
		}
	}
	return stats, eris.Wrap(rows.Err(), "store: workflow stats iterate")
}

// GetVerificationStats implements Store.
func (s *SQLiteStore) GetVerificationStats(ctx context.Context, runID, date string) (*model.VerificationStats, error) {
	start, end := model.DayWindow(date)
	rows, err := s.db.QueryContext(ctx,
		`SELECT outcome, COUNT(*) FROM candidate_verifications
		 WHERE run_id = ? AND created_at >= ? AND created_at < ?
		 GROUP BY outcome`,
		runID, start, end,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: verification stats")
	}
	defer rows.Close() //nolint:errcheck

	stats := &model.VerificationStats{}
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, eris.Wrap(err, "store: scan verification stats")
		}
		stats.Total += n
		switch model.VerificationOutcome(outcome) {
		case model.OutcomeConfirmed:
			stats.Confirmed = n
		case model.OutcomeRejected:
			stats.Rejected = n
		case model.OutcomeInconclusive:
			stats.Inconclusive = n
		}
	}
	return stats, eris.Wrap(rows.Err(), "store: verification stats iterate")
}

// GetQuotaStatus implements Store.
func (s *SQLiteStore) GetQuotaStatus(ctx context.Context, runID, date string, targets QuotaTargets) (*model.QuotaStatus, error) {
	start, end := model.DayWindow(date)

	var promoted int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM candidate_promotions
		 WHERE run_id = ? AND promoted_at >= ? AND promoted_at < ?`,
		runID, start, end,
	).Scan(&promoted)
	if err != nil {
		return nil, eris.Wrap(err, "store: count promoted")
	}

	var reviewed int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM candidate_reviews
		 WHERE run_id = ? AND updated_at >= ? AND updated_at < ?`,
		runID, start, end,
	).Scan(&reviewed)
	if err != nil {
		return nil, eris.Wrap(err, "store: count reviewed")
	}

	var verifications int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM candidate_verifications
		 WHERE run_id = ? AND created_at >= ? AND created_at < ?`,
		runID, start, end,
	).Scan(&verifications)
	if err != nil {
		return nil, eris.Wrap(err, "store: count verifications")
	}

	return &model.QuotaStatus{
		Date:                date,
		PromotedToday:       promoted,
		PromotedTarget:      targets.PromotedTarget,
		ReviewedToday:       reviewed,
		ReviewedTarget:      targets.ReviewedTarget,
		VerificationsToday:  verifications,
		VerificationBudget:  targets.VerificationBudget,
		PromotionQuotaMet:   promoted >= targets.PromotedTarget,
		VerificationBudget0: verifications >= targets.VerificationBudget,
	}, nil
}
