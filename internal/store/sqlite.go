package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite" // Register the pure-Go SQLite driver.
)

// SQLiteStore implements Store using modernc.org/sqlite. It is the single
// writer for the process; one *sql.DB serves all pipeline operations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path, configures WAL mode
// and foreign-key enforcement, and verifies the connection.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	// Embed pragmas in DSN so every pooled connection gets them.
	if !strings.Contains(dsn, "?") {
		dsn += "?"
	} else {
		dsn += "&"
	}
	dsn += "_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	// Serialize writers; the orchestrator is cooperative-synchronous.
	db.SetMaxOpenConns(1)

	// Verify the connection is usable (sql.Open is lazy).
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "store: ping")
	}

	return &SQLiteStore{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
	id                TEXT PRIMARY KEY,
	idempotency_key   TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'running',
	role_key          TEXT NOT NULL,
	role_title        TEXT NOT NULL,
	target_candidates INTEGER NOT NULL,
	config_json       TEXT,
	summary_json      TEXT,
	started_at        INTEGER NOT NULL,
	finished_at       INTEGER
);

-- Failed runs release their key so a restart can claim it with a new id.
CREATE UNIQUE INDEX IF NOT EXISTS idx_runs_idempotency_key
	ON pipeline_runs(idempotency_key)
	WHERE idempotency_key != '' AND status IN ('running', 'completed');
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON pipeline_runs(started_at DESC);

CREATE TABLE IF NOT EXISTS run_roles (
	run_id        TEXT NOT NULL REFERENCES pipeline_runs(id),
	role_key      TEXT NOT NULL,
	criteria_json TEXT,
	UNIQUE(run_id, role_key)
);

CREATE TABLE IF NOT EXISTS candidates (
	id                TEXT PRIMARY KEY,
	provider          TEXT NOT NULL,
	provider_id       TEXT,
	public_identifier TEXT,
	profile_url       TEXT,
	profile_url_hash  TEXT,
	name              TEXT NOT NULL,
	headline          TEXT,
	location          TEXT,
	current_company   TEXT,
	current_role      TEXT,
	open_to_work      INTEGER NOT NULL DEFAULT 0,
	first_seen_at     INTEGER NOT NULL,
	last_seen_at      INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_candidates_provider_id
	ON candidates(provider, provider_id) WHERE provider_id IS NOT NULL AND provider_id != '';
CREATE UNIQUE INDEX IF NOT EXISTS idx_candidates_public_identifier
	ON candidates(provider, public_identifier) WHERE public_identifier IS NOT NULL AND public_identifier != '';
CREATE UNIQUE INDEX IF NOT EXISTS idx_candidates_profile_url_hash
	ON candidates(provider, profile_url_hash) WHERE profile_url_hash IS NOT NULL AND profile_url_hash != '';

CREATE TABLE IF NOT EXISTS candidate_source_records (
	candidate_id TEXT NOT NULL REFERENCES candidates(id),
	run_id       TEXT NOT NULL REFERENCES pipeline_runs(id),
	source       TEXT NOT NULL,
	source_rank  INTEGER NOT NULL,
	payload      TEXT,
	created_at   INTEGER NOT NULL,
	UNIQUE(candidate_id, run_id, source, source_rank)
);

CREATE TABLE IF NOT EXISTS candidate_identities (
	candidate_id       TEXT NOT NULL REFERENCES candidates(id),
	platform           TEXT NOT NULL,
	handle             TEXT,
	url                TEXT,
	confidence         REAL NOT NULL DEFAULT 0,
	band               TEXT NOT NULL DEFAULT 'LOW',
	reasons_json       TEXT,
	shortlist_eligible INTEGER NOT NULL DEFAULT 0,
	updated_at         INTEGER NOT NULL,
	UNIQUE(candidate_id, platform)
);

CREATE TABLE IF NOT EXISTS candidate_signals (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	candidate_id  TEXT NOT NULL REFERENCES candidates(id),
	run_id        TEXT NOT NULL REFERENCES pipeline_runs(id),
	key           TEXT NOT NULL,
	numeric_value REAL,
	source        TEXT,
	details       TEXT,
	created_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_signals_candidate_run ON candidate_signals(candidate_id, run_id);

CREATE TABLE IF NOT EXISTS candidate_scores (
	candidate_id       TEXT NOT NULL REFERENCES candidates(id),
	run_id             TEXT NOT NULL REFERENCES pipeline_runs(id),
	total_score        REAL NOT NULL,
	breakdown_json     TEXT NOT NULL,
	concerns_json      TEXT,
	shortlist_eligible INTEGER NOT NULL DEFAULT 0,
	outreach_angle     TEXT,
	updated_at         INTEGER NOT NULL,
	UNIQUE(candidate_id, run_id)
);

CREATE INDEX IF NOT EXISTS idx_scores_run_total ON candidate_scores(run_id, total_score DESC);

CREATE TABLE IF NOT EXISTS candidate_evidence_links (
	candidate_id TEXT NOT NULL REFERENCES candidates(id),
	run_id       TEXT NOT NULL REFERENCES pipeline_runs(id),
	url          TEXT NOT NULL,
	title        TEXT,
	source       TEXT,
	relevance    REAL NOT NULL DEFAULT 0,
	created_at   INTEGER NOT NULL,
	UNIQUE(candidate_id, run_id, url)
);

CREATE TABLE IF NOT EXISTS run_failures (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL REFERENCES pipeline_runs(id),
	stage         TEXT NOT NULL,
	candidate_ref TEXT,
	error_type    TEXT NOT NULL,
	message       TEXT NOT NULL,
	retryable     INTEGER NOT NULL DEFAULT 0,
	payload       TEXT,
	created_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_failures_run_created ON run_failures(run_id, created_at DESC);

CREATE TABLE IF NOT EXISTS candidate_reviews (
	candidate_id TEXT NOT NULL REFERENCES candidates(id),
	run_id       TEXT NOT NULL REFERENCES pipeline_runs(id),
	status       TEXT NOT NULL,
	priority     INTEGER NOT NULL DEFAULT 0,
	notes        TEXT,
	updated_at   INTEGER NOT NULL,
	UNIQUE(candidate_id, run_id)
);

CREATE INDEX IF NOT EXISTS idx_reviews_run_status ON candidate_reviews(run_id, status);

CREATE TABLE IF NOT EXISTS candidate_verifications (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	candidate_id      TEXT NOT NULL REFERENCES candidates(id),
	run_id            TEXT NOT NULL REFERENCES pipeline_runs(id),
	method            TEXT NOT NULL,
	outcome           TEXT NOT NULL,
	confidence_before REAL NOT NULL DEFAULT 0,
	confidence_after  REAL NOT NULL DEFAULT 0,
	proof_links_json  TEXT,
	notes             TEXT,
	created_at        INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_verifications_run_created ON candidate_verifications(run_id, created_at DESC);

CREATE TABLE IF NOT EXISTS candidate_promotions (
	candidate_id        TEXT NOT NULL REFERENCES candidates(id),
	run_id              TEXT NOT NULL REFERENCES pipeline_runs(id),
	promotion_reason    TEXT,
	confidence_override REAL,
	outreach_angle      TEXT,
	proof_links_json    TEXT,
	promoted_at         INTEGER NOT NULL,
	UNIQUE(candidate_id, run_id)
);

CREATE TABLE IF NOT EXISTS daily_run_outputs (
	run_id     TEXT NOT NULL REFERENCES pipeline_runs(id),
	role_key   TEXT NOT NULL,
	date       TEXT NOT NULL,
	sourced    INTEGER NOT NULL DEFAULT 0,
	reviewed   INTEGER NOT NULL DEFAULT 0,
	verified   INTEGER NOT NULL DEFAULT 0,
	promoted   INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL,
	UNIQUE(run_id, role_key, date)
);
`

// Ping implements Store.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate implements Store.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, migration); err != nil {
		return eris.Wrap(err, "store: migrate")
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// helpers

func marshalJSON(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", eris.Wrap(err, "store: marshal json")
	}
	return string(b), nil
}

func unmarshalStrings(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw.String), &out); err != nil {
		return nil
	}
	return out
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
