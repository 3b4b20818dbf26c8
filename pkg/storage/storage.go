// Package storage persists validation runs to a local sqlite database so the
// history command and the server's runs API can show what was audited when.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/adlint/adlint/pkg/report"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  id               INTEGER PRIMARY KEY,
  bundle_id        TEXT NOT NULL,
  bundle_name      TEXT NOT NULL,
  primary_path     TEXT,
  ad_size          TEXT,
  summary          TEXT NOT NULL CHECK (summary IN ('PASS','WARN','FAIL')),
  total_bytes      INTEGER NOT NULL,
  initial_bytes    INTEGER NOT NULL,
  subsequent_bytes INTEGER NOT NULL,
  zipped_bytes     INTEGER NOT NULL,
  initial_requests INTEGER NOT NULL,
  created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_bundle ON runs(bundle_name);
CREATE INDEX IF NOT EXISTS idx_runs_time ON runs(created_at);
CREATE TABLE IF NOT EXISTS findings (
  id        INTEGER PRIMARY KEY,
  run_id    INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  check_id  TEXT NOT NULL,
  title     TEXT NOT NULL,
  severity  TEXT NOT NULL CHECK (severity IN ('PASS','WARN','FAIL')),
  messages  TEXT,
  offenders TEXT
);
CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
	`); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// SaveResult persists one BundleResult with its findings and returns the run id.
func (d *DB) SaveResult(ctx context.Context, r report.BundleResult) (int64, error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	adSize := ""
	if r.AdSize != nil {
		adSize = r.AdSize.String()
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs(bundle_id, bundle_name, primary_path, ad_size, summary, total_bytes, initial_bytes, subsequent_bytes, zipped_bytes, initial_requests, created_at) VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		r.BundleID, r.BundleName, nullIfEmpty(r.Primary), nullIfEmpty(adSize), string(r.Summary),
		r.TotalBytes, r.InitialBytes, r.SubsequentBytes, r.ZippedBytes, r.InitialRequests,
		r.GeneratedAt.UTC())
	if err != nil {
		return 0, err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, f := range r.Findings {
		var offenders []string
		for _, o := range f.Offenders {
			if o.Detail != "" {
				offenders = append(offenders, o.Path+": "+o.Detail)
			} else {
				offenders = append(offenders, o.Path)
			}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO findings(run_id, check_id, title, severity, messages, offenders) VALUES(?,?,?,?,?,?)`,
			runID, f.ID, f.Title, string(f.Severity),
			nullIfEmpty(strings.Join(f.Messages, "\n")),
			nullIfEmpty(strings.Join(offenders, "\n")))
		if err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// ListRuns returns stored runs matching the filters, newest first.
func (d *DB) ListRuns(ctx context.Context, opts ListOptions) ([]RunRecord, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if opts.BundleFilter != "" {
		where += " AND bundle_name LIKE ?"
		args = append(args, fmt.Sprintf("%%%s%%", opts.BundleFilter))
	}
	if opts.Severity != "" {
		where += " AND summary = ?"
		args = append(args, opts.Severity)
	}
	if !opts.Since.IsZero() {
		where += " AND created_at >= ?"
		args = append(args, opts.Since.UTC())
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	q := "SELECT id, bundle_id, bundle_name, primary_path, ad_size, summary, total_bytes, initial_bytes, subsequent_bytes, zipped_bytes, initial_requests, created_at FROM runs " + where + " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var primaryNS, adSizeNS sql.NullString
		var createdAtStr string
		if err := rows.Scan(&r.ID, &r.BundleID, &r.BundleName, &primaryNS, &adSizeNS, &r.Summary,
			&r.TotalBytes, &r.InitialBytes, &r.SubsequentBytes, &r.ZippedBytes,
			&r.InitialRequests, &createdAtStr); err != nil {
			return nil, err
		}
		r.Primary = primaryNS.String
		r.AdSize = adSizeNS.String
		r.CreatedAt = parseSQLiteTime(createdAtStr)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunFindings returns the findings stored for one run.
func (d *DB) RunFindings(ctx context.Context, runID int64) ([]FindingRecord, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT run_id, check_id, title, severity, messages, offenders FROM findings WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FindingRecord
	for rows.Next() {
		var f FindingRecord
		var messagesNS, offendersNS sql.NullString
		if err := rows.Scan(&f.RunID, &f.CheckID, &f.Title, &f.Severity, &messagesNS, &offendersNS); err != nil {
			return nil, err
		}
		f.Messages = messagesNS.String
		f.Offenders = offendersNS.String
		out = append(out, f)
	}
	return out, rows.Err()
}

// GetStats aggregates run counts per overall status.
func (d *DB) GetStats(ctx context.Context) ([]SummaryStats, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT summary, COUNT(*) FROM runs GROUP BY summary ORDER BY summary")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []SummaryStats
	for rows.Next() {
		var s SummaryStats
		if err := rows.Scan(&s.Summary, &s.RunCount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// parseSQLiteTime handles both CURRENT_TIMESTAMP and RFC3339 storage formats.
func parseSQLiteTime(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
