// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists finished drafts as JSON records and maintains a
// searchable SQLite index over them, plus a table of past run summaries.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/content-engine/pkg/types"
)

const (
	dbFile            = "archive.db"
	defaultMaxResults = 20
)

// Archive manages the archive SQLite database.
type Archive struct {
	db    *sql.DB
	files *Files
}

// NewArchive opens or creates the archive database at
// ArchiveDir/archive.db. It creates the schema if it does not exist.
func NewArchive(cfg types.StoreConfig) (*Archive, error) {
	if err := os.MkdirAll(cfg.ArchiveDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(cfg.ArchiveDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening archive database: %w", err)
	}

	a := &Archive{db: db, files: NewFiles(cfg.DraftsDir)}
	if err := a.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return a, nil
}

// Close releases the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS drafts (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			identifier TEXT,
			content_type TEXT NOT NULL,
			status TEXT NOT NULL,
			source_tag TEXT,
			title TEXT,
			summary TEXT,
			body TEXT,
			confidence REAL,
			issues TEXT,
			created_at TEXT,
			file TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_drafts_status ON drafts(status)`,
		`CREATE INDEX IF NOT EXISTS idx_drafts_source ON drafts(source_tag)`,
		`CREATE TABLE IF NOT EXISTS reindex_status (
			file TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT,
			duration_ms INTEGER,
			processed INTEGER,
			ready INTEGER,
			needs_revision INTEGER,
			skipped INTEGER
		)`,
	}

	for _, stmt := range statements {
		if _, err := a.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := a.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='drafts_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE drafts_fts USING fts5(title, summary, body, content=drafts, content_rowid=rowid)`,
			`CREATE TRIGGER drafts_ai AFTER INSERT ON drafts BEGIN
				INSERT INTO drafts_fts(rowid, title, summary, body)
				VALUES (new.rowid, new.title, new.summary, new.body);
			END`,
			`CREATE TRIGGER drafts_ad AFTER DELETE ON drafts BEGIN
				INSERT INTO drafts_fts(drafts_fts, rowid, title, summary, body)
				VALUES('delete', old.rowid, old.title, old.summary, old.body);
			END`,
			`CREATE TRIGGER drafts_au AFTER UPDATE ON drafts BEGIN
				INSERT INTO drafts_fts(drafts_fts, rowid, title, summary, body)
				VALUES('delete', old.rowid, old.title, old.summary, old.body);
				INSERT INTO drafts_fts(rowid, title, summary, body)
				VALUES (new.rowid, new.title, new.summary, new.body);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := a.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// ReindexSummary holds counts from an archive reindex pass.
type ReindexSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of records considered.
func (s ReindexSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Reindex scans the drafts directory and brings the index up to date.
// It detects new, changed, and unchanged records by modification time,
// so repeated passes over a large archive stay cheap.
func (a *Archive) Reindex(ctx context.Context, w io.Writer) (ReindexSummary, error) {
	entries, err := os.ReadDir(a.files.dir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(w, "no drafts directory at %s\n", a.files.dir)
			return ReindexSummary{}, nil
		}
		return ReindexSummary{}, fmt.Errorf("reading drafts directory %s: %w", a.files.dir, err)
	}

	var summary ReindexSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), draftExt) {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		name := entry.Name()

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		// Check whether the record has changed since last indexing.
		var storedModTime string
		err = a.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM reindex_status WHERE file = ?`, name,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", name)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		d, err := a.files.Load(filepath.Join(a.files.dir, name))
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		if err := a.indexDraft(ctx, d, name, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s\n", name)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed %s\n", name)
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (a *Archive) indexDraft(ctx context.Context, d *types.Draft, file, modTime string) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// A regenerated record can carry a fresh draft ID under the same
	// file name; drop the stale row so the file maps to one draft.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM drafts WHERE file = ? AND id <> ?`, file, d.ID,
	); err != nil {
		return fmt.Errorf("removing stale rows: %w", err)
	}

	issuesJSON, _ := json.Marshal(d.FactCheckIssues)
	createdAt := ""
	if !d.CreatedAt.IsZero() {
		createdAt = d.CreatedAt.Format(time.RFC3339)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO drafts (id, identifier, content_type, status, source_tag,
			title, summary, body, confidence, issues, created_at, file)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			identifier=excluded.identifier, content_type=excluded.content_type,
			status=excluded.status, source_tag=excluded.source_tag,
			title=excluded.title, summary=excluded.summary, body=excluded.body,
			confidence=excluded.confidence, issues=excluded.issues,
			created_at=excluded.created_at, file=excluded.file`,
		d.ID, d.Candidate.Identifier, string(d.ContentType), string(d.Status), d.SourceTag,
		d.Title, d.Summary, d.Body, d.Confidence, string(issuesJSON), createdAt, file,
	)
	if err != nil {
		return fmt.Errorf("upserting draft: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reindex_status (file, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(file) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		file, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating reindex status: %w", err)
	}

	return tx.Commit()
}

// RunRecord is one pipeline run summary as stored in the archive.
type RunRecord struct {
	ID            string        `json:"id" yaml:"id"`
	StartedAt     time.Time     `json:"started_at" yaml:"started_at"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
	Processed     int           `json:"processed" yaml:"processed"`
	Ready         int           `json:"ready" yaml:"ready"`
	NeedsRevision int           `json:"needs_revision" yaml:"needs_revision"`
	Skipped       int           `json:"skipped" yaml:"skipped"`
}

// RecordRun stores one run summary.
func (a *Archive) RecordRun(ctx context.Context, rec RunRecord) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (id, started_at, duration_ms, processed, ready, needs_revision, skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.StartedAt.UTC().Format(time.RFC3339), rec.Duration.Milliseconds(),
		rec.Processed, rec.Ready, rec.NeedsRevision, rec.Skipped,
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// Runs returns stored run summaries, newest first.
func (a *Archive) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = defaultMaxResults
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT id, started_at, duration_ms, processed, ready, needs_revision, skipped
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			rec        RunRecord
			startedAt  string
			durationMS int64
		)
		if err := rows.Scan(&rec.ID, &startedAt, &durationMS,
			&rec.Processed, &rec.Ready, &rec.NeedsRevision, &rec.Skipped); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, rec)
	}

	return records, rows.Err()
}
