// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/content-engine/pkg/types"
)

// QueryOptions holds parameters for archive queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string matched against the
	// draft title, summary, and body.
	Query string

	// Status filters by draft lifecycle state.
	Status types.DraftStatus

	// ContentType filters by editorial format.
	ContentType types.ContentType

	// Source filters by origin tag (pubmed, biorxiv, medrxiv,
	// clinical_trial).
	Source string

	// MaxResults limits result count. Zero uses the default of 20.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Status == "" && q.ContentType == "" && q.Source == ""
}

// QueryResult is one archived draft row.
type QueryResult struct {
	ID          string            `json:"id" yaml:"id"`
	Identifier  string            `json:"identifier" yaml:"identifier"`
	ContentType types.ContentType `json:"content_type" yaml:"content_type"`
	Status      types.DraftStatus `json:"status" yaml:"status"`
	SourceTag   string            `json:"source_tag" yaml:"source_tag"`
	Title       string            `json:"title" yaml:"title"`
	Summary     string            `json:"summary" yaml:"summary"`
	Confidence  float64           `json:"confidence" yaml:"confidence"`
	CreatedAt   time.Time         `json:"created_at" yaml:"created_at"`
	Path        string            `json:"path" yaml:"path"`
}

// Query searches the archive with optional full-text search and
// structured filters. Full-text results are ranked by relevance;
// structured-only queries return the newest drafts first.
func (a *Archive) Query(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT d.id, d.identifier, d.content_type, d.status, d.source_tag,
				d.title, d.summary, d.confidence, d.created_at, d.file
			FROM drafts_fts
			JOIN drafts d ON d.rowid = drafts_fts.rowid
			WHERE drafts_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT d.id, d.identifier, d.content_type, d.status, d.source_tag,
				d.title, d.summary, d.confidence, d.created_at, d.file
			FROM drafts d
			WHERE 1=1`)
	}

	if opts.Status != "" {
		qb.WriteString(` AND d.status = ?`)
		args = append(args, string(opts.Status))
	}

	if opts.ContentType != "" {
		qb.WriteString(` AND d.content_type = ?`)
		args = append(args, string(opts.ContentType))
	}

	if opts.Source != "" {
		qb.WriteString(` AND d.source_tag = ?`)
		args = append(args, opts.Source)
	}

	if useFTS {
		qb.WriteString(` ORDER BY drafts_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY d.created_at DESC`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := a.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr          QueryResult
			contentType string
			status      string
			createdAt   string
			file        string
		)

		if err := rows.Scan(
			&qr.ID, &qr.Identifier, &contentType, &status, &qr.SourceTag,
			&qr.Title, &qr.Summary, &qr.Confidence, &createdAt, &file,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		qr.ContentType = types.ContentType(contentType)
		qr.Status = types.DraftStatus(status)
		if createdAt != "" {
			qr.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		}
		qr.Path = filepath.Join(a.files.dir, file)

		results = append(results, qr)
	}

	return results, rows.Err()
}
