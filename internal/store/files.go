// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/content-engine/pkg/types"
)

const (
	draftExt   = ".json"
	maxSlugLen = 20
)

// Files writes one JSON record per draft under the drafts directory.
type Files struct {
	dir string
}

func NewFiles(dir string) *Files {
	return &Files{dir: dir}
}

// Save writes the draft record, overwriting any previous record of the
// same candidate from the same day. It returns the written path.
func (f *Files) Save(d *types.Draft) (string, error) {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating drafts directory: %w", err)
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling draft: %w", err)
	}

	path := filepath.Join(f.dir, fileName(d))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing draft: %w", err)
	}
	return path, nil
}

// Rewrite replaces an existing record file with the draft. Regeneration
// uses it to keep a reworked draft under its original file name even
// though the draft ID and creation date change.
func (f *Files) Rewrite(path string, d *types.Draft) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling draft: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing draft: %w", err)
	}
	return nil
}

// Record pairs a loaded draft with the file it came from.
type Record struct {
	Path  string
	Draft *types.Draft
}

// List loads every draft record in the directory, ordered by file name,
// which sorts by creation date. Malformed records are left out; Reindex
// reports them. A missing directory is an empty store, not an error.
func (f *Files) List() ([]Record, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading drafts directory: %w", err)
	}

	var records []Record
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), draftExt) {
			continue
		}
		path := filepath.Join(f.dir, e.Name())
		d, err := f.Load(path)
		if err != nil {
			continue
		}
		records = append(records, Record{Path: path, Draft: d})
	}
	return records, nil
}

// Load reads one draft record.
func (f *Files) Load(path string) (*types.Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading draft: %w", err)
	}
	var d types.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing draft %s: %w", filepath.Base(path), err)
	}
	return &d, nil
}

// fileName builds the record name from the creation date, content type,
// and a slug of the candidate identifier. The name is deterministic so a
// candidate generated twice in one day keeps a single record.
func fileName(d *types.Draft) string {
	slug := strings.ReplaceAll(d.Candidate.Identifier, "/", "_")
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	return fmt.Sprintf("%s_%s_%s%s",
		d.CreatedAt.Format("2006-01-02"), d.ContentType, slug, draftExt)
}
