// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/content-engine/pkg/types"
)

// Manifest is the on-disk record of a discovery run. A slate can be
// saved to a file and fed back into the pipeline later without
// re-querying the source APIs.
type Manifest struct {
	Sources    ManifestSources   `yaml:"sources"`
	Candidates []types.Candidate `yaml:"candidates"`
	Summary    ManifestSummary   `yaml:"summary"`
}

// ManifestSources records the query configuration that produced the
// slate.
type ManifestSources struct {
	Keywords           []string `yaml:"keywords,omitempty"`
	TrialKeywords      []string `yaml:"trial_keywords,omitempty"`
	Preprints          bool     `yaml:"preprints"`
	Trials             bool     `yaml:"trials"`
	PubMedWindowDays   int      `yaml:"pubmed_window_days"`
	PreprintWindowDays int      `yaml:"preprint_window_days"`
}

// ManifestSummary stores slate statistics and a timestamp.
type ManifestSummary struct {
	Selected          int            `yaml:"selected"`
	TotalUnique       int            `yaml:"total_unique"`
	DuplicatesRemoved int            `yaml:"duplicates_removed"`
	BySource          map[string]int `yaml:"by_source,omitempty"`
	Timestamp         time.Time      `yaml:"timestamp"`
}

// WriteManifest saves the discovery output and its query configuration
// to a YAML file.
func WriteManifest(path string, cfg types.Config, out Output) error {
	m := Manifest{
		Sources: ManifestSources{
			Keywords:           head(cfg.Scoring.Keywords, cfg.Scoring.QueryKeywords),
			TrialKeywords:      head(cfg.Scoring.TrialKeywords, cfg.Scoring.TrialQueryKeywords),
			Preprints:          cfg.Sources.EnablePreprints,
			Trials:             cfg.Sources.EnableTrials,
			PubMedWindowDays:   cfg.Sources.PubMedWindowDays,
			PreprintWindowDays: cfg.Sources.PreprintWindowDays,
		},
		Candidates: out.Selected,
		Summary: ManifestSummary{
			Selected:          len(out.Selected),
			TotalUnique:       out.TotalUnique,
			DuplicatesRemoved: out.DupsRemoved,
			BySource:          out.BySource,
			Timestamp:         time.Now(),
		},
	}
	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadManifest loads a previously saved discovery manifest from disk.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// Output converts the stored slate back into discovery output.
func (m *Manifest) Output() Output {
	return Output{
		Selected:    m.Candidates,
		TotalUnique: m.Summary.TotalUnique,
		DupsRemoved: m.Summary.DuplicatesRemoved,
		BySource:    m.Summary.BySource,
	}
}
