// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discover finds publication candidates across PubMed, the
// bioRxiv and medRxiv preprint servers, and the ClinicalTrials.gov
// registry, then scores and selects the batch handed to generation.
package discover

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/content-engine/pkg/types"
)

// timeNow is swapped out by tests that pin the discovery window.
var timeNow = time.Now

// maxConcurrentFetches caps the adapter fan-out per discovery run.
const maxConcurrentFetches = 8

// DateWindow restricts a source query to publications dated within it.
// A zero window means the source's default range.
type DateWindow struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether the window carries no bounds.
func (w DateWindow) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// WindowDays returns the window covering the past n days up to now.
func WindowDays(n int) DateWindow {
	now := timeNow().UTC()
	return DateWindow{From: now.AddDate(0, 0, -n), To: now}
}

// Adapter fetches candidates for one query from one source. Adapters do
// not report errors: a failed or empty fetch surfaces as an empty result
// so one flaky source never sinks the whole batch.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, query string, maxResults int, window DateWindow) []types.Candidate
}

// FetchTask pairs a query with the adapter that should run it.
type FetchTask struct {
	Query      string
	Adapter    Adapter
	MaxResults int
	Window     DateWindow
}

// GatherOutput is the merged, deduplicated result of a task batch.
type GatherOutput struct {
	Candidates  []types.Candidate
	DupsRemoved int
}

// Gather runs the tasks concurrently and merges their results in task
// order. Candidates sharing a dedup key keep only the first occurrence;
// candidates with an empty key are dropped.
func Gather(ctx context.Context, tasks []FetchTask) GatherOutput {
	results := make([][]types.Candidate, len(tasks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, task := range tasks {
		g.Go(func() error {
			results[i] = task.Adapter.Fetch(ctx, task.Query, task.MaxResults, task.Window)
			return nil
		})
	}
	// Adapters never return errors; Wait is purely the join barrier.
	_ = g.Wait()

	var out GatherOutput
	seen := make(map[string]bool)
	for _, batch := range results {
		for _, c := range batch {
			key := c.DedupKey()
			if key == "" {
				continue
			}
			if seen[key] {
				out.DupsRemoved++
				continue
			}
			seen[key] = true
			out.Candidates = append(out.Candidates, c)
		}
	}
	return out
}

// Discovery wires the configured adapters into a reusable batch runner.
type Discovery struct {
	PubMed  Adapter
	BioRxiv Adapter
	MedRxiv Adapter
	Trials  Adapter

	cfg types.Config
	log *zap.Logger
}

// New builds a Discovery with live adapters sharing one HTTP client and
// one pacer.
func New(cfg types.Config, log *zap.Logger) *Discovery {
	client := &http.Client{Timeout: cfg.Sources.Timeout}
	pacer := NewPacer(cfg.Sources.RequestsPerSecond)
	ua := cfg.Sources.UserAgent

	return &Discovery{
		PubMed:  &PubMedAdapter{Client: client, UserAgent: ua, Pacer: pacer, Log: log},
		BioRxiv: &PreprintAdapter{Server: types.CategoryBioRxiv, Client: client, UserAgent: ua, Pacer: pacer, Log: log},
		MedRxiv: &PreprintAdapter{Server: types.CategoryMedRxiv, Client: client, UserAgent: ua, Pacer: pacer, Log: log},
		Trials:  &TrialsAdapter{Client: client, UserAgent: ua, Pacer: pacer, Log: log},
		cfg:     cfg,
		log:     log,
	}
}

// Batch expands the configured keyword lists into the task fan-out for
// one discovery run. Paper sources take the leading research keywords,
// the trial registry its own list, each capped by the query limits.
func (d *Discovery) Batch() []FetchTask {
	src := d.cfg.Sources
	paperWindow := WindowDays(src.PubMedWindowDays)
	preprintWindow := WindowDays(src.PreprintWindowDays)

	keywords := head(d.cfg.Scoring.Keywords, d.cfg.Scoring.QueryKeywords)
	trialKeywords := head(d.cfg.Scoring.TrialKeywords, d.cfg.Scoring.TrialQueryKeywords)

	var tasks []FetchTask
	for _, kw := range keywords {
		tasks = append(tasks, FetchTask{Query: kw, Adapter: d.PubMed, MaxResults: src.PubMedMax, Window: paperWindow})
		if src.EnablePreprints {
			tasks = append(tasks,
				FetchTask{Query: kw, Adapter: d.BioRxiv, MaxResults: src.PreprintMax, Window: preprintWindow},
				FetchTask{Query: kw, Adapter: d.MedRxiv, MaxResults: src.PreprintMax, Window: preprintWindow},
			)
		}
	}
	if src.EnableTrials {
		for _, kw := range trialKeywords {
			tasks = append(tasks, FetchTask{Query: kw, Adapter: d.Trials, MaxResults: src.TrialsMax})
		}
	}
	return tasks
}

// head returns the first n entries, or the whole list when n is
// non-positive or exceeds its length.
func head(list []string, n int) []string {
	if n <= 0 || n >= len(list) {
		return list
	}
	return list[:n]
}

// Output is the result of one full discovery run.
type Output struct {
	Selected    []types.Candidate
	TotalUnique int
	DupsRemoved int
	BySource    map[string]int
}

// Run executes the full discovery pass: fan out the batch, merge and
// dedup, score, and select the final slate.
func (d *Discovery) Run(ctx context.Context) Output {
	tasks := d.Batch()
	d.log.Info("gathering candidates",
		zap.Int("tasks", len(tasks)),
		zap.Bool("preprints", d.cfg.Sources.EnablePreprints),
		zap.Bool("trials", d.cfg.Sources.EnableTrials))

	gathered := Gather(ctx, tasks)
	ScoreAll(gathered.Candidates, d.cfg.Scoring.Keywords, d.cfg.Scoring.Venues)
	selected := Select(gathered.Candidates)

	bySource := make(map[string]int)
	for _, c := range selected {
		bySource[c.SourceTag()]++
	}

	d.log.Info("discovery complete",
		zap.Int("unique", len(gathered.Candidates)),
		zap.Int("duplicates", gathered.DupsRemoved),
		zap.Int("selected", len(selected)))

	return Output{
		Selected:    selected,
		TotalUnique: len(gathered.Candidates),
		DupsRemoved: gathered.DupsRemoved,
		BySource:    bySource,
	}
}
