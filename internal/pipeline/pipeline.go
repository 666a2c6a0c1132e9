// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences candidates through generation and the
// fact-check loop until the ready target or the candidate cap is hit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/content-engine/internal/ai"
	"github.com/pdiddy/content-engine/pkg/types"
)

// timeNow is swapped in tests for deterministic durations.
var timeNow = time.Now

// sleep is swapped in tests to count cooldowns without waiting.
var sleep = sleepContext

// Generator is the generation stage, satisfied by generate.Generator.
type Generator interface {
	Generate(ctx context.Context, candidate types.Candidate) (*types.Draft, error)
}

// CheckLoop is the fact-check stage, satisfied by factcheck.Loop.
type CheckLoop interface {
	Run(ctx context.Context, draft *types.Draft) types.Verdict
}

// RunSummary aggregates one controller run for display and the archive.
type RunSummary struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Drafts    []*types.Draft
	Processed int
	Ready     int
	Skipped   int
	BySource  map[string]int
}

// NeedsRevision counts produced drafts that did not reach ready.
func (s RunSummary) NeedsRevision() int {
	return len(s.Drafts) - s.Ready
}

// Controller drives candidates one at a time. Generation failures skip
// the candidate but count against the cap, so a bad provider day cannot
// spin forever.
type Controller struct {
	gen  Generator
	loop CheckLoop
	cfg  types.RunConfig
	log  *zap.Logger
}

func New(gen Generator, loop CheckLoop, cfg types.RunConfig, log *zap.Logger) *Controller {
	return &Controller{gen: gen, loop: loop, cfg: cfg, log: log}
}

// Run processes candidates in order until ready drafts reach
// TargetReady or processed candidates reach MaxCandidates, cooling
// down between candidates while the target is unmet. Per-candidate
// progress goes to w. The returned error is non-nil only for fatal
// conditions: a missing provider registry or a cancelled context.
func (c *Controller) Run(ctx context.Context, candidates []types.Candidate, w io.Writer) (RunSummary, error) {
	start := timeNow()
	summary := RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: start.UTC(),
		BySource:  make(map[string]int),
	}

	target := c.cfg.TargetReady
	if target <= 0 {
		target = 5
	}
	maxCandidates := c.cfg.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = 15
	}

	c.log.Info("starting run",
		zap.String("run_id", summary.RunID),
		zap.Int("candidates", len(candidates)),
		zap.Int("target_ready", target),
		zap.Int("max_candidates", maxCandidates))

	for i, candidate := range candidates {
		if summary.Processed >= maxCandidates || summary.Ready >= target {
			break
		}
		summary.Processed++

		fmt.Fprintf(w, "generating (%d/%d): %s\n", summary.Ready+1, target, truncate(candidate.Title, 50))

		res := c.process(ctx, candidate)
		switch res.code {
		case codeFatal:
			summary.Duration = timeNow().Sub(start)
			return summary, res.err

		case codeSkip:
			fmt.Fprintf(w, "  skipped: %v\n", res.err)
			c.log.Warn("candidate skipped",
				zap.String("identifier", candidate.Identifier),
				zap.Error(res.err))
			summary.Skipped++

		case codeOK:
			summary.Drafts = append(summary.Drafts, res.draft)
			summary.BySource[res.draft.SourceTag]++
			if res.draft.Status == types.StatusReady {
				summary.Ready++
				fmt.Fprintf(w, "  ready for review\n")
			} else {
				fmt.Fprintf(w, "  needs revision\n")
			}
		}

		// Pause between candidates to stay inside provider rate
		// limits, but not when the run is about to stop anyway.
		if summary.Ready < target && summary.Processed < maxCandidates && i < len(candidates)-1 {
			if err := sleep(ctx, c.cfg.Cooldown); err != nil {
				summary.Duration = timeNow().Sub(start)
				return summary, err
			}
		}
	}

	summary.Duration = timeNow().Sub(start)
	fmt.Fprintf(w, "\nRun summary: %d processed, %d ready, %d need revision, %d skipped\n",
		summary.Processed, summary.Ready, summary.NeedsRevision(), summary.Skipped)
	c.log.Info("run complete",
		zap.String("run_id", summary.RunID),
		zap.Int("processed", summary.Processed),
		zap.Int("ready", summary.Ready),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("duration", summary.Duration))
	return summary, nil
}

// process runs one candidate through generation and the fact-check
// loop, classifying the outcome.
func (c *Controller) process(ctx context.Context, candidate types.Candidate) result {
	draft, err := c.gen.Generate(ctx, candidate)
	if err != nil {
		if errors.Is(err, ai.ErrNoProvider) || ctx.Err() != nil {
			return fatalResult(err)
		}
		return skipResult(err)
	}

	verdict := c.loop.Run(ctx, draft)
	c.log.Debug("candidate processed",
		zap.String("identifier", candidate.Identifier),
		zap.String("status", string(draft.Status)),
		zap.Float64("accuracy", verdict.Accuracy))
	return okResult(draft)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
