// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package factcheck

import (
	"context"

	"go.uber.org/zap"

	"github.com/pdiddy/content-engine/pkg/types"
)

// loopState is one position in the check-and-revise cycle.
type loopState int

const (
	stateChecking loopState = iota
	stateRevising
	stateReady
	stateNeedsRevision
)

// Reviser is the revision half of the loop, satisfied by
// generate.Generator.
type Reviser interface {
	Revise(ctx context.Context, draft *types.Draft, issues []string) error
}

// Loop drives one draft to a terminal status through at most
// MaxRevisions revision attempts. Fact-check calls per draft never
// exceed MaxRevisions+1.
type Loop struct {
	checker      *Checker
	reviser      Reviser
	maxRevisions int
	log          *zap.Logger
}

func NewLoop(checker *Checker, reviser Reviser, cfg types.FactCheckConfig, log *zap.Logger) *Loop {
	maxRevisions := cfg.MaxRevisions
	if maxRevisions < 0 {
		maxRevisions = 0
	}
	return &Loop{checker: checker, reviser: reviser, maxRevisions: maxRevisions, log: log}
}

// Run checks and revises the draft until it is safe, the revision
// budget runs out, or a revision fails. The draft leaves with status
// ready_for_review or needs_revision and carries the latest verdict's
// issues; the final verdict is returned.
func (l *Loop) Run(ctx context.Context, draft *types.Draft) types.Verdict {
	state := stateChecking
	attempts := 0
	var verdict types.Verdict

	for {
		switch state {
		case stateChecking:
			verdict = l.checker.Check(ctx, draft)
			draft.FactCheckIssues = verdict.Issues
			switch {
			case verdict.Safe:
				state = stateReady
			case attempts < l.maxRevisions && len(verdict.Issues) > 0:
				state = stateRevising
			default:
				state = stateNeedsRevision
			}

		case stateRevising:
			attempts++
			l.log.Info("auto-revising draft",
				zap.String("draft_id", draft.ID),
				zap.Int("attempt", attempts),
				zap.Int("budget", l.maxRevisions))
			if err := l.reviser.Revise(ctx, draft, verdict.Issues); err != nil {
				l.log.Warn("revision failed",
					zap.String("draft_id", draft.ID),
					zap.Error(err))
				state = stateNeedsRevision
				break
			}
			state = stateChecking

		case stateReady:
			draft.Status = types.StatusReady
			l.log.Info("draft ready for review",
				zap.String("draft_id", draft.ID),
				zap.Float64("accuracy", verdict.Accuracy))
			return verdict

		case stateNeedsRevision:
			draft.Status = types.StatusNeedsRevision
			l.log.Info("draft needs manual revision",
				zap.String("draft_id", draft.ID),
				zap.Int("issues", len(draft.FactCheckIssues)))
			return verdict
		}
	}
}
