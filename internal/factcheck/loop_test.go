package factcheck

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/pdiddy/content-engine/pkg/types"
)

const (
	safeReply     = `{"accuracy_score":0.95,"issues":[],"suggestions":[],"safe_to_publish":true}`
	unsafeReply   = `{"accuracy_score":0.4,"issues":["수치 오류"],"suggestions":["정확한 수치 사용"],"safe_to_publish":false}`
	silentUnsafe  = `{"accuracy_score":0.4,"issues":[],"suggestions":[],"safe_to_publish":false}`
	revisionReply = `{"accuracy_score":0.9,"issues":[],"suggestions":[],"safe_to_publish":true}`
)

type fakeReviser struct {
	err      error
	calls    int
	received [][]string
}

func (f *fakeReviser) Revise(_ context.Context, draft *types.Draft, issues []string) error {
	f.calls++
	f.received = append(f.received, issues)
	if f.err != nil {
		return f.err
	}
	draft.Body = draft.Body + " (수정됨)"
	return nil
}

func testLoop(provider *scriptedProvider, reviser *fakeReviser, maxRevisions int) *Loop {
	cfg := types.FactCheckConfig{MaxRevisions: maxRevisions, MaxIssues: 8}
	return NewLoop(NewChecker(provider, zap.NewNop()), reviser, cfg, zap.NewNop())
}

func TestLoopReadyOnFirstPass(t *testing.T) {
	p := &scriptedProvider{name: "kimi", responses: []string{safeReply}}
	r := &fakeReviser{}
	draft := checkableDraft()

	verdict := testLoop(p, r, 2).Run(context.Background(), draft)

	if draft.Status != types.StatusReady {
		t.Errorf("Status = %q, want ready_for_review", draft.Status)
	}
	if p.calls != 1 {
		t.Errorf("checks = %d, want 1", p.calls)
	}
	if r.calls != 0 {
		t.Errorf("revisions = %d, want 0", r.calls)
	}
	if verdict.Accuracy != 0.95 {
		t.Errorf("Accuracy = %v, want 0.95", verdict.Accuracy)
	}
	if len(draft.FactCheckIssues) != 0 {
		t.Errorf("FactCheckIssues = %v, want empty", draft.FactCheckIssues)
	}
}

func TestLoopReviseThenReady(t *testing.T) {
	p := &scriptedProvider{name: "kimi", responses: []string{unsafeReply, revisionReply}}
	r := &fakeReviser{}
	draft := checkableDraft()

	testLoop(p, r, 2).Run(context.Background(), draft)

	if draft.Status != types.StatusReady {
		t.Errorf("Status = %q, want ready_for_review", draft.Status)
	}
	if p.calls != 2 {
		t.Errorf("checks = %d, want 2", p.calls)
	}
	if r.calls != 1 {
		t.Fatalf("revisions = %d, want 1", r.calls)
	}
	if len(r.received[0]) != 1 || r.received[0][0] != "수치 오류" {
		t.Errorf("revision issues = %v", r.received[0])
	}
	if !strings.HasSuffix(draft.Body, "(수정됨)") {
		t.Error("revision should have rewritten the body")
	}
	if len(draft.FactCheckIssues) != 0 {
		t.Errorf("FactCheckIssues = %v, want the final verdict's empty list", draft.FactCheckIssues)
	}
}

func TestLoopExhaustsRevisionBudget(t *testing.T) {
	p := &scriptedProvider{name: "kimi", responses: []string{unsafeReply}}
	r := &fakeReviser{}
	draft := checkableDraft()

	testLoop(p, r, 2).Run(context.Background(), draft)

	if draft.Status != types.StatusNeedsRevision {
		t.Errorf("Status = %q, want needs_revision", draft.Status)
	}
	if p.calls != 3 {
		t.Errorf("checks = %d, want MaxRevisions+1 = 3", p.calls)
	}
	if r.calls != 2 {
		t.Errorf("revisions = %d, want 2", r.calls)
	}
	if len(draft.FactCheckIssues) != 1 || draft.FactCheckIssues[0] != "수치 오류" {
		t.Errorf("FactCheckIssues = %v", draft.FactCheckIssues)
	}
}

func TestLoopRevisionFailureStops(t *testing.T) {
	p := &scriptedProvider{name: "kimi", responses: []string{unsafeReply}}
	r := &fakeReviser{err: errors.New("provider down")}
	draft := checkableDraft()

	testLoop(p, r, 2).Run(context.Background(), draft)

	if draft.Status != types.StatusNeedsRevision {
		t.Errorf("Status = %q, want needs_revision", draft.Status)
	}
	if p.calls != 1 {
		t.Errorf("checks = %d, want 1", p.calls)
	}
	if r.calls != 1 {
		t.Errorf("revisions = %d, want 1", r.calls)
	}
}

func TestLoopUnsafeWithoutIssuesSkipsRevision(t *testing.T) {
	p := &scriptedProvider{name: "kimi", responses: []string{silentUnsafe}}
	r := &fakeReviser{}
	draft := checkableDraft()

	testLoop(p, r, 2).Run(context.Background(), draft)

	if draft.Status != types.StatusNeedsRevision {
		t.Errorf("Status = %q, want needs_revision", draft.Status)
	}
	if r.calls != 0 {
		t.Errorf("revisions = %d, want 0 when the verdict carries no issues", r.calls)
	}
}

func TestLoopZeroBudget(t *testing.T) {
	p := &scriptedProvider{name: "kimi", responses: []string{unsafeReply}}
	r := &fakeReviser{}
	draft := checkableDraft()

	testLoop(p, r, 0).Run(context.Background(), draft)

	if draft.Status != types.StatusNeedsRevision {
		t.Errorf("Status = %q, want needs_revision", draft.Status)
	}
	if p.calls != 1 || r.calls != 0 {
		t.Errorf("calls = %d/%d, want 1/0", p.calls, r.calls)
	}
}

func TestLoopCheckFailureTriggersRevision(t *testing.T) {
	// A failed check downgrades to an unsafe verdict with a synthetic
	// issue, which still counts as revisable.
	callErr := errors.New("connection refused")
	p := &scriptedProvider{name: "kimi", errs: []error{callErr, callErr, callErr}}
	r := &fakeReviser{}
	draft := checkableDraft()

	testLoop(p, r, 2).Run(context.Background(), draft)

	if draft.Status != types.StatusNeedsRevision {
		t.Errorf("Status = %q, want needs_revision", draft.Status)
	}
	if p.calls != 3 {
		t.Errorf("checks = %d, want 3", p.calls)
	}
	if r.calls != 2 {
		t.Errorf("revisions = %d, want 2", r.calls)
	}
	if len(draft.FactCheckIssues) != 1 || !strings.Contains(draft.FactCheckIssues[0], "fact check failed") {
		t.Errorf("FactCheckIssues = %v", draft.FactCheckIssues)
	}
}
