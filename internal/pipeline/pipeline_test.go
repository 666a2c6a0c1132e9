package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/pdiddy/content-engine/internal/ai"
	"github.com/pdiddy/content-engine/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- mocks ---

type fakeGenerator struct {
	failFor map[string]error // identifier → forced generation error
	calls   []string
}

func (f *fakeGenerator) Generate(_ context.Context, c types.Candidate) (*types.Draft, error) {
	f.calls = append(f.calls, c.Identifier)
	if err, ok := f.failFor[c.Identifier]; ok {
		return nil, err
	}
	return &types.Draft{
		ID:        "draft-" + c.Identifier,
		Candidate: c,
		Status:    types.StatusDraft,
		SourceTag: c.SourceTag(),
	}, nil
}

type fakeLoop struct {
	unsafeFor map[string]bool // identifier → force needs_revision
	calls     int
}

func (f *fakeLoop) Run(_ context.Context, d *types.Draft) types.Verdict {
	f.calls++
	if f.unsafeFor[d.Candidate.Identifier] {
		d.Status = types.StatusNeedsRevision
		d.FactCheckIssues = []string{"수치 오류"}
		return types.Verdict{Accuracy: 0.4, Issues: d.FactCheckIssues}
	}
	d.Status = types.StatusReady
	return types.Verdict{Accuracy: 0.9, Safe: true}
}

func candidates(n int) []types.Candidate {
	out := make([]types.Candidate, n)
	for i := range out {
		out[i] = types.Candidate{
			Title:      fmt.Sprintf("Candidate %d", i),
			Identifier: fmt.Sprintf("10.1000/c%d", i),
			Categories: []string{"pubmed"},
		}
	}
	return out
}

// stubSleep replaces the cooldown with a counter for the test's
// lifetime.
func stubSleep(t *testing.T) *int {
	t.Helper()
	count := 0
	old := sleep
	sleep = func(context.Context, time.Duration) error {
		count++
		return nil
	}
	t.Cleanup(func() { sleep = old })
	return &count
}

func testController(gen Generator, loop CheckLoop, cfg types.RunConfig) *Controller {
	return New(gen, loop, cfg, zap.NewNop())
}

// --- Run ---

func TestRunStopsAtReadyTarget(t *testing.T) {
	stubSleep(t)
	gen := &fakeGenerator{}
	loop := &fakeLoop{}
	ctl := testController(gen, loop, types.RunConfig{TargetReady: 3, MaxCandidates: 15})

	summary, err := ctl.Run(context.Background(), candidates(10), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Processed != 3 {
		t.Errorf("Processed = %d, want 3", summary.Processed)
	}
	if summary.Ready != 3 {
		t.Errorf("Ready = %d, want 3", summary.Ready)
	}
	if len(summary.Drafts) != 3 {
		t.Errorf("Drafts = %d, want 3", len(summary.Drafts))
	}
	if len(gen.calls) != 3 {
		t.Errorf("generator calls = %d, want 3", len(gen.calls))
	}
}

func TestRunStopsAtCandidateCap(t *testing.T) {
	stubSleep(t)
	gen := &fakeGenerator{}
	loop := &fakeLoop{unsafeFor: map[string]bool{
		"10.1000/c0": true, "10.1000/c1": true, "10.1000/c2": true,
		"10.1000/c3": true, "10.1000/c4": true, "10.1000/c5": true,
	}}
	ctl := testController(gen, loop, types.RunConfig{TargetReady: 5, MaxCandidates: 4})

	summary, err := ctl.Run(context.Background(), candidates(10), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Processed != 4 {
		t.Errorf("Processed = %d, want 4", summary.Processed)
	}
	if summary.Ready != 0 {
		t.Errorf("Ready = %d, want 0", summary.Ready)
	}
	if summary.NeedsRevision() != 4 {
		t.Errorf("NeedsRevision = %d, want 4", summary.NeedsRevision())
	}
}

func TestRunSkipsGenerationFailures(t *testing.T) {
	stubSleep(t)
	gen := &fakeGenerator{failFor: map[string]error{
		"10.1000/c1": errors.New("both providers failed"),
	}}
	loop := &fakeLoop{}
	ctl := testController(gen, loop, types.RunConfig{TargetReady: 2, MaxCandidates: 15})

	var out bytes.Buffer
	summary, err := ctl.Run(context.Background(), candidates(3), &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Processed != 3 {
		t.Errorf("Processed = %d, want 3 (failure counts toward the cap)", summary.Processed)
	}
	if summary.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", summary.Skipped)
	}
	if summary.Ready != 2 {
		t.Errorf("Ready = %d, want 2", summary.Ready)
	}
	if loop.calls != 2 {
		t.Errorf("loop calls = %d, want 2 (no check for failed generation)", loop.calls)
	}
	if !strings.Contains(out.String(), "skipped: both providers failed") {
		t.Error("progress output should name the skip cause")
	}
}

func TestRunNoProviderIsFatal(t *testing.T) {
	stubSleep(t)
	gen := &fakeGenerator{failFor: map[string]error{
		"10.1000/c0": fmt.Errorf("generating: %w", ai.ErrNoProvider),
	}}
	ctl := testController(gen, &fakeLoop{}, types.RunConfig{TargetReady: 5, MaxCandidates: 15})

	summary, err := ctl.Run(context.Background(), candidates(3), &bytes.Buffer{})
	if !errors.Is(err, ai.ErrNoProvider) {
		t.Fatalf("err = %v, want ErrNoProvider", err)
	}
	if summary.Processed != 1 {
		t.Errorf("Processed = %d, want 1", summary.Processed)
	}
	if len(summary.Drafts) != 0 {
		t.Errorf("Drafts = %d, want 0", len(summary.Drafts))
	}
}

func TestRunCooldownBetweenCandidates(t *testing.T) {
	slept := stubSleep(t)
	gen := &fakeGenerator{}
	loop := &fakeLoop{unsafeFor: map[string]bool{
		"10.1000/c0": true, "10.1000/c1": true, "10.1000/c2": true,
	}}
	ctl := testController(gen, loop, types.RunConfig{TargetReady: 5, MaxCandidates: 15, Cooldown: 10 * time.Second})

	if _, err := ctl.Run(context.Background(), candidates(3), &bytes.Buffer{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if *slept != 2 {
		t.Errorf("cooldowns = %d, want 2 (none after the final candidate)", *slept)
	}
}

func TestRunCooldownSkippedOnceTargetMet(t *testing.T) {
	slept := stubSleep(t)
	gen := &fakeGenerator{}
	loop := &fakeLoop{}
	ctl := testController(gen, loop, types.RunConfig{TargetReady: 2, MaxCandidates: 15, Cooldown: 10 * time.Second})

	if _, err := ctl.Run(context.Background(), candidates(5), &bytes.Buffer{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if *slept != 1 {
		t.Errorf("cooldowns = %d, want 1 (no pause once the target is met)", *slept)
	}
}

func TestRunCancelledDuringCooldown(t *testing.T) {
	gen := &fakeGenerator{}
	loop := &fakeLoop{unsafeFor: map[string]bool{"10.1000/c0": true}}
	ctl := testController(gen, loop, types.RunConfig{TargetReady: 5, MaxCandidates: 15, Cooldown: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := ctl.Run(ctx, candidates(3), &bytes.Buffer{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(summary.Drafts) != 1 {
		t.Errorf("Drafts = %d, want the work done before cancellation", len(summary.Drafts))
	}
}

func TestRunSummaryFields(t *testing.T) {
	stubSleep(t)
	gen := &fakeGenerator{}
	loop := &fakeLoop{}
	ctl := testController(gen, loop, types.RunConfig{})

	cands := candidates(6)
	cands[0].Categories = []string{"clinical_trial", "Aging"}

	var out bytes.Buffer
	summary, err := ctl.Run(context.Background(), cands, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.RunID == "" {
		t.Error("RunID should be assigned")
	}
	if summary.StartedAt.IsZero() {
		t.Error("StartedAt should be set")
	}
	if summary.Ready != 5 {
		t.Errorf("Ready = %d, want default target 5", summary.Ready)
	}
	if summary.BySource["clinical_trial"] != 1 || summary.BySource["pubmed"] != 4 {
		t.Errorf("BySource = %v", summary.BySource)
	}
	if !strings.Contains(out.String(), "Run summary: 5 processed, 5 ready, 0 need revision, 0 skipped") {
		t.Errorf("output = %q", out.String())
	}
}

// --- sleepContext ---

func TestSleepContext(t *testing.T) {
	if err := sleepContext(context.Background(), 0); err != nil {
		t.Errorf("zero duration: %v", err)
	}
	if err := sleepContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("short sleep: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled sleep err = %v", err)
	}
}

func TestResultCodeString(t *testing.T) {
	tests := []struct {
		code resultCode
		want string
	}{
		{codeOK, "ok"},
		{codeSkip, "skip"},
		{codeFatal, "fatal"},
		{resultCode(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
