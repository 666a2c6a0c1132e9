package factcheck

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/pdiddy/content-engine/internal/ai"
	"github.com/pdiddy/content-engine/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- mocks ---

// scriptedProvider returns responses (or errors) in call order; the
// last entry repeats once the script runs out.
type scriptedProvider struct {
	name      string
	responses []string
	errs      []error
	calls     int
	requests  []ai.Request
}

func (s *scriptedProvider) Name() string { return s.name }

func (s *scriptedProvider) Generate(_ context.Context, req ai.Request) (string, error) {
	i := s.calls
	s.calls++
	s.requests = append(s.requests, req)
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if len(s.responses) == 0 {
		return "", errors.New("script exhausted")
	}
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return s.responses[i], nil
}

func checkableDraft() *types.Draft {
	return &types.Draft{
		ID: "d-1",
		Candidate: types.Candidate{
			Title:      "Rapamycin extends lifespan in aged mice",
			Abstract:   "Lifespan extended by 14 percent in treated cohorts.",
			Identifier: "10.1038/s43587-025-00001-1",
		},
		ContentType: types.ContentNewsletter,
		Title:       "쥐 수명 연장 연구",
		Body:        "라파마이신이 수명을 연장했다는 내용입니다.",
		Status:      types.StatusDraft,
	}
}

// --- Checker ---

func TestCheckVerdict(t *testing.T) {
	p := &scriptedProvider{name: "kimi", responses: []string{
		`{"accuracy_score":0.92,"issues":["수치 표현 확인 필요"],"suggestions":["정확한 수치 인용"],"safe_to_publish":true}`,
	}}
	c := NewChecker(p, zap.NewNop())

	verdict := c.Check(context.Background(), checkableDraft())

	if verdict.Accuracy != 0.92 {
		t.Errorf("Accuracy = %v, want 0.92", verdict.Accuracy)
	}
	if !verdict.Safe {
		t.Error("Safe = false, want true")
	}
	if len(verdict.Issues) != 1 || verdict.Issues[0] != "수치 표현 확인 필요" {
		t.Errorf("Issues = %v", verdict.Issues)
	}
	if len(verdict.Suggestions) != 1 {
		t.Errorf("Suggestions = %v", verdict.Suggestions)
	}
}

func TestCheckRequestShape(t *testing.T) {
	p := &scriptedProvider{name: "kimi", responses: []string{
		`{"accuracy_score":1,"issues":[],"suggestions":[],"safe_to_publish":true}`,
	}}
	c := NewChecker(p, zap.NewNop())
	draft := checkableDraft()

	c.Check(context.Background(), draft)

	if p.calls != 1 {
		t.Fatalf("calls = %d, want 1", p.calls)
	}
	req := p.requests[0]
	if req.System != "" {
		t.Error("fact check should not send a system prompt")
	}
	if req.Temperature != 0.3 {
		t.Errorf("Temperature = %v, want 0.3", req.Temperature)
	}
	if req.MaxTokens != 1024 {
		t.Errorf("MaxTokens = %d, want 1024", req.MaxTokens)
	}
	for _, want := range []string{
		"의학 논문 팩트체커",
		draft.Candidate.Title,
		draft.Candidate.Abstract,
		draft.Body,
		`"safe_to_publish"`,
	} {
		if !strings.Contains(req.Prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestCheckCallFailure(t *testing.T) {
	p := &scriptedProvider{name: "kimi", errs: []error{errors.New("connection refused")}}
	c := NewChecker(p, zap.NewNop())

	verdict := c.Check(context.Background(), checkableDraft())

	if verdict.Safe {
		t.Error("failed call must not be safe")
	}
	if verdict.Accuracy != 0 {
		t.Errorf("Accuracy = %v, want 0", verdict.Accuracy)
	}
	if len(verdict.Issues) != 1 || !strings.Contains(verdict.Issues[0], "fact check failed (kimi)") {
		t.Errorf("Issues = %v", verdict.Issues)
	}
}

func TestCheckMalformedReply(t *testing.T) {
	p := &scriptedProvider{name: "gemini", responses: []string{"죄송합니다, 검증할 수 없습니다."}}
	c := NewChecker(p, zap.NewNop())

	verdict := c.Check(context.Background(), checkableDraft())

	if verdict.Safe {
		t.Error("unparsed reply must not be safe")
	}
	if verdict.Accuracy != 0.7 {
		t.Errorf("Accuracy = %v, want 0.7", verdict.Accuracy)
	}
	if len(verdict.Issues) != 1 || verdict.Issues[0] != "JSON 파싱 실패 - 수동 검토 필요" {
		t.Errorf("Issues = %v", verdict.Issues)
	}
}
