package generate

import (
	"context"
	"errors"
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

// fakeProvider returns a fixed response or error and records requests.
type fakeProvider struct {
	name     string
	response string
	err      error
	calls    int
	requests []ai.Request
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(_ context.Context, req ai.Request) (string, error) {
	f.calls++
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeRegistry struct {
	providers  []ai.Provider
	primaryErr error
}

func (f *fakeRegistry) Primary() (ai.Provider, error) {
	if f.primaryErr != nil {
		return nil, f.primaryErr
	}
	return f.providers[0], nil
}

func (f *fakeRegistry) Fallback(failed string) ai.Provider {
	for _, p := range f.providers {
		if p.Name() != failed {
			return p
		}
	}
	return nil
}

const goodReply = `{"title":"쥐 수명 연장 연구","summary":"라파마이신 연구 요약입니다.","body":"본문입니다.","key_insights":["하나","둘","셋"],"practical_applications":["적용1"],"confidence":0.8}`

func testGenerator(providers ...ai.Provider) *Generator {
	reg := &fakeRegistry{providers: providers}
	return New(reg, types.DefaultConfig(), zap.NewNop())
}

func testCandidate() types.Candidate {
	return types.Candidate{
		Title:      "Rapamycin extends lifespan in aged mice",
		Authors:    []string{"Kim Minsoo", "Lee Jiwon"},
		Abstract:   "Background on mTOR inhibition. Lifespan extended by 14 percent.",
		Venue:      "Nature Aging",
		Identifier: "10.1038/s43587-025-00001-1",
		Date:       time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Categories: []string{"pubmed"},
	}
}

// --- Generate ---

func TestGenerateBuildsDraft(t *testing.T) {
	fixed := time.Date(2026, 8, 23, 9, 30, 0, 0, time.UTC)
	oldNow := timeNow
	timeNow = func() time.Time { return fixed }
	defer func() { timeNow = oldNow }()

	p := &fakeProvider{name: "kimi", response: goodReply}
	g := testGenerator(p)
	candidate := testCandidate()

	draft, err := g.Generate(context.Background(), candidate)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if draft.ID == "" {
		t.Error("draft ID should be assigned")
	}
	if draft.ContentType != types.ContentNewsletter {
		t.Errorf("ContentType = %q, want newsletter", draft.ContentType)
	}
	if draft.Title != "쥐 수명 연장 연구" {
		t.Errorf("Title = %q", draft.Title)
	}
	if draft.Summary != "라파마이신 연구 요약입니다." {
		t.Errorf("Summary = %q", draft.Summary)
	}
	if draft.Body != "본문입니다." {
		t.Errorf("Body = %q", draft.Body)
	}
	if len(draft.KeyInsights) != 3 {
		t.Errorf("KeyInsights len = %d, want 3", len(draft.KeyInsights))
	}
	if len(draft.Applications) != 1 {
		t.Errorf("Applications len = %d, want 1", len(draft.Applications))
	}
	if draft.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", draft.Confidence)
	}
	if draft.Status != types.StatusDraft {
		t.Errorf("Status = %q, want draft", draft.Status)
	}
	if draft.SourceTag != "pubmed" {
		t.Errorf("SourceTag = %q, want pubmed", draft.SourceTag)
	}
	if !draft.CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", draft.CreatedAt, fixed)
	}
	if draft.Candidate.Title != candidate.Title {
		t.Errorf("Candidate.Title = %q", draft.Candidate.Title)
	}

	if len(draft.Citations) != 1 {
		t.Fatalf("Citations len = %d, want 1", len(draft.Citations))
	}
	cite := draft.Citations[0]
	if cite.Identifier != candidate.Identifier || cite.Title != candidate.Title || cite.Venue != candidate.Venue {
		t.Errorf("Citation = %+v", cite)
	}
}

func TestGenerateRequestShape(t *testing.T) {
	p := &fakeProvider{name: "kimi", response: goodReply}
	g := testGenerator(p)

	if _, err := g.Generate(context.Background(), testCandidate()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if p.calls != 1 {
		t.Fatalf("calls = %d, want 1", p.calls)
	}

	req := p.requests[0]
	if req.MaxTokens != 2048 {
		t.Errorf("MaxTokens = %d, want 2048", req.MaxTokens)
	}
	if req.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", req.Temperature)
	}
	if !strings.Contains(req.System, "브라운바이오텍") {
		t.Error("system prompt should carry the voice name")
	}
	for _, want := range []string{
		"newsletter 콘텐츠를 작성해주세요",
		"Rapamycin extends lifespan in aged mice",
		"Kim Minsoo, Lee Jiwon",
		"Nature Aging",
		"2026-08-01",
		"뉴스레터 형식",
		"안녕하세요, 브라운바이오텍입니다.",
		"한국어로 작성",
		`"practical_applications"`,
	} {
		if !strings.Contains(req.Prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerateDefaultsConfidence(t *testing.T) {
	p := &fakeProvider{name: "kimi", response: `{"title":"t","summary":"s","body":"b"}`}
	g := testGenerator(p)

	draft, err := g.Generate(context.Background(), testCandidate())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if draft.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want default 0.5", draft.Confidence)
	}
}

func TestGenerateClampsConfidence(t *testing.T) {
	p := &fakeProvider{name: "kimi", response: `{"body":"b","confidence":1.7}`}
	g := testGenerator(p)

	draft, err := g.Generate(context.Background(), testCandidate())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if draft.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want clamped 1.0", draft.Confidence)
	}
}

func TestGenerateCapsLists(t *testing.T) {
	p := &fakeProvider{name: "kimi", response: `{"body":"b","key_insights":["1","2","3","4","5"],"practical_applications":["1","2","3","4"]}`}
	g := testGenerator(p)

	draft, err := g.Generate(context.Background(), testCandidate())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(draft.KeyInsights) != 3 {
		t.Errorf("KeyInsights len = %d, want 3", len(draft.KeyInsights))
	}
	if len(draft.Applications) != 3 {
		t.Errorf("Applications len = %d, want 3", len(draft.Applications))
	}
}

func TestGenerateUnknownContentTypeFallsBack(t *testing.T) {
	p := &fakeProvider{name: "kimi", response: goodReply}
	reg := &fakeRegistry{providers: []ai.Provider{p}}
	cfg := types.DefaultConfig()
	cfg.Generation.ContentType = "podcast"
	g := New(reg, cfg, zap.NewNop())

	draft, err := g.Generate(context.Background(), testCandidate())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if draft.ContentType != types.ContentType("podcast") {
		t.Errorf("ContentType = %q, want podcast preserved", draft.ContentType)
	}
	if !strings.Contains(p.requests[0].Prompt, "뉴스레터 형식") {
		t.Error("unknown content type should render the newsletter format block")
	}
}

// --- fallback policy ---

func TestGenerateFallsBackOnCallError(t *testing.T) {
	primary := &fakeProvider{name: "kimi", err: errors.New("rate limited")}
	fallback := &fakeProvider{name: "gemini", response: goodReply}
	g := testGenerator(primary, fallback)

	draft, err := g.Generate(context.Background(), testCandidate())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if draft.Title != "쥐 수명 연장 연구" {
		t.Errorf("Title = %q", draft.Title)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", primary.calls, fallback.calls)
	}
}

func TestGenerateFallsBackOnMalformedReply(t *testing.T) {
	primary := &fakeProvider{name: "kimi", response: "죄송합니다, JSON을 생성할 수 없습니다."}
	fallback := &fakeProvider{name: "gemini", response: goodReply}
	g := testGenerator(primary, fallback)

	draft, err := g.Generate(context.Background(), testCandidate())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if draft.Body != "본문입니다." {
		t.Errorf("Body = %q", draft.Body)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", primary.calls, fallback.calls)
	}
}

func TestGenerateSecondFailureReturnsError(t *testing.T) {
	primary := &fakeProvider{name: "kimi", err: errors.New("down")}
	fallback := &fakeProvider{name: "gemini", err: errors.New("also down")}
	g := testGenerator(primary, fallback)

	_, err := g.Generate(context.Background(), testCandidate())
	if err == nil {
		t.Fatal("expected error when both providers fail")
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Errorf("calls = %d/%d, want exactly one attempt each", primary.calls, fallback.calls)
	}
}

func TestGenerateNoFallbackAvailable(t *testing.T) {
	primary := &fakeProvider{name: "kimi", err: errors.New("down")}
	g := testGenerator(primary)

	_, err := g.Generate(context.Background(), testCandidate())
	if err == nil {
		t.Fatal("expected error")
	}
	if primary.calls != 1 {
		t.Errorf("calls = %d, want 1", primary.calls)
	}
}

func TestGenerateNoProvider(t *testing.T) {
	reg := &fakeRegistry{primaryErr: ai.ErrNoProvider}
	g := New(reg, types.DefaultConfig(), zap.NewNop())

	_, err := g.Generate(context.Background(), testCandidate())
	if !errors.Is(err, ai.ErrNoProvider) {
		t.Errorf("err = %v, want ErrNoProvider", err)
	}
}

// --- Revise ---

func revisableDraft() *types.Draft {
	return &types.Draft{
		ID:           "d-1",
		Candidate:    testCandidate(),
		ContentType:  types.ContentNewsletter,
		Title:        "기존 제목",
		Summary:      "기존 요약",
		Body:         "기존 본문",
		KeyInsights:  []string{"기존 인사이트"},
		Applications: []string{"기존 적용"},
		Confidence:   0.6,
		Status:       types.StatusDraft,
	}
}

func TestReviseAppliesReturnedFields(t *testing.T) {
	p := &fakeProvider{name: "kimi", response: `{"title":"수정된 제목","body":"수정된 본문"}`}
	g := testGenerator(p)
	draft := revisableDraft()

	if err := g.Revise(context.Background(), draft, []string{"수치 오류"}); err != nil {
		t.Fatalf("Revise: %v", err)
	}

	if draft.Title != "수정된 제목" {
		t.Errorf("Title = %q", draft.Title)
	}
	if draft.Body != "수정된 본문" {
		t.Errorf("Body = %q", draft.Body)
	}
	if draft.Summary != "기존 요약" {
		t.Errorf("Summary = %q, want kept", draft.Summary)
	}
	if len(draft.KeyInsights) != 1 || draft.KeyInsights[0] != "기존 인사이트" {
		t.Errorf("KeyInsights = %v, want kept", draft.KeyInsights)
	}
	if draft.Confidence != 0.6 {
		t.Errorf("Confidence = %v, want kept", draft.Confidence)
	}
}

func TestRevisePromptCarriesContext(t *testing.T) {
	p := &fakeProvider{name: "kimi", response: `{"body":"b"}`}
	g := testGenerator(p)
	draft := revisableDraft()

	if err := g.Revise(context.Background(), draft, []string{"이슈 하나", "이슈 둘"}); err != nil {
		t.Fatalf("Revise: %v", err)
	}

	prompt := p.requests[0].Prompt
	for _, want := range []string{
		"원본 초록 범위 내에서 수정",
		"Rapamycin extends lifespan in aged mice",
		"기존 제목",
		"기존 본문",
		"- 이슈 하나\n- 이슈 둘",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("revision prompt missing %q", want)
		}
	}
}

func TestReviseCapsIssues(t *testing.T) {
	p := &fakeProvider{name: "kimi", response: `{"body":"b"}`}
	reg := &fakeRegistry{providers: []ai.Provider{p}}
	cfg := types.DefaultConfig()
	cfg.FactCheck.MaxIssues = 2
	g := New(reg, cfg, zap.NewNop())

	issues := []string{"하나", "둘", "셋", "넷"}
	if err := g.Revise(context.Background(), revisableDraft(), issues); err != nil {
		t.Fatalf("Revise: %v", err)
	}

	prompt := p.requests[0].Prompt
	if !strings.Contains(prompt, "- 하나\n- 둘") {
		t.Error("prompt should list the first two issues")
	}
	if strings.Contains(prompt, "셋") {
		t.Error("prompt should cap the issue list")
	}
}

func TestReviseFallsBack(t *testing.T) {
	primary := &fakeProvider{name: "kimi", err: errors.New("down")}
	fallback := &fakeProvider{name: "gemini", response: `{"title":"살아남은 제목"}`}
	g := testGenerator(primary, fallback)
	draft := revisableDraft()

	if err := g.Revise(context.Background(), draft, []string{"이슈"}); err != nil {
		t.Fatalf("Revise: %v", err)
	}
	if draft.Title != "살아남은 제목" {
		t.Errorf("Title = %q", draft.Title)
	}
}

func TestReviseErrorLeavesDraftUntouched(t *testing.T) {
	primary := &fakeProvider{name: "kimi", err: errors.New("down")}
	g := testGenerator(primary)
	draft := revisableDraft()

	if err := g.Revise(context.Background(), draft, []string{"이슈"}); err == nil {
		t.Fatal("expected error")
	}
	if draft.Title != "기존 제목" || draft.Body != "기존 본문" {
		t.Error("failed revision should not mutate the draft")
	}
}

// --- prompts ---

func TestGenerationPromptFormats(t *testing.T) {
	cfg := types.DefaultConfig().Generation
	tests := []struct {
		contentType types.ContentType
		marker      string
	}{
		{types.ContentNewsletter, "뉴스레터 형식"},
		{types.ContentBlog, "블로그 형식"},
		{types.ContentYouTubeScript, "유튜브 스크립트 형식"},
	}
	for _, tt := range tests {
		t.Run(string(tt.contentType), func(t *testing.T) {
			prompt, err := generationPrompt(testCandidate(), tt.contentType, cfg)
			if err != nil {
				t.Fatalf("generationPrompt: %v", err)
			}
			if !strings.Contains(prompt, tt.marker) {
				t.Errorf("prompt missing %q", tt.marker)
			}
		})
	}
}

func TestGenerationPromptCustomVoice(t *testing.T) {
	cfg := types.DefaultConfig().Generation
	cfg.Voice.Greeting = "독자 여러분, 반갑습니다."
	cfg.Voice.Closing = "다음 주에 뵙겠습니다."

	prompt, err := generationPrompt(testCandidate(), types.ContentNewsletter, cfg)
	if err != nil {
		t.Fatalf("generationPrompt: %v", err)
	}
	if !strings.Contains(prompt, "독자 여러분, 반갑습니다.") {
		t.Error("prompt should carry the configured greeting")
	}
	if !strings.Contains(prompt, "다음 주에 뵙겠습니다.") {
		t.Error("prompt should carry the configured closing")
	}
}

func TestGenerationPromptLanguageDefault(t *testing.T) {
	cfg := types.DefaultConfig().Generation
	cfg.Language = ""

	prompt, err := generationPrompt(testCandidate(), types.ContentNewsletter, cfg)
	if err != nil {
		t.Fatalf("generationPrompt: %v", err)
	}
	if !strings.Contains(prompt, "한국어로 작성") {
		t.Error("empty language should default to 한국어")
	}
}

func TestSystemPromptVoice(t *testing.T) {
	voice := types.VoiceConfig{Name: "테스트팀", Title: "연구팀", Institution: "Test Inc."}

	got, err := systemPrompt(voice)
	if err != nil {
		t.Fatalf("systemPrompt: %v", err)
	}
	if !strings.Contains(got, "테스트팀(Test Inc.)의 연구팀 관점") {
		t.Errorf("system prompt = %q", got)
	}
}

func TestFormatDate(t *testing.T) {
	if got := formatDate(time.Time{}); got != "" {
		t.Errorf("zero date = %q, want empty", got)
	}
	if got := formatDate(time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)); got != "2026-03-09" {
		t.Errorf("formatDate = %q", got)
	}
}
