// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/pdiddy/content-engine/pkg/types"
)

// systemPromptTmpl sets the writing persona for every generation and
// revision call. The persona fields come from the configured voice.
var systemPromptTmpl = template.Must(template.New("system").Parse(`당신은 {{.Name}}({{.Institution}})의 {{.Title}} 관점으로 글을 작성하는 AI 어시스턴트입니다.

역할:
- 최신 의학 연구를 대중이 이해하기 쉽게 설명
- 과학적 정확성을 유지하면서도 따뜻하고 공감적인 톤 유지
- 실용적인 건강 인사이트 제공

글쓰기 스타일:
- 전문 용어는 쉬운 설명과 함께 사용
- 독자와 대화하듯 친근하게 (존댓말 사용)
- 핵심 메시지를 명확하게
- 희망적이고 긍정적인 톤 유지

주의사항:
- 의료적 조언은 "~할 수 있습니다", "~라고 합니다" 형식으로
- 출처를 명확히 밝히기
- 과장하거나 확정적인 표현 자제`))

// contentTemplates holds the per-format instruction blocks embedded in
// the generation prompt. They render against the voice so the greeting
// and closing lines follow the persona.
var contentTemplates = map[types.ContentType]*template.Template{
	types.ContentNewsletter: template.Must(template.New("newsletter").Parse(`
## 뉴스레터 형식

제목: [흥미를 끄는 질문 형식의 제목]

인사말:
{{.Greeting}}
이번 주에 주목할 만한 연구가 발표되었습니다.

핵심 내용 (3-4 문단):
- 연구 배경과 중요성
- 주요 발견 내용
- 우리 건강에 미치는 의미
- 실천할 수 있는 점

마무리:
{{.Closing}}

총 길이: 400-600자
`)),
	types.ContentBlog: template.Must(template.New("blog").Parse(`
## 블로그 형식

제목: [SEO 최적화된 제목]
부제: [내용을 요약하는 한 줄]

도입부:
- 독자의 관심을 끄는 질문이나 상황 제시
- 이 연구가 왜 중요한지

본문 (5-7 문단):
1. 연구 배경
2. 방법론 (간략히)
3. 주요 결과
4. 전문가 해석
5. 한계점 (균형 잡힌 시각)
6. 실생활 적용

결론:
- 핵심 메시지 요약
- 독자 행동 유도 (CTA)

총 길이: 800-1200자
`)),
	types.ContentYouTubeScript: template.Must(template.New("youtube_script").Parse(`
## 유튜브 스크립트 형식

[오프닝 - 10초]
"여러분, 오늘 발표된 충격적인 연구 결과가 있습니다..."

[핵심 질문 - 20초]
"[연구 주제]가 정말 [효과]에 도움이 될까요?"

[연구 소개 - 1분]
- 어디서, 누가, 어떻게 연구했는지
- 왜 이 연구가 중요한지

[결과 설명 - 2분]
- 핵심 발견 1, 2, 3
- 그래프/표 설명 시점 표시 [자막: ...]

[의미 해석 - 1분]
- 우리에게 어떤 의미인지
- 주의할 점

[실천 팁 - 1분]
- 오늘부터 할 수 있는 것

[클로징 - 30초]
- 구독/좋아요 요청
- 다음 영상 예고

총 길이: 5-7분 분량
`)),
}

// generationPromptTmpl asks for a complete piece of content in the
// structured reply format. The JSON keys match the reply struct.
var generationPromptTmpl = template.Must(template.New("generation").Parse(`다음 연구 논문을 바탕으로 {{.ContentType}} 콘텐츠를 작성해주세요.

## 논문 정보
제목: {{.Title}}
저자: {{.Authors}}
저널: {{.Venue}}
발행일: {{.Date}}

## 초록
{{.Abstract}}

## 작성 형식
{{.Format}}

## 추가 요청사항
1. {{.Language}}로 작성
2. 전문 용어는 영어 원문을 괄호로 병기
3. 핵심 인사이트 3가지 별도 정리
4. 실용적 적용 방법 2-3가지 제안
5. 인용 출처 명시

JSON 형식으로 응답해주세요:
{
    "title": "제목",
    "summary": "2-3문장 요약",
    "body": "본문 전체",
    "key_insights": ["인사이트1", "인사이트2", "인사이트3"],
    "practical_applications": ["적용1", "적용2"],
    "confidence": 0.0-1.0
}`))

// revisionPromptTmpl asks for a conservative rewrite bounded by the
// original abstract: qualify or remove claims rather than invent.
var revisionPromptTmpl = template.Must(template.New("revision").Parse(`다음 콘텐츠를 원본 초록 범위 내에서 수정해주세요.

중요:
- 초록/제목에 없는 숫자, 저자, 연도, 결과를 새로 만들지 마세요.
- 확실하지 않으면 '초록에서 확인되지 않습니다'라고 명시하세요.
- 용어는 원문 의미를 유지하세요(예: knockout vs inhibition 등).
- 출력은 반드시 JSON만(코드블록/설명 없이) 반환하세요.

## 원본 논문
제목: {{.Title}}
저자: {{.Authors}}
저널: {{.Venue}}
발행일: {{.Date}}

초록:
{{.Abstract}}

## 기존 콘텐츠(JSON 일부)
title: {{.DraftTitle}}
summary: {{.DraftSummary}}
body:
{{.DraftBody}}

## 팩트체크 이슈
{{.Issues}}

JSON 형식으로 응답:
{
  "title": "...",
  "summary": "...",
  "body": "...",
  "key_insights": ["...", "...", "..."],
  "practical_applications": ["...", "..."],
  "confidence": 0.0-1.0
}`))

// systemPrompt renders the persona prompt for the configured voice.
func systemPrompt(voice types.VoiceConfig) (string, error) {
	return render(systemPromptTmpl, voice)
}

// generationPrompt renders the full content-generation prompt for one
// candidate. Unknown content types fall back to the newsletter format.
func generationPrompt(c types.Candidate, contentType types.ContentType, cfg types.GenerationConfig) (string, error) {
	tmpl, ok := contentTemplates[contentType]
	if !ok {
		tmpl = contentTemplates[types.ContentNewsletter]
	}
	format, err := render(tmpl, cfg.Voice)
	if err != nil {
		return "", fmt.Errorf("rendering %s format: %w", contentType, err)
	}

	language := cfg.Language
	if language == "" {
		language = "한국어"
	}

	return render(generationPromptTmpl, struct {
		ContentType string
		Title       string
		Authors     string
		Venue       string
		Date        string
		Abstract    string
		Format      string
		Language    string
	}{
		ContentType: string(contentType),
		Title:       c.Title,
		Authors:     strings.Join(c.Authors, ", "),
		Venue:       c.Venue,
		Date:        formatDate(c.Date),
		Abstract:    c.Abstract,
		Format:      format,
		Language:    language,
	})
}

// revisionPrompt renders the revision prompt from the draft's source
// candidate, the current draft fields, and the fact-check issues.
func revisionPrompt(c types.Candidate, draft *types.Draft, issues []string) (string, error) {
	lines := make([]string, len(issues))
	for i, issue := range issues {
		lines[i] = "- " + issue
	}

	return render(revisionPromptTmpl, struct {
		Title        string
		Authors      string
		Venue        string
		Date         string
		Abstract     string
		DraftTitle   string
		DraftSummary string
		DraftBody    string
		Issues       string
	}{
		Title:        c.Title,
		Authors:      strings.Join(c.Authors, ", "),
		Venue:        c.Venue,
		Date:         formatDate(c.Date),
		Abstract:     c.Abstract,
		DraftTitle:   draft.Title,
		DraftSummary: draft.Summary,
		DraftBody:    draft.Body,
		Issues:       strings.Join(lines, "\n"),
	})
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
