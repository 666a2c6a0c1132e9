// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package factcheck validates drafts against their source abstracts
// and drives the bounded check-and-revise loop.
package factcheck

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/content-engine/internal/ai"
	"github.com/pdiddy/content-engine/pkg/types"
)

const (
	checkTemperature = 0.3
	checkMaxTokens   = 1024
)

// checkPromptTmpl grades a draft body against the source title and
// abstract. The JSON keys match the Verdict struct.
var checkPromptTmpl = template.Must(template.New("factcheck").Parse(`당신은 의학 논문 팩트체커입니다.

다음 AI 생성 콘텐츠가 원본 논문과 일치하는지 검증해주세요.

## 원본 논문
제목: {{.Title}}
초록: {{.Abstract}}

## AI 생성 콘텐츠
{{.Content}}

## 검증 항목
1. 숫자/통계 정확성
2. 인과관계 왜곡 여부
3. 과장된 표현 여부
4. 누락된 중요 정보
5. 잠재적 오해 가능성

JSON 형식으로 응답:
{
    "accuracy_score": 0.0-1.0,
    "issues": ["문제점1", "문제점2"],
    "suggestions": ["수정제안1", "수정제안2"],
    "safe_to_publish": true/false
}`))

// Checker judges drafts with a single fixed provider. It never returns
// an error: a failed call or an undecodable reply downgrades to an
// unsafe verdict so the loop decides what happens next, and there is no
// fallback provider for checks.
type Checker struct {
	provider ai.Provider
	log      *zap.Logger
}

func NewChecker(provider ai.Provider, log *zap.Logger) *Checker {
	return &Checker{provider: provider, log: log}
}

// Check fact-checks one draft and returns the provider's verdict.
func (c *Checker) Check(ctx context.Context, draft *types.Draft) types.Verdict {
	prompt, err := checkPrompt(draft)
	if err != nil {
		return failureVerdict(c.provider.Name(), err)
	}

	raw, err := c.provider.Generate(ctx, ai.Request{
		Prompt:      prompt,
		MaxTokens:   checkMaxTokens,
		Temperature: checkTemperature,
	})
	if err != nil {
		c.log.Warn("fact check call failed",
			zap.String("provider", c.provider.Name()),
			zap.String("draft_id", draft.ID),
			zap.Error(err))
		return failureVerdict(c.provider.Name(), err)
	}

	var verdict types.Verdict
	if err := ai.DecodeObject(raw, &verdict); err != nil {
		c.log.Warn("fact check reply did not parse",
			zap.String("provider", c.provider.Name()),
			zap.String("draft_id", draft.ID))
		return types.Verdict{
			Accuracy: 0.7,
			Issues:   []string{"JSON 파싱 실패 - 수동 검토 필요"},
			Safe:     false,
		}
	}
	return verdict
}

func failureVerdict(provider string, err error) types.Verdict {
	return types.Verdict{
		Accuracy: 0,
		Issues:   []string{fmt.Sprintf("fact check failed (%s): %v", provider, err)},
		Safe:     false,
	}
}

func checkPrompt(draft *types.Draft) (string, error) {
	var buf bytes.Buffer
	err := checkPromptTmpl.Execute(&buf, struct {
		Title    string
		Abstract string
		Content  string
	}{
		Title:    draft.Candidate.Title,
		Abstract: draft.Candidate.Abstract,
		Content:  draft.Body,
	})
	if err != nil {
		return "", fmt.Errorf("rendering fact check prompt: %w", err)
	}
	return buf.String(), nil
}
