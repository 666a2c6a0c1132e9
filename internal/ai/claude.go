// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	jetapi "go.jetify.com/ai/api"
	jetanthropic "go.jetify.com/ai/provider/anthropic"
)

const defaultClaudeModel = "claude-sonnet-4-5"

// Claude generates through the Anthropic messages API via the jetify
// SDK.
type Claude struct {
	model jetapi.LanguageModel
}

func NewClaude(key, model string) *Claude {
	if model == "" {
		model = defaultClaudeModel
	}
	client := anthropicclient.NewClient(
		anthropicoption.WithAPIKey(key),
		anthropicoption.WithMaxRetries(0),
	)
	return &Claude{model: jetanthropic.NewLanguageModel(model, jetanthropic.WithClient(client))}
}

func (c *Claude) Name() string { return "claude" }

func (c *Claude) Generate(ctx context.Context, req Request) (string, error) {
	if req.MaxTokens <= 0 {
		req.MaxTokens = 2048
	}
	return generateText(ctx, c.model, req)
}
