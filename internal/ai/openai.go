// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"

	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	jetapi "go.jetify.com/ai/api"
	jetopenai "go.jetify.com/ai/provider/openai"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAI generates through the OpenAI chat API via the jetify SDK.
type OpenAI struct {
	model jetapi.LanguageModel
}

func NewOpenAI(key, model string) *OpenAI {
	if model == "" {
		model = defaultOpenAIModel
	}
	client := openaiclient.NewClient(
		openaioption.WithAPIKey(key),
		openaioption.WithMaxRetries(0),
	)
	return &OpenAI{model: jetopenai.NewLanguageModel(model, jetopenai.WithClient(client))}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	if req.MaxTokens <= 0 {
		req.MaxTokens = 2048
	}
	return generateText(ctx, o.model, req)
}
