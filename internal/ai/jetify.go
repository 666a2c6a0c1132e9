// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"errors"
	"strings"

	jetai "go.jetify.com/ai"
	jetapi "go.jetify.com/ai/api"
)

// generateText runs one call through a jetify language model and
// returns the concatenated text blocks of the reply.
func generateText(ctx context.Context, model jetapi.LanguageModel, req Request) (string, error) {
	resp, err := jetai.GenerateText(ctx, buildMessages(req),
		jetai.WithModel(model),
		jetai.WithMaxOutputTokens(req.MaxTokens),
	)
	if err != nil {
		return "", err
	}
	return extractText(resp)
}

func buildMessages(req Request) []jetapi.Message {
	var messages []jetapi.Message
	if req.System != "" {
		messages = append(messages, &jetapi.SystemMessage{Content: req.System})
	}
	messages = append(messages, &jetapi.UserMessage{
		Content: jetapi.ContentFromText(req.Prompt),
	})
	return messages
}

func extractText(resp *jetapi.Response) (string, error) {
	var sb strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.(*jetapi.TextBlock); ok && text.Text != "" {
			sb.WriteString(text.Text)
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", errors.New("empty response from model")
	}
	return out, nil
}
