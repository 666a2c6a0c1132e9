// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Declared as a var so tests can substitute an httptest server.
var kimiAPIBase = "https://api.moonshot.ai/v1"

const defaultKimiModel = "moonshot-v1-8k"

// Kimi calls Moonshot's OpenAI-compatible chat completion endpoint
// directly. Moonshot rate-limits free tiers hard, so 429 responses get
// a linear backoff before the call counts as failed.
type Kimi struct {
	key     string
	model   string
	client  *http.Client
	retries int
	backoff time.Duration
	log     *zap.Logger
}

func NewKimi(key, model string, client *http.Client, retries int, backoff time.Duration, log *zap.Logger) *Kimi {
	if model == "" {
		model = defaultKimiModel
	}
	if retries <= 0 {
		retries = 1
	}
	return &Kimi{key: key, model: model, client: client, retries: retries, backoff: backoff, log: log}
}

func (k *Kimi) Name() string { return "kimi" }

type kimiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type kimiRequest struct {
	Model       string        `json:"model"`
	Messages    []kimiMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type kimiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (k *Kimi) Generate(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	var messages []kimiMessage
	if req.System != "" {
		messages = append(messages, kimiMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, kimiMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(kimiRequest{
		Model:       k.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encoding kimi request: %w", err)
	}

	for attempt := 1; ; attempt++ {
		text, retryable, err := k.call(ctx, body)
		if err == nil {
			return text, nil
		}
		if !retryable || attempt > k.retries {
			return "", err
		}
		wait := time.Duration(attempt) * k.backoff
		k.log.Warn("kimi rate limited, backing off",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait))
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (k *Kimi) call(ctx context.Context, body []byte) (text string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, kimiAPIBase+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("building kimi request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+k.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := k.client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("kimi API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("kimi API returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		return "", resp.StatusCode == http.StatusTooManyRequests, err
	}

	var parsed kimiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", false, fmt.Errorf("parsing kimi response: %w", err)
	}
	if parsed.Error != nil {
		return "", false, fmt.Errorf("kimi API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", false, fmt.Errorf("empty response from kimi")
	}
	return parsed.Choices[0].Message.Content, false, nil
}
