// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate turns discovery candidates into content drafts via
// the provider registry, and revises drafts against fact-check issues.
package generate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/content-engine/internal/ai"
	"github.com/pdiddy/content-engine/pkg/types"
)

const (
	generationTemperature = 0.7
	generationMaxTokens   = 2048

	maxInsights     = 3
	maxApplications = 3
)

// timeNow is swapped in tests for deterministic timestamps.
var timeNow = time.Now

// Registry abstracts provider selection so tests can supply stubs.
type Registry interface {
	Primary() (ai.Provider, error)
	Fallback(failed string) ai.Provider
}

// reply is the structured object the model returns for generation and
// revision calls. Pointer confidence distinguishes "omitted" from 0.
type reply struct {
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	Body         string   `json:"body"`
	KeyInsights  []string `json:"key_insights"`
	Applications []string `json:"practical_applications"`
	Confidence   *float64 `json:"confidence"`
}

// Generator produces and revises drafts with one provider call plus at
// most one fallback call.
type Generator struct {
	registry  Registry
	cfg       types.GenerationConfig
	maxIssues int
	log       *zap.Logger
}

func New(registry Registry, cfg types.Config, log *zap.Logger) *Generator {
	maxIssues := cfg.FactCheck.MaxIssues
	if maxIssues <= 0 {
		maxIssues = 8
	}
	return &Generator{registry: registry, cfg: cfg.Generation, maxIssues: maxIssues, log: log}
}

// Generate produces a fresh draft from one candidate. A provider call
// error or an undecodable reply triggers exactly one fallback attempt;
// a second failure returns an error and the candidate is skipped
// upstream.
func (g *Generator) Generate(ctx context.Context, candidate types.Candidate) (*types.Draft, error) {
	contentType := g.cfg.ContentType
	if contentType == "" {
		contentType = types.ContentNewsletter
	}

	prompt, err := generationPrompt(candidate, contentType, g.cfg)
	if err != nil {
		return nil, fmt.Errorf("rendering generation prompt: %w", err)
	}

	r, err := g.callWithFallback(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating %s for %s: %w", contentType, candidate.DedupKey(), err)
	}

	confidence := 0.5
	if r.Confidence != nil {
		confidence = clamp01(*r.Confidence)
	}

	return &types.Draft{
		ID:           uuid.NewString(),
		Candidate:    candidate,
		ContentType:  contentType,
		Title:        r.Title,
		Summary:      r.Summary,
		Body:         r.Body,
		KeyInsights:  capList(r.KeyInsights, maxInsights),
		Applications: capList(r.Applications, maxApplications),
		Citations: []types.Citation{{
			Identifier: candidate.Identifier,
			Title:      candidate.Title,
			Venue:      candidate.Venue,
		}},
		Confidence: confidence,
		CreatedAt:  timeNow().UTC(),
		Status:     types.StatusDraft,
		SourceTag:  candidate.SourceTag(),
	}, nil
}

// Revise rewrites a draft in place against the given fact-check issues.
// Fields the reply omits keep their current values.
func (g *Generator) Revise(ctx context.Context, draft *types.Draft, issues []string) error {
	prompt, err := revisionPrompt(draft.Candidate, draft, capList(issues, g.maxIssues))
	if err != nil {
		return fmt.Errorf("rendering revision prompt: %w", err)
	}

	r, err := g.callWithFallback(ctx, prompt)
	if err != nil {
		return fmt.Errorf("revising draft %s: %w", draft.ID, err)
	}

	if r.Title != "" {
		draft.Title = r.Title
	}
	if r.Summary != "" {
		draft.Summary = r.Summary
	}
	if r.Body != "" {
		draft.Body = r.Body
	}
	if r.KeyInsights != nil {
		draft.KeyInsights = capList(r.KeyInsights, maxInsights)
	}
	if r.Applications != nil {
		draft.Applications = capList(r.Applications, maxApplications)
	}
	if r.Confidence != nil {
		draft.Confidence = clamp01(*r.Confidence)
	}
	return nil
}

// callWithFallback runs one provider call and, when it errors or its
// reply does not decode, one call against the next provider in line.
func (g *Generator) callWithFallback(ctx context.Context, prompt string) (reply, error) {
	system, err := systemPrompt(g.cfg.Voice)
	if err != nil {
		return reply{}, fmt.Errorf("rendering system prompt: %w", err)
	}
	req := ai.Request{
		System:      system,
		Prompt:      prompt,
		MaxTokens:   generationMaxTokens,
		Temperature: generationTemperature,
	}

	primary, err := g.registry.Primary()
	if err != nil {
		return reply{}, err
	}

	r, primaryErr := callOne(ctx, primary, req)
	if primaryErr == nil {
		return r, nil
	}

	fallback := g.registry.Fallback(primary.Name())
	if fallback == nil {
		return reply{}, primaryErr
	}
	g.log.Warn("provider failed, trying fallback",
		zap.String("provider", primary.Name()),
		zap.String("fallback", fallback.Name()),
		zap.Error(primaryErr))

	r, err = callOne(ctx, fallback, req)
	if err != nil {
		return reply{}, fmt.Errorf("fallback %s also failed (%v): %w", fallback.Name(), primaryErr, err)
	}
	return r, nil
}

func callOne(ctx context.Context, p ai.Provider, req ai.Request) (reply, error) {
	raw, err := p.Generate(ctx, req)
	if err != nil {
		return reply{}, err
	}
	var r reply
	if err := ai.DecodeObject(raw, &r); err != nil {
		return reply{}, err
	}
	return r, nil
}

func capList(list []string, n int) []string {
	if len(list) <= n {
		return list
	}
	return list[:n]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
