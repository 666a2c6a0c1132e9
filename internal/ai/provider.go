// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ai routes text generation across the configured model
// providers. A Registry holds the providers that have credentials in
// priority order; callers pick the primary and, on failure, at most
// one fallback.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/content-engine/pkg/types"
)

var (
	// ErrNoProvider indicates that no configured provider has
	// credentials. It is the run controller's only fatal condition.
	ErrNoProvider = errors.New("no provider with credentials")

	// ErrMalformedResponse indicates a provider answered but the
	// payload did not contain a decodable JSON object.
	ErrMalformedResponse = errors.New("malformed provider response")
)

// Request is one text-generation call. MaxTokens bounds the content
// budget; zero lets the provider apply its default.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Provider generates text from a system/user prompt pair.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// Secrets-store key names per provider.
const (
	kimiKeyName   = "kimi-api-key"
	geminiKeyName = "gemini-api-key"
	openaiKeyName = "openai-api-key"
	claudeKeyName = "anthropic-api-key"
)

// Registry holds the credentialed providers in configuration order.
type Registry struct {
	providers []Provider
	primary   string
}

// NewRegistry builds the registry from the provider priority list,
// instantiating each provider that has an API key. Providers without
// credentials are silently absent; a provider that fails to construct
// is logged and skipped.
func NewRegistry(ctx context.Context, cfg types.GenerationConfig, keys map[string]string, log *zap.Logger) *Registry {
	client := &http.Client{Timeout: cfg.Timeout}

	var providers []Provider
	for _, name := range cfg.Providers {
		switch name {
		case "kimi":
			if key := keys[kimiKeyName]; key != "" {
				providers = append(providers, NewKimi(key, cfg.Models[name], client, cfg.RateLimitRetries, cfg.RateLimitBackoff, log))
			}
		case "gemini":
			if key := keys[geminiKeyName]; key != "" {
				p, err := NewGemini(ctx, key, cfg.Models[name])
				if err != nil {
					log.Warn("skipping gemini provider", zap.Error(err))
					continue
				}
				providers = append(providers, p)
			}
		case "openai":
			if key := keys[openaiKeyName]; key != "" {
				providers = append(providers, NewOpenAI(key, cfg.Models[name]))
			}
		case "claude":
			if key := keys[claudeKeyName]; key != "" {
				providers = append(providers, NewClaude(key, cfg.Models[name]))
			}
		default:
			log.Warn("unknown provider in configuration", zap.String("provider", name))
		}
	}
	return &Registry{providers: providers, primary: cfg.Primary}
}

// Primary returns the configured primary provider, or the first
// credentialed one when no primary is configured.
func (r *Registry) Primary() (Provider, error) {
	if len(r.providers) == 0 {
		return nil, ErrNoProvider
	}
	if r.primary == "" {
		return r.providers[0], nil
	}
	for _, p := range r.providers {
		if p.Name() == r.primary {
			return p, nil
		}
	}
	return nil, fmt.Errorf("primary provider %q: %w", r.primary, ErrNoProvider)
}

// Fallback returns the highest-priority provider other than the one
// that failed, or nil when there is none.
func (r *Registry) Fallback(failed string) Provider {
	for _, p := range r.providers {
		if p.Name() != failed {
			return p
		}
	}
	return nil
}

// Get returns the named provider if it has credentials.
func (r *Registry) Get(name string) (Provider, bool) {
	for _, p := range r.providers {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Names lists the credentialed providers in priority order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}
