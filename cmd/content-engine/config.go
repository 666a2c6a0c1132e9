// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/content-engine/internal/ai"
	"github.com/pdiddy/content-engine/pkg/types"
)

// buildConfig assembles the effective configuration: defaults, then the
// config file and CONTENT_ENGINE_* environment overrides via viper, then
// the secrets directory. Command flags are applied by each command on
// top of the result.
func buildConfig() types.Config {
	cfg := types.DefaultConfig()

	setDuration(&cfg.Sources.Timeout, "sources.timeout")
	setBool(&cfg.Sources.EnablePreprints, "sources.enable_preprints")
	setBool(&cfg.Sources.EnableTrials, "sources.enable_trials")
	setInt(&cfg.Sources.PubMedMax, "sources.pubmed_max")
	setInt(&cfg.Sources.PreprintMax, "sources.preprint_max")
	setInt(&cfg.Sources.TrialsMax, "sources.trials_max")
	setInt(&cfg.Sources.PubMedWindowDays, "sources.pubmed_window_days")
	setInt(&cfg.Sources.PreprintWindowDays, "sources.preprint_window_days")
	setFloat(&cfg.Sources.RequestsPerSecond, "sources.requests_per_second")

	setStrings(&cfg.Scoring.Keywords, "scoring.keywords")
	setStrings(&cfg.Scoring.TrialKeywords, "scoring.trial_keywords")
	setStrings(&cfg.Scoring.Venues, "scoring.venues")
	setInt(&cfg.Scoring.QueryKeywords, "scoring.query_keywords")
	setInt(&cfg.Scoring.TrialQueryKeywords, "scoring.trial_query_keywords")

	setDuration(&cfg.Generation.Timeout, "generation.timeout")
	setStrings(&cfg.Generation.Providers, "generation.providers")
	setString(&cfg.Generation.Primary, "generation.primary")
	setString(&cfg.Generation.Language, "generation.language")
	setString(&cfg.Generation.Voice.Name, "generation.voice.name")
	setString(&cfg.Generation.Voice.Title, "generation.voice.title")
	setString(&cfg.Generation.Voice.Institution, "generation.voice.institution")
	setString(&cfg.Generation.Voice.Tone, "generation.voice.tone")
	setString(&cfg.Generation.Voice.Greeting, "generation.voice.greeting")
	setString(&cfg.Generation.Voice.Closing, "generation.voice.closing")
	setInt(&cfg.Generation.RateLimitRetries, "generation.rate_limit_retries")
	setDuration(&cfg.Generation.RateLimitBackoff, "generation.rate_limit_backoff")
	if viper.IsSet("generation.content_type") {
		cfg.Generation.ContentType = types.ContentType(viper.GetString("generation.content_type"))
	}
	if viper.IsSet("generation.models") {
		cfg.Generation.Models = viper.GetStringMapString("generation.models")
	}

	setString(&cfg.FactCheck.Provider, "fact_check.provider")
	setInt(&cfg.FactCheck.MaxRevisions, "fact_check.max_revisions")
	setInt(&cfg.FactCheck.MaxIssues, "fact_check.max_issues")

	setInt(&cfg.Run.TargetReady, "run.target_ready")
	setInt(&cfg.Run.MaxCandidates, "run.max_candidates")
	setDuration(&cfg.Run.Cooldown, "run.cooldown")

	setString(&cfg.Store.DraftsDir, "store.drafts_dir")
	setString(&cfg.Store.ArchiveDir, "store.archive_dir")

	cfg.Keys = loadedSecrets
	return cfg
}

func setString(dst *string, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetString(key)
	}
}

func setStrings(dst *[]string, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetStringSlice(key)
	}
}

func setInt(dst *int, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetInt(key)
	}
}

func setBool(dst *bool, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetBool(key)
	}
}

func setFloat(dst *float64, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetFloat64(key)
	}
}

func setDuration(dst *time.Duration, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetDuration(key)
	}
}

// parseContentType validates a content type given on the command line.
func parseContentType(s string) (types.ContentType, error) {
	switch ct := types.ContentType(s); ct {
	case types.ContentNewsletter, types.ContentBlog, types.ContentYouTubeScript:
		return ct, nil
	}
	return "", fmt.Errorf("unknown content type %q: use newsletter, blog, or youtube_script", s)
}

// checkProvider resolves the fact-check provider: the configured one when
// named, otherwise the generation primary.
func checkProvider(registry *ai.Registry, cfg types.Config) (ai.Provider, error) {
	if name := cfg.FactCheck.Provider; name != "" {
		p, ok := registry.Get(name)
		if !ok {
			return nil, fmt.Errorf("fact-check provider %q: %w", name, ai.ErrNoProvider)
		}
		return p, nil
	}
	return registry.Primary()
}
