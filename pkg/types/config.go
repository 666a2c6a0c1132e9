package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "content-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SourcesConfig holds settings for the discovery stage's source adapters.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline"`

	// EnablePreprints controls whether the bioRxiv and medRxiv adapters run.
	EnablePreprints bool `json:"enable_preprints" yaml:"enable_preprints"`

	// EnableTrials controls whether the ClinicalTrials.gov adapter runs.
	EnableTrials bool `json:"enable_trials" yaml:"enable_trials"`

	// PubMedMax is the per-query result cap for PubMed (default 10).
	PubMedMax int `json:"pubmed_max" yaml:"pubmed_max"`

	// PreprintMax is the per-query result cap for each preprint server (default 5).
	PreprintMax int `json:"preprint_max" yaml:"preprint_max"`

	// TrialsMax is the per-query result cap for ClinicalTrials.gov (default 5).
	TrialsMax int `json:"trials_max" yaml:"trials_max"`

	// PubMedWindowDays is the lookback window for PubMed queries (default 7).
	PubMedWindowDays int `json:"pubmed_window_days" yaml:"pubmed_window_days"`

	// PreprintWindowDays is the lookback window for preprint queries (default 30).
	PreprintWindowDays int `json:"preprint_window_days" yaml:"preprint_window_days"`

	// RequestsPerSecond caps the outbound request rate shared by all adapters.
	// NCBI allows 3 req/s without an API key, so that is the default.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// ScoringConfig holds the keyword and venue tables used for relevance scoring
// and for building the discovery query batch.
type ScoringConfig struct {
	// Keywords are the scoring keywords. The first QueryKeywords entries also
	// drive the paper-source queries.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// TrialKeywords drive ClinicalTrials.gov queries. Broader than Keywords
	// because trial registrations use plainer terminology.
	TrialKeywords []string `json:"trial_keywords" yaml:"trial_keywords"`

	// Venues are high-priority journal names; a venue substring match earns a
	// one-time scoring bonus.
	Venues []string `json:"venues" yaml:"venues"`

	// QueryKeywords is how many leading Keywords entries the discovery batch
	// queries (default 5).
	QueryKeywords int `json:"query_keywords" yaml:"query_keywords"`

	// TrialQueryKeywords is how many leading TrialKeywords entries the
	// discovery batch queries (default 6).
	TrialQueryKeywords int `json:"trial_query_keywords" yaml:"trial_query_keywords"`
}

// VoiceConfig identifies the publishing persona drafts are written for.
type VoiceConfig struct {
	// Name is the persona's display name.
	Name string `json:"name" yaml:"name"`

	// Title is the team or role line shown with the name.
	Title string `json:"title" yaml:"title"`

	// Institution is the publishing organization.
	Institution string `json:"institution" yaml:"institution"`

	// Tone describes the desired register (e.g. "warm_professional").
	Tone string `json:"tone" yaml:"tone"`

	// Greeting opens newsletter-format drafts.
	Greeting string `json:"greeting" yaml:"greeting"`

	// Closing ends newsletter-format drafts.
	Closing string `json:"closing" yaml:"closing"`
}

// GenerationConfig holds settings for content generation and revision.
type GenerationConfig struct {
	HTTPConfig `yaml:",inline"`

	// Providers is the provider priority order. The first entry with
	// credentials becomes the primary unless Primary overrides it.
	Providers []string `json:"providers" yaml:"providers"`

	// Primary forces a specific provider when that provider has credentials.
	Primary string `json:"primary,omitempty" yaml:"primary,omitempty"`

	// Models maps provider name to model identifier, overriding the
	// built-in per-provider defaults.
	Models map[string]string `json:"models,omitempty" yaml:"models,omitempty"`

	// ContentType is the editorial format to generate (default newsletter).
	ContentType ContentType `json:"content_type" yaml:"content_type"`

	// Language is the target language for generated content, written the way
	// it should appear inside the prompt (default 한국어).
	Language string `json:"language" yaml:"language"`

	// Voice is the publishing persona.
	Voice VoiceConfig `json:"voice" yaml:"voice"`

	// RateLimitRetries is the attempt budget for rate-limited provider calls
	// (default 3).
	RateLimitRetries int `json:"rate_limit_retries" yaml:"rate_limit_retries"`

	// RateLimitBackoff is the linear wait unit between rate-limited attempts
	// (default 15s; attempt n waits n times this).
	RateLimitBackoff time.Duration `json:"rate_limit_backoff" yaml:"rate_limit_backoff"`
}

// FactCheckConfig holds settings for the fact-check loop.
type FactCheckConfig struct {
	// Provider names the fact-check provider; empty means the generation primary.
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`

	// MaxRevisions is the per-draft revision budget (default 2). Fact-check
	// calls per draft never exceed MaxRevisions+1.
	MaxRevisions int `json:"max_revisions" yaml:"max_revisions"`

	// MaxIssues caps how many verdict issues a revision request carries (default 8).
	MaxIssues int `json:"max_issues" yaml:"max_issues"`
}

// RunConfig holds the run controller's caps and pacing.
type RunConfig struct {
	// TargetReady stops the run once this many drafts reach ready_for_review
	// (default 5).
	TargetReady int `json:"target_ready" yaml:"target_ready"`

	// MaxCandidates caps how many candidates a run may process, counting
	// generation failures (default 15).
	MaxCandidates int `json:"max_candidates" yaml:"max_candidates"`

	// Cooldown is the pause between candidates while the ready target is
	// unmet (default 10s), to stay inside provider rate limits.
	Cooldown time.Duration `json:"cooldown" yaml:"cooldown"`
}

// StoreConfig holds persistence paths.
type StoreConfig struct {
	// DraftsDir is the directory for serialized draft records.
	DraftsDir string `json:"drafts_dir" yaml:"drafts_dir"`

	// ArchiveDir is the directory holding the SQLite archive index.
	ArchiveDir string `json:"archive_dir" yaml:"archive_dir"`
}

// Config groups every stage configuration. The CLI builds one value from
// defaults, the config file, the environment, and the secrets directory, then
// passes it down unchanged; no stage reads the environment itself.
type Config struct {
	Sources    SourcesConfig    `json:"sources" yaml:"sources"`
	Scoring    ScoringConfig    `json:"scoring" yaml:"scoring"`
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	FactCheck  FactCheckConfig  `json:"fact_check" yaml:"fact_check"`
	Run        RunConfig        `json:"run" yaml:"run"`
	Store      StoreConfig      `json:"store" yaml:"store"`

	// Keys maps provider key names (e.g. "kimi-api-key") to credentials.
	// Never serialized.
	Keys map[string]string `json:"-" yaml:"-"`
}

// Default keyword, trial-keyword, and venue tables for the longevity and
// translational-medicine beat the engine covers.
var (
	DefaultKeywords = []string{
		// Core longevity
		"NAD+ metabolism", "senolytics", "cellular senescence",
		"mitochondrial dysfunction", "autophagy aging",
		"longevity interventions", "healthspan", "lifespan extension",
		"metabolic aging", "epigenetic clock", "telomere attrition",
		// Therapeutics
		"GLP-1 agonist aging", "rapamycin longevity", "metformin aging",
		"NMN supplementation", "resveratrol", "spermidine",
		// Emerging
		"senostatics", "SASP inhibitors", "inflammaging",
		// Cancer diagnosis and therapeutics
		"liquid biopsy cancer", "immunotherapy checkpoint",
		"CAR-T cell therapy", "cancer biomarker early detection",
		"targeted therapy oncology", "tumor microenvironment",
		// Korean research focus
		"Korean longevity", "Asian metabolic disease",
	}

	DefaultTrialKeywords = []string{
		"aging", "longevity", "senolytic", "NAD+", "NMN",
		"rapamycin", "metformin anti-aging", "GLP-1",
		"healthspan", "biological age", "caloric restriction",
		"nicotinamide riboside", "senolytics dasatinib quercetin",
		// Cancer
		"immunotherapy cancer", "CAR-T", "liquid biopsy",
		"checkpoint inhibitor", "targeted therapy cancer",
	}

	DefaultVenues = []string{
		"Nature Aging", "Cell Metabolism", "Aging Cell",
		"GeroScience", "Lancet Healthy Longevity",
		"Nature Medicine", "Cell", "Nature", "Science",
		"Journal of Clinical Investigation", "JAMA",
		"bioRxiv", "medRxiv", // preprint servers
	}
)

// DefaultConfig returns the complete default configuration. Callers overlay
// file, environment, and secrets values on top of it.
func DefaultConfig() Config {
	return Config{
		Sources: SourcesConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "content-engine/0.1",
			},
			EnablePreprints:    true,
			EnableTrials:       true,
			PubMedMax:          10,
			PreprintMax:        5,
			TrialsMax:          5,
			PubMedWindowDays:   7,
			PreprintWindowDays: 30,
			RequestsPerSecond:  3,
		},
		Scoring: ScoringConfig{
			Keywords:           append([]string(nil), DefaultKeywords...),
			TrialKeywords:      append([]string(nil), DefaultTrialKeywords...),
			Venues:             append([]string(nil), DefaultVenues...),
			QueryKeywords:      5,
			TrialQueryKeywords: 6,
		},
		Generation: GenerationConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   120 * time.Second,
				UserAgent: "content-engine/0.1",
			},
			Providers:   []string{"kimi", "gemini", "openai", "claude"},
			ContentType: ContentNewsletter,
			Language:    "한국어",
			Voice: VoiceConfig{
				Name:        "브라운바이오텍",
				Title:       "장수과학 리서치팀",
				Institution: "Brown Biotech Inc.",
				Tone:        "warm_professional",
				Greeting:    "안녕하세요, 브라운바이오텍입니다.",
				Closing:     "건강한 한 주 보내시기 바랍니다.",
			},
			RateLimitRetries: 3,
			RateLimitBackoff: 15 * time.Second,
		},
		FactCheck: FactCheckConfig{
			MaxRevisions: 2,
			MaxIssues:    8,
		},
		Run: RunConfig{
			TargetReady:   5,
			MaxCandidates: 15,
			Cooldown:      10 * time.Second,
		},
		Store: StoreConfig{
			DraftsDir:  "output/drafts",
			ArchiveDir: "output/archive",
		},
		Keys: map[string]string{},
	}
}
