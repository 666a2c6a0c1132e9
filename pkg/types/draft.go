// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DraftStatus tracks a draft's position in the generate/fact-check lifecycle.
type DraftStatus string

const (
	// StatusDraft marks freshly generated content that has not been checked yet.
	StatusDraft DraftStatus = "draft"

	// StatusReady marks content that passed fact-checking and awaits human review.
	StatusReady DraftStatus = "ready_for_review"

	// StatusNeedsRevision marks content that failed fact-checking after the
	// revision budget was spent, or whose revision attempt itself failed.
	StatusNeedsRevision DraftStatus = "needs_revision"
)

// ContentType selects the editorial format a draft is generated in.
type ContentType string

const (
	ContentNewsletter    ContentType = "newsletter"
	ContentBlog          ContentType = "blog"
	ContentYouTubeScript ContentType = "youtube_script"
)

// Citation records one cited source inside a draft.
type Citation struct {
	// Identifier is the cited record's DOI or NCT number.
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`

	// Title is the cited record's title.
	Title string `json:"title" yaml:"title"`

	// Venue is the journal, preprint server, or registry name.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`
}

// Verdict is a fact-check provider's judgment of one draft.
type Verdict struct {
	// Accuracy is the provider's accuracy estimate in [0,1].
	Accuracy float64 `json:"accuracy_score" yaml:"accuracy_score"`

	// Issues lists the factual problems the provider found.
	Issues []string `json:"issues" yaml:"issues"`

	// Suggestions lists the provider's improvement suggestions.
	Suggestions []string `json:"suggestions" yaml:"suggestions"`

	// Safe reports whether the provider judged the draft publishable as-is.
	Safe bool `json:"safe_to_publish" yaml:"safe_to_publish"`
}

// Draft is the generated content object tied to one candidate. The fact-check
// loop mutates status and issue notes; revision calls mutate the generated
// fields; once the run controller appends a draft to its output the draft is
// terminal and no longer mutated.
type Draft struct {
	// ID is a UUID assigned at generation time.
	ID string `json:"id" yaml:"id"`

	// Candidate is the source record this draft was generated from. The draft
	// owns the reference for the run's lifetime; the serialized record echoes
	// the original title and abstract through it.
	Candidate Candidate `json:"source" yaml:"source"`

	// ContentType is the editorial format: newsletter, blog, or youtube_script.
	ContentType ContentType `json:"content_type" yaml:"content_type"`

	// Title is the generated title in the target language.
	Title string `json:"title" yaml:"title"`

	// Summary is the generated two-to-three sentence summary.
	Summary string `json:"summary" yaml:"summary"`

	// Body is the generated body text.
	Body string `json:"body" yaml:"body"`

	// KeyInsights lists up to three takeaways from the source record.
	KeyInsights []string `json:"key_insights" yaml:"key_insights"`

	// Applications lists up to three practical applications.
	Applications []string `json:"practical_applications" yaml:"practical_applications"`

	// Citations lists the sources the draft cites (the origin candidate).
	Citations []Citation `json:"citations" yaml:"citations"`

	// FactCheckIssues holds the most recent verdict's issue list.
	FactCheckIssues []string `json:"fact_check_issues" yaml:"fact_check_issues"`

	// Confidence is the generator's self-reported confidence in [0,1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// CreatedAt is the generation timestamp.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// Status is the lifecycle state: draft, ready_for_review, or needs_revision.
	Status DraftStatus `json:"status" yaml:"status"`

	// SourceTag is the origin tag derived from the candidate's categories
	// (clinical_trial, medrxiv, biorxiv, or pubmed).
	SourceTag string `json:"source_tag" yaml:"source_tag"`
}
