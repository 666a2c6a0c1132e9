// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the content-engine
// pipeline: discovery candidates, generated drafts, fact-check verdicts, and
// the configuration tree the CLI assembles and passes into every stage.
package types

import "time"

// Category tags attached to candidates by the source adapters. A candidate
// carries its origin tag plus qualifiers (a medRxiv record carries both
// "medrxiv" and "preprint").
const (
	CategoryPubMed        = "pubmed"
	CategoryBioRxiv       = "biorxiv"
	CategoryMedRxiv       = "medrxiv"
	CategoryClinicalTrial = "clinical_trial"
	CategoryPreprint      = "preprint"
)

// Candidate represents a normalized publication or trial record returned by a
// source adapter, prior to content generation.
type Candidate struct {
	// Title is the record title as returned by the source. Trial records
	// carry a "[Clinical Trial] " prefix.
	Title string `json:"title" yaml:"title"`

	// Authors lists up to five author names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the abstract or summary text.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Venue is the journal, preprint server, or trial registry name.
	Venue string `json:"venue" yaml:"venue"`

	// Identifier is the canonical ID from the source (DOI or NCT number).
	// Empty when the source did not report one.
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`

	// Date is the publication, posting, or trial start date. Zero when unknown.
	Date time.Time `json:"date" yaml:"date"`

	// URL is the canonical landing page for the record.
	URL string `json:"url" yaml:"url"`

	// Categories holds the origin tag plus qualifiers (e.g. "biorxiv", "preprint").
	Categories []string `json:"categories" yaml:"categories"`

	// Score is the relevance score assigned after aggregation. Zero until scored.
	Score float64 `json:"score" yaml:"score"`

	// FullText optionally holds retrieved full text. The current sources
	// return metadata only, so this stays empty.
	FullText string `json:"full_text,omitempty" yaml:"full_text,omitempty"`
}

// DedupKey returns the identity used for first-seen-wins deduplication: the
// identifier when present, otherwise the title. An empty key means the record
// has no usable identity; aggregation drops such records.
func (c Candidate) DedupKey() string {
	if c.Identifier != "" {
		return c.Identifier
	}
	return c.Title
}

// HasCategory reports whether the candidate carries the given category tag.
func (c Candidate) HasCategory(tag string) bool {
	for _, t := range c.Categories {
		if t == tag {
			return true
		}
	}
	return false
}

// SourceTag returns the candidate's single origin tag, chosen by fixed
// priority: clinical_trial, then medrxiv, then biorxiv, defaulting to pubmed.
func (c Candidate) SourceTag() string {
	for _, tag := range []string{CategoryClinicalTrial, CategoryMedRxiv, CategoryBioRxiv} {
		if c.HasCategory(tag) {
			return tag
		}
	}
	return CategoryPubMed
}
