// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/content-engine/pkg/types"
)

// Score weights a candidate for selection. Clinical trials and
// preprints carry fixed boosts, the first configured venue found in
// the candidate's venue adds a large boost, every keyword present in
// the title accumulates, and a substantial abstract adds a point.
func Score(c types.Candidate, keywords, venues []string) float64 {
	var score float64

	if c.HasCategory(types.CategoryClinicalTrial) {
		score += 2.0
	}
	if c.HasCategory(types.CategoryPreprint) {
		score += 0.5
	}

	venue := strings.ToLower(c.Venue)
	for _, v := range venues {
		if strings.Contains(venue, strings.ToLower(v)) {
			score += 3.0
			break
		}
	}

	title := strings.ToLower(c.Title)
	for _, kw := range keywords {
		if strings.Contains(title, strings.ToLower(kw)) {
			score += 1.0
		}
	}

	if utf8.RuneCountInString(c.Abstract) > 500 {
		score += 1.0
	}
	return score
}

// ScoreAll scores the candidates in place.
func ScoreAll(cands []types.Candidate, keywords, venues []string) {
	for i := range cands {
		cands[i].Score = Score(cands[i], keywords, venues)
	}
}
