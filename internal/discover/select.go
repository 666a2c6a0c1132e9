// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"sort"

	"github.com/pdiddy/content-engine/pkg/types"
)

// SelectionCap is the hard ceiling on the selected slate.
const SelectionCap = 15

// bucketQuota reserves slots per source so a strong PubMed week cannot
// crowd out trials and preprints entirely.
const bucketQuota = 3

// bucketPriority orders the per-source quota rounds.
var bucketPriority = []string{
	types.CategoryClinicalTrial,
	types.CategoryMedRxiv,
	types.CategoryBioRxiv,
	types.CategoryPubMed,
}

// Select picks the final slate: quota slots per source in priority
// order, then the remaining seats filled by global score rank. Ties
// keep their gathering order.
func Select(cands []types.Candidate) []types.Candidate {
	ranked := make([]types.Candidate, len(cands))
	copy(ranked, cands)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	buckets := make(map[string][]types.Candidate)
	for _, c := range ranked {
		tag := c.SourceTag()
		buckets[tag] = append(buckets[tag], c)
	}

	selected := make([]types.Candidate, 0, SelectionCap)
	used := make(map[string]bool)
	for _, tag := range bucketPriority {
		bucket := buckets[tag]
		if len(bucket) > bucketQuota {
			bucket = bucket[:bucketQuota]
		}
		for _, c := range bucket {
			selected = append(selected, c)
			used[c.DedupKey()] = true
		}
	}

	for _, c := range ranked {
		if len(selected) >= SelectionCap {
			break
		}
		if used[c.DedupKey()] {
			continue
		}
		selected = append(selected, c)
		used[c.DedupKey()] = true
	}

	if len(selected) > SelectionCap {
		selected = selected[:SelectionCap]
	}
	return selected
}
