// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/content-engine/pkg/types"
)

// Declared as a var so tests can substitute an httptest server.
var preprintAPIBase = "https://api.biorxiv.org"

const (
	preprintPageSize = 100
	maxPreprintPages = 3
)

// PreprintAdapter queries the bioRxiv details API, which also serves
// medRxiv records under a different server segment. The API has no
// keyword search, so pages of a date window are filtered locally
// against the query words.
type PreprintAdapter struct {
	Server    string
	Client    *http.Client
	UserAgent string
	Pacer     *Pacer
	Log       *zap.Logger
}

func (a *PreprintAdapter) Name() string { return a.Server }

// Fetch returns preprints within the window whose title or abstract
// contains every query word. Errors are logged and collapse to an
// empty result.
func (a *PreprintAdapter) Fetch(ctx context.Context, query string, maxResults int, window DateWindow) []types.Candidate {
	cands, err := a.fetch(ctx, query, maxResults, window)
	if err != nil {
		a.Log.Warn("preprint fetch failed",
			zap.String("server", a.Server),
			zap.String("query", query),
			zap.Error(err))
		return nil
	}
	return cands
}

func (a *PreprintAdapter) fetch(ctx context.Context, query string, maxResults int, window DateWindow) ([]types.Candidate, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	words := queryWords(query)

	var collected []types.Candidate
	for cursor := 0; cursor < preprintPageSize*maxPreprintPages; cursor += preprintPageSize {
		items, err := a.page(ctx, window, cursor)
		if err != nil {
			if cursor == 0 {
				return nil, err
			}
			// Keep what earlier pages produced.
			a.Log.Debug("preprint page failed", zap.String("server", a.Server), zap.Int("cursor", cursor), zap.Error(err))
			break
		}
		if len(items) == 0 {
			break
		}
		for _, item := range items {
			if matchesQuery(item.Title, item.Abstract, words) {
				collected = append(collected, a.toCandidate(item))
			}
		}
		if len(collected) >= maxResults {
			break
		}
	}
	if len(collected) > maxResults {
		collected = collected[:maxResults]
	}
	return collected, nil
}

// page fetches one cursor page of the details listing.
func (a *PreprintAdapter) page(ctx context.Context, window DateWindow, cursor int) ([]preprintItem, error) {
	u := fmt.Sprintf("%s/details/%s/%s/%s/%d/json",
		preprintAPIBase, a.Server,
		window.From.Format("2006-01-02"), window.To.Format("2006-01-02"), cursor)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", a.Server, err)
	}
	req.Header.Set("User-Agent", a.UserAgent)

	if err := a.Pacer.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s API request: %w", a.Server, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s API returned HTTP %d", a.Server, resp.StatusCode)
	}

	var parsed preprintResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", a.Server, err)
	}
	return parsed.Collection, nil
}

type preprintResponse struct {
	Collection []preprintItem `json:"collection"`
}

type preprintItem struct {
	Title    string `json:"title"`
	Authors  string `json:"authors"`
	Abstract string `json:"abstract"`
	DOI      string `json:"doi"`
	Date     string `json:"date"`
}

func (a *PreprintAdapter) toCandidate(item preprintItem) types.Candidate {
	var authors []string
	if item.Authors != "" {
		authors = strings.Split(item.Authors, "; ")
		if len(authors) > 5 {
			authors = authors[:5]
		}
	}

	var date time.Time
	if t, err := time.Parse("2006-01-02", item.Date); err == nil {
		date = t
	}

	return types.Candidate{
		Title:      item.Title,
		Authors:    authors,
		Abstract:   item.Abstract,
		Venue:      a.Server + " (preprint)",
		Identifier: item.DOI,
		Date:       date,
		URL:        fmt.Sprintf("https://www.%s.org/content/%s", a.Server, item.DOI),
		Categories: []string{a.Server, types.CategoryPreprint},
	}
}

// queryWords splits the query into lowercase match words. Short words
// are dropped before normalization so a bare "B12" still filters.
func queryWords(query string) []string {
	var words []string
	for _, w := range strings.Fields(query) {
		if len(w) < 3 {
			continue
		}
		words = append(words, strings.Trim(strings.ToLower(w), "+"))
	}
	return words
}

// matchesQuery reports whether every word appears in the combined
// lowercase title and abstract. No words means no match.
func matchesQuery(title, abstract string, words []string) bool {
	if len(words) == 0 {
		return false
	}
	text := strings.ToLower(title) + " " + strings.ToLower(abstract)
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}
