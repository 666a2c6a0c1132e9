// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/content-engine/internal/httputil"
	"github.com/pdiddy/content-engine/pkg/types"
)

// Declared as a var so tests can substitute an httptest server.
var pubmedAPIBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// PubMedAdapter queries the NCBI eutils endpoints: esearch for PMIDs
// matching a term, efetch for the article records.
type PubMedAdapter struct {
	Client    *http.Client
	UserAgent string
	Pacer     *Pacer
	Log       *zap.Logger
}

func (a *PubMedAdapter) Name() string { return types.CategoryPubMed }

// Fetch returns recent PubMed articles matching the query. Errors are
// logged and collapse to an empty result.
func (a *PubMedAdapter) Fetch(ctx context.Context, query string, maxResults int, window DateWindow) []types.Candidate {
	cands, err := a.fetch(ctx, query, maxResults, window)
	if err != nil {
		a.Log.Warn("pubmed fetch failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	return cands
}

func (a *PubMedAdapter) fetch(ctx context.Context, query string, maxResults int, window DateWindow) ([]types.Candidate, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	ids, err := a.search(ctx, query, maxResults, window)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return a.details(ctx, ids)
}

// search runs esearch and returns the matching PMIDs.
func (a *PubMedAdapter) search(ctx context.Context, query string, maxResults int, window DateWindow) ([]string, error) {
	term := "(" + query + ")"
	if !window.IsZero() {
		term += " AND " + window.From.Format("2006/01/02") + ":" + window.To.Format("2006/01/02") + "[dp]"
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", term)
	params.Set("retmax", strconv.Itoa(maxResults))
	params.Set("retmode", "json")
	params.Set("sort", "relevance")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pubmedAPIBase+"/esearch.fcgi?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building pubmed search request: %w", err)
	}
	req.Header.Set("User-Agent", a.UserAgent)

	if err := a.Pacer.Wait(ctx); err != nil {
		return nil, err
	}
	// NCBI throttles aggressively, so retry transient failures here.
	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 2)
	if err != nil {
		return nil, fmt.Errorf("pubmed search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pubmed search returned HTTP %d", resp.StatusCode)
	}

	var parsed esearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing pubmed search response: %w", err)
	}
	return parsed.ESearchResult.IDList, nil
}

// details runs efetch for the given PMIDs and parses the article XML.
func (a *PubMedAdapter) details(ctx context.Context, pmids []string) ([]types.Candidate, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(pmids, ","))
	params.Set("retmode", "xml")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pubmedAPIBase+"/efetch.fcgi?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building pubmed fetch request: %w", err)
	}
	req.Header.Set("User-Agent", a.UserAgent)

	if err := a.Pacer.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 2)
	if err != nil {
		return nil, fmt.Errorf("pubmed fetch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pubmed fetch returned HTTP %d", resp.StatusCode)
	}

	var set pubmedArticleSet
	if err := xml.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("parsing pubmed article XML: %w", err)
	}

	cands := make([]types.Candidate, 0, len(set.Articles))
	for _, art := range set.Articles {
		cands = append(cands, art.Citation.toCandidate())
	}
	return cands, nil
}

type esearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation pubmedCitation `xml:"MedlineCitation"`
}

type pubmedCitation struct {
	PMID          string      `xml:"PMID"`
	DateCompleted pubmedDate  `xml:"DateCompleted"`
	Article       pubmedPaper `xml:"Article"`
}

type pubmedDate struct {
	Year string `xml:"Year"`
}

type pubmedPaper struct {
	Title      string            `xml:"ArticleTitle"`
	Journal    pubmedJournal     `xml:"Journal"`
	Abstract   pubmedAbstract    `xml:"Abstract"`
	Authors    []pubmedAuthor    `xml:"AuthorList>Author"`
	ELocations []pubmedELocation `xml:"ELocationID"`
}

type pubmedJournal struct {
	Title string `xml:"Title"`
}

type pubmedAbstract struct {
	Sections []string `xml:"AbstractText"`
}

type pubmedAuthor struct {
	LastName string `xml:"LastName"`
	ForeName string `xml:"ForeName"`
}

type pubmedELocation struct {
	Type  string `xml:"EIdType,attr"`
	Value string `xml:",chardata"`
}

// toCandidate maps one MedlineCitation record onto a Candidate.
// Structured abstracts arrive as multiple AbstractText sections, which
// are joined into one body.
func (c pubmedCitation) toCandidate() types.Candidate {
	var authors []string
	for _, au := range c.Article.Authors {
		if au.LastName == "" {
			continue
		}
		authors = append(authors, strings.TrimSpace(au.LastName+" "+au.ForeName))
		if len(authors) == 5 {
			break
		}
	}

	var doi string
	for _, loc := range c.Article.ELocations {
		if loc.Type == "doi" {
			doi = strings.TrimSpace(loc.Value)
			break
		}
	}

	var date time.Time
	if year, err := strconv.Atoi(c.DateCompleted.Year); err == nil && year > 0 {
		date = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	var link string
	if c.PMID != "" {
		link = "https://pubmed.ncbi.nlm.nih.gov/" + c.PMID + "/"
	}

	return types.Candidate{
		Title:      strings.TrimSpace(c.Article.Title),
		Authors:    authors,
		Abstract:   strings.TrimSpace(strings.Join(c.Article.Abstract.Sections, " ")),
		Venue:      c.Article.Journal.Title,
		Identifier: doi,
		Date:       date,
		URL:        link,
		Categories: []string{types.CategoryPubMed},
	}
}
