// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/content-engine/pkg/types"
)

// Declared as a var so tests can substitute an httptest server.
var trialsAPIBase = "https://clinicaltrials.gov/api/v2"

// TrialsAdapter queries the ClinicalTrials.gov v2 study search.
type TrialsAdapter struct {
	Client    *http.Client
	UserAgent string
	Pacer     *Pacer
	Log       *zap.Logger

	// Status filters studies by recruitment status. Empty means
	// actively recruiting.
	Status string
}

func (a *TrialsAdapter) Name() string { return "clinical_trials" }

// Fetch returns recruiting studies matching the query. The registry
// search has no useful date filter, so the window is ignored. Errors
// are logged and collapse to an empty result.
func (a *TrialsAdapter) Fetch(ctx context.Context, query string, maxResults int, _ DateWindow) []types.Candidate {
	cands, err := a.fetch(ctx, query, maxResults)
	if err != nil {
		a.Log.Warn("clinical trials fetch failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	return cands
}

func (a *TrialsAdapter) fetch(ctx context.Context, query string, maxResults int) ([]types.Candidate, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	status := a.Status
	if status == "" {
		status = "RECRUITING"
	}

	params := url.Values{}
	params.Set("query.term", query)
	params.Set("filter.overallStatus", status)
	params.Set("pageSize", strconv.Itoa(maxResults))
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trialsAPIBase+"/studies?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building clinical trials request: %w", err)
	}
	req.Header.Set("User-Agent", a.UserAgent)

	if err := a.Pacer.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("clinical trials API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("clinical trials API returned HTTP %d", resp.StatusCode)
	}

	var parsed trialsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing clinical trials response: %w", err)
	}

	cands := make([]types.Candidate, 0, len(parsed.Studies))
	for _, study := range parsed.Studies {
		cands = append(cands, study.toCandidate())
	}
	return cands, nil
}

type trialsResponse struct {
	Studies []trialStudy `json:"studies"`
}

type trialStudy struct {
	Protocol trialProtocol `json:"protocolSection"`
}

type trialProtocol struct {
	Identification trialIdentification `json:"identificationModule"`
	Status         trialStatus         `json:"statusModule"`
	Description    trialDescription    `json:"descriptionModule"`
	Conditions     trialConditions     `json:"conditionsModule"`
	Design         trialDesign         `json:"designModule"`
}

type trialIdentification struct {
	NCTID      string `json:"nctId"`
	BriefTitle string `json:"briefTitle"`
}

type trialStatus struct {
	OverallStatus string         `json:"overallStatus"`
	StartDate     trialStartDate `json:"startDateStruct"`
}

type trialStartDate struct {
	Date string `json:"date"`
}

type trialDescription struct {
	BriefSummary string `json:"briefSummary"`
}

type trialConditions struct {
	Conditions []string `json:"conditions"`
}

type trialDesign struct {
	Phases []string `json:"phases"`
}

// toCandidate maps one study record onto a Candidate. Conditions join
// the category tags so scoring and display can surface them.
func (s trialStudy) toCandidate() types.Candidate {
	p := s.Protocol

	var date time.Time
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.Parse(layout, p.Status.StartDate.Date); err == nil {
			date = t
			break
		}
	}

	conditions := p.Conditions.Conditions
	if len(conditions) > 3 {
		conditions = conditions[:3]
	}
	categories := append([]string{types.CategoryClinicalTrial}, conditions...)

	venue := "ClinicalTrials.gov"
	if len(p.Design.Phases) > 0 {
		venue = fmt.Sprintf("ClinicalTrials.gov (%s)", strings.Join(p.Design.Phases, ", "))
	}

	return types.Candidate{
		Title:      "[Clinical Trial] " + p.Identification.BriefTitle,
		Abstract:   p.Description.BriefSummary,
		Venue:      venue,
		Identifier: p.Identification.NCTID,
		Date:       date,
		URL:        "https://clinicaltrials.gov/study/" + p.Identification.NCTID,
		Categories: categories,
	}
}
