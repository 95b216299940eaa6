package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/anatolykoptev/go_jobmarket/internal/engine"
)

const adzunaSearchAPI = "https://api.adzuna.com/v1/api/jobs/us/search/1"
const adzunaDetailBase = "https://www.adzuna.com/details/"

type adzunaResponse struct {
	Results []adzunaJob `json:"results"`
}

type adzunaJob struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"redirect_url"`
	// Created is RFC 3339, e.g. "2025-08-14T09:30:00Z".
	Created     string  `json:"created"`
	Description string  `json:"description"`
	SalaryMin   float64 `json:"salary_min"`
	SalaryMax   float64 `json:"salary_max"`
	Location    struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
}

// Adzuna queries the Adzuna search API. The search response only carries a
// description snippet, so each posting's full text is scraped from the
// public detail page.
type Adzuna struct {
	AppID  string
	AppKey string
}

func (a *Adzuna) Name() string { return "adzuna" }

func (a *Adzuna) Fetch(ctx context.Context, keyword string) ([]Posting, error) {
	engine.Incr(engine.MetricAdzunaRequests)

	u, err := url.Parse(adzunaSearchAPI)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("app_id", a.AppID)
	q.Set("app_key", a.AppKey)
	q.Set("what_phrase", keyword)
	q.Set("max_days_old", strconv.Itoa(engine.Cfg.MaxDaysOld))
	q.Set("results_per_page", strconv.Itoa(engine.Cfg.PerProvider))
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, engine.Cfg.FetchTimeout)
	defer cancel()

	body, err := engine.FetchBody(ctx, engine.DefaultRetryConfig, http.MethodGet, u.String(), map[string]string{
		"User-Agent": engine.UserAgentBot,
		"Accept":     "application/json",
	}, nil)
	if err != nil {
		return nil, err
	}

	postings, err := parseAdzunaResponse(body)
	if err != nil {
		return nil, err
	}

	// Replace API snippets with the full detail-page text where the
	// scrape succeeds.
	for i := range postings {
		if desc := a.fetchDetail(ctx, postings[i].JobID); desc != "" {
			postings[i].Description = desc
		}
	}
	return postings, nil
}

// parseAdzunaResponse parses the search API response. Descriptions are the
// API's snippets; the caller upgrades them from the detail pages.
func parseAdzunaResponse(body []byte) ([]Posting, error) {
	var ar adzunaResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return nil, fmt.Errorf("adzuna parse error: %w", err)
	}

	postings := make([]Posting, 0, len(ar.Results))
	for _, j := range ar.Results {
		if j.ID == "" || j.Title == "" {
			continue
		}
		postings = append(postings, Posting{
			JobID:       j.ID,
			Title:       j.Title,
			Location:    j.Location.DisplayName,
			URL:         j.URL,
			Created:     j.Created,
			Salary:      formatSalaryRange(j.SalaryMin, j.SalaryMax),
			Description: j.Description,
		})
	}
	return postings, nil
}

// fetchDetail scrapes the full description from the public detail page.
// Returns "" on any failure; the caller falls back to the API snippet.
func (a *Adzuna) fetchDetail(ctx context.Context, id string) string {
	req, err := http.NewRequestWithContext(ctx, "GET", adzunaDetailBase+id, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", engine.UserAgentBrowser)

	resp, err := engine.Cfg.HTTPClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("section.adp-body").Text())
}

func formatSalaryRange(min, max float64) string {
	if min == 0 && max == 0 {
		return ""
	}
	if min == max {
		return fmt.Sprintf("$%.0f", max)
	}
	return fmt.Sprintf("$%.0f - $%.0f", min, max)
}
