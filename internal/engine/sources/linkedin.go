package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/anatolykoptev/go_jobmarket/internal/engine"
)

const linkedinAPIHost = "linkedin-scraper-api-real-time-fast-affordable.p.rapidapi.com"
const linkedinAPIURL = "https://" + linkedinAPIHost + "/jobs/search"

type linkedinResponse struct {
	Data struct {
		Jobs []linkedinJob `json:"jobs"`
	} `json:"data"`
}

type linkedinJob struct {
	JobID       string `json:"job_id"`
	JobTitle    string `json:"job_title"`
	Location    string `json:"location"`
	CreatedAt   string `json:"created_at"`
	Description string `json:"description"`
	JobURL      string `json:"job_url"`
	Salary      string `json:"salary"`
}

// LinkedIn queries the LinkedIn scraper API on RapidAPI.
type LinkedIn struct {
	APIKey string
}

func (l *LinkedIn) Name() string { return "linkedin" }

func (l *LinkedIn) Fetch(ctx context.Context, keyword string) ([]Posting, error) {
	engine.Incr(engine.MetricLinkedInRequests)

	u, err := url.Parse(linkedinAPIURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("keywords", keyword)
	q.Set("location", "United States")
	q.Set("page_number", "1")
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, engine.Cfg.FetchTimeout)
	defer cancel()

	body, err := engine.FetchBody(ctx, engine.DefaultRetryConfig, http.MethodGet, u.String(), map[string]string{
		"x-rapidapi-key":  l.APIKey,
		"x-rapidapi-host": linkedinAPIHost,
	}, nil)
	if err != nil {
		return nil, err
	}

	return parseLinkedInResponse(body)
}

func parseLinkedInResponse(body []byte) ([]Posting, error) {
	var lr linkedinResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, fmt.Errorf("linkedin parse error: %w", err)
	}

	jobs := lr.Data.Jobs
	if max := engine.Cfg.PerProvider; max > 0 && len(jobs) > max {
		jobs = jobs[:max]
	}

	postings := make([]Posting, 0, len(jobs))
	for _, j := range jobs {
		if j.JobID == "" || j.JobTitle == "" {
			continue
		}
		postings = append(postings, Posting{
			JobID:       j.JobID,
			Title:       j.JobTitle,
			Location:    j.Location,
			URL:         j.JobURL,
			Created:     j.CreatedAt,
			Salary:      j.Salary,
			Description: j.Description,
		})
	}
	return postings, nil
}
