package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go_jobmarket/internal/engine"
)

const indeedAPIHost = "indeed-scraper-api.p.rapidapi.com"
const indeedAPIURL = "https://" + indeedAPIHost + "/api/job"

type indeedRequest struct {
	Scraper indeedScraper `json:"scraper"`
}

type indeedScraper struct {
	MaxRows  int    `json:"maxRows"`
	Query    string `json:"query"`
	JobType  string `json:"jobType"`
	Sort     string `json:"sort"`
	FromDays string `json:"fromDays"`
	Country  string `json:"country"`
}

type indeedResponse struct {
	ReturnValue struct {
		Data []indeedJob `json:"data"`
	} `json:"returnvalue"`
}

type indeedJob struct {
	JobKey   string `json:"jobKey"`
	Title    string `json:"title"`
	JobURL   string `json:"jobUrl"`
	Location struct {
		Country string `json:"country"`
	} `json:"location"`
	DatePublished string   `json:"datePublished"`
	Attributes    []string `json:"attributes"`
	Salary        struct {
		SalaryText string `json:"salaryText"`
	} `json:"salary"`
}

// Indeed queries the Indeed scraper API on RapidAPI. Postings carry no full
// description; the attribute tags serve as the skill candidates instead.
type Indeed struct {
	APIKey string
}

func (in *Indeed) Name() string { return "indeed" }

func (in *Indeed) Fetch(ctx context.Context, keyword string) ([]Posting, error) {
	engine.Incr(engine.MetricIndeedRequests)

	payload, err := json.Marshal(indeedRequest{Scraper: indeedScraper{
		MaxRows:  engine.Cfg.PerProvider,
		Query:    keyword,
		JobType:  "fulltime",
		Sort:     "relevance",
		FromDays: "1",
		Country:  "us",
	}})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, engine.Cfg.FetchTimeout)
	defer cancel()

	body, err := engine.FetchBody(ctx, engine.DefaultRetryConfig, http.MethodPost, indeedAPIURL, map[string]string{
		"Content-Type":    "application/json",
		"x-rapidapi-key":  in.APIKey,
		"x-rapidapi-host": indeedAPIHost,
	}, payload)
	if err != nil {
		return nil, err
	}

	return parseIndeedResponse(body)
}

func parseIndeedResponse(body []byte) ([]Posting, error) {
	var ir indeedResponse
	if err := json.Unmarshal(body, &ir); err != nil {
		return nil, fmt.Errorf("indeed parse error: %w", err)
	}

	postings := make([]Posting, 0, len(ir.ReturnValue.Data))
	for _, j := range ir.ReturnValue.Data {
		if j.JobKey == "" || j.Title == "" {
			continue
		}
		postings = append(postings, Posting{
			JobID:     j.JobKey,
			Title:     j.Title,
			Location:  j.Location.Country,
			URL:       j.JobURL,
			Created:   j.DatePublished,
			Salary:    j.Salary.SalaryText,
			RawSkills: strings.Join(j.Attributes, ", "),
		})
	}
	return postings, nil
}
