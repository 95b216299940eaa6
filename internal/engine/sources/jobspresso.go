package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"

	"github.com/anatolykoptev/go_jobmarket/internal/engine"
)

const jobspressoFeedBase = "https://jobspresso.co/"

type jobspressoRSS struct {
	XMLName xml.Name          `xml:"rss"`
	Channel jobspressoChannel `xml:"channel"`
}

type jobspressoChannel struct {
	Items []jobspressoItem `xml:"item"`
}

type jobspressoItem struct {
	GUID    string `xml:"guid"`
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
	// content:encoded in the http://purl.org/rss/1.0/modules/content/ namespace.
	Content  string `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
	Location string `xml:"job_listing_region"`
}

// Jobspresso fetches the remote-jobs RSS feed. The feed is category-scoped
// rather than keyword-searchable, so the keyword goes into the job_keywords
// filter and the feed's job type is fixed to the tech categories.
type Jobspresso struct{}

func (j *Jobspresso) Name() string { return "jobspresso" }

func (j *Jobspresso) Fetch(ctx context.Context, keyword string) ([]Posting, error) {
	engine.Incr(engine.MetricJobspressoRequests)

	u, err := url.Parse(jobspressoFeedBase)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("feed", "job_feed")
	q.Set("job_types", "ai-data")
	q.Set("search_keywords", keyword)
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, engine.Cfg.FetchTimeout)
	defer cancel()

	body, err := engine.FetchBody(ctx, engine.DefaultRetryConfig, http.MethodGet, u.String(), map[string]string{
		"User-Agent": engine.UserAgentBot,
		"Accept":     "application/xml, application/rss+xml",
	}, nil)
	if err != nil {
		return nil, err
	}
	return parseJobspressoFeed(body)
}

func parseJobspressoFeed(body []byte) ([]Posting, error) {
	var rss jobspressoRSS
	if err := xml.Unmarshal(body, &rss); err != nil {
		return nil, fmt.Errorf("jobspresso parse error: %w", err)
	}

	items := rss.Channel.Items
	if max := engine.Cfg.PerProvider; max > 0 && len(items) > max {
		items = items[:max]
	}

	postings := make([]Posting, 0, len(items))
	for _, it := range items {
		if it.Title == "" {
			continue
		}
		id := it.GUID
		if id == "" {
			id = it.Link
		}
		postings = append(postings, Posting{
			JobID:       id,
			Title:       it.Title,
			Location:    it.Location,
			URL:         it.Link,
			Created:     it.PubDate,
			Description: engine.CleanHTML(it.Content),
		})
	}
	return postings, nil
}
