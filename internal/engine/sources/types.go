// Package sources implements the job-board connectors. Each provider turns
// one remote API into a slice of Posting values for a single search keyword.
package sources

import (
	"context"
	"log/slog"
	"sync"

	"github.com/anatolykoptev/go_jobmarket/internal/engine"
)

// Posting is one fetched job ad, normalized across providers. Created and
// RawSkills stay raw strings; the analytics layer owns parsing them.
type Posting struct {
	JobID       string
	Title       string
	Location    string
	URL         string
	Created     string
	Salary      string
	Description string
	RawSkills   string
	Keyword     string
}

// Provider fetches postings for one search keyword.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, keyword string) ([]Posting, error)
}

// FetchAll queries every provider for the keyword, concurrently, behind each
// provider's circuit breaker. One provider failing never drops the others'
// results.
func FetchAll(ctx context.Context, providers []Provider, keyword string) []Posting {
	var (
		mu  sync.Mutex
		all []Posting
		wg  sync.WaitGroup
	)

	for _, p := range providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()

			got, err := engine.Breaker(p.Name()).Execute(func() (any, error) {
				return p.Fetch(ctx, keyword)
			})
			if err != nil {
				engine.Incr(engine.MetricProviderErrors)
				slog.Warn("provider fetch failed",
					slog.String("provider", p.Name()),
					slog.String("keyword", keyword),
					slog.Any("error", err))
				return
			}

			postings := got.([]Posting)
			for i := range postings {
				postings[i].Keyword = keyword
			}

			mu.Lock()
			all = append(all, postings...)
			mu.Unlock()

			slog.Info("provider fetch complete",
				slog.String("provider", p.Name()),
				slog.String("keyword", keyword),
				slog.Int("postings", len(postings)))
		}(p)
	}
	wg.Wait()

	return all
}
