// Package pipeline runs the fetch, extract, store, analyze cycle for each
// tracked role.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/anatolykoptev/go_jobmarket/internal/analytics"
	"github.com/anatolykoptev/go_jobmarket/internal/engine"
	"github.com/anatolykoptev/go_jobmarket/internal/engine/sources"
	"github.com/anatolykoptev/go_jobmarket/internal/store"
)

// Extractor distills a posting's text into a comma-separated skill list.
type Extractor interface {
	ExtractSkills(ctx context.Context, candidates string) (string, error)
}

// Store is the persistence surface the pipeline needs.
type Store interface {
	UpsertPostings(ctx context.Context, postings []sources.Posting) (map[string]int64, int, error)
	SaveSkillText(ctx context.Context, jobRowID int64, text string, tokens []string) error
	LoadRecords(ctx context.Context, keyword string) ([]analytics.Record, error)
	ReplaceCached(ctx context.Context, role string, p analytics.Payload) error
}

// Pipeline ties providers, extraction, storage, and analytics together.
type Pipeline struct {
	providers []sources.Provider
	extractor Extractor
	embedder  analytics.Embedder
	db        Store
	cfg       analytics.Config

	running atomic.Bool
}

// ErrBusy is returned when a refresh is already in progress.
var ErrBusy = fmt.Errorf("refresh already running")

func New(providers []sources.Provider, ex Extractor, emb analytics.Embedder, db Store, cfg analytics.Config) *Pipeline {
	return &Pipeline{providers: providers, extractor: ex, embedder: emb, db: db, cfg: cfg}
}

// Running reports whether a refresh is in progress.
func (p *Pipeline) Running() bool { return p.running.Load() }

// RefreshAll runs the full cycle for every tracked role, one at a time. Only
// one refresh may run at once.
func (p *Pipeline) RefreshAll(ctx context.Context, roles []string) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer p.running.Store(false)

	for _, role := range roles {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := p.refreshRole(ctx, role); err != nil {
			engine.Incr(engine.MetricAnalysisErrors)
			slog.Error("role refresh failed", slog.String("role", role), slog.Any("error", err))
		}
	}
	return nil
}

// refreshRole fetches new postings for one role, extracts skills for the
// ones that carry text, and recomputes the analysis over the full stored
// history for that role.
func (p *Pipeline) refreshRole(ctx context.Context, role string) error {
	started := time.Now()
	run := store.PipelineRun{Role: role, StartedAt: started}
	defer func() {
		run.FinishedAt = time.Now()
		if _, err := store.RecordRun(context.WithoutCancel(ctx), run); err != nil {
			slog.Warn("runlog write failed", slog.Any("error", err))
		}
	}()

	postings := sources.FetchAll(ctx, p.providers, role)
	run.Fetched = len(postings)

	ids, inserted, err := p.db.UpsertPostings(ctx, postings)
	if err != nil {
		run.Error = err.Error()
		return err
	}
	run.Inserted = inserted

	run.Extracted = p.extractSkills(ctx, postings, ids)

	records, err := p.db.LoadRecords(ctx, role)
	if err != nil {
		run.Error = err.Error()
		return err
	}

	engine.Incr(engine.MetricAnalysisRuns)
	res, err := analytics.Run(ctx, records, p.embedder, p.cfg)
	if err != nil {
		run.Error = err.Error()
		return err
	}

	if err := p.db.ReplaceCached(ctx, role, res.Payload); err != nil {
		run.Error = err.Error()
		return err
	}
	engine.CacheDelete(ctx, engine.CacheKey("analysis", role))
	run.Analyzed = true

	slog.Info("role refreshed",
		slog.String("role", role),
		slog.Int("fetched", run.Fetched),
		slog.Int("inserted", run.Inserted),
		slog.Int("extracted", run.Extracted),
		slog.Duration("elapsed", time.Since(started)))
	return nil
}

// extractSkills runs LLM extraction for postings that have candidate text
// and stores the result. Extraction failures skip the posting; the row keeps
// a NULL skill field and stays out of skill counting.
func (p *Pipeline) extractSkills(ctx context.Context, postings []sources.Posting, ids map[string]int64) int {
	if p.extractor == nil {
		return 0
	}
	extracted := 0
	for _, posting := range postings {
		rowID, ok := ids[posting.JobID]
		if !ok {
			continue
		}

		candidates := posting.RawSkills
		if candidates == "" && posting.Description != "" {
			candidates = engine.TruncateRunes(engine.HTMLToMarkdown(posting.Description), 6000)
		}
		if strings.TrimSpace(candidates) == "" {
			continue
		}

		text, err := p.extractor.ExtractSkills(ctx, candidates)
		if err != nil {
			slog.Warn("skill extraction failed",
				slog.String("job_id", posting.JobID), slog.Any("error", err))
			continue
		}

		field := analytics.SkillText(text)
		if field.Kind() == analytics.SkillFieldText {
			if err := p.db.SaveSkillText(ctx, rowID, text, field.UniqueTokens()); err != nil {
				slog.Warn("skill save failed",
					slog.String("job_id", posting.JobID), slog.Any("error", err))
				continue
			}
		} else {
			// Blank model output: record the no-skills sentinel so the row
			// is not re-extracted and counts toward coverage.
			if err := p.db.SaveSkillText(ctx, rowID, analytics.SentinelNoSkills, nil); err != nil {
				slog.Warn("skill save failed",
					slog.String("job_id", posting.JobID), slog.Any("error", err))
				continue
			}
		}
		extracted++
	}
	return extracted
}
