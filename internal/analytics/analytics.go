package analytics

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"
)

// Config bundles the three component configurations for one analysis run.
type Config struct {
	Cluster   ClusterConfig
	Trend     TrendConfig
	Necessity NecessityConfig
}

// DefaultConfig mirrors the production defaults of all three components.
func DefaultConfig() Config {
	return Config{
		Cluster:   DefaultClusterConfig(),
		Trend:     DefaultTrendConfig(),
		Necessity: DefaultNecessityConfig(),
	}
}

// Payload is the serialized output consumed by the persistence/web layer.
// Degenerate input yields empty-string charts and an empty skill list.
type Payload struct {
	CategoryChart      string   `json:"category_chart"`
	TrendChart         string   `json:"trend_chart"`
	NecessityChart     string   `json:"necessity_chart"`
	TrendingSkillNames []string `json:"trending_skill_names"`
}

// Result is the full analysis output: the payload plus the numeric data
// that justifies each chart.
type Result struct {
	Payload    Payload
	Categories CategoryResult
	Trend      TrendResult
	Necessity  NecessityResult
	Elapsed    time.Duration
}

// Run executes the three analytical components over one normalized frame
// built from the posting set. The frame is built once and passed
// explicitly; the components are independent pure functions of it.
// Data-quality degradations produce empty partial results; only embedder
// and rendering failures surface as errors.
func Run(ctx context.Context, records []Record, emb Embedder, cfg Config) (Result, error) {
	start := time.Now()
	frame := NewFrame(records)

	if cfg.Cluster.Analyze && emb == nil {
		slog.Warn("analytics: no embedder, falling back to frequency categories")
		cfg.Cluster.Analyze = false
	}

	cats, err := TopCategories(ctx, frame, emb, cfg.Cluster)
	if err != nil {
		return Result{}, fmt.Errorf("analytics: %w", err)
	}

	trend, err := SkillTrends(frame, cfg.Trend)
	if err != nil {
		return Result{}, fmt.Errorf("analytics: %w", err)
	}

	necessity, err := ClassifyNecessity(records, cfg.Necessity)
	if err != nil {
		return Result{}, fmt.Errorf("analytics: %w", err)
	}

	res := Result{
		Payload: Payload{
			CategoryChart:      encodeChart(cats.Chart),
			TrendChart:         encodeChart(trend.Chart),
			NecessityChart:     encodeChart(necessity.Chart),
			TrendingSkillNames: trend.Skills,
		},
		Categories: cats,
		Trend:      trend,
		Necessity:  necessity,
		Elapsed:    time.Since(start),
	}
	if res.Payload.TrendingSkillNames == nil {
		res.Payload.TrendingSkillNames = []string{}
	}

	slog.Info("analytics: run complete",
		slog.Int("postings", frame.Postings),
		slog.Int("observations", len(frame.Rows)),
		slog.Int("categories", len(cats.Categories)),
		slog.Int("labeled_skills", len(necessity.Records)),
		slog.Duration("elapsed", res.Elapsed))
	return res, nil
}

// encodeChart base64-encodes PNG bytes; nil stays the empty-string
// placeholder required by the output contract.
func encodeChart(png []byte) string {
	if len(png) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(png)
}
