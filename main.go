// jobmarket — job-market skill analytics service.
//
// Fetches postings from Adzuna, Indeed, LinkedIn, and Jobspresso, distills
// their skill mentions with an LLM, and serves categorized, trend, and
// necessity analyses per role over HTTP. A scheduler refreshes every
// tracked role on a fixed interval.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anatolykoptev/go_jobmarket/internal/analytics"
	"github.com/anatolykoptev/go_jobmarket/internal/engine"
	"github.com/anatolykoptev/go_jobmarket/internal/engine/sources"
	"github.com/anatolykoptev/go_jobmarket/internal/pipeline"
	"github.com/anatolykoptev/go_jobmarket/internal/store"
	"github.com/anatolykoptev/go_jobmarket/internal/webserver"
)

func main() {
	engine.LoadDotenv()

	httpAddr := engine.EnvStr("HTTP_ADDR", ":8080")
	c := engine.Config{
		AdzunaAppID:  engine.EnvStr("ADZUNA_APP_ID", ""),
		AdzunaAppKey: engine.EnvStr("ADZUNA_APP_KEY", ""),
		RapidAPIKey:  engine.EnvStr("RAPIDAPI_KEY", ""),

		OpenAIAPIKey:   engine.EnvStr("OPENAI_API_KEY", ""),
		ChatModel:      engine.EnvStr("CHAT_MODEL", "gpt-4o-mini"),
		EmbeddingModel: engine.EnvStr("EMBEDDING_MODEL", "text-embedding-3-small"),
		LLMRPS:         engine.EnvFloat("LLM_RPS", 2),

		DatabaseURL: engine.EnvStr("DATABASE_URL", ""),
		RedisURL:    engine.EnvStr("REDIS_URL", ""),
		DataDir:     engine.EnvStr("DATA_DIR", ""),

		AdminToken: engine.EnvStr("ADMIN_TOKEN", ""),
		Keywords:   engine.EnvList("KEYWORDS", []string{"data engineer", "data analyst", "machine learning engineer"}),

		NecessaryPct: engine.EnvFloat("NECESSARY_PCT", -1),
		MaxDaysOld:   engine.EnvInt("MAX_DAYS_OLD", 7),
		PerProvider:  engine.EnvInt("PER_PROVIDER", 30),

		FetchTimeout:         engine.EnvDur("FETCH_TIMEOUT", 30*time.Second),
		CacheTTL:             engine.EnvDur("CACHE_TTL", 15*time.Minute),
		CacheMaxEntries:      engine.EnvInt("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: engine.EnvDur("CACHE_CLEANUP_INTERVAL", 5*time.Minute),
		RefreshInterval:      engine.EnvDur("REFRESH_INTERVAL", 24*time.Hour),
	}
	c.HTTPClient = engine.NewHTTPClient(c.FetchTimeout)
	engine.Init(c)
	engine.InitCache(c.RedisURL, c.CacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
	store.SetRunlogDir(c.DataDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Connect(ctx, c.DatabaseURL)
	if err != nil {
		slog.Error("storage init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	var (
		llm      *engine.LLMClient
		embedder analytics.Embedder
	)
	if c.OpenAIAPIKey != "" {
		llm = engine.NewLLMClient(c.OpenAIAPIKey, c.ChatModel, c.EmbeddingModel, c.LLMRPS)
		embedder = llm
	} else {
		slog.Warn("OPENAI_API_KEY not set, skill extraction and semantic clustering disabled")
	}

	providers := buildProviders(c)
	if len(providers) == 0 {
		slog.Warn("no providers configured, refresh runs will fetch nothing")
	}

	acfg := analytics.DefaultConfig()
	if embedder == nil {
		// Frequency categories only; semantic clustering needs embeddings.
		acfg.Cluster.Analyze = false
	}
	if c.NecessaryPct >= 0 {
		pct := c.NecessaryPct
		acfg.Necessity.NecessaryPct = &pct
	}

	var extractor pipeline.Extractor
	if llm != nil {
		extractor = llm
	}
	pipe := pipeline.New(providers, extractor, embedder, db, acfg)

	sched := pipeline.NewScheduler(pipe, c.Keywords, c.RefreshInterval)
	go sched.Run(ctx)

	var rm webserver.Roadmapper
	if llm != nil {
		rm = llm
	}
	srv := webserver.New(db, pipe, rm, c.Keywords, c.AdminToken)
	if err := srv.ListenAndServe(ctx, httpAddr); err != nil {
		slog.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// buildProviders assembles the providers whose credentials are present.
// Jobspresso needs none.
func buildProviders(c engine.Config) []sources.Provider {
	var providers []sources.Provider

	if c.AdzunaAppID != "" && c.AdzunaAppKey != "" {
		providers = append(providers, &sources.Adzuna{AppID: c.AdzunaAppID, AppKey: c.AdzunaAppKey})
	} else {
		slog.Warn("ADZUNA_APP_ID/ADZUNA_APP_KEY not set, skipping adzuna")
	}

	if c.RapidAPIKey != "" {
		providers = append(providers,
			&sources.Indeed{APIKey: c.RapidAPIKey},
			&sources.LinkedIn{APIKey: c.RapidAPIKey})
	} else {
		slog.Warn("RAPIDAPI_KEY not set, skipping indeed and linkedin")
	}

	providers = append(providers, &sources.Jobspresso{})
	return providers
}
