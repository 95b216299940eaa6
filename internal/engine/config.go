// Package engine carries the shared infrastructure of the analytics
// service: configuration, HTTP plumbing, retry/backoff, the payload
// cache, operational metrics, and the LLM client.
package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	AdzunaAppID  string
	AdzunaAppKey string
	RapidAPIKey  string

	OpenAIAPIKey   string
	ChatModel      string
	EmbeddingModel string
	LLMRPS         float64 // extraction calls per second

	DatabaseURL string
	RedisURL    string
	DataDir     string // local run-history database location

	AdminToken string
	Keywords   []string // role keywords refreshed per run

	NecessaryPct float64 // <0 selects the auto 75th-percentile rule
	MaxDaysOld   int     // provider-side posting age filter
	PerProvider  int     // postings requested per provider

	FetchTimeout         time.Duration
	CacheTTL             time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	RefreshInterval      time.Duration

	HTTPClient *http.Client
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	cfg = c
	Cfg = &cfg
}
