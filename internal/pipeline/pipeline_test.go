package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/anatolykoptev/go_jobmarket/internal/analytics"
	"github.com/anatolykoptev/go_jobmarket/internal/engine/sources"
	"github.com/anatolykoptev/go_jobmarket/internal/store"
)

type fakeProvider struct {
	name     string
	postings []sources.Posting
	err      error
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) Fetch(ctx context.Context, keyword string) ([]sources.Posting, error) {
	return f.postings, f.err
}

type fakeExtractor struct {
	out   string
	err   error
	calls int
}

func (f *fakeExtractor) ExtractSkills(ctx context.Context, candidates string) (string, error) {
	f.calls++
	return f.out, f.err
}

type fakeStore struct {
	mu      sync.Mutex
	saved   map[int64]string
	cached  map[string]analytics.Payload
	records []analytics.Record
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		saved:  map[int64]string{},
		cached: map[string]analytics.Payload{},
	}
}

func (f *fakeStore) UpsertPostings(ctx context.Context, postings []sources.Posting) (map[string]int64, int, error) {
	ids := map[string]int64{}
	for i, p := range postings {
		ids[p.JobID] = int64(i + 1)
	}
	return ids, len(postings), nil
}

func (f *fakeStore) SaveSkillText(ctx context.Context, jobRowID int64, text string, tokens []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[jobRowID] = text
	return nil
}

func (f *fakeStore) LoadRecords(ctx context.Context, keyword string) ([]analytics.Record, error) {
	return f.records, nil
}

func (f *fakeStore) ReplaceCached(ctx context.Context, role string, p analytics.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cached[role] = p
	return nil
}

func testConfig() analytics.Config {
	cfg := analytics.DefaultConfig()
	cfg.Cluster.Analyze = false
	return cfg
}

func TestRefreshAllStoresAnalysis(t *testing.T) {
	store.SetRunlogDir(t.TempDir())

	providers := []sources.Provider{&fakeProvider{
		name: "fake",
		postings: []sources.Posting{
			{JobID: "j1", Title: "Data Engineer", Created: "2025-08-14", Description: "desc"},
			{JobID: "j2", Title: "Data Engineer", Created: "2025-08-14", Description: "desc"},
		},
	}}
	ex := &fakeExtractor{out: "python, sql"}
	db := newFakeStore()
	db.records = []analytics.Record{
		{JobID: "j1", Created: "2025-08-14", Skills: analytics.SkillText("python, sql"), Keyword: "data engineer"},
		{JobID: "j2", Created: "2025-08-14", Skills: analytics.SkillText("python"), Keyword: "data engineer"},
	}

	p := New(providers, ex, nil, db, testConfig())
	if err := p.RefreshAll(context.Background(), []string{"data engineer"}); err != nil {
		t.Fatalf("RefreshAll error: %v", err)
	}

	if ex.calls != 2 {
		t.Errorf("extractor calls = %d, want 2", ex.calls)
	}
	if db.saved[1] != "python, sql" {
		t.Errorf("saved skill text = %q", db.saved[1])
	}
	payload, ok := db.cached["data engineer"]
	if !ok {
		t.Fatal("expected cached analysis for role")
	}
	if len(payload.TrendingSkillNames) == 0 {
		t.Error("expected trending skill names in payload")
	}
}

func TestRefreshBlankExtractionRecordsSentinel(t *testing.T) {
	store.SetRunlogDir(t.TempDir())

	providers := []sources.Provider{&fakeProvider{
		name:     "fake",
		postings: []sources.Posting{{JobID: "j1", Title: "X", Description: "desc"}},
	}}
	ex := &fakeExtractor{out: ""}
	db := newFakeStore()

	p := New(providers, ex, nil, db, testConfig())
	if err := p.RefreshAll(context.Background(), []string{"role"}); err != nil {
		t.Fatalf("RefreshAll error: %v", err)
	}

	if db.saved[1] != analytics.SentinelNoSkills {
		t.Errorf("blank extraction should store the no-skills marker, got %q", db.saved[1])
	}
}

func TestRefreshSkipsPostingsWithoutText(t *testing.T) {
	store.SetRunlogDir(t.TempDir())

	providers := []sources.Provider{&fakeProvider{
		name:     "fake",
		postings: []sources.Posting{{JobID: "j1", Title: "X"}},
	}}
	ex := &fakeExtractor{out: "python"}
	db := newFakeStore()

	p := New(providers, ex, nil, db, testConfig())
	if err := p.RefreshAll(context.Background(), []string{"role"}); err != nil {
		t.Fatalf("RefreshAll error: %v", err)
	}
	if ex.calls != 0 {
		t.Errorf("extractor should not run without candidate text, calls = %d", ex.calls)
	}
}

func TestRefreshAllBusy(t *testing.T) {
	store.SetRunlogDir(t.TempDir())

	p := New(nil, nil, nil, newFakeStore(), testConfig())
	p.running.Store(true)
	if err := p.RefreshAll(context.Background(), []string{"role"}); err != ErrBusy {
		t.Errorf("expected ErrBusy, got %v", err)
	}
	p.running.Store(false)
}

func TestRefreshAllIsolatesProviderFailure(t *testing.T) {
	store.SetRunlogDir(t.TempDir())

	providers := []sources.Provider{
		&fakeProvider{name: fmt.Sprintf("broken-%d", time.Now().UnixNano()), err: fmt.Errorf("down")},
		&fakeProvider{name: "ok", postings: []sources.Posting{
			{JobID: "j1", Title: "X", Description: "desc"},
		}},
	}
	ex := &fakeExtractor{out: "python"}
	db := newFakeStore()
	db.records = []analytics.Record{
		{JobID: "j1", Skills: analytics.SkillText("python")},
	}

	p := New(providers, ex, nil, db, testConfig())
	if err := p.RefreshAll(context.Background(), []string{"role"}); err != nil {
		t.Fatalf("RefreshAll error: %v", err)
	}
	if _, ok := db.cached["role"]; !ok {
		t.Error("healthy provider results should still be analyzed")
	}
}
