// Package store persists postings, extracted skills, and cached analysis
// results in Postgres, plus a local sqlite log of pipeline runs.
package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anatolykoptev/go_jobmarket/internal/analytics"
	"github.com/anatolykoptev/go_jobmarket/internal/engine/sources"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// ErrNotFound is returned when a cached analysis does not exist for a role.
var ErrNotFound = errors.New("not found")

// DB holds the pgx connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// Connect creates a pgx pool and runs schema migrations.
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db := &DB{pool: pool}
	if err := db.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("postgres connected", slog.String("addr", config.ConnConfig.Host))
	return db, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

func (db *DB) runMigrations(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if _, err := db.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("execute %s: %w", entry.Name(), err)
		}
		slog.Info("migration applied", slog.String("file", entry.Name()))
	}
	return nil
}

// --- Postings ---

// UpsertPostings inserts fetched postings, ignoring ones already stored for
// the same (job_id, keyword) pair. Returns row ids keyed by job_id for the
// postings that now exist, plus the count of newly inserted rows.
func (db *DB) UpsertPostings(ctx context.Context, postings []sources.Posting) (map[string]int64, int, error) {
	ids := make(map[string]int64, len(postings))
	inserted := 0

	for _, p := range postings {
		var (
			id    int64
			isNew bool
		)
		err := db.pool.QueryRow(ctx, `
			INSERT INTO jobs (job_id, keyword, title, location, url, created, salary, skills_raw)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (job_id, keyword) DO UPDATE SET title = EXCLUDED.title
			RETURNING id, (xmax = 0)`,
			p.JobID, p.Keyword, p.Title, p.Location, p.URL, p.Created, p.Salary, nullable(p.RawSkills),
		).Scan(&id, &isNew)
		if err != nil {
			return nil, 0, fmt.Errorf("upsert posting %s: %w", p.JobID, err)
		}
		ids[p.JobID] = id
		if isNew {
			inserted++
		}
	}
	return ids, inserted, nil
}

// SaveSkillText stores the extracted skill string on a posting row and links
// the individual tokens through the skills / job_skills tables.
func (db *DB) SaveSkillText(ctx context.Context, jobRowID int64, text string, tokens []string) error {
	if _, err := db.pool.Exec(ctx,
		`UPDATE jobs SET skills_raw = $1 WHERE id = $2`, text, jobRowID); err != nil {
		return fmt.Errorf("save skill text: %w", err)
	}

	for _, tok := range tokens {
		var skillID int64
		err := db.pool.QueryRow(ctx, `
			INSERT INTO skills (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, tok).Scan(&skillID)
		if err != nil {
			return fmt.Errorf("upsert skill %q: %w", tok, err)
		}
		if _, err := db.pool.Exec(ctx, `
			INSERT INTO job_skills (job_id, skill_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, jobRowID, skillID); err != nil {
			return fmt.Errorf("link skill %q: %w", tok, err)
		}
	}
	return nil
}

// LoadRecords reads every stored posting for a keyword as analytics input.
// A NULL skills_raw means extraction never ran for that row.
func (db *DB) LoadRecords(ctx context.Context, keyword string) ([]analytics.Record, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT job_id, title, created, skills_raw
		FROM jobs WHERE keyword = $1 ORDER BY id`, keyword)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	defer rows.Close()

	var records []analytics.Record
	for rows.Next() {
		var (
			jobID, title, created string
			skills                *string
		)
		if err := rows.Scan(&jobID, &title, &created, &skills); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		field := analytics.MissingSkills()
		if skills != nil {
			field = analytics.SkillText(*skills)
		}
		records = append(records, analytics.Record{
			JobID:   jobID,
			Title:   title,
			Created: created,
			Skills:  field,
			Keyword: keyword,
		})
	}
	return records, rows.Err()
}

// --- Cached analysis ---

// CachedAnalysis is one row of the cached table.
type CachedAnalysis struct {
	Role      string
	Payload   analytics.Payload
	UpdatedAt time.Time
}

// ReplaceCached stores the analysis payload for a role, overwriting any
// previous row.
func (db *DB) ReplaceCached(ctx context.Context, role string, p analytics.Payload) error {
	skillList, err := json.Marshal(p.TrendingSkillNames)
	if err != nil {
		return fmt.Errorf("marshal skill list: %w", err)
	}
	_, err = db.pool.Exec(ctx, `
		INSERT INTO cached (name, category_chart, trend_chart, necessity_chart, skill_list, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (name) DO UPDATE SET
			category_chart  = EXCLUDED.category_chart,
			trend_chart     = EXCLUDED.trend_chart,
			necessity_chart = EXCLUDED.necessity_chart,
			skill_list      = EXCLUDED.skill_list,
			updated_at      = now()`,
		role, p.CategoryChart, p.TrendChart, p.NecessityChart, skillList)
	if err != nil {
		return fmt.Errorf("replace cached %q: %w", role, err)
	}
	return nil
}

// GetCached returns the stored analysis for a role, or ErrNotFound.
func (db *DB) GetCached(ctx context.Context, role string) (*CachedAnalysis, error) {
	var (
		c         CachedAnalysis
		skillList []byte
	)
	err := db.pool.QueryRow(ctx, `
		SELECT name, category_chart, trend_chart, necessity_chart, skill_list, updated_at
		FROM cached WHERE name = $1`, role,
	).Scan(&c.Role, &c.Payload.CategoryChart, &c.Payload.TrendChart,
		&c.Payload.NecessityChart, &skillList, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cached %q: %w", role, err)
	}
	if err := json.Unmarshal(skillList, &c.Payload.TrendingSkillNames); err != nil {
		return nil, fmt.Errorf("unmarshal skill list: %w", err)
	}
	if c.Payload.TrendingSkillNames == nil {
		c.Payload.TrendingSkillNames = []string{}
	}
	return &c, nil
}

// ListCachedRoles returns the roles that have a cached analysis.
func (db *DB) ListCachedRoles(ctx context.Context) ([]string, error) {
	rows, err := db.pool.Query(ctx, `SELECT name FROM cached ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list cached roles: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		roles = append(roles, name)
	}
	return roles, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
