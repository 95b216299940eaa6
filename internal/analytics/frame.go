package analytics

import (
	"log/slog"
	"time"
)

// Record is one posting as consumed by the analytics core. Created holds
// the raw date text; Skills the raw skill field. The core never mutates
// records.
type Record struct {
	JobID   string
	Title   string
	Created string
	Skills  RawSkillField
	Keyword string
}

// Row is one exploded (posting, day, skill) observation.
type Row struct {
	JobID  string
	Day    time.Time
	HasDay bool
	Skill  string
}

// Frame is the normalized analysis frame: the posting count before
// exploding plus one row per skill mention. It is a first-class value so
// the clusterer, trend ranker and necessity classifier share normalized
// data through explicit arguments, not hidden call-order state.
type Frame struct {
	Postings int
	Rows     []Row
}

// NewFrame normalizes a posting set: dates collapse to UTC calendar days,
// skill fields explode into one row per token. Rows from missing or
// sentinel skill fields are dropped; unparseable dates survive with
// HasDay=false so day-agnostic components still see them.
func NewFrame(records []Record) *Frame {
	f := &Frame{Postings: len(records)}
	for _, r := range records {
		toks := r.Skills.Tokens()
		if len(toks) == 0 {
			continue
		}
		day, ok := NormalizeDay(r.Created)
		for _, t := range toks {
			f.Rows = append(f.Rows, Row{JobID: r.JobID, Day: day, HasDay: ok, Skill: t})
		}
	}
	if len(f.Rows) == 0 && f.Postings > 0 {
		slog.Warn("analytics: no skill observations after normalization",
			slog.Int("postings", f.Postings))
	}
	return f
}

// Empty reports whether the frame holds no skill observations.
func (f *Frame) Empty() bool { return f == nil || len(f.Rows) == 0 }

// TokenCounts returns per-token frequencies plus the tokens in
// first-encountered order, which downstream sorts use for deterministic
// tie-breaking.
func (f *Frame) TokenCounts() (map[string]int, []string) {
	counts := make(map[string]int)
	var order []string
	for _, row := range f.Rows {
		if counts[row.Skill] == 0 {
			order = append(order, row.Skill)
		}
		counts[row.Skill]++
	}
	return counts, order
}
