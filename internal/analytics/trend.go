package analytics

import (
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// TrendConfig controls trend ranking. Cutoff limits the plotted range to
// days strictly after it; the zero value disables the cutoff.
type TrendConfig struct {
	TopSkills int // global top-N restriction
	PerDay    int // candidates kept per day
	Cutoff    time.Time
}

// DefaultTrendConfig mirrors the production defaults.
func DefaultTrendConfig() TrendConfig {
	return TrendConfig{TopSkills: 5, PerDay: 5}
}

// TrendPoint is one (day, skill, count) observation kept for plotting.
type TrendPoint struct {
	Day   time.Time `json:"day"`
	Skill string    `json:"skill"`
	Count int       `json:"count"`
}

// TrendResult holds the globally top skills in rank order (the canonical
// trending-skills summary reused by the web layer) plus the per-day points
// and the rendered line chart.
type TrendResult struct {
	Skills []string
	Points []TrendPoint
	Chart  []byte
}

// SkillTrends computes per-day counts for the globally most frequent
// skills and keeps the per-day top candidates. Output order is
// deterministic: ties in global frequency preserve first-encountered
// order via the stable sort.
func SkillTrends(frame *Frame, cfg TrendConfig) (TrendResult, error) {
	if frame.Empty() {
		slog.Warn("trend: empty frame, skipping trend analysis")
		return TrendResult{}, nil
	}

	counts, order := frame.TokenCounts()
	top := append([]string(nil), order...)
	sort.SliceStable(top, func(i, j int) bool { return counts[top[i]] > counts[top[j]] })
	if len(top) > cfg.TopSkills {
		top = top[:cfg.TopSkills]
	}
	topSet := make(map[string]struct{}, len(top))
	for _, s := range top {
		topSet[s] = struct{}{}
	}

	// Group by (day, skill), restricted to the global top skills and to
	// rows with a parseable day.
	type dayKey struct {
		day   time.Time
		skill string
	}
	grouped := make(map[dayKey]int)
	for _, row := range frame.Rows {
		if !row.HasDay {
			continue
		}
		if _, ok := topSet[row.Skill]; !ok {
			continue
		}
		if !cfg.Cutoff.IsZero() && !row.Day.After(cfg.Cutoff) {
			continue
		}
		grouped[dayKey{row.Day, row.Skill}]++
	}

	byDay := make(map[time.Time][]TrendPoint)
	var days []time.Time
	for k, c := range grouped {
		if _, ok := byDay[k.day]; !ok {
			days = append(days, k.day)
		}
		byDay[k.day] = append(byDay[k.day], TrendPoint{Day: k.day, Skill: k.skill, Count: c})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	var points []TrendPoint
	for _, day := range days {
		pts := byDay[day]
		// Deterministic within-day order: count desc, then global rank.
		rank := make(map[string]int, len(top))
		for i, s := range top {
			rank[s] = i
		}
		sort.SliceStable(pts, func(i, j int) bool {
			if pts[i].Count != pts[j].Count {
				return pts[i].Count > pts[j].Count
			}
			return rank[pts[i].Skill] < rank[pts[j].Skill]
		})
		if len(pts) > cfg.PerDay {
			pts = pts[:cfg.PerDay]
		}
		points = append(points, pts...)
	}

	var chart []byte
	if len(points) > 0 {
		var err error
		chart, err = renderTrendLines(top, points)
		if err != nil {
			return TrendResult{}, fmt.Errorf("trend: render lines: %w", err)
		}
	}
	return TrendResult{Skills: top, Points: points, Chart: chart}, nil
}
