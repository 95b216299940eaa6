package analytics

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
)

// Necessity labels.
type Label string

const (
	LabelNecessary    Label = "Necessary"
	LabelBetterToHave Label = "Better-to-have"
	LabelOther        Label = "Other"
)

// defaultMLTerms are near-duplicate domain tokens collapsed into one
// synthetic aggregate when CollapseML is set.
var defaultMLTerms = map[string]struct{}{
	"ml": {}, "machine learning": {}, "deep learning": {}, "ai": {},
	"tensorflow": {}, "pytorch": {}, "scikit-learn": {}, "scikit learn": {},
	"nlp": {}, "llms": {}, "data science": {},
}

// NecessityConfig controls the Wilson-bound classifier. A nil NecessaryPct
// selects the data-adaptive rule: the 75th percentile of all Wilson-lower
// percentages in the current dataset. The band and support thresholds are
// empirically chosen defaults; re-tune before reusing on another domain.
type NecessityConfig struct {
	MinSupport      int
	NecessaryPct    *float64 // nil = auto (75th percentile)
	NiceMinPct      float64
	NiceMaxPct      float64
	CollapseML      bool
	MLTerms         map[string]struct{} // nil = defaultMLTerms
	MLName          string
	DropMLOriginals bool
	AnnotateTop     int
}

// DefaultNecessityConfig mirrors the production defaults.
func DefaultNecessityConfig() NecessityConfig {
	return NecessityConfig{
		MinSupport:      20,
		NiceMinPct:      20,
		NiceMaxPct:      60,
		CollapseML:      true,
		MLName:          "ml (domain)",
		DropMLOriginals: true,
		AnnotateTop:     12,
	}
}

// NecessityRecord is one labeled skill (or collapsed aggregate).
type NecessityRecord struct {
	Name           string  `json:"name"`
	Counts         int     `json:"counts"`
	Share          float64 `json:"share"`
	Percentage     float64 `json:"percentage"`
	WilsonLower    float64 `json:"wilson_lower"`
	WilsonLowerPct float64 `json:"wilson_lower_pct"`
	Label          Label   `json:"label"`
}

// NecessityResult holds labeled records sorted by Wilson bound descending,
// the resolved threshold (recorded for auditability when auto-derived),
// and the scatter chart.
type NecessityResult struct {
	Records       []NecessityRecord
	Threshold     float64
	AutoThreshold bool
	Chart         []byte
}

// WilsonLower computes the one-sided 95%-style Wilson lower confidence
// bound for the proportion k/n at the given z. Deliberately more
// conservative than the raw share for small n, so rarely observed skills
// are not overstated. n <= 0 short-circuits to 0.
func WilsonLower(k, n int, z float64) float64 {
	if n <= 0 {
		return 0
	}
	p := float64(k) / float64(n)
	fn := float64(n)
	den := 1 + z*z/fn
	center := p + z*z/(2*fn)
	margin := z * math.Sqrt(p*(1-p)/fn+z*z/(4*fn*fn))
	return (center - margin) / den
}

// ClassifyNecessity labels every distinct skill across the posting set as
// Necessary, Better-to-have, or Other. Each posting votes once per skill
// (tokens dedup within a posting); N is the un-exploded posting count.
func ClassifyNecessity(records []Record, cfg NecessityConfig) (NecessityResult, error) {
	n := len(records)
	if n == 0 {
		slog.Warn("necessity: no postings, skipping classification")
		return NecessityResult{}, nil
	}

	counts := make(map[string]int)
	var order []string
	for _, r := range records {
		for _, t := range r.Skills.UniqueTokens() {
			if counts[t] == 0 {
				order = append(order, t)
			}
			counts[t]++
		}
	}
	if len(order) == 0 {
		slog.Warn("necessity: no skill tokens after normalization",
			slog.Int("postings", n))
		return NecessityResult{}, nil
	}

	rows := make([]NecessityRecord, 0, len(order))
	for _, name := range order {
		rows = append(rows, makeNecessityRow(name, counts[name], n))
	}
	// Base ordering: share descending, ties in first-encountered order.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Share > rows[j].Share })

	if cfg.CollapseML {
		rows = collapseMLDomain(rows, n, cfg)
	}

	threshold, auto := resolveThreshold(rows, cfg)
	for i := range rows {
		rows[i].Label = labelSkill(rows[i], threshold, cfg)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].WilsonLower > rows[j].WilsonLower })

	if auto {
		slog.Info("necessity: auto-derived threshold",
			slog.Float64("wilson_lower_pct", threshold), slog.Int("skills", len(rows)))
	}

	chart, err := renderNecessityScatter(rows, threshold, cfg)
	if err != nil {
		return NecessityResult{}, fmt.Errorf("necessity: render scatter: %w", err)
	}
	return NecessityResult{Records: rows, Threshold: threshold, AutoThreshold: auto, Chart: chart}, nil
}

func makeNecessityRow(name string, k, n int) NecessityRecord {
	share := 0.0
	if n > 0 {
		share = float64(k) / float64(n)
	}
	wlb := WilsonLower(k, n, 1.96)
	return NecessityRecord{
		Name:           name,
		Counts:         k,
		Share:          share,
		Percentage:     share * 100,
		WilsonLower:    wlb,
		WilsonLowerPct: wlb * 100,
	}
}

// collapseMLDomain sums the configured near-duplicate terms into one
// synthetic row, recomputed from the aggregate count. Member rows are
// removed when DropMLOriginals is set so they are not double-counted.
func collapseMLDomain(rows []NecessityRecord, n int, cfg NecessityConfig) []NecessityRecord {
	terms := cfg.MLTerms
	if terms == nil {
		terms = defaultMLTerms
	}
	total := 0
	kept := rows[:0:0]
	for _, r := range rows {
		if _, ok := terms[r.Name]; ok {
			total += r.Counts
			if cfg.DropMLOriginals {
				continue
			}
		}
		kept = append(kept, r)
	}
	if total == 0 {
		return rows
	}
	agg := makeNecessityRow(cfg.MLName, total, n)
	return append(kept, agg)
}

// resolveThreshold returns the Necessary cutoff in Wilson-lower percent.
// When not explicitly configured it is the 75th percentile of the
// dataset's Wilson-lower percentages, resolved once up front.
func resolveThreshold(rows []NecessityRecord, cfg NecessityConfig) (float64, bool) {
	if cfg.NecessaryPct != nil {
		return *cfg.NecessaryPct, false
	}
	pcts := make([]float64, 0, len(rows))
	for _, r := range rows {
		pcts = append(pcts, r.WilsonLowerPct)
	}
	sort.Float64s(pcts)
	return percentileLinear(pcts, 75), true
}

// percentileLinear computes the p-th percentile of sorted values with
// linear interpolation between closest ranks (the R-7 convention). For
// [1,2,3,4] the 75th percentile is 3.25, which gonum's quantile modes do
// not reproduce on small vocabularies.
func percentileLinear(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	h := p / 100 * float64(n-1)
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

func labelSkill(r NecessityRecord, necessaryPct float64, cfg NecessityConfig) Label {
	if r.Counts < cfg.MinSupport {
		return LabelOther
	}
	if r.WilsonLowerPct >= necessaryPct {
		return LabelNecessary
	}
	if cfg.NiceMinPct <= r.Percentage && r.Percentage < cfg.NiceMaxPct {
		return LabelBetterToHave
	}
	return LabelOther
}
