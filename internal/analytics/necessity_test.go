package analytics

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWilsonLowerRegression(t *testing.T) {
	// Fixed numeric check: N=100, counts=50 → ~40.4%.
	got := WilsonLower(50, 100, 1.96) * 100
	if math.Abs(got-40.4) > 0.1 {
		t.Errorf("WilsonLower(50, 100) pct = %.3f, want ~40.4", got)
	}
}

func TestWilsonLowerMonotonicInCounts(t *testing.T) {
	prev := -1.0
	for k := 0; k <= 200; k += 5 {
		got := WilsonLower(k, 200, 1.96)
		if got < prev {
			t.Fatalf("WilsonLower not monotonic: k=%d gives %.6f < %.6f", k, got, prev)
		}
		prev = got
	}
}

func TestWilsonLowerBounds(t *testing.T) {
	cases := []struct{ k, n int }{
		{0, 10}, {1, 10}, {5, 10}, {10, 10}, {3, 1000}, {999, 1000},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%d_of_%d", c.k, c.n), func(t *testing.T) {
			wlb := WilsonLower(c.k, c.n, 1.96)
			share := float64(c.k) / float64(c.n)
			if wlb < 0 || wlb > share {
				t.Errorf("WilsonLower(%d, %d) = %.6f outside [0, %.6f]", c.k, c.n, wlb, share)
			}
		})
	}
}

func TestWilsonLowerZeroTotal(t *testing.T) {
	if got := WilsonLower(0, 0, 1.96); got != 0 {
		t.Errorf("WilsonLower(0, 0) = %v, want 0", got)
	}
}

// necessityRecords builds n postings where the given skills appear in the
// first count postings each.
func necessityRecords(n int, counts map[string]int) []Record {
	records := make([]Record, n)
	for i := range records {
		records[i].JobID = fmt.Sprint(i)
		var skills string
		for skill, c := range counts {
			if i < c {
				if skills != "" {
					skills += ", "
				}
				skills += skill
			}
		}
		records[i].Skills = SkillText(skills)
	}
	return records
}

func TestClassifyNecessityLabels(t *testing.T) {
	thr := 40.0
	cfg := DefaultNecessityConfig()
	cfg.NecessaryPct = &thr
	cfg.CollapseML = false

	// 100 postings: python in 70 (wlb ~60%), excel in 30 (wlb ~21.9%,
	// share 30% in the nice band), cobol in 5 (below min support).
	records := necessityRecords(100, map[string]int{"python": 70, "excel": 30, "cobol": 5})

	res, err := ClassifyNecessity(records, cfg)
	require.NoError(t, err)
	require.False(t, res.AutoThreshold)
	require.Equal(t, thr, res.Threshold)

	labels := map[string]Label{}
	for _, r := range res.Records {
		labels[r.Name] = r.Label
	}
	require.Equal(t, LabelNecessary, labels["python"])
	require.Equal(t, LabelBetterToHave, labels["excel"])
	require.Equal(t, LabelOther, labels["cobol"])
	require.NotEmpty(t, res.Chart)
}

func TestClassifyNecessityDeterministic(t *testing.T) {
	thr := 40.0
	cfg := DefaultNecessityConfig()
	cfg.NecessaryPct = &thr
	records := necessityRecords(80, map[string]int{"python": 50, "ml": 25, "ai": 25, "sql": 30})

	first, err := ClassifyNecessity(records, cfg)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := ClassifyNecessity(records, cfg)
		require.NoError(t, err)
		require.Equal(t, first.Records, again.Records)
	}
}

func TestClassifyNecessityCollapsesMLDomain(t *testing.T) {
	thr := 40.0
	cfg := DefaultNecessityConfig()
	cfg.NecessaryPct = &thr

	records := necessityRecords(100, map[string]int{"ml": 20, "ai": 15, "python": 40})
	res, err := ClassifyNecessity(records, cfg)
	require.NoError(t, err)

	byName := map[string]NecessityRecord{}
	for _, r := range res.Records {
		byName[r.Name] = r
	}
	require.NotContains(t, byName, "ml")
	require.NotContains(t, byName, "ai")

	agg, ok := byName["ml (domain)"]
	require.True(t, ok)
	require.Equal(t, 35, agg.Counts)
	require.InDelta(t, 0.35, agg.Share, 1e-9)
	require.InDelta(t, WilsonLower(35, 100, 1.96), agg.WilsonLower, 1e-9)
}

func TestClassifyNecessityAutoThreshold(t *testing.T) {
	cfg := DefaultNecessityConfig()
	cfg.CollapseML = false

	records := necessityRecords(100, map[string]int{"a": 60, "b": 40, "c": 30, "d": 10})
	res, err := ClassifyNecessity(records, cfg)
	require.NoError(t, err)
	require.True(t, res.AutoThreshold)
	require.Greater(t, res.Threshold, 0.0)

	// The auto threshold sits within the observed Wilson range.
	var lo, hi = math.Inf(1), math.Inf(-1)
	for _, r := range res.Records {
		lo = math.Min(lo, r.WilsonLowerPct)
		hi = math.Max(hi, r.WilsonLowerPct)
	}
	require.GreaterOrEqual(t, res.Threshold, lo)
	require.LessOrEqual(t, res.Threshold, hi)
}

func TestPercentileLinearInterpolation(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty", nil, 75, 0},
		{"single", []float64{5}, 75, 5},
		{"interpolated quartile", []float64{1, 2, 3, 4}, 75, 3.25},
		{"median of even set", []float64{1, 2, 3, 4}, 50, 2.5},
		{"exact rank", []float64{1, 2, 3}, 50, 2},
		{"top", []float64{1, 2, 3, 4}, 100, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, percentileLinear(tt.sorted, tt.p), 1e-9)
		})
	}
}

func TestClassifyNecessityEmptyInput(t *testing.T) {
	res, err := ClassifyNecessity(nil, DefaultNecessityConfig())
	require.NoError(t, err)
	require.Empty(t, res.Records)
	require.Empty(t, res.Chart)
}

func TestClassifyNecessitySortedByWilson(t *testing.T) {
	thr := 40.0
	cfg := DefaultNecessityConfig()
	cfg.NecessaryPct = &thr
	cfg.CollapseML = false

	records := necessityRecords(50, map[string]int{"a": 40, "b": 10, "c": 25})
	res, err := ClassifyNecessity(records, cfg)
	require.NoError(t, err)
	for i := 1; i < len(res.Records); i++ {
		require.GreaterOrEqual(t, res.Records[i-1].WilsonLower, res.Records[i].WilsonLower)
	}
}
