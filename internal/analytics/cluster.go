package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/gonum/floats"
)

// Embedder produces fixed-dimensional semantic vectors for skill tokens.
// Implementations may call remote models; the clusterer treats Embed as a
// potentially slow synchronous call.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// ClusterConfig controls category clustering. The distance threshold is an
// empirically chosen constant; re-tune it before pointing this at another
// skill domain.
type ClusterConfig struct {
	Analyze           bool    // false = plain frequency ranking, no embeddings
	TopK              int     // categories kept
	MinCount          int     // tokens below this frequency are noise
	DistanceThreshold float64 // merge while cosine distance <= threshold
}

// DefaultClusterConfig mirrors the production defaults.
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{Analyze: true, TopK: 8, MinCount: 2, DistanceThreshold: 0.35}
}

// Category is one clustered skill group: display name from the most
// frequent member, summed member frequencies, top members as examples.
type Category struct {
	Name      string   `json:"category"`
	TotalJobs int      `json:"total_jobs"`
	Examples  []string `json:"examples"`
	NumSkills int      `json:"num_skills"`
}

// CategoryResult is the clusterer output. Chart is empty when there was
// nothing to analyze.
type CategoryResult struct {
	Categories []Category
	Chart      []byte
	Semantic   bool // whether categories came from embeddings or raw counts
}

// newTitleCaser returns a fresh caser for display names. A cases.Caser is
// stateful and not safe for concurrent use, so each run gets its own.
func newTitleCaser() cases.Caser {
	return cases.Title(language.English)
}

// TopCategories clusters the frame's skill vocabulary into semantic
// categories, or ranks raw frequencies when cfg.Analyze is false. Missing
// or fully filtered input yields an explicit empty result, never an error.
func TopCategories(ctx context.Context, frame *Frame, emb Embedder, cfg ClusterConfig) (CategoryResult, error) {
	if frame.Empty() {
		slog.Warn("cluster: empty frame, skipping category analysis")
		return CategoryResult{}, nil
	}

	counts, order := frame.TokenCounts()
	var tokens []string
	for _, t := range order {
		if counts[t] >= cfg.MinCount {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 {
		slog.Warn("cluster: no tokens pass min count filter",
			slog.Int("min_count", cfg.MinCount), slog.Int("vocabulary", len(order)))
		return CategoryResult{}, nil
	}

	if !cfg.Analyze {
		cats := frequencyCategories(tokens, counts, cfg.TopK)
		chart, err := renderCategoryBars(cats, false)
		if err != nil {
			return CategoryResult{}, fmt.Errorf("cluster: render bars: %w", err)
		}
		return CategoryResult{Categories: cats, Chart: chart}, nil
	}

	if emb == nil {
		return CategoryResult{}, fmt.Errorf("cluster: analyze mode requires an embedder")
	}
	vecs, err := emb.Embed(ctx, tokens)
	if err != nil {
		return CategoryResult{}, fmt.Errorf("cluster: embed %d tokens: %w", len(tokens), err)
	}
	if len(vecs) != len(tokens) {
		return CategoryResult{}, fmt.Errorf("cluster: embedder returned %d vectors for %d tokens", len(vecs), len(tokens))
	}
	for _, v := range vecs {
		normalizeVec(v)
	}

	labels := agglomerate(vecs, cfg.DistanceThreshold)

	groups := make(map[int][]string)
	for i, label := range labels {
		groups[label] = append(groups[label], tokens[i])
	}
	labelOrder := make([]int, 0, len(groups))
	for label := range groups {
		labelOrder = append(labelOrder, label)
	}
	sort.Ints(labelOrder)

	caser := newTitleCaser()
	var cats []Category
	for _, label := range labelOrder {
		members := groups[label]
		sort.SliceStable(members, func(i, j int) bool {
			return counts[members[i]] > counts[members[j]]
		})
		total := 0
		for _, m := range members {
			total += counts[m]
		}
		examples := make([]string, 0, 4)
		for _, m := range members[:min(4, len(members))] {
			examples = append(examples, caser.String(m))
		}
		cats = append(cats, Category{
			Name:      caser.String(members[0]),
			TotalJobs: total,
			Examples:  examples,
			NumSkills: len(members),
		})
	}

	sort.SliceStable(cats, func(i, j int) bool { return cats[i].TotalJobs > cats[j].TotalJobs })
	if len(cats) > cfg.TopK {
		cats = cats[:cfg.TopK]
	}

	chart, err := renderCategoryBars(cats, true)
	if err != nil {
		return CategoryResult{}, fmt.Errorf("cluster: render bars: %w", err)
	}
	return CategoryResult{Categories: cats, Chart: chart, Semantic: true}, nil
}

// frequencyCategories is the non-clustering mode: every token is its own
// category, ranked by raw count.
func frequencyCategories(tokens []string, counts map[string]int, topK int) []Category {
	sorted := append([]string(nil), tokens...)
	sort.SliceStable(sorted, func(i, j int) bool { return counts[sorted[i]] > counts[sorted[j]] })
	if len(sorted) > topK {
		sorted = sorted[:topK]
	}
	caser := newTitleCaser()
	cats := make([]Category, 0, len(sorted))
	for _, t := range sorted {
		cats = append(cats, Category{
			Name:      caser.String(t),
			TotalJobs: counts[t],
			NumSkills: 1,
		})
	}
	return cats
}

// normalizeVec scales v to unit length in place. Zero vectors stay zero.
func normalizeVec(v []float64) {
	n := floats.Norm(v, 2)
	if n == 0 {
		return
	}
	floats.Scale(1/n, v)
}

// agglomerate runs hierarchical agglomerative clustering with average
// linkage over cosine distance, merging while the closest pair is within
// threshold. No fixed cluster count. Returns a cluster label per input
// vector; labels are renumbered by first-member index so output is
// deterministic for a given input order.
func agglomerate(vecs [][]float64, threshold float64) []int {
	n := len(vecs)
	if n == 0 {
		return nil
	}

	// Pairwise cosine distances (vectors are unit length).
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := 1 - floats.Dot(vecs[i], vecs[j])
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	// active clusters: size and member list, indexed by slot.
	size := make([]int, n)
	members := make([][]int, n)
	active := make([]bool, n)
	for i := 0; i < n; i++ {
		size[i] = 1
		members[i] = []int{i}
		active[i] = true
	}

	for {
		bestI, bestJ := -1, -1
		best := math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !active[j] {
					continue
				}
				if dist[i][j] < best {
					best = dist[i][j]
					bestI, bestJ = i, j
				}
			}
		}
		if bestI < 0 || best > threshold {
			break
		}

		// Merge bestJ into bestI; Lance-Williams update for average linkage.
		ni, nj := float64(size[bestI]), float64(size[bestJ])
		for k := 0; k < n; k++ {
			if !active[k] || k == bestI || k == bestJ {
				continue
			}
			d := (ni*dist[bestI][k] + nj*dist[bestJ][k]) / (ni + nj)
			dist[bestI][k] = d
			dist[k][bestI] = d
		}
		members[bestI] = append(members[bestI], members[bestJ]...)
		size[bestI] += size[bestJ]
		active[bestJ] = false
	}

	labels := make([]int, n)
	next := 0
	assigned := make([]int, n)
	for i := range assigned {
		assigned[i] = -1
	}
	for i := 0; i < n; i++ {
		if !active[i] {
			continue
		}
		sort.Ints(members[i])
		for _, m := range members[i] {
			assigned[m] = i
		}
	}
	slot2label := make(map[int]int)
	for i := 0; i < n; i++ {
		slot := assigned[i]
		if _, ok := slot2label[slot]; !ok {
			slot2label[slot] = next
			next++
		}
		labels[i] = slot2label[slot]
	}
	return labels
}
