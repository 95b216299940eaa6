package analytics

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubEmbedder returns fixed vectors per token, defaulting to a unique
// axis for unknown tokens so they never cluster together.
type stubEmbedder struct {
	vecs map[string][]float64
	dim  int
	errs bool
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	if s.errs {
		return nil, fmt.Errorf("embedder down")
	}
	out := make([][]float64, 0, len(texts))
	next := 0
	for _, txt := range texts {
		if v, ok := s.vecs[txt]; ok {
			out = append(out, append([]float64(nil), v...))
			continue
		}
		v := make([]float64, s.dim)
		v[next%s.dim] = 1
		next++
		out = append(out, v)
	}
	return out, nil
}

func clusterRecords(pairs map[string]int) []Record {
	var records []Record
	id := 0
	for skill, n := range pairs {
		for i := 0; i < n; i++ {
			id++
			records = append(records, Record{JobID: fmt.Sprint(id), Skills: SkillText(skill)})
		}
	}
	return records
}

func TestTopCategoriesMergesSimilarTokens(t *testing.T) {
	// "python" and "python3" point nearly the same way (distance ~0.02),
	// "sql" is orthogonal (distance 1.0 > 0.35 threshold).
	emb := &stubEmbedder{
		dim: 3,
		vecs: map[string][]float64{
			"python":  {1, 0, 0},
			"python3": {0.9998, 0.02, 0},
			"sql":     {0, 1, 0},
		},
	}
	frame := NewFrame(clusterRecords(map[string]int{"python": 4, "python3": 2, "sql": 3}))

	res, err := TopCategories(context.Background(), frame, emb, DefaultClusterConfig())
	require.NoError(t, err)
	require.True(t, res.Semantic)
	require.Len(t, res.Categories, 2)

	// python+python3 merge: 6 total, display name from the top member.
	require.Equal(t, "Python", res.Categories[0].Name)
	require.Equal(t, 6, res.Categories[0].TotalJobs)
	require.Equal(t, 2, res.Categories[0].NumSkills)
	require.Equal(t, []string{"Python", "Python3"}, res.Categories[0].Examples)

	require.Equal(t, "Sql", res.Categories[1].Name)
	require.Equal(t, 3, res.Categories[1].TotalJobs)

	require.NotEmpty(t, res.Chart)
}

func TestTopCategoriesDissimilarStaySeparate(t *testing.T) {
	emb := &stubEmbedder{
		dim: 2,
		vecs: map[string][]float64{
			"go":   {1, 0},
			"rust": {0.5, 0.9}, // cosine distance ~0.51 > 0.35
		},
	}
	frame := NewFrame(clusterRecords(map[string]int{"go": 2, "rust": 2}))

	res, err := TopCategories(context.Background(), frame, emb, DefaultClusterConfig())
	require.NoError(t, err)
	require.Len(t, res.Categories, 2)
}

func TestTopCategoriesMinCountFilter(t *testing.T) {
	emb := &stubEmbedder{dim: 8}
	frame := NewFrame(clusterRecords(map[string]int{"python": 3, "cobol": 1}))

	res, err := TopCategories(context.Background(), frame, emb, DefaultClusterConfig())
	require.NoError(t, err)
	require.Len(t, res.Categories, 1)
	require.Equal(t, "Python", res.Categories[0].Name)
}

func TestTopCategoriesFrequencyMode(t *testing.T) {
	cfg := DefaultClusterConfig()
	cfg.Analyze = false
	frame := NewFrame(clusterRecords(map[string]int{"python": 5, "sql": 3, "excel": 2}))

	// No embedder needed in frequency mode.
	res, err := TopCategories(context.Background(), frame, nil, cfg)
	require.NoError(t, err)
	require.False(t, res.Semantic)
	require.Len(t, res.Categories, 3)
	require.Equal(t, "Python", res.Categories[0].Name)
	require.Equal(t, 5, res.Categories[0].TotalJobs)
	require.NotEmpty(t, res.Chart)
}

func TestTopCategoriesConcurrent(t *testing.T) {
	cfg := DefaultClusterConfig()
	cfg.Analyze = false
	frame := NewFrame(clusterRecords(map[string]int{"python": 5, "sql": 3, "excel": 2}))

	type outcome struct {
		res CategoryResult
		err error
	}
	results := make(chan outcome, 8)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := TopCategories(context.Background(), frame, nil, cfg)
			results <- outcome{res, err}
		}()
	}
	wg.Wait()
	close(results)

	for o := range results {
		require.NoError(t, o.err)
		require.Equal(t, "Python", o.res.Categories[0].Name)
	}
}

func TestTopCategoriesEmptyFrame(t *testing.T) {
	res, err := TopCategories(context.Background(), NewFrame(nil), &stubEmbedder{dim: 2}, DefaultClusterConfig())
	require.NoError(t, err)
	require.Empty(t, res.Categories)
	require.Empty(t, res.Chart)
}

func TestTopCategoriesNothingPassesFilter(t *testing.T) {
	frame := NewFrame(clusterRecords(map[string]int{"python": 1, "sql": 1}))
	res, err := TopCategories(context.Background(), frame, &stubEmbedder{dim: 2}, DefaultClusterConfig())
	require.NoError(t, err)
	require.Empty(t, res.Categories)
}

func TestTopCategoriesEmbedderError(t *testing.T) {
	frame := NewFrame(clusterRecords(map[string]int{"python": 3}))
	_, err := TopCategories(context.Background(), frame, &stubEmbedder{dim: 2, errs: true}, DefaultClusterConfig())
	require.Error(t, err)
}

func TestAgglomerateThresholdBoundary(t *testing.T) {
	// Unit vectors at a known angle: distance = 1 - cos(angle).
	within := [][]float64{{1, 0}, {0.8, 0.6}}  // distance 0.2
	outside := [][]float64{{1, 0}, {0.5, 0.9}} // distance ~0.51
	for _, v := range outside {
		normalizeVec(v)
	}

	labels := agglomerate(within, 0.35)
	if labels[0] != labels[1] {
		t.Errorf("tokens within threshold landed in different clusters: %v", labels)
	}

	labels = agglomerate(outside, 0.35)
	if labels[0] == labels[1] {
		t.Errorf("tokens beyond threshold landed in the same cluster: %v", labels)
	}
}

func TestAgglomerateDeterministic(t *testing.T) {
	vecs := [][]float64{{1, 0, 0}, {0.99, 0.1, 0}, {0, 1, 0}, {0, 0.99, 0.1}, {0, 0, 1}}
	for _, v := range vecs {
		normalizeVec(v)
	}
	first := agglomerate(vecs, 0.35)
	for i := 0; i < 5; i++ {
		again := agglomerate(vecs, 0.35)
		require.Equal(t, first, again)
	}
}
