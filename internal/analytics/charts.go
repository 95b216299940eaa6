package analytics

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
)

// Chart rendering is deliberately thin: the numeric results carry the
// analysis, the PNGs are presentation. Layout follows the original
// dashboards loosely; pixel parity is a non-goal.

const (
	chartWidth  = 1024
	chartHeight = 560
)

// renderCategoryBars draws the category totals as a bar chart. Bars carry
// the category name plus up to three examples and an overflow count.
func renderCategoryBars(cats []Category, semantic bool) ([]byte, error) {
	if len(cats) == 0 {
		return nil, nil
	}

	bars := make([]chart.Value, 0, len(cats))
	for _, c := range cats {
		bars = append(bars, chart.Value{Value: float64(c.TotalJobs), Label: categoryBarLabel(c)})
	}

	title := "Top Skill Categories (Semantic Clusters)"
	if !semantic {
		title = "Top Skills (Frequency Only)"
	}

	graph := chart.BarChart{
		Title:      title,
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   70,
		BarSpacing: 24,
		Background: chart.Style{Padding: chart.Box{Top: 48, Bottom: 24}},
		XAxis:      chart.Style{TextRotationDegrees: 30},
		YAxis: chart.YAxis{
			Name:           "Job opportunities",
			ValueFormatter: chart.IntValueFormatter,
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// categoryBarLabel joins the category name with up to 3 examples and an
// overflow marker, mirroring the report layout.
func categoryBarLabel(c Category) string {
	if len(c.Examples) == 0 {
		return c.Name
	}
	ex := c.Examples[:min(3, len(c.Examples))]
	label := fmt.Sprintf("%s (%s", c.Name, strings.Join(ex, ", "))
	if c.NumSkills > 3 {
		label += fmt.Sprintf(" +%d more", c.NumSkills-3)
	}
	return label + ")"
}

// renderTrendLines draws one line per trending skill across days, with
// markers. A single distinct day still renders: each series collapses to
// its dot marker on a padded one-day axis.
func renderTrendLines(skills []string, points []TrendPoint) ([]byte, error) {
	type xy struct {
		xs []time.Time
		ys []float64
	}
	bySkill := make(map[string]*xy, len(skills))
	days := make(map[time.Time]struct{})
	var maxY float64
	for _, p := range points {
		s, ok := bySkill[p.Skill]
		if !ok {
			s = &xy{}
			bySkill[p.Skill] = s
		}
		s.xs = append(s.xs, p.Day)
		s.ys = append(s.ys, float64(p.Count))
		days[p.Day] = struct{}{}
		maxY = max(maxY, float64(p.Count))
	}
	if len(days) == 0 {
		return nil, nil
	}
	singleDay := len(days) == 1

	series := make([]chart.Series, 0, len(skills))
	for _, skill := range skills {
		s, ok := bySkill[skill]
		if !ok {
			continue
		}
		xs, ys := s.xs, s.ys
		if singleDay {
			// The renderer wants two points per series; a duplicated
			// point draws just the marker.
			xs = append(xs, xs[0])
			ys = append(ys, ys[0])
		}
		series = append(series, chart.TimeSeries{
			Name:    skill,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeWidth: 2, DotWidth: 4},
		})
	}

	graph := chart.Chart{
		Title:      "Top Skills per Day",
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 24}},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeValueFormatterWithFormat("Jan 02"),
		},
		YAxis: chart.YAxis{
			Name:           "Count",
			ValueFormatter: chart.IntValueFormatter,
		},
		Series: series,
	}
	if singleDay {
		var day time.Time
		for d := range days {
			day = d
		}
		graph.XAxis.Range = &chart.ContinuousRange{
			Min: float64(day.Add(-12 * time.Hour).UnixNano()),
			Max: float64(day.Add(12 * time.Hour).UnixNano()),
		}
		graph.YAxis.Range = &chart.ContinuousRange{Min: 0, Max: maxY + 1}
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderNecessityScatter draws the Wilson-vs-share scatter: one dot per
// skill (size scaled by support), one series per label, the Necessary
// threshold as a dashed vertical line, the better-to-have band edges as
// dashed horizontal lines, and the top skills annotated by name.
func renderNecessityScatter(rows []NecessityRecord, threshold float64, cfg NecessityConfig) ([]byte, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	var maxX, maxY float64
	for _, r := range rows {
		maxX = max(maxX, r.WilsonLowerPct)
		maxY = max(maxY, r.Percentage)
	}
	maxX = max(maxX, threshold) * 1.1
	maxY = max(maxY, cfg.NiceMaxPct) * 1.1

	var series []chart.Series
	for _, label := range []Label{LabelNecessary, LabelBetterToHave, LabelOther} {
		var xs, ys []float64
		var sizes []float64
		for _, r := range rows {
			if r.Label != label {
				continue
			}
			xs = append(xs, r.WilsonLowerPct)
			ys = append(ys, r.Percentage)
			sizes = append(sizes, dotSize(r.Counts))
		}
		if len(xs) == 0 {
			continue
		}
		sz := sizes
		series = append(series, chart.ContinuousSeries{
			Name:    string(label),
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    5,
				DotWidthProvider: func(_, _ chart.Range, index int, _, _ float64) float64 {
					return sz[index]
				},
			},
		})
	}

	dashed := chart.Style{StrokeWidth: 1, StrokeDashArray: []float64{4, 3}}
	series = append(series,
		chart.ContinuousSeries{ // Necessary threshold
			XValues: []float64{threshold, threshold},
			YValues: []float64{0, maxY},
			Style:   dashed,
		},
		chart.ContinuousSeries{ // better-to-have band, lower edge
			XValues: []float64{0, maxX},
			YValues: []float64{cfg.NiceMinPct, cfg.NiceMinPct},
			Style:   dashed,
		},
		chart.ContinuousSeries{ // better-to-have band, upper edge
			XValues: []float64{0, maxX},
			YValues: []float64{cfg.NiceMaxPct, cfg.NiceMaxPct},
			Style:   dashed,
		},
	)

	series = append(series, annotationSeries(rows, cfg.AnnotateTop))

	graph := chart.Chart{
		Title:      "Must-have vs Nice-to-have (Wilson vs Share)",
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 24}},
		XAxis: chart.XAxis{
			Name:  "Wilson lower bound (%)",
			Range: &chart.ContinuousRange{Min: 0, Max: maxX},
		},
		YAxis: chart.YAxis{
			Name:  "Raw share (%)",
			Range: &chart.ContinuousRange{Min: 0, Max: maxY},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// annotationSeries labels the top-N rows by support.
func annotationSeries(rows []NecessityRecord, topN int) chart.Series {
	bySupport := append([]NecessityRecord(nil), rows...)
	sort.SliceStable(bySupport, func(i, j int) bool { return bySupport[i].Counts > bySupport[j].Counts })
	if len(bySupport) > topN {
		bySupport = bySupport[:topN]
	}
	anns := make([]chart.Value2, 0, len(bySupport))
	for _, r := range bySupport {
		anns = append(anns, chart.Value2{XValue: r.WilsonLowerPct, YValue: r.Percentage, Label: r.Name})
	}
	return chart.AnnotationSeries{Annotations: anns}
}

// dotSize maps support to a dot radius, clamped like the original plot's
// size scaling.
func dotSize(counts int) float64 {
	s := float64(counts) * 0.75
	if s < 4 {
		s = 4
	}
	if s > 18 {
		s = 18
	}
	return s
}
