package engine

import (
	"math"
	"sort"
	"strconv"
)

// ============================================================================
// CHART BUILDER — Produces render-ready configs from a Snapshot
// ============================================================================
// Frequency sections become bar charts, scale sections become marker tracks.
// Nothing here renders; the output is handed to presentation as JSON.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// overlapThreshold is the median/mean distance below which markers collide.
const overlapThreshold = 0.4

// Charts collects every chart of one Snapshot, keyed by section id.
type Charts struct {
	Frequencies map[string][]*ChartConfig `json:"frequencies"`
	Scales      map[string][]ScaleMarkers `json:"scales"`
}

// BuildCharts builds a chart per question of every frequency and scale section.
// Empty frequency tables yield nil entries, which presentation hides.
func BuildCharts(snap Snapshot, survey Survey) Charts {
	charts := Charts{
		Frequencies: make(map[string][]*ChartConfig),
		Scales:      make(map[string][]ScaleMarkers),
	}
	for _, sec := range survey.Sections {
		switch sec.Kind {
		case KindFrequency:
			tables := snap.Frequencies[sec.ID]
			out := make([]*ChartConfig, len(sec.Keys))
			for i := range sec.Keys {
				if i < len(tables) {
					out[i] = BuildFrequencyChart(sec.Question(i), tables[i])
				}
			}
			charts.Frequencies[sec.ID] = out
		case KindScale:
			summaries := snap.Scales[sec.ID]
			out := make([]ScaleMarkers, len(sec.Keys))
			for i := range sec.Keys {
				var s ScaleSummary
				if i < len(summaries) {
					s = summaries[i]
				}
				out[i] = BuildScaleMarkers(sec.Question(i), s, sec.ScaleBounds())
			}
			charts.Scales[sec.ID] = out
		}
	}
	return charts
}

// ============================================================================
// FREQUENCY BAR CHART
// ============================================================================

// BuildFrequencyChart produces one bar per configured option. Options are
// matched to table entries by the integer prefix of the answer code, absent
// options get zero bars, and bars are ordered by percentage descending.
// Questions without configured options chart the table as is.
func BuildFrequencyChart(q Question, table FrequencyTable) *ChartConfig {
	if len(table) == 0 {
		return nil
	}

	var points []ChartPoint
	if len(q.Options) == 0 {
		points = make([]ChartPoint, 0, len(table))
		for _, e := range table {
			points = append(points, ChartPoint{Label: e.Option, Value: e.Percentage, Count: e.Count})
		}
	} else {
		byIndex := make(map[int]FrequencyEntry, len(table))
		for _, e := range table {
			idx, ok := leadingInt(e.Option)
			if !ok {
				continue
			}
			if _, taken := byIndex[idx]; !taken {
				byIndex[idx] = e
			}
		}
		points = make([]ChartPoint, 0, len(q.Options))
		for i, label := range q.Options {
			e := byIndex[i]
			points = append(points, ChartPoint{Label: label, Value: e.Percentage, Count: e.Count})
		}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Value > points[j].Value })

	title := q.Title
	if title == "" {
		title = q.Key
	}
	return &ChartConfig{
		ChartType: "bar",
		Key:       q.Key,
		Title:     title,
		YAxis:     "%",
		Series: []ChartSeries{{
			Name:  title,
			Data:  points,
			Color: defaultColors[0],
		}},
		Colors:     assignColors(1),
		ShowLegend: false,
	}
}

// leadingInt parses an optional sign followed by decimal digits at the start
// of s, ignoring leading whitespace and any trailing text.
func leadingInt(s string) (int, bool) {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	digits := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[start:i])
	if err != nil {
		return 0, false
	}
	return n, true
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}

// ============================================================================
// SCALE MARKERS
// ============================================================================

// BuildScaleMarkers positions median and mean on the track spanned by bounds.
// Absent values sit at the middle of the track with HasData false.
func BuildScaleMarkers(q Question, s ScaleSummary, bounds Bounds) ScaleMarkers {
	title := q.Title
	if title == "" {
		title = q.Key
	}
	m := ScaleMarkers{
		Key:       q.Key,
		Title:     title,
		HasData:   s.HasData(),
		Median:    s.Median,
		Mean:      s.Mean,
		MedianPos: trackPosition(s.Median, bounds),
		MeanPos:   trackPosition(s.Mean, bounds),
		Labels:    q.ScaleLabels,
	}
	if len(m.Labels) == 0 {
		m.Labels = boundLabels(bounds)
	}
	if m.HasData {
		m.Overlap = math.Abs(*s.Median-*s.Mean) < overlapThreshold
	}
	return m
}

// trackPosition maps v into [0, 100] percent of the scale span.
func trackPosition(v *float64, b Bounds) float64 {
	if v == nil || b.Max <= b.Min {
		return 50
	}
	return RoundTo2((*v - b.Min) / (b.Max - b.Min) * 100)
}

// boundLabels numbers the integer steps of bounds.
func boundLabels(b Bounds) []string {
	if b.Max < b.Min || b.Max-b.Min > 100 {
		return nil
	}
	var labels []string
	for v := math.Ceil(b.Min); v <= b.Max; v++ {
		labels = append(labels, FormatFloat(v, 0))
	}
	return labels
}
