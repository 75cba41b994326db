package engine

import (
	"math"
	"sort"
	"strconv"
)

// ============================================================================
// AGGREGATORS — Scale and Frequency summaries via RowView
// ============================================================================
// Missing, empty, non-numeric and out-of-range cells are not errors: they
// drop out of the collection and out of the denominator of that one key.
// ============================================================================

// ============================================================================
// SCALE — median / mean of ordinal questions
// ============================================================================

// ComputeScale returns one ScaleSummary per key, in input order.
func ComputeScale(view RowView, keys []string, bounds Bounds) []ScaleSummary {
	view = orEmpty(view)
	out := make([]ScaleSummary, len(keys))
	for i, key := range keys {
		out[i] = summarizeScale(ScaleValues(view, key, bounds))
	}
	return out
}

// ScaleValues collects the qualifying numeric values of one key.
func ScaleValues(view RowView, key string, bounds Bounds) []float64 {
	view = orEmpty(view)
	values := make([]float64, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		f, ok := view.Value(i, key).Float()
		if !ok || !bounds.Contains(f) {
			continue
		}
		values = append(values, f)
	}
	return values
}

func summarizeScale(values []float64) ScaleSummary {
	if len(values) == 0 {
		return ScaleSummary{}
	}
	median := RoundTo2(Median(values))
	mean := RoundTo2(Mean(values))
	return ScaleSummary{Median: &median, Mean: &mean}
}

// Mean is the arithmetic mean; 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median sorts a copy of values; even counts average the two middle values.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := n / 2
	if n%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// ============================================================================
// FREQUENCY — distributions of categorical questions
// ============================================================================

// ComputeFrequency returns one FrequencyTable per key, in input order.
func ComputeFrequency(view RowView, keys []string) []FrequencyTable {
	view = orEmpty(view)
	out := make([]FrequencyTable, len(keys))
	for i, key := range keys {
		out[i] = frequencyOf(view, key)
	}
	return out
}

func frequencyOf(view RowView, key string) FrequencyTable {
	counts := make(map[string]int)
	order := make([]string, 0)
	total := 0

	for i := 0; i < view.Len(); i++ {
		v := view.Value(i, key)
		if v.IsMissing() {
			continue
		}
		option := v.String()
		if _, exists := counts[option]; !exists {
			order = append(order, option)
		}
		counts[option]++
		total++
	}

	table := make(FrequencyTable, 0, len(order))
	if total == 0 {
		return table
	}
	for _, option := range order {
		c := counts[option]
		table = append(table, FrequencyEntry{
			Option:     option,
			Count:      c,
			Percentage: RoundTo1(float64(c) / float64(total) * 100),
		})
	}
	sort.SliceStable(table, func(i, j int) bool { return table[i].Count > table[j].Count })
	return table
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// Round rounds half away from zero at the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return Round(v, 2)
}

// RoundTo1 rounds to 1 decimal place.
func RoundTo1(v float64) float64 {
	return Round(v, 1)
}

// FormatFloat renders v with a fixed number of decimals.
func FormatFloat(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// FormatOptional renders a nil pointer as the placeholder.
func FormatOptional(v *float64, decimals int, placeholder string) string {
	if v == nil {
		return placeholder
	}
	return FormatFloat(*v, decimals)
}
