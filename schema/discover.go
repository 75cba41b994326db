package schema

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spektr-org/sockenstudie/engine"
)

// ============================================================================
// AUTO-DISCOVERY — Heuristic draft schema from a dataset
// ============================================================================
// Inspects parsed rows and proposes a survey layout. The draft is meant to be
// written out, reviewed and completed with titles and option labels.
//
// Classification pipeline per column:
//   1. Metadata columns (group, name, age) → Columns
//   2. Sample values → detect type (numeric, file reference, text)
//   3. Type + range + cardinality → section kind (scale, frequency, ...)
//   4. frage_<part><n> columns of one part and kind → one section
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize  int    // Max rows to inspect (0 = all). Default: 1000
	Name        string // Survey name override
	GroupColumn string // Force the group column instead of guessing
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
	}
}

var (
	groupCandidates = []string{"zugehoerigkeit", "gruppe", "group", "grp", "role"}
	nameCandidates  = []string{"name", "vorname"}
	ageCandidates   = []string{"alter", "age"}

	questionPattern = regexp.MustCompile(`^frage_([a-z])(\d+)(?:_(\d+))?$`)
	imagePattern    = regexp.MustCompile(`(?i)\.(png|jpe?g|gif|webp|svg|heic)$`)
)

// Discover generates a draft Config by inspecting view.
func Discover(view engine.RowView, opts ...DiscoverOptions) (*Config, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if view == nil || len(view.Keys()) == 0 {
		return nil, fmt.Errorf("dataset has no columns")
	}
	if view.Len() == 0 {
		return nil, fmt.Errorf("dataset has no data rows")
	}

	limit := view.Len()
	if opt.SampleSize > 0 && opt.SampleSize < limit {
		limit = opt.SampleSize
	}

	keys := append([]string(nil), view.Keys()...)
	sort.SliceStable(keys, func(i, j int) bool { return naturalLess(keys[i], keys[j]) })

	config := &Config{
		Name:           opt.Name,
		Version:        "1.0",
		DiscoveredFrom: fmt.Sprintf("%d rows", view.Len()),
	}
	if config.Name == "" {
		config.Name = "Auto-discovered Survey"
	}

	// 1. Metadata columns
	config.Columns.Group = opt.GroupColumn
	if config.Columns.Group == "" {
		config.Columns.Group = pickColumn(keys, groupCandidates)
	}
	config.Columns.Name = pickColumn(keys, nameCandidates)
	config.Columns.Age = pickColumn(keys, ageCandidates)
	meta := map[string]bool{config.Columns.Group: true, config.Columns.Name: true, config.Columns.Age: true}

	// 2–3. Analyze and classify
	var sections []engine.Section
	byPart := make(map[string]int) // part+kind → index into sections

	for _, key := range keys {
		if meta[key] {
			continue
		}
		col := analyzeColumn(view, key, limit)
		if col.kind == "" {
			config.SkippedColumns = append(config.SkippedColumns, SkippedColumn{Column: key, Reason: col.skipReason})
			continue
		}

		// 4. Merge question columns of one part
		if part, ok := questionPart(key); ok && (col.kind == engine.KindScale || col.kind == engine.KindFrequency) {
			group := part + "/" + string(col.kind)
			if idx, exists := byPart[group]; exists {
				sec := &sections[idx]
				sec.Keys = append(sec.Keys, key)
				if sec.Bounds != nil && col.bounds != nil {
					sec.Bounds.Min = math.Min(sec.Bounds.Min, col.bounds.Min)
					sec.Bounds.Max = math.Max(sec.Bounds.Max, col.bounds.Max)
				}
				continue
			}
			byPart[group] = len(sections)
			sections = append(sections, engine.Section{
				ID:     "teil" + strings.ToUpper(part),
				Title:  "Teil " + strings.ToUpper(part),
				Kind:   col.kind,
				Keys:   []string{key},
				Bounds: col.bounds,
			})
			continue
		}
		sections = append(sections, col.section())
	}

	// Parts holding both scale and frequency questions need distinct ids
	ids := make(map[string]int)
	for _, s := range sections {
		ids[s.ID]++
	}
	for i := range sections {
		if ids[sections[i].ID] > 1 {
			sections[i].ID += "_" + string(sections[i].Kind)
		}
	}

	config.Sections = sections
	config.setDefaults()
	return config, nil
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

type columnAnalysis struct {
	key        string
	kind       engine.SectionKind
	bounds     *engine.Bounds
	skipReason string

	// Stats
	nonMissing int
	numeric    int
	integers   int
	images     int
	unique     int
	min, max   float64
}

// analyzeColumn inspects the first limit values of a column and classifies it.
func analyzeColumn(view engine.RowView, key string, limit int) columnAnalysis {
	col := columnAnalysis{key: key, min: math.Inf(1), max: math.Inf(-1)}
	uniqueSet := make(map[string]bool)

	for i := 0; i < limit; i++ {
		v := view.Value(i, key)
		s := strings.TrimSpace(v.String())
		if s == "" {
			continue
		}
		col.nonMissing++
		uniqueSet[s] = true
		if f, ok := v.Float(); ok {
			col.numeric++
			if f == math.Trunc(f) {
				col.integers++
			}
			col.min = math.Min(col.min, f)
			col.max = math.Max(col.max, f)
		}
		if imagePattern.MatchString(s) {
			col.images++
		}
	}
	col.unique = len(uniqueSet)
	col.classify()
	return col
}

// classify requires 80%+ of non-missing values to match a type.
func (col *columnAnalysis) classify() {
	if col.nonMissing == 0 {
		col.skipReason = "All values are empty"
		return
	}
	share := func(n int) float64 { return float64(n) / float64(col.nonMissing) }

	switch {
	case share(col.images) >= 0.8:
		col.kind = engine.KindImages

	case share(col.numeric) >= 0.8:
		coded := col.integers == col.numeric && col.max-col.min <= 10
		switch {
		case coded && col.min >= 1:
			// Likert answers start at 1; assume at least a five-point scale
			col.kind = engine.KindScale
			col.bounds = &engine.Bounds{Min: 1, Max: math.Max(5, col.max)}
		case coded:
			// 0-based option indices
			col.kind = engine.KindFrequency
		default:
			col.kind = engine.KindScalar
		}

	case col.unique <= 10 && col.unique*2 <= col.nonMissing:
		col.kind = engine.KindFrequency

	default:
		col.kind = engine.KindText
	}
}

// section turns a standalone column into its own section.
func (col *columnAnalysis) section() engine.Section {
	sec := engine.Section{ID: col.key, Title: toDisplayName(col.key), Kind: col.kind}
	switch col.kind {
	case engine.KindScale:
		sec.Keys = []string{col.key}
		sec.Bounds = col.bounds
	case engine.KindFrequency:
		sec.Keys = []string{col.key}
	case engine.KindText:
		sec.TextKey = col.key
	case engine.KindImages:
		sec.FileKey = col.key
	case engine.KindScalar:
		sec.ValueKey = col.key
	}
	return sec
}

// ============================================================================
// KEY UTILITIES
// ============================================================================

func pickColumn(keys, candidates []string) string {
	for _, c := range candidates {
		for _, k := range keys {
			if strings.EqualFold(k, c) {
				return k
			}
		}
	}
	return ""
}

// questionPart returns the part letter of a frage_<part><n> column.
func questionPart(key string) (string, bool) {
	m := questionPattern.FindStringSubmatch(strings.ToLower(key))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// naturalLess orders frage_a2 before frage_a10 and frage_e4_1 before frage_e4_2.
// Question columns sort before all other columns.
func naturalLess(a, b string) bool {
	ma := questionPattern.FindStringSubmatch(strings.ToLower(a))
	mb := questionPattern.FindStringSubmatch(strings.ToLower(b))
	switch {
	case ma == nil && mb == nil:
		return a < b
	case ma == nil:
		return false
	case mb == nil:
		return true
	}
	if ma[1] != mb[1] {
		return ma[1] < mb[1]
	}
	if na, nb := atoi(ma[2]), atoi(mb[2]); na != nb {
		return na < nb
	}
	return atoi(ma[3]) < atoi(mb[3])
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// toDisplayName cleans a key for human display.
// "frage_a1" → "Frage A1", "zeichnung_datei" → "Zeichnung Datei"
func toDisplayName(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
	}
	return strings.Join(words, " ")
}
