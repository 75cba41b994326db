package engine

// ============================================================================
// SOCKENSTUDIE ENGINE TYPES — Survey Aggregation
// ============================================================================
// Row → (Scale | Frequency | Extract) → Snapshot.
//
// Dependency: engine has ZERO external dependencies beyond golang.org/x/text.
// ============================================================================

// ============================================================================
// ROW — One respondent's submission
// ============================================================================

// Row maps question columns to tagged values. Absent columns read as Missing.
type Row map[string]Value

// NewRow coerces raw parser output into a Row.
func NewRow(raw map[string]any) Row {
	row := make(Row, len(raw))
	for k, v := range raw {
		row[k] = Coerce(v)
	}
	return row
}

// Get returns the value of a column, Missing when absent.
func (r Row) Get(key string) Value {
	if r == nil {
		return Value{}
	}
	return r[key]
}

// Bounds is the inclusive range of an ordinal scale.
type Bounds struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains reports whether v lies within [Min, Max].
func (b Bounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// TagKeys names the respondent metadata columns attached to extracted entries.
type TagKeys struct {
	Group string `json:"group" yaml:"group"`
	Name  string `json:"name" yaml:"name"`
	Age   string `json:"age" yaml:"age"`

	// Unknown replaces a missing name in respondent labels.
	Unknown string `json:"unknown,omitempty" yaml:"unknown,omitempty"`
}

// ============================================================================
// AGGREGATES
// ============================================================================

// ScaleSummary is the median/mean of one ordinal question. Both are nil when
// no qualifying value exists.
type ScaleSummary struct {
	Median *float64 `json:"median"`
	Mean   *float64 `json:"mean"`
}

// HasData reports whether the summary carries values.
func (s ScaleSummary) HasData() bool {
	return s.Median != nil && s.Mean != nil
}

// FrequencyEntry is one distinct answer of a categorical question.
type FrequencyEntry struct {
	Option     string  `json:"option"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// FrequencyTable is sorted by Count descending, ties in first-seen order.
type FrequencyTable []FrequencyEntry

// Total sums the counts of all entries.
func (t FrequencyTable) Total() int {
	n := 0
	for _, e := range t {
		n += e.Count
	}
	return n
}

// Find returns the entry for an option.
func (t FrequencyTable) Find(option string) (FrequencyEntry, bool) {
	for _, e := range t {
		if e.Option == option {
			return e, true
		}
	}
	return FrequencyEntry{}, false
}

// ============================================================================
// EXTRACTED ENTRIES
// ============================================================================

// TextEntry is one free-text answer with its respondent tags.
type TextEntry struct {
	Text       string `json:"text"`
	GroupTag   string `json:"groupTag,omitempty"`
	Respondent string `json:"respondent"`

	// Bucket is set by ExtractGroupedText; UnknownBucket when the
	// sub-grouping answer is missing.
	Bucket string `json:"bucket,omitempty"`
}

// TextBucket groups text entries sharing a sub-grouping answer.
type TextBucket struct {
	Key     string      `json:"key"`
	Label   string      `json:"label,omitempty"`
	Entries []TextEntry `json:"entries"`
}

// ImageEntry references one uploaded drawing.
type ImageEntry struct {
	FileRef    string `json:"fileRef"`
	Respondent string `json:"respondent"`
}

// ScalarEntry is one respondent's numeric answer with its group tag.
type ScalarEntry struct {
	Value    float64 `json:"value"`
	GroupTag string  `json:"groupTag"`
}

// ============================================================================
// SNAPSHOT — Aggregate root handed to presentation
// ============================================================================

// Snapshot bundles every derived aggregate of one dataset, keyed by survey
// part id. Every configured part is present, even for zero rows.
type Snapshot struct {
	RespondentCount int                         `json:"respondentCount"`
	Scales          map[string][]ScaleSummary   `json:"scales"`
	Frequencies     map[string][]FrequencyTable `json:"frequencies"`
	Texts           map[string][]TextEntry      `json:"texts"`
	Images          map[string][]ImageEntry     `json:"images"`
	Scalars         map[string][]ScalarEntry    `json:"scalars"`
}

func newSnapshot() Snapshot {
	return Snapshot{
		Scales:      make(map[string][]ScaleSummary),
		Frequencies: make(map[string][]FrequencyTable),
		Texts:       make(map[string][]TextEntry),
		Images:      make(map[string][]ImageEntry),
		Scalars:     make(map[string][]ScalarEntry),
	}
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a bar chart of one question.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Key        string        `json:"key"`
	Title      string        `json:"title"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single bar.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// ScaleMarkers positions median and mean on a scale track.
type ScaleMarkers struct {
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	HasData     bool     `json:"hasData"`
	Median      *float64 `json:"median"`
	Mean        *float64 `json:"mean"`
	MedianPos   float64  `json:"medianPos"`
	MeanPos     float64  `json:"meanPos"`
	Overlap     bool     `json:"overlap"`
	Labels      []string `json:"labels,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines a flat export table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Summary is a footer row of a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "center", "right"
}

// Headers returns the column labels.
func (t TableData) Headers() []string {
	h := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		h[i] = c.Label
	}
	return h
}
