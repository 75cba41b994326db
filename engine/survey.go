package engine

import "strings"

// ============================================================================
// SURVEY LAYOUT — Declarative survey part → aggregator mapping
// ============================================================================
// The facade never hardcodes question keys. A Survey lists its parts; each
// part names one aggregator kind and the columns it consumes. The schema
// package loads, validates and embeds concrete layouts.
// ============================================================================

// SectionKind selects the aggregator applied to a survey part.
type SectionKind string

const (
	KindScale       SectionKind = "scale"
	KindFrequency   SectionKind = "frequency"
	KindText        SectionKind = "text"
	KindGroupedText SectionKind = "grouped_text"
	KindImages      SectionKind = "images"
	KindScalar      SectionKind = "scalar"
)

// Kinds lists every supported section kind.
func Kinds() []SectionKind {
	return []SectionKind{KindScale, KindFrequency, KindText, KindGroupedText, KindImages, KindScalar}
}

// DefaultAllTag is the filter value that disables group filtering.
const DefaultAllTag = "all"

// Question carries display metadata for one column.
type Question struct {
	Key         string   `json:"key" yaml:"key"`
	Title       string   `json:"title" yaml:"title"`
	Options     []string `json:"options,omitempty" yaml:"options,omitempty"`
	ScaleLabels []string `json:"scaleLabels,omitempty" yaml:"scaleLabels,omitempty"`
}

// Section is one survey part.
type Section struct {
	ID    string      `json:"id" yaml:"id"`
	Title string      `json:"title,omitempty" yaml:"title,omitempty"`
	Kind  SectionKind `json:"kind" yaml:"kind"`

	// scale / frequency
	Keys   []string `json:"keys,omitempty" yaml:"keys,omitempty"`
	Bounds *Bounds  `json:"bounds,omitempty" yaml:"bounds,omitempty"`

	// text / grouped_text
	TextKey    string   `json:"textKey,omitempty" yaml:"textKey,omitempty"`
	SubKey     string   `json:"subKey,omitempty" yaml:"subKey,omitempty"`
	SubOptions []string `json:"subOptions,omitempty" yaml:"subOptions,omitempty"`

	// images
	FileKey string `json:"fileKey,omitempty" yaml:"fileKey,omitempty"`

	// scalar
	ValueKey string `json:"valueKey,omitempty" yaml:"valueKey,omitempty"`

	Questions []Question `json:"questions,omitempty" yaml:"questions,omitempty"`
}

// ScaleBounds returns the configured bounds, 1–5 when unset.
func (s Section) ScaleBounds() Bounds {
	if s.Bounds == nil {
		return Bounds{Min: 1, Max: 5}
	}
	return *s.Bounds
}

// Question returns display metadata for the i-th key. A missing entry falls
// back to the key itself as title.
func (s Section) Question(i int) Question {
	if i >= 0 && i < len(s.Questions) {
		q := s.Questions[i]
		if q.Key == "" && i < len(s.Keys) {
			q.Key = s.Keys[i]
		}
		return q
	}
	if i >= 0 && i < len(s.Keys) {
		return Question{Key: s.Keys[i], Title: s.Keys[i]}
	}
	return Question{}
}

// Columns lists every column the section reads, in declaration order.
func (s Section) Columns() []string {
	var cols []string
	cols = append(cols, s.Keys...)
	for _, c := range []string{s.TextKey, s.SubKey, s.FileKey, s.ValueKey} {
		if c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// Survey is the complete layout consumed by Aggregate.
type Survey struct {
	Tags     TagKeys   `json:"tags" yaml:"tags"`
	AllTags  []string  `json:"allTags,omitempty" yaml:"allTags,omitempty"`
	Sections []Section `json:"sections" yaml:"sections"`
}

// IsAllTag reports whether tag disables group filtering. DefaultAllTag is
// always accepted alongside the configured AllTags.
func (s Survey) IsAllTag(tag string) bool {
	if strings.EqualFold(tag, DefaultAllTag) {
		return true
	}
	for _, t := range s.AllTags {
		if strings.EqualFold(tag, t) {
			return true
		}
	}
	return false
}

// Section looks up a section by id.
func (s Survey) Section(id string) (Section, bool) {
	for _, sec := range s.Sections {
		if sec.ID == id {
			return sec, true
		}
	}
	return Section{}, false
}

// SectionsOf returns sections of one kind, in declaration order.
func (s Survey) SectionsOf(kind SectionKind) []Section {
	var out []Section
	for _, sec := range s.Sections {
		if sec.Kind == kind {
			out = append(out, sec)
		}
	}
	return out
}
