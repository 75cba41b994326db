package engine

import (
	"fmt"
	"strconv"
)

// ============================================================================
// TABLE BUILDER — Flattens a Snapshot into export tables
// ============================================================================
// One table per scale, frequency and scalar section, in survey order.
// Free text and images are not tabular and are left to presentation.
// ============================================================================

// BuildTables produces export tables. Absent scale values render as placeholder.
func BuildTables(snap Snapshot, survey Survey, placeholder string) []TableData {
	tables := make([]TableData, 0, len(survey.Sections))
	for _, sec := range survey.Sections {
		switch sec.Kind {
		case KindScale:
			tables = append(tables, buildScaleTable(sec, snap.Scales[sec.ID], placeholder))
		case KindFrequency:
			tables = append(tables, buildFrequencyTable(sec, snap.Frequencies[sec.ID]))
		case KindScalar:
			tables = append(tables, buildScalarTable(sec, snap.Scalars[sec.ID]))
		}
	}
	return tables
}

func sectionTitle(sec Section) string {
	if sec.Title != "" {
		return sec.Title
	}
	return sec.ID
}

// ============================================================================
// SCALE TABLE — Row per question
// ============================================================================

func buildScaleTable(sec Section, summaries []ScaleSummary, placeholder string) TableData {
	columns := []Column{
		{Key: "key", Label: "Key", Type: "text", Align: "left"},
		{Key: "question", Label: "Question", Type: "text", Align: "left"},
		{Key: "median", Label: "Median", Type: "number", Align: "right"},
		{Key: "mean", Label: "Mean", Type: "number", Align: "right"},
	}

	rows := make([][]string, 0, len(sec.Keys))
	answered := 0
	for i, key := range sec.Keys {
		var s ScaleSummary
		if i < len(summaries) {
			s = summaries[i]
		}
		if s.HasData() {
			answered++
		}
		rows = append(rows, []string{
			key,
			sec.Question(i).Title,
			FormatOptional(s.Median, 2, placeholder),
			FormatOptional(s.Mean, 2, placeholder),
		})
	}

	return TableData{
		Title:   sectionTitle(sec),
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label:  fmt.Sprintf("%d of %d questions answered", answered, len(sec.Keys)),
			Values: map[string]string{},
		},
	}
}

// ============================================================================
// FREQUENCY TABLE — Row per question and answer
// ============================================================================

func buildFrequencyTable(sec Section, tables []FrequencyTable) TableData {
	columns := []Column{
		{Key: "key", Label: "Key", Type: "text", Align: "left"},
		{Key: "question", Label: "Question", Type: "text", Align: "left"},
		{Key: "option", Label: "Option", Type: "text", Align: "left"},
		{Key: "count", Label: "Count", Type: "number", Align: "center"},
		{Key: "percentage", Label: "Percentage", Type: "number", Align: "right"},
	}

	rows := make([][]string, 0)
	for i, key := range sec.Keys {
		if i >= len(tables) {
			break
		}
		q := sec.Question(i)
		for _, e := range tables[i] {
			rows = append(rows, []string{
				key,
				q.Title,
				optionLabel(q, e.Option),
				strconv.Itoa(e.Count),
				FormatFloat(e.Percentage, 1),
			})
		}
	}

	return TableData{
		Title:   sectionTitle(sec),
		Columns: columns,
		Rows:    rows,
	}
}

// optionLabel resolves an answer code to its configured label.
func optionLabel(q Question, option string) string {
	if idx, ok := leadingInt(option); ok && idx >= 0 && idx < len(q.Options) {
		return q.Options[idx]
	}
	return option
}

// ============================================================================
// SCALAR TABLE — Row per respondent
// ============================================================================

func buildScalarTable(sec Section, entries []ScalarEntry) TableData {
	columns := []Column{
		{Key: "group", Label: "Group", Type: "text", Align: "left"},
		{Key: "value", Label: "Value", Type: "number", Align: "right"},
	}

	rows := make([][]string, 0, len(entries))
	values := make([]float64, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.GroupTag, strconv.FormatFloat(e.Value, 'f', -1, 64)})
		values = append(values, e.Value)
	}

	t := TableData{
		Title:   sectionTitle(sec),
		Columns: columns,
		Rows:    rows,
	}
	if len(values) > 0 {
		t.Summary = &Summary{
			Label: fmt.Sprintf("Mean (%d answers)", len(values)),
			Values: map[string]string{
				"value": FormatFloat(RoundTo2(Mean(values)), 2),
			},
		}
	}
	return t
}
