package engine

import "strings"

// ============================================================================
// TEST FIXTURES
// ============================================================================

func viewOf(raw ...map[string]any) RowView {
	rows := make([]Row, len(raw))
	for i, r := range raw {
		rows[i] = NewRow(r)
	}
	return NewSliceView(rows)
}

func fptr(f float64) *float64 { return &f }

var testTags = TagKeys{Group: "grp", Name: "name", Age: "age"}

// testSurvey covers every section kind.
var testSurvey = Survey{
	Tags:    testTags,
	AllTags: []string{"all", "alle"},
	Sections: []Section{
		{ID: "teilA", Title: "Teil A", Kind: KindScale, Keys: []string{"a1", "a2"}, Bounds: &Bounds{Min: 1, Max: 5}},
		{ID: "teilB", Title: "Teil B", Kind: KindFrequency, Keys: []string{"b1"},
			Questions: []Question{{Key: "b1", Title: "Pick one", Options: []string{"Zero", "One", "Two"}}}},
		{ID: "notes", Kind: KindText, TextKey: "note"},
		{ID: "strategy", Kind: KindGroupedText, TextKey: "why", SubKey: "how", SubOptions: []string{"Fold", "Roll"}},
		{ID: "drawings", Kind: KindImages, FileKey: "file"},
		{ID: "count", Kind: KindScalar, ValueKey: "n"},
	},
}

var sampleRows = []map[string]any{
	{"grp": "A", "name": "Ada", "age": 31, "a1": 3, "a2": "4", "b1": 1, "note": "  „hello“  ", "why": "neat", "how": 0, "file": "sock.png", "n": 12},
	{"grp": "B", "name": "", "a1": 5, "a2": 9, "b1": "1", "note": "", "why": "lazy", "file": nil, "n": "x"},
	{"grp": "a", "name": "Cy", "a1": 1, "b1": 2, "note": "«bye»", "why": "fast", "how": 1, "n": 3.5},
}

func lower(s string) string { return strings.ToLower(s) }
