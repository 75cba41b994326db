package engine

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateExample(t *testing.T) {
	view := viewOf(
		map[string]any{"q": 3, "grp": "A"},
		map[string]any{"q": 5, "grp": "B"},
		map[string]any{"q": 1, "grp": "A"},
	)
	survey := Survey{
		Tags:     TagKeys{Group: "grp"},
		Sections: []Section{{ID: "s", Kind: KindScale, Keys: []string{"q"}, Bounds: &Bounds{Min: 1, Max: 5}}},
	}

	all := Aggregate(view, survey)
	assert.Equal(t, 3, all.RespondentCount)
	assert.Equal(t, []ScaleSummary{{Median: fptr(3), Mean: fptr(3)}}, all.Scales["s"])

	a := FilterAndAggregate(view, survey, "A")
	assert.Equal(t, 2, a.RespondentCount)
	assert.Equal(t, []ScaleSummary{{Median: fptr(2), Mean: fptr(2)}}, a.Scales["s"])
}

func TestAggregateFullSurvey(t *testing.T) {
	snap := Aggregate(viewOf(sampleRows...), testSurvey)

	assert.Equal(t, 3, snap.RespondentCount)
	assert.Equal(t, []ScaleSummary{
		{Median: fptr(3), Mean: fptr(3)},
		{Median: fptr(4), Mean: fptr(4)},
	}, snap.Scales["teilA"])
	assert.Equal(t, []FrequencyTable{{
		{Option: "1", Count: 2, Percentage: 66.7},
		{Option: "2", Count: 1, Percentage: 33.3},
	}}, snap.Frequencies["teilB"])
	assert.Len(t, snap.Texts["notes"], 2)
	assert.Len(t, snap.Texts["strategy"], 3)
	assert.Len(t, snap.Images["drawings"], 1)
	assert.Len(t, snap.Scalars["count"], 2)
}

func TestAggregateEmptyIsComplete(t *testing.T) {
	for name, view := range map[string]RowView{
		"nil":   nil,
		"empty": NewSliceView(nil),
	} {
		t.Run(name, func(t *testing.T) {
			snap := Aggregate(view, testSurvey)
			assert.Equal(t, 0, snap.RespondentCount)

			assert.Equal(t, []ScaleSummary{{}, {}}, snap.Scales["teilA"])
			require.Len(t, snap.Frequencies["teilB"], 1)
			assert.NotNil(t, snap.Frequencies["teilB"][0])
			assert.Empty(t, snap.Frequencies["teilB"][0])

			for _, id := range []string{"notes", "strategy"} {
				require.Contains(t, snap.Texts, id)
				assert.NotNil(t, snap.Texts[id])
				assert.Empty(t, snap.Texts[id])
			}
			require.Contains(t, snap.Images, "drawings")
			assert.Empty(t, snap.Images["drawings"])
			require.Contains(t, snap.Scalars, "count")
			assert.Empty(t, snap.Scalars["count"])
		})
	}
}

func TestFilterAndAggregateAllEqualsAggregate(t *testing.T) {
	view := viewOf(sampleRows...)
	want := Aggregate(view, testSurvey)
	for _, tag := range []string{"all", "ALL", "Alle"} {
		assert.Equal(t, want, FilterAndAggregate(view, testSurvey, tag), tag)
	}
}

func TestFilterAndAggregateCaseInsensitive(t *testing.T) {
	view := viewOf(sampleRows...)
	snap := FilterAndAggregate(view, testSurvey, "a")
	assert.Equal(t, 2, snap.RespondentCount)
	for _, e := range snap.Texts["notes"] {
		assert.Equal(t, "a", lower(e.GroupTag))
	}
	assert.Equal(t, snap, FilterAndAggregate(view, testSurvey, "A"))

	none := FilterAndAggregate(view, testSurvey, "patient")
	assert.Equal(t, Aggregate(nil, testSurvey), none)
}

func TestFilterAndAggregateDoesNotMutate(t *testing.T) {
	rows := make([]Row, len(sampleRows))
	for i, r := range sampleRows {
		rows[i] = NewRow(r)
	}
	before := make([]Row, len(rows))
	for i, r := range rows {
		cp := make(Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		before[i] = cp
	}

	view := NewSliceView(rows)
	first := FilterAndAggregate(view, testSurvey, "b")
	second := FilterAndAggregate(view, testSurvey, "b")

	assert.Equal(t, first, second)
	assert.Equal(t, before, rows)
}

func TestEngineLogsAggregation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	eng := New(testSurvey, WithLogger(logger))

	snap := eng.FilterAndAggregate(viewOf(sampleRows...), "B")
	assert.Equal(t, 1, snap.RespondentCount)
	assert.Contains(t, buf.String(), "aggregated survey")
	assert.Contains(t, buf.String(), "group=B")

	assert.Equal(t, Aggregate(viewOf(sampleRows...), testSurvey), eng.Aggregate(viewOf(sampleRows...)))
	assert.Equal(t, []string{"a", "b"}, eng.Groups(viewOf(sampleRows...)))
}

func TestEngineCustomAllTags(t *testing.T) {
	survey := Survey{
		Tags:     TagKeys{Group: "grp"},
		AllTags:  []string{"alle"},
		Sections: []Section{{ID: "s", Kind: KindScale, Keys: []string{"q"}}},
	}
	view := viewOf(
		map[string]any{"q": 2, "grp": "A"},
		map[string]any{"q": 4, "grp": "B"},
	)
	eng := New(survey)

	want := Aggregate(view, survey)
	require.Equal(t, 2, want.RespondentCount)
	assert.Equal(t, want, eng.Aggregate(view))
	assert.Equal(t, want, eng.FilterAndAggregate(view, DefaultAllTag))
	assert.Equal(t, want, eng.FilterAndAggregate(view, "ALLE"))
	assert.Equal(t, want, FilterAndAggregate(view, survey, "all"))

	assert.True(t, survey.IsAllTag("All"))
	assert.True(t, survey.IsAllTag("alle"))
	assert.False(t, survey.IsAllTag("a"))
}
