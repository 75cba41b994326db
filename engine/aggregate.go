package engine

import (
	"log/slog"
	"time"
)

// ============================================================================
// AGGREGATION FACADE — Survey layout → Snapshot
// ============================================================================
// Entry points: Aggregate(view, survey), FilterAndAggregate(view, survey, tag)
//
// Pipeline:
//   1. (Optional) Filter by group tag → SubView
//   2. Walk survey sections, dispatch each to its aggregator
//   3. Return a complete Snapshot
//
// Pure and deterministic. The input is never mutated, nothing is cached,
// nothing fails: a nil or empty view yields the same shape with empty values.
// ============================================================================

// Aggregate computes every section of survey over view.
func Aggregate(view RowView, survey Survey) Snapshot {
	view = orEmpty(view)
	snap := newSnapshot()
	snap.RespondentCount = view.Len()

	for _, sec := range survey.Sections {
		switch sec.Kind {
		case KindScale:
			snap.Scales[sec.ID] = ComputeScale(view, sec.Keys, sec.ScaleBounds())
		case KindFrequency:
			snap.Frequencies[sec.ID] = ComputeFrequency(view, sec.Keys)
		case KindText:
			snap.Texts[sec.ID] = ExtractText(view, sec.TextKey, survey.Tags)
		case KindGroupedText:
			snap.Texts[sec.ID] = ExtractGroupedText(view, sec.TextKey, sec.SubKey, survey.Tags)
		case KindImages:
			snap.Images[sec.ID] = ExtractImages(view, sec.FileKey, survey.Tags)
		case KindScalar:
			snap.Scalars[sec.ID] = ExtractScalarGrouped(view, sec.ValueKey, survey.Tags.Group)
		}
	}
	return snap
}

// FilterAndAggregate restricts view to one group tag, then aggregates.
// An "all" tag (see Survey.IsAllTag) is equivalent to Aggregate.
func FilterAndAggregate(view RowView, survey Survey, tag string) Snapshot {
	return Aggregate(FilterByGroup(view, survey, tag), survey)
}

// ============================================================================
// ENGINE — Survey bound to options
// ============================================================================

// Engine binds a survey layout to logging and presentation options.
// It is safe for concurrent use; it holds no dataset.
type Engine struct {
	survey Survey
	cfg    *config
}

// New creates an Engine for survey.
//
// Options:
//   - WithLogger(l): debug logs per aggregation
//   - WithPlaceholder(s): text for absent values in BuildSummary
func New(survey Survey, opts ...Option) *Engine {
	return &Engine{survey: survey, cfg: applyOptions(opts)}
}

// Survey returns the bound layout.
func (e *Engine) Survey() Survey { return e.survey }

// Aggregate is the package-level Aggregate with logging.
func (e *Engine) Aggregate(view RowView) Snapshot {
	start := time.Now()
	view = orEmpty(view)
	snap := Aggregate(view, e.survey)
	e.logAggregation(DefaultAllTag, view, snap, start)
	return snap
}

// FilterAndAggregate is the package-level FilterAndAggregate with logging.
func (e *Engine) FilterAndAggregate(view RowView, tag string) Snapshot {
	start := time.Now()
	view = orEmpty(view)
	snap := Aggregate(FilterByGroup(view, e.survey, tag), e.survey)
	e.logAggregation(tag, view, snap, start)
	return snap
}

func (e *Engine) logAggregation(tag string, view RowView, snap Snapshot, start time.Time) {
	e.cfg.Logger.Debug("aggregated survey",
		slog.String("group", tag),
		slog.Int("rows", view.Len()),
		slog.Int("respondents", snap.RespondentCount),
		slog.Int("sections", len(e.survey.Sections)),
		slog.Duration("took", time.Since(start)),
	)
}

// Groups lists the group tags present in view.
func (e *Engine) Groups(view RowView) []string {
	return GroupTags(view, e.survey.Tags.Group)
}

// Charts builds render-ready charts for every scale and frequency section.
func (e *Engine) Charts(snap Snapshot) Charts {
	return BuildCharts(snap, e.survey)
}

// Tables flattens snap into export tables.
func (e *Engine) Tables(snap Snapshot) []TableData {
	return BuildTables(snap, e.survey, e.cfg.Placeholder)
}

// Summary renders snap as human-readable lines.
func (e *Engine) Summary(snap Snapshot) []string {
	return BuildSummary(snap, e.survey, e.cfg.Placeholder)
}
