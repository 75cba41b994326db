package engine

import (
	"strings"
)

// ============================================================================
// FILTERS — Column-Based Filtering via RowView
// ============================================================================
// Single-pass filter: checks ALL column constraints per row in one loop.
// Returns a SubView (index list into parent), zero data copy.
// ============================================================================

// Filters define which rows to include.
// Keys are column names. Values are allowed values, compared lowercased.
// OR within a column, AND across columns. Empty = all.
type Filters struct {
	Columns map[string][]string `json:"columns"`
}

// HasFilter returns true if a specific column filter is set.
func (f Filters) HasFilter(column string) bool {
	if f.Columns == nil {
		return false
	}
	vals, ok := f.Columns[column]
	return ok && len(vals) > 0
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	for _, vals := range f.Columns {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// ApplyFilters returns a view of rows matching all column filters.
// Empty filter = no restriction (returns original view).
func ApplyFilters(view RowView, filters Filters) RowView {
	view = orEmpty(view)
	if filters.IsEmpty() {
		return view
	}

	// Pre-build lowercase lookup sets for each column filter
	sets := make(map[string]map[string]bool)
	for col, allowed := range filters.Columns {
		if len(allowed) > 0 {
			sets[col] = toLowerSet(allowed)
		}
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		pass := true
		for col, set := range sets {
			val := strings.ToLower(view.Value(i, col).String())
			if !set[val] {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}

// FilterByGroup keeps rows whose group column equals tag, case-insensitively.
// A tag the survey treats as "all" returns the view unchanged.
func FilterByGroup(view RowView, survey Survey, tag string) RowView {
	if survey.IsAllTag(tag) {
		return orEmpty(view)
	}
	return ApplyFilters(view, Filters{Columns: map[string][]string{
		survey.Tags.Group: {tag},
	}})
}

// GroupTags returns the distinct non-empty values of the group column in
// first-seen order, lowercased.
func GroupTags(view RowView, groupKey string) []string {
	view = orEmpty(view)
	seen := make(map[string]bool)
	var tags []string
	for i := 0; i < view.Len(); i++ {
		tag := strings.ToLower(view.Value(i, groupKey).String())
		if tag != "" && !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// toLowerSet converts a string slice to a lowercase lookup set.
func toLowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = true
	}
	return set
}
