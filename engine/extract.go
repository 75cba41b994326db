package engine

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ============================================================================
// FIELD EXTRACTOR — Per-respondent records out of raw rows
// ============================================================================
// Incomplete rows are dropped, never emitted as empty placeholders.
// ============================================================================

const (
	// UnknownRespondent labels rows without a name.
	UnknownRespondent = "unknown"
	// UnknownBucket collects grouped text whose sub-grouping answer is missing.
	UnknownBucket = "unknown"
)

const (
	openingQuotes = "\"„“”‟«»‹›"
	closingQuotes = "\"“”„‟«»‹›"
)

// CleanText normalizes a free-text answer: NFC, trim, strip one leading and
// one trailing quote character, trim again.
func CleanText(s string) string {
	s = strings.TrimSpace(norm.NFC.String(s))
	for _, q := range openingQuotes {
		if strings.HasPrefix(s, string(q)) {
			s = strings.TrimPrefix(s, string(q))
			break
		}
	}
	for _, q := range closingQuotes {
		if strings.HasSuffix(s, string(q)) {
			s = strings.TrimSuffix(s, string(q))
			break
		}
	}
	return strings.TrimSpace(s)
}

// RespondentLabel builds "name (age)", falling back to the unknown sentinel.
func RespondentLabel(view RowView, i int, tags TagKeys) string {
	name := strings.TrimSpace(view.Value(i, tags.Name).String())
	if tags.Name == "" || name == "" {
		name = tags.Unknown
		if name == "" {
			name = UnknownRespondent
		}
	}
	if tags.Age != "" {
		if age := strings.TrimSpace(view.Value(i, tags.Age).String()); age != "" {
			return name + " (" + age + ")"
		}
	}
	return name
}

// ExtractText collects non-empty free-text answers.
func ExtractText(view RowView, textKey string, tags TagKeys) []TextEntry {
	view = orEmpty(view)
	out := make([]TextEntry, 0)
	for i := 0; i < view.Len(); i++ {
		text := CleanText(view.Value(i, textKey).String())
		if text == "" {
			continue
		}
		out = append(out, TextEntry{
			Text:       text,
			GroupTag:   groupTag(view, i, tags),
			Respondent: RespondentLabel(view, i, tags),
		})
	}
	return out
}

// ExtractGroupedText is ExtractText plus a sub-grouping bucket read from subKey.
func ExtractGroupedText(view RowView, textKey, subKey string, tags TagKeys) []TextEntry {
	view = orEmpty(view)
	out := make([]TextEntry, 0)
	for i := 0; i < view.Len(); i++ {
		text := CleanText(view.Value(i, textKey).String())
		if text == "" {
			continue
		}
		bucket := strings.TrimSpace(view.Value(i, subKey).String())
		if bucket == "" {
			bucket = UnknownBucket
		}
		out = append(out, TextEntry{
			Text:       text,
			GroupTag:   groupTag(view, i, tags),
			Respondent: RespondentLabel(view, i, tags),
			Bucket:     bucket,
		})
	}
	return out
}

// GroupTextByBucket buckets grouped text entries. Buckets "0".."len(labels)-1"
// come first in index order, then any other observed bucket in first-seen
// order, then UnknownBucket. Empty buckets are omitted.
func GroupTextByBucket(entries []TextEntry, labels []string) []TextBucket {
	byKey := make(map[string][]TextEntry)
	var extra []string
	for _, e := range entries {
		key := e.Bucket
		if key == "" {
			key = UnknownBucket
		}
		if _, seen := byKey[key]; !seen && key != UnknownBucket && !isIndexKey(key, len(labels)) {
			extra = append(extra, key)
		}
		byKey[key] = append(byKey[key], e)
	}

	var buckets []TextBucket
	for i, label := range labels {
		key := strconv.Itoa(i)
		if es, ok := byKey[key]; ok {
			buckets = append(buckets, TextBucket{Key: key, Label: label, Entries: es})
		}
	}
	for _, key := range extra {
		buckets = append(buckets, TextBucket{Key: key, Entries: byKey[key]})
	}
	if es, ok := byKey[UnknownBucket]; ok {
		buckets = append(buckets, TextBucket{Key: UnknownBucket, Entries: es})
	}
	return buckets
}

func isIndexKey(key string, n int) bool {
	i, err := strconv.Atoi(key)
	return err == nil && i >= 0 && i < n && strconv.Itoa(i) == key
}

// ExtractImages collects file references.
func ExtractImages(view RowView, fileKey string, tags TagKeys) []ImageEntry {
	view = orEmpty(view)
	out := make([]ImageEntry, 0)
	for i := 0; i < view.Len(); i++ {
		ref := strings.TrimSpace(view.Value(i, fileKey).String())
		if ref == "" {
			continue
		}
		out = append(out, ImageEntry{
			FileRef:    ref,
			Respondent: RespondentLabel(view, i, tags),
		})
	}
	return out
}

// ExtractScalarGrouped collects numeric answers with the respondent's group.
func ExtractScalarGrouped(view RowView, valueKey, groupKey string) []ScalarEntry {
	view = orEmpty(view)
	out := make([]ScalarEntry, 0)
	for i := 0; i < view.Len(); i++ {
		f, ok := view.Value(i, valueKey).Float()
		if !ok {
			continue
		}
		out = append(out, ScalarEntry{
			Value:    f,
			GroupTag: view.Value(i, groupKey).String(),
		})
	}
	return out
}

func groupTag(view RowView, i int, tags TagKeys) string {
	if tags.Group == "" {
		return ""
	}
	return view.Value(i, tags.Group).String()
}
