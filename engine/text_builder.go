package engine

import (
	"fmt"
	"strings"
)

// ============================================================================
// TEXT BUILDER — Human-readable Snapshot summary
// ============================================================================
// Used by the CLI "text" format and logs. One header line per section,
// one indented line per question or answer.
// ============================================================================

// BuildSummary renders snap as lines of text.
func BuildSummary(snap Snapshot, survey Survey, placeholder string) []string {
	lines := []string{fmt.Sprintf("Respondents: %d", snap.RespondentCount)}

	for _, sec := range survey.Sections {
		lines = append(lines, "", fmt.Sprintf("[%s] %s", sec.ID, sectionTitle(sec)))

		switch sec.Kind {
		case KindScale:
			lines = append(lines, scaleLines(sec, snap.Scales[sec.ID], placeholder)...)
		case KindFrequency:
			lines = append(lines, frequencyLines(sec, snap.Frequencies[sec.ID], placeholder)...)
		case KindText:
			lines = append(lines, textLines(snap.Texts[sec.ID], placeholder)...)
		case KindGroupedText:
			for _, b := range GroupTextByBucket(snap.Texts[sec.ID], sec.SubOptions) {
				label := b.Label
				if label == "" {
					label = b.Key
				}
				lines = append(lines, fmt.Sprintf("  %s (%d)", label, len(b.Entries)))
				for _, l := range textLines(b.Entries, placeholder) {
					lines = append(lines, "  "+l)
				}
			}
			if len(snap.Texts[sec.ID]) == 0 {
				lines = append(lines, "  "+placeholder)
			}
		case KindImages:
			images := snap.Images[sec.ID]
			if len(images) == 0 {
				lines = append(lines, "  "+placeholder)
			}
			for _, img := range images {
				lines = append(lines, fmt.Sprintf("  %s (%s)", img.FileRef, img.Respondent))
			}
		case KindScalar:
			lines = append(lines, scalarLines(snap.Scalars[sec.ID], placeholder)...)
		}
	}
	return lines
}

func scaleLines(sec Section, summaries []ScaleSummary, placeholder string) []string {
	lines := make([]string, 0, len(sec.Keys))
	for i := range sec.Keys {
		var s ScaleSummary
		if i < len(summaries) {
			s = summaries[i]
		}
		q := sec.Question(i)
		if !s.HasData() {
			lines = append(lines, fmt.Sprintf("  %s: %s", q.Title, placeholder))
			continue
		}
		lines = append(lines, fmt.Sprintf("  %s: median %s, mean %s",
			q.Title, FormatFloat(*s.Median, 2), FormatFloat(*s.Mean, 2)))
	}
	return lines
}

func frequencyLines(sec Section, tables []FrequencyTable, placeholder string) []string {
	var lines []string
	for i := range sec.Keys {
		q := sec.Question(i)
		if i >= len(tables) || len(tables[i]) == 0 {
			lines = append(lines, fmt.Sprintf("  %s: %s", q.Title, placeholder))
			continue
		}
		parts := make([]string, 0, len(tables[i]))
		for _, e := range tables[i] {
			parts = append(parts, fmt.Sprintf("%s %d (%s%%)", optionLabel(q, e.Option), e.Count, FormatFloat(e.Percentage, 1)))
		}
		lines = append(lines, fmt.Sprintf("  %s: %s", q.Title, strings.Join(parts, "; ")))
	}
	return lines
}

func textLines(entries []TextEntry, placeholder string) []string {
	if len(entries) == 0 {
		return []string{"  " + placeholder}
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("  %q (%s)", e.Text, e.Respondent))
	}
	return lines
}

func scalarLines(entries []ScalarEntry, placeholder string) []string {
	if len(entries) == 0 {
		return []string{"  " + placeholder}
	}
	values := make([]float64, 0, len(entries))
	for _, e := range entries {
		values = append(values, e.Value)
	}
	return []string{fmt.Sprintf("  %d answers, mean %s, median %s",
		len(values), FormatFloat(RoundTo2(Mean(values)), 2), FormatFloat(RoundTo2(Median(values)), 2))}
}
