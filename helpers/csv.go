package helpers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/spektr-org/sockenstudie/engine"
)

// ============================================================================
// CSV HELPER — Parses delimited survey exports into []engine.Row
// ============================================================================
// Consumer reads the bytes from wherever they live (file, upload, bucket).
// This helper turns them into tagged rows: header row first, empty lines
// skipped, fields trimmed, numbers typed when DynamicTyping is on.
// ============================================================================

// ErrNoHeader is returned when the input has no header row.
var ErrNoHeader = errors.New("no header row")

// CSVOptions controls CSV parsing.
type CSVOptions struct {
	Delimiter     rune // Field separator. Default: ';'
	DynamicTyping bool // Numeric-looking fields become Number values
}

// DefaultCSVOptions matches the survey tool export: semicolons, typed numbers.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Delimiter: ';', DynamicTyping: true}
}

// Dataset is a parsed survey export.
type Dataset struct {
	Headers []string     `json:"headers"`
	Rows    []engine.Row `json:"rows"`
	Skipped int          `json:"skipped"` // malformed or blank rows
}

// View exposes the rows in header order.
func (d *Dataset) View() engine.RowView {
	if d == nil {
		return engine.NewSliceView(nil)
	}
	return engine.NewSliceView(d.Rows, d.Headers...)
}

// ParseCSV parses CSV bytes.
func ParseCSV(data []byte, opts ...CSVOptions) (*Dataset, error) {
	return ReadCSV(bytes.NewReader(data), opts...)
}

// ReadCSV parses CSV from r. Malformed rows are skipped and counted.
func ReadCSV(r io.Reader, opts ...CSVOptions) (*Dataset, error) {
	opt := DefaultCSVOptions()
	if len(opts) > 0 {
		opt = opts[0]
		if opt.Delimiter == 0 {
			opt.Delimiter = ';'
		}
	}

	reader := csv.NewReader(r)
	reader.Comma = opt.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// Read header
	headers, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	headers = normalizeHeaders(headers)
	if len(headers) == 0 {
		return nil, ErrNoHeader
	}

	ds := &Dataset{Headers: headers}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			ds.Skipped++
			continue // skip malformed rows
		}
		row, ok := buildRow(headers, record, opt.DynamicTyping)
		if !ok {
			ds.Skipped++
			continue
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// normalizeHeaders trims names, strips a UTF-8 BOM and suffixes duplicates
// (name, name_1, name_2). Returns nil when every header is blank.
func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	blank := true
	for i, h := range raw {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		if h != "" {
			blank = false
		}
		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			h = h + "_" + strconv.Itoa(n+1)
		} else {
			seen[h] = 0
		}
		headers[i] = h
	}
	if blank {
		return nil
	}
	return headers
}

// buildRow maps fields onto headers. Extra fields are dropped, missing ones
// stay absent. Rows without any non-blank field are rejected.
func buildRow(headers, fields []string, typed bool) (engine.Row, bool) {
	row := make(engine.Row, len(headers))
	filled := false
	for i, val := range fields {
		if i >= len(headers) {
			break
		}
		if headers[i] == "" {
			continue
		}
		v := ParseCell(val, typed)
		if !v.IsMissing() {
			filled = true
		}
		row[headers[i]] = v
	}
	return row, filled
}

var numberPattern = regexp.MustCompile(`^-?(\d+\.?|\.\d+|\d+\.\d+)([eE][-+]?\d+)?$`)

// ParseCell classifies one raw field: blank → Missing; decimal numbers →
// Number when typed; true/TRUE and false/FALSE → booleans when typed;
// everything else → Text.
func ParseCell(raw string, typed bool) engine.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return engine.MissingValue()
	}
	if typed {
		switch s {
		case "true", "TRUE":
			return engine.Coerce(true)
		case "false", "FALSE":
			return engine.Coerce(false)
		}
	}
	if typed && numberPattern.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return engine.NumberValue(f)
		}
	}
	return engine.TextValue(s)
}

// ============================================================================
// TABLE EXPORT — CSV
// ============================================================================

// WriteTablesCSV writes tables one after another, each preceded by its
// title line and separated by a blank line.
func WriteTablesCSV(w io.Writer, tables []engine.TableData, delimiter rune) error {
	if delimiter == 0 {
		delimiter = ';'
	}
	cw := csv.NewWriter(w)
	cw.Comma = delimiter

	for i, t := range tables {
		if i > 0 {
			if err := cw.Write([]string{""}); err != nil {
				return err
			}
		}
		if err := cw.Write([]string{t.Title}); err != nil {
			return err
		}
		if err := cw.Write(t.Headers()); err != nil {
			return err
		}
		if err := cw.WriteAll(t.Rows); err != nil {
			return err
		}
		if t.Summary != nil {
			if err := cw.Write(summaryRow(t)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// summaryRow lays the summary out under the matching columns, label first.
func summaryRow(t engine.TableData) []string {
	row := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		row[i] = t.Summary.Values[c.Key]
	}
	if len(row) > 0 {
		row[0] = t.Summary.Label
	}
	return row
}
