package helpers

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/sockenstudie/engine"
)

// ============================================================================
// XLSX HELPER — Survey exports from spreadsheets, tables back out
// ============================================================================

// ParseXLSX reads one sheet of a workbook. An empty sheet name selects the
// first sheet. Cell text follows the same typing rules as ParseCSV.
func ParseXLSX(r io.Reader, sheet string, dynamicTyping bool) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoHeader
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	// Leading blank rows are common above the header
	start := 0
	for start < len(rows) && isBlank(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, ErrNoHeader
	}
	headers := normalizeHeaders(rows[start])
	if len(headers) == 0 {
		return nil, ErrNoHeader
	}

	ds := &Dataset{Headers: headers}
	for _, record := range rows[start+1:] {
		row, ok := buildRow(headers, record, dynamicTyping)
		if !ok {
			ds.Skipped++
			continue
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// WriteTablesXLSX writes one sheet per table.
func WriteTablesXLSX(w io.Writer, tables []engine.TableData) error {
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	used := make(map[string]bool)

	for i, t := range tables {
		name := uniqueSheetName(t.Title, i, used)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}
		if err := writeTableSheet(f, name, t); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeTableSheet(f *excelize.File, sheet string, t engine.TableData) error {
	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Label
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for r, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for c, val := range row {
			cells[c] = cellValue(t.Columns, c, val)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
	}

	if t.Summary != nil {
		row := summaryRow(t)
		cells := make([]interface{}, len(row))
		for i, v := range row {
			cells[i] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, len(t.Rows)+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	return nil
}

// cellValue stores number columns as numbers so spreadsheets can sum them.
func cellValue(columns []engine.Column, i int, val string) interface{} {
	if i < len(columns) && columns[i].Type == "number" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return val
}

// uniqueSheetName derives a valid sheet name: at most 31 characters, none of
// : \ / ? * [ ], unique within the workbook.
func uniqueSheetName(title string, index int, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, strings.TrimSpace(title))
	name = strings.Trim(name, "'")
	if name == "" {
		name = "Table " + strconv.Itoa(index+1)
	}
	name = truncateRunes(name, 31)

	base := name
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := " (" + strconv.Itoa(n) + ")"
		name = truncateRunes(base, 31-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
