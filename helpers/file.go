package helpers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for data files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported data format")

// FileOptions selects how LoadFile reads a survey export.
type FileOptions struct {
	Format    string // "csv" or "xlsx"; empty = by extension
	Sheet     string // XLSX only; empty = first sheet
	Delimiter rune   // CSV only; 0 = ';'
}

// DetectFormat returns "csv" or "xlsx" for path's extension.
func DetectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", ".tsv":
		return "csv", nil
	case ".xlsx", ".xlsm":
		return "xlsx", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// LoadFile opens and parses a survey export with dynamic typing enabled.
func LoadFile(path string, opts FileOptions) (*Dataset, error) {
	format := strings.ToLower(opts.Format)
	if format == "" {
		var err error
		if format, err = DetectFormat(path); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	switch format {
	case "csv":
		ds, err := ReadCSV(f, CSVOptions{Delimiter: opts.Delimiter, DynamicTyping: true})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return ds, nil
	case "xlsx":
		ds, err := ParseXLSX(f, opts.Sheet, true)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return ds, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
