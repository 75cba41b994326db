package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spektr-org/sockenstudie/engine"
	"github.com/spektr-org/sockenstudie/helpers"
	"github.com/spektr-org/sockenstudie/schema"
)

type aggregateOptions struct {
	file       string
	schemaPath string
	group      string
	format     string
	out        string
	sheet      string
	delimiter  string
}

func newAggregateCmd(root *rootOptions) *cobra.Command {
	opts := &aggregateOptions{}
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate a survey export into a snapshot",
		Long: `Aggregates every survey part of an export and writes the result.

Formats:
  json      Snapshot and charts as JSON (default)
  pretty    Pretty-printed JSON
  text      Human-readable summary
  csv       One table per survey part (ready for Sheets/Excel)
  xlsx      One sheet per survey part`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAggregate(cmd, root, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.file, "file", "", "Path to survey export, CSV or XLSX (required)")
	f.StringVar(&opts.schemaPath, "schema", "", "Survey schema YAML/JSON (default: embedded Sockenstudie schema)")
	f.StringVar(&opts.group, "group", engine.DefaultAllTag, "Group tag to filter by")
	f.StringVar(&opts.format, "format", "json", "Output format: json, pretty, text, csv, xlsx")
	f.StringVar(&opts.out, "out", "", "Write output to file instead of stdout")
	f.StringVar(&opts.sheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	f.StringVar(&opts.delimiter, "delimiter", ";", "CSV delimiter for input and csv output")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// aggregateOutput is the JSON document written by aggregate.
type aggregateOutput struct {
	Survey   string                 `json:"survey"`
	Group    string                 `json:"group"`
	Skipped  int                    `json:"skippedRows"`
	Missing  []schema.MissingColumn `json:"missingColumns,omitempty"`
	Snapshot engine.Snapshot        `json:"snapshot"`
	Charts   engine.Charts          `json:"charts"`
}

func runAggregate(cmd *cobra.Command, root *rootOptions, opts *aggregateOptions) (err error) {
	logger := root.logger(cmd)

	format := strings.ToLower(opts.format)
	switch format {
	case "json", "pretty", "text", "csv", "xlsx":
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}
	delim, err := delimiterRune(opts.delimiter)
	if err != nil {
		return err
	}

	cfg, err := loadSchema(opts.schemaPath)
	if err != nil {
		return err
	}
	ds, err := helpers.LoadFile(opts.file, helpers.FileOptions{Sheet: opts.sheet, Delimiter: delim})
	if err != nil {
		return err
	}
	logger.Info("parsed export", "file", opts.file, "rows", len(ds.Rows), "skipped", ds.Skipped)

	missing := schema.CheckColumns(*cfg, ds.Headers)
	for _, m := range missing {
		logger.Warn("configured column missing from export", "column", m.Column, "section", m.Section)
	}

	eng := cfg.Engine(engine.WithLogger(logger))
	snap := eng.FilterAndAggregate(ds.View(), opts.group)

	w, closeFn, err := outputWriter(cmd, opts.out)
	if err != nil {
		return err
	}
	defer closeOutput(closeFn, &err)

	switch format {
	case "text":
		return writeLines(w, eng.Summary(snap))
	case "csv":
		return helpers.WriteTablesCSV(w, eng.Tables(snap), delim)
	case "xlsx":
		return helpers.WriteTablesXLSX(w, eng.Tables(snap))
	default:
		return writeJSON(w, aggregateOutput{
			Survey:   cfg.Name,
			Group:    opts.group,
			Skipped:  ds.Skipped,
			Missing:  missing,
			Snapshot: snap,
			Charts:   eng.Charts(snap),
		}, format == "pretty")
	}
}

func loadSchema(path string) (*schema.Config, error) {
	if path == "" {
		return schema.Default(), nil
	}
	return schema.Load(path)
}

func delimiterRune(s string) (rune, error) {
	if s == `\t` || s == "tab" {
		return '\t', nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	return r[0], nil
}
