package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spektr-org/sockenstudie/helpers"
	"github.com/spektr-org/sockenstudie/schema"
)

type discoverOptions struct {
	file        string
	name        string
	groupColumn string
	sample      int
	format      string
	out         string
	sheet       string
	delimiter   string
}

func newDiscoverCmd(root *rootOptions) *cobra.Command {
	opts := &discoverOptions{}
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Infer a draft survey schema from an export",
		Long: `Inspects the columns of an export and prints a draft schema.

frage_<part><n> columns of one part and kind are merged into one section.
Review the draft before using it with --schema.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDiscover(cmd, root, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.file, "file", "", "Path to survey export, CSV or XLSX (required)")
	f.StringVar(&opts.name, "name", "", "Survey name (default: derived from the file name)")
	f.StringVar(&opts.groupColumn, "group-column", "", "Group column (default: guessed)")
	f.IntVar(&opts.sample, "sample", schema.DefaultDiscoverOptions().SampleSize, "Rows to inspect (0 = all)")
	f.StringVar(&opts.format, "format", schema.FormatYAML, "Output format: yaml, json")
	f.StringVar(&opts.out, "out", "", "Write output to file instead of stdout")
	f.StringVar(&opts.sheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	f.StringVar(&opts.delimiter, "delimiter", ";", "CSV delimiter")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runDiscover(cmd *cobra.Command, root *rootOptions, opts *discoverOptions) (err error) {
	logger := root.logger(cmd)

	delim, err := delimiterRune(opts.delimiter)
	if err != nil {
		return err
	}
	ds, err := helpers.LoadFile(opts.file, helpers.FileOptions{Sheet: opts.sheet, Delimiter: delim})
	if err != nil {
		return err
	}

	cfg, err := schema.Discover(ds.View(), schema.DiscoverOptions{
		SampleSize:  opts.sample,
		Name:        opts.name,
		GroupColumn: opts.groupColumn,
	})
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}
	cfg.DiscoveredFrom = fmt.Sprintf("%s, %s", filepath.Base(opts.file), cfg.DiscoveredFrom)
	logger.Info("discovered schema",
		"sections", len(cfg.Sections),
		"skipped", len(cfg.SkippedColumns),
	)

	data, err := schema.Marshal(cfg, opts.format)
	if err != nil {
		return err
	}

	w, closeFn, err := outputWriter(cmd, opts.out)
	if err != nil {
		return err
	}
	defer closeOutput(closeFn, &err)
	_, err = w.Write(data)
	return err
}
