package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/mgrs-geocode-etl/internal/csvio"
	"github.com/couchcryptid/mgrs-geocode-etl/internal/observability"
	"github.com/couchcryptid/mgrs-geocode-etl/internal/pipeline"
)

type options struct {
	output    string
	column    string
	sample    int
	workers   int
	strict    bool
	sheet     string
	encoding  string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "mgrs2latlong INPUT",
		Short: "Append latitude/longitude columns converted from an MGRS column",
		Long: `mgrs2latlong reads a CSV or XLSX table, finds the column holding MGRS
grid references (or uses --column), and writes the table back as CSV with
latitude and longitude columns appended. Rows whose reference does not
convert keep empty coordinates.

Use "-" as INPUT to read CSV from stdin.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args[0], o)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.output, "output", "o", "", "output CSV path (default stdout)")
	f.StringVar(&o.column, "column", "", "name of the MGRS column (default: detect)")
	f.IntVar(&o.sample, "sample-size", 100, "data rows sampled for column detection")
	f.IntVar(&o.workers, "workers", 4, "rows converted concurrently")
	f.BoolVar(&o.strict, "strict", false, "fail when no MGRS column is found")
	f.StringVar(&o.sheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	f.StringVar(&o.encoding, "encoding", "utf-8", "CSV input encoding, e.g. windows-1252")
	f.StringVar(&o.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	f.StringVar(&o.logFormat, "log-format", "text", "log format: text or json")

	return cmd
}

func run(cmd *cobra.Command, input string, o options) error {
	if o.sample < 1 {
		return fmt.Errorf("invalid --sample-size %d: must be positive", o.sample)
	}
	if o.workers < 1 {
		return fmt.Errorf("invalid --workers %d: must be positive", o.workers)
	}

	// stdout may carry the CSV, so logs always go to stderr.
	logger := observability.NewWriterLogger(cmd.ErrOrStderr(), o.logLevel, o.logFormat)

	src, err := csvio.Open(input, csvio.ReaderOptions{Encoding: o.encoding}, o.sheet)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	out := cmd.OutOrStdout()
	var file *os.File
	if o.output != "" && o.output != "-" {
		file, err = os.Create(o.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() { _ = file.Close() }()
		out = file
	}

	processor := pipeline.NewProcessor(pipeline.Options{
		Column:        o.column,
		SampleSize:    o.sample,
		Workers:       o.workers,
		RequireColumn: o.strict,
	}, logger, nil)

	sink := csvio.NewWriter(out)
	summary, err := processor.Process(cmd.Context(), src, sink)
	if err != nil {
		return err
	}
	if err := sink.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if file != nil {
		if err := file.Close(); err != nil {
			return fmt.Errorf("close output: %w", err)
		}
	}

	printSummary(cmd.ErrOrStderr(), summary)
	return nil
}

func printSummary(w io.Writer, s pipeline.Summary) {
	if !s.Found {
		fmt.Fprintf(w, "processed %d rows: no MGRS column detected\n", s.Rows)
		return
	}
	fmt.Fprintf(w, "processed %d rows: %d converted, %d failed, %d empty (MGRS column %q, index %d)\n",
		s.Rows, s.Converted, s.Failed, s.Empty, s.Column, s.ColumnIndex)
}
