package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/mgrs-geocode-etl/internal/domain"
	"github.com/couchcryptid/mgrs-geocode-etl/internal/observability"
)

// ErrNoMGRSColumn is returned when Options.RequireColumn is set and no column
// of the sample looks like MGRS, or when the named column is not in the header.
var ErrNoMGRSColumn = errors.New("no MGRS column found")

const (
	defaultSampleSize = 100
	defaultWorkers    = 4
	rowsPerWorker     = 256
)

// RowSource yields a header and then data rows. Next returns io.EOF at the end.
type RowSource interface {
	Header() []string
	Next() (domain.Row, error)
}

// RowSink receives the output header once, then every row in input order.
type RowSink interface {
	WriteHeader(columns []string) error
	Write(row domain.Row) error
}

// Options configures a Processor.
type Options struct {
	// Column names the MGRS column. Empty means detect it from the sample.
	Column string
	// SampleSize is the number of leading data rows used for detection.
	SampleSize int
	// Workers bounds the number of rows converted concurrently.
	Workers int
	// RequireColumn fails the run with ErrNoMGRSColumn instead of passing
	// rows through with empty coordinates when no column is found.
	RequireColumn bool
}

// Summary describes one completed run.
type Summary struct {
	RunID       uuid.UUID
	Rows        int
	Converted   int
	Failed      int
	Empty       int
	Column      string
	ColumnIndex int
	Found       bool
}

// Processor converts the MGRS column of a table and appends latitude and
// longitude columns to every row.
type Processor struct {
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewProcessor creates a Processor. Zero SampleSize and Workers take their
// defaults. metrics may be nil.
func NewProcessor(opts Options, logger *slog.Logger, metrics *observability.Metrics) *Processor {
	if opts.SampleSize <= 0 {
		opts.SampleSize = defaultSampleSize
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Processor{opts: opts, logger: logger, metrics: metrics}
}

// Process reads every row from src and writes it to dst with coordinates
// appended. No row is dropped: rows whose value does not convert keep their
// data and get empty coordinates. Errors from src or dst abort the run.
func (p *Processor) Process(ctx context.Context, src RowSource, dst RowSink) (Summary, error) {
	summary := Summary{RunID: uuid.New(), ColumnIndex: -1}
	logger := p.logger.With("run_id", summary.RunID.String())
	header := src.Header()

	sample, eof, err := readBatch(src, p.opts.SampleSize)
	if err != nil {
		return summary, err
	}

	index, err := p.resolveColumn(header, sample)
	if err != nil {
		return summary, err
	}
	if index >= 0 {
		summary.Column, summary.ColumnIndex, summary.Found = header[index], index, true
		logger.Info("mgrs column selected", "column", summary.Column, "index", index)
	} else {
		logger.Warn("no mgrs column detected, rows pass through unchanged", "sample_rows", len(sample))
	}

	out := make([]string, 0, len(header)+2)
	out = append(out, header...)
	out = append(out, domain.LatitudeColumn, domain.LongitudeColumn)
	if err := dst.WriteHeader(out); err != nil {
		return summary, fmt.Errorf("write header: %w", err)
	}

	batch := sample
	batchSize := p.opts.Workers * rowsPerWorker
	for {
		if err := p.convertBatch(ctx, batch, index, dst, &summary, logger); err != nil {
			return summary, err
		}
		if eof {
			break
		}
		batch, eof, err = readBatch(src, batchSize)
		if err != nil {
			return summary, err
		}
	}

	logger.Info("row pipeline finished",
		"rows", summary.Rows,
		"converted", summary.Converted,
		"failed", summary.Failed,
		"empty", summary.Empty,
	)
	return summary, nil
}

// resolveColumn returns the index of the MGRS column, or -1 if there is none
// and none is required.
func (p *Processor) resolveColumn(header []string, sample []domain.Row) (int, error) {
	if p.opts.Column != "" {
		for i, name := range header {
			if name == p.opts.Column {
				return i, nil
			}
		}
		return -1, fmt.Errorf("column %q not in header: %w", p.opts.Column, ErrNoMGRSColumn)
	}

	c, ok := domain.DetectColumn(header, sample)
	if ok {
		return c.Index, nil
	}
	if p.opts.RequireColumn {
		return -1, ErrNoMGRSColumn
	}
	return -1, nil
}

// convertBatch converts rows on a bounded worker pool and writes the results
// in input order.
func (p *Processor) convertBatch(ctx context.Context, batch []domain.Row, index int, dst RowSink, summary *Summary, logger *slog.Logger) error {
	if len(batch) == 0 {
		return nil
	}

	results := make([]domain.ConvertedRecord, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, row := range batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = domain.ConvertField(row, index)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, rec := range results {
		summary.Rows++
		switch rec.Status {
		case domain.StatusConverted:
			summary.Converted++
		case domain.StatusFailed:
			summary.Failed++
			logger.Debug("mgrs conversion failed", "row", summary.Rows, "value", rec.MGRS, "error", rec.Error)
		case domain.StatusEmpty:
			summary.Empty++
		}
		p.observe(rec)

		if err := dst.Write(rec.Fields); err != nil {
			return fmt.Errorf("write row %d: %w", summary.Rows, err)
		}
	}
	return nil
}

func (p *Processor) observe(rec domain.ConvertedRecord) {
	if p.metrics == nil {
		return
	}
	p.metrics.RowsProcessed.WithLabelValues(rec.Status).Inc()
	if rec.Status == domain.StatusFailed {
		p.metrics.ConversionErrors.WithLabelValues(rec.ErrorKind).Inc()
	}
}

// readBatch reads up to n rows. eof reports that the source is exhausted.
func readBatch(src RowSource, n int) (rows []domain.Row, eof bool, err error) {
	rows = make([]domain.Row, 0, n)
	for len(rows) < n {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			return rows, true, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("read rows: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, false, nil
}
