// Package csvio reads and writes the tabular files the row pipeline works on:
// CSV in any encoding known to the WHATWG index, and XLSX workbooks.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/couchcryptid/mgrs-geocode-etl/internal/domain"
)

var (
	// ErrNoHeader is returned when the input has no header row.
	ErrNoHeader = errors.New("input has no header row")
	// ErrFieldCount is returned for a record with more fields than the header.
	ErrFieldCount = errors.New("record has more fields than the header")
)

// ReaderOptions configures NewReader.
type ReaderOptions struct {
	// Encoding is a WHATWG encoding label such as "windows-1252" or "latin1".
	// Empty means UTF-8. A UTF-8 byte order mark is always stripped.
	Encoding string
	// Comma is the field delimiter. Zero means ','.
	Comma rune
}

// Reader reads rows from CSV input. The first record is the header.
type Reader struct {
	csv    *csv.Reader
	header []string
}

// NewReader decodes r, reads the header record, and returns a Reader
// positioned at the first data row.
func NewReader(r io.Reader, opts ReaderOptions) (*Reader, error) {
	dec, err := decoder(opts.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(transform.NewReader(r, dec))
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	// Short records are padded to the header width; long ones are checked in Next.
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	return &Reader{csv: cr, header: header}, nil
}

// Header returns a copy of the header record.
func (r *Reader) Header() []string { return append([]string(nil), r.header...) }

// Next returns the next data row, or io.EOF when the input is exhausted.
func (r *Reader) Next() (domain.Row, error) {
	record, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Row{}, io.EOF
		}
		return domain.Row{}, fmt.Errorf("read record: %w", err)
	}
	if len(record) > len(r.header) {
		line, _ := r.csv.FieldPos(0)
		return domain.Row{}, fmt.Errorf("line %d: %d fields, header has %d: %w", line, len(record), len(r.header), ErrFieldCount)
	}
	return domain.NewRow(r.header, record), nil
}

// Close is a no-op; the caller owns the underlying reader.
func (r *Reader) Close() error { return nil }

// decoder returns the transformer that turns the named encoding into UTF-8.
// UTF-8 input has its byte order mark removed and ill-formed bytes replaced
// with U+FFFD.
func decoder(name string) (transform.Transformer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return transform.Chain(unicode.BOMOverride(unicode.UTF8.NewDecoder()), runes.ReplaceIllFormed()), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return transform.Chain(unicode.BOMOverride(enc.NewDecoder()), runes.ReplaceIllFormed()), nil
}

// Writer writes rows as UTF-8 CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter returns a Writer that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header record.
func (w *Writer) WriteHeader(columns []string) error {
	if err := w.csv.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// Write writes one row's values in column order.
func (w *Writer) Write(row domain.Row) error {
	if err := w.csv.Write(row.Values()); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
