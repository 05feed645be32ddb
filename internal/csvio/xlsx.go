package csvio

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/mgrs-geocode-etl/internal/domain"
)

// SheetReader streams rows from one worksheet of an XLSX workbook. The first
// row of the sheet is the header.
type SheetReader struct {
	file   *excelize.File
	rows   *excelize.Rows
	sheet  string
	header []string
	line   int
}

// OpenXLSX opens the workbook at path and positions a SheetReader at the
// first data row of sheet, or of the first sheet if sheet is empty.
func OpenXLSX(path, sheet string) (*SheetReader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return newSheetReader(f, sheet)
}

// NewXLSXReader reads a workbook from r.
func NewXLSXReader(r io.Reader, sheet string) (*SheetReader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return newSheetReader(f, sheet)
}

func newSheetReader(f *excelize.File, sheet string) (*SheetReader, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			_ = f.Close()
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open sheet %q: %w", sheet, err)
	}

	s := &SheetReader{file: f, rows: rows, sheet: sheet}
	header, err := s.next()
	if err != nil {
		_ = s.Close()
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, err
	}
	s.header = header
	return s, nil
}

// Sheet returns the name of the sheet being read.
func (s *SheetReader) Sheet() string { return s.sheet }

// Header returns a copy of the header row.
func (s *SheetReader) Header() []string { return append([]string(nil), s.header...) }

// Next returns the next data row, or io.EOF after the last row of the sheet.
// Trailing empty cells are padded to the header width.
func (s *SheetReader) Next() (domain.Row, error) {
	cells, err := s.next()
	if err != nil {
		return domain.Row{}, err
	}
	if len(cells) > len(s.header) {
		return domain.Row{}, fmt.Errorf("sheet %q row %d: %d cells, header has %d: %w", s.sheet, s.line, len(cells), len(s.header), ErrFieldCount)
	}
	return domain.NewRow(s.header, cells), nil
}

func (s *SheetReader) next() ([]string, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", s.sheet, err)
		}
		return nil, io.EOF
	}
	s.line++
	cells, err := s.rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read sheet %q row %d: %w", s.sheet, s.line, err)
	}
	return cells, nil
}

// Close releases the row iterator and the workbook.
func (s *SheetReader) Close() error {
	return errors.Join(s.rows.Close(), s.file.Close())
}
