package csvio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/mgrs-geocode-etl/internal/domain"
)

// Source is a header plus a stream of rows.
type Source interface {
	Header() []string
	Next() (domain.Row, error)
	Close() error
}

// Open opens path as a row source. ".xlsx" files are read as workbooks and
// everything else as CSV; "-" reads CSV from stdin.
func Open(path string, opts ReaderOptions, sheet string) (Source, error) {
	if path == "-" {
		return NewReader(os.Stdin, opts)
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return OpenXLSX(path, sheet)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	r, err := NewReader(f, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &fileSource{Reader: r, file: f}, nil
}

type fileSource struct {
	*Reader
	file io.Closer
}

func (s *fileSource) Close() error { return s.file.Close() }
