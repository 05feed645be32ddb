// Command genmock turns a CSV or XLSX table into mock fixtures for the
// streaming service: the raw source-topic messages (one flat JSON row per
// line) and the records the pipeline is expected to produce for them. It runs
// the real domain conversion with a fixed clock, so the expected output
// matches pipeline behaviour byte for byte.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -in internal/pipeline/testdata/landmarks.csv \
//	  -raw-out data/mock/landmarks_raw.jsonl \
//	  -expected-out data/mock/landmarks_converted.json
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/mgrs-geocode-etl/internal/csvio"
	"github.com/couchcryptid/mgrs-geocode-etl/internal/domain"
)

// fixtureTime stamps every generated record's processed_at.
var fixtureTime = time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "input CSV or XLSX table")
	column := flag.String("column", "", "MGRS column name (default: detect from the table)")
	rawOut := flag.String("raw-out", "", "output path for raw source messages (JSON lines)")
	expectedOut := flag.String("expected-out", "", "output path for expected converted records (JSON)")
	flag.Parse()

	if *in == "" || *rawOut == "" || *expectedOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -in, -raw-out, -expected-out")
	}

	domain.SetClock(clockwork.NewFakeClockAt(fixtureTime))
	defer domain.SetClock(nil)

	rows, err := readTable(*in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *in, err)
	}

	name := *column
	if name == "" {
		if c, ok := domain.DetectColumn(rows.header, rows.rows); ok {
			name = c.Name
			log.Printf("detected MGRS column %q at index %d (%d matches)", c.Name, c.Index, c.Matches)
		} else {
			log.Printf("no MGRS column detected; records will be %q", domain.StatusUndetected)
		}
	}

	records := make([]domain.ConvertedRecord, 0, len(rows.rows))
	counts := make(map[string]int)
	index := -1
	if name != "" {
		index = domain.NewRow(rows.header, nil).Index(name)
		if index < 0 {
			return fmt.Errorf("column %q not in header", name)
		}
	}
	for _, row := range rows.rows {
		rec := domain.ConvertField(row, index)
		counts[rec.Status]++
		records = append(records, rec)
	}

	if err := writeRaw(*rawOut, rows.rows); err != nil {
		return err
	}
	if err := writeJSON(*expectedOut, records); err != nil {
		return err
	}

	log.Printf("total: %d rows (%d converted, %d failed, %d empty, %d undetected)",
		len(records), counts[domain.StatusConverted], counts[domain.StatusFailed],
		counts[domain.StatusEmpty], counts[domain.StatusUndetected])
	return nil
}

type table struct {
	header []string
	rows   []domain.Row
}

func readTable(path string) (table, error) {
	src, err := csvio.Open(path, csvio.ReaderOptions{}, "")
	if err != nil {
		return table{}, err
	}
	defer func() { _ = src.Close() }()

	t := table{header: src.Header()}
	for {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		if err != nil {
			return table{}, err
		}
		t.rows = append(t.rows, row)
	}
}

func writeRaw(path string, rows []domain.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encoding row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	log.Printf("wrote %s (%d messages)", path, len(rows))
	return f.Close()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	log.Printf("wrote %s", path)
	return nil
}
