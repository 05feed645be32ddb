package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/mgrs-geocode-etl/internal/domain"
)

// RecordTransformer implements Transformer for source messages carrying one
// tabular row each, with optional reverse geocoding.
type RecordTransformer struct {
	column   string
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewTransformer creates a RecordTransformer. An empty column detects the
// MGRS column on every message. Pass a nil geocoder to disable enrichment.
func NewTransformer(column string, geocoder domain.Geocoder, logger *slog.Logger) *RecordTransformer {
	return &RecordTransformer{
		column:   column,
		geocoder: geocoder,
		logger:   logger,
	}
}

// Transform decodes the row, converts its MGRS value, and serializes the
// result. Only undecodable messages return an error; a value that fails to
// convert is reported in the record's status.
func (t *RecordTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	row, err := domain.ParseRawRecord(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	rec := domain.ConvertRecord(row, t.column)
	if rec.Status == domain.StatusFailed {
		t.logger.Debug("mgrs conversion failed",
			"topic", raw.Topic,
			"offset", raw.Offset,
			"value", rec.MGRS,
			"error", rec.Error,
		)
	}
	rec = domain.EnrichWithGeocoding(ctx, rec, t.geocoder, t.logger)

	return serializeRecord(raw.Key, rec)
}

func serializeRecord(key []byte, rec domain.ConvertedRecord) (domain.OutputEvent, error) {
	value, err := json.Marshal(rec)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("serialize record: %w", err)
	}
	return domain.OutputEvent{
		Key:   key,
		Value: value,
		Headers: map[string]string{
			"mgrs_status":  rec.Status,
			"processed_at": rec.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
