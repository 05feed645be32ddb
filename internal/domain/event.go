package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the source topic. Its
// Value is one tabular row encoded as a flat JSON object.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Record statuses.
const (
	StatusConverted  = "converted"  // coordinates appended
	StatusFailed     = "failed"     // MGRS column found, value did not convert
	StatusEmpty      = "empty"      // MGRS column found, value blank
	StatusUndetected = "undetected" // no MGRS column in the row
)

// ConvertedRecord is a row after MGRS conversion. Fields holds the original
// columns followed by the latitude and longitude columns; the typed fields
// repeat the outcome for consumers that do not want to re-parse strings.
type ConvertedRecord struct {
	Fields          Row      `json:"fields"`
	Column          string   `json:"mgrs_column,omitempty"`
	MGRS            string   `json:"mgrs,omitempty"`
	Status          string   `json:"status"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	PrecisionMeters float64  `json:"precision_m,omitempty"`
	Error           string   `json:"error,omitempty"`
	ErrorKind       string   `json:"error_kind,omitempty"` // "format" or "range"

	// Reverse-geocoding enrichment fields.
	FormattedAddress string  `json:"formatted_address,omitempty"`
	PlaceName        string  `json:"place_name,omitempty"`
	GeoConfidence    float64 `json:"geo_confidence,omitempty"`
	GeoSource        string  `json:"geo_source,omitempty"` // "reverse" or "failed"

	ProcessedAt time.Time `json:"processed_at"`
}

// Point returns the converted position, if any.
func (r ConvertedRecord) Point() (GeodeticPoint, bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return GeodeticPoint{}, false
	}
	return GeodeticPoint{Latitude: *r.Latitude, Longitude: *r.Longitude}, true
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
