package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Names of the columns appended to every output row.
const (
	LatitudeColumn  = "latitude"
	LongitudeColumn = "longitude"
)

// ParseRawRecord decodes the flat JSON row carried by a source message.
func ParseRawRecord(raw RawEvent) (Row, error) {
	var row Row
	if err := json.Unmarshal(raw.Value, &row); err != nil {
		return Row{}, fmt.Errorf("parse raw record: %w", err)
	}
	return row, nil
}

// ConvertRecord converts the MGRS value in the named column. An empty column
// name means the column is detected from the row itself.
func ConvertRecord(row Row, column string) ConvertedRecord {
	index := -1
	if column != "" {
		index = row.Index(column)
	} else if c, ok := DetectColumn(row.Columns(), []Row{row}); ok {
		index = c.Index
	}
	return ConvertField(row, index)
}

// ConvertField converts the MGRS value at column position index and appends
// latitude and longitude to the row. A negative index means no MGRS column;
// the row then passes through with empty coordinates, as it does when the
// value is blank or fails to convert.
func ConvertField(row Row, index int) ConvertedRecord {
	rec := ConvertedRecord{ProcessedAt: clock.Now().UTC()}

	value, ok := row.At(index)
	if !ok {
		rec.Status = StatusUndetected
		rec.Fields = AppendCoordinates(row, nil)
		return rec
	}
	rec.Column = row.columns[index]
	rec.MGRS = strings.TrimSpace(value)
	if rec.MGRS == "" {
		rec.Status = StatusEmpty
		rec.Fields = AppendCoordinates(row, nil)
		return rec
	}

	ref, err := Parse(value)
	var pt GeodeticPoint
	if err == nil {
		pt, err = ref.Geodetic()
	}
	if err != nil {
		rec.Status = StatusFailed
		rec.Error = err.Error()
		rec.ErrorKind = ErrorKind(err)
		rec.Fields = AppendCoordinates(row, nil)
		return rec
	}

	rec.Status = StatusConverted
	rec.Latitude = &pt.Latitude
	rec.Longitude = &pt.Longitude
	rec.PrecisionMeters = ref.Precision()
	rec.Fields = AppendCoordinates(row, &pt)
	return rec
}

// AppendCoordinates returns the row with latitude and longitude columns
// appended. A nil point appends empty values.
func AppendCoordinates(row Row, pt *GeodeticPoint) Row {
	var lat, lon string
	if pt != nil {
		lat, lon = FormatDegrees(pt.Latitude), FormatDegrees(pt.Longitude)
	}
	return row.Append(LatitudeColumn, lat).Append(LongitudeColumn, lon)
}

// FormatDegrees renders a coordinate in the shortest decimal form that
// round-trips to the same float64.
func FormatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ErrorKind classifies a conversion error as "format" or "range", or returns
// "" for errors of neither kind.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrFormat):
		return "format"
	case errors.Is(err, ErrRange):
		return "range"
	}
	return ""
}
