package domain

import (
	"context"
	"log/slog"
)

// EnrichWithGeocoding attaches place details to a converted record. Records
// without coordinates, or a nil geocoder, pass through unchanged. A failed
// lookup marks GeoSource "failed" and never touches the coordinates.
func EnrichWithGeocoding(ctx context.Context, rec ConvertedRecord, geocoder Geocoder, logger *slog.Logger) ConvertedRecord {
	if geocoder == nil {
		return rec
	}
	pt, ok := rec.Point()
	if !ok {
		return rec
	}

	result, err := geocoder.ReverseGeocode(ctx, pt.Latitude, pt.Longitude)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"mgrs", rec.MGRS,
			"lat", pt.Latitude,
			"lon", pt.Longitude,
			"error", err,
		)
		rec.GeoSource = "failed"
		return rec
	}
	if result.FormattedAddress == "" {
		return rec
	}
	rec.FormattedAddress = result.FormattedAddress
	rec.PlaceName = result.PlaceName
	rec.GeoConfidence = result.Confidence
	rec.GeoSource = "reverse"
	return rec
}
