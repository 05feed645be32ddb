package domain

import "math"

// GeodeticPoint is a WGS84 position in decimal degrees. Latitude lies in
// [-90, 90] and Longitude in (-180, 180].
type GeodeticPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Convert parses an MGRS string and returns the WGS84 position of the centre
// of the cell it denotes. The error is a *FormatError or a *RangeError.
func Convert(text string) (GeodeticPoint, error) {
	ref, err := Parse(text)
	if err != nil {
		return GeodeticPoint{}, err
	}
	return ref.Geodetic()
}

// Geodetic converts the reference to latitude and longitude.
func (r Reference) Geodetic() (GeodeticPoint, error) {
	pos, err := r.Grid()
	if err != nil {
		return GeodeticPoint{}, err
	}
	return pos.Geodetic(), nil
}

// Geodetic applies the inverse UTM or UPS projection.
func (p GridPosition) Geodetic() GeodeticPoint {
	var lat, lon float64
	if p.Zone == 0 {
		lat, lon = inversePolarStereographic(p.North, p.Easting-upsFalseOrigin, p.Northing-upsFalseOrigin)
	} else {
		y := p.Northing
		if !p.North {
			y -= utmFalseNorthing
		}
		lat, lon = inverseTransverseMercator(p.Easting-utmFalseEasting, y)
		lon += float64(6*p.Zone - 183)
	}
	return GeodeticPoint{Latitude: lat, Longitude: normalizeLongitude(lon)}
}

func normalizeLongitude(lon float64) float64 {
	lon = math.Remainder(lon, 360)
	if lon <= -180 {
		lon += 360
	}
	return lon
}
