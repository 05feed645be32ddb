package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Letter tables for the 100 km square identifier. UTM column letters repeat
// every three zones and row letters every 2,000 km; even zones start their row
// alphabet five letters later (at F). UPS uses one column alphabet per polar
// band and one row alphabet per hemisphere.
const (
	latitudeBands = "CDEFGHJKLMNPQRSTUVWX" // 8° bands from 80°S; N is the first northern band
	polarBands    = "ABYZ"                 // A, B south (west, east); Y, Z north (west, east)
	utmRows       = "ABCDEFGHJKLMNPQRSTUV"
)

var (
	utmColumns = [3]string{"ABCDEFGH", "JKLMNPQR", "STUVWXYZ"}
	upsColumns = [4]string{"JKLPQRSTUXYZ", "ABCFGHJKLPQR", "RSTUXYZ", "ABCFGHJ"}
	upsRows    = [2]string{"ABCDEFGHJKLMNPQRSTUVWXYZ", "ABCDEFGHJKLMNP"}
)

const (
	maxDigits       = 5
	tileSize        = 100000.0 // metres
	utmRowPeriod    = 20
	utmEvenRowShift = 5
	utmMinColumn    = 1  // first UTM column starts at 100 km easting
	upsEastColumn   = 20 // eastern polar bands (B, Z) start at 2,000 km easting
	upsSouthMin     = 8  // southern UPS grid spans 800–3,200 km
	upsNorthMin     = 13 // northern UPS grid spans 1,300–2,700 km
	bandsPerSide    = 10 // latitude bands per hemisphere
	southernRows    = 100
)

// MGRS limits on UPS and UTM coordinates, indexed by gridIndex.
var (
	minEasting  = [4]float64{800e3, 1300e3, 100e3, 100e3}
	maxEasting  = [4]float64{3200e3, 2700e3, 900e3, 900e3}
	minNorthing = [4]float64{800e3, 1300e3, 1000e3, 0}
	maxNorthing = [4]float64{3200e3, 2700e3, 10000e3, 9500e3}
)

// GridPosition is a UTM (Zone 1–60) or UPS (Zone 0) coordinate in metres.
type GridPosition struct {
	Zone     int
	North    bool
	Easting  float64
	Northing float64
}

// Grid resolves the reference to the centre of the cell it denotes.
// It fails with a RangeError if the square letters do not occur in the
// reference's latitude band or the result falls outside the MGRS limits.
func (r Reference) Grid() (GridPosition, error) {
	if err := r.validate(); err != nil {
		return GridPosition{}, &FormatError{Input: r.String(), Reason: err.Error()}
	}

	north := r.North()
	var col, row int
	if r.Polar() {
		bi := strings.IndexByte(polarBands, r.Band)
		col = strings.IndexByte(upsColumns[bi], r.Square[0])
		row = strings.IndexByte(upsRows[hemisphereIndex(north)], r.Square[1])
		switch {
		case bi&1 == 1:
			col += upsEastColumn
		case north:
			col += upsNorthMin
		default:
			col += upsSouthMin
		}
		if north {
			row += upsNorthMin
		} else {
			row += upsSouthMin
		}
	} else {
		col = strings.IndexByte(utmColumns[columnSet(r.Zone)], r.Square[0])
		row = strings.IndexByte(utmRows, r.Square[1])
		if r.Zone%2 == 0 {
			row = (row + utmRowPeriod - utmEvenRowShift) % utmRowPeriod
		}
		band := strings.IndexByte(latitudeBands, r.Band) - bandsPerSide
		var ok bool
		row, ok = resolveUTMRow(band, col, row)
		if !ok {
			return GridPosition{}, &RangeError{
				Input:  r.String(),
				Reason: fmt.Sprintf("square %s does not occur in zone %d band %c", r.Square, r.Zone, r.Band),
			}
		}
		if !north {
			row += southernRows
		}
		col += utmMinColumn
	}

	unit := r.Precision()
	pos := GridPosition{
		Zone:     r.Zone,
		North:    north,
		Easting:  float64(col)*tileSize + digitValue(r.Easting)*unit + unit/2,
		Northing: float64(row)*tileSize + digitValue(r.Northing)*unit + unit/2,
	}
	if err := pos.checkLimits(); err != nil {
		err.Input = r.String()
		return GridPosition{}, err
	}
	return pos, nil
}

// resolveUTMRow lifts a periodic row index (0–19, origin at the equator) to
// the absolute row of the latitude band, in units of 100 km and in the range
// [-90, 95). band is the latitude band index in [-10, 10), C = -10, N = 0.
// The safe row bounds per band follow the NGA UTM/UPS standard; rows 70, 71,
// 79 and 80 straddle band edges and are allowed only in specific columns.
func resolveUTMRow(band, col, row int) (int, bool) {
	centre := 100 * float64(8*band+4) / 90
	var northShift float64
	if band >= 0 {
		northShift = 0.1
	}
	minRow, maxRow := -90, 94
	if band > -bandsPerSide {
		minRow = int(math.Floor(centre - 4.3 - northShift))
	}
	if band < bandsPerSide-1 {
		maxRow = int(math.Floor(centre + 4.4 - northShift))
	}
	base := (minRow+maxRow)/2 - utmRowPeriod/2
	row = (row-base+5*utmRowPeriod)%utmRowPeriod + base
	if row >= minRow && row <= maxRow {
		return row, true
	}

	// Fold the southern hemisphere and eastern columns onto their mirror images.
	sband, srow, scol := band, row, col
	if sband < 0 {
		sband = -sband - 1
	}
	if srow < 0 {
		srow = -srow - 1
	}
	if scol >= 4 {
		scol = 7 - scol
	}
	switch {
	case srow == 70 && sband == 8 && scol >= 2,
		srow == 71 && sband == 7 && scol <= 2,
		srow == 79 && sband == 9 && scol >= 1,
		srow == 80 && sband == 8 && scol <= 1:
		return row, true
	}
	return 0, false
}

func (p GridPosition) checkLimits() *RangeError {
	i := gridIndex(p.Zone != 0, p.North)
	switch {
	case p.Easting < minEasting[i] || p.Easting > maxEasting[i]:
		return &RangeError{Easting: p.Easting, Northing: p.Northing, Reason: "easting outside MGRS limits"}
	case p.Northing < minNorthing[i] || p.Northing > maxNorthing[i]:
		return &RangeError{Easting: p.Easting, Northing: p.Northing, Reason: "northing outside MGRS limits"}
	}
	return nil
}

func gridIndex(utm, north bool) int {
	i := 0
	if utm {
		i += 2
	}
	if north {
		i++
	}
	return i
}

func columnSet(zone int) int { return (zone - 1) % 3 }

func hemisphereIndex(north bool) int {
	if north {
		return 1
	}
	return 0
}

func digitValue(digits string) float64 {
	if digits == "" {
		return 0
	}
	v, _ := strconv.Atoi(digits)
	return float64(v)
}
