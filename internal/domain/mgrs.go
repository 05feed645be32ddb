package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Reference is a validated MGRS grid reference. Construct it with Parse; the
// zero value is not a valid reference.
type Reference struct {
	Zone     int    // 1–60, or 0 for a polar (UPS) reference
	Band     byte   // latitude band C–X, or polar band A, B, Y, Z
	Square   string // 100 km square identifier, column letter then row letter
	Easting  string // 0–5 digits
	Northing string // same length as Easting
}

// Parse validates an MGRS string and splits it into its components.
// Letters are case-insensitive. Whitespace may separate the grid zone
// designator, the square identifier and the numeric part, and one run of
// whitespace may split the numeric part at its midpoint:
//
//	33TWM1234567890
//	33T WM 12345 67890
//	ZGC 2000 5000
func Parse(text string) (Reference, error) {
	s := strings.ToUpper(strings.TrimSpace(text))
	if s == "" {
		return Reference{}, formatErr(text, "empty reference")
	}

	var ref Reference
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i > 2 {
		return Reference{}, formatErr(text, "zone number %q has more than two digits", s[:i])
	}
	if i > 0 {
		zone, _ := strconv.Atoi(s[:i])
		if zone < 1 || zone > 60 {
			return Reference{}, formatErr(text, "zone number %d out of range 1-60", zone)
		}
		if s[0] == '0' {
			return Reference{}, formatErr(text, "zone number %q has a leading zero", s[:i])
		}
		ref.Zone = zone
	}
	i = skipSpace(s, i)

	if i >= len(s) {
		return Reference{}, formatErr(text, "missing latitude band")
	}
	ref.Band = s[i]
	i = skipSpace(s, i+1)

	if i+2 > len(s) || !isLetter(s[i]) || !isLetter(s[i+1]) {
		return Reference{}, formatErr(text, "missing 100 km square identifier")
	}
	ref.Square = s[i : i+2]
	i = skipSpace(s, i+2)

	easting, northing, err := splitDigits(s[i:])
	if err != nil {
		return Reference{}, formatErr(text, "%s", err.Error())
	}
	ref.Easting, ref.Northing = easting, northing

	if err := ref.validate(); err != nil {
		return Reference{}, formatErr(text, "%s", err.Error())
	}
	return ref, nil
}

// splitDigits splits the numeric part into equal easting and northing halves.
func splitDigits(s string) (string, string, error) {
	groups := strings.Fields(s)
	for _, g := range groups {
		for j := 0; j < len(g); j++ {
			if !isDigit(g[j]) {
				return "", "", fmt.Errorf("unexpected character %q in numeric part", g[j])
			}
		}
	}

	var digits string
	switch len(groups) {
	case 0:
		return "", "", nil
	case 1:
		digits = groups[0]
	case 2:
		if len(groups[0]) != len(groups[1]) {
			return "", "", fmt.Errorf("easting and northing differ in length (%d and %d digits)", len(groups[0]), len(groups[1]))
		}
		digits = groups[0] + groups[1]
	default:
		return "", "", fmt.Errorf("numeric part has %d groups, want at most 2", len(groups))
	}

	if len(digits)%2 != 0 {
		return "", "", fmt.Errorf("odd number of digits (%d)", len(digits))
	}
	if len(digits) > 2*maxDigits {
		return "", "", fmt.Errorf("too many digits (%d, maximum %d)", len(digits), 2*maxDigits)
	}
	half := len(digits) / 2
	return digits[:half], digits[half:], nil
}

// validate checks the letter and number ranges. It is shared by Parse and Grid
// so that hand-built references cannot index outside the letter tables.
func (r Reference) validate() error {
	if len(r.Easting) != len(r.Northing) || len(r.Easting) > maxDigits {
		return fmt.Errorf("easting %q and northing %q must have equal length of at most %d digits", r.Easting, r.Northing, maxDigits)
	}
	if len(r.Square) != 2 {
		return fmt.Errorf("square identifier %q must be two letters", r.Square)
	}
	for j := 0; j < 2; j++ {
		if c := r.Square[j]; !isLetter(c) || c == 'I' || c == 'O' {
			return fmt.Errorf("invalid 100 km square letter %q", c)
		}
	}

	col, row := r.Square[0], r.Square[1]
	if r.Polar() {
		bi := strings.IndexByte(polarBands, r.Band)
		if bi < 0 {
			if strings.IndexByte(latitudeBands, r.Band) >= 0 {
				return fmt.Errorf("latitude band %q requires a zone number", r.Band)
			}
			return fmt.Errorf("invalid polar band %q", r.Band)
		}
		if strings.IndexByte(upsColumns[bi], col) < 0 {
			return fmt.Errorf("column letter %q not used in polar band %q", col, r.Band)
		}
		if strings.IndexByte(upsRows[hemisphereIndex(r.North())], row) < 0 {
			return fmt.Errorf("row letter %q not used in polar band %q", row, r.Band)
		}
		return nil
	}

	if r.Zone < 1 || r.Zone > 60 {
		return fmt.Errorf("zone number %d out of range 1-60", r.Zone)
	}
	if strings.IndexByte(latitudeBands, r.Band) < 0 {
		if strings.IndexByte(polarBands, r.Band) >= 0 {
			return fmt.Errorf("polar band %q cannot follow a zone number", r.Band)
		}
		return fmt.Errorf("invalid latitude band %q", r.Band)
	}
	if strings.IndexByte(utmColumns[columnSet(r.Zone)], col) < 0 {
		return fmt.Errorf("column letter %q not used in zone %d", col, r.Zone)
	}
	if strings.IndexByte(utmRows, row) < 0 {
		return fmt.Errorf("row letter %q not used in UTM zones", row)
	}
	return nil
}

// Polar reports whether the reference is a UPS reference (no zone number).
func (r Reference) Polar() bool { return r.Zone == 0 }

// North reports whether the reference lies in the northern hemisphere.
func (r Reference) North() bool {
	if r.Polar() {
		return r.Band == 'Y' || r.Band == 'Z'
	}
	return r.Band >= 'N'
}

// Digits returns the number of digits per axis, 0 through 5.
func (r Reference) Digits() int { return len(r.Easting) }

// Precision returns the side length, in metres, of the cell the reference denotes.
func (r Reference) Precision() float64 { return math.Pow10(maxDigits - r.Digits()) }

// String returns the reference in compact canonical form, e.g. "33TWM1234567890".
func (r Reference) String() string {
	if r.Polar() {
		return fmt.Sprintf("%c%s%s%s", r.Band, r.Square, r.Easting, r.Northing)
	}
	return fmt.Sprintf("%d%c%s%s%s", r.Zone, r.Band, r.Square, r.Easting, r.Northing)
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'A' && c <= 'Z' }

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r' || s[i] == '\v' || s[i] == '\f') {
		i++
	}
	return i
}
