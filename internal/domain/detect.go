package domain

import (
	"regexp"
	"strings"
)

// mgrsShape is the lexical shape of a zoned MGRS reference: zone, band,
// square id, and an optional numeric part split at most once by whitespace.
// The even digit count and the 10-digit ceiling are checked by LooksLikeMGRS.
var mgrsShape = regexp.MustCompile(`(?i)^\d{1,2}\s*[C-X]\s*[A-Z]{2}\s*(\d*)(?:\s+(\d+))?$`)

// LooksLikeMGRS reports whether a trimmed value has the shape of an MGRS
// reference. It is a cheap surface test; Parse performs the real validation.
func LooksLikeMGRS(value string) bool {
	m := mgrsShape.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return false
	}
	n := len(m[1]) + len(m[2])
	return n%2 == 0 && n <= 2*maxDigits
}

// ColumnCandidate holds per-column detection statistics for one sample.
type ColumnCandidate struct {
	Name    string
	Index   int
	Matches int // values with the lexical MGRS shape
	Parsed  int // values that also pass Parse
}

// ScoreColumns computes one candidate per header column over the sample rows.
// Values are addressed by position, so duplicate header names are scored separately.
func ScoreColumns(header []string, sample []Row) []ColumnCandidate {
	candidates := make([]ColumnCandidate, len(header))
	for i, name := range header {
		candidates[i] = ColumnCandidate{Name: name, Index: i}
	}
	for _, row := range sample {
		for i := range candidates {
			v, ok := row.At(i)
			if !ok || !LooksLikeMGRS(v) {
				continue
			}
			candidates[i].Matches++
			if _, err := Parse(v); err == nil {
				candidates[i].Parsed++
			}
		}
	}
	return candidates
}

// DetectColumn returns the candidate with the most lexical matches, preferring
// the leftmost column on ties. It returns false if no value in the sample
// looks like MGRS.
func DetectColumn(header []string, sample []Row) (ColumnCandidate, bool) {
	best := -1
	candidates := ScoreColumns(header, sample)
	for i, c := range candidates {
		if c.Matches == 0 {
			continue
		}
		if best < 0 || c.Matches > candidates[best].Matches {
			best = i
		}
	}
	if best < 0 {
		return ColumnCandidate{}, false
	}
	return candidates[best], true
}

// Detect returns the name of the column holding MGRS references, if any.
func Detect(header []string, sample []Row) (string, bool) {
	c, ok := DetectColumn(header, sample)
	return c.Name, ok
}
