package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikeMGRS(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"33TWM1234567890", true},
		{"33T WM 12345 67890", true},
		{"4qfj12345678", true},
		{"32UMD", true},
		{" 33TWM12 ", true},
		{"33TWM123", false},
		{"33TWM123456789012", false},
		{"ZGC2000050000", false},
		{"hello", false},
		{"12", false},
		{"46.66", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LooksLikeMGRS(tt.value), "LooksLikeMGRS(%q)", tt.value)
	}
}

func TestDetectColumn(t *testing.T) {
	header := []string{"id", "name", "grid"}
	rows := func(values ...[]string) []Row {
		out := make([]Row, len(values))
		for i, v := range values {
			out[i] = NewRow(header, v)
		}
		return out
	}

	t.Run("single candidate", func(t *testing.T) {
		sample := rows(
			[]string{"1", "alpha", "33TWM1234567890"},
			[]string{"2", "bravo", "18SUJ2348706483"},
			[]string{"3", "charlie", ""},
		)
		c, ok := DetectColumn(header, sample)
		assert.True(t, ok)
		assert.Equal(t, ColumnCandidate{Name: "grid", Index: 2, Matches: 2, Parsed: 2}, c)
	})

	t.Run("most matches wins", func(t *testing.T) {
		sample := rows(
			[]string{"1", "33TWM12", "33TWM1234567890"},
			[]string{"2", "bravo", "18SUJ2348706483"},
		)
		name, ok := Detect(header, sample)
		assert.True(t, ok)
		assert.Equal(t, "grid", name)
	})

	t.Run("tie goes to leftmost", func(t *testing.T) {
		sample := rows(
			[]string{"1", "33TWM12", "33TWM1234567890"},
		)
		c, ok := DetectColumn(header, sample)
		assert.True(t, ok)
		assert.Equal(t, 1, c.Index)
	})

	t.Run("lexical match that does not parse", func(t *testing.T) {
		sample := rows(
			[]string{"1", "x", "33TAM12"},
		)
		c, ok := DetectColumn(header, sample)
		assert.True(t, ok)
		assert.Equal(t, 1, c.Matches)
		assert.Equal(t, 0, c.Parsed)
	})

	t.Run("nothing found", func(t *testing.T) {
		sample := rows(
			[]string{"1", "alpha", "46.66"},
		)
		_, ok := Detect(header, sample)
		assert.False(t, ok)
	})

	t.Run("empty sample", func(t *testing.T) {
		_, ok := DetectColumn(header, nil)
		assert.False(t, ok)
	})
}

func TestScoreColumns_DuplicateHeaderNames(t *testing.T) {
	header := []string{"ref", "ref"}
	sample := []Row{NewRow(header, []string{"note", "33TWM1234567890"})}

	got := ScoreColumns(header, sample)
	assert.Equal(t, []ColumnCandidate{
		{Name: "ref", Index: 0},
		{Name: "ref", Index: 1, Matches: 1, Parsed: 1},
	}, got)
}
