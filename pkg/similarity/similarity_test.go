package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"equal", "sholay", "sholay", 100},
		{"both empty", "", "", 0},
		{"one empty", "sholay", "", 0},
		{"prefix containment", "vikram", "vikramarkudu", 45}, // 6*90/12
		{"numbered sequel", "khaleja", "khaleja2", 78},       // prefix containment 7*90/8
		{"unrelated", "sholay", "khaleja", 28},               // edit distance 5 over 7
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.a, tt.b))
		})
	}
}

func TestScoreEmbeddedContainmentGuarded(t *testing.T) {
	// A single-word key embedded mid-string (not a prefix) must not score as
	// containment; it falls through to edit distance, (10-4)*100/10 = 60,
	// instead of the containment cap 6*90/10 = 54.
	assert.Equal(t, 60, Score("joodam", "pulijoodam"))
}

func TestScoreSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"vikram", "vikramarkudu"},
		{"puli", "pulijoodam"},
		{"sholay", "sholey"},
		{"a", "b"},
		{"", "x"},
	}
	for _, p := range pairs {
		assert.Equal(t, Score(p[0], p[1]), Score(p[1], p[0]), "Score(%q,%q)", p[0], p[1])
	}
}

func TestScoreShortKeyContainmentRejected(t *testing.T) {
	// Keys shorter than four runes never match by containment; "ram" inside
	// "kumararama" says nothing about identity.
	got := Score("ram", "kumararama")
	assert.Less(t, got, 45)
}

func TestScorePrefixFloorRegression(t *testing.T) {
	// A short title that is a strict prefix of a longer one is weak evidence:
	// the length-ratio cap keeps it well below the match thresholds.
	got := Score("puli", "pulijoodam")
	assert.Equal(t, 36, got) // 4*90/10
	assert.Less(t, got, 70)
}

func TestScoreBounds(t *testing.T) {
	for _, p := range [][2]string{
		{"a", "zzzzzzzzzz"},
		{"abcd", "abcdefgh"},
		{"identical", "identical"},
	} {
		got := Score(p[0], p[1])
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, 100)
	}
}

func TestScoreRuneLengths(t *testing.T) {
	// Multi-byte runes count as single characters.
	assert.Equal(t, 100, Score("šžō", "šžō"))
	assert.Equal(t, 66, Score("šžō", "šžx")) // (3-1)*100/3
}

func TestSpellingVariant(t *testing.T) {
	assert.True(t, SpellingVariant("raghavendra", "raghavender"))
	assert.False(t, SpellingVariant("sholay", "sholay"), "equal keys are not variants")
	assert.False(t, SpellingVariant("sholay", "khaleja"))
	assert.False(t, SpellingVariant("", "sholay"))
}
