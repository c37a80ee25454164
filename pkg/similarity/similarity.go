// Package similarity scores the resemblance of two normalized keys on a
// 0-100 scale. The rules are applied in a fixed priority order so that every
// score is explainable: equality, then guarded containment, then normalized
// Levenshtein similarity.
package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/agnivade/levenshtein"
)

// minContainmentLen is the shortest key that containment may match. A short
// word inside a longer compound title is a common false-positive source.
const minContainmentLen = 4

// prefixGuardLen is the single-word key length at which embedded-substring
// containment is rejected unless the longer key starts with the shorter.
const prefixGuardLen = 3

// jaroWinkler is a reusable metric instance; strutil metrics are stateless
// after construction.
var jaroWinkler = metrics.NewJaroWinkler()

// Score returns the similarity of two normalized keys as an integer 0-100.
// It is symmetric: Score(a, b) == Score(b, a).
func Score(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}

	shorter, longer := a, b
	shortLen, longLen := utf8.RuneCountInString(shorter), utf8.RuneCountInString(longer)
	if shortLen > longLen {
		shorter, longer = longer, shorter
		shortLen, longLen = longLen, shortLen
	}

	// Containment is weaker evidence than equality, so it is capped below
	// 100 by the length ratio. Single-word keys must be an actual prefix of
	// the longer key; an embedded match like "ram" inside "kumararama" says
	// nothing about identity.
	if shortLen >= minContainmentLen && strings.Contains(longer, shorter) {
		embedded := !strings.HasPrefix(longer, shorter)
		guarded := singleWord(shorter) && shortLen >= prefixGuardLen && embedded
		if !guarded {
			return shortLen * 90 / longLen
		}
	}

	dist := levenshtein.ComputeDistance(shorter, longer)
	if dist >= longLen {
		return 0
	}
	return (longLen - dist) * 100 / longLen
}

// SpellingVariant reports whether two distinct keys look like alternate
// spellings of the same name: very high Jaro-Winkler similarity without
// being equal. Used as supporting evidence only, never as a verdict.
func SpellingVariant(a, b string) bool {
	if a == "" || b == "" || a == b {
		return false
	}
	return strutil.Similarity(a, b, jaroWinkler) >= 0.95
}

func singleWord(s string) bool {
	return !strings.ContainsAny(s, " \t")
}
