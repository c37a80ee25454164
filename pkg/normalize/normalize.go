// Package normalize canonicalizes free-text names and titles into comparable
// keys: lowercase, diacritic-free, alphanumeric-only. The output is lossy by
// design; collisions surface candidate matches and are never used as
// persisted identifiers.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes combining marks after canonical decomposition, so
// "José" and "Jose" project to the same key.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalizer projects display text onto normalized keys. It carries no
// domain knowledge beyond the generic rules; known alias substitutions
// (honorifics, initial variants) are supplied by the caller.
type Normalizer struct {
	aliases map[string]string
}

// New creates a Normalizer with the given alias table. Alias keys and values
// are themselves projected through the generic rules, and chained aliases are
// resolved at construction, so that Key is idempotent regardless of how the
// table was written.
func New(aliases map[string]string) *Normalizer {
	n := &Normalizer{}
	if len(aliases) == 0 {
		return n
	}
	projected := make(map[string]string, len(aliases))
	for from, to := range aliases {
		pf := n.project(from)
		pt := n.project(to)
		if pf == "" || pf == pt {
			continue
		}
		projected[pf] = pt
	}
	// Resolve alias chains (a->b, b->c) to their terminal value. The hop
	// bound cuts accidental cycles.
	for from, to := range projected {
		seen := 0
		for {
			next, ok := projected[to]
			if !ok || next == to || seen > len(projected) {
				break
			}
			to = next
			seen++
		}
		projected[from] = to
	}
	n.aliases = projected
	return n
}

// Key returns the normalized key for the given text. Empty or whitespace-only
// input yields an empty key, never an error. Key is deterministic and
// idempotent: Key(Key(x)) == Key(x).
func (n *Normalizer) Key(text string) string {
	key := n.project(text)
	if n.aliases == nil {
		return key
	}
	if alias, ok := n.aliases[key]; ok {
		return alias
	}
	return key
}

// KeyTokens normalizes each whitespace-separated token and applies the alias
// table per token before joining. Useful for multi-word person names where
// only one token varies ("K. Raghavendra Rao" vs "Raghavendra Rao").
func (n *Normalizer) KeyTokens(text string) string {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return ""
	}
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(n.Key(tok))
	}
	// A token made only of punctuation projects to nothing; the joined key
	// may still need a whole-string alias pass.
	if alias, ok := n.aliases[b.String()]; ok {
		return alias
	}
	return b.String()
}

// project applies the generic rules: lowercase, diacritic folding, and the
// alphanumeric-only projection with whitespace collapsed away.
func (n *Normalizer) project(text string) string {
	if text == "" {
		return ""
	}
	folded, _, err := transform.String(stripMarks, text)
	if err != nil {
		// Fall back to the raw input; the rune filter below still applies.
		folded = text
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
