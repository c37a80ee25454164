// Package match pairs a record against a pool of existing records and
// selects the single best candidate for classification. Matching only reads
// the pool; no shared state is mutated, so independent passes may run over
// disjoint shards in parallel.
package match

import (
	"github.com/rs/zerolog"

	"github.com/moviegraph/reconcile/pkg/entity"
	"github.com/moviegraph/reconcile/pkg/errors"
	"github.com/moviegraph/reconcile/pkg/logging"
	"github.com/moviegraph/reconcile/pkg/normalize"
	"github.com/moviegraph/reconcile/pkg/similarity"
)

// DefaultWindow is the temporal pre-filter width for exact pipelines.
// Coarse audit sweeps widen it up to MaxWindow.
const (
	DefaultWindow = 1
	MaxWindow     = 3
)

// Candidate is the pairing of two records under evaluation. Ephemeral:
// produced and consumed within one reconciliation pass.
type Candidate struct {
	A *entity.Entity `json:"a" yaml:"a"`
	B *entity.Entity `json:"b" yaml:"b"`

	// Score is the best title similarity across primary and localized
	// titles, 0-100.
	Score int `json:"score" yaml:"score"`

	// Delta is the absolute temporal anchor difference; nil when either
	// anchor is missing.
	Delta *int `json:"delta,omitempty" yaml:"delta,omitempty"`

	// SharedIdentifier is true when both records carry a common external
	// catalog identifier.
	SharedIdentifier bool `json:"shared_identifier,omitempty" yaml:"shared_identifier,omitempty"`

	// VariantMatch is true when the titles match a known spelling-variant
	// pattern without being equal.
	VariantMatch bool `json:"variant_match,omitempty" yaml:"variant_match,omitempty"`
}

// TemporalDelta returns the anchor difference and whether it is known.
func (c *Candidate) TemporalDelta() (int, bool) {
	if c.Delta == nil {
		return 0, false
	}
	return *c.Delta, true
}

// VariantPair names two titles known to be alternate spellings of the same
// entity. Pairs are matched on normalized keys, in either order.
type VariantPair struct {
	A string `json:"a" yaml:"a"`
	B string `json:"b" yaml:"b"`
}

// Matcher finds the best match for a record within a pool.
type Matcher struct {
	norm         *normalize.Normalizer
	window       int
	ambiguityGap int
	variants     map[string]map[string]bool
	logger       *zerolog.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithWindow sets the temporal pre-filter width. Values are clamped to
// [DefaultWindow, MaxWindow].
func WithWindow(window int) Option {
	return func(m *Matcher) {
		if window < DefaultWindow {
			window = DefaultWindow
		}
		if window > MaxWindow {
			window = MaxWindow
		}
		m.window = window
	}
}

// WithAmbiguityGap sets the temporal delta at which far-apart same-name
// pairs are kept in play for the classifier's gap rule instead of being
// dropped by the window filter. Callers tuning the classifier's gap
// threshold must pass the same value here or the two desynchronize.
func WithAmbiguityGap(gap int) Option {
	return func(m *Matcher) {
		if gap > 0 {
			m.ambiguityGap = gap
		}
	}
}

// WithVariants registers known spelling-variant title pairs.
func WithVariants(pairs []VariantPair) Option {
	return func(m *Matcher) {
		for _, p := range pairs {
			a, b := m.norm.Key(p.A), m.norm.Key(p.B)
			if a == "" || b == "" || a == b {
				continue
			}
			m.addVariant(a, b)
			m.addVariant(b, a)
		}
	}
}

// WithLogger sets the logger used for per-candidate debug output.
func WithLogger(logger *zerolog.Logger) Option {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMatcher creates a Matcher. A nil normalizer gets the generic rules with
// no aliases.
func NewMatcher(norm *normalize.Normalizer, opts ...Option) *Matcher {
	if norm == nil {
		norm = normalize.New(nil)
	}
	m := &Matcher{
		norm:         norm,
		window:       DefaultWindow,
		ambiguityGap: defaultAmbiguityGap,
		logger:       logging.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Matcher) addVariant(a, b string) {
	if m.variants == nil {
		m.variants = make(map[string]map[string]bool)
	}
	if m.variants[a] == nil {
		m.variants[a] = make(map[string]bool)
	}
	m.variants[a][b] = true
}

// BestMatch scores the record against every pool entry surviving the
// temporal pre-filter and returns the highest-scoring candidate, or nil when
// the pool is empty after filtering. Ties break by smaller temporal delta,
// then by the more populated candidate. A pool entry sharing the record's ID
// is a caller bug and fails with ErrSelfPair.
func (m *Matcher) BestMatch(record *entity.Entity, pool []*entity.Entity) (*Candidate, error) {
	if record == nil {
		return nil, errors.NewValidationError("record", nil, "record must not be nil")
	}

	var best *Candidate
	for _, other := range pool {
		if other == nil {
			continue
		}
		if other == record || (record.ID != "" && other.ID == record.ID) {
			return nil, errors.ErrSelfPair
		}

		// The window is a precision and performance device, not a
		// correctness requirement: missing anchors skip the filter rather
		// than excluding the record.
		delta, known := entity.TemporalDelta(record, other)
		if known && delta > m.window && delta < m.ambiguityGap {
			continue
		}

		cand := m.score(record, other)
		if known {
			d := delta
			cand.Delta = &d
		}

		if best == nil || better(cand, best) {
			best = cand
		}
	}

	if best != nil {
		m.logger.Debug().
			Str("record", record.ID).
			Str("candidate", best.B.ID).
			Int("score", best.Score).
			Bool("shared_identifier", best.SharedIdentifier).
			Msg("best match selected")
	}
	return best, nil
}

// defaultAmbiguityGap matches the default classifier gap threshold.
const defaultAmbiguityGap = 40

// score builds the candidate for a pair, taking the maximum similarity over
// primary and localized titles. Person records also compare on per-token
// keys, so an alias that rewrites a single name part still lines up.
func (m *Matcher) score(a, b *entity.Entity) *Candidate {
	keyA, keyB := m.norm.Key(a.Name), m.norm.Key(b.Name)

	var score int
	for _, ka := range m.nameKeys(a, keyA) {
		for _, kb := range m.nameKeys(b, keyB) {
			if s := similarity.Score(ka, kb); s > score {
				score = s
			}
		}
	}

	return &Candidate{
		A:                a,
		B:                b,
		Score:            score,
		SharedIdentifier: a.SharesExternalID(b),
		VariantMatch:     m.isVariant(keyA, keyB) || similarity.SpellingVariant(keyA, keyB),
	}
}

// nameKeys collects the comparable keys for a record: the primary key, the
// localized title's key, and for persons the token-wise key of the name.
func (m *Matcher) nameKeys(e *entity.Entity, primary string) []string {
	keys := []string{primary}
	if alt := m.norm.Key(e.AltName); alt != "" && alt != primary {
		keys = append(keys, alt)
	}
	if e.Kind == entity.KindPerson {
		if tok := m.norm.KeyTokens(e.Name); tok != "" && tok != primary {
			keys = append(keys, tok)
		}
	}
	return keys
}

func (m *Matcher) isVariant(a, b string) bool {
	return m.variants != nil && m.variants[a][b]
}

// better reports whether a should replace b as the best candidate.
func better(a, b *Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	da, aKnown := a.TemporalDelta()
	db, bKnown := b.TemporalDelta()
	switch {
	case aKnown && bKnown && da != db:
		return da < db
	case aKnown != bKnown:
		// A known, small delta beats an unknown one.
		return aKnown
	}
	if pa, pb := a.B.PopulatedFields(), b.B.PopulatedFields(); pa != pb {
		return pa > pb
	}
	// Stable order for reproducible reports.
	return a.B.ID < b.B.ID
}
