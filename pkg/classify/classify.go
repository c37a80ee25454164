// Package classify maps a scored candidate pair to a match verdict. The
// rules are deterministic thresholds evaluated in a fixed order, biased
// toward precision: an incorrect merge is far worse than a missed duplicate.
package classify

import (
	"fmt"

	"github.com/moviegraph/reconcile/pkg/match"
)

// Verdict is the outcome of classifying a candidate pair.
type Verdict string

// Verdicts, from strongest to weakest match evidence.
const (
	Identical         Verdict = "identical"
	SameEntity        Verdict = "same_entity"
	SameEntityVariant Verdict = "same_entity_variant"
	Ambiguous         Verdict = "ambiguous"
	Distinct          Verdict = "distinct"
)

// IsMatch reports whether the verdict asserts the two records denote the
// same entity.
func (v Verdict) IsMatch() bool {
	switch v {
	case Identical, SameEntity, SameEntityVariant:
		return true
	}
	return false
}

// Result is an immutable classification outcome: the verdict, a 0-100
// confidence, and a human-readable reason.
type Result struct {
	Verdict    Verdict `json:"verdict" yaml:"verdict"`
	Confidence int     `json:"confidence" yaml:"confidence"`
	Reason     string  `json:"reason" yaml:"reason"`
}

// Thresholds holds the tunable cutoffs. The defaults consolidate values that
// were historically tuned per call site; treat them as constants to validate
// against a labeled sample, not as fixed truths.
type Thresholds struct {
	// Identical is the minimum similarity for an Identical verdict
	// (which additionally requires a zero or unknown temporal delta).
	Identical int `json:"identical" yaml:"identical"`

	// SameEntity is the minimum similarity for a SameEntity verdict on
	// title evidence alone.
	SameEntity int `json:"same_entity" yaml:"same_entity"`

	// SharedIDFloor is the minimum similarity for a SameEntity verdict
	// when the records share an external identifier. A shared catalog ID
	// is near-conclusive, so the floor only rejects wholly dissimilar
	// names that suggest a data-entry error.
	SharedIDFloor int `json:"shared_id_floor" yaml:"shared_id_floor"`

	// Variant is the minimum similarity for SameEntityVariant when a
	// known spelling-variant pattern matched.
	Variant int `json:"variant" yaml:"variant"`

	// Distinct is the similarity below which records are Distinct.
	Distinct int `json:"distinct" yaml:"distinct"`

	// TemporalGap is the anchor difference that overrides an otherwise
	// plausible name match. Names recur across generations; a long gap is
	// strong counter-evidence.
	TemporalGap int `json:"temporal_gap" yaml:"temporal_gap"`

	// AutoApply is the minimum confidence for merging without human
	// approval. Only Identical and SameEntity verdicts are eligible.
	AutoApply int `json:"auto_apply" yaml:"auto_apply"`
}

// DefaultThresholds returns the consolidated default policy.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Identical:     95,
		SameEntity:    85,
		SharedIDFloor: 40,
		Variant:       75,
		Distinct:      70,
		TemporalGap:   40,
		AutoApply:     90,
	}
}

// Classifier applies the threshold policy to candidates.
type Classifier struct {
	t Thresholds
}

// NewClassifier creates a Classifier with the given thresholds. Zero-valued
// thresholds fall back to the defaults.
func NewClassifier(t Thresholds) *Classifier {
	if t == (Thresholds{}) {
		t = DefaultThresholds()
	}
	return &Classifier{t: t}
}

// Thresholds returns the active policy.
func (c *Classifier) Thresholds() Thresholds {
	return c.t
}

// Classify maps a candidate to a verdict. Malformed input degrades to a
// low-confidence Distinct verdict; a bad record never crashes a batch.
func (c *Classifier) Classify(cand *match.Candidate) Result {
	if cand == nil {
		return Result{Verdict: Distinct, Confidence: 0, Reason: "no candidate"}
	}

	score := clamp(cand.Score)
	delta, deltaKnown := cand.TemporalDelta()

	// Records without a comparable name can never be Identical, whatever
	// the scorer said about two empty keys.
	if cand.A == nil || cand.B == nil || cand.A.Name == "" || cand.B.Name == "" {
		return Result{
			Verdict:    Distinct,
			Confidence: 10,
			Reason:     "record missing a comparable name",
		}
	}

	// Rule 1: exact titles with matching (or mutually absent) anchors.
	if score >= c.t.Identical && (!deltaKnown || delta == 0) {
		return Result{
			Verdict:    Identical,
			Confidence: score,
			Reason:     fmt.Sprintf("title similarity %d with matching temporal anchors", score),
		}
	}

	// Rule 2: a large temporal gap under a plausible name match overrides
	// the name score; same-named entities recur across generations.
	if score >= c.t.Distinct && deltaKnown && delta >= c.t.TemporalGap {
		return Result{
			Verdict:    Ambiguous,
			Confidence: 60,
			Reason:     "large temporal gap suggests distinct persons/films sharing a name",
		}
	}

	// Rule 3: same entity, by title evidence or a shared catalog
	// identifier backing a weaker title match.
	if score >= c.t.SameEntity {
		conf := sameEntityConfidence(score, c.t.SameEntity)
		reason := fmt.Sprintf("title similarity %d", score)
		if cand.SharedIdentifier {
			if idConf := sharedIDConfidence(score); idConf > conf {
				conf = idConf
			}
			reason += " backed by shared external identifier"
		}
		return Result{
			Verdict:    SameEntity,
			Confidence: conf,
			Reason:     reason,
		}
	}
	if cand.SharedIdentifier && score >= c.t.SharedIDFloor {
		return Result{
			Verdict:    SameEntity,
			Confidence: sharedIDConfidence(score),
			Reason:     fmt.Sprintf("shared external identifier with title similarity %d", score),
		}
	}

	// Rule 4: known alternate spelling.
	if cand.VariantMatch && score >= c.t.Variant {
		return Result{
			Verdict:    SameEntityVariant,
			Confidence: variantConfidence(score, c.t.Variant),
			Reason:     fmt.Sprintf("known spelling-variant pattern with title similarity %d", score),
		}
	}

	// Rule 5: below the distinct cutoff. Confidence in "distinct" is low
	// near the boundary by design; it still routes to no action.
	if score < c.t.Distinct {
		return Result{
			Verdict:    Distinct,
			Confidence: 100 - score,
			Reason:     fmt.Sprintf("title similarity %d below match threshold", score),
		}
	}

	// Plausible but unproven name match with no supporting signal.
	return Result{
		Verdict:    Ambiguous,
		Confidence: 60,
		Reason:     fmt.Sprintf("title similarity %d in the uncertain band", score),
	}
}

// AutoApply reports whether a result is confident enough to merge without
// human approval. SameEntityVariant always routes to review regardless of
// confidence.
func (c *Classifier) AutoApply(r Result) bool {
	if r.Verdict != Identical && r.Verdict != SameEntity {
		return false
	}
	return r.Confidence >= c.t.AutoApply
}

// sameEntityConfidence scales linearly from 70 at the threshold to 100 at a
// perfect score.
func sameEntityConfidence(score, threshold int) int {
	if score >= 100 {
		return 100
	}
	span := 100 - threshold
	if span <= 0 {
		return 100
	}
	return 70 + (score-threshold)*30/span
}

// sharedIDConfidence keeps identifier-backed matches above the auto-apply
// line while still rising with title similarity.
func sharedIDConfidence(score int) int {
	conf := 90 + score/20
	if conf > 100 {
		conf = 100
	}
	return conf
}

// variantConfidence scales from 80 at the threshold toward 90.
func variantConfidence(score, threshold int) int {
	span := 100 - threshold
	if span <= 0 {
		return 90
	}
	conf := 80 + (score-threshold)*10/span
	if conf > 90 {
		conf = 90
	}
	return conf
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
