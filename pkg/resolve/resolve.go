// Package resolve decides, per attribute, which value survives when two
// records confirmed to denote the same entity are merged. Resolution never
// deletes information: populated fields are never overwritten by empty ones,
// discarded alternatives are recorded, and external identifiers are unioned.
package resolve

import (
	"fmt"
	"sort"

	"github.com/moviegraph/reconcile/pkg/entity"
	"github.com/moviegraph/reconcile/pkg/errors"
)

// Side names which record a resolved value was taken from.
type Side string

// Sides.
const (
	FromWinner Side = "winner"
	FromLoser  Side = "loser"
)

// Decision records the outcome for a single field: the surviving value,
// where it came from, and the alternative that lost the conflict, if any.
type Decision struct {
	Field     string        `json:"field" yaml:"field"`
	Value     string        `json:"value" yaml:"value"`
	TakenFrom Side          `json:"taken_from" yaml:"taken_from"`
	Source    entity.Source `json:"source,omitempty" yaml:"source,omitempty"`
	Discarded string        `json:"discarded,omitempty" yaml:"discarded,omitempty"`
	Reason    string        `json:"reason" yaml:"reason"`
}

// Resolution is the merged record plus the field-by-field audit of how it
// was assembled.
type Resolution struct {
	Merged    *entity.Entity `json:"merged" yaml:"merged"`
	Decisions []Decision     `json:"decisions" yaml:"decisions"`
}

// DefaultTrustOrder ranks sources from most to least trusted: manual
// curation beats third-party catalogs, which beat search results, which beat
// AI-generated placeholder text.
func DefaultTrustOrder() []entity.Source {
	return []entity.Source{
		entity.SourceCurated,
		entity.SourceCatalog,
		entity.SourceSearch,
		entity.SourceGenerated,
	}
}

// Resolver applies a caller-supplied trust ordering to field conflicts.
type Resolver struct {
	rank map[entity.Source]int
	n    int
}

// NewResolver creates a Resolver. Earlier entries in the trust order are
// more trusted; an empty order falls back to DefaultTrustOrder. Sources
// absent from the order rank below every listed one.
func NewResolver(trust []entity.Source) *Resolver {
	if len(trust) == 0 {
		trust = DefaultTrustOrder()
	}
	rank := make(map[entity.Source]int, len(trust))
	for i, s := range trust {
		if _, ok := rank[s]; !ok {
			rank[s] = i
		}
	}
	return &Resolver{rank: rank, n: len(trust)}
}

func (r *Resolver) sourceRank(s entity.Source) int {
	if i, ok := r.rank[s]; ok {
		return i
	}
	return r.n
}

// Resolve merges the loser's attributes into a copy of the winner. The field
// list limits which named attributes are considered; nil means the union of
// both records' attributes. The winner and loser records are not modified.
func (r *Resolver) Resolve(winner, loser *entity.Entity, fields []string) (*Resolution, error) {
	if winner == nil || loser == nil {
		return nil, errors.NewValidationError("record", nil, "winner and loser must not be nil")
	}
	if winner == loser || (winner.ID != "" && winner.ID == loser.ID) {
		return nil, errors.ErrSelfPair
	}

	merged := winner.Copy()
	res := &Resolution{Merged: merged}

	// Core attributes follow the same rules as named fields.
	r.decide(res, "name", &merged.Name, winner, loser, winner.Name, loser.Name)
	r.decide(res, "alt_name", &merged.AltName, winner, loser, winner.AltName, loser.AltName)
	r.resolveYear(res, merged, winner, loser)

	if fields == nil {
		fields = unionFieldNames(winner, loser)
	}
	for _, field := range fields {
		wv, lv := winner.Field(field), loser.Field(field)
		if wv == "" && lv == "" {
			continue
		}
		var target string
		r.decide(res, field, &target, winner, loser, wv, lv)
		merged.SetField(field, target)
	}

	merged.ExternalIDs = entity.UnionExternalIDs(winner, loser)
	return res, nil
}

// decide applies the survival rules for one field and records the decision.
func (r *Resolver) decide(res *Resolution, field string, target *string, winner, loser *entity.Entity, wv, lv string) {
	switch {
	case wv == "" && lv == "":
		return
	case lv == "" || wv == lv:
		*target = wv
		res.record(Decision{
			Field: field, Value: wv, TakenFrom: FromWinner, Source: winner.Source,
			Reason: "winner value kept",
		})
	case wv == "":
		*target = lv
		res.record(Decision{
			Field: field, Value: lv, TakenFrom: FromLoser, Source: loser.Source,
			Reason: "adopted from loser; winner value empty",
		})
	default:
		// Both populated and different: the higher-trust source wins and
		// the alternative is preserved in the audit trail.
		if r.sourceRank(loser.Source) < r.sourceRank(winner.Source) {
			*target = lv
			res.record(Decision{
				Field: field, Value: lv, TakenFrom: FromLoser, Source: loser.Source,
				Discarded: wv,
				Reason:    fmt.Sprintf("conflict resolved by trust order (%s over %s)", loser.Source, winner.Source),
			})
			return
		}
		*target = wv
		res.record(Decision{
			Field: field, Value: wv, TakenFrom: FromWinner, Source: winner.Source,
			Discarded: lv,
			Reason:    fmt.Sprintf("conflict resolved by trust order (%s over %s)", winner.Source, loser.Source),
		})
	}
}

// resolveYear handles the temporal anchor, which is an int rather than text.
func (r *Resolver) resolveYear(res *Resolution, merged, winner, loser *entity.Entity) {
	switch {
	case winner.Year == nil && loser.Year == nil:
		return
	case winner.Year != nil && (loser.Year == nil || *winner.Year == *loser.Year):
		res.record(Decision{
			Field: "year", Value: fmt.Sprintf("%d", *winner.Year),
			TakenFrom: FromWinner, Source: winner.Source,
			Reason: "winner value kept",
		})
	case winner.Year == nil:
		y := *loser.Year
		merged.Year = &y
		res.record(Decision{
			Field: "year", Value: fmt.Sprintf("%d", y),
			TakenFrom: FromLoser, Source: loser.Source,
			Reason: "adopted from loser; winner anchor missing",
		})
	default:
		if r.sourceRank(loser.Source) < r.sourceRank(winner.Source) {
			y := *loser.Year
			merged.Year = &y
			res.record(Decision{
				Field: "year", Value: fmt.Sprintf("%d", y),
				TakenFrom: FromLoser, Source: loser.Source,
				Discarded: fmt.Sprintf("%d", *winner.Year),
				Reason:    fmt.Sprintf("conflict resolved by trust order (%s over %s)", loser.Source, winner.Source),
			})
			return
		}
		res.record(Decision{
			Field: "year", Value: fmt.Sprintf("%d", *winner.Year),
			TakenFrom: FromWinner, Source: winner.Source,
			Discarded: fmt.Sprintf("%d", *loser.Year),
			Reason:    fmt.Sprintf("conflict resolved by trust order (%s over %s)", winner.Source, loser.Source),
		})
	}
}

func (res *Resolution) record(d Decision) {
	res.Decisions = append(res.Decisions, d)
}

func unionFieldNames(a, b *entity.Entity) []string {
	set := make(map[string]struct{})
	for _, e := range []*entity.Entity{a, b} {
		for name := range e.Fields {
			set[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
