// Package entity defines the records the reconciliation core operates on:
// movies and persons of uncertain uniqueness, collected from uncoordinated
// sources. Uniqueness is established by reconciliation, never assumed.
package entity

import "sort"

// Kind identifies what kind of real-world entity a record describes.
type Kind string

// Entity kinds.
const (
	KindMovie  Kind = "movie"
	KindPerson Kind = "person"
)

// Source tags where a record's data came from. The trust ordering over
// sources is caller-supplied configuration, not baked into the type.
type Source string

// Common source tags.
const (
	SourceCurated   Source = "curated"
	SourceCatalog   Source = "catalog"
	SourceSearch    Source = "search"
	SourceGenerated Source = "generated"
)

// Entity is a movie or person record. The display name is required; the
// temporal anchor (release year for movies, birth year for persons) is
// optional but strongly informative for disambiguation.
type Entity struct {
	ID      string `json:"id" yaml:"id"`
	Kind    Kind   `json:"kind" yaml:"kind"`
	Name    string `json:"name" yaml:"name"`
	AltName string `json:"alt_name,omitempty" yaml:"alt_name,omitempty"`

	// Year is the temporal anchor; nil when unknown.
	Year *int `json:"year,omitempty" yaml:"year,omitempty"`

	// Fields holds named role/attribute values (director, lead, ...).
	Fields map[string]string `json:"fields,omitempty" yaml:"fields,omitempty"`

	// ExternalIDs are opaque identifiers from third-party catalogs.
	ExternalIDs []string `json:"external_ids,omitempty" yaml:"external_ids,omitempty"`

	Source Source `json:"source,omitempty" yaml:"source,omitempty"`

	// Active is false once the record has been retired by a merge.
	Active bool `json:"active" yaml:"active"`
}

// YearOf is a convenience constructor for the optional temporal anchor.
func YearOf(y int) *int {
	return &y
}

// HasYear reports whether the record carries a temporal anchor.
func (e *Entity) HasYear() bool {
	return e != nil && e.Year != nil
}

// Field returns the named attribute value, or "" when absent.
func (e *Entity) Field(name string) string {
	if e == nil || e.Fields == nil {
		return ""
	}
	return e.Fields[name]
}

// SetField sets a named attribute value, allocating the map on first use.
func (e *Entity) SetField(name, value string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[name] = value
}

// PopulatedFields counts the non-empty attributes of the record. Used to
// prefer the more complete record as the canonical merge target.
func (e *Entity) PopulatedFields() int {
	if e == nil {
		return 0
	}
	n := 0
	if e.Name != "" {
		n++
	}
	if e.AltName != "" {
		n++
	}
	if e.Year != nil {
		n++
	}
	for _, v := range e.Fields {
		if v != "" {
			n++
		}
	}
	n += len(e.ExternalIDs)
	return n
}

// SharesExternalID reports whether both records carry at least one common
// external identifier.
func (e *Entity) SharesExternalID(other *Entity) bool {
	if e == nil || other == nil || len(e.ExternalIDs) == 0 || len(other.ExternalIDs) == 0 {
		return false
	}
	seen := make(map[string]struct{}, len(e.ExternalIDs))
	for _, id := range e.ExternalIDs {
		if id != "" {
			seen[id] = struct{}{}
		}
	}
	for _, id := range other.ExternalIDs {
		if _, ok := seen[id]; ok {
			return true
		}
	}
	return false
}

// FieldNames returns the sorted attribute names present on the record.
func (e *Entity) FieldNames() []string {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Copy returns a deep copy of the record.
func (e *Entity) Copy() *Entity {
	if e == nil {
		return nil
	}
	out := *e
	if e.Year != nil {
		y := *e.Year
		out.Year = &y
	}
	if e.Fields != nil {
		out.Fields = make(map[string]string, len(e.Fields))
		for k, v := range e.Fields {
			out.Fields[k] = v
		}
	}
	if e.ExternalIDs != nil {
		out.ExternalIDs = append([]string(nil), e.ExternalIDs...)
	}
	return &out
}

// UnionExternalIDs returns the deduplicated union of both records'
// external identifiers, in stable sorted order.
func UnionExternalIDs(a, b *Entity) []string {
	set := make(map[string]struct{})
	for _, e := range []*Entity{a, b} {
		if e == nil {
			continue
		}
		for _, id := range e.ExternalIDs {
			if id != "" {
				set[id] = struct{}{}
			}
		}
	}
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// TemporalDelta returns the absolute difference between the two records'
// anchors. The boolean is false when either anchor is missing.
func TemporalDelta(a, b *Entity) (int, bool) {
	if !a.HasYear() || !b.HasYear() {
		return 0, false
	}
	d := *a.Year - *b.Year
	if d < 0 {
		d = -d
	}
	return d, true
}
