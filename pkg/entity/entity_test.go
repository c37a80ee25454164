package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopulatedFields(t *testing.T) {
	e := &Entity{
		Name:        "Sholay",
		AltName:     "Embers",
		Year:        YearOf(1975),
		Fields:      map[string]string{"director": "Ramesh Sippy", "empty": ""},
		ExternalIDs: []string{"imdb:tt0073707"},
	}
	assert.Equal(t, 5, e.PopulatedFields())

	var nilEntity *Entity
	assert.Equal(t, 0, nilEntity.PopulatedFields())
}

func TestSharesExternalID(t *testing.T) {
	a := &Entity{ExternalIDs: []string{"imdb:1", "tmdb:2"}}
	b := &Entity{ExternalIDs: []string{"tmdb:2"}}
	c := &Entity{ExternalIDs: []string{"tmdb:3"}}

	assert.True(t, a.SharesExternalID(b))
	assert.False(t, a.SharesExternalID(c))
	assert.False(t, a.SharesExternalID(&Entity{}))
	assert.False(t, a.SharesExternalID(nil))
}

func TestCopyIsDeep(t *testing.T) {
	e := &Entity{
		ID:          "m1",
		Name:        "Sholay",
		Year:        YearOf(1975),
		Fields:      map[string]string{"director": "Ramesh Sippy"},
		ExternalIDs: []string{"imdb:1"},
	}
	c := e.Copy()
	require.NotSame(t, e, c)

	c.SetField("director", "changed")
	c.ExternalIDs[0] = "changed"
	*c.Year = 2000

	assert.Equal(t, "Ramesh Sippy", e.Field("director"))
	assert.Equal(t, "imdb:1", e.ExternalIDs[0])
	assert.Equal(t, 1975, *e.Year)
}

func TestUnionExternalIDs(t *testing.T) {
	a := &Entity{ExternalIDs: []string{"tmdb:2", "imdb:1"}}
	b := &Entity{ExternalIDs: []string{"imdb:1", "eidr:3", ""}}

	assert.Equal(t, []string{"eidr:3", "imdb:1", "tmdb:2"}, UnionExternalIDs(a, b))
	assert.Nil(t, UnionExternalIDs(&Entity{}, nil))
}

func TestTemporalDelta(t *testing.T) {
	a := &Entity{Year: YearOf(1975)}
	b := &Entity{Year: YearOf(1986)}

	d, ok := TemporalDelta(a, b)
	require.True(t, ok)
	assert.Equal(t, 11, d)

	// Symmetric.
	d2, _ := TemporalDelta(b, a)
	assert.Equal(t, d, d2)

	_, ok = TemporalDelta(a, &Entity{})
	assert.False(t, ok)
}

func TestFieldNames(t *testing.T) {
	e := &Entity{Fields: map[string]string{"lead": "x", "director": "y"}}
	assert.Equal(t, []string{"director", "lead"}, e.FieldNames())
	assert.Nil(t, (&Entity{}).FieldNames())
}
