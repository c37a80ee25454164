package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviegraph/reconcile/pkg/entity"
	"github.com/moviegraph/reconcile/pkg/errors"
	"github.com/moviegraph/reconcile/pkg/merge"
)

func TestSeedAndGet(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed([]*entity.Entity{
		{ID: "m1", Name: "Sholay"},
		{ID: "m2", Name: "Deewaar"},
		nil,
		{Name: "no id"},
	})

	assert.Equal(t, 2, s.Len())

	e, err := s.Get(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, e.Active, "seeded records are active")

	_, err = s.Get(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed([]*entity.Entity{{ID: "m1", Name: "Sholay"}})

	e, err := s.Get(ctx, "m1")
	require.NoError(t, err)
	e.Name = "mutated"

	again, err := s.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "Sholay", again.Name)
}

func TestRetireCompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed([]*entity.Entity{{ID: "m1", Name: "Sholay"}})

	require.NoError(t, s.Retire(ctx, "m1"))

	err := s.Retire(ctx, "m1")
	assert.ErrorIs(t, err, errors.ErrAlreadyRetired)

	err = s.Retire(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))

	e, err := s.Get(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, e.Active)
	assert.Equal(t, "Sholay", e.Name, "retired records keep their data")
}

func TestPutValidation(t *testing.T) {
	ctx := context.Background()
	s := New()

	assert.True(t, errors.IsValidationError(s.Put(ctx, nil)))
	assert.True(t, errors.IsValidationError(s.Put(ctx, &entity.Entity{})))

	require.NoError(t, s.Put(ctx, &entity.Entity{ID: "m1", Name: "Sholay"}))
	e, err := s.Get(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, e.Active, "new records default to active")
}

func TestListActive(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed([]*entity.Entity{
		{ID: "m2", Name: "B"},
		{ID: "m1", Name: "A"},
		{ID: "m3", Name: "C"},
	})
	require.NoError(t, s.Retire(ctx, "m2"))

	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "m1", active[0].ID)
	assert.Equal(t, "m3", active[1].ID)
}

func TestAuditAppendOnly(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.AppendAudit(ctx, merge.Record{ID: "r1"}))
	require.NoError(t, s.AppendAudit(ctx, merge.Record{ID: "r2"}))

	audit := s.Audit()
	require.Len(t, audit, 2)
	assert.Equal(t, "r1", audit[0].ID)
	assert.Equal(t, "r2", audit[1].ID)
}
