package reconcile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviegraph/reconcile"
	"github.com/moviegraph/reconcile/internal/store/memory"
	"github.com/moviegraph/reconcile/pkg/classify"
	"github.com/moviegraph/reconcile/pkg/entity"
	"github.com/moviegraph/reconcile/pkg/report"
)

func TestRunSharedIdentifierAutoApply(t *testing.T) {
	// Two titles for the same film, linked by a catalog identifier: the pair
	// must merge without human review, and nothing may be lost in the merge.
	ctx := context.Background()

	a := &entity.Entity{
		ID: "m1", Kind: entity.KindMovie, Name: "Vikram",
		Year: entity.YearOf(1986), Source: entity.SourceCatalog,
		Fields:      map[string]string{"director": "Rajasekhar"},
		ExternalIDs: []string{"imdb:tt0091234"},
	}
	b := &entity.Entity{
		ID: "m2", Kind: entity.KindMovie, Name: "Vikramarkudu",
		Year: entity.YearOf(1986), Source: entity.SourceSearch,
		ExternalIDs: []string{"imdb:tt0091234", "tmdb:5555"},
	}

	rec := reconcile.New()
	rep, err := rec.Run(ctx, []*entity.Entity{a, b})
	require.NoError(t, err)
	require.Len(t, rep.Entries, 1)

	entry := rep.Entries[0]
	assert.Equal(t, classify.SameEntity, entry.Result.Verdict)
	assert.Equal(t, report.StatusAutoApply, entry.Status)

	store := memory.New()
	store.Seed([]*entity.Entity{a, b})
	exec, err := rec.Executor(store)
	require.NoError(t, err)

	outcomes := exec.ApplyAll(ctx, rep)
	require.Len(t, outcomes, 1)
	require.NoError(t, outcomes[0].Err)

	merged, err := store.Get(ctx, outcomes[0].WinnerID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"imdb:tt0091234", "tmdb:5555"}, merged.ExternalIDs)
	assert.Equal(t, "Rajasekhar", merged.Field("director"))

	retired, err := store.Get(ctx, outcomes[0].LoserID)
	require.NoError(t, err)
	assert.False(t, retired.Active)
}

func TestRunPrefixTitlesStayDistinct(t *testing.T) {
	// A short title that happens to be a prefix of a longer one is not a
	// duplicate. Precision over recall: this pair must never merge.
	ctx := context.Background()

	pool := []*entity.Entity{
		{ID: "m1", Kind: entity.KindMovie, Name: "Puli", Year: entity.YearOf(2010)},
		{ID: "m2", Kind: entity.KindMovie, Name: "Pulijoodam", Year: entity.YearOf(2010)},
	}

	rec := reconcile.New()
	rep, err := rec.Run(ctx, pool)
	require.NoError(t, err)
	require.Len(t, rep.Entries, 1)

	entry := rep.Entries[0]
	assert.Equal(t, classify.Distinct, entry.Result.Verdict)
	assert.Equal(t, report.StatusNoAction, entry.Status)
	assert.Empty(t, rep.AutoApply())
}

func TestRunTemporalGapFlagsAmbiguous(t *testing.T) {
	// Same name, forty years apart: almost certainly two different people.
	// The pair routes to review, never to an automatic merge.
	ctx := context.Background()

	pool := []*entity.Entity{
		{ID: "p1", Kind: entity.KindPerson, Name: "Devika", Year: entity.YearOf(1943)},
		{ID: "p2", Kind: entity.KindPerson, Name: "Devika", Year: entity.YearOf(1983)},
	}

	rec := reconcile.New()
	rep, err := rec.Run(ctx, pool)
	require.NoError(t, err)
	require.Len(t, rep.Entries, 1)

	entry := rep.Entries[0]
	assert.Equal(t, classify.Ambiguous, entry.Result.Verdict)
	assert.Equal(t, report.StatusNeedsReview, entry.Status)
}

func TestRunTunedTemporalGap(t *testing.T) {
	// Lowering the gap threshold must take effect end to end: the pair
	// below would be silently dropped if the matcher kept the default gap.
	ctx := context.Background()

	pool := []*entity.Entity{
		{ID: "p1", Kind: entity.KindPerson, Name: "Devika", Year: entity.YearOf(1950)},
		{ID: "p2", Kind: entity.KindPerson, Name: "Devika", Year: entity.YearOf(1975)},
	}

	thresholds := classify.DefaultThresholds()
	thresholds.TemporalGap = 25

	rec := reconcile.New(reconcile.WithThresholds(thresholds))
	rep, err := rec.Run(ctx, pool)
	require.NoError(t, err)
	require.Len(t, rep.Entries, 1)
	assert.Equal(t, classify.Ambiguous, rep.Entries[0].Result.Verdict)
}

func TestRunExactDuplicates(t *testing.T) {
	ctx := context.Background()

	pool := []*entity.Entity{
		{ID: "m1", Kind: entity.KindMovie, Name: "Sholay", Year: entity.YearOf(1975)},
		{ID: "m2", Kind: entity.KindMovie, Name: "Sholay", Year: entity.YearOf(1975)},
	}

	rec := reconcile.New()
	rep, err := rec.Run(ctx, pool)
	require.NoError(t, err)
	require.Len(t, rep.Entries, 1)
	assert.Equal(t, classify.Identical, rep.Entries[0].Result.Verdict)
	assert.Equal(t, report.StatusAutoApply, rep.Entries[0].Status)
}

func TestRunConsumesMatchedRecords(t *testing.T) {
	// Once a record is claimed as the losing half of a match, it is not
	// paired again in the same run.
	ctx := context.Background()

	pool := []*entity.Entity{
		{ID: "m1", Kind: entity.KindMovie, Name: "Sholay", Year: entity.YearOf(1975)},
		{ID: "m2", Kind: entity.KindMovie, Name: "Sholay", Year: entity.YearOf(1975)},
		{ID: "m3", Kind: entity.KindMovie, Name: "Sholay", Year: entity.YearOf(1975)},
	}

	rec := reconcile.New()
	rep, err := rec.Run(ctx, pool)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, e := range rep.Entries {
		seen[e.Candidate.B.ID]++
	}
	for id, n := range seen {
		assert.LessOrEqual(t, n, 1, "record %s claimed more than once", id)
	}
}

func TestRunEmptyAndSingletonPools(t *testing.T) {
	ctx := context.Background()
	rec := reconcile.New()

	rep, err := rec.Run(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, rep.Entries)

	rep, err = rec.Run(ctx, []*entity.Entity{{ID: "m1", Name: "Sholay"}})
	require.NoError(t, err)
	assert.Empty(t, rep.Entries)
}

func TestRunHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := reconcile.New()
	_, err := rec.Run(ctx, []*entity.Entity{
		{ID: "m1", Name: "Sholay"},
		{ID: "m2", Name: "Sholay"},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWithPolicyOptions(t *testing.T) {
	ctx := context.Background()

	pool := []*entity.Entity{
		{ID: "p1", Kind: entity.KindPerson, Name: "K. Raghavendra Rao", Year: entity.YearOf(1942)},
		{ID: "p2", Kind: entity.KindPerson, Name: "K. Raghavender Rao", Year: entity.YearOf(1942)},
	}

	rec := reconcile.New(
		reconcile.WithAliases(map[string]string{"K. Raghavender Rao": "K. Raghavendra Rao"}),
	)
	rep, err := rec.Run(ctx, pool)
	require.NoError(t, err)
	require.Len(t, rep.Entries, 1)
	assert.Equal(t, classify.Identical, rep.Entries[0].Result.Verdict)
}
