package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviegraph/reconcile/pkg/errors"
)

func TestValidateApplyTarget(t *testing.T) {
	tests := []struct {
		name    string
		apply   bool
		dryRun  bool
		dbPath  string
		wantErr bool
	}{
		{"no apply", false, false, "", false},
		{"apply with db", true, false, "catalog.db", false},
		{"apply dry run without db", true, true, "", false},
		{"apply without db", true, false, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateApplyTarget(tt.apply, tt.dryRun, tt.dbPath)
			if tt.wantErr {
				assert.True(t, errors.IsValidationError(err),
					"merges into a throwaway pool backend must be refused")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOpenStoreFlagValidation(t *testing.T) {
	_, _, err := openStore("pool.yaml", "catalog.db")
	assert.True(t, errors.IsValidationError(err))

	_, _, err = openStore("", "")
	assert.True(t, errors.IsValidationError(err))
}

func TestLoadPoolFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- id: m1
  kind: movie
  name: Sholay
  year: 1975
- id: m2
  kind: movie
  name: Deewaar
`), 0o644))

	pool, err := loadPoolFile(path)
	require.NoError(t, err)
	require.Len(t, pool, 2)
	assert.Equal(t, "Sholay", pool[0].Name)
	assert.Equal(t, 1975, *pool[0].Year)

	_, err = loadPoolFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
