package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/moviegraph/reconcile/internal/config"
	"github.com/moviegraph/reconcile/internal/store/memory"
	"github.com/moviegraph/reconcile/internal/store/sqlite"
	"github.com/moviegraph/reconcile/pkg/entity"
	"github.com/moviegraph/reconcile/pkg/errors"
	"github.com/moviegraph/reconcile/pkg/merge"
	"github.com/moviegraph/reconcile/pkg/report"
)

// entityStore is what the commands need from a backend: the executor's
// contract plus a way to enumerate the active pool.
type entityStore interface {
	merge.Store
	ListActive(ctx context.Context) ([]*entity.Entity, error)
}

// loadPolicy returns the policy from --config, or the defaults.
func loadPolicy() (*config.Config, error) {
	if configFile == "" {
		return config.Default(), nil
	}
	return config.Load(configFile)
}

// openStore resolves the --pool / --db flags to a backend. A YAML pool file
// is seeded into an in-memory store; a database path opens SQLite.
func openStore(poolPath, dbPath string) (entityStore, func() error, error) {
	switch {
	case poolPath != "" && dbPath != "":
		return nil, nil, errors.NewValidationError("pool", poolPath, "use either --pool or --db, not both")
	case dbPath != "":
		s, err := sqlite.Open(dbPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case poolPath != "":
		pool, err := loadPoolFile(poolPath)
		if err != nil {
			return nil, nil, err
		}
		s := memory.New()
		s.Seed(pool)
		return s, func() error { return nil }, nil
	default:
		return nil, nil, errors.NewValidationError("pool", "", "either --pool or --db is required")
	}
}

// validateApplyTarget rejects apply modes whose merges would evaporate: a
// YAML pool is loaded into a throwaway in-memory store, so only a database
// backend (or a dry run) may take --apply.
func validateApplyTarget(apply, dryRun bool, dbPath string) error {
	if apply && !dryRun && dbPath == "" {
		return errors.NewValidationError("apply", nil,
			"--apply needs --db; a YAML pool is read-only (use --dry-run to preview merges)")
	}
	return nil
}

// writeReport serializes a report to the given path.
func writeReport(rep *report.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return rep.WriteYAML(f)
}

// readReport deserializes a report written by writeReport.
func readReport(path string) (*report.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}
	return report.ReadYAML(data)
}

// loadPoolFile reads a YAML list of entities.
func loadPoolFile(path string) ([]*entity.Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pool %s: %w", path, err)
	}
	var pool []*entity.Entity
	if err := yaml.Unmarshal(data, &pool); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	if len(pool) == 0 {
		return nil, errors.ErrEmptyPool
	}
	return pool, nil
}
