// Package sqlite provides a merge.Store backed by SQLite, for hosts that
// keep their working pool in a file-backed database across runs. Retiring a
// record is a compare-and-set UPDATE guarded on the active column.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/moviegraph/reconcile/pkg/entity"
	"github.com/moviegraph/reconcile/pkg/errors"
	"github.com/moviegraph/reconcile/pkg/merge"
)

//go:embed schema.sql
var schemaSQL string

// Store manages entity and audit persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the database and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the record with the given ID, active or retired.
func (s *Store) Get(ctx context.Context, id string) (*entity.Entity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, name, alt_name, year, fields, external_ids, source, active
         FROM entities WHERE id = ?`, id)
	e, err := scanEntity(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("entity", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get entity %s: %w", id, err)
	}
	return e, nil
}

// Put upserts a record. New rows default to active; the active flag of
// existing rows is left to Retire.
func (s *Store) Put(ctx context.Context, e *entity.Entity) error {
	if e == nil || e.ID == "" {
		return errors.NewValidationError("id", "", "entity needs an ID")
	}
	fields, err := json.Marshal(fieldsOrEmpty(e))
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	ids, err := json.Marshal(idsOrEmpty(e))
	if err != nil {
		return fmt.Errorf("encode external ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entities (id, kind, name, alt_name, year, fields, external_ids, source, active)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
         ON CONFLICT(id) DO UPDATE SET
             kind = excluded.kind,
             name = excluded.name,
             alt_name = excluded.alt_name,
             year = excluded.year,
             fields = excluded.fields,
             external_ids = excluded.external_ids,
             source = excluded.source`,
		e.ID, string(e.Kind), e.Name, e.AltName, nullableYear(e), string(fields), string(ids), string(e.Source))
	if err != nil {
		return fmt.Errorf("upsert entity %s: %w", e.ID, err)
	}
	return nil
}

// Retire marks a record inactive via a compare-and-set on the active column.
func (s *Store) Retire(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE entities SET active = 0 WHERE id = ? AND active = 1`, id)
	if err != nil {
		return fmt.Errorf("retire entity %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("retire entity %s: %w", id, err)
	}
	if n == 0 {
		// Distinguish a missing row from a lost compare-and-set.
		var exists int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM entities WHERE id = ?`, id).Scan(&exists); err != nil {
			return fmt.Errorf("retire entity %s: %w", id, err)
		}
		if exists == 0 {
			return errors.NewNotFoundError("entity", id)
		}
		return errors.ErrAlreadyRetired
	}
	return nil
}

// AppendAudit appends an immutable merge record.
func (s *Store) AppendAudit(ctx context.Context, rec merge.Record) error {
	decisions, err := json.Marshal(rec.Decisions)
	if err != nil {
		return fmt.Errorf("encode decisions: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO merge_audit (id, winner_id, loser_id, verdict, confidence, decisions, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.WinnerID, rec.LoserID, rec.Verdict, rec.Confidence,
		string(decisions), rec.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append audit %s: %w", rec.ID, err)
	}
	return nil
}

// ListActive returns all active records in stable ID order.
func (s *Store) ListActive(ctx context.Context) ([]*entity.Entity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, name, alt_name, year, fields, external_ids, source, active
         FROM entities WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list active entities: %w", err)
	}
	defer rows.Close()

	var out []*entity.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Seed loads a pool of records, marking them active.
func (s *Store) Seed(ctx context.Context, pool []*entity.Entity) error {
	for _, e := range pool {
		if e == nil || e.ID == "" {
			continue
		}
		if err := s.Put(ctx, e); err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx,
			`UPDATE entities SET active = 1 WHERE id = ?`, e.ID); err != nil {
			return fmt.Errorf("activate entity %s: %w", e.ID, err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*entity.Entity, error) {
	var (
		e      entity.Entity
		kind   string
		source string
		year   sql.NullInt64
		fields string
		ids    string
		active int
	)
	if err := row.Scan(&e.ID, &kind, &e.Name, &e.AltName, &year, &fields, &ids, &source, &active); err != nil {
		return nil, err
	}
	e.Kind = entity.Kind(kind)
	e.Source = entity.Source(source)
	e.Active = active != 0
	if year.Valid {
		y := int(year.Int64)
		e.Year = &y
	}
	if err := json.Unmarshal([]byte(fields), &e.Fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	if err := json.Unmarshal([]byte(ids), &e.ExternalIDs); err != nil {
		return nil, fmt.Errorf("decode external ids: %w", err)
	}
	if len(e.Fields) == 0 {
		e.Fields = nil
	}
	if len(e.ExternalIDs) == 0 {
		e.ExternalIDs = nil
	}
	return &e, nil
}

func nullableYear(e *entity.Entity) any {
	if e.Year == nil {
		return nil
	}
	return *e.Year
}

func fieldsOrEmpty(e *entity.Entity) map[string]string {
	if e.Fields == nil {
		return map[string]string{}
	}
	return e.Fields
}

func idsOrEmpty(e *entity.Entity) []string {
	if e.ExternalIDs == nil {
		return []string{}
	}
	return e.ExternalIDs
}
