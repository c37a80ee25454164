// Package memory provides an in-memory merge.Store for tests and for batch
// runs whose pool is loaded from a file rather than a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/moviegraph/reconcile/pkg/entity"
	"github.com/moviegraph/reconcile/pkg/errors"
	"github.com/moviegraph/reconcile/pkg/merge"
)

// Store is a mutex-guarded in-memory entity store with an audit trail.
type Store struct {
	mu       sync.Mutex
	entities map[string]*entity.Entity
	audit    []merge.Record
}

// New creates an empty store.
func New() *Store {
	return &Store{entities: make(map[string]*entity.Entity)}
}

// Seed loads a pool of records, marking them active. Existing IDs are
// overwritten.
func (s *Store) Seed(pool []*entity.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range pool {
		if e == nil || e.ID == "" {
			continue
		}
		c := e.Copy()
		c.Active = true
		s.entities[c.ID] = c
	}
}

// Get returns a copy of the record with the given ID, active or retired.
func (s *Store) Get(_ context.Context, id string) (*entity.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[id]
	if !ok {
		return nil, errors.NewNotFoundError("entity", id)
	}
	return e.Copy(), nil
}

// Put upserts a record. A record put without an explicit retire keeps its
// active flag truthful: new records default to active.
func (s *Store) Put(_ context.Context, e *entity.Entity) error {
	if e == nil || e.ID == "" {
		return errors.NewValidationError("id", "", "entity needs an ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := e.Copy()
	if _, exists := s.entities[c.ID]; !exists {
		c.Active = true
	}
	s.entities[c.ID] = c
	return nil
}

// Retire marks a record inactive. Compare-and-set: retiring an
// already-retired record returns ErrAlreadyRetired and changes nothing.
func (s *Store) Retire(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[id]
	if !ok {
		return errors.NewNotFoundError("entity", id)
	}
	if !e.Active {
		return errors.ErrAlreadyRetired
	}
	e.Active = false
	return nil
}

// AppendAudit appends an immutable merge record.
func (s *Store) AppendAudit(_ context.Context, rec merge.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, rec)
	return nil
}

// ListActive returns copies of all active records in stable ID order.
func (s *Store) ListActive(_ context.Context) ([]*entity.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Entity
	for _, e := range s.entities {
		if e.Active {
			out = append(out, e.Copy())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Audit returns a copy of the audit trail in append order.
func (s *Store) Audit() []merge.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]merge.Record(nil), s.audit...)
}

// Len returns the total number of records, active and retired.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entities)
}
