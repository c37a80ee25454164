// Package merge applies approved reconciliation decisions to the canonical
// store. It is the only component that mutates anything: matching and
// classification produce commands, the executor applies them, one
// winner/loser pair at a time. Retiring a record is a compare-and-set on its
// active flag, so a second merge attempt on an already-retired record fails
// closed instead of retiring it twice.
package merge

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/moviegraph/reconcile/pkg/entity"
	"github.com/moviegraph/reconcile/pkg/errors"
	"github.com/moviegraph/reconcile/pkg/logging"
	"github.com/moviegraph/reconcile/pkg/report"
	"github.com/moviegraph/reconcile/pkg/resolve"
)

// Store is the persistence contract the executor requires. Reading the pool
// in and writing resolved records back is the host's concern; the executor
// only needs these four operations.
type Store interface {
	// Get returns the record with the given ID, active or retired.
	Get(ctx context.Context, id string) (*entity.Entity, error)

	// Put upserts a record.
	Put(ctx context.Context, e *entity.Entity) error

	// Retire marks a record inactive. It must be a compare-and-set on the
	// active flag: retiring an already-retired record returns
	// ErrAlreadyRetired and changes nothing.
	Retire(ctx context.Context, id string) error

	// AppendAudit appends an immutable merge record to the audit trail.
	AppendAudit(ctx context.Context, rec Record) error
}

// Record is the immutable audit entry appended for every applied merge.
type Record struct {
	ID         string             `json:"id" yaml:"id"`
	WinnerID   string             `json:"winner_id" yaml:"winner_id"`
	LoserID    string             `json:"loser_id" yaml:"loser_id"`
	Verdict    string             `json:"verdict" yaml:"verdict"`
	Confidence int                `json:"confidence" yaml:"confidence"`
	Decisions  []resolve.Decision `json:"decisions" yaml:"decisions"`
	Timestamp  time.Time          `json:"timestamp" yaml:"timestamp"`
}

// Outcome reports one merge attempt. Failures are per-pair; one failed merge
// never aborts the rest of a batch.
type Outcome struct {
	EntryID  string `json:"entry_id" yaml:"entry_id"`
	WinnerID string `json:"winner_id,omitempty" yaml:"winner_id,omitempty"`
	LoserID  string `json:"loser_id,omitempty" yaml:"loser_id,omitempty"`
	RecordID string `json:"record_id,omitempty" yaml:"record_id,omitempty"`
	Skipped  bool   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Err      error  `json:"-" yaml:"-"`
}

// Applied reports whether the merge went through.
func (o Outcome) Applied() bool {
	return o.Err == nil && !o.Skipped
}

// Executor applies merge commands to a store.
type Executor struct {
	store    Store
	resolver *resolve.Resolver
	fields   []string
	dryRun   bool
	logger   *zerolog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithFields limits resolution to the named attributes. The default is the
// union of both records' attributes.
func WithFields(fields []string) Option {
	return func(e *Executor) { e.fields = fields }
}

// WithDryRun computes and reports decisions without touching the store.
func WithDryRun(dryRun bool) Option {
	return func(e *Executor) { e.dryRun = dryRun }
}

// WithLogger sets the executor's logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExecutor creates an Executor. The store must not be nil; a nil resolver
// gets the default trust order.
func NewExecutor(store Store, resolver *resolve.Resolver, opts ...Option) (*Executor, error) {
	if store == nil {
		return nil, errors.NewValidationError("store", nil, "store must not be nil")
	}
	if resolver == nil {
		resolver = resolve.NewResolver(nil)
	}
	e := &Executor{
		store:    store,
		resolver: resolver,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Apply executes one merge: resolve fields, union identifiers, retire the
// loser, append the audit record. The entry must be auto-apply or carry an
// explicit approval. An already-retired loser is skipped and logged, never
// retried.
func (e *Executor) Apply(ctx context.Context, entry report.Entry) Outcome {
	out := Outcome{EntryID: entry.ID}

	if !entry.Mergeable() {
		out.Err = errors.ErrNotApproved
		return out
	}
	if entry.Candidate == nil || entry.Candidate.A == nil || entry.Candidate.B == nil {
		out.Err = errors.NewValidationError("candidate", nil, "entry has no candidate pair")
		return out
	}

	winnerID, loserID := chooseWinner(entry.Candidate.A, entry.Candidate.B)
	out.WinnerID, out.LoserID = winnerID, loserID

	log := logging.FromContext(ctx)

	// Work from fresh store copies: the report may be older than the pool.
	winner, err := e.store.Get(ctx, winnerID)
	if err != nil {
		out.Err = errors.WrapStore("get", winnerID, err)
		return out
	}
	loser, err := e.store.Get(ctx, loserID)
	if err != nil {
		out.Err = errors.WrapStore("get", loserID, err)
		return out
	}
	if !loser.Active {
		log.Warn().Str("loser", loserID).Msg("merge target already retired, skipping")
		out.Skipped = true
		return out
	}
	if !winner.Active {
		log.Warn().Str("winner", winnerID).Msg("merge winner already retired, skipping")
		out.Skipped = true
		return out
	}

	resolution, err := e.resolver.Resolve(winner, loser, e.fields)
	if err != nil {
		out.Err = errors.NewMergeError(winnerID, loserID, err)
		return out
	}

	rec := Record{
		ID:         uuid.NewString(),
		WinnerID:   winnerID,
		LoserID:    loserID,
		Verdict:    string(entry.Result.Verdict),
		Confidence: entry.Result.Confidence,
		Decisions:  resolution.Decisions,
		Timestamp:  time.Now().UTC(),
	}
	out.RecordID = rec.ID

	if e.dryRun {
		log.Info().Str("winner", winnerID).Str("loser", loserID).Msg("dry run, merge not applied")
		return out
	}

	if err := e.store.Put(ctx, resolution.Merged); err != nil {
		out.Err = errors.WrapStore("put", winnerID, err)
		return out
	}
	if err := e.store.Retire(ctx, loserID); err != nil {
		if errors.IsAlreadyRetired(err) {
			// Lost the race to another merge; the winner keeps the merged
			// fields (a strict superset), so this is safe to skip.
			log.Warn().Str("loser", loserID).Msg("retire lost compare-and-set, skipping")
			out.Skipped = true
			return out
		}
		out.Err = errors.WrapStore("retire", loserID, err)
		return out
	}
	if err := e.store.AppendAudit(ctx, rec); err != nil {
		out.Err = errors.WrapStore("audit", rec.ID, err)
		return out
	}

	log.Info().
		Str("winner", winnerID).
		Str("loser", loserID).
		Str("verdict", rec.Verdict).
		Int("confidence", rec.Confidence).
		Msg("merge applied")
	return out
}

// ApplyAll executes every mergeable entry in the report, independently: a
// failed or skipped pair never stops the batch.
func (e *Executor) ApplyAll(ctx context.Context, r *report.Report) []Outcome {
	var outcomes []Outcome
	for _, entry := range r.Entries {
		if !entry.Mergeable() {
			continue
		}
		outcomes = append(outcomes, e.Apply(ctx, entry))
	}
	return outcomes
}

// chooseWinner prefers the more complete record as the canonical target;
// ties keep the pair's first record.
func chooseWinner(a, b *entity.Entity) (winnerID, loserID string) {
	if b.PopulatedFields() > a.PopulatedFields() {
		return b.ID, a.ID
	}
	return a.ID, b.ID
}
