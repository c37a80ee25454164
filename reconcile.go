// Package reconcile detects and merges duplicate movie and person records
// collected from uncoordinated sources. The pipeline is deterministic and
// biased toward precision: normalize titles, pair each record with its best
// candidate, classify the pair, and partition the outcomes into merges safe
// to apply automatically and pairs that need a human decision.
package reconcile

import (
	"context"

	"github.com/moviegraph/reconcile/pkg/classify"
	"github.com/moviegraph/reconcile/pkg/entity"
	"github.com/moviegraph/reconcile/pkg/logging"
	"github.com/moviegraph/reconcile/pkg/match"
	"github.com/moviegraph/reconcile/pkg/merge"
	"github.com/moviegraph/reconcile/pkg/normalize"
	"github.com/moviegraph/reconcile/pkg/report"
	"github.com/moviegraph/reconcile/pkg/resolve"
)

// Reconciler runs the duplicate-detection pipeline over a pool of records.
type Reconciler interface {
	// Run pairs every record in the pool against the records after it,
	// classifies each best candidate, and returns the run's report. Records
	// claimed by a match verdict are consumed and not paired again.
	Run(ctx context.Context, pool []*entity.Entity) (*report.Report, error)

	// Match returns the record's best candidate within the pool, or nil
	// when nothing survives the temporal pre-filter.
	Match(record *entity.Entity, pool []*entity.Entity) (*match.Candidate, error)

	// Classify maps a candidate pair to its verdict.
	Classify(cand *match.Candidate) classify.Result

	// Resolver returns the trust-ordered field resolver used for merges.
	Resolver() *resolve.Resolver

	// Executor builds a merge executor over the given store, sharing the
	// reconciler's resolver.
	Executor(store merge.Store, opts ...merge.Option) (*merge.Executor, error)
}

type reconciler struct {
	norm       *normalize.Normalizer
	matcher    *match.Matcher
	classifier *classify.Classifier
	resolver   *resolve.Resolver
	window     int
}

// New creates a Reconciler with the given policy options.
func New(opts ...Option) Reconciler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	norm := normalize.New(o.aliases)
	classifier := classify.NewClassifier(o.thresholds)
	return &reconciler{
		norm: norm,
		matcher: match.NewMatcher(norm,
			match.WithWindow(o.window),
			// The filter's carve-out and the classifier's gap rule must
			// agree on where ambiguity starts.
			match.WithAmbiguityGap(classifier.Thresholds().TemporalGap),
			match.WithVariants(o.variants),
			match.WithLogger(o.logger),
		),
		classifier: classifier,
		resolver:   resolve.NewResolver(o.trust),
		window:     o.window,
	}
}

func (r *reconciler) Run(ctx context.Context, pool []*entity.Entity) (*report.Report, error) {
	log := logging.FromContext(ctx)
	rep := report.New(r.window)

	// Records already claimed as the losing half of a match verdict are
	// consumed; pairing them again would double-merge.
	consumed := make(map[string]bool)

	for i, record := range pool {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if record == nil || consumed[record.ID] {
			continue
		}

		rest := remaining(pool[i+1:], consumed)
		if len(rest) == 0 {
			continue
		}

		cand, err := r.matcher.BestMatch(record, rest)
		if err != nil {
			return nil, err
		}
		if cand == nil {
			continue
		}

		result := r.classifier.Classify(cand)
		rep.Add(cand, result, r.classifier.AutoApply(result))

		if result.Verdict.IsMatch() {
			consumed[cand.B.ID] = true
		}

		log.Debug().
			Str("record", record.ID).
			Str("candidate", cand.B.ID).
			Str("verdict", string(result.Verdict)).
			Int("confidence", result.Confidence).
			Msg("pair classified")
	}

	s := rep.Summary()
	log.Info().
		Int("pairs", s.Total).
		Int("auto_apply", s.AutoApply).
		Int("needs_review", s.NeedsReview).
		Msg("reconciliation run complete")
	return rep, nil
}

func (r *reconciler) Match(record *entity.Entity, pool []*entity.Entity) (*match.Candidate, error) {
	return r.matcher.BestMatch(record, pool)
}

func (r *reconciler) Classify(cand *match.Candidate) classify.Result {
	return r.classifier.Classify(cand)
}

func (r *reconciler) Resolver() *resolve.Resolver {
	return r.resolver
}

func (r *reconciler) Executor(store merge.Store, opts ...merge.Option) (*merge.Executor, error) {
	return merge.NewExecutor(store, r.resolver, opts...)
}

func remaining(pool []*entity.Entity, consumed map[string]bool) []*entity.Entity {
	out := make([]*entity.Entity, 0, len(pool))
	for _, e := range pool {
		if e == nil || consumed[e.ID] {
			continue
		}
		out = append(out, e)
	}
	return out
}
