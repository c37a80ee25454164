package reconcile

import (
	"github.com/rs/zerolog"

	"github.com/moviegraph/reconcile/pkg/classify"
	"github.com/moviegraph/reconcile/pkg/entity"
	"github.com/moviegraph/reconcile/pkg/match"
)

type options struct {
	aliases    map[string]string
	variants   []match.VariantPair
	trust      []entity.Source
	thresholds classify.Thresholds
	window     int
	logger     *zerolog.Logger
}

func defaultOptions() options {
	return options{
		thresholds: classify.DefaultThresholds(),
		window:     match.DefaultWindow,
	}
}

// Option configures a Reconciler.
type Option func(*options)

// WithAliases registers known alternate titles and their canonical forms.
func WithAliases(aliases map[string]string) Option {
	return func(o *options) { o.aliases = aliases }
}

// WithVariants registers title pairs known to be alternate spellings of the
// same entity.
func WithVariants(pairs []match.VariantPair) Option {
	return func(o *options) { o.variants = pairs }
}

// WithTrustOrder sets the source trust order used to resolve field
// conflicts, most trusted first.
func WithTrustOrder(trust []entity.Source) Option {
	return func(o *options) { o.trust = trust }
}

// WithThresholds overrides the classifier cutoffs.
func WithThresholds(t classify.Thresholds) Option {
	return func(o *options) { o.thresholds = t }
}

// WithWindow sets the temporal pre-filter width; the matcher clamps it.
func WithWindow(window int) Option {
	return func(o *options) { o.window = window }
}

// WithLogger sets the logger passed to the pipeline stages.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
