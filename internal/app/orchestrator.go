package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/pitchcast/internal/adapters/cache"
	"github.com/okian/pitchcast/internal/adapters/snapshot"
	"github.com/okian/pitchcast/internal/domain/apperr"
	"github.com/okian/pitchcast/internal/domain/sport"
	"github.com/okian/pitchcast/pkg/logger"
	"github.com/okian/pitchcast/pkg/metrics"
)

// Result is what an orchestrated computation produces. Version and Check let
// a cached value be re-verified before it is served.
type Result interface {
	Version() string
	Check() error
}

// PredictOptions tune a single Predict call.
type PredictOptions struct {
	// ForceRefresh skips the cache read; the fresh result is still written.
	ForceRefresh bool
	// Discriminator extends the cache key, e.g. a squad or scope name.
	Discriminator string
}

// Outcome is a result and whether it came from the cache.
type Outcome[R any] struct {
	Result R
	Cached bool
	Key    string
}

// ComputeFunc produces a fresh result for features f.
type ComputeFunc[F any, R Result] func(ctx context.Context, f F) (R, error)

// Orchestrator composes cache lookup, computation and write-through for one
// result kind. It performs no access checks.
type Orchestrator[F any, R Result] struct {
	kind    cache.Kind
	store   *cache.Store[R]
	ttl     func(sport.Sport) time.Duration
	version string
	sportOf func(F) sport.Sport
	compute ComputeFunc[F, R]

	publisher snapshot.Publisher
	logger    logger.Logger
}

type orchestratorConfig struct {
	publisher snapshot.Publisher
	logger    logger.Logger
}

// OrchestratorOption applies a configuration option to an Orchestrator.
type OrchestratorOption func(*orchestratorConfig)

// WithPublisher hands every fresh result to p.
func WithPublisher(p snapshot.Publisher) OrchestratorOption {
	return func(c *orchestratorConfig) {
		if p != nil {
			c.publisher = p
		}
	}
}

// WithOrchestratorLogger sets the logger for integrity failures.
func WithOrchestratorLogger(l logger.Logger) OrchestratorOption {
	return func(c *orchestratorConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewOrchestrator wires a store and a computation. version is the model
// version cached results must carry to be served.
func NewOrchestrator[F any, R Result](
	kind cache.Kind,
	store *cache.Store[R],
	ttl func(sport.Sport) time.Duration,
	version string,
	sportOf func(F) sport.Sport,
	compute ComputeFunc[F, R],
	opts ...OrchestratorOption,
) *Orchestrator[F, R] {
	cfg := orchestratorConfig{publisher: snapshot.Nop{}, logger: logger.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Orchestrator[F, R]{
		kind:      kind,
		store:     store,
		ttl:       ttl,
		version:   version,
		sportOf:   sportOf,
		compute:   compute,
		publisher: cfg.publisher,
		logger:    cfg.logger.Named(string(kind)),
	}
}

// Predict serves f for entityID from the cache when possible and computes it
// otherwise. A cached value that fails verification is discarded and
// recomputed; the caller never sees the integrity failure.
func (o *Orchestrator[F, R]) Predict(ctx context.Context, entityID string, f F, opts PredictOptions) (Outcome[R], error) {
	start := time.Now()
	s := o.sportOf(f)
	key := cache.Key(entityID, s, opts.Discriminator)

	if !opts.ForceRefresh {
		if r, ok := o.store.Get(key); ok {
			err := o.verify(key, r)
			if err == nil {
				o.observe(s, true, start)
				return Outcome[R]{Result: r, Cached: true, Key: key}, nil
			}
			metrics.RecordCacheIntegrityFailure(string(o.kind))
			o.logger.Warn(ctx, "discarding cached result", logger.String("key", key), logger.Error(err))
			o.store.Delete(key)
		}
	}

	r, err := o.compute(ctx, f)
	if err != nil {
		metrics.RecordPredictionError(string(o.kind), errorType(err))
		return Outcome[R]{}, err
	}

	ttl := o.ttl(s)
	o.store.Set(key, r, ttl)
	o.publish(ctx, key, s, ttl, r)
	o.observe(s, false, start)
	return Outcome[R]{Result: r, Cached: false, Key: key}, nil
}

// Invalidate removes the entries for entityID in sport s. With no scopes the
// plain key is removed; otherwise one key per scope.
func (o *Orchestrator[F, R]) Invalidate(_ context.Context, entityID string, s sport.Sport, scope ...string) int {
	if len(scope) == 0 {
		scope = []string{""}
	}
	n := 0
	for _, sc := range scope {
		if o.store.Delete(cache.Key(entityID, s, sc)) {
			n++
		}
	}
	return n
}

func (o *Orchestrator[F, R]) verify(key string, r R) error {
	if v := r.Version(); v != o.version {
		return &apperr.CacheIntegrityError{Key: key, Reason: fmt.Sprintf("model version %q, want %q", v, o.version)}
	}
	if err := r.Check(); err != nil {
		return &apperr.CacheIntegrityError{Key: key, Reason: err.Error()}
	}
	return nil
}

func (o *Orchestrator[F, R]) publish(ctx context.Context, key string, s sport.Sport, ttl time.Duration, r R) {
	snap, err := snapshot.New(string(o.kind), key, s, r.Version(), ttl, r)
	if err != nil {
		metrics.RecordSnapshot("failed")
		o.logger.Warn(ctx, "snapshot not built", logger.String("key", key), logger.Error(err))
		return
	}
	o.publisher.Publish(ctx, snap)
}

func (o *Orchestrator[F, R]) observe(s sport.Sport, cached bool, start time.Time) {
	metrics.RecordPrediction(string(o.kind), string(s), cached)
	metrics.RecordPredictionLatency(string(o.kind), float64(time.Since(start).Microseconds())/1000)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return "validation"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrAccessDenied):
		return "access_denied"
	default:
		return "internal"
	}
}
