// Package service wires the prediction core into a runnable service: sport
// registry, engines, result cache, access gate, audit and snapshot pipelines,
// plus the periodic cache maintenance the HTTP layer depends on.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/pitchcast/internal/adapters/audit"
	"github.com/okian/pitchcast/internal/adapters/cache"
	"github.com/okian/pitchcast/internal/adapters/snapshot"
	"github.com/okian/pitchcast/internal/domain/access"
	"github.com/okian/pitchcast/internal/domain/apperr"
	"github.com/okian/pitchcast/internal/domain/features"
	"github.com/okian/pitchcast/internal/domain/injury"
	"github.com/okian/pitchcast/internal/domain/prediction"
	"github.com/okian/pitchcast/internal/domain/sport"
	"github.com/okian/pitchcast/pkg/logger"
	"github.com/okian/pitchcast/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultSweepInterval    = time.Minute
	defaultExpiringWindow   = 15 * time.Minute
	defaultBatchConcurrency = 8
	stopTimeout             = 10 * time.Second

	squadDiscriminator = "squad"
	batchSquadInjury   = "squad_injury"
)

// RefreshFunc receives cache entries about to expire so they can be
// recomputed ahead of demand.
type RefreshFunc func(ctx context.Context, due []cache.Expiring)

// Squad is the input of a team-wide injury sweep.
type Squad struct {
	TeamID  string
	Sport   sport.Sport
	Players []features.Workload
}

// Service implements the API dependencies for the prediction system.
type Service struct {
	mu sync.RWMutex

	// Core components
	registry *sport.Registry
	engine   *prediction.Engine
	analyzer *injury.Analyzer
	cache    *cache.Cache
	gate     *access.Gate
	recorder *audit.Recorder

	publisher      snapshot.Publisher
	asyncPublisher *snapshot.AsyncPublisher

	matches  *Orchestrator[features.Match, prediction.MatchResult]
	players  *Orchestrator[features.Player, prediction.PlayerResult]
	teams    *Orchestrator[features.Team, prediction.TeamResult]
	injuries *Orchestrator[features.Workload, injury.Assessment]
	squads   *Orchestrator[Squad, injury.SquadReport]

	// Configuration
	cfg options

	// State
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// Logging
	logger logger.Logger
}

type options struct {
	registry       *sport.Registry
	overridesFile  string
	engineOpts     []prediction.Option
	analyzerOpts   []injury.Option
	ttls           cache.TTLs
	cacheOpts      []cache.Option
	auditSink      audit.Sink
	auditBuffer    int
	snapshotStore  snapshot.Store
	snapshotBuffer int

	sweepInterval    time.Duration
	expiringWindow   time.Duration
	batchConcurrency int
	refresh          RefreshFunc
	now              func() time.Time
	logger           logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*options)

// WithRegistry uses an already built sport registry.
func WithRegistry(r *sport.Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithProfileOverrides loads sport profile overrides from a YAML file.
func WithProfileOverrides(path string) Option {
	return func(o *options) { o.overridesFile = path }
}

// WithModelVersion stamps match, player and team predictions with v.
func WithModelVersion(v string) Option {
	return func(o *options) {
		if v != "" {
			o.engineOpts = append(o.engineOpts, prediction.WithModelVersion(v))
		}
	}
}

// WithInjuryModelVersion stamps injury assessments with v.
func WithInjuryModelVersion(v string) Option {
	return func(o *options) {
		if v != "" {
			o.analyzerOpts = append(o.analyzerOpts, injury.WithModelVersion(v))
		}
	}
}

// WithPlayerThresholds tunes player confidence sample thresholds.
func WithPlayerThresholds(high, medium int) Option {
	return func(o *options) {
		o.engineOpts = append(o.engineOpts, prediction.WithPlayerThresholds(high, medium))
	}
}

// WithTeamThresholds tunes team confidence sample thresholds.
func WithTeamThresholds(high, medium int) Option {
	return func(o *options) {
		o.engineOpts = append(o.engineOpts, prediction.WithTeamThresholds(high, medium))
	}
}

// WithCacheTTLs sets result lifetimes.
func WithCacheTTLs(t cache.TTLs) Option {
	return func(o *options) { o.ttls = t }
}

// WithCacheCapacity bounds each cache store and sets its eviction batch.
func WithCacheCapacity(capacity, evictionBatch int) Option {
	return func(o *options) {
		o.cacheOpts = append(o.cacheOpts, cache.WithCapacity(capacity), cache.WithEvictionBatch(evictionBatch))
	}
}

// WithAuditSink replaces the default zap audit sink.
func WithAuditSink(s audit.Sink) Option {
	return func(o *options) {
		if s != nil {
			o.auditSink = s
		}
	}
}

// WithAuditBuffer bounds the audit hand-off queue.
func WithAuditBuffer(n int) Option {
	return func(o *options) { o.auditBuffer = n }
}

// WithSnapshotStore enables durable snapshots of fresh results.
func WithSnapshotStore(s snapshot.Store) Option {
	return func(o *options) { o.snapshotStore = s }
}

// WithSnapshotBuffer bounds the snapshot hand-off queue.
func WithSnapshotBuffer(n int) Option {
	return func(o *options) { o.snapshotBuffer = n }
}

// WithSweepInterval sets how often expired entries are swept.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.sweepInterval = d
		}
	}
}

// WithExpiringWindow sets the lookahead for expiring-soon scans.
func WithExpiringWindow(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.expiringWindow = d
		}
	}
}

// WithBatchConcurrency bounds parallel per-player work in squad sweeps.
func WithBatchConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.batchConcurrency = n
		}
	}
}

// WithRefreshHook receives expiring entries after every sweep.
func WithRefreshHook(f RefreshFunc) Option {
	return func(o *options) { o.refresh = f }
}

// WithClock overrides the time source of engines, cache and gate.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New constructs a Service. Sports whose profiles fail validation are
// disabled and logged; only an unusable registry is an error.
func New(opts ...Option) (*Service, error) {
	o := options{
		ttls:             cache.DefaultTTLs(),
		sweepInterval:    defaultSweepInterval,
		expiringWindow:   defaultExpiringWindow,
		batchConcurrency: defaultBatchConcurrency,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.NewNop()
	}
	ctx := context.Background()

	reg := o.registry
	if reg == nil {
		var err error
		reg, err = sport.NewRegistry(sport.WithOverridesFile(o.overridesFile))
		if reg == nil {
			return nil, fmt.Errorf("build sport registry: %w", err)
		}
		if err != nil {
			o.logger.Warn(ctx, "sports disabled by profile validation", logger.Error(err))
		}
	}
	metrics.UpdateDisabledSports(len(reg.Disabled()))

	s := &Service{
		registry: reg,
		engine:   prediction.NewEngine(reg, append([]prediction.Option{prediction.WithClock(o.now)}, o.engineOpts...)...),
		analyzer: injury.NewAnalyzer(reg, append([]injury.Option{injury.WithClock(o.now)}, o.analyzerOpts...)...),
		cache:    cache.New(o.ttls, append([]cache.Option{cache.WithClock(o.now)}, o.cacheOpts...)...),
		cfg:      o,
		stopCh:   make(chan struct{}),
		logger:   o.logger,
	}

	sink := o.auditSink
	if sink == nil {
		sink = audit.NewZapSink(logger.Zap())
	}
	s.recorder = audit.NewRecorder(sink, audit.WithBuffer(o.auditBuffer), audit.WithLogger(o.logger))
	s.gate = access.NewGate(access.WithAuditor(s.recorder), access.WithClock(o.now))

	s.publisher = snapshot.Nop{}
	if o.snapshotStore != nil {
		s.asyncPublisher = snapshot.NewAsyncPublisher(o.snapshotStore,
			snapshot.WithBuffer(o.snapshotBuffer), snapshot.WithLogger(o.logger))
		s.publisher = s.asyncPublisher
	}

	s.wireOrchestrators()
	return s, nil
}

func (s *Service) wireOrchestrators() {
	c := s.cache
	ttlFor := func(k cache.Kind) func(sport.Sport) time.Duration {
		return func(sp sport.Sport) time.Duration { return c.TTL(k, sp) }
	}
	orchOpts := []OrchestratorOption{WithPublisher(s.publisher), WithOrchestratorLogger(s.logger)}

	s.matches = NewOrchestrator(cache.KindMatch, c.Match, ttlFor(cache.KindMatch), s.engine.ModelVersion(),
		func(m features.Match) sport.Sport { return m.Sport },
		func(_ context.Context, m features.Match) (prediction.MatchResult, error) { return s.engine.PredictMatch(m) },
		orchOpts...)
	s.players = NewOrchestrator(cache.KindPlayer, c.Player, ttlFor(cache.KindPlayer), s.engine.ModelVersion(),
		func(p features.Player) sport.Sport { return p.Sport },
		func(_ context.Context, p features.Player) (prediction.PlayerResult, error) { return s.engine.PredictPlayer(p) },
		orchOpts...)
	s.teams = NewOrchestrator(cache.KindTeam, c.Team, ttlFor(cache.KindTeam), s.engine.ModelVersion(),
		func(t features.Team) sport.Sport { return t.Sport },
		func(_ context.Context, t features.Team) (prediction.TeamResult, error) { return s.engine.PredictTeam(t) },
		orchOpts...)
	s.injuries = NewOrchestrator(cache.KindInjury, c.Injury, ttlFor(cache.KindInjury), s.analyzer.ModelVersion(),
		func(w features.Workload) sport.Sport { return w.Sport },
		func(_ context.Context, w features.Workload) (injury.Assessment, error) { return s.analyzer.Assess(w) },
		orchOpts...)
	s.squads = NewOrchestrator(cache.KindRecommendation, c.Recommendation, ttlFor(cache.KindRecommendation), s.analyzer.ModelVersion(),
		func(q Squad) sport.Sport { return q.Sport },
		s.sweepSquad,
		orchOpts...)
}

// Start launches the audit and snapshot writers and the cache maintenance loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting prediction service...")

	// Writers outlive ctx; Stop closes their queues and drains them.
	drainCtx := context.WithoutCancel(ctx)
	s.recorder.Start(drainCtx)
	if s.asyncPublisher != nil {
		s.asyncPublisher.Start(drainCtx)
	}

	s.wg.Add(1)
	go s.maintenanceLoop(ctx)

	s.started = true
	s.logger.Info(ctx, "prediction service started",
		logger.Int("sports", len(s.registry.Sports())),
		logger.Int("disabledSports", len(s.registry.Disabled())),
		logger.Duration("sweepInterval", s.cfg.sweepInterval),
		logger.Bool("snapshots", s.asyncPublisher != nil),
	)
	return nil
}

// Stop halts maintenance and drains the audit and snapshot queues.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping prediction service...")

	close(s.stopCh)
	s.wg.Wait()

	if err := s.recorder.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "audit drain incomplete", logger.Error(err))
	}
	if s.asyncPublisher != nil {
		if err := s.asyncPublisher.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "snapshot drain incomplete", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "prediction service stopped")
}

func (s *Service) maintenanceLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Maintain(ctx)
		}
	}
}

// Maintain sweeps expired entries and hands expiring ones to the refresh
// hook. It returns how many entries were swept and which are due.
func (s *Service) Maintain(ctx context.Context) (int, []cache.Expiring) {
	removed := s.cache.Sweep()
	due := s.cache.ExpiringSoon(s.cfg.expiringWindow)
	if removed > 0 || len(due) > 0 {
		s.logger.Debug(ctx, "cache maintenance",
			logger.Int("swept", removed),
			logger.Int("expiringSoon", len(due)),
		)
	}
	if s.cfg.refresh != nil && len(due) > 0 {
		s.cfg.refresh(ctx, due)
	}
	return removed, due
}

// Registry exposes the sport registry.
func (s *Service) Registry() *sport.Registry { return s.registry }

// Gate exposes the access gate.
func (s *Service) Gate() *access.Gate { return s.gate }

// PredictMatch serves a match outcome prediction.
func (s *Service) PredictMatch(ctx context.Context, m features.Match, opts PredictOptions) (Outcome[prediction.MatchResult], error) {
	return s.matches.Predict(ctx, m.MatchID, m, opts)
}

// PredictPlayer serves a player performance prediction.
func (s *Service) PredictPlayer(ctx context.Context, p features.Player, opts PredictOptions) (Outcome[prediction.PlayerResult], error) {
	return s.players.Predict(ctx, p.PlayerID, p, opts)
}

// PredictTeam serves a team performance prediction.
func (s *Service) PredictTeam(ctx context.Context, t features.Team, opts PredictOptions) (Outcome[prediction.TeamResult], error) {
	return s.teams.Predict(ctx, t.TeamID, t, opts)
}

// AssessInjury serves an injury risk assessment.
func (s *Service) AssessInjury(ctx context.Context, w features.Workload, opts PredictOptions) (Outcome[injury.Assessment], error) {
	return s.injuries.Predict(ctx, w.PlayerID, w, opts)
}

// SquadInjuryRisk assesses every player of a team and summarizes the squad.
// A player whose assessment fails is reported in the summary, never aborting
// the rest.
func (s *Service) SquadInjuryRisk(ctx context.Context, q Squad, opts PredictOptions) (Outcome[injury.SquadReport], error) {
	if q.TeamID == "" {
		return Outcome[injury.SquadReport]{}, apperr.Validation("team_id", "must not be empty")
	}
	if _, err := s.registry.Profile(q.Sport); err != nil {
		return Outcome[injury.SquadReport]{}, err
	}
	opts.Discriminator = squadDiscriminator
	return s.squads.Predict(ctx, q.TeamID, q, opts)
}

func (s *Service) sweepSquad(ctx context.Context, q Squad) (injury.SquadReport, error) {
	type slot struct {
		assessment injury.Assessment
		err        error
	}
	slots := make([]slot, len(q.Players))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.batchConcurrency)
	for i, w := range q.Players {
		g.Go(func() error {
			if w.Sport != q.Sport {
				slots[i].err = apperr.Validation("sport", "player %s plays %s, squad is %s", w.PlayerID, w.Sport, q.Sport)
			} else {
				out, err := s.injuries.Predict(gctx, w.PlayerID, w, PredictOptions{})
				slots[i] = slot{assessment: out.Result, err: err}
			}
			metrics.RecordBatchEntity(batchSquadInjury, slots[i].err == nil)
			return nil
		})
	}
	_ = g.Wait()

	assessed := make([]injury.Assessment, 0, len(q.Players))
	var failures []injury.SquadFailure
	for i, sl := range slots {
		if sl.err != nil {
			s.logger.Warn(ctx, "squad member skipped",
				logger.String("teamID", q.TeamID),
				logger.String("playerID", q.Players[i].PlayerID),
				logger.Error(sl.err),
			)
			failures = append(failures, injury.SquadFailure{PlayerID: q.Players[i].PlayerID, Error: sl.err.Error()})
			continue
		}
		assessed = append(assessed, sl.assessment)
	}
	return s.analyzer.Summarize(q.TeamID, q.Sport, assessed, failures), nil
}

// Invalidate removes cached results for entityID. Without a sport the entity
// is cleared from every store by substring match; with a sport only the exact
// keys for the given scopes are removed. Squad reports are always scoped, so
// an empty scope list targets the squad key in that store.
func (s *Service) Invalidate(ctx context.Context, entityID string, sp sport.Sport, scope ...string) (int, error) {
	if entityID == "" {
		return 0, apperr.Validation("entity_id", "must not be empty")
	}
	if sp == "" {
		return s.cache.InvalidateEntity(entityID), nil
	}
	if !sp.Valid() {
		return 0, apperr.NotFound("sport", string(sp))
	}
	n := s.matches.Invalidate(ctx, entityID, sp, scope...) +
		s.players.Invalidate(ctx, entityID, sp, scope...) +
		s.teams.Invalidate(ctx, entityID, sp, scope...) +
		s.injuries.Invalidate(ctx, entityID, sp, scope...) +
		s.squads.Invalidate(ctx, entityID, sp, squadScope(scope)...)
	return n, nil
}

func squadScope(scope []string) []string {
	if len(scope) == 0 {
		return []string{squadDiscriminator}
	}
	return scope
}

// CacheStats returns per-store cache statistics.
func (s *Service) CacheStats() []cache.Stats { return s.cache.Stats() }

// ClearCache empties every store.
func (s *Service) ClearCache() { s.cache.Clear() }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"sports":         len(s.registry.Sports()),
		"disabledSports": len(s.registry.Disabled()),
		"modelVersion":   s.engine.ModelVersion(),
		"injuryModel":    s.analyzer.ModelVersion(),
		"cache":          s.cache.Stats(),
		"audit":          s.recorder.Stats(),
	}
	if s.asyncPublisher != nil {
		stats["snapshots"] = s.asyncPublisher.Stats()
	}
	return stats
}

// IsRetryable reports whether err might succeed on retry. Validation errors,
// unknown keys and denials never do.
func IsRetryable(err error) bool {
	return err != nil &&
		!errors.Is(err, apperr.ErrValidation) &&
		!errors.Is(err, apperr.ErrNotFound) &&
		!errors.Is(err, apperr.ErrAccessDenied)
}
