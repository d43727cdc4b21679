package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/okian/pitchcast/internal/adapters/http/api"
	"github.com/okian/pitchcast/internal/adapters/snapshot"
	app "github.com/okian/pitchcast/internal/app"
	"github.com/okian/pitchcast/internal/config"
	"github.com/okian/pitchcast/pkg/logger"
	"github.com/okian/pitchcast/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	redisPingTimeout          = 3 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't configured yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithLevel(cfg.LogLevel), logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg, logger.Get()); err != nil {
		logger.Get().Error(ctx, "pitchcast exited", logger.Error(err))
		os.Exit(1)
	}
}

// run wires the service and serves HTTP until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	svc, closeStore, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: api.NewServer(svc,
			api.WithVersion(version),
			api.WithCORSOrigins(cfg.CORSOrigins),
			api.WithLogger(log.Named("http")),
		).Routes(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// buildService translates configuration into service options. Snapshots are
// enabled only when Redis is configured and reachable.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, func(), error) {
	ttls, err := cfg.CacheTTLs()
	if err != nil {
		return nil, nil, err
	}

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithProfileOverrides(cfg.ProfilesPath),
		app.WithModelVersion(cfg.ModelVersion),
		app.WithInjuryModelVersion(cfg.InjuryModelVersion),
		app.WithPlayerThresholds(cfg.Thresholds.PlayerHigh, cfg.Thresholds.PlayerMedium),
		app.WithTeamThresholds(cfg.Thresholds.TeamHigh, cfg.Thresholds.TeamMedium),
		app.WithCacheTTLs(ttls),
		app.WithCacheCapacity(cfg.Cache.Capacity, cfg.Cache.EvictionBatch),
		app.WithSweepInterval(cfg.Cache.SweepInterval),
		app.WithExpiringWindow(cfg.Cache.ExpiringWindow),
		app.WithBatchConcurrency(cfg.BatchConcurrency),
		app.WithAuditBuffer(cfg.Audit.Buffer),
		app.WithSnapshotBuffer(cfg.Snapshot.Buffer),
	}

	closeStore := func() {}
	if cfg.Snapshot.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Snapshot.RedisAddr,
			Password: cfg.Snapshot.RedisPassword,
			DB:       cfg.Snapshot.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn(ctx, "redis unreachable; snapshots disabled",
				logger.String("addr", cfg.Snapshot.RedisAddr), logger.Error(err))
			_ = client.Close()
		} else {
			opts = append(opts, app.WithSnapshotStore(snapshot.NewRedisStore(client, cfg.Snapshot.Prefix)))
			closeStore = func() { _ = client.Close() }
		}
	}

	svc, err := app.New(opts...)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return svc, closeStore, nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes cache gauges from service stats.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics updates service-level metrics.
func updateServiceMetrics(svc *app.Service) {
	for _, st := range svc.CacheStats() {
		metrics.UpdateCacheEntries(st.Name, st.Entries)
	}
	if disabled, ok := svc.GetStats()["disabledSports"].(int); ok {
		metrics.UpdateDisabledSports(disabled)
	}
}
