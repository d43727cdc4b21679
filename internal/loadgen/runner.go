package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/pitchcast/pkg/logger"
)

const (
	workerChannelMultiplier = 2
	directoryPermission     = 0o750
	filePermission          = 0o600
	reportInterval          = time.Second
)

// ErrInvalidConfig is returned when a run cannot start.
var ErrInvalidConfig = errors.New("invalid load configuration")

func (c *Config) validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	case c.Requests <= 0:
		return fmt.Errorf("%w: requests must be positive", ErrInvalidConfig)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.UserID == "":
		return fmt.Errorf("%w: user id is required", ErrInvalidConfig)
	}
	if c.Passes <= 0 {
		c.Passes = 1
	}
	return nil
}

// Run generates requests, replays them cfg.Passes times and returns the stats.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := logger.Get().Named("loadgen")
	stats := &Stats{StartTime: time.Now(), ByKind: map[Kind]int{}}

	log.Info(ctx, "starting pitchcast load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("passes", cfg.Passes),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	c := newClient(cfg)
	if err := c.health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	reqs, err := generate(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("request generation failed: %w", err)
	}
	stats.Generated = len(reqs)
	for _, r := range reqs {
		stats.ByKind[r.Kind]++
	}

	latencies := make([]time.Duration, 0, len(reqs)*cfg.Passes)
	for pass := 1; pass <= cfg.Passes; pass++ {
		l, err := submit(ctx, cfg, c, reqs, stats, log)
		latencies = append(latencies, l...)
		if err != nil {
			return stats, fmt.Errorf("pass %d: %w", pass, err)
		}
		log.Info(ctx, "pass completed", logger.Int("pass", pass),
			logger.Int("succeeded", stats.Succeeded), logger.Int("cached", stats.Cached))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	stats.Latency = summarize(latencies)

	if cfg.Output != "" {
		if err := writeReport(cfg.Output, stats); err != nil {
			log.Warn(ctx, "failed to write report", logger.String("path", cfg.Output), logger.Error(err))
		}
	}
	logStats(ctx, log, stats)
	return stats, nil
}

// submit fans reqs out over cfg.Workers workers.
func submit(ctx context.Context, cfg *Config, c *client, reqs []Request, stats *Stats, log logger.Logger) ([]time.Duration, error) {
	var (
		submitted, fresh, cached, denied, invalid, failed atomic.Int64
		lastReport                                        atomic.Int64
	)
	latencies := make([]time.Duration, len(reqs))
	jobs := make(chan int, cfg.Workers*workerChannelMultiplier)

	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				res, elapsed := c.predict(ctx, reqs[i])
				latencies[i] = elapsed
				submitted.Add(1)
				switch res {
				case outcomeFresh:
					fresh.Add(1)
				case outcomeCached:
					cached.Add(1)
				case outcomeDenied:
					denied.Add(1)
				case outcomeInvalid:
					invalid.Add(1)
				default:
					failed.Add(1)
				}

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if cfg.Verbose && now-last >= int64(reportInterval) && lastReport.CompareAndSwap(last, now) {
					log.Info(ctx, "progress",
						logger.Int("submitted", int(submitted.Load())),
						logger.Int("total", len(reqs)),
						logger.Int("failed", int(failed.Load())))
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range reqs {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()

	stats.Submitted += int(submitted.Load())
	stats.Succeeded += int(fresh.Load() + cached.Load())
	stats.Cached += int(cached.Load())
	stats.Denied += int(denied.Load())
	stats.Invalid += int(invalid.Load())
	stats.Failed += int(failed.Load())

	if err := ctx.Err(); err != nil {
		return latencies[:0], err
	}
	return latencies, nil
}

// summarize computes latency percentiles in milliseconds.
func summarize(latencies []time.Duration) LatencySummary {
	if len(latencies) == 0 {
		return LatencySummary{}
	}
	sorted := slices.Clone(latencies)
	slices.Sort(sorted)
	at := func(q float64) float64 {
		idx := int(math.Ceil(q*float64(len(sorted)))) - 1
		idx = max(0, min(idx, len(sorted)-1))
		return float64(sorted[idx].Microseconds()) / 1000
	}
	return LatencySummary{P50: at(0.50), P95: at(0.95), P99: at(0.99), Max: at(1)}
}

func writeReport(path string, stats *Stats) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), filePermission)
}

func logStats(ctx context.Context, log logger.Logger, stats *Stats) {
	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("cached", stats.Cached),
		logger.Int("denied", stats.Denied),
		logger.Int("invalid", stats.Invalid),
		logger.Int("failed", stats.Failed),
		logger.Float64("hitRatio", stats.HitRatio()),
		logger.Float64("requestsPerSecond", stats.RequestsPerSecond()),
		logger.Float64("p95ms", stats.Latency.P95),
		logger.Duration("duration", stats.Duration))
}
