// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/pitchcast/internal/adapters/cache"
	"github.com/okian/pitchcast/internal/domain/sport"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects json or console output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CORSOrigins lists allowed browser origins; empty allows none.
	CORSOrigins []string `koanf:"cors_origins"`

	// ModelVersion stamps match, player and team predictions.
	ModelVersion string `koanf:"model_version"`

	// InjuryModelVersion stamps injury assessments.
	InjuryModelVersion string `koanf:"injury_model_version"`

	// ProfilesPath points to a YAML file of sport profile overrides.
	ProfilesPath string `koanf:"profiles_path"`

	// BatchConcurrency bounds parallel work in squad sweeps.
	BatchConcurrency int `koanf:"batch_concurrency"`

	Cache      CacheConfig      `koanf:"cache"`
	Thresholds ThresholdsConfig `koanf:"thresholds"`
	Audit      AuditConfig      `koanf:"audit"`
	Snapshot   SnapshotConfig   `koanf:"snapshot"`
}

// CacheConfig sizes the result cache.
type CacheConfig struct {
	MatchTTL          time.Duration `koanf:"match_ttl"`
	PlayerTTL         time.Duration `koanf:"player_ttl"`
	TeamTTL           time.Duration `koanf:"team_ttl"`
	InjuryTTL         time.Duration `koanf:"injury_ttl"`
	RecommendationTTL time.Duration `koanf:"recommendation_ttl"`

	// SportTTLs overrides lifetimes per sport then result kind,
	// e.g. cricket.match: 10h.
	SportTTLs map[string]map[string]time.Duration `koanf:"sport_ttls"`

	Capacity       int           `koanf:"capacity"`
	EvictionBatch  int           `koanf:"eviction_batch"`
	SweepInterval  time.Duration `koanf:"sweep_interval"`
	ExpiringWindow time.Duration `koanf:"expiring_window"`
}

// ThresholdsConfig sets confidence sample thresholds.
type ThresholdsConfig struct {
	PlayerHigh   int `koanf:"player_high"`
	PlayerMedium int `koanf:"player_medium"`
	TeamHigh     int `koanf:"team_high"`
	TeamMedium   int `koanf:"team_medium"`
}

// AuditConfig bounds the access audit pipeline.
type AuditConfig struct {
	Buffer int `koanf:"buffer"`
}

// SnapshotConfig enables Redis snapshots when RedisAddr is set.
type SnapshotConfig struct {
	Buffer        int    `koanf:"buffer"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	Prefix        string `koanf:"prefix"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	ttls := cache.DefaultTTLs()
	return &Config{
		LogLevel:           "info",
		LogFormat:          "json",
		Addr:               ":9080",
		ModelVersion:       "pitchcast-heuristic-2.1",
		InjuryModelVersion: "pitchcast-injury-1.4",
		BatchConcurrency:   8,
		Cache: CacheConfig{
			MatchTTL:          ttls.Match,
			PlayerTTL:         ttls.Player,
			TeamTTL:           ttls.Team,
			InjuryTTL:         ttls.Injury,
			RecommendationTTL: ttls.Recommendation,
			Capacity:          5000,
			EvictionBatch:     50,
			SweepInterval:     time.Minute,
			ExpiringWindow:    15 * time.Minute,
		},
		Thresholds: ThresholdsConfig{
			PlayerHigh:   20,
			PlayerMedium: 10,
			TeamHigh:     15,
			TeamMedium:   6,
		},
		Audit:    AuditConfig{Buffer: 4096},
		Snapshot: SnapshotConfig{Buffer: 1024, Prefix: "pitchcast:snapshot:"},
	}
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "json" && c.LogFormat != "console":
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	case c.Cache.Capacity <= 0:
		return fmt.Errorf("%w: cache.capacity must be positive", ErrInvalidConfig)
	case c.Cache.EvictionBatch <= 0:
		return fmt.Errorf("%w: cache.eviction_batch must be positive", ErrInvalidConfig)
	case c.Cache.SweepInterval <= 0:
		return fmt.Errorf("%w: cache.sweep_interval must be positive", ErrInvalidConfig)
	case c.Thresholds.PlayerMedium > c.Thresholds.PlayerHigh:
		return fmt.Errorf("%w: player thresholds medium > high", ErrInvalidConfig)
	case c.Thresholds.TeamMedium > c.Thresholds.TeamHigh:
		return fmt.Errorf("%w: team thresholds medium > high", ErrInvalidConfig)
	case c.BatchConcurrency <= 0:
		return fmt.Errorf("%w: batch_concurrency must be positive", ErrInvalidConfig)
	}
	if _, err := c.CacheTTLs(); err != nil {
		return err
	}
	return nil
}

// CacheTTLs converts the cache section into resolved lifetimes.
func (c *Config) CacheTTLs() (cache.TTLs, error) {
	t := cache.TTLs{
		Match:          c.Cache.MatchTTL,
		Player:         c.Cache.PlayerTTL,
		Team:           c.Cache.TeamTTL,
		Injury:         c.Cache.InjuryTTL,
		Recommendation: c.Cache.RecommendationTTL,
	}
	if len(c.Cache.SportTTLs) == 0 {
		return t, nil
	}
	t.Sport = make(map[sport.Sport]map[cache.Kind]time.Duration, len(c.Cache.SportTTLs))
	for rawSport, kinds := range c.Cache.SportTTLs {
		s, err := sport.Parse(rawSport)
		if err != nil {
			return cache.TTLs{}, fmt.Errorf("%w: cache.sport_ttls: %w", ErrInvalidConfig, err)
		}
		byKind := make(map[cache.Kind]time.Duration, len(kinds))
		for rawKind, d := range kinds {
			k := cache.Kind(rawKind)
			if !k.Valid() {
				return cache.TTLs{}, fmt.Errorf("%w: cache.sport_ttls.%s: unknown kind %q", ErrInvalidConfig, rawSport, rawKind)
			}
			if d <= 0 {
				return cache.TTLs{}, fmt.Errorf("%w: cache.sport_ttls.%s.%s must be positive", ErrInvalidConfig, rawSport, rawKind)
			}
			byKind[k] = d
		}
		t.Sport[s] = byKind
	}
	return t, nil
}
