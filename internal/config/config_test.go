package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/pitchcast/internal/adapters/cache"
	"github.com/okian/pitchcast/internal/config"
	"github.com/okian/pitchcast/internal/domain/sport"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			convey.So(cfg.Cache.MatchTTL, convey.ShouldEqual, 4*time.Hour)
			convey.So(cfg.Cache.RecommendationTTL, convey.ShouldEqual, 24*time.Hour)
			convey.So(cfg.Cache.Capacity, convey.ShouldEqual, 5000)
			convey.So(cfg.Thresholds.PlayerHigh, convey.ShouldEqual, 20)
			convey.So(cfg.Thresholds.TeamMedium, convey.ShouldEqual, 6)
			convey.So(cfg.Snapshot.RedisAddr, convey.ShouldBeEmpty)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with unusable settings", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":         func(c *config.Config) { c.Addr = "" },
			"unknown log format": func(c *config.Config) { c.LogFormat = "xml" },
			"zero capacity":      func(c *config.Config) { c.Cache.Capacity = 0 },
			"inverted player":    func(c *config.Config) { c.Thresholds.PlayerMedium = 30 },
			"zero concurrency":   func(c *config.Config) { c.BatchConcurrency = 0 },
			"unknown sport ttl": func(c *config.Config) {
				c.Cache.SportTTLs = map[string]map[string]time.Duration{"curling": {"match": time.Hour}}
			},
			"unknown kind ttl": func(c *config.Config) {
				c.Cache.SportTTLs = map[string]map[string]time.Duration{"cricket": {"season": time.Hour}}
			},
		}
		for name, mutate := range cases {
			cfg := config.New(context.Background())
			mutate(cfg)
			convey.Convey("Then "+name+" is rejected", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}

func TestConfig_CacheTTLs(t *testing.T) {
	convey.Convey("Given a per-sport override", t, func() {
		cfg := config.New(context.Background())
		cfg.Cache.SportTTLs = map[string]map[string]time.Duration{
			"cricket": {"match": 10 * time.Hour},
		}

		ttls, err := cfg.CacheTTLs()

		convey.Convey("Then it resolves to the sport and kind keys", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(ttls.Match, convey.ShouldEqual, 4*time.Hour)
			convey.So(ttls.For(cache.KindMatch, sport.Cricket), convey.ShouldEqual, 10*time.Hour)
			convey.So(ttls.For(cache.KindMatch, sport.Rugby), convey.ShouldEqual, 4*time.Hour)
		})
	})
}
