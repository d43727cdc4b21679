package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pitchcast/internal/adapters/http/api"
	service "github.com/okian/pitchcast/internal/app"
	"github.com/okian/pitchcast/internal/domain/features"
	"github.com/okian/pitchcast/internal/domain/sport"
	"github.com/okian/pitchcast/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func newTarget(t *testing.T) *httptest.Server {
	t.Helper()
	svc, err := service.New()
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(api.NewServer(svc).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func baseConfig(url string) *Config {
	return &Config{
		BaseURL:  url,
		Requests: 48,
		Passes:   2,
		Workers:  4,
		Timeout:  5 * time.Second,
		Seed:     7,
		UserID:   "load-1",
		Tier:     "PRO",
		Roles:    "ANALYST",
		ClubID:   "club-1",
	}
}

func TestGenerate(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		cfg := baseConfig("http://unused")
		cfg.Sports = []sport.Sport{sport.Rugby, sport.Netball}

		a, err := generate(context.Background(), cfg)
		So(err, ShouldBeNil)
		b, err := generate(context.Background(), cfg)
		So(err, ShouldBeNil)

		Convey("Then requests are reproducible", func() {
			So(a, ShouldResemble, b)
		})

		Convey("Then every kind is covered evenly", func() {
			counts := map[Kind]int{}
			for _, r := range a {
				counts[r.Kind]++
			}
			for _, k := range kinds {
				So(counts[k], ShouldEqual, 12)
			}
		})

		Convey("Then every generated snapshot passes validation", func() {
			for _, r := range a {
				switch body := r.Body.(type) {
				case api.PredictionRequest[features.Match]:
					So(features.Validate(body.Features), ShouldBeNil)
				case api.PredictionRequest[features.Player]:
					So(features.Validate(body.Features), ShouldBeNil)
				case api.PredictionRequest[features.Team]:
					So(features.Validate(body.Features), ShouldBeNil)
				case api.PredictionRequest[features.Workload]:
					So(features.Validate(body.Features), ShouldBeNil)
				}
			}
		})
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := generate(ctx, baseConfig("http://unused"))
		So(err, ShouldNotBeNil)
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running API", t, func() {
		srv := newTarget(t)

		Convey("When two passes are replayed", func() {
			cfg := baseConfig(srv.URL)
			cfg.Output = filepath.Join(t.TempDir(), "reports", "run.json")
			stats, err := Run(context.Background(), cfg)
			So(err, ShouldBeNil)

			Convey("Then every request succeeds and the second pass is cached", func() {
				So(stats.Submitted, ShouldEqual, 96)
				So(stats.Succeeded, ShouldEqual, 96)
				So(stats.Failed+stats.Denied+stats.Invalid, ShouldEqual, 0)
				So(stats.Cached, ShouldEqual, 48)
				So(stats.HitRatio(), ShouldEqual, 0.5)
				So(stats.Latency.Max, ShouldBeGreaterThanOrEqualTo, stats.Latency.P50)
			})

			Convey("Then a report is written", func() {
				data, err := os.ReadFile(cfg.Output)
				So(err, ShouldBeNil)
				var got Stats
				So(json.Unmarshal(data, &got), ShouldBeNil)
				So(got.Submitted, ShouldEqual, 96)
			})
		})

		Convey("When the caller is on the free tier", func() {
			cfg := baseConfig(srv.URL)
			cfg.Tier = "FREE"
			cfg.Passes = 1
			stats, err := Run(context.Background(), cfg)
			So(err, ShouldBeNil)

			Convey("Then only match predictions are allowed", func() {
				So(stats.Succeeded, ShouldEqual, stats.ByKind[KindMatch])
				So(stats.Denied, ShouldEqual, 48-stats.ByKind[KindMatch])
			})
		})
	})

	Convey("Given an unreachable service", t, func() {
		cfg := baseConfig("http://127.0.0.1:1")
		cfg.Timeout = 200 * time.Millisecond
		_, err := Run(context.Background(), cfg)
		So(err, ShouldNotBeNil)
	})

	Convey("Given an invalid configuration", t, func() {
		cfg := baseConfig("http://unused")
		cfg.Workers = 0
		_, err := Run(context.Background(), cfg)
		So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
	})
}

func TestSummarize(t *testing.T) {
	Convey("Given latencies 1ms..100ms", t, func() {
		var ls []time.Duration
		for i := 100; i >= 1; i-- {
			ls = append(ls, time.Duration(i)*time.Millisecond)
		}
		s := summarize(ls)
		So(s.P50, ShouldEqual, 50)
		So(s.P95, ShouldEqual, 95)
		So(s.P99, ShouldEqual, 99)
		So(s.Max, ShouldEqual, 100)
		So(summarize(nil), ShouldResemble, LatencySummary{})
	})
}
