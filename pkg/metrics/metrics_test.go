package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with an isolated registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then every metric registers without collision", func() {
				So(manager, ShouldNotBeNil)
				manager.predictions.WithLabelValues("match", "FOOTBALL", "computed").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				So(families[0].GetName(), ShouldStartWith, "pitchcast_engine_")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names and constant labels follow the options", func() {
				manager.cacheHits.WithLabelValues("match").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				found := false
				for _, f := range families {
					if f.GetName() != "test_namespace_test_subsystem_cache_hits_total" {
						continue
					}
					for _, l := range f.GetMetric()[0].GetLabel() {
						if l.GetName() == "env" && l.GetValue() == "test" {
							found = true
						}
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When predictions are recorded", func() {
			before := testutil.ToFloat64(globalManager.predictions.WithLabelValues("team", "RUGBY", "cached"))
			RecordPrediction("team", "RUGBY", true)
			RecordPrediction("team", "RUGBY", true)

			Convey("Then the cached series grows", func() {
				after := testutil.ToFloat64(globalManager.predictions.WithLabelValues("team", "RUGBY", "cached"))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When cache evictions are recorded", func() {
			before := testutil.ToFloat64(globalManager.cacheEvictions.WithLabelValues("player", "capacity"))
			RecordCacheEvictions("player", "capacity", 3)
			RecordCacheEvictions("player", "capacity", 0)

			Convey("Then only positive counts are added", func() {
				after := testutil.ToFloat64(globalManager.cacheEvictions.WithLabelValues("player", "capacity"))
				So(after-before, ShouldEqual, 3)
			})
		})

		Convey("When gauges are updated", func() {
			UpdateCacheEntries("injury", 42)
			UpdateQueueDepth("audit", 7)
			UpdateDisabledSports(1)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(globalManager.cacheEntries.WithLabelValues("injury")), ShouldEqual, 42)
				So(testutil.ToFloat64(globalManager.queueDepth.WithLabelValues("audit")), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.disabledSports), ShouldEqual, 1)
			})
		})

		Convey("When the remaining recorders are called", func() {
			So(func() {
				RecordPredictionLatency("match", 0.4)
				RecordPredictionError("player", "validation")
				RecordCacheHit("match")
				RecordCacheMiss("match")
				RecordCacheIntegrityFailure("team")
				RecordAccessDecision("VIEW", true)
				RecordAccessDecision("EXPORT", false)
				RecordAuditRecord("written")
				RecordSnapshot("published")
				UpdateQueueCapacity("snapshot", 1024)
				RecordBatchEntity("team_injury", false)
				RecordHTTPRequest("/v1/predictions/match", "POST", 200)
				RecordHTTPRequestDuration("/v1/predictions/match", "POST", 200, 3.2)
				RecordErrorByEndpoint("/v1/predictions/match", "POST", "validation")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("Then the exported registry is the custom one", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}
