package service_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	service "github.com/okian/pitchcast/internal/app"
	"github.com/okian/pitchcast/internal/adapters/cache"
	"github.com/okian/pitchcast/internal/adapters/snapshot"
	"github.com/okian/pitchcast/internal/domain/access"
	"github.com/okian/pitchcast/internal/domain/apperr"
	"github.com/okian/pitchcast/internal/domain/features"
	"github.com/okian/pitchcast/internal/domain/injury"
	"github.com/okian/pitchcast/internal/domain/sport"
	"github.com/okian/pitchcast/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memoryStore struct {
	mu    sync.Mutex
	snaps []snapshot.Snapshot
}

func (m *memoryStore) Write(_ context.Context, s snapshot.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps = append(m.snaps, s)
	return nil
}

func (m *memoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snaps)
}

func match() features.Match {
	return features.Match{
		MatchID:          "m-1",
		Sport:            sport.Football,
		HomeTeamID:       "home",
		AwayTeamID:       "away",
		HomeForm:         70,
		AwayForm:         40,
		HomeSquadRating:  65,
		AwaySquadRating:  55,
		HomeAvailability: 90,
		AwayAvailability: 85,
	}
}

func workload(id string) features.Workload {
	return features.Workload{
		PlayerID:       id,
		Sport:          sport.Football,
		Position:       "MIDFIELDER",
		Last7dMinutes:  270,
		Last28dMinutes: 1080,
		Fatigue:        40,
		FitnessScore:   80,
		SleepHours:     8,
		Age:            24,
		MatchesSampled: 12,
	}
}

func newService(clock *fakeClock, opts ...service.Option) *service.Service {
	svc, err := service.New(append([]service.Option{service.WithClock(clock.Now)}, opts...)...)
	So(err, ShouldBeNil)
	return svc
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc, err := service.New()

		Convey("Then every sport is enabled", func() {
			So(err, ShouldBeNil)
			So(svc, ShouldNotBeNil)
			So(len(svc.Registry().Sports()), ShouldEqual, len(sport.All()))
			So(svc.Gate(), ShouldNotBeNil)
		})
	})

	Convey("Given a service with a missing overrides file", t, func() {
		_, err := service.New(service.WithProfileOverrides("/does/not/exist.yaml"))
		So(err, ShouldNotBeNil)
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc, err := service.New(service.WithSweepInterval(10 * time.Millisecond))
		So(err, ShouldBeNil)

		Convey("When starting the service", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Start(context.Background()), ShouldBeNil)

			Convey("Then it reports itself as started until stopped", func() {
				So(svc.GetStats()["started"], ShouldBeTrue)
				svc.Stop()
				So(svc.GetStats()["started"], ShouldBeFalse)
				svc.Stop()
			})
		})
	})
}

func TestService_PredictMatch(t *testing.T) {
	Convey("Given a running service", t, func() {
		clock := &fakeClock{now: time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC)}
		svc := newService(clock)
		ctx := context.Background()

		Convey("When the same fixture is requested twice", func() {
			first, err := svc.PredictMatch(ctx, match(), service.PredictOptions{})
			So(err, ShouldBeNil)
			second, err := svc.PredictMatch(ctx, match(), service.PredictOptions{})
			So(err, ShouldBeNil)

			Convey("Then the second answer is the cached first one", func() {
				So(first.Cached, ShouldBeFalse)
				So(second.Cached, ShouldBeTrue)
				So(second.Key, ShouldEqual, "m-1:FOOTBALL")
				So(second.Result, ShouldResemble, first.Result)
			})

			Convey("Then a forced refresh recomputes", func() {
				clock.Advance(time.Minute)
				fresh, err := svc.PredictMatch(ctx, match(), service.PredictOptions{ForceRefresh: true})
				So(err, ShouldBeNil)
				So(fresh.Cached, ShouldBeFalse)
				So(fresh.Result.GeneratedAt.After(first.Result.GeneratedAt), ShouldBeTrue)
			})

			Convey("Then the entry expires with its time to live", func() {
				clock.Advance(4*time.Hour + time.Second)
				again, err := svc.PredictMatch(ctx, match(), service.PredictOptions{})
				So(err, ShouldBeNil)
				So(again.Cached, ShouldBeFalse)
			})

			Convey("Then invalidation forces the next call to compute", func() {
				n, err := svc.Invalidate(ctx, "m-1", sport.Football)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
				again, _ := svc.PredictMatch(ctx, match(), service.PredictOptions{})
				So(again.Cached, ShouldBeFalse)
			})
		})

		Convey("When the features are invalid", func() {
			m := match()
			m.HomeForm = 500
			_, err := svc.PredictMatch(ctx, m, service.PredictOptions{})

			Convey("Then a validation error surfaces and nothing is cached", func() {
				So(errors.Is(err, apperr.ErrValidation), ShouldBeTrue)
				So(service.IsRetryable(err), ShouldBeFalse)
				So(svc.CacheStats()[0].Entries, ShouldEqual, 0)
			})
		})
	})
}

func TestService_Invalidate(t *testing.T) {
	Convey("Given cached results for a player", t, func() {
		clock := &fakeClock{now: time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC)}
		svc := newService(clock)
		ctx := context.Background()

		_, err := svc.AssessInjury(ctx, workload("p-1"), service.PredictOptions{})
		So(err, ShouldBeNil)
		_, err = svc.AssessInjury(ctx, workload("p-2"), service.PredictOptions{})
		So(err, ShouldBeNil)

		Convey("When invalidated without a sport", func() {
			n, err := svc.Invalidate(ctx, "p-1", "")

			Convey("Then only that entity is cleared", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
				again, _ := svc.AssessInjury(ctx, workload("p-2"), service.PredictOptions{})
				So(again.Cached, ShouldBeTrue)
			})
		})

		Convey("When invalidated with bad arguments", func() {
			_, err := svc.Invalidate(ctx, "", sport.Football)
			So(errors.Is(err, apperr.ErrValidation), ShouldBeTrue)
			_, err = svc.Invalidate(ctx, "p-1", sport.Sport("CURLING"))
			So(errors.Is(err, apperr.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_SquadInjuryRisk(t *testing.T) {
	Convey("Given a squad with one healthy player and two bad entries", t, func() {
		clock := &fakeClock{now: time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC)}
		svc := newService(clock, service.WithBatchConcurrency(2))
		ctx := context.Background()

		bad := workload("p-2")
		bad.Fatigue = 150
		wrongSport := workload("p-3")
		wrongSport.Sport = sport.Rugby

		q := service.Squad{
			TeamID:  "team-1",
			Sport:   sport.Football,
			Players: []features.Workload{workload("p-1"), bad, wrongSport},
		}

		Convey("When the squad is assessed", func() {
			out, err := svc.SquadInjuryRisk(ctx, q, service.PredictOptions{})

			Convey("Then failures are isolated per player", func() {
				So(err, ShouldBeNil)
				So(out.Key, ShouldEqual, "team-1:FOOTBALL:squad")
				So(len(out.Result.Players), ShouldEqual, 1)
				So(len(out.Result.Failures), ShouldEqual, 2)
				So(out.Result.Check(), ShouldBeNil)
				So(out.Result.TierCounts[injury.TierLow]+out.Result.TierCounts[injury.TierModerate], ShouldEqual, 1)
			})

			Convey("Then the squad summary and member assessments are cached", func() {
				again, err := svc.SquadInjuryRisk(ctx, q, service.PredictOptions{})
				So(err, ShouldBeNil)
				So(again.Cached, ShouldBeTrue)
				member, err := svc.AssessInjury(ctx, workload("p-1"), service.PredictOptions{})
				So(err, ShouldBeNil)
				So(member.Cached, ShouldBeTrue)
			})

			Convey("Then invalidating the team without a scope drops the report", func() {
				n, err := svc.Invalidate(ctx, "team-1", sport.Football)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
				again, err := svc.SquadInjuryRisk(ctx, q, service.PredictOptions{})
				So(err, ShouldBeNil)
				So(again.Cached, ShouldBeFalse)
			})
		})

		Convey("When the team id or sport is missing", func() {
			_, err := svc.SquadInjuryRisk(ctx, service.Squad{Sport: sport.Football}, service.PredictOptions{})
			So(errors.Is(err, apperr.ErrValidation), ShouldBeTrue)
			_, err = svc.SquadInjuryRisk(ctx, service.Squad{TeamID: "t", Sport: "CURLING"}, service.PredictOptions{})
			So(errors.Is(err, apperr.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_Maintain(t *testing.T) {
	Convey("Given a service with a refresh hook", t, func() {
		clock := &fakeClock{now: time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC)}
		var due []cache.Expiring
		svc := newService(clock,
			service.WithExpiringWindow(time.Hour),
			service.WithRefreshHook(func(_ context.Context, d []cache.Expiring) { due = d }),
		)
		ctx := context.Background()

		_, err := svc.PredictMatch(ctx, match(), service.PredictOptions{})
		So(err, ShouldBeNil)
		_, err = svc.AssessInjury(ctx, workload("p-1"), service.PredictOptions{})
		So(err, ShouldBeNil)

		Convey("When the match result nears expiry", func() {
			clock.Advance(3*time.Hour + 30*time.Minute)
			removed, soon := svc.Maintain(ctx)

			Convey("Then the hook receives it", func() {
				So(removed, ShouldEqual, 0)
				So(len(soon), ShouldEqual, 1)
				So(len(due), ShouldEqual, 1)
				So(due[0].Kind, ShouldEqual, cache.KindMatch)
				So(due[0].Key, ShouldEqual, "m-1:FOOTBALL")
			})
		})

		Convey("When both results are past expiry", func() {
			clock.Advance(7 * time.Hour)
			removed, _ := svc.Maintain(ctx)
			So(removed, ShouldEqual, 2)
		})
	})
}

func TestService_Snapshots(t *testing.T) {
	Convey("Given a service with a snapshot store", t, func() {
		store := &memoryStore{}
		svc, err := service.New(service.WithSnapshotStore(store))
		So(err, ShouldBeNil)
		So(svc.Start(context.Background()), ShouldBeNil)

		Convey("When a fresh and a cached prediction are served", func() {
			_, err := svc.PredictMatch(context.Background(), match(), service.PredictOptions{})
			So(err, ShouldBeNil)
			_, err = svc.PredictMatch(context.Background(), match(), service.PredictOptions{})
			So(err, ShouldBeNil)
			svc.Stop()

			Convey("Then only the fresh one is snapshotted", func() {
				So(store.Len(), ShouldEqual, 1)
				So(svc.GetStats(), ShouldContainKey, "snapshots")
			})
		})
	})
}

type slowSink struct {
	mu      sync.Mutex
	written int
}

func (s *slowSink) Write(_ context.Context, _ access.AuditRecord) error {
	time.Sleep(time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written++
	return nil
}

func (s *slowSink) Written() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

func TestService_StopDrainsAfterCancel(t *testing.T) {
	Convey("Given a service started on a context that is later cancelled", t, func() {
		sink := &slowSink{}
		store := &memoryStore{}
		svc, err := service.New(
			service.WithAuditSink(sink),
			service.WithAuditBuffer(1000),
			service.WithSnapshotStore(store),
			service.WithSnapshotBuffer(100),
		)
		So(err, ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		So(svc.Start(ctx), ShouldBeNil)

		caller := access.Context{UserID: "u-1", Roles: []access.Role{access.RoleAnalyst}, Tier: access.TierPro}
		const decisions = 400
		for i := 0; i < decisions; i++ {
			_ = svc.Gate().Check(ctx, caller, "e-"+strconv.Itoa(i), access.CanCreate(caller))
		}
		for i := 0; i < 20; i++ {
			m := match()
			m.MatchID = "m-" + strconv.Itoa(i)
			_, err := svc.PredictMatch(ctx, m, service.PredictOptions{})
			So(err, ShouldBeNil)
		}

		Convey("When the context is cancelled before Stop", func() {
			cancel()
			svc.Stop()

			Convey("Then every buffered audit record and snapshot is written", func() {
				So(sink.Written(), ShouldEqual, decisions)
				So(store.Len(), ShouldEqual, 20)
			})
		})
	})
}
