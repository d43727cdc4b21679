package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/okian/pitchcast/internal/app"
	"github.com/okian/pitchcast/internal/adapters/cache"
	"github.com/okian/pitchcast/internal/domain/sport"
	. "github.com/smartystreets/goconvey/convey"
)

type forecast struct {
	Value   int
	Model   string
	Corrupt bool
}

func (f forecast) Version() string { return f.Model }

func (f forecast) Check() error {
	if f.Corrupt {
		return errors.New("probabilities do not sum to one")
	}
	return nil
}

type request struct {
	Sport sport.Sport
	Value int
}

func TestOrchestrator(t *testing.T) {
	Convey("Given an orchestrator over a fresh store", t, func() {
		store := cache.NewStore[forecast]("orchestrator_test")
		calls := 0
		o := service.NewOrchestrator(cache.KindMatch, store,
			func(sport.Sport) time.Duration { return time.Hour },
			"v2",
			func(r request) sport.Sport { return r.Sport },
			func(_ context.Context, r request) (forecast, error) {
				calls++
				return forecast{Value: r.Value, Model: "v2"}, nil
			},
		)
		ctx := context.Background()
		key := cache.Key("e-1", sport.Cricket)

		Convey("When a result cached under another model version is found", func() {
			store.Set(key, forecast{Value: 1, Model: "v1"}, time.Hour)
			out, err := o.Predict(ctx, "e-1", request{Sport: sport.Cricket, Value: 7}, service.PredictOptions{})

			Convey("Then it is discarded and recomputed", func() {
				So(err, ShouldBeNil)
				So(out.Cached, ShouldBeFalse)
				So(out.Result.Value, ShouldEqual, 7)
				So(calls, ShouldEqual, 1)
				cached, _ := store.Get(key)
				So(cached.Model, ShouldEqual, "v2")
			})
		})

		Convey("When a cached result fails its own check", func() {
			store.Set(key, forecast{Value: 1, Model: "v2", Corrupt: true}, time.Hour)
			out, err := o.Predict(ctx, "e-1", request{Sport: sport.Cricket, Value: 9}, service.PredictOptions{})

			Convey("Then the caller gets a fresh result and no error", func() {
				So(err, ShouldBeNil)
				So(out.Result.Value, ShouldEqual, 9)
				So(out.Result.Corrupt, ShouldBeFalse)
			})
		})

		Convey("When a discriminator scopes the key", func() {
			out, err := o.Predict(ctx, "e-1", request{Sport: sport.Cricket}, service.PredictOptions{Discriminator: "season"})
			So(err, ShouldBeNil)
			So(out.Key, ShouldEqual, "e-1:CRICKET:season")

			Convey("Then scoped invalidation removes it", func() {
				So(o.Invalidate(ctx, "e-1", sport.Cricket), ShouldEqual, 0)
				So(o.Invalidate(ctx, "e-1", sport.Cricket, "season"), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a computation that fails", t, func() {
		store := cache.NewStore[forecast]("orchestrator_fail_test")
		o := service.NewOrchestrator(cache.KindTeam, store,
			func(sport.Sport) time.Duration { return time.Hour },
			"v2",
			func(r request) sport.Sport { return r.Sport },
			func(context.Context, request) (forecast, error) { return forecast{}, errors.New("boom") },
		)
		_, err := o.Predict(context.Background(), "e-2", request{Sport: sport.Hockey}, service.PredictOptions{})
		So(err, ShouldNotBeNil)
		So(service.IsRetryable(err), ShouldBeTrue)
		So(store.Len(), ShouldEqual, 0)
	})
}
