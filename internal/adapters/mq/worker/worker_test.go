package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/pitchcast/internal/adapters/mq/queue"
	"github.com/okian/pitchcast/internal/adapters/mq/worker"
	"github.com/okian/pitchcast/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type snapshot struct {
	Key   string
	Fails bool
}

type recordingHandler struct {
	mu   sync.Mutex
	seen []string
}

func (h *recordingHandler) Handle(_ context.Context, s snapshot) error {
	if s.Fails {
		return errors.New("publish failed")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, s.Key)
	return nil
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker over a queue", t, func() {
		q := queue.NewInMemoryQueue[snapshot](queue.WithCapacity(10), queue.WithName("worker_test"))
		h := &recordingHandler{}
		w := worker.NewInMemoryWorker[snapshot](q, h, worker.WithName("test-worker"), worker.WithLogger(logger.NewNop()))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When items are enqueued", func() {
			q.Enqueue(ctx, snapshot{Key: "m-1:FOOTBALL"})
			q.Enqueue(ctx, snapshot{Key: "bad", Fails: true})
			q.Enqueue(ctx, snapshot{Key: "m-2:RUGBY"})

			convey.Convey("Then successful items are handled and failures skipped", func() {
				convey.So(waitFor(func() bool { return h.count() == 2 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer shutdownCancel()

			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool of three workers", t, func() {
		q := queue.NewInMemoryQueue[snapshot](queue.WithCapacity(100), queue.WithName("pool_test"))
		h := &recordingHandler{}
		pool := worker.NewPool[snapshot](3, q, h, worker.WithName("snapshots"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When items are queued and the pool shuts down", func() {
			for i := 0; i < 50; i++ {
				q.Enqueue(ctx, snapshot{Key: "k", Fails: i%10 == 0})
			}
			err := pool.Shutdown(context.Background())

			convey.Convey("Then every buffered item is drained before return", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(h.count(), convey.ShouldEqual, 45)
				st := pool.Stats()
				convey.So(st.Workers, convey.ShouldEqual, 3)
				convey.So(st.Processed, convey.ShouldEqual, 45)
				convey.So(st.Failed, convey.ShouldEqual, 5)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool with a non-positive count", t, func() {
		q := queue.NewInMemoryQueue[snapshot]()
		pool := worker.NewPool[snapshot](0, q, worker.HandlerFunc[snapshot](func(context.Context, snapshot) error { return nil }))
		convey.So(pool.Stats().Workers, convey.ShouldEqual, 2)
	})
}
