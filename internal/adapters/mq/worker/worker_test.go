package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	queue "github.com/okian/tariffa/internal/adapters/mq/queue"
	worker "github.com/okian/tariffa/internal/adapters/mq/worker"
	model "github.com/okian/tariffa/internal/domain/model"
	logging "github.com/okian/tariffa/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type stubPricer struct {
	mu    sync.Mutex
	calls int
}

// Price keys the outcome off the client id so tests can pick a path per item.
func (s *stubPricer) Price(_ context.Context, req model.CostRequest) (*model.CostResult, decimal.Decimal, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	eight := decimal.NewFromInt(8)
	switch req.ClientID {
	case "missing":
		return nil, eight, nil
	case "invalid":
		return nil, decimal.Zero, model.Invalid("bad range")
	case "down":
		return nil, eight, model.DependencyFailure("rate cards", errors.New("timeout"))
	}
	return &model.CostResult{Multiplier: eight, Rate: model.RateCardEntry{ID: "r1", ClientRate: decimal.NewFromInt(10)}}, eight, nil
}

type memRecorder struct {
	mu    sync.Mutex
	lines map[string]model.Line
	err   error
}

func newMemRecorder() *memRecorder { return &memRecorder{lines: map[string]model.Line{}} }

func (r *memRecorder) Record(_ context.Context, runID string, line model.Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.lines[runID+"/"+line.ItemID] = line
	return nil
}

func (r *memRecorder) get(key string) (model.Line, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lines[key]
	return l, ok
}

func (r *memRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}

func job(item, client string) model.Job {
	return model.Job{RunID: "run", Item: model.Item{ID: item, Request: model.CostRequest{Kind: model.KindCoverage, ClientID: client}}}
}

func TestInMemoryWorker(t *testing.T) {
	_ = logging.Init()

	convey.Convey("Given a worker over a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		pricer := &stubPricer{}
		rec := newMemRecorder()
		w := worker.NewInMemoryWorker(q, pricer, rec, worker.WithName("test"), worker.WithJobTimeout(time.Second))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When jobs with every outcome are processed", func() {
			for _, j := range []model.Job{
				job("a", "ok"),
				job("b", "missing"),
				job("c", "invalid"),
				job("d", "down"),
				{RunID: "run", Item: model.Item{ID: "e", Reject: model.Invalid("unknown kind")}},
			} {
				convey.So(q.Enqueue(ctx, j), convey.ShouldBeNil)
			}
			convey.So(q.Close(), convey.ShouldBeNil)
			<-w.Done()

			convey.Convey("Then each line gets its status", func() {
				a, _ := rec.get("run/a")
				convey.So(a.Status, convey.ShouldEqual, model.StatusPriced)
				convey.So(a.Result.Amount().String(), convey.ShouldEqual, "80")

				b, _ := rec.get("run/b")
				convey.So(b.Status, convey.ShouldEqual, model.StatusMissingTariff)
				convey.So(b.Multiplier.String(), convey.ShouldEqual, "8")

				c, _ := rec.get("run/c")
				convey.So(c.Status, convey.ShouldEqual, model.StatusInvalid)

				d, _ := rec.get("run/d")
				convey.So(d.Status, convey.ShouldEqual, model.StatusError)
				convey.So(d.Error, convey.ShouldContainSubstring, "timeout")

				e, _ := rec.get("run/e")
				convey.So(e.Status, convey.ShouldEqual, model.StatusInvalid)
				convey.So(pricer.calls, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When shut down", func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
			defer done()

			convey.Convey("Then it stops and a second call is harmless", func() {
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a worker stopped before it runs with jobs still queued", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		pricer := &stubPricer{}
		rec := newMemRecorder()
		w := worker.NewInMemoryWorker(q, pricer, rec)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		for i := 0; i < 3; i++ {
			convey.So(q.Enqueue(ctx, job(fmt.Sprintf("late-%d", i), "ok")), convey.ShouldBeNil)
		}

		stopCtx, done := context.WithTimeout(ctx, 10*time.Millisecond)
		defer done()
		convey.So(w.Shutdown(stopCtx), convey.ShouldNotBeNil)

		w.Run(ctx)

		convey.Convey("Then the backlog is left untouched", func() {
			convey.So(rec.count(), convey.ShouldEqual, 0)
			convey.So(pricer.calls, convey.ShouldEqual, 0)
		})
	})

	convey.Convey("Given a recorder that fails", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(1))
		rec := newMemRecorder()
		rec.err = errors.New("store closed")
		w := worker.NewInMemoryWorker(q, &stubPricer{}, rec)

		go w.Run(context.Background())
		_ = q.Enqueue(context.Background(), job("a", "ok"))
		_ = q.Close()
		<-w.Done()

		convey.Convey("Then the worker keeps going and nothing is recorded", func() {
			convey.So(rec.count(), convey.ShouldEqual, 0)
		})
	})
}

func TestWorkerPool(t *testing.T) {
	_ = logging.Init()

	convey.Convey("Given a pool of workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(1000))
		rec := newMemRecorder()
		pool := worker.NewPool(4, q, &stubPricer{}, rec)
		convey.So(pool.Size(), convey.ShouldEqual, 4)

		ctx := context.Background()
		pool.Start(ctx)

		convey.Convey("When many jobs are queued and the pool shuts down", func() {
			for i := 0; i < 200; i++ {
				convey.So(q.Enqueue(ctx, job(fmt.Sprintf("item-%03d", i), "ok")), convey.ShouldBeNil)
			}
			err := pool.Shutdown(ctx)

			convey.Convey("Then every job is drained", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.count(), convey.ShouldEqual, 200)
			})
		})

		convey.Convey("When stopped without draining", func() {
			stopCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			pool.Stop(stopCtx)

			convey.Convey("Then enqueue still works until the queue is closed", func() {
				convey.So(q.Enqueue(ctx, job("late", "ok")), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a non-positive worker count", t, func() {
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), &stubPricer{}, newMemRecorder())

		convey.Convey("Then a CPU-based default is used", func() {
			convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
		})
	})
}
