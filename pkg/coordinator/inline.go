package coordinator

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jespino/bookmap/pkg/layout"
)

type inlineJob struct {
	id    RequestID
	items []layout.Item
	done  func(Result)
}

// Inline runs jobs one at a time on a single loop goroutine that plays the
// role of the caller's own execution context.
//
// Dispatch only queues the job, so the coordinator publishes Computing
// before any work starts. A running job cannot be interrupted: its cancel
// func is a no-op and a superseded result is dropped by the coordinator at
// commit time. Newer jobs therefore wait behind a stale computation, and a
// large batch keeps the loop busy for its full duration.
type Inline struct {
	computer layout.Computer
	logger   zerolog.Logger

	mu      sync.Mutex
	pending []inlineJob

	wake      chan struct{}
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

func NewInline(computer layout.Computer, logger zerolog.Logger) *Inline {
	in := &Inline{
		computer: computer,
		logger:   logger.With().Str("component", "executor").Str("mode", string(ModeInline)).Logger(),
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go in.loop()
	return in
}

func (in *Inline) Dispatch(id RequestID, items []layout.Item, done func(Result)) func() {
	in.mu.Lock()
	in.pending = append(in.pending, inlineJob{id: id, items: items, done: done})
	in.mu.Unlock()

	select {
	case in.wake <- struct{}{}:
	default:
	}
	return func() {}
}

func (in *Inline) next() (inlineJob, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.pending) == 0 {
		return inlineJob{}, false
	}
	job := in.pending[0]
	in.pending = in.pending[1:]
	return job, true
}

// Pending reports how many jobs are queued behind the running one.
func (in *Inline) Pending() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.pending)
}

func (in *Inline) loop() {
	defer close(in.stopped)
	for {
		select {
		case <-in.quit:
			return
		case <-in.wake:
		}

		for {
			select {
			case <-in.quit:
				return
			default:
			}

			job, ok := in.next()
			if !ok {
				break
			}
			in.logger.Debug().Uint64("request", uint64(job.id)).Int("items", len(job.items)).Msg("running job")
			coords, err := in.computer.Compute(context.Background(), job.items)
			job.done(Result{RequestID: job.id, Coords: coords, Err: err})
		}
	}
}

func (in *Inline) Mode() Mode {
	return ModeInline
}

// Close stops the loop after the running job, if any, finishes. Queued jobs
// are dropped.
func (in *Inline) Close() error {
	in.closeOnce.Do(func() {
		close(in.quit)
	})
	<-in.stopped
	return nil
}
