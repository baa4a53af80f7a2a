package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/simulot/aspiravod/mylog"
)

// WorkItem is an interface to work item used by the Workers
type WorkItem interface {
	Run(ctx context.Context) error
	Name() string
}

// WorkerPool is a pool of workers.
type WorkerPool struct {
	ctx      context.Context
	submit   chan WorkItem  // Send work items to this channel, one of workers will run it
	workerg  sync.WaitGroup // To wait completion of all workers
	nbWorker int            // The number of concurrent workers
	log      *mylog.MyLog

	mu   sync.Mutex
	errs []error
}

// WithLogger sets the logger of the pool
func WithLogger(l *mylog.MyLog) func(w *WorkerPool) {
	return func(w *WorkerPool) {
		w.log = l
	}
}

// New creates a new worker pool with n running workers.
// Work items are given the context, they are skipped once it is done.
func New(ctx context.Context, n int, conf ...func(w *WorkerPool)) *WorkerPool {
	if n < 1 {
		n = 1
	}
	w := &WorkerPool{
		ctx:      ctx,
		submit:   make(chan WorkItem),
		nbWorker: n,
	}
	for _, fn := range conf {
		fn(w)
	}
	w.init()
	return w
}

// init creates a goroutine for each worker
func (w *WorkerPool) init() *WorkerPool {
	for i := 0; i < w.nbWorker; i++ {
		w.workerg.Add(1)
		go w.newWorker(i)
	}
	return w
}

// Stop waits the end of submitted items and returns their errors
func (w *WorkerPool) Stop() error {
	close(w.submit)
	w.workerg.Wait()
	w.log.Debug().Printf("[WORKERS] Workerpool is ended")
	w.mu.Lock()
	defer w.mu.Unlock()
	return errors.Join(w.errs...)
}

// Submit a work item to the worker pool. It waits for an idle worker.
func (w *WorkerPool) Submit(wi WorkItem) error {
	w.log.Debug().Printf("[WORKERS] Submit work: %s", wi.Name())
	select {
	case w.submit <- wi:
		return nil
	case <-w.ctx.Done():
		err := fmt.Errorf("%s: %w", wi.Name(), context.Cause(w.ctx))
		w.fail(err)
		return err
	}
}

func (w *WorkerPool) fail(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errs = append(w.errs, err)
}

// newWorker initializes a worker
func (w *WorkerPool) newWorker(id int) {
	defer w.workerg.Done()
	w.log.Debug().Printf("[WORKERS] Initializing worker %d", id)
	for i := range w.submit {
		if w.ctx.Err() != nil {
			w.fail(fmt.Errorf("%s: %w", i.Name(), context.Cause(w.ctx)))
			continue
		}
		t := time.Now()
		err := i.Run(w.ctx)
		if err == nil {
			w.log.Info().Printf("[WORKERS] Done  [%d]: %s (%s)", id, i.Name(), time.Since(t).Round(100*time.Millisecond))
		} else {
			w.log.Info().Printf("[WORKERS] Fail  [%d]: %s with error (%v)", id, i.Name(), err)
			w.fail(err)
		}
	}
	w.log.Debug().Printf("[WORKERS] Worker %d is ended", id)
}

// RunAction is an helper to submit a work to the worker pool
type RunAction struct {
	name string
	fn   func(ctx context.Context) error
}

// NewRunAction creates a work item out of a name and a function
func NewRunAction(n string, fn func(ctx context.Context) error) RunAction {
	return RunAction{name: n, fn: fn}
}

// Name returns the names of the work
func (r RunAction) Name() string {
	return r.name
}

// Run invoke the function
func (r RunAction) Run(ctx context.Context) error {
	return r.fn(ctx)
}
