package workers

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool(t *testing.T) {
	for _, n := range []int{0, 1, 3} {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			w := New(context.Background(), n)
			var done, running, maxRunning int32
			for i := 0; i < 8; i++ {
				err := w.Submit(NewRunAction("test_"+strconv.Itoa(i), func(ctx context.Context) error {
					r := atomic.AddInt32(&running, 1)
					for {
						m := atomic.LoadInt32(&maxRunning)
						if r <= m || atomic.CompareAndSwapInt32(&maxRunning, m, r) {
							break
						}
					}
					time.Sleep(20 * time.Millisecond)
					atomic.AddInt32(&running, -1)
					atomic.AddInt32(&done, 1)
					return nil
				}))
				if err != nil {
					t.Fatal(err)
				}
			}
			if err := w.Stop(); err != nil {
				t.Errorf("unexpected error %s", err)
			}
			if done != 8 {
				t.Errorf("%d items done, want 8", done)
			}
			limit := int32(max(n, 1))
			if maxRunning > limit {
				t.Errorf("%d items ran at the same time, limit %d", maxRunning, limit)
			}
		})
	}
}

func TestPoolErrors(t *testing.T) {
	errBoom := errors.New("boom")
	w := New(context.Background(), 2)
	for i := 0; i < 4; i++ {
		w.Submit(NewRunAction("test_"+strconv.Itoa(i), func(ctx context.Context) error {
			if i%2 == 0 {
				return errBoom
			}
			return nil
		}))
	}
	err := w.Stop()
	if !errors.Is(err, errBoom) {
		t.Errorf("expecting errBoom, got %v", err)
	}
}

func TestPoolCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := New(ctx, 1)
	started := make(chan struct{})
	w.Submit(NewRunAction("blocking", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	<-started
	cancel()
	w.Submit(NewRunAction("skipped", func(ctx context.Context) error {
		t.Error("must not run after cancellation")
		return nil
	}))
	if err := w.Stop(); !errors.Is(err, context.Canceled) {
		t.Errorf("expecting context.Canceled, got %v", err)
	}
}
