package download

import (
	"time"

	"github.com/simulot/aspiravod/mylog"
)

// Progress is a snapshot of the transcoder's progression
type Progress struct {
	Path    string        // destination file
	Total   time.Duration // duration of the source, 0 when unknown
	Elapsed time.Duration // duration already transcoded
	Size    int64         // bytes written so far
	Speed   float64       // transcoding speed relative to real time
	Final   bool          // last report of the transcoder
}

// Percent of the duration already transcoded, -1 when the total is unknown
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return -1
	}
	pc := float64(p.Elapsed) / float64(p.Total) * 100
	if pc > 100 {
		pc = 100
	}
	return pc
}

// ProgressFunc receives the progression of a download.
// It is called from a dedicated goroutine, in increasing Elapsed order.
// Reports are dropped while the function is busy, only the latest one is delivered.
type ProgressFunc func(p Progress)

// notifier decouples the transcoder monitoring from the progress function
type notifier struct {
	fn   ProgressFunc
	log  *mylog.MyLog
	ch   chan Progress
	done chan struct{}
}

func newNotifier(fn ProgressFunc, log *mylog.MyLog) *notifier {
	n := &notifier{
		fn:   fn,
		log:  log,
		ch:   make(chan Progress, 1),
		done: make(chan struct{}),
	}
	go n.run()
	return n
}

func (n *notifier) run() {
	defer close(n.done)
	for p := range n.ch {
		n.call(p)
	}
}

func (n *notifier) call(p Progress) {
	if n.fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			n.log.Error().Printf("[FFMPEG] progress callback failed: %v", r)
		}
	}()
	n.fn(p)
}

// post never blocks: a pending report is replaced by the new one.
// There is only one sender.
func (n *notifier) post(p Progress) {
	select {
	case n.ch <- p:
		return
	default:
	}
	select {
	case <-n.ch:
	default:
	}
	select {
	case n.ch <- p:
	default:
	}
}

// close waits at most timeout for the pending reports
func (n *notifier) close(timeout time.Duration) {
	close(n.ch)
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-n.done:
	case <-t.C:
		n.log.Error().Printf("[FFMPEG] progress callback is too slow, giving up")
	}
}
