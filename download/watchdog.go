package download

import (
	"time"
)

type watchdog struct {
	interval time.Duration
	timer    *time.Timer
}

// newWatchDog calls the callback when it isn't kicked during the interval.
// A zero interval disables the watchdog.
func newWatchDog(interval time.Duration, callback func()) *watchdog {
	w := watchdog{
		interval: interval,
	}
	if interval > 0 {
		w.timer = time.AfterFunc(interval, callback)
	}
	return &w
}

func (w *watchdog) Stop() {
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *watchdog) Kick() {
	if w.timer != nil {
		w.timer.Reset(w.interval)
	}
}
