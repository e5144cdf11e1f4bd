package realtime

import "time"

// Scheduler abstracts timer scheduling so the backoff loop can be driven
// deterministically in tests.
type Scheduler interface {
	// After runs fn once d has elapsed and returns a cancel function.
	// Cancel after firing is a no-op.
	After(d time.Duration, fn func()) (cancel func())
}

type timerScheduler struct{}

// NewTimerScheduler returns the production Scheduler backed by time.AfterFunc.
func NewTimerScheduler() Scheduler {
	return timerScheduler{}
}

func (timerScheduler) After(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
