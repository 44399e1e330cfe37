package session

import "time"

// alarm is a one-shot re-armable timer. The session model is single-threaded
// event-driven; the expiry callback is expected to post back into the owning
// event loop.
type alarm struct {
	timer *time.Timer
	armed bool
	fn    func()
}

func newAlarm(fn func()) *alarm {
	return &alarm{fn: fn}
}

// set arms the alarm, replacing any previous deadline.
func (a *alarm) set(d time.Duration) {
	a.cancel()
	a.armed = true
	a.timer = time.AfterFunc(d, func() {
		a.armed = false
		if a.fn != nil {
			a.fn()
		}
	})
}

// cancel disarms the alarm. Safe to call when not armed.
func (a *alarm) cancel() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.armed = false
}
