package quizforge

import (
	"sync"
	"time"
)

// Countdown emits one tick per real second on C until stopped. Ticks are
// plain events for the session owner's loop to consume and feed into
// Session.Tick; the countdown never touches the session itself, so a tick
// that fires after the session is retired is harmless.
type Countdown struct {
	C    <-chan time.Time
	done chan struct{}
	once sync.Once
}

// NewCountdown starts a one-second ticker.
func NewCountdown() *Countdown {
	ticker := time.NewTicker(time.Second)
	out := make(chan time.Time)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		defer close(out)
		for {
			select {
			case t := <-ticker.C:
				select {
				case out <- t:
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	return &Countdown{C: out, done: done}
}

// Stop cancels the countdown. It is idempotent: the countdown must be stopped
// on submit, on pause and on teardown, and any of those may race a second
// Stop from a deferred cleanup.
func (c *Countdown) Stop() {
	c.once.Do(func() { close(c.done) })
}
