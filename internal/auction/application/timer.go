package application

import (
	"sync"
	"time"
)

// roundTimer owns the single outstanding deadline timer of the active
// round. Arming while a timer is pending replaces it, so at most one
// callback is ever scheduled; Disarm cancels without firing.
type roundTimer struct {
	mu    sync.Mutex
	timer *time.Timer
}

func (t *roundTimer) Arm(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(d, fn)
}

func (t *roundTimer) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
