package application

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerFiresOnce(t *testing.T) {
	var fired atomic.Int32
	var timer roundTimer

	timer.Arm(20*time.Millisecond, func() { fired.Add(1) })
	time.Sleep(100 * time.Millisecond)

	if got := fired.Load(); got != 1 {
		t.Fatalf("timer fired %d times, want 1", got)
	}
}

func TestRearmReplacesPendingTimer(t *testing.T) {
	var first, second atomic.Int32
	var timer roundTimer

	timer.Arm(30*time.Millisecond, func() { first.Add(1) })
	timer.Arm(60*time.Millisecond, func() { second.Add(1) })
	time.Sleep(150 * time.Millisecond)

	if first.Load() != 0 {
		t.Error("replaced timer must not fire")
	}
	if second.Load() != 1 {
		t.Error("rearmed timer must fire exactly once")
	}
}

func TestDisarmCancels(t *testing.T) {
	var fired atomic.Int32
	var timer roundTimer

	timer.Arm(30*time.Millisecond, func() { fired.Add(1) })
	timer.Disarm()
	time.Sleep(100 * time.Millisecond)

	if fired.Load() != 0 {
		t.Error("disarmed timer must not fire")
	}
}

func TestDisarmWithoutArmIsSafe(t *testing.T) {
	var timer roundTimer
	timer.Disarm()
}
