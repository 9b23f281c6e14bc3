package timectrl

import (
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

func TestManualClockSetTime(t *testing.T) {
	c := NewManualClock(epoch)

	newNow := epoch.Add(42 * time.Second)
	c.Set(newNow)

	if got := c.Now(); !got.Equal(newNow) {
		t.Fatalf("Now() = %v, want %v", got, newNow)
	}
}

func TestManualClockFiresInDeadlineOrder(t *testing.T) {
	c := NewManualClock(epoch)

	var order []string
	c.AfterFunc(30*time.Millisecond, func() { order = append(order, "c") })
	c.AfterFunc(10*time.Millisecond, func() { order = append(order, "a") })
	c.AfterFunc(20*time.Millisecond, func() { order = append(order, "b") })

	c.Advance(15 * time.Millisecond)
	if len(order) != 1 || order[0] != "a" {
		t.Fatalf("after 15ms fired %v, want [a]", order)
	}

	c.Advance(100 * time.Millisecond)
	if got := len(order); got != 3 || order[1] != "b" || order[2] != "c" {
		t.Fatalf("fired %v, want [a b c]", order)
	}
	if c.Pending() != 0 {
		t.Fatalf("Pending() = %d, want 0", c.Pending())
	}
}

func TestManualClockStopCancels(t *testing.T) {
	c := NewManualClock(epoch)

	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })
	if !timer.Stop() {
		t.Fatalf("Stop() = false on pending timer")
	}
	if timer.Stop() {
		t.Fatalf("second Stop() = true, want false")
	}

	c.Advance(2 * time.Second)
	if fired {
		t.Fatalf("stopped timer fired")
	}
}

func TestManualClockRearmInsideWindow(t *testing.T) {
	c := NewManualClock(epoch)

	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		if ticks < 5 {
			c.AfterFunc(10*time.Millisecond, tick)
		}
	}
	c.AfterFunc(10*time.Millisecond, tick)

	c.Advance(35 * time.Millisecond)
	if ticks != 3 {
		t.Fatalf("ticks after 35ms = %d, want 3", ticks)
	}
	if got, want := c.Now(), epoch.Add(35*time.Millisecond); !got.Equal(want) {
		t.Fatalf("Now() = %v, want %v", got, want)
	}

	c.Advance(time.Second)
	if ticks != 5 {
		t.Fatalf("ticks = %d, want 5", ticks)
	}
}

func TestRealClockAfterFunc(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	NewRealClock().AfterFunc(5*time.Millisecond, wg.Done)
	wg.Wait()
}
