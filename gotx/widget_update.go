package main

import (
	"sync"
	"time"

	"fyne.io/fyne/v2"
)

// updateInterval limits monitor refreshes to ~60 FPS.
const updateInterval = 16 * time.Millisecond

// UpdateWidgetOnMainThread schedules a widget update function to run on the main Fyne thread.
// This is required because Fyne widgets cannot be updated directly from goroutines.
func UpdateWidgetOnMainThread(callback func()) {
	if callback == nil {
		return
	}
	fyne.Do(callback)
}

// updateThrottle drops updates that arrive sooner than interval after the
// last accepted one.
type updateThrottle struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time
	now  func() time.Time // for tests
}

func (t *updateThrottle) allow() bool {
	now := time.Now()
	if t.now != nil {
		now = t.now()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}
