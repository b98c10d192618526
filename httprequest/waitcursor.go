package httprequest

import (
	"sync"
	"time"

	"github.com/chincoe/chayns-helper-sub000/host"
)

// DefaultWaitCursorDelay is how long a request runs before the wait cursor
// appears.
const DefaultWaitCursorDelay = 300 * time.Millisecond

// startWaitCursor schedules the wait cursor and returns the function that
// cancels it. The cursor is hidden only if it was shown.
func startWaitCursor(ui host.WaitCursor, cfg *WaitCursorConfig) (stop func()) {
	if ui == nil || cfg == nil {
		return func() {}
	}

	delay := cfg.Delay
	if delay <= 0 {
		delay = DefaultWaitCursorDelay
	}

	var (
		mu      sync.Mutex
		stopped bool
		shown   bool
		steps   []*time.Timer
	)

	show := time.AfterFunc(delay, func() {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		shown = true
		ui.ShowWaitCursor(cfg.Text)

		for _, step := range cfg.Steps {
			steps = append(steps, time.AfterFunc(step.After, func() {
				mu.Lock()
				defer mu.Unlock()
				if !stopped {
					ui.ShowWaitCursor(step.Text)
				}
			}))
		}
	})

	return func() {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		stopped = true
		show.Stop()
		for _, t := range steps {
			t.Stop()
		}
		if shown {
			ui.HideWaitCursor()
		}
	}
}
