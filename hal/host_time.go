//go:build !tinygo

package hal

import (
	"context"
	"sync/atomic"
	"time"
)

// hostTimer derives the tick count from elapsed wall time so a late wakeup
// advances the counter by several ticks and still raises one interrupt.
type hostTimer struct {
	ic     InterruptController
	period time.Duration
	ticks  atomic.Uint64

	// onTick, if set, runs on the timer goroutine after each advance.
	onTick func(uint64)
}

func newHostTimer(ic InterruptController, period time.Duration) *hostTimer {
	return &hostTimer{ic: ic, period: period}
}

func (t *hostTimer) Ticks() uint64 { return t.ticks.Load() }

func (t *hostTimer) run(ctx context.Context) {
	start := time.Now()
	tk := time.NewTicker(t.period)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tk.C:
			t.advance(uint64(now.Sub(start) / t.period))
		}
	}
}

func (t *hostTimer) advance(to uint64) {
	if to <= t.ticks.Load() {
		return
	}
	t.ticks.Store(to)
	t.ic.Raise(IRQTimer)
	if t.onTick != nil {
		t.onTick(to)
	}
}
