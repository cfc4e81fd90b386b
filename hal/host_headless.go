//go:build !tinygo

package hal

import (
	"context"
	"os"
)

// BootFunc runs the OS on h until ctx is done or the OS stops.
type BootFunc func(ctx context.Context, h HAL) error

// RunHeadless runs the OS without opening a window. Terminal output goes to
// stdout; input comes from the controlling terminal when cfg.TTY is set.
func RunHeadless(ctx context.Context, cfg Config, boot BootFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h := newHost(cfg, os.Stdout, false)
	if limit := h.cfg.StopAfter; limit > 0 {
		h.timer.onTick = func(n uint64) {
			if n >= limit {
				cancel()
			}
		}
	}
	h.Start(ctx)
	return boot(ctx, h)
}
