// Package app boots railos on a HAL: it builds the kernel, routes device
// interrupts to kernel events and starts the servers and the console.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"railos/hal"
	"railos/kernel"

	"go.uber.org/zap"
)

type Config struct {
	Kernel kernel.Config

	// TickPeriod converts clock ticks to wall time for display.
	TickPeriod time.Duration

	// SensorModules is the number of s88 modules polled on the train line and
	// SensorPoll the poll interval in ticks (0 disables polling).
	SensorModules int
	SensorPoll    uint32

	Log *zap.Logger

	// OnStop receives the final task table once the kernel has stopped.
	OnStop func(kernel.Snapshot)
}

func (c *Config) setDefaults() {
	if c.TickPeriod <= 0 {
		c.TickPeriod = hal.DefaultTickPeriod
	}
	if c.SensorModules <= 0 {
		c.SensorModules = 5
	}
	if c.Log == nil {
		c.Log = zap.NewNop()
	}
}

// minPriorities is the number of priority levels the boot layout needs.
const minPriorities = 8

// Run boots the OS on h and blocks until ctx is done, the console quits or
// the kernel halts on a fatal error.
func Run(ctx context.Context, h hal.HAL, cfg Config) error {
	cfg.setDefaults()
	log := cfg.Log.Named("app")

	kcfg := cfg.Kernel
	kcfg.Logger = cfg.Log
	kcfg.Interrupts = h.Interrupts()
	k, err := kernel.New(kcfg)
	if err != nil {
		return err
	}
	if k.MaxPriority() < minPriorities {
		return fmt.Errorf("app: need at least %d priority levels, have %d", minPriorities, k.MaxPriority())
	}
	if err := attachInterrupts(k, h); err != nil {
		return err
	}
	k.SetFatalHandler(func(fe *kernel.FatalError) { showFatal(h, fe) })

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	h.Start(ctx)

	p := newPriorities(k.MaxPriority())
	log.Info("booting", zap.Int("init_priority", p.init), zap.Duration("tick", cfg.TickPeriod))
	err = k.Run(ctx, p.init, initTask(&cfg, h, p, cancel))

	if cfg.OnStop != nil {
		if snap, serr := k.Inspect(context.Background()); serr == nil {
			SortTasks(snap.Tasks)
			cfg.OnStop(snap)
		}
	}
	if errors.Is(err, context.Canceled) {
		log.Info("stopped")
	}
	return err
}

// attachInterrupts routes every device source to its kernel event. RX
// reports how many bytes are waiting and the timer reports its tick count.
func attachInterrupts(k *kernel.Kernel, h hal.HAL) error {
	timer, train, term := h.Timer(), h.TrainLine(), h.TermLine()
	handlers := []struct {
		src int
		h   kernel.InterruptHandler
	}{
		{hal.IRQTimer, func() (kernel.Event, int, bool) {
			return kernel.EventTimerTick, int(timer.Ticks()), true
		}},
		{hal.IRQTrainRX, func() (kernel.Event, int, bool) {
			return kernel.EventTrainRX, train.Buffered(), true
		}},
		{hal.IRQTrainTX, func() (kernel.Event, int, bool) { return kernel.EventTrainTX, 0, true }},
		{hal.IRQTrainCTS, func() (kernel.Event, int, bool) { return kernel.EventTrainCTS, 0, true }},
		{hal.IRQTermRX, func() (kernel.Event, int, bool) {
			return kernel.EventTermRX, term.Buffered(), true
		}},
		{hal.IRQTermTX, func() (kernel.Event, int, bool) { return kernel.EventTermTX, 0, true }},
	}
	for _, e := range handlers {
		if err := k.AttachInterrupt(e.src, e.h); err != nil {
			return fmt.Errorf("attach irq %d: %w", e.src, err)
		}
	}
	return nil
}
