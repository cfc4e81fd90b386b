//go:build !tinygo

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"time"

	"railos/app"
	"railos/hal"
	"railos/internal/config"
	"railos/internal/observability"
	"railos/kernel"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	runOpts struct {
		headless bool
		ticks    uint64
		logLevel string
		tty      bool
		trace    bool
		snapshot bool
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Boot railos",
		Long:  "Boot railos in a window, or on stdout with --headless. Type help at the prompt for console commands.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			applyRunFlags(cmd, cfg)
			return runOS(cmd.Context(), cfg)
		},
	}
)

func init() {
	f := runCmd.Flags()
	f.BoolVar(&runOpts.headless, "headless", false, "run without a window; the terminal line is stdout")
	f.Uint64Var(&runOpts.ticks, "ticks", 0, "stop a headless run after N timer ticks (0 = run until interrupted)")
	f.StringVar(&runOpts.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	f.BoolVar(&runOpts.tty, "tty", false, "read terminal input from the controlling terminal in raw mode")
	f.BoolVar(&runOpts.trace, "trace", false, "log every kernel trap at debug level")
	f.BoolVar(&runOpts.snapshot, "snapshot", false, "print the task table as YAML when the kernel stops")
}

// applyRunFlags lets explicitly set flags override the loaded config.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("headless") {
		cfg.HAL.Window = !runOpts.headless
	}
	if f.Changed("ticks") {
		cfg.HAL.HeadlessTicks = runOpts.ticks
	}
	if f.Changed("log-level") {
		cfg.Log.Level = strings.ToLower(runOpts.logLevel)
	}
	if f.Changed("tty") {
		cfg.HAL.TermTTY = runOpts.tty
	}
	if f.Changed("trace") {
		cfg.Kernel.Trace = runOpts.trace
		if runOpts.trace {
			cfg.Log.Level = "debug"
		}
	}
	if f.Changed("snapshot") {
		cfg.App.Snapshot = runOpts.snapshot
	}
}

func runOS(ctx context.Context, cfg *config.Config) error {
	log, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	tick := time.Duration(cfg.HAL.TickMS) * time.Millisecond
	hcfg := hal.Config{
		TickPeriod:    tick,
		Width:         cfg.HAL.Width,
		Height:        cfg.HAL.Height,
		CTSDelay:      time.Duration(cfg.HAL.CTSDelayMS) * time.Millisecond,
		SensorModules: cfg.HAL.SensorModules,
		SensorDelay:   time.Duration(cfg.HAL.SensorDelayMS) * time.Millisecond,
		TTY:           cfg.HAL.TermTTY,
		StopAfter:     cfg.HAL.HeadlessTicks,
		Log:           log,
	}
	acfg := app.Config{
		Kernel: kernel.Config{
			MaxTasks:    cfg.Kernel.MaxTasks,
			MaxPriority: cfg.Kernel.MaxPriority,
			StackSize:   cfg.Kernel.StackSize,
			Trace:       cfg.Kernel.Trace,
		},
		TickPeriod:    tick,
		SensorModules: cfg.HAL.SensorModules,
		SensorPoll:    uint32(cfg.App.SensorPollTicks),
		Log:           log,
	}
	if cfg.App.Snapshot {
		acfg.OnStop = func(s kernel.Snapshot) {
			enc := yaml.NewEncoder(os.Stderr)
			defer enc.Close()
			if err := enc.Encode(s); err != nil {
				log.Warn("snapshot", zap.Error(err))
			}
		}
	}

	boot := func(ctx context.Context, h hal.HAL) error { return app.Run(ctx, h, acfg) }
	if cfg.HAL.Window {
		err = hal.RunWindow(ctx, hcfg, boot)
	} else {
		err = hal.RunHeadless(ctx, hcfg, boot)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
