package app

import (
	"railos/client/logger"
	nameclient "railos/client/name"
	"railos/hal"
	"railos/kernel"
	"railos/services/clock"
	logsvc "railos/services/logger"
	"railos/services/nameserver"
	"railos/services/uart"

	"go.uber.org/zap"
)

// Server names registered with the name server.
const (
	NameClock = "clock"
	NameTerm  = "term"
	NameTrain = "train"
	NameLog   = "log"
)

// priorities lays the boot tasks out from the top level down. Notifiers sit
// above their servers so a pending event is always awaited again before the
// server can trigger the next one.
type priorities struct {
	notifier   int
	nameserver int
	clock      int
	uart       int
	logger     int
	init       int
	console    int
	sensors    int
	idle       int
}

func newPriorities(levels int) priorities {
	top := levels - 1
	return priorities{
		notifier:   top,
		nameserver: top - 1,
		clock:      top - 2,
		uart:       top - 3,
		logger:     top - 4,
		init:       top - 5,
		console:    top - 6,
		sensors:    top - 6,
		idle:       0,
	}
}

func initTask(cfg *Config, h hal.HAL, p priorities, quit func()) func(*kernel.Task) {
	return func(t *kernel.Task) {
		log := cfg.Log.Named("init")
		ns := t.Create(p.nameserver, nameserver.New(cfg.Log, 0).Run)
		if ns < 0 {
			log.Error("name server not started", zap.Int("code", int(ns)))
			return
		}
		start := func(name string, prio int, run func(*kernel.Task)) kernel.TID {
			tid := t.Create(prio, registered(ns, name, run))
			if tid < 0 {
				log.Error("task not started", zap.String("name", name), zap.Int("code", int(tid)))
			}
			return tid
		}

		maxTasks := cfg.Kernel.MaxTasks
		if maxTasks == 0 {
			maxTasks = kernel.DefaultMaxTasks
		}
		start(NameClock, p.clock, clock.New(cfg.Log, p.notifier, maxTasks).Run)
		start(NameTerm, p.uart, uart.New(cfg.Log, h.TermLine(), uart.Config{
			Name:             NameTerm,
			RX:               kernel.EventTermRX,
			TX:               kernel.EventTermTX,
			NotifierPriority: p.notifier,
		}).Run)
		start(NameTrain, p.uart, uart.New(cfg.Log, h.TrainLine(), uart.Config{
			Name:             NameTrain,
			RX:               kernel.EventTrainRX,
			TX:               kernel.EventTrainTX,
			CTS:              kernel.EventTrainCTS,
			FlowControl:      true,
			NotifierPriority: p.notifier,
		}).Run)
		logTID := start(NameLog, p.logger, logsvc.New(h.Logger()).Run)

		c := &console{ns: ns, tick: cfg.TickPeriod, quit: quit, log: cfg.Log.Named("console")}
		t.Create(p.console, c.run)
		if cfg.SensorPoll > 0 {
			t.Create(p.sensors, sensorTask(ns, cfg.SensorModules, cfg.SensorPoll, cfg.Log.Named("sensors")))
		}
		t.Create(p.idle, idle)

		logger.Logf(t, logTID, "railos up: %d priority levels", p.notifier+1)
		log.Info("boot complete", zap.Int("nameserver", int(ns)))
	}
}

// registered binds the running task to name before handing over to run.
func registered(ns kernel.TID, name string, run func(*kernel.Task)) func(*kernel.Task) {
	return func(t *kernel.Task) {
		if err := nameclient.RegisterAs(t, ns, name); err != nil {
			panic(err)
		}
		run(t)
	}
}

// idle keeps the ready queue non-empty and sleeps until the next interrupt.
func idle(t *kernel.Task) {
	for {
		t.WaitForInterrupt()
		t.Yield()
	}
}

// lookup resolves a server name, panicking if it is not registered. Servers
// register before init creates any client, so a miss is a boot bug.
func lookup(t *kernel.Task, ns kernel.TID, name string) kernel.TID {
	tid, err := nameclient.WhoIs(t, ns, name)
	if err != nil {
		panic(err)
	}
	return tid
}
