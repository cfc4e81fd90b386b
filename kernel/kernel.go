// Package kernel is a single-core microkernel: a fixed task table, a
// priority ready queue, Send/Receive/Reply rendezvous IPC and interrupt
// events that tasks block on with AwaitEvent.
//
// Every piece of kernel state is owned by the goroutine running Kernel.Run.
// Tasks run as goroutines too, but only one of them is ever released at a
// time and it hands control back by trapping, so no kernel structure needs a
// lock: a trap is always handled to completion before any task resumes.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

const (
	DefaultMaxTasks    = 64
	DefaultMaxPriority = 32
	DefaultStackSize   = 16 << 10

	maxTasksLimit = 256
	minStackSize  = 256
	maxIRQSources = 32
)

// Config sizes the kernel's static tables.
type Config struct {
	MaxTasks    int
	MaxPriority int
	StackSize   int

	// Trace logs every trap at debug level.
	Trace bool

	Logger *zap.Logger

	// Interrupts is the controller the dispatcher drains at every trap
	// boundary. A nil controller means no interrupt sources.
	Interrupts InterruptController
}

func (c *Config) setDefaults() {
	if c.MaxTasks == 0 {
		c.MaxTasks = DefaultMaxTasks
	}
	if c.MaxPriority == 0 {
		c.MaxPriority = DefaultMaxPriority
	}
	if c.StackSize == 0 {
		c.StackSize = DefaultStackSize
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

func (c *Config) validate() error {
	if c.MaxTasks < 1 || c.MaxTasks > maxTasksLimit {
		return fmt.Errorf("kernel: max tasks %d out of range [1, %d]", c.MaxTasks, maxTasksLimit)
	}
	if c.MaxPriority < 1 || c.MaxPriority > MaxPriorityLimit {
		return fmt.Errorf("kernel: max priority %d out of range [1, %d]", c.MaxPriority, MaxPriorityLimit)
	}
	if c.StackSize < minStackSize {
		return fmt.Errorf("kernel: stack size %d below %d", c.StackSize, minStackSize)
	}
	return nil
}

// ErrRunning is returned by Run on a kernel that has already been started.
var ErrRunning = errors.New("kernel: already started")

// Stats counts kernel entries.
type Stats struct {
	Syscalls   [NumSyscalls]uint64 `yaml:"-"`
	Traps      uint64              `yaml:"traps"`
	Interrupts uint64              `yaml:"interrupts"`
	Spurious   uint64              `yaml:"spurious"`
	Switches   uint64              `yaml:"switches"`
}

// Kernel is the process-wide kernel state. It is created once at boot and
// lives until Run returns.
type Kernel struct {
	cfg Config
	log *zap.Logger

	tasks  []descriptor
	q      queueTable
	ready  readyQueue
	stacks stackArena

	qFree      qid
	qOrphan    qid
	mailboxes  qid
	eventQueue qid

	latches  [NumEvents]latch
	ic       InterruptController
	handlers [maxIRQSources]InterruptHandler

	active *descriptor
	stats  Stats

	trapCh   chan trapFrame
	inspect  chan chan Snapshot
	halted   chan struct{}
	haltOnce sync.Once
	started  atomic.Bool
	done     atomic.Bool

	onFatal func(*FatalError)
	fatal   *FatalError
}

// New reserves the task table, queue nodes and stack arena.
func New(cfg Config) (*Kernel, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	k := &Kernel{
		cfg:     cfg,
		log:     cfg.Logger.Named("kernel"),
		tasks:   make([]descriptor, cfg.MaxTasks),
		stacks:  newStackArena(cfg.MaxTasks, cfg.StackSize),
		ic:      cfg.Interrupts,
		trapCh:  make(chan trapFrame),
		inspect: make(chan chan Snapshot),
		halted:  make(chan struct{}),
	}

	k.qFree = 0
	k.qOrphan = 1
	readyBase := qid(2)
	k.mailboxes = readyBase + qid(cfg.MaxPriority)
	k.eventQueue = k.mailboxes + qid(cfg.MaxTasks)
	k.q = newQueueTable(cfg.MaxTasks, int(k.eventQueue)+int(NumEvents))
	k.ready = readyQueue{q: &k.q, base: readyBase}

	for i := range k.tasks {
		d := &k.tasks[i]
		d.tid = TID(i)
		d.parent = NoTID
		d.stack = -1
		d.peer = peer{tid: NoTID}
		d.resume = make(chan struct{}, 1)
		k.q.push(k.qFree, d.tid)
	}
	return k, nil
}

func (k *Kernel) qMailbox(tid TID) qid { return k.mailboxes + qid(tid) }

func (k *Kernel) qEvent(ev Event) qid { return k.eventQueue + qid(ev) }

// MaxPriority returns the number of priority levels; valid priorities are
// [0, MaxPriority).
func (k *Kernel) MaxPriority() int { return k.cfg.MaxPriority }

// AttachInterrupt installs the handler for interrupt source src and enables
// the source at the controller. It must be called before Run.
func (k *Kernel) AttachInterrupt(src int, h InterruptHandler) error {
	if k.started.Load() {
		return ErrRunning
	}
	if src < 0 || src >= maxIRQSources {
		return fmt.Errorf("kernel: interrupt source %d out of range", src)
	}
	if k.ic == nil {
		return errors.New("kernel: no interrupt controller")
	}
	k.handlers[src] = h
	k.ic.Enable(src)
	return nil
}

// SetFatalHandler installs fn to be called once when the kernel halts on an
// invariant violation. It runs on the kernel goroutine and must not block
// forever if the caller expects Run to return.
func (k *Kernel) SetFatalHandler(fn func(*FatalError)) {
	k.onFatal = fn
}

// Run creates the boot task and dispatches traps until a fatal condition or
// until ctx is done. A kernel runs once.
func (k *Kernel) Run(ctx context.Context, priority int, entry func(*Task)) error {
	if !k.started.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer k.halt()

	if tid := k.create(NoTID, priority, entry); tid < 0 {
		return fmt.Errorf("kernel: boot task: %w", createError(tid))
	}
	k.log.Info("kernel started",
		zap.Int("max_tasks", k.cfg.MaxTasks),
		zap.Int("max_priority", k.cfg.MaxPriority),
		zap.Int("stack_size", k.cfg.StackSize))

	for {
		if err := k.serviceInterrupts(); err != nil {
			return k.fail(err)
		}
		d, err := k.next()
		if err != nil {
			return k.fail(err)
		}
		f, err := k.switchTo(ctx, d)
		if err != nil {
			k.log.Info("kernel stopped", zap.Error(err))
			return err
		}
		if err := k.dispatch(d, f); err != nil {
			return k.fail(err)
		}
	}
}

// halt releases every task goroutine parked in the kernel. Kernel state is
// frozen afterwards.
func (k *Kernel) halt() {
	k.haltOnce.Do(func() {
		k.active = nil
		k.done.Store(true)
		close(k.halted)
	})
}

// Halted is closed once Run has returned.
func (k *Kernel) Halted() <-chan struct{} { return k.halted }

// Err returns the fatal error that stopped the kernel, if any.
func (k *Kernel) Err() error {
	if !k.done.Load() || k.fatal == nil {
		return nil
	}
	return k.fatal
}
