package kernel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeIC is an interrupt controller driven directly by tests.
type fakeIC struct {
	mu      sync.Mutex
	enabled uint32
	pending uint32
	acked   []int
	sig     chan struct{}
}

func newFakeIC() *fakeIC {
	return &fakeIC{sig: make(chan struct{}, 1)}
}

func (c *fakeIC) Enable(src int) {
	c.mu.Lock()
	c.enabled |= 1 << uint(src)
	c.mu.Unlock()
}

func (c *fakeIC) Pending() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.pending & c.enabled
	for i := 0; i < 32; i++ {
		if p&(1<<uint(i)) != 0 {
			return i, true
		}
	}
	return 0, false
}

func (c *fakeIC) Ack(src int) {
	c.mu.Lock()
	c.pending &^= 1 << uint(src)
	c.acked = append(c.acked, src)
	c.mu.Unlock()
}

func (c *fakeIC) Signal() <-chan struct{} { return c.sig }

func (c *fakeIC) raise(src int) {
	c.mu.Lock()
	c.pending |= 1 << uint(src)
	c.mu.Unlock()
	select {
	case c.sig <- struct{}{}:
	default:
	}
}

func newTestKernel(t *testing.T, cfg Config) *Kernel {
	t.Helper()
	k, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return k
}

// runUntilIdle runs the kernel until no task is ready, which is how every
// test scenario ends.
func runUntilIdle(t *testing.T, k *Kernel, prio int, entry func(*Task)) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := k.Run(ctx, prio, entry)
	if !errors.Is(err, ErrNoReadyTask) {
		t.Fatalf("Run() error = %v, want %v", err, ErrNoReadyTask)
	}
}

func inspect(t *testing.T, k *Kernel) Snapshot {
	t.Helper()
	s, err := k.Inspect(context.Background())
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	return s
}

func findTask(s Snapshot, tid TID) (TaskInfo, bool) {
	for _, ti := range s.Tasks {
		if ti.TID == tid {
			return ti, true
		}
	}
	return TaskInfo{}, false
}

func TestNewValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"too many tasks", Config{MaxTasks: maxTasksLimit + 1}},
		{"negative tasks", Config{MaxTasks: -1}},
		{"too many priorities", Config{MaxPriority: MaxPriorityLimit + 1}},
		{"tiny stacks", Config{StackSize: 16}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Fatal("New() error = nil, want error")
			}
		})
	}

	k := newTestKernel(t, Config{})
	if k.MaxPriority() != DefaultMaxPriority {
		t.Fatalf("MaxPriority() = %d, want %d", k.MaxPriority(), DefaultMaxPriority)
	}
	s := inspect(t, k)
	if s.Free != DefaultMaxTasks {
		t.Fatalf("free slots = %d, want %d", s.Free, DefaultMaxTasks)
	}
}

func TestRunRejectsBadBootTask(t *testing.T) {
	k := newTestKernel(t, Config{MaxPriority: 4})
	err := k.Run(context.Background(), 4, func(*Task) {})
	if !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("Run() error = %v, want %v", err, ErrInvalidPriority)
	}
	if err := k.Run(context.Background(), 1, func(*Task) {}); !errors.Is(err, ErrRunning) {
		t.Fatalf("second Run() error = %v, want %v", err, ErrRunning)
	}
}

func TestCreateErrors(t *testing.T) {
	k := newTestKernel(t, Config{MaxTasks: 3, MaxPriority: 8})

	var bad, neg, nilEntry, first, second, full TID
	runUntilIdle(t, k, 1, func(task *Task) {
		bad = task.Create(8, func(*Task) {})
		neg = task.Create(-1, func(*Task) {})
		nilEntry = task.Create(2, nil)
		block := func(c *Task) { c.Receive(nil) }
		first = task.Create(0, block)
		second = task.Create(0, block)
		full = task.Create(0, block)
	})

	if bad != CreateInvalidPriority || neg != CreateInvalidPriority || nilEntry != CreateInvalidPriority {
		t.Fatalf("Create() with bad priority = %d, %d, %d, want %d", bad, neg, nilEntry, CreateInvalidPriority)
	}
	if first < 0 || second < 0 {
		t.Fatalf("Create() = %d, %d, want valid tids", first, second)
	}
	if full != CreateNoDescriptors {
		t.Fatalf("Create() on full table = %d, want %d", full, CreateNoDescriptors)
	}

	s := inspect(t, k)
	if len(s.Tasks) != 2 {
		t.Fatalf("live tasks = %d, want 2 (no partial task)", len(s.Tasks))
	}
	if got := k.stacks.allocated(); got != 2 {
		t.Fatalf("allocated stacks = %d, want 2", got)
	}
}

func TestExitReleasesSlotAndStack(t *testing.T) {
	k := newTestKernel(t, Config{MaxTasks: 2, MaxPriority: 4})

	var tids []TID
	runUntilIdle(t, k, 1, func(task *Task) {
		for i := 0; i < 5; i++ {
			tids = append(tids, task.Create(2, func(*Task) {}))
		}
	})

	for i, tid := range tids {
		if tid != 1 {
			t.Fatalf("Create() #%d = %d, want slot 1 reused", i, tid)
		}
	}
	s := inspect(t, k)
	if len(s.Tasks) != 0 || s.Free != 2 {
		t.Fatalf("after exit: tasks=%d free=%d, want 0 and 2", len(s.Tasks), s.Free)
	}
	if got := k.stacks.allocated(); got != 0 {
		t.Fatalf("allocated stacks = %d, want 0", got)
	}
	if k.tasks[1].gen != 5 {
		t.Fatalf("slot generation = %d, want 5", k.tasks[1].gen)
	}
}

func TestContextInitialised(t *testing.T) {
	k := newTestKernel(t, Config{MaxTasks: 2, StackSize: 1024})

	var ctx Context
	runUntilIdle(t, k, 1, func(task *Task) {
		ctx = k.tasks[task.MyTid()].ctx
	})

	if ctx.PSR != PSRUser {
		t.Fatalf("PSR = %#x, want %#x", ctx.PSR, PSRUser)
	}
	if ctx.LR != trampolinePC || ctx.LR == 0 {
		t.Fatalf("LR = %#x, want exit trampoline %#x", ctx.LR, trampolinePC)
	}
	if ctx.PC == 0 {
		t.Fatal("PC = 0, want entry address")
	}
	if ctx.SP%16 != 0 {
		t.Fatalf("SP = %#x, want 16-byte aligned", ctx.SP)
	}
}

func TestMyTidAndParent(t *testing.T) {
	k := newTestKernel(t, Config{MaxTasks: 4})

	var bootTid, bootParent, childParent, childTid, created TID
	runUntilIdle(t, k, 5, func(task *Task) {
		bootTid = task.MyTid()
		bootParent = task.MyParentTid()
		created = task.Create(1, func(c *Task) {
			childTid = c.MyTid()
			childParent = c.MyParentTid()
		})
	})

	if bootParent != NoTID {
		t.Fatalf("boot MyParentTid() = %d, want %d", bootParent, NoTID)
	}
	if childParent != bootTid {
		t.Fatalf("child MyParentTid() = %d, want %d", childParent, bootTid)
	}
	if childTid != created {
		t.Fatalf("child MyTid() = %d, want %d", childTid, created)
	}
}

func TestTaskPanicHaltsKernel(t *testing.T) {
	k := newTestKernel(t, Config{})
	var got *FatalError
	k.SetFatalHandler(func(fe *FatalError) { got = fe })

	err := k.Run(context.Background(), 1, func(*Task) {
		panic("derailed")
	})
	if !errors.Is(err, ErrTaskFault) {
		t.Fatalf("Run() error = %v, want %v", err, ErrTaskFault)
	}
	if got == nil || got.Value != "derailed" || len(got.Stack) == 0 {
		t.Fatalf("fatal handler got %+v, want panic value and stack", got)
	}
	if !errors.Is(k.Err(), ErrTaskFault) {
		t.Fatalf("Err() = %v, want %v", k.Err(), ErrTaskFault)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	k := newTestKernel(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- k.Run(ctx, 1, func(task *Task) {
			for {
				task.Yield()
			}
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() error = %v, want %v", err, context.Canceled)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Run to stop")
	}
	select {
	case <-k.Halted():
	default:
		t.Fatal("Halted() not closed after Run returned")
	}
	if k.Err() != nil {
		t.Fatalf("Err() = %v, want nil after cancel", k.Err())
	}
}

func TestInspectWhileRunning(t *testing.T) {
	k := newTestKernel(t, Config{})

	var snap Snapshot
	var err error
	runUntilIdle(t, k, 3, func(task *Task) {
		task.Create(1, func(c *Task) { c.Receive(nil) })
		snap, err = k.Inspect(context.Background())
	})
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if len(snap.Tasks) != 2 {
		t.Fatalf("Inspect() tasks = %d, want 2", len(snap.Tasks))
	}
	boot, _ := findTask(snap, 0)
	if boot.Status != StatusActive {
		t.Fatalf("boot task status = %s, want %s", boot.Status, StatusActive)
	}
	child, _ := findTask(snap, 1)
	if child.Status != StatusReady {
		t.Fatalf("child status = %s, want %s", child.Status, StatusReady)
	}
	if snap.Stats.Syscalls[SysCreate] != 1 {
		t.Fatalf("create traps = %d, want 1", snap.Stats.Syscalls[SysCreate])
	}
}
