package kernel

import (
	"context"
	"runtime"

	"go.uber.org/zap"
)

// Syscall is the immediate operand of a software trap.
type Syscall uint8

const (
	SysCreate Syscall = iota
	SysMyTid
	SysMyParentTid
	SysYield
	SysExit
	SysSend
	SysReceive
	SysReply
	SysAwaitEvent
	NumSyscalls

	// sysFault is raised by the kernel side of a task whose code panicked.
	sysFault Syscall = 0xff
)

func (s Syscall) String() string {
	switch s {
	case SysCreate:
		return "create"
	case SysMyTid:
		return "my_tid"
	case SysMyParentTid:
		return "my_parent_tid"
	case SysYield:
		return "yield"
	case SysExit:
		return "exit"
	case SysSend:
		return "send"
	case SysReceive:
		return "receive"
	case SysReply:
		return "reply"
	case SysAwaitEvent:
		return "await_event"
	case sysFault:
		return "fault"
	default:
		return "unknown"
	}
}

// trapFrame is what a task hands the kernel on trap entry: the syscall
// number, its register arguments and the buffers it lends for the call.
type trapFrame struct {
	sys   Syscall
	args  [2]int
	entry func(*Task)
	msg   []byte
	reply []byte
	fault *PanicInfo
}

type syscallHandler func(k *Kernel, d *descriptor, f *trapFrame) error

var syscallTable = [NumSyscalls]syscallHandler{
	SysCreate:      (*Kernel).sysCreate,
	SysMyTid:       (*Kernel).sysMyTid,
	SysMyParentTid: (*Kernel).sysMyParentTid,
	SysYield:       (*Kernel).sysYield,
	SysExit:        (*Kernel).sysExit,
	SysSend:        (*Kernel).sysSend,
	SysReceive:     (*Kernel).sysReceive,
	SysReply:       (*Kernel).sysReply,
	SysAwaitEvent:  (*Kernel).sysAwaitEvent,
}

// next picks the task to run after a trap.
func (k *Kernel) next() (*descriptor, error) {
	tid, ok := k.ready.pop()
	if !ok {
		return nil, &FatalError{Cause: ErrNoReadyTask, TID: NoTID}
	}
	return &k.tasks[tid], nil
}

// switchTo restores d and waits for its next trap. Snapshot requests are
// answered while the task runs; kernel state is not touched by user code.
func (k *Kernel) switchTo(ctx context.Context, d *descriptor) (trapFrame, error) {
	d.status = StatusActive
	k.active = d
	k.stats.Switches++
	d.resume <- struct{}{}

	for {
		select {
		case f := <-k.trapCh:
			return f, nil
		case reply := <-k.inspect:
			reply <- k.snapshot()
		case <-ctx.Done():
			return trapFrame{}, ctx.Err()
		}
	}
}

// dispatch saves the trapping task's arguments into its context and runs the
// handler for the trap.
func (k *Kernel) dispatch(d *descriptor, f trapFrame) error {
	k.active = nil
	k.stats.Traps++
	if f.sys == sysFault {
		return &FatalError{Cause: ErrTaskFault, TID: d.tid, Value: f.fault.Value, Stack: f.fault.Stack}
	}
	if f.sys >= NumSyscalls {
		return &FatalError{Cause: ErrTaskFault, TID: d.tid, Value: f.sys}
	}

	d.ctx.R[0] = f.args[0]
	d.ctx.R[1] = f.args[1]
	k.stats.Syscalls[f.sys]++
	if k.cfg.Trace {
		k.log.Debug("trap",
			zap.Int("tid", int(d.tid)),
			zap.Stringer("sys", f.sys),
			zap.Int("r0", f.args[0]),
			zap.Int("r1", f.args[1]))
	}
	return syscallTable[f.sys](k, d, &f)
}

// serviceInterrupts takes every pending interrupt: run the source's handler,
// deliver its event, then acknowledge the source.
func (k *Kernel) serviceInterrupts() error {
	if k.ic == nil {
		return nil
	}
	for {
		src, ok := k.ic.Pending()
		if !ok {
			return nil
		}
		k.stats.Interrupts++
		var h InterruptHandler
		if src >= 0 && src < maxIRQSources {
			h = k.handlers[src]
		}
		if h == nil {
			k.stats.Spurious++
			k.log.Warn("spurious interrupt", zap.Int("source", src))
			k.ic.Ack(src)
			continue
		}
		ev, data, ok := h()
		if ok {
			if err := k.signal(ev, data); err != nil {
				k.ic.Ack(src)
				return err
			}
		}
		k.ic.Ack(src)
	}
}

// launch starts the goroutine that plays d's user mode. It parks until the
// first dispatch; an entry function that returns falls into Exit.
func (k *Kernel) launch(d *descriptor, entry func(*Task)) {
	t := &Task{k: k, d: d}
	go func() {
		t.park()
		defer func() {
			if v := recover(); v != nil {
				t.fault(v)
			}
		}()
		entry(t)
		t.Exit()
	}()
}

// trap enters the kernel and blocks until the kernel resumes this task.
func (t *Task) trap(f trapFrame) {
	select {
	case t.k.trapCh <- f:
	case <-t.k.halted:
		runtime.Goexit()
	}
	t.park()
}

func (t *Task) park() {
	select {
	case <-t.d.resume:
	case <-t.k.halted:
		runtime.Goexit()
	}
}

func (t *Task) fault(v any) {
	info := &PanicInfo{TaskID: t.d.tid, Value: v, Stack: captureStack()}
	select {
	case t.k.trapCh <- trapFrame{sys: sysFault, fault: info}:
	case <-t.k.halted:
	}
}
