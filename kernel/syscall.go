package kernel

import (
	"errors"
	"runtime"
)

// Return codes of the syscall ABI. Every call reports failure only through
// its return value.
const (
	CreateInvalidPriority TID = -1
	CreateNoDescriptors   TID = -2

	SendUnknownTID = -1
	SendIncomplete = -2

	ReplyUnknownTID      = -1
	ReplyNotReplyBlocked = -2

	AwaitInvalidEvent = -1
)

var (
	ErrInvalidPriority = errors.New("invalid priority")
	ErrNoDescriptors   = errors.New("out of task descriptors")
)

func createError(tid TID) error {
	switch tid {
	case CreateInvalidPriority:
		return ErrInvalidPriority
	case CreateNoDescriptors:
		return ErrNoDescriptors
	default:
		return nil
	}
}

// Task is the user-mode side of one task. Its methods are the syscalls; each
// one traps into the kernel and returns when the kernel resumes the task.
// A Task must only be used from the goroutine running its entry function.
type Task struct {
	k *Kernel
	d *descriptor
}

// Create starts a new task at priority running entry. It returns the new
// tid, CreateInvalidPriority or CreateNoDescriptors.
func (t *Task) Create(priority int, entry func(*Task)) TID {
	t.trap(trapFrame{sys: SysCreate, args: [2]int{priority}, entry: entry})
	return TID(t.d.ctx.R[0])
}

// MyTid returns the caller's tid.
func (t *Task) MyTid() TID {
	t.trap(trapFrame{sys: SysMyTid})
	return TID(t.d.ctx.R[0])
}

// MyParentTid returns the tid of the task that created the caller, or NoTID
// for the boot task. If the parent has exited the recorded tid is returned
// unchanged and may by now name another task.
func (t *Task) MyParentTid() TID {
	t.trap(trapFrame{sys: SysMyParentTid})
	return TID(t.d.ctx.R[0])
}

// Yield moves the caller to the back of its priority level.
func (t *Task) Yield() {
	t.trap(trapFrame{sys: SysYield})
}

// Exit ends the calling task. It does not return.
func (t *Task) Exit() {
	select {
	case t.k.trapCh <- trapFrame{sys: SysExit}:
	case <-t.k.halted:
	}
	runtime.Goexit()
}

// Send delivers msg to tid and blocks until tid replies. It returns the
// number of reply bytes copied into reply, SendUnknownTID or SendIncomplete.
func (t *Task) Send(tid TID, msg, reply []byte) int {
	t.trap(trapFrame{sys: SysSend, args: [2]int{int(tid)}, msg: msg, reply: reply})
	return t.d.ctx.R[0]
}

// Receive blocks until a message arrives, copies as much of it as fits into
// msg and returns the sender and the sender's full message length.
func (t *Task) Receive(msg []byte) (TID, int) {
	t.trap(trapFrame{sys: SysReceive, msg: msg})
	return TID(t.d.ctx.R[1]), t.d.ctx.R[0]
}

// Reply unblocks tid, which must be reply blocked on the caller. It returns
// the number of bytes copied, ReplyUnknownTID or ReplyNotReplyBlocked.
func (t *Task) Reply(tid TID, reply []byte) int {
	t.trap(trapFrame{sys: SysReply, args: [2]int{int(tid)}, reply: reply})
	return t.d.ctx.R[0]
}

// AwaitEvent blocks until ev fires and returns the event data, or
// AwaitInvalidEvent.
func (t *Task) AwaitEvent(ev Event) int {
	t.trap(trapFrame{sys: SysAwaitEvent, args: [2]int{int(ev)}})
	return t.d.ctx.R[0]
}

// WaitForInterrupt idles in user mode until the interrupt controller has
// something pending. It is meant for the lowest priority idle task, which
// should Yield right after so the kernel takes the interrupt.
func (t *Task) WaitForInterrupt() {
	if t.k.ic == nil {
		<-t.k.halted
		runtime.Goexit()
	}
	select {
	case <-t.k.ic.Signal():
	case <-t.k.halted:
		runtime.Goexit()
	}
}

func (k *Kernel) sysCreate(d *descriptor, f *trapFrame) error {
	d.ctx.R[0] = int(k.create(d.tid, d.ctx.R[0], f.entry))
	return k.makeReady(d)
}

func (k *Kernel) sysMyTid(d *descriptor, _ *trapFrame) error {
	d.ctx.R[0] = int(d.tid)
	return k.makeReady(d)
}

func (k *Kernel) sysMyParentTid(d *descriptor, _ *trapFrame) error {
	d.ctx.R[0] = int(d.parent)
	return k.makeReady(d)
}

func (k *Kernel) sysYield(d *descriptor, _ *trapFrame) error {
	return k.makeReady(d)
}

func (k *Kernel) sysExit(d *descriptor, _ *trapFrame) error {
	return k.destroy(d)
}
