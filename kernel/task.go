package kernel

import (
	"reflect"

	"go.uber.org/zap"
)

// TID identifies a task. It is also the index of the task's descriptor slot
// and may be handed out again once the task has exited.
type TID int

// NoTID is the parent of the boot task.
const NoTID TID = -1

// Status is the scheduling state of a task descriptor.
type Status uint8

const (
	// StatusExited marks a free slot. It is the zero value.
	StatusExited Status = iota
	StatusReady
	StatusActive
	StatusSendBlocked
	StatusReceiveBlocked
	StatusReplyBlocked
	StatusEventBlocked
)

func (s Status) String() string {
	switch s {
	case StatusExited:
		return "exited"
	case StatusReady:
		return "ready"
	case StatusActive:
		return "active"
	case StatusSendBlocked:
		return "send_blocked"
	case StatusReceiveBlocked:
		return "receive_blocked"
	case StatusReplyBlocked:
		return "reply_blocked"
	case StatusEventBlocked:
		return "event_blocked"
	default:
		return "unknown"
	}
}

// PSRUser is the processor status a task starts with (ARM user mode, IRQs
// enabled).
const PSRUser uint32 = 0x10

// Context is the saved user-mode state of a task. R0 carries the syscall
// result back to the task; R1 carries Receive's sender tid.
type Context struct {
	R   [4]int
	SP  uintptr
	LR  uintptr
	PC  uintptr
	PSR uint32
}

// peer names one incarnation of a task slot.
type peer struct {
	tid TID
	gen uint32
}

type descriptor struct {
	tid      TID
	gen      uint32
	priority int
	parent   TID
	status   Status
	ctx      Context
	stack    int

	resume chan struct{}

	// Rendezvous view. msg and reply are the sender's buffers and stay valid
	// while it is send or reply blocked; recv is a blocked receiver's buffer.
	msg   []byte
	reply []byte
	recv  []byte
	peer  peer
	event Event
}

func (d *descriptor) self() peer { return peer{tid: d.tid, gen: d.gen} }

func (d *descriptor) clearView() {
	d.msg = nil
	d.reply = nil
	d.recv = nil
	d.peer = peer{tid: NoTID}
}

var trampolinePC = funcPC((*Task).Exit)

func funcPC(fn any) uintptr {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return 0
	}
	return v.Pointer()
}

// lookup returns the live task named by tid.
func (k *Kernel) lookup(tid TID) *descriptor {
	if tid < 0 || int(tid) >= len(k.tasks) {
		return nil
	}
	d := &k.tasks[tid]
	if d.status == StatusExited {
		return nil
	}
	return d
}

// create claims a free slot for a new task. It runs either at boot or on
// behalf of the Create syscall.
func (k *Kernel) create(parent TID, priority int, entry func(*Task)) TID {
	if priority < 0 || priority >= k.cfg.MaxPriority || entry == nil {
		return CreateInvalidPriority
	}
	tid, ok := k.q.peek(k.qFree)
	if !ok {
		return CreateNoDescriptors
	}
	blk, ok := k.stacks.alloc()
	if !ok {
		return CreateNoDescriptors
	}
	k.q.pop(k.qFree)

	d := &k.tasks[tid]
	d.gen++
	d.priority = priority
	d.parent = parent
	d.stack = blk
	d.ctx = Context{
		SP:  k.stacks.top(blk),
		LR:  trampolinePC,
		PC:  funcPC(entry),
		PSR: PSRUser,
	}
	d.clearView()
	d.status = StatusReady
	k.ready.push(tid, priority)
	k.launch(d, entry)

	k.log.Debug("task created",
		zap.Int("tid", int(tid)),
		zap.Int("parent", int(parent)),
		zap.Int("priority", priority),
		zap.Uint32("gen", d.gen))
	return tid
}

// destroy returns the active task's slot to the free list.
func (k *Kernel) destroy(d *descriptor) error {
	k.ready.remove(d.tid)
	k.q.remove(d.tid)
	// Senders still waiting on this receiver stay blocked for good; park them
	// where a later occupant of the slot cannot receive from them.
	k.q.splice(k.qOrphan, k.qMailbox(d.tid))
	k.stacks.free(d.stack)
	d.stack = -1
	d.clearView()
	d.status = StatusExited
	if !k.q.push(k.qFree, d.tid) {
		return k.corrupt(d.tid)
	}
	k.log.Debug("task exited", zap.Int("tid", int(d.tid)), zap.Uint32("gen", d.gen))
	return nil
}

// makeReady queues d at the tail of its priority level.
func (k *Kernel) makeReady(d *descriptor) error {
	d.status = StatusReady
	if !k.ready.push(d.tid, d.priority) {
		return k.corrupt(d.tid)
	}
	return nil
}
