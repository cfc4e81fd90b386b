package kernel

// Event is a hardware condition a task can block on.
type Event uint8

const (
	EventTimerTick Event = iota
	EventTrainRX
	EventTrainTX
	EventTrainCTS
	EventTermRX
	EventTermTX
	NumEvents
)

func (e Event) String() string {
	switch e {
	case EventTimerTick:
		return "timer_tick"
	case EventTrainRX:
		return "train_rx"
	case EventTrainTX:
		return "train_tx"
	case EventTrainCTS:
		return "train_cts"
	case EventTermRX:
		return "term_rx"
	case EventTermTX:
		return "term_tx"
	default:
		return "unknown"
	}
}

// Valid reports whether e names a known event.
func (e Event) Valid() bool { return e < NumEvents }

// InterruptController is the part of the interrupt hardware the dispatcher
// drives: unmask a source, read the next pending source, write EOI.
// Signal fires whenever a source is raised and backs WaitForInterrupt.
type InterruptController interface {
	Enable(src int)
	Pending() (int, bool)
	Ack(src int)
	Signal() <-chan struct{}
}

// InterruptHandler services one interrupt source and reports the event it
// produced. ok is false when the source fired without an event to deliver.
type InterruptHandler func() (ev Event, data int, ok bool)

// latch holds one occurrence of an event nobody was waiting for.
type latch struct {
	set  bool
	data int
}

func (k *Kernel) sysAwaitEvent(d *descriptor, _ *trapFrame) error {
	if d.ctx.R[0] < 0 || d.ctx.R[0] >= int(NumEvents) {
		d.ctx.R[0] = AwaitInvalidEvent
		return k.makeReady(d)
	}
	ev := Event(d.ctx.R[0])
	if l := &k.latches[ev]; l.set {
		d.ctx.R[0] = l.data
		*l = latch{}
		return k.makeReady(d)
	}
	d.event = ev
	d.status = StatusEventBlocked
	if !k.q.push(k.qEvent(ev), d.tid) {
		return k.corrupt(d.tid)
	}
	return nil
}

// signal delivers one occurrence of ev: every waiter wakes with data, or the
// latch keeps it until the next AwaitEvent. An occurrence that finds the
// latch already set would be lost and halts the kernel.
func (k *Kernel) signal(ev Event, data int) error {
	if !ev.Valid() {
		return &FatalError{Cause: ErrBadEvent, TID: NoTID, Event: ev}
	}
	q := k.qEvent(ev)
	if k.q.len(q) == 0 {
		l := &k.latches[ev]
		if l.set {
			return &FatalError{Cause: ErrDoubleMiss, TID: NoTID, Event: ev, Value: data}
		}
		*l = latch{set: true, data: data}
		return nil
	}
	for {
		tid, ok := k.q.pop(q)
		if !ok {
			return nil
		}
		w := &k.tasks[tid]
		w.ctx.R[0] = data
		if err := k.makeReady(w); err != nil {
			return err
		}
	}
}
