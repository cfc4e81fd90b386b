package kernel

import "context"

// TaskInfo is a copy of one live descriptor.
type TaskInfo struct {
	TID        TID     `yaml:"tid"`
	Parent     TID     `yaml:"parent"`
	Priority   int     `yaml:"priority"`
	Status     Status  `yaml:"-"`
	State      string  `yaml:"status"`
	Generation uint32  `yaml:"generation"`
	Context    Context `yaml:"-"`

	// Peer is the task a send or reply blocked task waits on.
	Peer TID `yaml:"peer"`
	// Event is set for event blocked tasks.
	Event string `yaml:"event,omitempty"`
	// Pending counts senders queued in this task's mailbox.
	Pending int `yaml:"pending,omitempty"`
	// StackBlock is the index of the task's stack in the arena.
	StackBlock int `yaml:"stack_block"`
}

// Snapshot is a consistent view of the kernel between two traps.
type Snapshot struct {
	Tasks   []TaskInfo `yaml:"tasks"`
	Latched []Event    `yaml:"-"`
	Free    int        `yaml:"free_slots"`
	Orphans int        `yaml:"orphaned_senders"`
	Stats   Stats      `yaml:"stats"`
}

// Inspect returns a snapshot of the task table. While Run is dispatching the
// request is served by the kernel goroutine between traps; before Run starts
// and after it returns the state is read directly.
func (k *Kernel) Inspect(ctx context.Context) (Snapshot, error) {
	if !k.started.Load() || k.done.Load() {
		return k.snapshot(), nil
	}
	reply := make(chan Snapshot, 1)
	select {
	case k.inspect <- reply:
	case <-k.halted:
		return k.snapshot(), nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (k *Kernel) snapshot() Snapshot {
	s := Snapshot{
		Free:    k.q.len(k.qFree),
		Orphans: k.q.len(k.qOrphan),
		Stats:   k.stats,
	}
	for i := range k.tasks {
		d := &k.tasks[i]
		if d.status == StatusExited {
			continue
		}
		info := TaskInfo{
			TID:        d.tid,
			Parent:     d.parent,
			Priority:   d.priority,
			Status:     d.status,
			State:      d.status.String(),
			Generation: d.gen,
			Context:    d.ctx,
			Peer:       NoTID,
			Pending:    k.q.len(k.qMailbox(d.tid)),
			StackBlock: d.stack,
		}
		switch d.status {
		case StatusSendBlocked, StatusReplyBlocked:
			info.Peer = d.peer.tid
		case StatusEventBlocked:
			info.Event = d.event.String()
		}
		s.Tasks = append(s.Tasks, info)
	}
	for ev := Event(0); ev < NumEvents; ev++ {
		if k.latches[ev].set {
			s.Latched = append(s.Latched, ev)
		}
	}
	return s
}
