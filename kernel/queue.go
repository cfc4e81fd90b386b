package kernel

// qid names one queue in the queue table.
type qid int32

const (
	noQueue qid   = -1
	noNode  int32 = -1
)

// qnode is the single link node each task owns. A task sits on at most one
// queue at a time, so one node per tid serves the free list, the ready
// levels, every mailbox and every event wait queue.
type qnode struct {
	next  int32
	prev  int32
	owner qid
}

type qhead struct {
	head int32
	tail int32
	n    int32
}

// queueTable is a fixed set of doubly linked FIFO queues threaded through
// per-task nodes. Nothing allocates after newQueueTable.
type queueTable struct {
	nodes []qnode
	heads []qhead
}

func newQueueTable(tasks, queues int) queueTable {
	t := queueTable{
		nodes: make([]qnode, tasks),
		heads: make([]qhead, queues),
	}
	for i := range t.nodes {
		t.nodes[i] = qnode{next: noNode, prev: noNode, owner: noQueue}
	}
	for i := range t.heads {
		t.heads[i] = qhead{head: noNode, tail: noNode}
	}
	return t
}

// push appends tid to the tail of q. It reports false when tid is already
// queued somewhere.
func (t *queueTable) push(q qid, tid TID) bool {
	n := &t.nodes[tid]
	if n.owner != noQueue {
		return false
	}
	h := &t.heads[q]
	n.owner = q
	n.next = noNode
	n.prev = h.tail
	if h.tail == noNode {
		h.head = int32(tid)
	} else {
		t.nodes[h.tail].next = int32(tid)
	}
	h.tail = int32(tid)
	h.n++
	return true
}

// pop removes the head of q.
func (t *queueTable) pop(q qid) (TID, bool) {
	h := &t.heads[q]
	if h.head == noNode {
		return NoTID, false
	}
	tid := TID(h.head)
	t.unlink(tid)
	return tid, true
}

func (t *queueTable) peek(q qid) (TID, bool) {
	h := t.heads[q]
	if h.head == noNode {
		return NoTID, false
	}
	return TID(h.head), true
}

// remove takes tid off whichever queue holds it and returns that queue.
func (t *queueTable) remove(tid TID) qid {
	q := t.nodes[tid].owner
	if q == noQueue {
		return noQueue
	}
	t.unlink(tid)
	return q
}

func (t *queueTable) unlink(tid TID) {
	n := &t.nodes[tid]
	h := &t.heads[n.owner]
	if n.prev == noNode {
		h.head = n.next
	} else {
		t.nodes[n.prev].next = n.next
	}
	if n.next == noNode {
		h.tail = n.prev
	} else {
		t.nodes[n.next].prev = n.prev
	}
	h.n--
	*n = qnode{next: noNode, prev: noNode, owner: noQueue}
}

// splice moves every node of src to the tail of dst, keeping order.
func (t *queueTable) splice(dst, src qid) {
	s := &t.heads[src]
	if s.head == noNode {
		return
	}
	for i := s.head; i != noNode; i = t.nodes[i].next {
		t.nodes[i].owner = dst
	}
	d := &t.heads[dst]
	if d.tail == noNode {
		d.head = s.head
	} else {
		t.nodes[d.tail].next = s.head
		t.nodes[s.head].prev = d.tail
	}
	d.tail = s.tail
	d.n += s.n
	*s = qhead{head: noNode, tail: noNode}
}

func (t *queueTable) owner(tid TID) qid { return t.nodes[tid].owner }

func (t *queueTable) len(q qid) int { return int(t.heads[q].n) }

// each visits the members of q from head to tail.
func (t *queueTable) each(q qid, fn func(TID)) {
	for i := t.heads[q].head; i != noNode; {
		next := t.nodes[i].next
		fn(TID(i))
		i = next
	}
}
