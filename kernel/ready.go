package kernel

import "math/bits"

// MaxPriorityLimit bounds Config.MaxPriority; one bit of the occupancy mask
// per level.
const MaxPriorityLimit = 64

// readyQueue holds exactly the tasks eligible to run, one FIFO per priority
// level. Higher numeric priority is dispatched first.
type readyQueue struct {
	q    *queueTable
	base qid
	mask uint64
}

func (r *readyQueue) level(prio int) qid { return r.base + qid(prio) }

func (r *readyQueue) push(tid TID, prio int) bool {
	if !r.q.push(r.level(prio), tid) {
		return false
	}
	r.mask |= 1 << uint(prio)
	return true
}

// pop returns the earliest queued task of the highest non-empty level.
func (r *readyQueue) pop() (TID, bool) {
	if r.mask == 0 {
		return NoTID, false
	}
	prio := bits.Len64(r.mask) - 1
	lvl := r.level(prio)
	tid, ok := r.q.pop(lvl)
	if r.q.len(lvl) == 0 {
		r.mask &^= 1 << uint(prio)
	}
	return tid, ok
}

// remove drops tid from its level if it is queued there.
func (r *readyQueue) remove(tid TID) bool {
	q := r.q.owner(tid)
	if q < r.base || q >= r.base+MaxPriorityLimit || r.mask&(1<<uint(q-r.base)) == 0 {
		return false
	}
	r.q.remove(tid)
	if r.q.len(q) == 0 {
		r.mask &^= 1 << uint(q-r.base)
	}
	return true
}

func (r *readyQueue) empty() bool { return r.mask == 0 }
