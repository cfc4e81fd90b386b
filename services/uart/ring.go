package uart

// ring is a fixed-size byte FIFO.
type ring struct {
	buf  []byte
	head int
	n    int
}

func newRing(size int) ring { return ring{buf: make([]byte, size)} }

func (r *ring) len() int  { return r.n }
func (r *ring) free() int { return len(r.buf) - r.n }

func (r *ring) push(b byte) bool {
	if r.n == len(r.buf) {
		return false
	}
	r.buf[(r.head+r.n)%len(r.buf)] = b
	r.n++
	return true
}

func (r *ring) peek() (byte, bool) {
	if r.n == 0 {
		return 0, false
	}
	return r.buf[r.head], true
}

func (r *ring) pop() (byte, bool) {
	b, ok := r.peek()
	if ok {
		r.head = (r.head + 1) % len(r.buf)
		r.n--
	}
	return b, ok
}
