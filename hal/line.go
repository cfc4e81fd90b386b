package hal

import (
	"io"
	"sync"
	"time"
)

// LineConfig describes one serial line and the interrupt sources it drives.
type LineConfig struct {
	Name string

	RX  int
	TX  int
	CTS int // -1 for a line without flow control

	// CTSDelay is how long the far end holds CTS low after each byte.
	CTSDelay time.Duration

	// Out receives every transmitted byte.
	Out io.Writer

	// RXBuffer is the receive FIFO depth; bytes beyond it are dropped.
	RXBuffer int
}

const defaultRXBuffer = 256

// Line is a UART with a receive FIFO. Device code pushes incoming bytes with
// Feed; the OS side reads them with ReadByte.
type Line struct {
	cfg LineConfig
	ic  InterruptController

	mu   sync.Mutex
	rx   []byte
	head int
	n    int
	cts  bool

	sent    uint64
	dropped uint64
}

func NewLine(ic InterruptController, cfg LineConfig) *Line {
	if cfg.RXBuffer <= 0 {
		cfg.RXBuffer = defaultRXBuffer
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	return &Line{
		cfg: cfg,
		ic:  ic,
		rx:  make([]byte, cfg.RXBuffer),
		cts: true,
	}
}

func (l *Line) Name() string { return l.cfg.Name }

// Feed delivers bytes arriving on the wire. It raises the RX interrupt when
// the FIFO was empty and returns how many bytes were accepted.
func (l *Line) Feed(p []byte) int {
	l.mu.Lock()
	wasEmpty := l.n == 0
	accepted := 0
	for _, b := range p {
		if l.n == len(l.rx) {
			l.dropped++
			continue
		}
		l.rx[(l.head+l.n)%len(l.rx)] = b
		l.n++
		accepted++
	}
	l.mu.Unlock()

	if wasEmpty && accepted > 0 {
		l.ic.Raise(l.cfg.RX)
	}
	return accepted
}

func (l *Line) ReadByte() (byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.n == 0 {
		return 0, ErrNoData
	}
	b := l.rx[l.head]
	l.head = (l.head + 1) % len(l.rx)
	l.n--
	return b, nil
}

func (l *Line) Buffered() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n
}

func (l *Line) CTS() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cts
}

// WriteByte transmits b and raises TX. On a flow controlled line CTS drops
// for CTSDelay and its return raises the CTS interrupt.
func (l *Line) WriteByte(b byte) error {
	flow := l.cfg.CTS >= 0
	l.mu.Lock()
	if flow && !l.cts {
		l.mu.Unlock()
		return ErrNotClearToSend
	}
	if flow {
		l.cts = false
	}
	l.sent++
	l.mu.Unlock()

	if _, err := l.cfg.Out.Write([]byte{b}); err != nil {
		return err
	}
	l.ic.Raise(l.cfg.TX)
	if flow {
		time.AfterFunc(l.cfg.CTSDelay, l.assertCTS)
	}
	return nil
}

func (l *Line) assertCTS() {
	l.mu.Lock()
	l.cts = true
	l.mu.Unlock()
	l.ic.Raise(l.cfg.CTS)
}

// Stats returns the number of bytes sent and the number of received bytes
// dropped on a full FIFO.
func (l *Line) Stats() (sent, dropped uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sent, l.dropped
}
