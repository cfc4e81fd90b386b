package hal

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func newTestLine(ic *Controller, cfg LineConfig) *Line {
	for _, src := range []int{cfg.RX, cfg.TX, cfg.CTS} {
		if src >= 0 {
			ic.Enable(src)
		}
	}
	return NewLine(ic, cfg)
}

func TestLineRaisesRXOnEmptyEdge(t *testing.T) {
	ic := NewController()
	l := newTestLine(ic, LineConfig{Name: "term", RX: IRQTermRX, TX: IRQTermTX, CTS: -1})

	if n := l.Feed([]byte("ab")); n != 2 {
		t.Fatalf("Feed() = %d, want 2", n)
	}
	if src, ok := ic.Pending(); !ok || src != IRQTermRX {
		t.Fatalf("Pending() = %d, %v, want %d, true", src, ok, IRQTermRX)
	}
	ic.Ack(IRQTermRX)

	l.Feed([]byte("c"))
	if _, ok := ic.Pending(); ok {
		t.Fatal("Feed into a non-empty FIFO raised RX")
	}

	var got []byte
	for {
		b, err := l.ReadByte()
		if errors.Is(err, ErrNoData) {
			break
		}
		if err != nil {
			t.Fatalf("ReadByte() error = %v", err)
		}
		got = append(got, b)
	}
	if string(got) != "abc" {
		t.Fatalf("read %q, want %q", got, "abc")
	}

	l.Feed([]byte("d"))
	if src, ok := ic.Pending(); !ok || src != IRQTermRX {
		t.Fatalf("Pending() after drain = %d, %v, want %d, true", src, ok, IRQTermRX)
	}
}

func TestLineDropsOnFullFIFO(t *testing.T) {
	ic := NewController()
	l := newTestLine(ic, LineConfig{RX: IRQTermRX, TX: IRQTermTX, CTS: -1, RXBuffer: 4})

	if n := l.Feed([]byte("123456")); n != 4 {
		t.Fatalf("Feed() = %d, want 4", n)
	}
	if got := l.Buffered(); got != 4 {
		t.Fatalf("Buffered() = %d, want 4", got)
	}
	if _, dropped := l.Stats(); dropped != 2 {
		t.Fatalf("dropped = %d, want 2", dropped)
	}

	// The ring wraps after a partial drain.
	l.ReadByte()
	l.ReadByte()
	l.Feed([]byte("78"))
	var got []byte
	for l.Buffered() > 0 {
		b, _ := l.ReadByte()
		got = append(got, b)
	}
	if string(got) != "3478" {
		t.Fatalf("read %q, want %q", got, "3478")
	}
}

func TestLineWriteRaisesTX(t *testing.T) {
	ic := NewController()
	var out bytes.Buffer
	l := newTestLine(ic, LineConfig{RX: IRQTermRX, TX: IRQTermTX, CTS: -1, Out: &out})

	for _, b := range []byte("hi") {
		if err := l.WriteByte(b); err != nil {
			t.Fatalf("WriteByte(%q) error = %v", b, err)
		}
	}
	if out.String() != "hi" {
		t.Fatalf("out = %q, want %q", out.String(), "hi")
	}
	if src, ok := ic.Pending(); !ok || src != IRQTermTX {
		t.Fatalf("Pending() = %d, %v, want %d, true", src, ok, IRQTermTX)
	}
	if !l.CTS() {
		t.Fatal("CTS() = false on a line without flow control")
	}
	if sent, _ := l.Stats(); sent != 2 {
		t.Fatalf("sent = %d, want 2", sent)
	}
}

func TestLineFlowControl(t *testing.T) {
	ic := NewController()
	l := newTestLine(ic, LineConfig{
		RX:       IRQTrainRX,
		TX:       IRQTrainTX,
		CTS:      IRQTrainCTS,
		CTSDelay: 20 * time.Millisecond,
	})

	if err := l.WriteByte(0x60); err != nil {
		t.Fatalf("WriteByte() error = %v", err)
	}
	if l.CTS() {
		t.Fatal("CTS() = true right after a byte")
	}
	if err := l.WriteByte(0x61); !errors.Is(err, ErrNotClearToSend) {
		t.Fatalf("WriteByte() with CTS low error = %v, want %v", err, ErrNotClearToSend)
	}
	ic.Ack(IRQTrainTX)

	deadline := time.After(testTimeout)
	for {
		src, ok := ic.Pending()
		if ok && src == IRQTrainCTS {
			break
		}
		select {
		case <-ic.Signal():
		case <-deadline:
			t.Fatal("CTS interrupt never raised")
		}
	}
	if !l.CTS() {
		t.Fatal("CTS() = false after the CTS interrupt")
	}
	if err := l.WriteByte(0x61); err != nil {
		t.Fatalf("WriteByte() after CTS error = %v", err)
	}
}
