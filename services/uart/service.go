// Package uart is the IO server for one serial line. Notifier tasks turn the
// line's interrupts into messages; the server owns the device and keeps the
// receive and transmit buffers.
//
// The server writes a byte only when the previous one has been reported sent
// and, on a flow controlled line, after CTS has come back. Each byte therefore
// produces at most one TX and one CTS interrupt, which the notifiers consume
// before the next byte goes out.
package uart

import (
	"errors"

	"railos/hal"
	"railos/kernel"
	"railos/proto"

	"go.uber.org/zap"
)

type Config struct {
	Name string

	RX  kernel.Event
	TX  kernel.Event
	CTS kernel.Event

	// FlowControl gates transmission on CTS as well as TX.
	FlowControl bool

	NotifierPriority int

	RXBuffer int
	TXBuffer int

	// MaxWaiters bounds the tasks blocked in Getc or in a full Putc.
	MaxWaiters int
}

func (c *Config) setDefaults() {
	if c.RXBuffer <= 0 {
		c.RXBuffer = 256
	}
	if c.TXBuffer <= 0 {
		c.TXBuffer = 1024
	}
	if c.MaxWaiters <= 0 {
		c.MaxWaiters = 32
	}
}

type writer struct {
	tid  kernel.TID
	data []byte
}

// Stats counts line traffic.
type Stats struct {
	Received uint64
	Sent     uint64
	Dropped  uint64
}

type Service struct {
	cfg Config
	log *zap.Logger
	dev hal.UART

	rx      ring
	tx      ring
	getters []kernel.TID
	writers []writer

	txReady  bool
	ctsReady bool

	stats Stats
}

func New(log *zap.Logger, dev hal.UART, cfg Config) *Service {
	cfg.setDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		cfg: cfg,
		log: log.Named("uart").With(zap.String("line", cfg.Name)),
		dev: dev,
		rx:  newRing(cfg.RXBuffer),
		tx:  newRing(cfg.TXBuffer),
	}
}

func (s *Service) Run(t *kernel.Task) {
	me := t.MyTid()
	s.txReady = true
	s.ctsReady = !s.cfg.FlowControl || s.dev.CTS()

	s.spawn(t, me, s.cfg.RX, proto.MsgRXReady)
	s.spawn(t, me, s.cfg.TX, proto.MsgTXReady)
	if s.cfg.FlowControl {
		s.spawn(t, me, s.cfg.CTS, proto.MsgCTSReady)
	}
	s.log.Info("serving", zap.Int("tid", int(me)), zap.Bool("flow_control", s.cfg.FlowControl))

	buf := make([]byte, proto.MaxMessage)
	for {
		from, n := t.Receive(buf)
		if n > len(buf) {
			t.Reply(from, proto.Reply(proto.ErrTooLarge, nil))
			continue
		}
		s.handle(t, from, buf[:n])
	}
}

func (s *Service) spawn(t *kernel.Task, server kernel.TID, ev kernel.Event, kind proto.Kind) {
	if tid := t.Create(s.cfg.NotifierPriority, notifier(server, ev, kind)); tid < 0 {
		s.log.Error("notifier not started", zap.Stringer("event", ev), zap.Int("code", int(tid)))
	}
}

func (s *Service) handle(t *kernel.Task, from kernel.TID, msg []byte) {
	kind, payload, ok := proto.DecodeRequest(msg)
	if !ok {
		t.Reply(from, proto.Reply(proto.ErrBadMessage, nil))
		return
	}

	switch kind {
	case proto.MsgRXReady:
		t.Reply(from, proto.Reply(proto.OK, nil))
		s.receive()
		s.serveGetters(t)
	case proto.MsgTXReady:
		t.Reply(from, proto.Reply(proto.OK, nil))
		s.txReady = true
		s.transmit(t)
	case proto.MsgCTSReady:
		t.Reply(from, proto.Reply(proto.OK, nil))
		s.ctsReady = true
		s.transmit(t)
	case proto.MsgGetc:
		if b, ok := s.rx.pop(); ok {
			t.Reply(from, proto.Reply(proto.OK, proto.CharPayload(b)))
			return
		}
		if len(s.getters) >= s.cfg.MaxWaiters {
			t.Reply(from, proto.Reply(proto.ErrOverflow, nil))
			return
		}
		s.getters = append(s.getters, from)
	case proto.MsgPutc, proto.MsgPuts:
		if len(payload) == 0 {
			t.Reply(from, proto.Reply(proto.OK, nil))
			return
		}
		if len(s.writers) == 0 && s.tx.free() >= len(payload) {
			for _, b := range payload {
				s.tx.push(b)
			}
			t.Reply(from, proto.Reply(proto.OK, nil))
		} else {
			if len(s.writers) >= s.cfg.MaxWaiters {
				t.Reply(from, proto.Reply(proto.ErrOverflow, nil))
				return
			}
			s.writers = append(s.writers, writer{tid: from, data: append([]byte(nil), payload...)})
		}
		s.transmit(t)
	default:
		t.Reply(from, proto.Reply(proto.ErrBadMessage, nil))
	}
}

// receive moves everything the device holds into the receive buffer. The
// device raises RX again only once it has been emptied.
func (s *Service) receive() {
	for {
		b, err := s.dev.ReadByte()
		if err != nil {
			return
		}
		s.stats.Received++
		if !s.rx.push(b) {
			s.stats.Dropped++
		}
	}
}

func (s *Service) serveGetters(t *kernel.Task) {
	for len(s.getters) > 0 {
		b, ok := s.rx.pop()
		if !ok {
			return
		}
		t.Reply(s.getters[0], proto.Reply(proto.OK, proto.CharPayload(b)))
		s.getters = s.getters[1:]
	}
}

func (s *Service) transmit(t *kernel.Task) {
	s.admitWriters(t)
	if !s.txReady || !s.ctsReady {
		return
	}
	b, ok := s.tx.peek()
	if !ok {
		return
	}
	err := s.dev.WriteByte(b)
	switch {
	case errors.Is(err, hal.ErrNotClearToSend):
		// CTS interrupt is still to come.
		s.ctsReady = false
		return
	case err != nil:
		s.log.Warn("write failed; byte dropped", zap.Error(err))
		s.tx.pop()
	default:
		s.tx.pop()
		s.stats.Sent++
		s.txReady = false
		if s.cfg.FlowControl {
			s.ctsReady = false
		}
	}
	s.admitWriters(t)
}

// admitWriters moves blocked writers into the transmit buffer in arrival
// order and replies to each once all of its bytes are queued.
func (s *Service) admitWriters(t *kernel.Task) {
	for len(s.writers) > 0 {
		w := &s.writers[0]
		for len(w.data) > 0 && s.tx.push(w.data[0]) {
			w.data = w.data[1:]
		}
		if len(w.data) > 0 {
			return
		}
		t.Reply(w.tid, proto.Reply(proto.OK, nil))
		s.writers = s.writers[1:]
	}
}

// Stats returns the line counters. It is only meaningful from the server
// task or after the kernel has stopped.
func (s *Service) Stats() Stats { return s.stats }

// notifier turns each occurrence of ev into a kind message to the server.
func notifier(server kernel.TID, ev kernel.Event, kind proto.Kind) func(*kernel.Task) {
	return func(t *kernel.Task) {
		var ack [1]byte
		for {
			data := t.AwaitEvent(ev)
			if data < 0 {
				return
			}
			var payload []byte
			if kind == proto.MsgRXReady {
				payload = proto.CountPayload(data)
			}
			if t.Send(server, proto.Request(kind, payload), ack[:]) < 0 {
				return
			}
		}
	}
}
