// Package clock is the time server. A notifier task turns timer interrupts
// into messages; the server keeps the tick count and the list of delayed
// tasks, replying to each one when its deadline passes.
package clock

import (
	"railos/kernel"
	"railos/proto"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

type sleeper struct {
	due uint32
	tid kernel.TID
}

type Service struct {
	log          *zap.Logger
	notifierPrio int
	limit        int

	now      uint32
	sleepers []sleeper // ordered by due, FIFO among equal deadlines
}

// New returns a clock server whose notifier runs at notifierPrio. At most
// limit tasks can be delayed at once.
func New(log *zap.Logger, notifierPrio, limit int) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		log:          log.Named("clock"),
		notifierPrio: notifierPrio,
		limit:        limit,
		sleepers:     make([]sleeper, 0, limit),
	}
}

func (s *Service) Run(t *kernel.Task) {
	me := t.MyTid()
	if tid := t.Create(s.notifierPrio, notifier(me)); tid < 0 {
		s.log.Error("notifier not started", zap.Int("code", int(tid)))
		return
	}
	s.log.Info("serving", zap.Int("tid", int(me)))

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

func (s *Service) handle(t *kernel.Task, from kernel.TID, msg []byte) {
	kind, payload, ok := proto.DecodeRequest(msg)
	if !ok {
		t.Reply(from, proto.Reply(proto.ErrBadMessage, nil))
		return
	}
	if kind == proto.MsgTime {
		t.Reply(from, proto.Reply(proto.OK, proto.TicksPayload(s.now)))
		return
	}
	ticks, ok := proto.DecodeTicksPayload(payload)
	if !ok {
		t.Reply(from, proto.Reply(proto.ErrBadMessage, nil))
		return
	}

	switch kind {
	case proto.MsgTick:
		t.Reply(from, proto.Reply(proto.OK, nil))
		if ticks > s.now {
			s.now = ticks
		}
		s.wake(t)
	case proto.MsgDelay:
		s.sleep(t, from, s.now+ticks)
	case proto.MsgDelayUntil:
		s.sleep(t, from, ticks)
	default:
		t.Reply(from, proto.Reply(proto.ErrBadMessage, nil))
	}
}

func (s *Service) sleep(t *kernel.Task, tid kernel.TID, due uint32) {
	if due <= s.now {
		t.Reply(tid, proto.Reply(proto.OK, proto.TicksPayload(s.now)))
		return
	}
	if len(s.sleepers) >= s.limit {
		t.Reply(tid, proto.Reply(proto.ErrOverflow, nil))
		return
	}
	i, _ := slices.BinarySearchFunc(s.sleepers, due, func(e sleeper, due uint32) int {
		if e.due <= due {
			return -1
		}
		return 1
	})
	s.sleepers = slices.Insert(s.sleepers, i, sleeper{due: due, tid: tid})
}

func (s *Service) wake(t *kernel.Task) {
	n := 0
	for n < len(s.sleepers) && s.sleepers[n].due <= s.now {
		t.Reply(s.sleepers[n].tid, proto.Reply(proto.OK, proto.TicksPayload(s.now)))
		n++
	}
	if n > 0 {
		s.sleepers = slices.Delete(s.sleepers, 0, n)
	}
}

// notifier forwards every timer tick to the server. The event data is the
// hardware tick count.
func notifier(server kernel.TID) func(*kernel.Task) {
	return func(t *kernel.Task) {
		var ack [1]byte
		for {
			ticks := t.AwaitEvent(kernel.EventTimerTick)
			if ticks < 0 {
				return
			}
			msg := proto.Request(proto.MsgTick, proto.TicksPayload(uint32(ticks)))
			if t.Send(server, msg, ack[:]) < 0 {
				return
			}
		}
	}
}
