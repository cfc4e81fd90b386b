package logger

import (
	"railos/hal"
	"railos/kernel"
	"railos/proto"
)

// Service writes the lines it receives to the HAL console.
type Service struct {
	log hal.Logger
}

func New(log hal.Logger) *Service {
	return &Service{log: log}
}

func (s *Service) Run(t *kernel.Task) {
	buf := make([]byte, proto.MaxMessage)
	for {
		from, n := t.Receive(buf)
		kind, payload, ok := proto.DecodeRequest(buf[:min(n, len(buf))])
		if !ok || kind != proto.MsgLogLine {
			t.Reply(from, proto.Reply(proto.ErrBadMessage, nil))
			continue
		}
		if s.log != nil {
			s.log.WriteLineBytes(payload)
		}
		t.Reply(from, proto.Reply(proto.OK, nil))
	}
}
