// Package nameserver maps names to task ids. Servers register themselves at
// start-up and clients look them up once, so only the name server's own tid
// has to be passed around.
package nameserver

import (
	"railos/kernel"
	"railos/proto"

	"go.uber.org/zap"
)

// DefaultCapacity bounds the number of distinct names.
const DefaultCapacity = 64

type Service struct {
	log   *zap.Logger
	names map[string]kernel.TID
	limit int
}

func New(log *zap.Logger, capacity int) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Service{
		log:   log.Named("nameserver"),
		names: make(map[string]kernel.TID, capacity),
		limit: capacity,
	}
}

// Run is the server's task entry. It never returns.
func (s *Service) Run(t *kernel.Task) {
	s.log.Info("serving", zap.Int("tid", int(t.MyTid())))
	buf := make([]byte, proto.MaxMessage)
	for {
		from, n := t.Receive(buf)
		if n > len(buf) {
			t.Reply(from, proto.Reply(proto.ErrTooLarge, nil))
			continue
		}
		t.Reply(from, s.handle(from, buf[:n]))
	}
}

func (s *Service) handle(from kernel.TID, msg []byte) []byte {
	kind, payload, ok := proto.DecodeRequest(msg)
	if !ok {
		return proto.Reply(proto.ErrBadMessage, nil)
	}
	name, ok := proto.DecodeNamePayload(payload)
	if !ok {
		s.log.Debug("bad name", zap.Stringer("kind", kind), zap.Int("from", int(from)))
		return proto.Reply(proto.ErrBadMessage, nil)
	}

	switch kind {
	case proto.MsgRegisterAs:
		if _, exists := s.names[name]; !exists && len(s.names) >= s.limit {
			return proto.Reply(proto.ErrOverflow, nil)
		}
		if prev, exists := s.names[name]; exists && prev != from {
			s.log.Info("name rebound", zap.String("name", name), zap.Int("old", int(prev)), zap.Int("new", int(from)))
		}
		s.names[name] = from
		return proto.Reply(proto.OK, nil)
	case proto.MsgWhoIs:
		tid, exists := s.names[name]
		if !exists {
			return proto.Reply(proto.ErrNotFound, nil)
		}
		return proto.Reply(proto.OK, proto.TIDPayload(int32(tid)))
	default:
		return proto.Reply(proto.ErrBadMessage, nil)
	}
}
