package uart

import (
	"fmt"

	"railos/client"
	"railos/kernel"
	"railos/proto"
)

// Getc blocks until the line server has a received byte.
func Getc(t *kernel.Task, srv kernel.TID) (byte, error) {
	reply, err := client.Call(t, srv, proto.MsgGetc, nil)
	if err != nil {
		return 0, err
	}
	c, ok := proto.DecodeCharPayload(reply)
	if !ok {
		return 0, proto.ErrBadMessage
	}
	return c, nil
}

// Putc queues c for transmission. It blocks only while the server's transmit
// buffer is full.
func Putc(t *kernel.Task, srv kernel.TID, c byte) error {
	_, err := client.Call(t, srv, proto.MsgPutc, proto.CharPayload(c))
	return err
}

// Puts queues p for transmission, split into as many requests as needed.
func Puts(t *kernel.Task, srv kernel.TID, p []byte) error {
	for len(p) > 0 {
		chunk := p
		if len(chunk) > proto.MaxPuts {
			chunk = chunk[:proto.MaxPuts]
		}
		if _, err := client.Call(t, srv, proto.MsgPuts, chunk); err != nil {
			return err
		}
		p = p[len(chunk):]
	}
	return nil
}

// Printf formats and queues a string.
func Printf(t *kernel.Task, srv kernel.TID, format string, args ...any) error {
	return Puts(t, srv, []byte(fmt.Sprintf(format, args...)))
}
