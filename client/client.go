// Package client holds the request/reply plumbing shared by the per-server
// client packages.
package client

import (
	"errors"
	"fmt"

	"railos/kernel"
	"railos/proto"
)

var (
	ErrUnknownTID = errors.New("client: server task does not exist")
	ErrIncomplete = errors.New("client: transaction could not complete")
)

// Call sends kind and payload to tid, blocks until it replies and returns
// the reply payload. A reply carrying an error code is returned as that
// proto.ErrCode.
func Call(t *kernel.Task, tid kernel.TID, kind proto.Kind, payload []byte) ([]byte, error) {
	reply := make([]byte, proto.MaxMessage)
	n := t.Send(tid, proto.Request(kind, payload), reply)
	switch n {
	case kernel.SendUnknownTID:
		return nil, fmt.Errorf("%s to %d: %w", kind, tid, ErrUnknownTID)
	case kernel.SendIncomplete:
		return nil, fmt.Errorf("%s to %d: %w", kind, tid, ErrIncomplete)
	}
	out, err := proto.DecodeReply(reply[:n])
	if err != nil {
		return out, fmt.Errorf("%s: %w", kind, err)
	}
	return out, nil
}
