// Package proto defines the payloads servers and clients exchange over
// Send/Receive/Reply. A request is one kind byte followed by the payload; a
// reply is one ErrCode byte followed by the payload.
package proto

// MaxMessage bounds every request and reply, header included.
const MaxMessage = 256

// Kind identifies a request.
type Kind uint8

const (
	MsgRegisterAs Kind = iota + 1
	MsgWhoIs
	MsgTime
	MsgDelay
	MsgDelayUntil
	MsgTick
	MsgGetc
	MsgPutc
	MsgPuts
	MsgRXReady
	MsgTXReady
	MsgCTSReady
	MsgLogLine
)

func (k Kind) String() string {
	switch k {
	case MsgRegisterAs:
		return "register_as"
	case MsgWhoIs:
		return "who_is"
	case MsgTime:
		return "time"
	case MsgDelay:
		return "delay"
	case MsgDelayUntil:
		return "delay_until"
	case MsgTick:
		return "tick"
	case MsgGetc:
		return "getc"
	case MsgPutc:
		return "putc"
	case MsgPuts:
		return "puts"
	case MsgRXReady:
		return "rx_ready"
	case MsgTXReady:
		return "tx_ready"
	case MsgCTSReady:
		return "cts_ready"
	case MsgLogLine:
		return "log_line"
	default:
		return "unknown"
	}
}

// Request prefixes payload with kind.
func Request(kind Kind, payload []byte) []byte {
	buf := make([]byte, 1+len(payload))
	buf[0] = byte(kind)
	copy(buf[1:], payload)
	return buf
}

// DecodeRequest splits a received message.
func DecodeRequest(msg []byte) (kind Kind, payload []byte, ok bool) {
	if len(msg) < 1 || msg[0] == 0 {
		return 0, nil, false
	}
	return Kind(msg[0]), msg[1:], true
}

// Reply prefixes payload with code.
func Reply(code ErrCode, payload []byte) []byte {
	buf := make([]byte, 1+len(payload))
	buf[0] = byte(code)
	copy(buf[1:], payload)
	return buf
}

// DecodeReply splits a reply. A non-OK code is returned as the error.
func DecodeReply(msg []byte) (payload []byte, err error) {
	if len(msg) < 1 {
		return nil, ErrBadMessage
	}
	if code := ErrCode(msg[0]); code != OK {
		return msg[1:], code
	}
	return msg[1:], nil
}
