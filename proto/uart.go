package proto

// MaxPuts is the largest MsgPuts payload.
const MaxPuts = MaxMessage - 1

// CharPayload encodes a MsgPutc request or a MsgGetc reply.
func CharPayload(c byte) []byte { return []byte{c} }

// DecodeCharPayload decodes a CharPayload.
func DecodeCharPayload(payload []byte) (byte, bool) {
	if len(payload) < 1 {
		return 0, false
	}
	return payload[0], true
}

// CountPayload encodes how many bytes a line server read from its device for
// a MsgRXReady notification.
//
// Layout:
//   - u8: count, saturating at 255
func CountPayload(n int) []byte {
	if n > 0xFF {
		n = 0xFF
	}
	if n < 0 {
		n = 0
	}
	return []byte{byte(n)}
}
