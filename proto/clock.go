package proto

import "encoding/binary"

// TicksPayload encodes a tick count: the argument of MsgDelay, MsgDelayUntil
// and MsgTick, and the reply to every clock request.
//
// Layout (little-endian):
//   - u32: ticks
func TicksPayload(ticks uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, ticks)
	return buf
}

// DecodeTicksPayload decodes a TicksPayload.
func DecodeTicksPayload(payload []byte) (uint32, bool) {
	if len(payload) < 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(payload), true
}
