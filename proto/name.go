package proto

import "encoding/binary"

// MaxNameLen bounds a registered name.
const MaxNameLen = 32

// NamePayload encodes a MsgRegisterAs or MsgWhoIs payload.
//
// Layout:
//   - bytes: name, not terminated
func NamePayload(name string) ([]byte, error) {
	if name == "" {
		return nil, ErrBadMessage
	}
	if len(name) > MaxNameLen {
		return nil, ErrTooLarge
	}
	return []byte(name), nil
}

// DecodeNamePayload decodes a NamePayload.
func DecodeNamePayload(payload []byte) (string, bool) {
	if len(payload) == 0 || len(payload) > MaxNameLen {
		return "", false
	}
	return string(payload), true
}

// TIDPayload encodes a MsgWhoIs reply payload.
//
// Layout (little-endian):
//   - i32: tid
func TIDPayload(tid int32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(tid))
	return buf
}

// DecodeTIDPayload decodes a TIDPayload.
func DecodeTIDPayload(payload []byte) (int32, bool) {
	if len(payload) < 4 {
		return 0, false
	}
	return int32(binary.LittleEndian.Uint32(payload)), true
}
