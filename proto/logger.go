package proto

// LogLinePayload encodes a MsgLogLine payload.
//
// Convention:
// - Payload is UTF-8 bytes without a trailing newline.
// - Lines longer than the message limit are cut.
func LogLinePayload(b []byte) []byte {
	if len(b) > MaxMessage-1 {
		b = b[:MaxMessage-1]
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}
