package proto

// ErrCode is the status byte of every reply. Codes other than OK are errors
// and compare equal with errors.Is.
type ErrCode uint8

const (
	OK ErrCode = iota
	ErrBadMessage
	ErrNotFound
	ErrOverflow
	ErrTooLarge
	ErrInternal
)

func (c ErrCode) String() string {
	switch c {
	case OK:
		return "ok"
	case ErrBadMessage:
		return "bad_message"
	case ErrNotFound:
		return "not_found"
	case ErrOverflow:
		return "overflow"
	case ErrTooLarge:
		return "too_large"
	case ErrInternal:
		return "internal"
	default:
		return "unknown"
	}
}

func (c ErrCode) Error() string { return "proto: " + c.String() }
