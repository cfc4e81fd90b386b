package proto

import (
	"errors"
	"strings"
	"testing"
)

func TestRequestRoundTrip(t *testing.T) {
	msg := Request(MsgDelay, TicksPayload(250))
	kind, payload, ok := DecodeRequest(msg)
	if !ok || kind != MsgDelay {
		t.Fatalf("DecodeRequest() = %s, %v, want %s, true", kind, ok, MsgDelay)
	}
	if n, ok := DecodeTicksPayload(payload); !ok || n != 250 {
		t.Fatalf("DecodeTicksPayload() = %d, %v, want 250, true", n, ok)
	}

	if _, _, ok := DecodeRequest(nil); ok {
		t.Fatal("DecodeRequest(nil) ok = true")
	}
	if _, _, ok := DecodeRequest([]byte{0}); ok {
		t.Fatal("DecodeRequest(kind 0) ok = true")
	}
}

func TestDecodeReplyErrors(t *testing.T) {
	if _, err := DecodeReply(nil); !errors.Is(err, ErrBadMessage) {
		t.Fatalf("DecodeReply(nil) error = %v, want %v", err, ErrBadMessage)
	}
	payload, err := DecodeReply(Reply(ErrNotFound, nil))
	if !errors.Is(err, ErrNotFound) || len(payload) != 0 {
		t.Fatalf("DecodeReply() = %v, %v, want empty, %v", payload, err, ErrNotFound)
	}
	payload, err = DecodeReply(Reply(OK, TIDPayload(-1)))
	if err != nil {
		t.Fatalf("DecodeReply() error = %v", err)
	}
	if tid, ok := DecodeTIDPayload(payload); !ok || tid != -1 {
		t.Fatalf("DecodeTIDPayload() = %d, %v, want -1, true", tid, ok)
	}
}

func TestNamePayloadLimits(t *testing.T) {
	if _, err := NamePayload(""); !errors.Is(err, ErrBadMessage) {
		t.Fatalf("NamePayload(\"\") error = %v, want %v", err, ErrBadMessage)
	}
	long := strings.Repeat("x", MaxNameLen+1)
	if _, err := NamePayload(long); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("NamePayload(long) error = %v, want %v", err, ErrTooLarge)
	}
	p, err := NamePayload("clock")
	if err != nil {
		t.Fatalf("NamePayload() error = %v", err)
	}
	if name, ok := DecodeNamePayload(p); !ok || name != "clock" {
		t.Fatalf("DecodeNamePayload() = %q, %v, want clock, true", name, ok)
	}
	if _, ok := DecodeNamePayload([]byte(long)); ok {
		t.Fatal("DecodeNamePayload(long) ok = true")
	}
}

func TestLogLineIsCut(t *testing.T) {
	line := []byte(strings.Repeat("a", MaxMessage*2))
	if got := len(LogLinePayload(line)); got != MaxMessage-1 {
		t.Fatalf("len(LogLinePayload()) = %d, want %d", got, MaxMessage-1)
	}
	if got := CountPayload(1000); got[0] != 0xFF {
		t.Fatalf("CountPayload(1000) = %d, want 255", got[0])
	}
}
