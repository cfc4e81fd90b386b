package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	logclient "railos/client/logger"
	"railos/kernel"
	"railos/proto"
)

type lines []string

func (l *lines) WriteLineString(s string) { *l = append(*l, s) }
func (l *lines) WriteLineBytes(b []byte)  { *l = append(*l, string(b)) }

func TestLinesReachTheConsole(t *testing.T) {
	var got lines
	var badErr error
	k, err := kernel.New(kernel.Config{MaxTasks: 4, MaxPriority: 4})
	if err != nil {
		t.Fatalf("kernel.New() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = k.Run(ctx, 1, func(boot *kernel.Task) {
		srv := boot.Create(2, New(&got).Run)
		logclient.Log(boot, srv, "track power on")
		logclient.Logf(boot, srv, "train %d speed %d", 24, 10)

		buf := make([]byte, 4)
		n := boot.Send(srv, proto.Request(proto.MsgTime, nil), buf)
		_, badErr = proto.DecodeReply(buf[:n])
	})
	if !errors.Is(err, kernel.ErrNoReadyTask) {
		t.Fatalf("Run() error = %v, want %v", err, kernel.ErrNoReadyTask)
	}

	want := []string{"track power on", "train 24 speed 10"}
	if len(got) != len(want) {
		t.Fatalf("lines = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("lines = %q, want %q", got, want)
		}
	}
	if !errors.Is(badErr, proto.ErrBadMessage) {
		t.Fatalf("unknown request error = %v, want %v", badErr, proto.ErrBadMessage)
	}
}
