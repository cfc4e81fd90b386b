package logger

import (
	"fmt"

	"railos/client"
	"railos/kernel"
	"railos/proto"
)

// Log sends a log line to the logger service and waits until it is written.
func Log(t *kernel.Task, srv kernel.TID, line string) error {
	_, err := client.Call(t, srv, proto.MsgLogLine, proto.LogLinePayload([]byte(line)))
	return err
}

func Logf(t *kernel.Task, srv kernel.TID, format string, args ...any) error {
	return Log(t, srv, fmt.Sprintf(format, args...))
}
