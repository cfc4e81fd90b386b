package clock

import (
	"railos/client"
	"railos/kernel"
	"railos/proto"
)

// Time returns the clock server's tick count.
func Time(t *kernel.Task, clk kernel.TID) (uint32, error) {
	return call(t, clk, proto.MsgTime, nil)
}

// Delay blocks for ticks timer ticks and returns the time it woke at.
func Delay(t *kernel.Task, clk kernel.TID, ticks uint32) (uint32, error) {
	return call(t, clk, proto.MsgDelay, proto.TicksPayload(ticks))
}

// DelayUntil blocks until the tick count reaches deadline. A deadline in the
// past returns at once.
func DelayUntil(t *kernel.Task, clk kernel.TID, deadline uint32) (uint32, error) {
	return call(t, clk, proto.MsgDelayUntil, proto.TicksPayload(deadline))
}

func call(t *kernel.Task, clk kernel.TID, kind proto.Kind, payload []byte) (uint32, error) {
	reply, err := client.Call(t, clk, kind, payload)
	if err != nil {
		return 0, err
	}
	now, ok := proto.DecodeTicksPayload(reply)
	if !ok {
		return 0, proto.ErrBadMessage
	}
	return now, nil
}
