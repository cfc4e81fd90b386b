//go:build tinygo

package main

import (
	"context"

	"railos/app"
	"railos/hal"
)

func main() {
	h := hal.New(hal.Config{})
	err := app.Run(context.Background(), h, app.Config{SensorPoll: 10})
	if l := h.Logger(); l != nil && err != nil {
		l.WriteLineString("railos: " + err.Error())
	}
	select {}
}
