package app

import (
	"strconv"

	"railos/client/clock"
	"railos/client/uart"
	"railos/hal"
	"railos/kernel"

	"go.uber.org/zap"
)

// sensorTask polls the s88 modules every poll ticks and reports each contact
// that fired since the last poll on the terminal, as module letter and
// contact number ("C7").
func sensorTask(ns kernel.TID, modules int, poll uint32, log *zap.Logger) func(*kernel.Task) {
	return func(t *kernel.Task) {
		train := lookup(t, ns, NameTrain)
		term := lookup(t, ns, NameTerm)
		clk := lookup(t, ns, NameClock)

		if err := uart.Putc(t, train, hal.MarklinResetOn); err != nil {
			log.Warn("sensor reset mode", zap.Error(err))
			return
		}
		next, err := clock.Time(t, clk)
		if err != nil {
			log.Warn("clock", zap.Error(err))
			return
		}
		for {
			next += poll
			if _, err := clock.DelayUntil(t, clk, next); err != nil {
				log.Warn("clock", zap.Error(err))
				return
			}
			report, err := readSensors(t, train, modules)
			if err != nil {
				log.Warn("sensor dump", zap.Error(err))
				return
			}
			for _, s := range decodeSensors(report) {
				uart.Printf(t, term, "sensor %s\r\n", s)
			}
		}
	}
}

func readSensors(t *kernel.Task, train kernel.TID, modules int) ([]byte, error) {
	if err := uart.Putc(t, train, byte(0x80+modules)); err != nil {
		return nil, err
	}
	report := make([]byte, 2*modules)
	for i := range report {
		b, err := uart.Getc(t, train)
		if err != nil {
			return nil, err
		}
		report[i] = b
	}
	return report, nil
}

// decodeSensors lists the contacts set in a dump, two bytes per module with
// contact 1 in the high bit of the first byte.
func decodeSensors(report []byte) []string {
	var out []string
	for m := 0; m+1 < len(report); m += 2 {
		bits := uint16(report[m])<<8 | uint16(report[m+1])
		for c := 1; c <= 16; c++ {
			if bits&(1<<uint(16-c)) != 0 {
				out = append(out, string(rune('A'+m/2))+strconv.Itoa(c))
			}
		}
	}
	return out
}
