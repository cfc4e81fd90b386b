package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"railos/client/clock"
	"railos/client/logger"
	"railos/client/uart"
	"railos/hal"
	"railos/internal/buildinfo"
	"railos/kernel"

	"go.uber.org/zap"
)

const maxLine = 72

// console is the operator's command line on the terminal line.
type console struct {
	ns   kernel.TID
	tick time.Duration
	quit func()
	log  *zap.Logger

	term, train, clk, logsrv kernel.TID

	line   []byte
	lastCR bool
}

type command struct {
	name  string
	usage string
	args  int
	run   func(c *console, t *kernel.Task, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"help", "help", 0, (*console).help},
		{"time", "time", 0, (*console).uptime},
		{"delay", "delay <ticks>", 1, (*console).delay},
		{"tr", "tr <train> <speed>", 2, (*console).speed},
		{"rv", "rv <train>", 1, (*console).reverse},
		{"sw", "sw <switch> <S|C>", 2, (*console).turnout},
		{"go", "go", 0, power(hal.MarklinGo)},
		{"stop", "stop", 0, power(hal.MarklinStop)},
		{"log", "log <text>", 1, (*console).logLine},
		{"q", "q", 0, (*console).exit},
	}
}

func (c *console) run(t *kernel.Task) {
	c.term = lookup(t, c.ns, NameTerm)
	c.train = lookup(t, c.ns, NameTrain)
	c.clk = lookup(t, c.ns, NameClock)
	c.logsrv = lookup(t, c.ns, NameLog)

	c.printf(t, "\r\nrailos %s\r\ntype help for commands\r\n> ", buildinfo.Short())
	for {
		b, err := uart.Getc(t, c.term)
		if err != nil {
			c.log.Warn("terminal read failed", zap.Error(err))
			return
		}
		c.key(t, b)
	}
}

func (c *console) key(t *kernel.Task, b byte) {
	cr := c.lastCR
	c.lastCR = b == '\r'
	switch {
	case b == '\n' && cr:
	case b == '\r' || b == '\n':
		c.printf(t, "\r\n")
		if err := c.exec(t, string(c.line)); err != nil {
			c.printf(t, "error: %v\r\n", err)
		}
		c.line = c.line[:0]
		c.printf(t, "> ")
	case b == 0x08 || b == 0x7f:
		if len(c.line) > 0 {
			c.line = c.line[:len(c.line)-1]
			c.printf(t, "\b \b")
		}
	case b == 0x03 || b == 0x15:
		c.line = c.line[:0]
		c.printf(t, "^C\r\n> ")
	case b >= 0x20 && b < 0x7f && len(c.line) < maxLine:
		c.line = append(c.line, b)
		uart.Putc(t, c.term, b)
	}
}

func (c *console) exec(t *kernel.Task, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	for _, cmd := range commands {
		if cmd.name != fields[0] {
			continue
		}
		if len(fields)-1 < cmd.args {
			return fmt.Errorf("usage: %s", cmd.usage)
		}
		return cmd.run(c, t, fields[1:])
	}
	return fmt.Errorf("unknown command %q", fields[0])
}

func (c *console) printf(t *kernel.Task, format string, args ...any) {
	if err := uart.Printf(t, c.term, format, args...); err != nil {
		c.log.Warn("terminal write failed", zap.Error(err))
	}
}

func (c *console) help(t *kernel.Task, _ []string) error {
	for _, cmd := range commands {
		c.printf(t, "  %s\r\n", cmd.usage)
	}
	return nil
}

func (c *console) uptime(t *kernel.Task, _ []string) error {
	ticks, err := clock.Time(t, c.clk)
	if err != nil {
		return err
	}
	up := (time.Duration(ticks) * c.tick).Truncate(10 * time.Millisecond)
	c.printf(t, "up %s (%d ticks)\r\n", up, ticks)
	return nil
}

func (c *console) delay(t *kernel.Task, args []string) error {
	n, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("bad tick count %q", args[0])
	}
	at, err := clock.Delay(t, c.clk, uint32(n))
	if err != nil {
		return err
	}
	c.printf(t, "woke at %d\r\n", at)
	return nil
}

func (c *console) speed(t *kernel.Task, args []string) error {
	train, err := parseByte(args[0], 1, 80)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	speed, err := parseByte(args[1], 0, hal.MarklinLights+hal.MarklinReverse)
	if err != nil {
		return fmt.Errorf("speed: %w", err)
	}
	return uart.Puts(t, c.train, []byte{speed, train})
}

func (c *console) reverse(t *kernel.Task, args []string) error {
	train, err := parseByte(args[0], 1, 80)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	return uart.Puts(t, c.train, []byte{hal.MarklinReverse, train})
}

func (c *console) turnout(t *kernel.Task, args []string) error {
	sw, err := parseByte(args[0], 1, 255)
	if err != nil {
		return fmt.Errorf("switch: %w", err)
	}
	var dir byte
	switch strings.ToUpper(args[1]) {
	case "S":
		dir = hal.MarklinStraight
	case "C":
		dir = hal.MarklinCurved
	default:
		return fmt.Errorf("direction %q is not S or C", args[1])
	}
	return uart.Puts(t, c.train, []byte{dir, sw, hal.MarklinSolenoidOff})
}

func power(b byte) func(c *console, t *kernel.Task, _ []string) error {
	return func(c *console, t *kernel.Task, _ []string) error {
		return uart.Putc(t, c.train, b)
	}
}

func (c *console) logLine(t *kernel.Task, args []string) error {
	return logger.Log(t, c.logsrv, strings.Join(args, " "))
}

func (c *console) exit(t *kernel.Task, _ []string) error {
	c.printf(t, "bye\r\n")
	if c.quit != nil {
		c.quit()
	}
	return nil
}

func parseByte(s string, lo, hi int) (byte, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%q not in [%d, %d]", s, lo, hi)
	}
	return byte(n), nil
}
