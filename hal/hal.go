package hal

import (
	"context"
	"errors"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var (
	ErrNotImplemented = errors.New("not implemented")

	// ErrNoData is returned by UART.ReadByte when the receive buffer is empty.
	ErrNoData = errors.New("uart: receive buffer empty")

	// ErrNotClearToSend is returned by UART.WriteByte on a flow controlled
	// line while the far end holds CTS low.
	ErrNotClearToSend = errors.New("uart: not clear to send")
)

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// Interrupt sources. The numbering is the controller's bit position; lower
// numbers are reported first by Pending.
const (
	IRQTimer = iota
	IRQTrainRX
	IRQTrainTX
	IRQTrainCTS
	IRQTermRX
	IRQTermTX
	NumIRQ
)

// InterruptController is the interrupt hardware as both sides see it:
// devices Raise sources, the kernel drains Pending and writes Ack.
type InterruptController interface {
	Enable(src int)
	Disable(src int)
	Raise(src int)
	Pending() (int, bool)
	Ack(src int)
	Signal() <-chan struct{}
}

// Timer is a free-running tick counter. Every tick also raises IRQTimer.
type Timer interface {
	Ticks() uint64
}

// UART is one serial line. RX raises its interrupt when the receive buffer
// goes from empty to non-empty; TX raises after each byte has been sent.
type UART interface {
	ReadByte() (byte, error)
	WriteByte(b byte) error
	Buffered() int
	CTS() bool
}

// HAL provides the only contact point between the OS and the outside world.
type HAL interface {
	Logger() Logger
	Display() Display
	Interrupts() InterruptController
	Timer() Timer
	TrainLine() UART
	TermLine() UART

	// Start begins raising device interrupts. Devices stop when ctx is done.
	Start(ctx context.Context)
}
