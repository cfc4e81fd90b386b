//go:build tinygo && baremetal

package hal

import (
	"context"
	"machine"
	"sync"
	"time"
)

// Board wiring (Raspberry Pi Pico):
//
//	terminal  UART0 GP0 (TX) / GP1 (RX), 115200 8N1
//	train     UART1 GP4 (TX) / GP5 (RX), 2400 8N2
//	log       USB CDC
type boardHAL struct {
	cfg    Config
	logger *serialLogger
	fb     Framebuffer
	ic     *Controller
	timer  *boardTimer
	train  *Line
	term   *Line

	termUART  *machine.UART
	trainUART *machine.UART

	startOnce sync.Once
}

// New returns the board HAL.
func New(cfg Config) HAL {
	cfg.setDefaults()

	term := machine.UART0
	term.Configure(machine.UARTConfig{BaudRate: 115200, TX: machine.GP0, RX: machine.GP1})
	train := machine.UART1
	train.Configure(machine.UARTConfig{BaudRate: 2400, TX: machine.GP4, RX: machine.GP5})
	train.SetFormat(8, 2, machine.ParityNone)

	ic := NewController()
	h := &boardHAL{
		cfg:       cfg,
		logger:    &serialLogger{},
		fb:        newBoardFramebuffer(cfg.Width, cfg.Height),
		ic:        ic,
		timer:     &boardTimer{ic: ic, period: cfg.TickPeriod},
		termUART:  term,
		trainUART: train,
	}
	h.term = NewLine(ic, LineConfig{Name: "term", RX: IRQTermRX, TX: IRQTermTX, CTS: -1, Out: term})
	h.train = NewLine(ic, LineConfig{
		Name:     "train",
		RX:       IRQTrainRX,
		TX:       IRQTrainTX,
		CTS:      IRQTrainCTS,
		CTSDelay: cfg.CTSDelay,
		Out:      train,
	})
	return h
}

func (h *boardHAL) Logger() Logger                  { return h.logger }
func (h *boardHAL) Display() Display                { return boardDisplay{fb: h.fb} }
func (h *boardHAL) Interrupts() InterruptController { return h.ic }
func (h *boardHAL) Timer() Timer                    { return h.timer }
func (h *boardHAL) TrainLine() UART                 { return h.train }
func (h *boardHAL) TermLine() UART                  { return h.term }

func (h *boardHAL) Start(ctx context.Context) {
	h.startOnce.Do(func() {
		go h.timer.run(ctx)
		go pumpUART(ctx, h.termUART, h.term)
		go pumpUART(ctx, h.trainUART, h.train)
	})
}

// pumpUART moves bytes from the hardware FIFO into the line, which raises
// the RX interrupt on the empty to non-empty edge.
func pumpUART(ctx context.Context, u *machine.UART, l *Line) {
	var buf [32]byte
	for ctx.Err() == nil {
		n := 0
		for n < len(buf) && u.Buffered() > 0 {
			b, err := u.ReadByte()
			if err != nil {
				break
			}
			buf[n] = b
			n++
		}
		if n > 0 {
			l.Feed(buf[:n])
			continue
		}
		time.Sleep(time.Millisecond)
	}
}

type boardTimer struct {
	ic     InterruptController
	period time.Duration
	mu     sync.Mutex
	ticks  uint64
}

func (t *boardTimer) Ticks() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticks
}

func (t *boardTimer) run(ctx context.Context) {
	tk := time.NewTicker(t.period)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			t.mu.Lock()
			t.ticks++
			t.mu.Unlock()
			t.ic.Raise(IRQTimer)
		}
	}
}

type boardDisplay struct {
	fb Framebuffer
}

func (d boardDisplay) Framebuffer() Framebuffer { return d.fb }

// serialLogger writes log lines to the USB serial console.
type serialLogger struct {
	mu sync.Mutex
}

func (l *serialLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	machine.Serial.Write([]byte(s))
	machine.Serial.Write([]byte("\r\n"))
}

func (l *serialLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	machine.Serial.Write(b)
	machine.Serial.Write([]byte("\r\n"))
}
