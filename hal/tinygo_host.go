//go:build tinygo && !baremetal

package hal

import (
	"context"
	"os"
	"sync"
	"time"
)

// tinyGoHostHAL is used by `tinygo run` on linux/wasm targets: the terminal
// line is stdout and the train line talks to the simulated controller.
type tinyGoHostHAL struct {
	cfg   Config
	ic    *Controller
	ticks uint64
	mu    sync.Mutex
	train *Line
	term  *Line

	startOnce sync.Once
}

// New returns a TinyGo-on-host HAL implementation.
func New(cfg Config) HAL {
	cfg.setDefaults()
	ic := NewController()
	sim := NewMarklin(cfg.SensorModules, cfg.SensorDelay)
	term := NewLine(ic, LineConfig{Name: "term", RX: IRQTermRX, TX: IRQTermTX, CTS: -1, Out: os.Stdout})
	train := NewLine(ic, LineConfig{
		Name:     "train",
		RX:       IRQTrainRX,
		TX:       IRQTrainTX,
		CTS:      IRQTrainCTS,
		CTSDelay: cfg.CTSDelay,
		Out:      sim,
	})
	h := &tinyGoHostHAL{cfg: cfg, ic: ic, term: term, train: train}
	sim.Attach(h.train)
	return h
}

func (h *tinyGoHostHAL) Logger() Logger                  { return printLogger{} }
func (h *tinyGoHostHAL) Display() Display                { return nil }
func (h *tinyGoHostHAL) Interrupts() InterruptController { return h.ic }
func (h *tinyGoHostHAL) Timer() Timer                    { return h }
func (h *tinyGoHostHAL) TrainLine() UART                 { return h.train }
func (h *tinyGoHostHAL) TermLine() UART                  { return h.term }

func (h *tinyGoHostHAL) Ticks() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ticks
}

func (h *tinyGoHostHAL) Start(ctx context.Context) {
	h.startOnce.Do(func() {
		go func() {
			tk := time.NewTicker(h.cfg.TickPeriod)
			defer tk.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-tk.C:
					h.mu.Lock()
					h.ticks++
					h.mu.Unlock()
					h.ic.Raise(IRQTimer)
				}
			}
		}()
	})
}

type printLogger struct{}

func (printLogger) WriteLineString(s string) { println(s) }
func (printLogger) WriteLineBytes(b []byte)  { println(string(b)) }
