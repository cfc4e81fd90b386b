//go:build !tinygo

package hal

import (
	"context"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
)

type hostHAL struct {
	cfg     Config
	log     *zap.Logger
	logger  *hostLogger
	fb      *hostFramebuffer
	screen  *Screen
	ic      *Controller
	timer   *hostTimer
	train   *Line
	term    *Line
	marklin *Marklin

	startOnce sync.Once
}

// New returns a host HAL whose terminal line is the process's stdout.
func New(cfg Config) HAL {
	return newHost(cfg, os.Stdout, false)
}

// newHost wires the simulated devices. With window set the terminal line is
// rendered on the framebuffer instead of written to termOut.
func newHost(cfg Config, termOut io.Writer, window bool) *hostHAL {
	cfg.setDefaults()
	log := cfg.Log.Named("hal")

	h := &hostHAL{
		cfg:    cfg,
		log:    log,
		logger: &hostLogger{log: cfg.Log.Named("console")},
		fb:     newHostFramebuffer(cfg.Width, cfg.Height),
		ic:     NewController(),
	}
	h.timer = newHostTimer(h.ic, cfg.TickPeriod)

	if window {
		h.screen = NewScreen(h.fb)
		termOut = h.screen
	}
	h.term = NewLine(h.ic, LineConfig{
		Name: "term",
		RX:   IRQTermRX,
		TX:   IRQTermTX,
		CTS:  -1,
		Out:  termOut,
	})

	h.marklin = NewMarklin(cfg.SensorModules, cfg.SensorDelay)
	h.train = NewLine(h.ic, LineConfig{
		Name:     "train",
		RX:       IRQTrainRX,
		TX:       IRQTrainTX,
		CTS:      IRQTrainCTS,
		CTSDelay: cfg.CTSDelay,
		Out:      h.marklin,
	})
	h.marklin.Attach(h.train)
	return h
}

func (h *hostHAL) Logger() Logger                  { return h.logger }
func (h *hostHAL) Display() Display                { return hostDisplay{fb: h.fb} }
func (h *hostHAL) Interrupts() InterruptController { return h.ic }
func (h *hostHAL) Timer() Timer                    { return h.timer }
func (h *hostHAL) TrainLine() UART                 { return h.train }
func (h *hostHAL) TermLine() UART                  { return h.term }

func (h *hostHAL) Start(ctx context.Context) {
	h.startOnce.Do(func() {
		go h.timer.run(ctx)
		if h.cfg.TTY {
			if err := h.startTTY(ctx); err != nil {
				h.log.Warn("terminal input unavailable", zap.Error(err))
			}
		}
		h.log.Info("devices started",
			zap.Duration("tick", h.cfg.TickPeriod),
			zap.Int("sensor_modules", h.cfg.SensorModules),
			zap.Bool("window", h.screen != nil))
	})
}

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

// hostLogger forwards console lines to zap.
type hostLogger struct {
	log *zap.Logger
}

func (l *hostLogger) WriteLineString(s string) { l.log.Info(s) }

func (l *hostLogger) WriteLineBytes(b []byte) { l.log.Info(string(b)) }
