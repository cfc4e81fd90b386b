package hal

import (
	"time"

	"go.uber.org/zap"
)

// Config selects device parameters. Zero fields take defaults.
type Config struct {
	// TickPeriod is the timer interrupt period.
	TickPeriod time.Duration

	// Width and Height size the framebuffer.
	Width  int
	Height int

	// CTSDelay is how long the train controller holds CTS low per byte.
	CTSDelay time.Duration

	// SensorModules is the number of s88 modules on the simulated layout and
	// SensorDelay the controller's answer latency.
	SensorModules int
	SensorDelay   time.Duration

	// TTY reads terminal input from the controlling terminal in raw mode.
	TTY bool

	// StopAfter ends a headless run after that many ticks (0 = never).
	StopAfter uint64

	Log *zap.Logger
}

const (
	DefaultTickPeriod = 10 * time.Millisecond
	DefaultCTSDelay   = 2 * time.Millisecond
)

func (c *Config) setDefaults() {
	if c.TickPeriod <= 0 {
		c.TickPeriod = DefaultTickPeriod
	}
	if c.Width <= 0 {
		c.Width = 320
	}
	if c.Height <= 0 {
		c.Height = 240
	}
	if c.CTSDelay <= 0 {
		c.CTSDelay = DefaultCTSDelay
	}
	if c.SensorModules <= 0 {
		c.SensorModules = 5
	}
	if c.SensorDelay <= 0 {
		c.SensorDelay = 5 * time.Millisecond
	}
	if c.Log == nil {
		c.Log = zap.NewNop()
	}
}
