// Package config loads the host configuration from YAML, environment
// variables and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration of a host run.
type Config struct {
	Kernel KernelConfig `mapstructure:"kernel" yaml:"kernel"`
	HAL    HALConfig    `mapstructure:"hal" yaml:"hal"`
	App    AppConfig    `mapstructure:"app" yaml:"app"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

// KernelConfig sizes the kernel tables.
type KernelConfig struct {
	MaxTasks    int  `mapstructure:"max_tasks" yaml:"max_tasks"`
	MaxPriority int  `mapstructure:"max_priority" yaml:"max_priority"`
	StackSize   int  `mapstructure:"stack_size" yaml:"stack_size"`
	Trace       bool `mapstructure:"trace" yaml:"trace"`
}

// HALConfig selects the simulated devices.
type HALConfig struct {
	TickMS        int  `mapstructure:"tick_ms" yaml:"tick_ms"`
	Width         int  `mapstructure:"width" yaml:"width"`
	Height        int  `mapstructure:"height" yaml:"height"`
	CTSDelayMS    int  `mapstructure:"cts_delay_ms" yaml:"cts_delay_ms"`
	SensorModules int  `mapstructure:"sensor_modules" yaml:"sensor_modules"`
	SensorDelayMS int  `mapstructure:"sensor_delay_ms" yaml:"sensor_delay_ms"`
	Window        bool `mapstructure:"window" yaml:"window"`
	// HeadlessTicks stops a headless run after that many ticks (0 = never).
	HeadlessTicks uint64 `mapstructure:"headless_ticks" yaml:"headless_ticks"`
	// TermTTY reads terminal input from the controlling terminal.
	TermTTY bool `mapstructure:"term_tty" yaml:"term_tty"`
}

// AppConfig controls the tasks started at boot.
type AppConfig struct {
	// SensorPollTicks is the sensor poll interval (0 disables polling).
	SensorPollTicks int `mapstructure:"sensor_poll_ticks" yaml:"sensor_poll_ticks"`
	// Snapshot prints the final task table when the kernel stops.
	Snapshot bool `mapstructure:"snapshot" yaml:"snapshot"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level" yaml:"level"`
	// Format: console or json
	Format string `mapstructure:"format" yaml:"format"`
	// Outputs: stdout, stderr or file paths
	Outputs []string `mapstructure:"outputs" yaml:"outputs"`

	Rotation    RotationConfig `mapstructure:"rotation" yaml:"rotation"`
	Development bool           `mapstructure:"development" yaml:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable" yaml:"enable"`
	Filename   string `mapstructure:"filename" yaml:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Kernel: KernelConfig{
			MaxTasks:    64,
			MaxPriority: 32,
			StackSize:   16 << 10,
		},
		HAL: HALConfig{
			TickMS:        10,
			Width:         320,
			Height:        240,
			CTSDelayMS:    2,
			SensorModules: 5,
			SensorDelayMS: 5,
			Window:        true,
		},
		App: AppConfig{SensorPollTicks: 10},
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				Filename:   "logs/railos.log",
				MaxSizeMB:  20,
				MaxBackups: 3,
				MaxAgeDays: 14,
			},
		},
	}
}

// Load reads configuration from path (if non-empty), otherwise it searches
// ., ./configs and $HOME/.railos for railos.yaml. Environment variables use
// the prefix RAILOS with `.` and `-` replaced by `_`, e.g.
// RAILOS_KERNEL_MAX_TASKS=128.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("RAILOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("kernel.max_tasks", cfg.Kernel.MaxTasks)
	v.SetDefault("kernel.max_priority", cfg.Kernel.MaxPriority)
	v.SetDefault("kernel.stack_size", cfg.Kernel.StackSize)
	v.SetDefault("kernel.trace", cfg.Kernel.Trace)
	v.SetDefault("hal.tick_ms", cfg.HAL.TickMS)
	v.SetDefault("hal.width", cfg.HAL.Width)
	v.SetDefault("hal.height", cfg.HAL.Height)
	v.SetDefault("hal.cts_delay_ms", cfg.HAL.CTSDelayMS)
	v.SetDefault("hal.sensor_modules", cfg.HAL.SensorModules)
	v.SetDefault("hal.sensor_delay_ms", cfg.HAL.SensorDelayMS)
	v.SetDefault("hal.window", cfg.HAL.Window)
	v.SetDefault("hal.headless_ticks", cfg.HAL.HeadlessTicks)
	v.SetDefault("hal.term_tty", cfg.HAL.TermTTY)
	v.SetDefault("app.sensor_poll_ticks", cfg.App.SensorPollTicks)
	v.SetDefault("app.snapshot", cfg.App.Snapshot)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)

	if path == "" {
		path = os.Getenv("RAILOS_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("railos")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".railos"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stderr"}
	}

	k := c.Kernel
	if k.MaxTasks < 1 || k.MaxTasks > 256 {
		return fmt.Errorf("invalid kernel.max_tasks: %d (want 1..256)", k.MaxTasks)
	}
	if k.MaxPriority < 8 || k.MaxPriority > 64 {
		return fmt.Errorf("invalid kernel.max_priority: %d (want 8..64)", k.MaxPriority)
	}
	if k.StackSize < 256 {
		return fmt.Errorf("invalid kernel.stack_size: %d (want >= 256)", k.StackSize)
	}

	h := c.HAL
	if h.TickMS < 1 {
		return fmt.Errorf("invalid hal.tick_ms: %d", h.TickMS)
	}
	if h.Width < 8 || h.Height < 8 {
		return fmt.Errorf("invalid hal display size %dx%d", h.Width, h.Height)
	}
	if h.SensorModules < 1 || h.SensorModules > 31 {
		return fmt.Errorf("invalid hal.sensor_modules: %d (want 1..31)", h.SensorModules)
	}
	if c.App.SensorPollTicks < 0 {
		return fmt.Errorf("invalid app.sensor_poll_ticks: %d", c.App.SensorPollTicks)
	}
	return nil
}
