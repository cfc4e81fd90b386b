package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"railos/internal/config"
)

func TestSetupLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "railos.log")
	log, err := SetupLogger(config.LogConfig{Level: "warn", Format: "json", Outputs: []string{path}})
	if err != nil {
		t.Fatalf("SetupLogger() error = %v", err)
	}
	log.Info("hidden")
	log.Warn("double miss on train_cts")
	_ = log.Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	got := string(b)
	if strings.Contains(got, "hidden") {
		t.Fatalf("log = %q, info line below level written", got)
	}
	if !strings.Contains(got, `"msg":"double miss on train_cts"`) {
		t.Fatalf("log = %q, want the warning as JSON", got)
	}
}

func TestSetupLoggerRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rot.log")
	log, err := SetupLogger(config.LogConfig{
		Level:    "info",
		Outputs:  []string{"ignored.log"},
		Rotation: config.RotationConfig{Enable: true, Filename: path},
	})
	if err != nil {
		t.Fatalf("SetupLogger() error = %v", err)
	}
	log.Info("kernel started")
	_ = log.Sync()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(b), "kernel started") {
		t.Fatalf("log = %q, want the info line", b)
	}
}
