package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/chefbazaar/pkg/config"
	"go.uber.org/zap"
)

func TestNew_WritesAtLevel(t *testing.T) {
	out := filepath.Join(t.TempDir(), "app.log")
	log, err := New(config.LogConfig{Level: "warn", Encoding: "json", OutputPaths: []string{out}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	log.Info("hidden")
	log.Warn("visible", zap.String("component", "test"))
	_ = log.Sync()

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), "hidden") {
		t.Error("info entry written at warn level")
	}
	if !strings.Contains(string(data), `"component":"test"`) {
		t.Errorf("warn entry missing, got %s", data)
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, err := New(config.LogConfig{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
