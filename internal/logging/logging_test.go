package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{level: "debug"},
		{level: "info"},
		{level: "warn"},
		{level: "error"},
		{level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := New("test", tt.level)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && logger == nil {
				t.Error("expected a logger")
			}
		})
	}
}

func TestNew_Level(t *testing.T) {
	logger, err := New("test", "warn")
	if err != nil {
		t.Fatal(err)
	}
	if logger.Desugar().Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !logger.Desugar().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("error should be enabled at warn level")
	}
}

func TestNewObserved(t *testing.T) {
	logger, logs := NewObserved()
	logger.Debugw("frame classified", "status", "good")

	entries := logs.FilterMessage("frame classified").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["status"]; got != "good" {
		t.Errorf("status field = %v, want good", got)
	}
}
