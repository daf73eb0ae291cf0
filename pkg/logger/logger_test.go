package logger

import (
	"context"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestFromContext(t *testing.T) {
	l := NewZapLogger("debug")
	ctx := WithLogger(context.Background(), l)

	if got := FromContext(ctx); got != Logger(l) {
		t.Errorf("FromContext() = %v, want stored logger", got)
	}

	if _, ok := FromContext(context.Background()).(*noOpLogger); !ok {
		t.Error("FromContext() without logger should return the no-op logger")
	}
}

func TestToZapLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"nonsense", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := toZapLevel(tt.in); got != tt.want {
			t.Errorf("toZapLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
