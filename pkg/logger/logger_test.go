package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestWithComponent(t *testing.T) {
	base := NewNop()
	tagged := base.WithComponent("backtest")

	// Tagging returns a distinct logger and leaves the base untouched.
	assert.NotSame(t, base, tagged)
	assert.NotPanics(t, func() {
		tagged.Info("hello")
		tagged.WithField("symbol", "AAPL").Debug("detail")
		tagged.WithFields(map[string]interface{}{"a": 1, "b": 2}).Warn("multi")
	})
}
