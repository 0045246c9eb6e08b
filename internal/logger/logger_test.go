package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T, level string, fn func()) string {
	t.Helper()
	buf := &bytes.Buffer{}
	SetTestOutput(buf)
	defer UnsetTestOutput()

	// Reinitialize logger with test output
	logger = nil
	InitLogger(level)

	fn()

	return buf.String()
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFn    func()
		contains []string
		excludes []string
	}{
		{
			name:     "info log",
			level:    "info",
			logFn:    func() { Info("test info message") },
			contains: []string{"test info message"},
		},
		{
			name:     "debug log with debug level",
			level:    "debug",
			logFn:    func() { Debug("test debug message") },
			contains: []string{"test debug message", "level=DEBUG"},
		},
		{
			name:     "debug log with info level",
			level:    "info",
			logFn:    func() { Debug("test debug message") },
			excludes: []string{"test debug message"},
		},
		{
			name:     "error log",
			level:    "info",
			logFn:    func() { Error("something broke") },
			contains: []string{"something broke", "level=ERROR"},
		},
		{
			name:     "fields are attached",
			level:    "info",
			logFn:    func() { Info("with fields", Fields{"product": "S2A"}) },
			contains: []string{"with fields", "product=S2A"},
		},
		{
			name:     "unknown level falls back to info",
			level:    "bogus",
			logFn:    func() { Info("fallback message") },
			contains: []string{"fallback message"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureOutput(t, tt.level, tt.logFn)
			for _, want := range tt.contains {
				assert.True(t, strings.Contains(output, want), "output %q should contain %q", output, want)
			}
			for _, unwanted := range tt.excludes {
				assert.False(t, strings.Contains(output, unwanted), "output %q should not contain %q", output, unwanted)
			}
		})
	}
}

func TestInfof(t *testing.T) {
	output := captureOutput(t, "info", func() { Infof("fetched %d objects", 12) })
	assert.Contains(t, output, "fetched 12 objects")
}
