package logging

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretRedaction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "password", input: "topS3cr3tP4$$w0rd"},
		{name: "empty secret", input: ""},
		{name: "symbols", input: "password123!@#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := Secret(tt.input)
			assert.Equal(t, "[REDACTED]", s.String())
			assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", s))
			assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
		})
	}
}

func TestLoggerLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		debug  bool
		log    func(l *Logger)
		expect string
	}{
		{name: "info", log: func(l *Logger) { l.Info("stored %s", "my-name@my-service") }, expect: "✓ stored my-name@my-service\n"},
		{name: "warn", log: func(l *Logger) { l.Warn("skipping %q", "keychain") }, expect: "⚠ skipping \"keychain\"\n"},
		{name: "error", log: func(l *Logger) { l.Error("failed") }, expect: "✗ failed\n"},
		{name: "debug enabled", debug: true, log: func(l *Logger) { l.Debug("resolved %s", "mock") }, expect: "[DEBUG] resolved mock\n"},
		{name: "debug disabled", log: func(l *Logger) { l.Debug("resolved %s", "mock") }, expect: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			tt.log(NewWithWriter(&buf, tt.debug, true))
			assert.Equal(t, tt.expect, buf.String())
		})
	}
}

func TestLoggerColor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewWithWriter(&buf, false, false).Error("boom")
	assert.Contains(t, buf.String(), "\033[31m")
	assert.Contains(t, buf.String(), "boom")
}

func TestLoggerNeverPrintsSecret(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewWithWriter(&buf, true, true)
	l.Debug("secret for %s is %s", "my-name@my-service", Secret("topS3cr3tP4$$w0rd"))
	assert.NotContains(t, buf.String(), "topS3cr3tP4$$w0rd")
	assert.Contains(t, buf.String(), "[REDACTED]")
}

func TestRedact(t *testing.T) {
	t.Parallel()

	out := Redact("token=abcd1234 and abc", []string{"abcd1234", "abc", ""})
	assert.Equal(t, "token=[REDACTED] and abc", out)
}

func TestDefaultLogger(t *testing.T) {
	original := Default()
	require.NotNil(t, original)
	t.Cleanup(func() { SetDefault(original) })

	var buf bytes.Buffer
	replacement := NewWithWriter(&buf, true, true)
	SetDefault(replacement)
	assert.Same(t, replacement, Default())
	assert.True(t, Default().DebugEnabled())

	SetDefault(nil)
	assert.Same(t, replacement, Default())
}
