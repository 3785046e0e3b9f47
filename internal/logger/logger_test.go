package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestResolveLevel(t *testing.T) {
	t.Setenv(EnvLevel, "")
	if got := ResolveLevel("warn", false); got != slog.LevelWarn {
		t.Errorf("configured level ignored: %v", got)
	}

	t.Setenv(EnvLevel, "error")
	if got := ResolveLevel("warn", false); got != slog.LevelError {
		t.Errorf("LOG_LEVEL should override config, got %v", got)
	}
	if got := ResolveLevel("warn", true); got != slog.LevelDebug {
		t.Errorf("verbose should win, got %v", got)
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelWarn)
	l.Info("hidden")
	l.Warn("shown", "case", "order")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "case=order") {
		t.Errorf("warn message missing: %s", out)
	}
}

func TestNewRedactsAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelDebug)
	token := "ghp_" + strings.Repeat("a", 36)
	l.Debug("request", "auth", "Bearer abc.def", "token", token, "error", errors.New("bad key "+token))

	out := buf.String()
	if strings.Contains(out, token) {
		t.Errorf("token leaked: %s", out)
	}
	if strings.Contains(out, "abc.def") {
		t.Errorf("bearer token leaked: %s", out)
	}
	if !strings.Contains(out, "ghp_...[REDACTED]") {
		t.Errorf("expected redacted prefix: %s", out)
	}
}

func TestRedactSensitiveData(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"no secrets", "no secrets"},
		{"key AIza" + strings.Repeat("x", 35), "key AIza...[REDACTED]"},
		{"Authorization: Bearer tok_123", "Authorization: Bearer [REDACTED]"},
		{"ya29.a0AfH6SMB", "ya29...[REDACTED]"},
	}
	for _, tt := range tests {
		if got := RedactSensitiveData(tt.in); got != tt.want {
			t.Errorf("RedactSensitiveData(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDiscard(t *testing.T) {
	Discard().Error("nothing happens")
}
