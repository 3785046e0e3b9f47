// Package logger builds the structured logger shared by the CLI and the
// periphery packages. Output is slog text on stderr with credentials redacted.
package logger

import (
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// EnvLevel overrides the configured level when set.
const EnvLevel = "LOG_LEVEL"

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ResolveLevel picks the effective level: verbose wins, then LOG_LEVEL, then
// the configured name.
func ResolveLevel(configured string, verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	if env := os.Getenv(EnvLevel); env != "" {
		return ParseLevel(env)
	}
	return ParseLevel(configured)
}

// New creates a text logger writing to w. A nil w means stderr.
func New(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactAttr,
	})
	return slog.New(handler)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func redactAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		a.Value = slog.StringValue(RedactSensitiveData(a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			a.Value = slog.StringValue(RedactSensitiveData(err.Error()))
		}
	}
	return a
}

var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{20,}`),   // GitHub tokens
	regexp.MustCompile(`github_pat_[A-Za-z0-9_]{20,}`), // GitHub fine-grained tokens
	regexp.MustCompile(`AIza[a-zA-Z0-9_-]{35}`),        // Google API keys
	regexp.MustCompile(`ya29\.[A-Za-z0-9_.-]+`),        // Google OAuth access tokens
	regexp.MustCompile(`Bearer\s+[a-zA-Z0-9_.-]+`),     // Bearer tokens
}

// RedactSensitiveData hides tokens and keys in s, keeping the first four
// characters of each match.
func RedactSensitiveData(s string) string {
	for _, pattern := range sensitivePatterns {
		s = pattern.ReplaceAllStringFunc(s, func(match string) string {
			if strings.HasPrefix(match, "Bearer") {
				return "Bearer [REDACTED]"
			}
			if len(match) > 8 {
				return match[:4] + "...[REDACTED]"
			}
			return "[REDACTED]"
		})
	}
	return s
}
