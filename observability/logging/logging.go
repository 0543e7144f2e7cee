package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// New builds a JSON logger writing to w. Every line carries the service name
// and, when set, the environment.
func New(w io.Writer, service, env string, level slog.Leveler) *slog.Logger {
	if level == nil {
		level = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: false,
		Level:     level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey {
				return slog.Attr{Key: "timestamp", Value: attr.Value}
			}
			if attr.Key == slog.LevelKey {
				level := strings.ToUpper(attr.Value.String())
				return slog.String("severity", level)
			}
			if attr.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: attr.Value}
			}
			return attr
		},
	})
	return slog.New(handler).With(baseAttrs(service, env)...)
}

// Setup configures the standard library logger to emit structured JSON on
// stdout and returns the underlying slog.Logger for richer logging within the
// service.
func Setup(service, env string, level slog.Leveler) *slog.Logger {
	base := New(os.Stdout, service, env, level)
	slog.SetDefault(base)

	// Bridge the standard library logger so existing packages continue to work.
	stdBridge := slog.NewLogLogger(base.Handler(), slog.LevelInfo)
	stdBridge.SetFlags(0)
	log.SetOutput(stdBridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}

func baseAttrs(service, env string) []any {
	attrs := []any{slog.String("service", strings.TrimSpace(service))}
	if env = strings.TrimSpace(env); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}
	return attrs
}
