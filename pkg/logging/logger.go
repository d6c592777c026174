package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"beerbot/pkg/config"
)

// Init configures the default slog logger from config. Logs always go to
// stdout; when a path is configured they additionally go to a file, which is
// rotated to ".old" at startup. It returns a cleanup function that closes
// the log file.
func Init(cfg *config.LogConfig) (func(), error) {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	stdout := slog.NewTextHandler(os.Stdout, opts)

	if cfg.Path == "" {
		slog.SetDefault(slog.New(stdout))
		return func() {}, nil
	}

	rotate(cfg.Path)

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	fileHandler := slog.NewTextHandler(file, opts)
	slog.SetDefault(slog.New(&multiHandler{handlers: []slog.Handler{stdout, fileHandler}}))

	return func() { file.Close() }, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// rotate renames an existing log file to .old so each run starts fresh but
// the previous run's log is kept.
func rotate(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	oldPath := path + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(path, oldPath)
}

type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
