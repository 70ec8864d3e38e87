package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Config controls the sink and verbosity of a logger Service.
type Config struct {
	Level     string // debug, info, warning, error
	Format    string // json or text
	FilePath  string // optional; stdout when empty
	Component string // stamped on every record, e.g. "workflow", "registry"
}

// Service is the logging facade consumed by the engine. Failures inside
// the facade are swallowed; the engine never aborts on a logging problem.
type Service struct {
	mu   sync.Mutex
	log  *slog.Logger
	file *os.File
}

// New builds a Service from config. An unwritable file path falls back
// to stdout rather than failing the caller.
func New(cfg Config) *Service {
	var out io.Writer = os.Stdout
	var file *os.File

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err == nil {
			if f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
				out = f
				file = f
			}
		}
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	log := slog.New(handler)
	if cfg.Component != "" {
		log = log.With(slog.String("component", cfg.Component))
	}

	return &Service{log: log, file: file}
}

// Discard returns a Service that drops everything; used by tests.
func Discard() *Service {
	return &Service{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warning", "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child Service carrying extra attributes, e.g. a run id.
func (s *Service) With(args ...any) *Service {
	return &Service{log: s.log.With(args...), file: s.file}
}

func (s *Service) Info(msg string, args ...any)    { s.log.Info(msg, args...) }
func (s *Service) Debug(msg string, args ...any)   { s.log.Debug(msg, args...) }
func (s *Service) Warning(msg string, args ...any) { s.log.Warn(msg, args...) }
func (s *Service) Error(msg string, args ...any)   { s.log.Error(msg, args...) }

// Infof is the message-only form used by the multi-line verbose banners.
func (s *Service) Infof(format string, args ...any) {
	s.log.Info(fmt.Sprintf(format, args...))
}

// Close releases the file sink if one is open.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
}
