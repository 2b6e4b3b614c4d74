// Package logger builds the application's slog.Logger on top of zerolog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rs/zerolog"
	slogmulti "github.com/samber/slog-multi"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

type Opts struct {
	Env   string
	Level slog.Level
	// Out receives console or JSON lines; os.Stdout when nil.
	Out io.Writer
	// File, when set, also receives JSON lines.
	File io.Writer
}

func New(opts Opts) *slog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if opts.Env == "development" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	handlers := []slog.Handler{handler(out, opts.Level)}
	if opts.File != nil {
		handlers = append(handlers, handler(opts.File, opts.Level))
	}
	if len(handlers) == 1 {
		return slog.New(handlers[0])
	}
	return slog.New(slogmulti.Fanout(handlers...))
}

func handler(w io.Writer, level slog.Level) slog.Handler {
	zl := zerolog.New(w).With().Timestamp().Logger()
	return slogzerolog.Option{Level: level, Logger: &zl}.NewZerologHandler()
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
