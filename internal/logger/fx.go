package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/youruser/mydozlesha/internal/config"
)

// FxOption provides the process logger and installs it as slog's default.
var FxOption = fx.Provide(func(lc fx.Lifecycle, cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	var file io.WriteCloser
	if cfg.App.LogFile != "" {
		file, err = os.OpenFile(cfg.App.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		lc.Append(fx.StopHook(func(context.Context) error { return file.Close() }))
	}

	opts := Opts{Env: cfg.App.Env, Level: level}
	if file != nil {
		opts.File = file
	}
	log := New(opts)
	slog.SetDefault(log)
	return log, nil
})

// FxEvents routes fx's own events through the application logger.
var FxEvents = fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
	return &fxevent.SlogLogger{Logger: log}
})
