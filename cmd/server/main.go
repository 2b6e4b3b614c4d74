package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"

	"github.com/youruser/mydozlesha/internal/app"
	"github.com/youruser/mydozlesha/internal/logger"
)

func main() {
	application := fx.New(
		app.Module,
		logger.FxEvents,
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := application.Start(startCtx); err != nil {
		slog.Error("failed to start application", slog.Any("error", err))
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelStop()
	if err := application.Stop(stopCtx); err != nil {
		slog.Error("failed to stop application", slog.Any("error", err))
		os.Exit(1)
	}
}
