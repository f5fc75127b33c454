package main

import (
	"context"
	"errors"
	"feedback-notifier/cmd/feedback-notifier/commands"
	"feedback-notifier/lib/configutil"
	"feedback-notifier/lib/serviceutil"
	"feedback-notifier/lib/telemetry"
	"log/slog"
	"os"
	"time"
)

func main() {
	ctx, cancel := serviceutil.SignalContext()
	defer cancel()

	telemetry.InitSlog(false)
	configutil.LoadDotenv(".")

	err := telemetry.SetupFromEnv(ctx, "feedback-notifier")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to setup telemetry", "err", err)
	}

	err = commands.ExecuteContext(ctx)

	telemetry.RecordProcessStats(ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if serr := telemetry.Shutdown(shutdownCtx); serr != nil {
		slog.Warn("failed to flush telemetry", "err", serr)
	}

	if err != nil {
		serviceutil.Fatal("feedback-notifier failed", err)
	}
}
