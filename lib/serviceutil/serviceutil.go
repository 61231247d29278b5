// Package serviceutil holds the small pieces of process scaffolding every
// binary repeats: signal-aware root contexts and fatal startup errors.
package serviceutil

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext returns a context cancelled on SIGINT/SIGTERM.
func SignalContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx
}

// Fatal logs a startup failure and exits. Only for use before the process
// is serving; once running, errors are reported and survived.
func Fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
