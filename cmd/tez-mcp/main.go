package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"yoktez-backend/lib/configutil"
	"yoktez-backend/lib/serviceutil"
	"yoktez-backend/lib/telemetry"
	"yoktez-backend/services/tez"

	"github.com/lmittmann/tint"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	ctx := serviceutil.SignalContext()

	t, err := telemetry.SetupFromEnv(ctx, "tez-mcp")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer t.Shutdown(context.Background())

	cfg, err := configutil.ReadConfig[tez.Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	service, err := tez.Bootstrap(ctx, cfg)
	if err != nil {
		serviceutil.Fatal("failed to bootstrap service", err)
	}
	defer service.Close(context.Background())

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "yoktez",
		Version: "1.0.0",
	}, nil)
	registerTools(server, service)

	// stdio carries the protocol; everything above logs to stderr
	err = server.Run(ctx, &mcp.StdioTransport{})
	if err != nil {
		serviceutil.Fatal("mcp server exited", err)
	}
}
