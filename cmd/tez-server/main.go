package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"yoktez-backend/lib/configutil"
	"yoktez-backend/lib/serviceutil"
	"yoktez-backend/lib/telemetry"
	"yoktez-backend/services/tez"

	"github.com/gofiber/fiber/v2"
	"github.com/lmittmann/tint"
	"github.com/robfig/cron/v3"
)

type Config struct {
	tez.Config
	Port int `json:"port"`
	// cron spec for periodic statistics snapshots; empty disables them
	SnapshotSchedule string `json:"snapshot_schedule"`
}

func main() {
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	ctx := serviceutil.SignalContext()

	t, err := telemetry.SetupFromEnv(ctx, "tez-server")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer t.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8660
	}

	service, err := tez.Bootstrap(ctx, cfg.Config)
	if err != nil {
		serviceutil.Fatal("failed to bootstrap service", err)
	}
	defer service.Close(context.Background())

	if cfg.SnapshotSchedule != "" {
		cronner := cron.New()
		_, err = cronner.AddFunc(cfg.SnapshotSchedule, func() {
			snapshotStats(ctx, service)
		})
		if err != nil {
			serviceutil.Fatal("failed to schedule statistics snapshot", err)
		}
		cronner.Start()
		defer cronner.Stop()
	}

	app := newApp(service)
	go func() {
		err := app.Listen(fmt.Sprintf(":%d", cfg.Port))
		if err != nil {
			serviceutil.Fatal("http server exited", err)
		}
	}()

	<-ctx.Done()
	app.ShutdownWithTimeout(10 * time.Second)
}

func snapshotStats(ctx context.Context, service tez.Service) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	stats, err := service.GetStatistics(ctx, tez.StatisticsFilter{})
	if err != nil {
		slog.WarnContext(ctx, "statistics snapshot failed", "err", err)
		return
	}
	slog.InfoContext(ctx, "statistics snapshot taken", "total", stats.Total)
}

func newApp(service tez.Service) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	api := app.Group("/api")
	api.Get("/search", handleSearch(service))
	api.Get("/thesis/:id", handleThesis(service))
	api.Get("/statistics", handleStatistics(service))
	api.Get("/recent", handleRecent(service))

	return app
}
