package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"yoktez-backend/lib/configutil"
	"yoktez-backend/services/tez"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var configPath string

var service tez.Service

var rootCmd = &cobra.Command{
	Use:   "tezctl",
	Short: "tezctl is a debugging CLI for the YÖK thesis registry scraper.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var cfg tez.Config
		if configPath != "" {
			var err error
			cfg, err = configutil.ReadConfig[tez.Config](configPath)
			if err != nil {
				return fmt.Errorf("read config: %w", err)
			}
		}

		var err error
		service, err = tez.Bootstrap(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		service.Close(context.Background())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configPath, "config", "c", "",
		"path to a config.json5; without it the scraper runs on defaults with no archive",
	)
}

func Execute() {
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelWarn,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
