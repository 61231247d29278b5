package tez

import (
	"context"
	"time"

	configlibsql "yoktez-backend/lib/configutil/libsql"
	"yoktez-backend/lib/scrapers/yoktez"
	"yoktez-backend/lib/scrapers/yoktez/browser"
	"yoktez-backend/services/tez/db"
)

type BrowserConfig struct {
	// launching a real browser is opt-in; most deployments get by on the
	// plain http client
	Enabled  bool `json:"enabled"`
	Headless bool `json:"headless"`
}

type ScraperConfig struct {
	BaseUrl          string        `json:"base_url"`
	RateDelaySeconds int           `json:"rate_delay_seconds"`
	CacheTTLSeconds  int           `json:"cache_ttl_seconds"`
	TimeoutSeconds   int           `json:"timeout_seconds"`
	PageCacheDir     string        `json:"page_cache_dir"`
	DebugDumpDir     string        `json:"debug_dump_dir"`
	Browser          BrowserConfig `json:"browser"`
}

type Config struct {
	Scraper ScraperConfig `json:"scraper"`
	// optional; when unconfigured the service runs without an archive
	Database configlibsql.Struct `json:"database"`
}

// Bootstrap wires a Service from file configuration. The returned
// Service owns the scraper (and browser, when enabled); Close releases
// them.
func Bootstrap(ctx context.Context, cfg Config) (Service, error) {
	opts := yoktez.Options{
		BaseUrl:      cfg.Scraper.BaseUrl,
		RateDelay:    time.Duration(cfg.Scraper.RateDelaySeconds) * time.Second,
		CacheTTL:     time.Duration(cfg.Scraper.CacheTTLSeconds) * time.Second,
		Timeout:      time.Duration(cfg.Scraper.TimeoutSeconds) * time.Second,
		PageCacheDir: cfg.Scraper.PageCacheDir,
		DebugDumpDir: cfg.Scraper.DebugDumpDir,
	}

	if cfg.Scraper.Browser.Enabled {
		session, err := browser.Launch(ctx, browser.Options{
			BaseUrl:  cfg.Scraper.BaseUrl,
			Headless: cfg.Scraper.Browser.Headless,
		})
		if err != nil {
			return Service{}, err
		}
		opts.Modal = session
	}

	scraper, err := yoktez.NewClient(opts)
	if err != nil {
		return Service{}, err
	}

	if cfg.Database.File == "" && cfg.Database.Url == "" {
		return NewService(scraper, nil), nil
	}
	database, err := cfg.Database.OpenDB(db.Schema)
	if err != nil {
		scraper.Close(ctx)
		return Service{}, err
	}
	return NewService(scraper, database), nil
}
