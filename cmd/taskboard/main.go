package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/nhle/taskboard/internal/config"
	"github.com/nhle/taskboard/internal/notify"
	"github.com/nhle/taskboard/internal/server"
	"github.com/nhle/taskboard/internal/settings"
	"github.com/nhle/taskboard/internal/store"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath(), "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "taskboard: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := newLogger(cfg.Log)

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	cache := settings.NewCache(st)
	if _, err := cache.Reload(context.Background()); err != nil {
		return err
	}

	disp := notify.NewWebhookDispatcher(log)
	engine := notify.NewEngine(st, cache, disp, log)

	srv := server.New(server.Config{
		Addr:       cfg.Server.Addr,
		UploadsDir: cfg.Storage.UploadsDir,
		RatePerSec: cfg.Server.RatePerSec,
		RateBurst:  cfg.Server.RateBurst,
	}, st, cache, engine, log)

	var sched *cron.Cron
	if cfg.Scheduler.Enabled {
		sched = startScheduler(engine, cache, log)
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// startScheduler runs the notification triggers on a fixed interval so
// no external cron caller is needed. The interval follows the settings
// row via the cache; changes apply from the next firing.
func startScheduler(engine *notify.Engine, cache *settings.Cache, log zerolog.Logger) *cron.Cron {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	interval := cache.Current().SchedulerIntervalSec
	if interval <= 0 {
		interval = 60
	}
	spec := fmt.Sprintf("@every %ds", interval)

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if sent, err := engine.Run(ctx, notify.ModeBoth); err != nil {
			log.Error().Err(err).Msg("scheduled notification run failed")
		} else if sent > 0 {
			log.Info().Int("sent", sent).Msg("scheduled notification run")
		}
	})
	if err != nil {
		log.Error().Err(err).Msg("scheduler setup failed")
		return c
	}

	c.Start()
	log.Info().Str("interval", spec).Msg("embedded scheduler started")
	return c
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.JSON {
		log = zerolog.New(os.Stdout)
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return log.Level(level).With().Timestamp().Logger()
}
