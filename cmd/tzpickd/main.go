package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"tzpick/internal/blackout"
	"tzpick/internal/config"
	"tzpick/internal/ics"
	appLog "tzpick/internal/log"
	"tzpick/internal/web"
	"tzpick/internal/zone"
)

const version = "0.1.0"

// flagConfig holds CLI flag values; they override the config file.
type flagConfig struct {
	configPath string
	listen     string
	cacheDir   string
	debug      bool
	once       bool
	dstRules   bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("tzpickd starting", "version", version)

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if err := conf.Validate(); err != nil {
		appLog.Error("invalid config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if !flags.debug {
		appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"blackout_dates", len(conf.Constraints.BlackoutDates),
		"blackout_rules", len(conf.Constraints.BlackoutRules),
		"blackout_feeds", len(conf.Constraints.BlackoutFeeds),
		"once", flags.once,
	)

	mode := zone.DSTHeuristic
	if flags.dstRules {
		mode = zone.DSTRules
	}
	conv := zone.NewConverter(zone.WithDSTMode(mode))
	loc, err := conv.Location(conf.Timezone)
	if err != nil {
		appLog.Error("failed to resolve timezone", err, "timezone", conf.Timezone)
		os.Exit(1)
	}

	cacheDir := flags.cacheDir
	if cacheDir == "" {
		cacheDir = "/var/lib/tzpick/ics-cache"
		if flags.debug {
			cacheDir = "./cache/ics-cache"
		}
	}
	store, err := blackout.FromConfig(conf, loc, ics.NewFetcher(cacheDir))
	if err != nil {
		appLog.Error("failed to build blackout store", err)
		os.Exit(1)
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	// A failed first refresh is not fatal: feeds fall back to their disk
	// cache and the next scheduled run retries.
	_ = store.Refresh(ctx)
	if flags.once {
		appLog.Info("single refresh done", "blackout_days", len(store.Dates()))
		return
	}

	scheduler := cron.New(cron.WithLocation(loc))
	if _, err := scheduler.AddFunc(conf.RefreshCron, func() { _ = store.Refresh(ctx) }); err != nil {
		appLog.Error("failed to schedule refresh", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:              conf.Listen,
		Handler:           web.NewServer(conf, conv, store).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen, "debug", flags.debug)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", err, "listen", conf.Listen)
		}
		cancel()
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP shutdown failed", err)
	}
	<-scheduler.Stop().Done()
	appLog.Info("tzpickd exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/tzpick/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.cacheDir, "cache-dir", "", "Directory for cached blackout feeds")
	flag.BoolVar(&cfg.debug, "debug", false, "Debug logging and a local cache directory")
	flag.BoolVar(&cfg.once, "once", false, "Refresh blackout sources once and exit")
	flag.BoolVar(&cfg.dstRules, "dst-rules", false, "Report DST from the tz database instead of the six-month comparison")

	flag.Parse()

	return cfg
}
