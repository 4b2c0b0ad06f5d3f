package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notify/internal/capture"
	"notify/internal/catalog"
	"notify/internal/config"
	"notify/internal/console"
	"notify/internal/i18n"
	appLog "notify/internal/log"
	"notify/internal/session"
	"notify/internal/view"
	"notify/internal/web"
)

const version = "0.1.0"

type flagConfig struct {
	configPath string
	listen     string
	snapshot   string
	fullPage   bool
	console    bool
	history    string
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if err := appLog.Configure(conf.Log.Level, conf.Log.Encoding); err != nil {
		appLog.Error("failed to configure logger", err)
	}
	defer appLog.Sync()

	appLog.Info("notify starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"locale", conf.Locale,
		"catalog_source", conf.Catalog.Source,
		"session_ttl", conf.IdleTTL().String(),
		"console", flags.console,
		"snapshot", flags.snapshot,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cat, err := catalog.Load(ctx, conf)
	if err != nil {
		appLog.Error("failed to load catalog", err)
		os.Exit(1)
	}
	loc := catalog.ResolveLocation(conf.Timezone)

	if flags.console {
		coord := session.NewCoordinator(cat, conf.HeaderHeight)
		if err := console.New(coord, os.Stdout, loc).Run(flags.history); err != nil {
			appLog.Error("console failed", err)
			os.Exit(1)
		}
		return
	}

	tr := i18n.NewTranslator(conf.Locale)
	views, err := view.NewRenderer(tr, loc)
	if err != nil {
		appLog.Error("failed to parse templates", err)
		os.Exit(1)
	}

	store := session.NewStore(cat, conf.HeaderHeight)
	sweeper, err := session.NewSweeper(store, conf.Session.Sweep, conf.IdleTTL())
	if err != nil {
		appLog.Error("invalid session sweep schedule", err, "sweep", conf.Session.Sweep)
		os.Exit(1)
	}
	sweeper.Start(ctx)

	srv := web.NewServer(conf, cat, store, views, tr)

	if flags.snapshot != "" {
		if err := runSnapshot(ctx, cancel, srv, conf, flags); err != nil {
			appLog.Error("snapshot failed", err, "out", flags.snapshot)
			os.Exit(1)
		}
		return
	}

	if err := srv.Start(ctx); err != nil {
		appLog.Error("http server failed", err)
		os.Exit(1)
	}
	appLog.Info("notify exiting")
}

// runSnapshot serves the page just long enough to capture it.
func runSnapshot(ctx context.Context, cancel context.CancelFunc, srv *web.Server, conf *config.Config, flags flagConfig) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	base := "http://" + conf.Listen
	if err := waitHealthy(ctx, base+"/health", 5*time.Second); err != nil {
		cancel()
		return err
	}

	opts := capture.Options{
		URL:        base + "/",
		OutputPath: flags.snapshot,
		FullPage:   flags.fullPage,
	}
	if conf.BasicAuth != nil {
		opts.Username = conf.BasicAuth.Username
		opts.Password = conf.BasicAuth.Password
	}
	err := capture.CapturePagePNG(ctx, opts)
	cancel()
	if serr := <-errCh; serr != nil {
		appLog.Error("http server failed", serr)
	}
	if err != nil {
		return err
	}
	appLog.Info("snapshot written", "out", flags.snapshot)
	return nil
}

func waitHealthy(ctx context.Context, url string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: time.Second}
	for time.Now().Before(deadline) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if resp, err := client.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return fmt.Errorf("server at %s not healthy after %s", url, timeout)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.snapshot, "snapshot", "", "Capture the page to this PNG path and exit")
	flag.BoolVar(&cfg.fullPage, "full-page", false, "With -snapshot, capture the whole document")
	flag.BoolVar(&cfg.console, "console", false, "Browse events from the terminal instead of serving HTTP")
	flag.StringVar(&cfg.history, "history", "", "Console history file")

	flag.Parse()

	return cfg
}
