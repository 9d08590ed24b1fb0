package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go-joblog-automation/internal/browser"
	"go-joblog-automation/internal/config"
	"go-joblog-automation/internal/engine/linkedin"
	"go-joblog-automation/internal/filter"
	"go-joblog-automation/internal/logger"
	"go-joblog-automation/internal/merge"
	"go-joblog-automation/internal/runner"
	"go-joblog-automation/internal/store/backend"
	"go-joblog-automation/internal/telegram"

	"github.com/playwright-community/playwright-go"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default $JOBLOG_CONFIG or configs/config.yaml)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	//load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, closeLog, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return err
	}
	defer closeLog.Close()
	slog.SetDefault(log)

	if cfg.Source == "" {
		log.Warn("⚠️ No config file found, running with defaults", "path", config.DefaultPath)
	}
	log.Info("🔧 Config loaded", "queries", len(cfg.Queries), "keywords", cfg.Filter.Keywords, "backend", cfg.Output.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queries, err := cfg.EngineQueries()
	if err != nil {
		return err
	}

	//open dataset
	ds, err := backend.Open(ctx, cfg.Output)
	if err != nil {
		return err
	}
	defer ds.Close()

	//init playwright manager
	pm, err := browser.NewPlaywright(browser.Options{
		Headless:          cfg.Engine.IsHeadless(),
		NavigationTimeout: cfg.Engine.PageLoadTimeout,
		UserAgent:         cfg.Engine.UserAgent,
	})
	if err != nil {
		return err
	}
	defer pm.Close()

	var cookies []playwright.OptionalCookie
	if cfg.Engine.CookiesPath != "" {
		cookies, err = browser.LoadCookies(cfg.Engine.CookiesPath)
		if err != nil {
			log.Warn("⚠️ Could not load cookies, continuing as guest", "path", cfg.Engine.CookiesPath, "error", err)
		} else {
			log.Info("🍪 Loaded cookies", "count", len(cookies))
		}
	}

	browserCtx, err := pm.NewContext(cookies)
	if err != nil {
		return err
	}
	page, err := browserCtx.NewPage()
	if err != nil {
		return fmt.Errorf("new page: %w", err)
	}
	log.Info("✅ Browser initialized")

	nav := browser.NewPageNavigator(page, browser.NavigatorOptions{
		Timeout: cfg.Engine.PageLoadTimeout,
		Jitter:  cfg.Engine.SlowMo / 2,
		Shots:   browser.NewScreenshotDebugger(cfg.Engine.ScreenshotDir, log),
		Logger:  log,
	})
	eng := linkedin.New(nav, linkedin.Options{
		Limiter: linkedin.NewLimiter(cfg.Engine.SlowMo, cfg.Engine.RequestsPerSecond),
		Logger:  log,
	})

	var notifier runner.Notifier
	if cfg.Telegram.Enabled() {
		bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			log.Warn("⚠️ Telegram disabled", "error", err)
		} else {
			notifier = bot
			log.Info("🤖 Telegram Bot initialized")
		}
	}

	r := runner.New(runner.Deps{
		Engine:         eng,
		Queries:        queries,
		Filter:         filter.NewKeywordFilter(cfg.Filter.Keywords),
		Merger:         merge.NewMergeStore(ds.Store, ds.Layout, log),
		Target:         ds.Target,
		Notifier:       notifier,
		MaxNotify:      cfg.Telegram.MaxJobs,
		NotifyInterval: runner.DefaultNotifyInterval,
		Logger:         log,
	})

	sum, err := r.Run(ctx)
	if err != nil {
		return err
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		log.Warn("⚠️ Run interrupted, kept what was collected")
	}
	fmt.Println(sum.Line(ds.Target))
	return nil
}
