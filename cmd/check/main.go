// Command check validates the config and reports on the dataset and cookies
// without launching a browser.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go-joblog-automation/internal/browser"
	"go-joblog-automation/internal/config"
	"go-joblog-automation/internal/store"
	"go-joblog-automation/internal/store/backend"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	fmt.Println("🔧 Checking config...")
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	source := cfg.Source
	if source == "" {
		source = "(defaults)"
	}
	fmt.Printf("✅ Config loaded from %s\n", source)

	queries, err := cfg.EngineQueries()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	for _, q := range queries {
		fmt.Printf("   🔑 %q in %v (time=%s, types=%v, offset=%d, limit=%d, skip_promoted=%t)\n",
			q.Keywords, q.Options.Locations, q.Options.Time, q.Options.Types,
			q.Options.PageOffset, q.Options.Limit, q.Options.SkipPromoted)
	}
	fmt.Printf("   Keywords: %v\n", cfg.Filter.Keywords)
	fmt.Printf("   Telegram: %t\n", cfg.Telegram.Enabled())

	if cfg.Engine.CookiesPath != "" {
		cookies, err := browser.LoadCookies(cfg.Engine.CookiesPath)
		if err != nil {
			fmt.Printf("⚠️ Cookies: %v\n", err)
		} else {
			fmt.Printf("🍪 Cookies: %d loaded from %s\n", len(cookies), cfg.Engine.CookiesPath)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ds, err := backend.Open(ctx, cfg.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	defer ds.Close()

	rows, err := ds.Store.Load(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		fmt.Printf("📦 Dataset %s does not exist yet (layout %s)\n", ds.Target, ds.Layout.Name)
	case err != nil:
		fmt.Fprintf(os.Stderr, "❌ Dataset %s: %v\n", ds.Target, err)
		ds.Close()
		os.Exit(1)
	default:
		fmt.Printf("📦 Dataset %s: %d rows, %d job ids (layout %s)\n", ds.Target, len(rows), len(rows.JobIDs()), ds.Layout.Name)
	}
}
