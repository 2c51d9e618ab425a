package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ritzau/orgchart/pkg/analysis"
	"github.com/ritzau/orgchart/pkg/config"
	"github.com/ritzau/orgchart/pkg/feed"
	"github.com/ritzau/orgchart/pkg/pubsub"
	"github.com/ritzau/orgchart/pkg/store"
	"github.com/ritzau/orgchart/pkg/watcher"
	"github.com/ritzau/orgchart/pkg/web"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve charts, filter passes and saved filter sets over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	flags := cmd.Flags()
	flags.Int("port", 8080, "Port for the web server")
	flags.String("feed.dir", "", "Directory of <chartId>.json feeds")
	flags.String("feed.url", "", "Chart API base URL, feeds are fetched from <url>/<chartId>")
	flags.Bool("watch", false, "Reload charts when their feed files change (feed.dir only)")
	flags.Bool("preload", false, "Load every listed chart on startup")
	flags.Int("workers", 4, "Concurrent chart loads during preload")
	flags.Int("cache.size", feed.DefaultCacheSize, "Number of normalized charts kept in memory")
	flags.String("database.url", "", "Postgres URL for saved filter sets (default: in memory)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := feed.NewSource(cfg.Feed)
	if err != nil {
		return err
	}
	cache, err := feed.NewCache(source, cfg.Cache.Size)
	if err != nil {
		return err
	}

	filterSets, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer filterSets.Close()

	publisher := pubsub.NewChartPublisher()
	runner := analysis.NewRunner(cache, publisher)
	server := web.NewServer(runner, filterSets, publisher)

	if cfg.Preload {
		go func() {
			start := time.Now()
			if err := runner.Preload(ctx, cfg.Workers); err != nil {
				log.Warn("preload incomplete", "error", err)
				return
			}
			log.Info("preload complete", "duration", time.Since(start).Round(time.Millisecond))
		}()
	}

	if cfg.Watch {
		if err := startWatching(ctx, cfg.Feed.Dir, runner); err != nil {
			return err
		}
	}

	err = server.Start(ctx, cfg.Port)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (store.Store, error) {
	if cfg.URL == "" {
		log.Info("keeping filter sets in memory")
		return store.NewMemoryStore(), nil
	}
	pg, err := store.NewPostgresStore(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}
	return pg, nil
}

func startWatching(ctx context.Context, dir string, runner *analysis.Runner) error {
	if dir == "" {
		return fmt.Errorf("watch needs feed.dir; remote feeds cannot be watched")
	}

	fw, err := watcher.NewFileWatcher(dir)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), 500*time.Millisecond, 5*time.Second)
	debouncer.Start(ctx)
	go runner.Watch(ctx, debouncer.Output())
	return nil
}
