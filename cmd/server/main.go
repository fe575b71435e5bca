package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/mailchimp-insights/internal/analytics"
	"github.com/ignite/mailchimp-insights/internal/api"
	"github.com/ignite/mailchimp-insights/internal/config"
	"github.com/ignite/mailchimp-insights/internal/mailchimp"
	"github.com/ignite/mailchimp-insights/internal/pkg/logger"
	"github.com/ignite/mailchimp-insights/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if len(cfg.Mailchimp.Regions) == 0 {
		logger.Error("no Mailchimp regions configured; set MAILCHIMP_API_KEY_<REGION> and MAILCHIMP_SERVER_PREFIX_<REGION>")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	defer db.Close()

	store := storage.New(db)
	if err := store.Init(ctx); err != nil {
		logger.Error("failed to initialize database schema", "error", err)
		os.Exit(1)
	}

	var responseCache *storage.ResponseCache
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, running without response cache", "addr", cfg.Redis.Addr, "error", err)
		} else {
			responseCache = storage.NewResponseCache(rdb, cfg.Redis.CacheTTL())
			logger.Info("response cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL().String())
		}
	}

	thresholds := analytics.NewThresholdStore(analytics.Thresholds{
		BounceRate:           cfg.Thresholds.BounceRate,
		UnsubRate:            cfg.Thresholds.UnsubRate,
		LowActivityCampaigns: cfg.Thresholds.LowActivityCampaigns,
		LowOpenRate:          cfg.Thresholds.LowOpenRate,
		LowClickRate:         cfg.Thresholds.LowClickRate,
		ReviewOpenRate:       cfg.Thresholds.ReviewOpenRate,
		ReviewClickRate:      cfg.Thresholds.ReviewClickRate,
		ReviewDeliveryRate:   cfg.Thresholds.ReviewDeliveryRate,
	}, store)
	if err := thresholds.Load(ctx); err != nil {
		logger.Error("failed to load threshold overrides", "error", err)
		os.Exit(1)
	}

	svc := mailchimp.NewService(cfg.Mailchimp)
	collector := mailchimp.NewCollector(svc, store, cfg.Polling)
	engine := analytics.NewEngine()

	go collector.Start(ctx)

	handlers := api.NewHandlers(svc, store, responseCache, collector, engine, thresholds, cfg.Polling.LookbackDays)
	server := api.NewServer(handlers)

	go func() {
		addr := cfg.Server.Addr()
		logger.Info("starting API server", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
