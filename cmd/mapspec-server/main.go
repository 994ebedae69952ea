package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mohammed-shakir/geomap-resolver/internal/cache/plancache"
	"github.com/mohammed-shakir/geomap-resolver/internal/cache/redisstore"
	"github.com/mohammed-shakir/geomap-resolver/internal/catalog"
	"github.com/mohammed-shakir/geomap-resolver/internal/core/config"
	"github.com/mohammed-shakir/geomap-resolver/internal/core/observability"
	"github.com/mohammed-shakir/geomap-resolver/internal/core/server"
	"github.com/mohammed-shakir/geomap-resolver/internal/logger"
	"github.com/mohammed-shakir/geomap-resolver/internal/mapspec"
	"github.com/mohammed-shakir/geomap-resolver/internal/metrics"
	"github.com/mohammed-shakir/geomap-resolver/internal/planevents"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func run() int {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	logCfg := logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		SampleN:   envInt("LOG_SAMPLE_N", 0),
		Component: "mapspec-server",
	}
	zl := logger.Build(logCfg, os.Stdout)
	bootLog := logger.NewSlog(&zl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mcfg := metrics.ConfigFromEnv(Version)
	if mcfg.Enabled {
		p := metrics.Init(mcfg)
		observability.Init(p.Registerer(), true)
		p.Serve(ctx, bootLog)
	} else {
		observability.Init(nil, false)
	}
	observability.ExposeBuildInfo(Version)

	// load eagerly so a broken catalog fails the boot, not the first request
	start := time.Now()
	provider := catalog.NewProvider(catalog.FileLoader(cfg.CatalogPath))
	cat, err := provider.Get()
	if err != nil {
		bootLog.Error("catalog load failed", "path", cfg.CatalogPath, "err", err)
		return 1
	}
	observability.SetCatalog(cat.Version(), time.Since(start).Seconds())

	logCfg.CatalogVersion = cat.Version()
	zl = logger.Build(logCfg, os.Stdout)
	appLog := logger.NewSlog(&zl)
	appLog.Info("starting mapspec server",
		"addr", cfg.Addr,
		"version", Version,
		"files", cat.NumFiles(),
		"features", cat.NumFeatures())

	var cacheOpts []plancache.Option
	if cfg.RedisAddr != "" {
		rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		rs, err := redisstore.New(rctx, cfg.RedisAddr)
		cancel()
		if err != nil {
			appLog.Error("redis connect failed", "addr", cfg.RedisAddr, "err", err)
			return 1
		}
		defer func() { _ = rs.Close() }()
		cacheOpts = append(cacheOpts,
			plancache.WithShared(rs, cfg.PlanCacheTTL),
			plancache.WithOpTimeout(cfg.CacheOpTimeout))
	}
	cache, err := plancache.New(cfg.PlanCacheSize, cacheOpts...)
	if err != nil {
		appLog.Error("plan cache setup failed", "err", err)
		return 1
	}

	opts := []mapspec.Option{
		mapspec.WithViewport(cfg.ViewportWidth, cfg.ViewportHeight, cfg.MaxViewport),
		mapspec.WithMaxInputs(cfg.MaxNames),
		mapspec.WithCache(cache),
	}
	if cfg.Events.Enabled {
		pub, err := planevents.New(cfg.Events.BrokerList(), cfg.Events.Topic, cfg.Events.QueueSize, appLog)
		if err != nil {
			appLog.Error("events setup failed", "err", err)
			return 1
		}
		defer func() {
			if err := pub.Close(); err != nil {
				appLog.Warn("events close", "err", err)
			}
		}()
		opts = append(opts, mapspec.WithEvents(pub))
	}

	planner := mapspec.New(provider, appLog, opts...)
	if err := server.Run(ctx, cfg, appLog, planner); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
