// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

// Command fortis-ledger serves a small personal ledger over HTTP. Reads are
// cached by a fortis store and every database call is protected by a
// circuit breaker, with retries for busy databases and stale snapshots when
// the database is unreachable.
//
// Run:
//
//	go run ./cmd/fortis-ledger -db ledger.db -config fortis.yaml
//
// Access metrics:
//
//	curl http://localhost:2112/metrics | grep fortis
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agilira/fortis"
	"github.com/agilira/fortis/internal/httpapi"
	"github.com/agilira/fortis/internal/ledger"
	fortisotel "github.com/agilira/fortis/otel"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type options struct {
	addr        string
	dsn         string
	configPath  string
	metricsAddr string
	cacheSize   int
	cacheTTL    time.Duration
	policy      string
	threshold   int
	timeout     time.Duration
	debug       bool
}

func main() {
	var opts options
	flag.StringVar(&opts.addr, "addr", ":8080", "HTTP listen address")
	flag.StringVar(&opts.dsn, "db", "ledger.db", "SQLite database path (:memory: for a throwaway database)")
	flag.StringVar(&opts.configPath, "config", "", "configuration file watched for cache and breaker settings")
	flag.StringVar(&opts.metricsAddr, "metrics-addr", ":2112", "Prometheus metrics listen address (empty disables)")
	flag.IntVar(&opts.cacheSize, "cache-size", fortis.DefaultMaxSize, "maximum cached entries")
	flag.DurationVar(&opts.cacheTTL, "cache-ttl", fortis.DefaultTTL, "default cache entry lifetime")
	flag.StringVar(&opts.policy, "eviction", string(fortis.PolicyLRU), "eviction policy: lru, lfu, fifo or ttl")
	flag.IntVar(&opts.threshold, "breaker-threshold", fortis.DefaultFailureThreshold, "failures before the breaker opens")
	flag.DurationVar(&opts.timeout, "breaker-timeout", fortis.DefaultBreakerTimeout, "time the breaker stays open")
	flag.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flag.Parse()

	logger := newConsoleLogger(os.Stderr, opts.debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		log.Fatalf("fortis-ledger: %v", err)
	}
}

func run(ctx context.Context, opts options, logger fortis.Logger) error {
	policy, err := fortis.ParseEvictionPolicy(opts.policy)
	if err != nil {
		return err
	}

	exporter, err := prometheus.New()
	if err != nil {
		return err
	}
	latencyBuckets := sdkmetric.Stream{
		Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
			Boundaries: []float64{100, 500, 1000, 5000, 10000, 50000, 100000},
		},
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithView(sdkmetric.NewView(sdkmetric.Instrument{Name: "fortis_*_latency_ns"}, latencyBuckets)),
	)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("meter provider shutdown failed", "error", err)
		}
	}()

	collector, err := fortisotel.NewCollector(provider, fortisotel.WithCacheName("ledger"))
	if err != nil {
		return err
	}

	cache := fortis.NewStore[any](fortis.Config{
		MaxSize:          opts.cacheSize,
		DefaultTTL:       opts.cacheTTL,
		EvictionPolicy:   policy,
		Logger:           logger,
		MetricsCollector: collector,
	})
	breaker := fortis.NewCircuitBreaker(fortis.BreakerConfig{
		Name:             "ledger-db",
		FailureThreshold: opts.threshold,
		Timeout:          opts.timeout,
		Logger:           logger,
		Observer:         collector,
	})

	if opts.configPath != "" {
		hc, err := fortis.NewHotConfig(cache, fortis.HotConfigOptions{
			ConfigPath: opts.configPath,
			Breakers:   []*fortis.CircuitBreaker{breaker},
			Logger:     logger,
			OnReload: func(oldConfig, newConfig fortis.ReloadConfig) {
				logger.Info("configuration reloaded",
					"max_size", newConfig.Cache.MaxSize,
					"default_ttl", newConfig.Cache.DefaultTTL.String(),
					"eviction_policy", newConfig.Cache.EvictionPolicy.String(),
					"failure_threshold", newConfig.Breaker.FailureThreshold)
			},
		})
		if err != nil {
			return err
		}
		if err := hc.Start(); err != nil {
			return err
		}
		defer func() { _ = hc.Stop() }()
	}

	db, err := ledger.Open(opts.dsn)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}

	repo := ledger.NewRepository(db, ledger.Options{
		Cache:   cache,
		Breaker: breaker,
		Logger:  logger,
	})

	gin.SetMode(gin.ReleaseMode)
	servers := []*http.Server{{
		Addr:              opts.addr,
		Handler:           httpapi.NewHandler(repo, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}}
	if opts.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		servers = append(servers, &http.Server{
			Addr:              opts.metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		logger.Info("listening", "addr", srv.Addr)
		go func(srv *http.Server) {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}(srv)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errCh:
		logger.Error("server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range servers {
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			logger.Warn("server shutdown failed", "addr", srv.Addr, "error", serr)
		}
	}
	return err
}
