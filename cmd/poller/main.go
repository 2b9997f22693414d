// Package main is the entry point for the Airtime status poller.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/airtime/internal/archive"
	"github.com/onnwee/airtime/internal/channel"
	"github.com/onnwee/airtime/internal/config"
	"github.com/onnwee/airtime/internal/middleware"
	"github.com/onnwee/airtime/internal/poller"
	"github.com/onnwee/airtime/internal/store"
	"github.com/onnwee/airtime/internal/tracing"
)

// compactEveryTicks is how many poll cycles run between compaction passes.
const compactEveryTicks = 60

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", "", "path to optional YAML config file")
	metricsPort := flag.Int("metrics-port", 9091, "port for the metrics and health endpoint")
	flag.Parse()

	if *help {
		fmt.Println("Airtime Status Poller")
		fmt.Println()
		fmt.Println("Usage: poller [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		}
		os.Exit(1)
	}
	if cfg.StatusBaseURL == "" {
		fmt.Fprintln(os.Stderr, "config error: STATUS_BASE_URL is required for the poller")
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "summary", cfg.LogSummary())

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("invalid redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	tracingProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "airtime-poller",
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		OTLPEndpoint: cfg.TracingEndpoint,
		SamplingRate: 1.0,
		InsecureMode: cfg.Env != "production",
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// The cold archive is wired in only when S3 is configured.
	var archiver poller.Archiver
	if cfg.S3BucketName != "" {
		exporter, err := archive.NewExporter(archive.Config{
			BucketName:      cfg.S3BucketName,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Endpoint:        cfg.S3Endpoint,
		})
		if err != nil {
			logger.Error("failed to create archive exporter", "error", err)
			os.Exit(1)
		}
		archiver = exporter
		logger.Info("cold archive enabled", "bucket", cfg.S3BucketName)
	}

	registry := prometheus.NewRegistry()
	pollerMetrics := poller.NewMetrics()
	if err := pollerMetrics.Register(registry); err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	p := poller.New(
		poller.NewHTTPStatusSource(cfg.StatusBaseURL),
		store.NewRedisStore(redisClient),
		channel.NewPostgresRepository(db),
		nil,
		archiver,
		pollerMetrics,
		logger,
		poller.Options{
			Interval:           time.Duration(cfg.PollIntervalSeconds) * time.Second,
			CompactEvery:       compactEveryTicks,
			CompactMaxInterval: time.Duration(cfg.CompactMaxIntervalMin) * time.Minute,
		},
	)

	// Metrics and liveness endpoint for the poller process.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
			slog.Error("failed to write health response", "error", err)
		}
	})

	metricsServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", *metricsPort),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting metrics server", "port", *metricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
			os.Exit(1)
		}
	}()

	runCtx, stopPoller := context.WithCancel(context.Background())
	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		if err := p.Run(runCtx); err != nil && err != context.Canceled {
			logger.Error("poller error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down poller...")
	stopPoller()
	<-pollerDone

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("metrics server forced to shutdown", "error", err)
	}

	if err := tracingProvider.Shutdown(ctx); err != nil {
		logger.Error("tracing shutdown failed", "error", err)
	}

	logger.Info("poller stopped")
}
