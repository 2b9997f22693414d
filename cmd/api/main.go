// Package main is the entry point for the Airtime API server.
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
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/airtime/internal/api"
	"github.com/onnwee/airtime/internal/auth"
	"github.com/onnwee/airtime/internal/channel"
	"github.com/onnwee/airtime/internal/config"
	"github.com/onnwee/airtime/internal/health"
	"github.com/onnwee/airtime/internal/live"
	"github.com/onnwee/airtime/internal/middleware"
	"github.com/onnwee/airtime/internal/store"
	"github.com/onnwee/airtime/internal/tracing"
	"github.com/onnwee/airtime/internal/viewership"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", "", "path to optional YAML config file")
	flag.Parse()

	if *help {
		fmt.Println("Airtime API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
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

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "summary", cfg.LogSummary())

	// Redis backs the history store.
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("invalid redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Postgres backs the channel registry.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	tracingProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "airtime-api",
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

	jwtService := auth.NewJWTServiceWithRotation(cfg.JWTSecret, cfg.JWTSecretPrevious)
	historyStore := store.NewRedisStore(redisClient)
	channels := channel.NewPostgresRepository(db)
	broadcaster := live.NewBroadcaster()

	registry := prometheus.NewRegistry()
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	channelHandlers := api.NewChannelHandlers(
		historyStore,
		channels,
		jwtService,
		broadcaster,
		viewership.CompactOptions{
			MaxInterval: time.Duration(cfg.CompactMaxIntervalMin) * time.Minute,
		},
	)
	healthHandlers := api.NewHealthHandlers(api.HealthHandlersConfig{
		RedisChecker: health.NewRedisChecker(redisClient),
		DBChecker:    health.NewDBChecker(db),
	})

	mux := api.NewRouter(api.RouterConfig{
		Channels: channelHandlers,
		Health:   healthHandlers,
		Registry: registry,
	})

	corsConfig := middleware.DefaultCORSConfig(splitOrigins(cfg.CORSAllowedOrigins))

	// RequestID -> Tracing -> Logging -> HTTPMetrics -> CORS
	var handler http.Handler = middleware.CORS(corsConfig)(mux)
	handler = middleware.HTTPMetrics(httpMetrics)(handler)
	handler = middleware.Logging(logger)(handler)
	if tracingProvider.IsEnabled() {
		handler = middleware.Tracing("airtime-api")(handler)
	}
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := tracingProvider.Shutdown(ctx); err != nil {
		logger.Error("tracing shutdown failed", "error", err)
	}

	logger.Info("server stopped")
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
