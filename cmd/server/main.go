package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"chatspace/internal/chat"
	"chatspace/internal/config"
	"chatspace/internal/logger"
)

func main() {
	// 1. Config & Flags
	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	addr := flag.String("addr", settings.Addr, "http service address")
	sessionPath := flag.String("session", settings.SessionPath, "session YAML (default: built-in demo)")
	flag.Parse()

	zl, err := logger.New(settings.LogLevel)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer zl.Sync()

	sessionCfg, err := config.LoadSession(*sessionPath)
	if err != nil {
		zl.Fatal("session_config_invalid", zap.Error(err))
	}

	// 2. Metrics
	registry := prometheus.NewRegistry()
	metrics, err := chat.NewMetrics(registry)
	if err != nil {
		zl.Fatal("metrics_register_failed", zap.Error(err))
	}

	// 3. Hub first: the store publishes every change into it
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := chat.NewHub(zl.Named("hub"))
	go hub.Run(ctx)

	store, err := chat.New(sessionCfg,
		chat.WithLogger(zl.Named("store")),
		chat.WithMetrics(metrics),
		chat.WithNotifier(hub.Publish),
	)
	if err != nil {
		zl.Fatal("store_init_failed", zap.Error(err))
	}
	defer store.Close()

	if err := store.StartSimulation(); err != nil {
		zl.Fatal("simulation_start_failed", zap.Error(err))
	}

	chatHandler := chat.NewHandler(store, hub, zl.Named("http"))

	// 4. Define Routes
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	chatHandler.Register(r)

	srv := &http.Server{Addr: *addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	zl.Info("server_starting", zap.String("addr", *addr), zap.String("local_user", store.LocalUser()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zl.Fatal("server_failed", zap.Error(err))
	}
	zl.Info("server_stopped")
}
