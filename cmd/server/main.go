package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jusunglee/mta-arrivals/api/handlers"
	"github.com/jusunglee/mta-arrivals/internal/feed"
	"github.com/jusunglee/mta-arrivals/internal/metrics"
	"github.com/jusunglee/mta-arrivals/pkg/mta"
)

func main() {
	var (
		configFile = flag.String("config", mta.DefaultConfig().ConfigFile, "Config YAML file")
		port       = flag.Int("port", 0, "Server port (overrides config)")
	)
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	if v := os.Getenv("MTA_CONFIG"); v != "" && !isFlagSet("config") {
		*configFile = v
	}

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	collector := metrics.NewCollector()

	client, cfg, err := mta.NewLocal(mta.Config{ConfigFile: *configFile}, feed.WithMetrics(collector))
	if err != nil {
		slog.Error("Failed to create MTA client", "error", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	var metricsSrv *http.Server
	if cfg.Server.MetricsAddr != "" {
		metricsSrv = collector.Serve(cfg.Server.MetricsAddr)
	}

	// Create HTTP server
	r := mux.NewRouter()
	h := handlers.NewHandler(client)
	h.RegisterRoutes(r)

	// Add middleware
	r.Use(loggingMiddleware)
	r.Use(corsMiddleware)

	// Write timeout leaves room for the slowest feed fetch
	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.FetchTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port, "feeds", len(cfg.Feeds))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	slog.Info("Server stopped")
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("request", "method", r.Method, "uri", r.RequestURI, "duration", time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
