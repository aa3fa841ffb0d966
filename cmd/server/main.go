package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/swarooppatilx/pledge/internal/api"
	"github.com/swarooppatilx/pledge/internal/config"
	"github.com/swarooppatilx/pledge/internal/ingest"
	"github.com/swarooppatilx/pledge/internal/ledger"
	"github.com/swarooppatilx/pledge/internal/metrics"
	"github.com/swarooppatilx/pledge/internal/store"
	"github.com/swarooppatilx/pledge/internal/ticker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfgPath := flag.String("config", "config.yml", "path to config file")
	flag.Parse()
	if env := os.Getenv("PLEDGE_CONFIG"); env != "" {
		*cfgPath = env
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	// --- Store ---
	var st store.Store
	var cleanup []func()

	if cfg.Postgres.Enabled() {
		pool, err := pgxpool.New(context.Background(), cfg.Postgres.URL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		st = store.NewPostgresStore(pool)
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if cfg.Redis.Enabled() {
			opt, err := redis.ParseURL(cfg.Redis.URL)
			if err != nil {
				slog.Error("invalid redis url", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, cfg.Redis.CacheTTL())
			slog.Info("redis cache enabled", "ttl", cfg.Redis.CacheTTL())
		}
	} else {
		slog.Warn("postgres not configured, using in-memory store (data will not persist)")
		st = store.NewMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Ledger gateway ---
	lg := ledger.NewClient(&cfg.Ledger)

	// --- WebSocket hub ---
	hub := api.NewHub()
	go hub.Run()

	// --- Background loops ---
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	tk := ticker.New(hub, cfg.Poller.TickerInterval)
	go tk.Run(bgCtx)

	poller := ingest.New(lg, st, hub, tk, cfg.Pledges, cfg.Poller.RefreshInterval)
	go poller.Run(bgCtx)

	// --- API service ---
	svc := api.NewService(st, lg, hub, cfg.Ledger.Concurrency)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"pledge"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", svc.Routes)

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("pledge engine listening", "port", cfg.HTTP.Port, "pledges", len(cfg.Pledges))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	bgCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down pledge engine...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("pledge engine stopped")
}
