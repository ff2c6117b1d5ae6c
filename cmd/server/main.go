// main wires high-level dependencies, exposes the HTTP router, and keeps
// the server lifecycle small. Business logic lives in the internal service
// packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/jackc/pgx/v5/stdlib"

	"rollbook/internal/membership/handler"
	membershipmetrics "rollbook/internal/membership/metrics"
	"rollbook/internal/membership/service"
	"rollbook/internal/membership/store"
	"rollbook/internal/platform/config"
	"rollbook/internal/platform/httpserver"
	"rollbook/internal/platform/logger"
	"rollbook/internal/platform/metrics"
	"rollbook/internal/platform/middleware"
	platformredis "rollbook/internal/platform/redis"
	audit "rollbook/pkg/platform/audit"
	"rollbook/pkg/platform/audit/publisher"
	auditmemory "rollbook/pkg/platform/audit/store/memory"
	auditpostgres "rollbook/pkg/platform/audit/store/postgres"
	"rollbook/pkg/platform/audit/worker"
)

const auditBufferSize = 1024

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	memberships, db, err := buildStore(cfg)
	if err != nil {
		log.Error("failed to open membership store", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	cache, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if cache != nil {
		defer cache.Close()
		memberships = store.NewCachedStore(memberships, cache.Client, log)
	}

	auditPublisher, auditCleanup, err := buildAudit(ctx, cfg, db, log)
	if err != nil {
		log.Error("failed to build audit pipeline", "error", err)
		os.Exit(1)
	}
	defer auditCleanup()

	svc, err := service.New(memberships,
		service.WithAuditPublisher(auditPublisher),
		service.WithMetrics(membershipmetrics.New()),
		service.WithLogger(log),
	)
	if err != nil {
		log.Error("failed to build membership service", "error", err)
		os.Exit(1)
	}

	h := handler.New(svc, log, metrics.New(), middleware.NewHMACValidator(cfg.JWTSigningKey))

	router := chi.NewRouter()
	h.Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", healthz(db, cache))

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting rollbook server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// buildStore opens the SQL-backed store when a DSN is configured and falls
// back to the in-memory store for local development.
func buildStore(cfg config.Server) (store.Store, *sql.DB, error) {
	if cfg.PostgresDSN == "" {
		return store.NewInMemoryStore(), nil, nil
	}
	db, err := sql.Open("pgx", cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store.NewPostgresStore(db), db, nil
}

// buildAudit selects the audit pipeline: Kafka when brokers are configured,
// otherwise a channel worker draining into the configured store.
func buildAudit(ctx context.Context, cfg config.Server, db *sql.DB, log *slog.Logger) (publisher.Publisher, func(), error) {
	if cfg.KafkaBrokers != "" {
		kafka, err := publisher.NewKafkaPublisher(strings.Split(cfg.KafkaBrokers, ","), cfg.AuditTopic, log)
		if err != nil {
			return nil, nil, err
		}
		return kafka, func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := kafka.Close(flushCtx); err != nil {
				log.Error("failed to flush audit producer", "error", err)
			}
		}, nil
	}

	var events audit.Store
	if db != nil {
		events = auditpostgres.New(db)
	} else {
		events = auditmemory.New()
	}

	inbox := make(chan audit.Event, auditBufferSize)
	w := worker.New(events, inbox, log)
	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()
	return publisher.NewChannelPublisher(inbox), func() {}, nil
}

// healthz reports liveness of the store and cache collaborators.
func healthz(db *sql.DB, cache *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if cache != nil {
			if err := cache.Health(r.Context()); err != nil {
				http.Error(w, "cache unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
