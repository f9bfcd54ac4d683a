package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"casecall-platform/internal/access"
	"casecall-platform/internal/config"
	"casecall-platform/internal/directory"
	"casecall-platform/internal/events"
	"casecall-platform/internal/httpapi"
	"casecall-platform/internal/lifecycle"
	"casecall-platform/internal/notify"
	"casecall-platform/internal/presence"
	"casecall-platform/internal/registry"
	"casecall-platform/internal/relay"
	"casecall-platform/internal/reporting"
	"casecall-platform/internal/session"
	"casecall-platform/pkg/logger"
	"casecall-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	sessions, err := session.NewManager(cfg.Auth)
	if err != nil {
		log.Error("session init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	dir := directory.NewPostgresRepo(db)
	resolver := access.NewResolver(dir,
		session.ClientValidator(sessions),
		session.ConsultantValidator(sessions),
		session.DelegateValidator(sessions),
	)

	var store registry.Store
	switch cfg.Call.Store {
	case "redis":
		store = registry.NewRedisStore(rdb, registry.RedisOptions{
			LivenessWindow: cfg.Call.LivenessWindow,
			RetentionTTL:   cfg.Call.RetentionTTL,
		})
	default:
		mem := registry.NewMemoryStore(registry.MemoryOptions{
			LivenessWindow: cfg.Call.LivenessWindow,
			RetentionTTL:   cfg.Call.RetentionTTL,
		})
		go janitor(rootCtx, log, mem)
		store = mem
	}

	tracker := presence.NewRedisTracker(rdb, cfg.Call.PresenceWindow)

	var dispatcher notify.Dispatcher = notify.NopDispatcher{}
	if cfg.Notify.WebhookURL != "" {
		dispatcher = notify.NewWebhookDispatcher(cfg.Notify.WebhookURL, cfg.Notify.Timeout)
	}

	eventLog := events.NewService(events.NewPostgresRepo(db))
	controller := lifecycle.NewController(store, resolver, dir, tracker, dispatcher, eventLog, log, cfg.Notify.Timeout)
	signals := relay.NewService(store, resolver, dir, tracker)
	reports := reporting.NewService(eventLog)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, &httpapi.Handlers{
		Lifecycle: controller,
		Relay:     signals,
		Reports:   reports,
		Access:    resolver,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "store", cfg.Call.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	// Let in-flight missed-call notifications finish.
	controller.Drain()
}

// janitor evicts expired rooms from the in-memory registry. The redis
// store needs none of this; its keys expire on their own.
func janitor(ctx context.Context, log *slog.Logger, store *registry.MemoryStore) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.EvictExpired(time.Now()); n > 0 {
				log.Info("registry eviction", "rooms", n)
			}
		}
	}
}
