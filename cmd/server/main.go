package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/guildd/guildd/internal/admin"
	"github.com/guildd/guildd/internal/config"
	"github.com/guildd/guildd/internal/docstore"
	"github.com/guildd/guildd/internal/guild"
	"github.com/guildd/guildd/internal/handler"
	"github.com/guildd/guildd/internal/logger"
	"github.com/guildd/guildd/internal/metrics"
	"github.com/guildd/guildd/internal/server"
	"github.com/guildd/guildd/internal/session"
	"github.com/guildd/guildd/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.FromConfig(cfg.LogLevel, cfg.LogFormat))

	// Connect the document store and probe it before serving.
	store, err := docstore.ConnectMongo(context.Background(), cfg.MongoURI,
		time.Duration(cfg.MongoTimeoutSeconds)*time.Second)
	if err != nil {
		log.Error("failed to connect document store", "error", err, "uri", cfg.MongoURI)
		os.Exit(1)
	}

	// Fixed namespaces: USERS.users and SESSIONS.sessions; guilds get
	// their own namespace each.
	users := user.New(store.Namespace("USERS"))
	sessions := session.New(store.Namespace("SESSIONS"),
		time.Duration(cfg.SessionTTLSeconds)*time.Second)
	guilds := guild.New(store)

	if err := users.EnsureIndexes(context.Background()); err != nil {
		log.Error("failed to create user indexes", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	h := handler.New(log, sessions, users, guilds)
	srv := server.New(log, h, m)

	adminSrv := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: admin.NewRouter(log, store, registry),
	}
	go func() {
		log.Info("admin listening", "addr", cfg.AdminAddr)
		if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("admin server failed", "error", err)
		}
	}()

	go func() {
		if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", "error", err)
	}
	if err := adminSrv.Shutdown(ctx); err != nil {
		log.Error("admin forced shutdown", "error", err)
	}
	if err := store.Close(ctx); err != nil {
		log.Error("store close failed", "error", err)
	}
	log.Info("server exited")
}
