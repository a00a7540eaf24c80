package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"owner_portal/internal/adapters/airdna"
	"owner_portal/internal/adapters/fallback"
	"owner_portal/internal/adapters/fcm"
	"owner_portal/internal/adapters/hostaway"
	server "owner_portal/internal/adapters/http_server"
	"owner_portal/internal/adapters/observability"
	redisad "owner_portal/internal/adapters/redis"
	"owner_portal/internal/app"
	"owner_portal/internal/shared"
	mysqlrepo "owner_portal/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	tokens := hostaway.NewTokenSource(cfg.HostawayBase, cfg.HostawayID, cfg.HostawaySecret)
	vendor, err := hostaway.New(cfg.HostawayBase, tokens, cfg.HostawayRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize hostaway client")
	}

	samples, err := fallback.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load fallback dataset")
	}

	q := app.NewQueryService(vendor, samples, cache, cfg.CacheTTL)
	auth := app.NewAuthService(repo, cfg.JWTSecret, cfg.JWTTTL)
	hooks := app.NewWebhookService(repo, fcm.New(cfg.FCMServerKey))

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Q:         q,
		Auth:      auth,
		Hooks:     hooks,
		Estimator: airdna.New(),
		Repo:      repo,
		Env:       cfg.AppEnv,
		StaticDir: cfg.StaticDir,
		Started:   time.Now(),
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	_ = cache.Close()
	_ = db.Close()
}
