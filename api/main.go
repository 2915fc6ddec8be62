package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rogerio-castellano/enterprise-bi/internal/config"
	"github.com/rogerio-castellano/enterprise-bi/internal/db"
	"github.com/rogerio-castellano/enterprise-bi/internal/http/ban"
	"github.com/rogerio-castellano/enterprise-bi/internal/http/handlers"
	rl "github.com/rogerio-castellano/enterprise-bi/internal/http/rate_limiter"
	"github.com/rogerio-castellano/enterprise-bi/internal/http/router"
	"github.com/rogerio-castellano/enterprise-bi/internal/logging"
	"github.com/rogerio-castellano/enterprise-bi/internal/redissvc"
	"github.com/rogerio-castellano/enterprise-bi/internal/repo"
	"github.com/rs/zerolog/log"
)

// @title Enterprise BI API
// @version 1.0
// @description Read-only revenue and margin metrics aggregated from the sales warehouse.
// @host localhost:8000
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load configuration")
	}
	logging.Init(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("❌ could not connect to warehouse")
	}
	defer database.Close()

	sessions := db.NewPoolSessions(database)
	handlers.SetSessionFactory(sessions)
	handlers.SetDatabasePinger(sessions)

	sqlRepo, err := repo.NewSQLMetricsRepository(cfg.Database.QueryTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("could not build warehouse queries")
	}
	var metricsRepo repo.MetricsRepository = sqlRepo
	if cfg.Breaker.Enabled {
		metricsRepo = repo.NewBreakerMetricsRepository(sqlRepo, cfg.Breaker.FailureThreshold, cfg.Breaker.OpenTimeout)
	}
	handlers.SetMetricsRepo(metricsRepo)

	policy := ban.Policy{
		MaxStrikes:   cfg.RateLimit.BanStrikes,
		BanTTL:       cfg.RateLimit.BanTTL,
		StrikeWindow: cfg.RateLimit.StrikeWindow,
	}
	var bans ban.Store = ban.NewMemoryStore(policy)
	if cfg.Redis.Addr != "" {
		redisService := redissvc.Connect(cfg.Redis)
		if err := redisService.Ping(ctx); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("could not connect to Redis")
		}
		defer redisService.Close()

		handlers.SetRedisService(redisService)
		bans = ban.NewRedisStore(redisService, policy)
	}

	opts := router.Options{AllowedOrigin: cfg.CORS.AllowedOrigin}
	if cfg.RateLimit.Enabled {
		limiter := rl.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, bans)
		go limiter.StartVisitorCleanupLoop(ctx)
		opts.RateLimiter = limiter
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router.NewRouter(opts),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("driver", cfg.Database.Driver).Msg("✅ server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
