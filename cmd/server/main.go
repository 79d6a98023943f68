// Command server runs the daily goal tracker API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dailyone-app/dailyone-backend/internal/api"
	goalsapi "github.com/dailyone-app/dailyone-backend/internal/api/goals"
	rankapi "github.com/dailyone-app/dailyone-backend/internal/api/rank"
	reflectionsapi "github.com/dailyone-app/dailyone-backend/internal/api/reflections"
	usersapi "github.com/dailyone-app/dailyone-backend/internal/api/users"
	"github.com/dailyone-app/dailyone-backend/internal/cache"
	"github.com/dailyone-app/dailyone-backend/internal/config"
	"github.com/dailyone-app/dailyone-backend/internal/repository"
	"github.com/dailyone-app/dailyone-backend/internal/service/goals"
	"github.com/dailyone-app/dailyone-backend/internal/service/ranks"
	"github.com/dailyone-app/dailyone-backend/internal/service/reflections"
	"github.com/dailyone-app/dailyone-backend/internal/service/scheduler"
	"github.com/dailyone-app/dailyone-backend/internal/service/scores"
	"github.com/dailyone-app/dailyone-backend/internal/service/users"
	"github.com/dailyone-app/dailyone-backend/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log.Info().
		Str("environment", cfg.Server.Environment).
		Int("port", cfg.Server.Port).
		Msg("Starting daily goal tracker")

	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	if err := db.AutoMigrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	if err := repository.Seed(db, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed reference data")
	}

	redisCache, err := cache.NewRedisCache(&cfg.Database.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer func() {
		if err := redisCache.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Redis connection")
		}
	}()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	reflectionRepo := repository.NewReflectionRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	rankRepo := repository.NewRankRepository(db)

	// Services.
	cacheTTL := cfg.Cache.TTL()
	userService := users.NewService(userRepo, log)
	goalService := goals.NewService(goalRepo, cfg.Goals, log)
	scoreService := scores.NewService(scoreRepo, log)
	rankService := ranks.NewService(scoreService, rankRepo, redisCache, cacheTTL, log)
	reflectionService := reflections.NewService(
		goalRepo, reflectionRepo, scoreService, rankService, redisCache, cacheTTL, log,
	)

	sweeper := scheduler.NewService(&cfg.Scheduler, userRepo, rankService, log)
	if err := sweeper.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer sweeper.Stop()

	router := api.NewRouter(cfg, api.Handlers{
		Users:       usersapi.NewHandler(userService, log),
		Goals:       goalsapi.NewHandler(goalService, log),
		Reflections: reflectionsapi.NewHandler(reflectionService, log),
		Rank:        rankapi.NewHandler(rankService, scoreService, log),
	}, userService, db, redisCache, log)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
