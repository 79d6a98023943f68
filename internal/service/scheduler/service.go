// Package scheduler provides the daily weekly-completion sweep.
//
// Weekly scores are only flipped to complete lazily, when a user's rank is
// recomputed. A user who stops reflecting would otherwise keep stale open
// weeks forever, so a daily cron job sweeps every user shortly after
// midnight.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dailyone-app/dailyone-backend/internal/config"
	"github.com/dailyone-app/dailyone-backend/internal/metrics"
	"github.com/dailyone-app/dailyone-backend/internal/repository"
	"github.com/dailyone-app/dailyone-backend/internal/service/ranks"
	"github.com/dailyone-app/dailyone-backend/pkg/logger"
)

// UserRepository interface for listing users to sweep.
type UserRepository interface {
	ListIDs() ([]string, error)
}

// RankService interface for the per-user sweep.
type RankService interface {
	UpdateCompletedWeeks(ctx context.Context, userID string) error
}

// Service handles the daily completion sweep scheduling.
type Service struct {
	config   *config.SchedulerConfig
	userRepo UserRepository
	rankSvc  RankService
	log      *logger.Logger
	cron     *cron.Cron
}

// NewService creates a new scheduler service.
func NewService(
	cfg *config.SchedulerConfig,
	userRepo *repository.UserRepository,
	rankService *ranks.Service,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(cfg, userRepo, rankService, log)
}

// NewServiceWithInterfaces creates a new scheduler service with interface
// dependencies (useful for testing).
func NewServiceWithInterfaces(
	cfg *config.SchedulerConfig,
	userRepo UserRepository,
	rankSvc RankService,
	log *logger.Logger,
) *Service {
	return &Service{
		config:   cfg,
		userRepo: userRepo,
		rankSvc:  rankSvc,
		log:      log,
	}
}

// Start initializes and starts the cron scheduler.
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.log.Info().Msg("Scheduler is disabled in configuration")
		return nil
	}

	location, err := s.config.GetLocation()
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.config.Timezone, err)
	}

	s.cron = cron.New(cron.WithLocation(location))

	cronExpr, err := s.buildCronExpression()
	if err != nil {
		return fmt.Errorf("failed to build cron expression: %w", err)
	}

	_, err = s.cron.AddFunc(cronExpr, func() {
		s.runSweep(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to register completion sweep job: %w", err)
	}

	s.cron.Start()

	entries := s.cron.Entries()
	nextRun := ""
	if len(entries) > 0 {
		nextRun = entries[0].Next.Format(time.RFC3339)
	}

	s.log.Info().
		Str("schedule", cronExpr).
		Str("timezone", s.config.Timezone).
		Str("next_run", nextRun).
		Msg("Scheduler started successfully")

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.log.Info().Msg("Scheduler stopped")
	}
}

// buildCronExpression generates a daily cron expression from the configured
// HH:MM time.
func (s *Service) buildCronExpression() (string, error) {
	parts := strings.Split(s.config.Time, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time format %q, expected HH:MM", s.config.Time)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour %q", parts[0])
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute %q", parts[1])
	}

	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// runSweep executes the completion sweep for every user. A failure for one
// user does not stop the sweep for the rest.
func (s *Service) runSweep(ctx context.Context) {
	start := time.Now()
	defer func() {
		metrics.SweepDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	s.log.Info().Msg("Running weekly completion sweep")

	userIDs, err := s.userRepo.ListIDs()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list users for completion sweep")
		metrics.SweepRunsTotal.WithLabelValues("error").Inc()
		return
	}

	failures := 0
	for _, userID := range userIDs {
		if err := s.rankSvc.UpdateCompletedWeeks(ctx, userID); err != nil {
			s.log.Error().Err(err).Str("user_id", userID).Msg("Completion sweep failed for user")
			failures++
		}
	}

	status := "success"
	if failures > 0 {
		status = "partial"
	}
	metrics.SweepRunsTotal.WithLabelValues(status).Inc()

	s.log.Info().
		Int("users", len(userIDs)).
		Int("failures", failures).
		Dur("duration", time.Since(start)).
		Msg("Weekly completion sweep finished")
}
