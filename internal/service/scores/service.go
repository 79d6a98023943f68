// Package scores maintains capped daily and weekly point totals. Weeks run
// Sunday 00:00:00 through Saturday 23:59:59.999 on the server clock.
package scores

import (
	"context"
	"errors"
	"time"

	"github.com/dailyone-app/dailyone-backend/internal/models"
	"github.com/dailyone-app/dailyone-backend/internal/repository"
	"github.com/dailyone-app/dailyone-backend/pkg/apperr"
	"github.com/dailyone-app/dailyone-backend/pkg/logger"
)

// Lookback for rank history: 13 weeks.
const (
	rankLookbackDays  = 91
	rankLookbackWeeks = 13
)

// Repository interface for score persistence.
type Repository interface {
	AddDaily(userID string, day, weekStart, weekEnd time.Time, points int) (*models.DailyScore, int, error)
	AdjustDailyForDate(userID string, day time.Time, delta int) (*models.DailyScore, int, error)
	GetDailyByDate(userID string, day time.Time) (*models.DailyScore, error)
	GetWeeklyByStart(userID string, weekStart time.Time) (*models.WeeklyScore, error)
	ListRecentWeekly(userID string, since time.Time, limit int) ([]models.WeeklyScore, error)
	ListIncompleteWeekly(userID string) ([]models.WeeklyScore, error)
	MarkWeekComplete(id string) error
}

// Service handles daily and weekly score accumulation.
type Service struct {
	repo Repository
	log  *logger.Logger
	now  func() time.Time
}

// NewService creates a new score service with the concrete repository type.
func NewService(repo *repository.ScoreRepository, log *logger.Logger) *Service {
	return NewServiceWithInterfaces(repo, log)
}

// NewServiceWithInterfaces creates a new score service with interface
// dependencies (useful for testing).
func NewServiceWithInterfaces(repo Repository, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// AddDailyScore credits points to today's score, creating the day and week
// rows lazily. The daily total is capped at 40 and the week is credited only
// the actual post-cap delta, itself capped at 280.
//
//nolint:unparam // ctx reserved for future context-aware operations
func (s *Service) AddDailyScore(ctx context.Context, userID string, points int) (*models.DailyScore, error) {
	now := s.now()
	day := DayStart(now)

	daily, actual, err := s.repo.AddDaily(userID, day, WeekStart(now), WeekEnd(now), points)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("Failed to add daily score")
		return nil, apperr.Wrap(apperr.KindInternal, "scores.AddDailyScore", "failed to add daily score", err)
	}

	s.log.Info().
		Str("user_id", userID).
		Int("requested", points).
		Int("applied", actual).
		Int("daily_score", daily.Score).
		Msg("Added daily score")

	return daily, nil
}

// AdjustHistoricalDailyScore applies a signed delta to the score of an
// arbitrary past day, propagating the post-clamp delta to that day's week.
// Returns nil without error when the day has no score row.
func (s *Service) AdjustHistoricalDailyScore(ctx context.Context, userID string, date time.Time, delta int) (*models.DailyScore, error) {
	day := DayStart(date)

	daily, actual, err := s.repo.AdjustDailyForDate(userID, day, delta)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn().
				Str("user_id", userID).
				Time("date", day).
				Msg("No daily score exists for historical adjustment")
			return nil, nil
		}
		s.log.Error().Err(err).Str("user_id", userID).Msg("Failed to adjust historical daily score")
		return nil, apperr.Wrap(apperr.KindInternal, "scores.AdjustHistoricalDailyScore", "failed to adjust daily score", err)
	}

	s.log.Info().
		Str("user_id", userID).
		Time("date", day).
		Int("requested", delta).
		Int("applied", actual).
		Msg("Adjusted historical daily score")

	return daily, nil
}

// WeeklyScoresForRank returns up to the 13 most recent weekly rows within a
// 91-day lookback window, newest first.
func (s *Service) WeeklyScoresForRank(ctx context.Context, userID string) ([]models.WeeklyScore, error) {
	since := DayStart(s.now()).AddDate(0, 0, -rankLookbackDays)
	weeks, err := s.repo.ListRecentWeekly(userID, since, rankLookbackWeeks)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "scores.WeeklyScoresForRank", "failed to list weekly scores", err)
	}
	return weeks, nil
}

// TodayScore returns today's daily score row, or nil if the user has not
// reflected today.
func (s *Service) TodayScore(ctx context.Context, userID string) (*models.DailyScore, error) {
	daily, err := s.repo.GetDailyByDate(userID, DayStart(s.now()))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "scores.TodayScore", "failed to get daily score", err)
	}
	return daily, nil
}

// CurrentWeekScore returns the running weekly row for the current week, or
// nil if none exists yet.
func (s *Service) CurrentWeekScore(ctx context.Context, userID string) (*models.WeeklyScore, error) {
	weekly, err := s.repo.GetWeeklyByStart(userID, WeekStart(s.now()))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "scores.CurrentWeekScore", "failed to get weekly score", err)
	}
	return weekly, nil
}

// IncompleteWeeks returns the user's weekly rows not yet marked complete.
func (s *Service) IncompleteWeeks(ctx context.Context, userID string) ([]models.WeeklyScore, error) {
	weeks, err := s.repo.ListIncompleteWeekly(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "scores.IncompleteWeeks", "failed to list incomplete weeks", err)
	}
	return weeks, nil
}

// MarkWeekComplete flips a weekly row to complete.
func (s *Service) MarkWeekComplete(ctx context.Context, id string) error {
	if err := s.repo.MarkWeekComplete(id); err != nil {
		return apperr.Wrap(apperr.KindInternal, "scores.MarkWeekComplete", "failed to mark week complete", err)
	}
	return nil
}

// CurrentWeekStart returns the start of the current week.
func (s *Service) CurrentWeekStart() time.Time {
	return WeekStart(s.now())
}
