// Package reflections binds a terminal outcome to a committed goal and fans
// the resulting points out to the score and rank engines.
//
// The committed -> reflected flip and the reflection insert are one guarded
// transaction, so two racing reflect calls cannot both land. The score and
// rank fan-out that follows is sequential: the score credit is transactional
// on its own, and rank recomputation is idempotent, so a crash mid-fan-out is
// repaired by the next recomputation.
package reflections

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dailyone-app/dailyone-backend/internal/cache"
	"github.com/dailyone-app/dailyone-backend/internal/metrics"
	"github.com/dailyone-app/dailyone-backend/internal/models"
	"github.com/dailyone-app/dailyone-backend/internal/repository"
	"github.com/dailyone-app/dailyone-backend/internal/service/ranks"
	"github.com/dailyone-app/dailyone-backend/internal/service/scores"
	"github.com/dailyone-app/dailyone-backend/pkg/apperr"
	"github.com/dailyone-app/dailyone-backend/pkg/logger"
)

const optionsCacheKey = "reflection_options:v1"

const defaultRecentLimit = 7

// GoalRepository interface for goal reads.
type GoalRepository interface {
	GetByID(id string) (*models.Goal, error)
	ListReflectedByUser(userID string, limit int) ([]models.Goal, error)
}

// Repository interface for reflection persistence.
type Repository interface {
	CreateForCommittedGoal(reflection *models.Reflection, reflectedAt time.Time) error
	GetByID(id string) (*models.Reflection, error)
	UpdateOption(id, optionID string, score int) (*models.Reflection, error)
	GetOptionByID(id string) (*models.ReflectionOption, error)
	ListActiveOptions() ([]models.ReflectionOption, error)
}

// ScoreService interface for score fan-out.
type ScoreService interface {
	AddDailyScore(ctx context.Context, userID string, points int) (*models.DailyScore, error)
	AdjustHistoricalDailyScore(ctx context.Context, userID string, date time.Time, delta int) (*models.DailyScore, error)
}

// RankService interface for rank fan-out.
type RankService interface {
	CalculateAndUpdateRank(ctx context.Context, userID string) (*models.UserRank, error)
	UpdateCompletedWeeks(ctx context.Context, userID string) error
}

// RecentEntry is a reflected goal joined with its reflection and option.
type RecentEntry struct {
	Goal       models.Goal             `json:"goal"`
	Reflection models.Reflection       `json:"reflection"`
	Option     models.ReflectionOption `json:"option"`
}

// Service handles reflections.
type Service struct {
	goals    GoalRepository
	repo     Repository
	scoreSvc ScoreService
	rankSvc  RankService
	cache    cache.Cache
	cacheTTL time.Duration
	log      *logger.Logger
	now      func() time.Time
}

// NewService creates a new reflection service with concrete dependency types.
func NewService(
	goalRepo *repository.GoalRepository,
	repo *repository.ReflectionRepository,
	scoreService *scores.Service,
	rankService *ranks.Service,
	c cache.Cache,
	cacheTTL time.Duration,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(goalRepo, repo, scoreService, rankService, c, cacheTTL, log)
}

// NewServiceWithInterfaces creates a new reflection service with interface
// dependencies (useful for testing).
func NewServiceWithInterfaces(
	goals GoalRepository,
	repo Repository,
	scoreSvc ScoreService,
	rankSvc RankService,
	c cache.Cache,
	cacheTTL time.Duration,
	log *logger.Logger,
) *Service {
	return &Service{
		goals:    goals,
		repo:     repo,
		scoreSvc: scoreSvc,
		rankSvc:  rankSvc,
		cache:    c,
		cacheTTL: cacheTTL,
		log:      log,
		now:      time.Now,
	}
}

// Options returns the active reflection options. Static reference data,
// cached.
func (s *Service) Options(ctx context.Context) ([]models.ReflectionOption, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, optionsCacheKey); err == nil && cached != "" {
			var options []models.ReflectionOption
			if err := json.Unmarshal([]byte(cached), &options); err == nil {
				return options, nil
			}
			s.log.Warn().Msg("Discarding unparsable cached reflection options")
		}
	}

	options, err := s.repo.ListActiveOptions()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list reflection options")
		return nil, apperr.Wrap(apperr.KindInternal, "reflections.Options", "failed to list reflection options", err)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(options); err == nil {
			if err := s.cache.Set(ctx, optionsCacheKey, payload, s.cacheTTL); err != nil {
				s.log.Warn().Err(err).Msg("Failed to cache reflection options")
			}
		}
	}
	return options, nil
}

// Reflect records the chosen outcome for a committed goal, credits today's
// score with the option's points, and recomputes the user's rank.
func (s *Service) Reflect(ctx context.Context, userID, goalID, optionID string) (*models.Reflection, error) {
	if userID == "" {
		return nil, apperr.New(apperr.KindUnauthenticated, "reflections.Reflect", "user not authenticated")
	}

	goal, err := s.goals.GetByID(goalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "reflections.Reflect", "goal not found")
		}
		s.log.Error().Err(err).Str("goal_id", goalID).Msg("Failed to get goal")
		return nil, apperr.Wrap(apperr.KindInternal, "reflections.Reflect", "failed to reflect on goal", err)
	}
	if goal.UserID != userID {
		return nil, apperr.New(apperr.KindNotFound, "reflections.Reflect", "goal not found")
	}
	if goal.Status != models.GoalStatusCommitted {
		return nil, apperr.New(apperr.KindInvalidState, "reflections.Reflect", "can only reflect on committed goals")
	}

	option, err := s.repo.GetOptionByID(optionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "reflections.Reflect", "reflection option not found")
		}
		s.log.Error().Err(err).Str("option_id", optionID).Msg("Failed to get reflection option")
		return nil, apperr.Wrap(apperr.KindInternal, "reflections.Reflect", "failed to reflect on goal", err)
	}

	reflection := &models.Reflection{
		UserID:             userID,
		GoalID:             goalID,
		ReflectionOptionID: option.ID,
		Score:              option.Score,
	}
	reflectedAt := s.now()
	if err := s.repo.CreateForCommittedGoal(reflection, reflectedAt); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, apperr.New(apperr.KindInvalidState, "reflections.Reflect", "can only reflect on committed goals")
		}
		s.log.Error().Err(err).Str("goal_id", goalID).Msg("Failed to create reflection")
		return nil, apperr.Wrap(apperr.KindInternal, "reflections.Reflect", "failed to reflect on goal", err)
	}

	metrics.ReflectionsRecordedTotal.WithLabelValues(option.ReflectionType).Inc()
	if goal.LockedAt != nil {
		metrics.CommitToReflectionSeconds.Observe(reflectedAt.Sub(*goal.LockedAt).Seconds())
	}

	if _, err := s.scoreSvc.AddDailyScore(ctx, userID, option.Score); err != nil {
		s.log.Error().Err(err).Str("goal_id", goalID).Msg("Reflection recorded but score credit failed")
		return nil, err
	}
	if err := s.rankSvc.UpdateCompletedWeeks(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.rankSvc.CalculateAndUpdateRank(ctx, userID); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("goal_id", goalID).
		Str("user_id", userID).
		Str("reflection_type", option.ReflectionType).
		Int("points", option.Score).
		Msg("Recorded reflection")

	return reflection, nil
}

// UpdateReflection re-points a reflection to a different option and applies
// the score difference to the day the goal was originally reflected on, not
// today.
func (s *Service) UpdateReflection(ctx context.Context, userID, reflectionID, newOptionID string) (*models.Reflection, error) {
	if userID == "" {
		return nil, apperr.New(apperr.KindUnauthenticated, "reflections.UpdateReflection", "user not authenticated")
	}

	existing, err := s.repo.GetByID(reflectionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "reflections.UpdateReflection", "reflection not found")
		}
		s.log.Error().Err(err).Str("reflection_id", reflectionID).Msg("Failed to get reflection")
		return nil, apperr.Wrap(apperr.KindInternal, "reflections.UpdateReflection", "failed to update reflection", err)
	}
	if existing.UserID != userID {
		return nil, apperr.New(apperr.KindNotFound, "reflections.UpdateReflection", "reflection not found")
	}

	newOption, err := s.repo.GetOptionByID(newOptionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "reflections.UpdateReflection", "reflection option not found")
		}
		s.log.Error().Err(err).Str("option_id", newOptionID).Msg("Failed to get reflection option")
		return nil, apperr.Wrap(apperr.KindInternal, "reflections.UpdateReflection", "failed to update reflection", err)
	}

	scoreDifference := newOption.Score - existing.Score

	updated, err := s.repo.UpdateOption(reflectionID, newOption.ID, newOption.Score)
	if err != nil {
		s.log.Error().Err(err).Str("reflection_id", reflectionID).Msg("Failed to update reflection")
		return nil, apperr.Wrap(apperr.KindInternal, "reflections.UpdateReflection", "failed to update reflection", err)
	}

	if scoreDifference != 0 {
		goal, err := s.goals.GetByID(existing.GoalID)
		if err != nil {
			s.log.Error().Err(err).Str("goal_id", existing.GoalID).Msg("Failed to get goal for historical adjustment")
			return nil, apperr.Wrap(apperr.KindInternal, "reflections.UpdateReflection", "failed to update reflection", err)
		}
		if goal.ReflectedAt != nil {
			if _, err := s.scoreSvc.AdjustHistoricalDailyScore(ctx, userID, *goal.ReflectedAt, scoreDifference); err != nil {
				return nil, err
			}
		}
	}

	if _, err := s.rankSvc.CalculateAndUpdateRank(ctx, userID); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("reflection_id", reflectionID).
		Str("user_id", userID).
		Int("score_difference", scoreDifference).
		Msg("Updated reflection")

	return updated, nil
}

// Recent returns the user's most recently reflected goals joined with their
// reflection and option, newest first.
func (s *Service) Recent(ctx context.Context, userID string, limit int) ([]RecentEntry, error) {
	if userID == "" {
		return nil, apperr.New(apperr.KindUnauthenticated, "reflections.Recent", "user not authenticated")
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	goals, err := s.goals.ListReflectedByUser(userID, limit)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("Failed to list reflected goals")
		return nil, apperr.Wrap(apperr.KindInternal, "reflections.Recent", "failed to get recent reflections", err)
	}

	entries := make([]RecentEntry, 0, len(goals))
	for _, goal := range goals {
		if goal.Reflection == nil {
			s.log.Warn().Str("goal_id", goal.ID).Msg("Reflected goal has no reflection row")
			continue
		}
		reflection := *goal.Reflection
		option := reflection.ReflectionOption
		goal.Reflection = nil
		reflection.ReflectionOption = models.ReflectionOption{}
		entries = append(entries, RecentEntry{
			Goal:       goal,
			Reflection: reflection,
			Option:     option,
		})
	}
	return entries, nil
}
