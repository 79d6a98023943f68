// Package ranks derives a user's tier from trailing completed weekly totals
// and assembles the rank page read model.
package ranks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dailyone-app/dailyone-backend/internal/cache"
	"github.com/dailyone-app/dailyone-backend/internal/metrics"
	"github.com/dailyone-app/dailyone-backend/internal/models"
	"github.com/dailyone-app/dailyone-backend/internal/repository"
	"github.com/dailyone-app/dailyone-backend/internal/service/scores"
	"github.com/dailyone-app/dailyone-backend/pkg/apperr"
	"github.com/dailyone-app/dailyone-backend/pkg/logger"
)

// Up to this many completed weeks count toward rank; the chart shows one
// extra slot for the in-progress week.
const (
	rankedWeeks = 12
	chartWeeks  = 13
)

const tiersCacheKey = "rank_tiers:v1"

// ScoreService interface for weekly score access.
type ScoreService interface {
	WeeklyScoresForRank(ctx context.Context, userID string) ([]models.WeeklyScore, error)
	TodayScore(ctx context.Context, userID string) (*models.DailyScore, error)
	CurrentWeekScore(ctx context.Context, userID string) (*models.WeeklyScore, error)
	IncompleteWeeks(ctx context.Context, userID string) ([]models.WeeklyScore, error)
	MarkWeekComplete(ctx context.Context, id string) error
	CurrentWeekStart() time.Time
}

// Repository interface for rank persistence.
type Repository interface {
	ListTiers() ([]models.RankTier, error)
	UpsertUserRank(userID, tierID string, totalScore int, progress float64, calculatedAt time.Time) (*models.UserRank, error)
}

// WeekPoint is one slot in the 13-week progress chart.
type WeekPoint struct {
	WeekStart     time.Time `json:"week_start"`
	Score         int       `json:"score"`
	IsCurrentWeek bool      `json:"is_current_week"`
}

// PageData is the rank page read model.
type PageData struct {
	Rank                 string      `json:"rank"`
	Emoji                string      `json:"emoji"`
	Description          string      `json:"description"`
	Points               int         `json:"points"`
	TierMinScore         int         `json:"tier_min_score"`
	TierMaxScore         int         `json:"tier_max_score"`
	ProgressInTier       float64     `json:"progress_in_tier"`
	NextRankName         string      `json:"next_rank_name"`
	PreviousRankName     string      `json:"previous_rank_name"`
	WeeklyProgress       []WeekPoint `json:"weekly_progress"`
	CurrentWeekScore     int         `json:"current_week_score"`
	TodayScore           int         `json:"today_score"`
	TodayReflectionCount int         `json:"today_reflection_count"`
}

// Service handles rank derivation.
type Service struct {
	scores   ScoreService
	repo     Repository
	cache    cache.Cache
	cacheTTL time.Duration
	log      *logger.Logger
	now      func() time.Time
}

// NewService creates a new rank service with concrete dependency types.
func NewService(
	scoreService *scores.Service,
	repo *repository.RankRepository,
	c cache.Cache,
	cacheTTL time.Duration,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(scoreService, repo, c, cacheTTL, log)
}

// NewServiceWithInterfaces creates a new rank service with interface
// dependencies (useful for testing).
func NewServiceWithInterfaces(
	scoreService ScoreService,
	repo Repository,
	c cache.Cache,
	cacheTTL time.Duration,
	log *logger.Logger,
) *Service {
	return &Service{
		scores:   scoreService,
		repo:     repo,
		cache:    c,
		cacheTTL: cacheTTL,
		log:      log,
		now:      time.Now,
	}
}

// CalculateAndUpdateRank recomputes the user's rank from the 12 most recent
// completed weeks, excluding the current in-progress week, and upserts the
// singleton UserRank row.
func (s *Service) CalculateAndUpdateRank(ctx context.Context, userID string) (*models.UserRank, error) {
	weekly, err := s.scores.WeeklyScoresForRank(ctx, userID)
	if err != nil {
		return nil, err
	}

	currentWeekStart := s.scores.CurrentWeekStart()
	totalScore := 0
	counted := 0
	for _, week := range weekly {
		if counted == rankedWeeks {
			break
		}
		if week.WeekStart.Equal(currentWeekStart) || !week.IsComplete {
			continue
		}
		totalScore += week.Score
		counted++
	}

	tiers, err := s.tiers(ctx)
	if err != nil {
		return nil, err
	}
	if len(tiers) == 0 {
		return nil, apperr.New(apperr.KindInternal, "ranks.CalculateAndUpdateRank", "no rank tiers configured")
	}

	tier := selectTier(tiers, totalScore)
	progress := progressInTier(tier, totalScore)

	rank, err := s.repo.UpsertUserRank(userID, tier.ID, totalScore, progress, s.now())
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("Failed to upsert user rank")
		return nil, apperr.Wrap(apperr.KindInternal, "ranks.CalculateAndUpdateRank", "failed to update rank", err)
	}
	rank.RankTier = *tier

	metrics.RankRecalculationsTotal.Inc()
	s.log.Debug().
		Str("user_id", userID).
		Str("tier", tier.Name).
		Int("total_score", totalScore).
		Int("weeks_counted", counted).
		Msg("Recalculated rank")

	return rank, nil
}

// selectTier picks the tier whose inclusive band contains score, falling back
// to the lowest tier. Tiers must be sorted ascending by MinScore.
func selectTier(tiers []models.RankTier, score int) *models.RankTier {
	for i := range tiers {
		if tiers[i].Contains(score) {
			return &tiers[i]
		}
	}
	return &tiers[0]
}

// progressInTier returns the position inside the tier band as a [0,1]
// fraction. Zero-width bands count as no progress.
func progressInTier(tier *models.RankTier, score int) float64 {
	span := tier.MaxScore - tier.MinScore
	if span <= 0 {
		return 0
	}
	progress := float64(score-tier.MinScore) / float64(span)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

// UpdateCompletedWeeks flips every ended week to complete and re-triggers a
// rank recalculation per flip. This is how the current week ages into a
// completed week counted toward rank.
func (s *Service) UpdateCompletedWeeks(ctx context.Context, userID string) error {
	incomplete, err := s.scores.IncompleteWeeks(ctx, userID)
	if err != nil {
		return err
	}

	now := s.now()
	for _, week := range incomplete {
		if !now.After(week.WeekEnd) {
			continue
		}
		if err := s.scores.MarkWeekComplete(ctx, week.ID); err != nil {
			s.log.Error().Err(err).Str("weekly_score_id", week.ID).Msg("Failed to mark week complete")
			return err
		}
		metrics.WeeksCompletedTotal.Inc()
		if _, err := s.CalculateAndUpdateRank(ctx, userID); err != nil {
			return err
		}
	}
	return nil
}

// RankPageData composes the rank page read model: tier, band bounds, neighbor
// tier names, a 13-week chart series (oldest to newest, zero-filled for
// missing weeks), the current week's running total, and today's totals.
func (s *Service) RankPageData(ctx context.Context, userID string) (*PageData, error) {
	// Sweep ended weeks first so the rank reflects all completed history.
	if err := s.UpdateCompletedWeeks(ctx, userID); err != nil {
		return nil, err
	}

	rank, err := s.CalculateAndUpdateRank(ctx, userID)
	if err != nil {
		return nil, err
	}
	tier := rank.RankTier

	weekly, err := s.scores.WeeklyScoresForRank(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Key by instant, not time.Time: rows loaded from the database carry a
	// different location than the server-clock week starts.
	byStart := make(map[int64]models.WeeklyScore, len(weekly))
	for _, week := range weekly {
		byStart[week.WeekStart.Unix()] = week
	}

	currentWeekStart := s.scores.CurrentWeekStart()
	chart := make([]WeekPoint, 0, chartWeeks)
	for i := chartWeeks - 1; i >= 0; i-- {
		start := currentWeekStart.AddDate(0, 0, -7*i)
		point := WeekPoint{WeekStart: start, IsCurrentWeek: start.Equal(currentWeekStart)}
		if week, ok := byStart[start.Unix()]; ok {
			point.Score = week.Score
		}
		chart = append(chart, point)
	}

	data := &PageData{
		Rank:             tier.Name,
		Emoji:            tier.Emoji,
		Description:      tier.Description,
		Points:           rank.CurrentScore,
		TierMinScore:     tier.MinScore,
		TierMaxScore:     tier.MaxScore,
		ProgressInTier:   rank.ProgressInTier,
		NextRankName:     tier.NextRankName,
		PreviousRankName: tier.PreviousRankName,
		WeeklyProgress:   chart,
	}

	if weekScore, err := s.scores.CurrentWeekScore(ctx, userID); err == nil && weekScore != nil {
		data.CurrentWeekScore = weekScore.Score
	} else if err != nil {
		return nil, err
	}
	if today, err := s.scores.TodayScore(ctx, userID); err == nil && today != nil {
		data.TodayScore = today.Score
		data.TodayReflectionCount = today.ReflectionCount
	} else if err != nil {
		return nil, err
	}

	return data, nil
}

// tiers returns the static tier list, cached because it never changes outside
// reseeding.
func (s *Service) tiers(ctx context.Context) ([]models.RankTier, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, tiersCacheKey); err == nil && cached != "" {
			var tiers []models.RankTier
			if err := json.Unmarshal([]byte(cached), &tiers); err == nil {
				return tiers, nil
			}
			s.log.Warn().Msg("Discarding unparsable cached rank tiers")
		}
	}

	tiers, err := s.repo.ListTiers()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list rank tiers")
		return nil, apperr.Wrap(apperr.KindInternal, "ranks.tiers", "failed to list rank tiers", err)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(tiers); err == nil {
			if err := s.cache.Set(ctx, tiersCacheKey, payload, s.cacheTTL); err != nil {
				s.log.Warn().Err(err).Msg("Failed to cache rank tiers")
			}
		}
	}
	return tiers, nil
}
