// Package rank provides REST API handlers for the rank page and score
// summaries.
package rank

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dailyone-app/dailyone-backend/internal/api/middleware"
	"github.com/dailyone-app/dailyone-backend/internal/api/respond"
	"github.com/dailyone-app/dailyone-backend/internal/models"
	"github.com/dailyone-app/dailyone-backend/internal/service/ranks"
	"github.com/dailyone-app/dailyone-backend/internal/service/scores"
	"github.com/dailyone-app/dailyone-backend/pkg/logger"
)

// RankService interface for rank page assembly.
type RankService interface {
	RankPageData(ctx context.Context, userID string) (*ranks.PageData, error)
}

// ScoreService interface for score summaries.
type ScoreService interface {
	TodayScore(ctx context.Context, userID string) (*models.DailyScore, error)
	CurrentWeekScore(ctx context.Context, userID string) (*models.WeeklyScore, error)
}

// Handler handles rank and score API requests.
type Handler struct {
	rankService  RankService
	scoreService ScoreService
	log          *logger.Logger
}

// NewHandler creates a new rank handler.
func NewHandler(rankService *ranks.Service, scoreService *scores.Service, log *logger.Logger) *Handler {
	return NewHandlerWithInterfaces(rankService, scoreService, log)
}

// NewHandlerWithInterfaces creates a new rank handler with interface
// dependencies (useful for testing).
func NewHandlerWithInterfaces(rankService RankService, scoreService ScoreService, log *logger.Logger) *Handler {
	return &Handler{rankService: rankService, scoreService: scoreService, log: log}
}

// GetRank returns the rank page read model. Reading the rank also sweeps the
// user's ended weeks, so the page is correct even before the daily cron has
// run.
// GET /api/v1/rank.
func (h *Handler) GetRank(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		respond.BadRequest(c, "user context missing")
		return
	}

	data, err := h.rankService.RankPageData(c.Request.Context(), user.ID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rank":         data,
		"generated_at": time.Now().UTC(),
	})
}

// GetTodayScore returns today's score and reflection count. Days with no
// reflections read as zero.
// GET /api/v1/scores/today.
func (h *Handler) GetTodayScore(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		respond.BadRequest(c, "user context missing")
		return
	}

	today, err := h.scoreService.TodayScore(c.Request.Context(), user.ID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	score, count := 0, 0
	if today != nil {
		score = today.Score
		count = today.ReflectionCount
	}

	c.JSON(http.StatusOK, gin.H{
		"score":            score,
		"reflection_count": count,
		"max_score":        models.DailyScoreCap,
		"generated_at":     time.Now().UTC(),
	})
}

// GetWeekScore returns the current week's running total.
// GET /api/v1/scores/week.
func (h *Handler) GetWeekScore(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		respond.BadRequest(c, "user context missing")
		return
	}

	week, err := h.scoreService.CurrentWeekScore(c.Request.Context(), user.ID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	response := gin.H{
		"score":        0,
		"max_score":    models.WeeklyScoreCap,
		"generated_at": time.Now().UTC(),
	}
	if week != nil {
		response["score"] = week.Score
		response["week_start"] = week.WeekStart
		response["week_end"] = week.WeekEnd
	}

	c.JSON(http.StatusOK, response)
}
