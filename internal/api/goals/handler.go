// Package goals provides REST API handlers for the goal lifecycle.
package goals

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dailyone-app/dailyone-backend/internal/api/middleware"
	"github.com/dailyone-app/dailyone-backend/internal/api/respond"
	"github.com/dailyone-app/dailyone-backend/internal/models"
	"github.com/dailyone-app/dailyone-backend/internal/service/goals"
	"github.com/dailyone-app/dailyone-backend/pkg/logger"
)

// GoalService interface for goal lifecycle operations.
type GoalService interface {
	Create(ctx context.Context, userID, text string) (*models.Goal, error)
	Current(ctx context.Context, userID string) (*models.Goal, error)
	UpdateText(ctx context.Context, userID, goalID, text string) (*models.Goal, error)
	ResetEditing(ctx context.Context, userID, goalID string) (*models.Goal, error)
	Commit(ctx context.Context, userID, goalID string) (*models.Goal, error)
	Delete(ctx context.Context, userID, goalID string) error
	RemainingEditSeconds(goal *models.Goal) int
}

// Handler handles goal API requests.
type Handler struct {
	goalService GoalService
	log         *logger.Logger
}

// NewHandler creates a new goal handler.
func NewHandler(goalService *goals.Service, log *logger.Logger) *Handler {
	return NewHandlerWithInterfaces(goalService, log)
}

// NewHandlerWithInterfaces creates a new goal handler with interface
// dependencies (useful for testing).
func NewHandlerWithInterfaces(goalService GoalService, log *logger.Logger) *Handler {
	return &Handler{goalService: goalService, log: log}
}

type goalRequest struct {
	Text string `json:"text" binding:"required"`
}

// Create creates a new draft goal.
// POST /api/v1/goals.
func (h *Handler) Create(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		respond.BadRequest(c, "user context missing")
		return
	}

	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "text is required")
		return
	}

	goal, err := h.goalService.Create(c.Request.Context(), user.ID, req.Text)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, h.goalResponse(goal))
}

// Current returns the user's active goal, if any.
// GET /api/v1/goals/current.
func (h *Handler) Current(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		respond.BadRequest(c, "user context missing")
		return
	}

	goal, err := h.goalService.Current(c.Request.Context(), user.ID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	if goal == nil {
		c.JSON(http.StatusOK, gin.H{"goal": nil})
		return
	}

	c.JSON(http.StatusOK, h.goalResponse(goal))
}

// UpdateText updates a draft goal's text and restarts the commit countdown.
// PATCH /api/v1/goals/:id/text.
func (h *Handler) UpdateText(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		respond.BadRequest(c, "user context missing")
		return
	}

	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "text is required")
		return
	}

	goal, err := h.goalService.UpdateText(c.Request.Context(), user.ID, c.Param("id"), req.Text)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, h.goalResponse(goal))
}

// Reset clears the commit countdown on a draft goal.
// POST /api/v1/goals/:id/reset.
func (h *Handler) Reset(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		respond.BadRequest(c, "user context missing")
		return
	}

	goal, err := h.goalService.ResetEditing(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, h.goalResponse(goal))
}

// Commit locks a draft goal's text and transitions it to committed.
// POST /api/v1/goals/:id/commit.
func (h *Handler) Commit(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		respond.BadRequest(c, "user context missing")
		return
	}

	goal, err := h.goalService.Commit(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, h.goalResponse(goal))
}

// Delete deletes a draft goal.
// DELETE /api/v1/goals/:id.
func (h *Handler) Delete(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		respond.BadRequest(c, "user context missing")
		return
	}

	if err := h.goalService.Delete(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// goalResponse wraps a goal with its derived countdown so clients never have
// to compute the remaining window themselves.
func (h *Handler) goalResponse(goal *models.Goal) gin.H {
	return gin.H{
		"goal":                   goal,
		"remaining_edit_seconds": h.goalService.RemainingEditSeconds(goal),
		"generated_at":           time.Now().UTC(),
	}
}
