// Package reflections provides REST API handlers for reflection options,
// recording reflections, and the recent history list.
package reflections

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dailyone-app/dailyone-backend/internal/api/middleware"
	"github.com/dailyone-app/dailyone-backend/internal/api/respond"
	"github.com/dailyone-app/dailyone-backend/internal/models"
	"github.com/dailyone-app/dailyone-backend/internal/service/reflections"
	"github.com/dailyone-app/dailyone-backend/pkg/logger"
)

// ReflectionService interface for reflection operations.
type ReflectionService interface {
	Options(ctx context.Context) ([]models.ReflectionOption, error)
	Reflect(ctx context.Context, userID, goalID, optionID string) (*models.Reflection, error)
	UpdateReflection(ctx context.Context, userID, reflectionID, newOptionID string) (*models.Reflection, error)
	Recent(ctx context.Context, userID string, limit int) ([]reflections.RecentEntry, error)
}

// Handler handles reflection API requests.
type Handler struct {
	reflectionService ReflectionService
	log               *logger.Logger
}

// NewHandler creates a new reflection handler.
func NewHandler(reflectionService *reflections.Service, log *logger.Logger) *Handler {
	return NewHandlerWithInterfaces(reflectionService, log)
}

// NewHandlerWithInterfaces creates a new reflection handler with interface
// dependencies (useful for testing).
func NewHandlerWithInterfaces(reflectionService ReflectionService, log *logger.Logger) *Handler {
	return &Handler{reflectionService: reflectionService, log: log}
}

type reflectRequest struct {
	ReflectionOptionID string `json:"reflection_option_id" binding:"required"`
}

// Options returns the active reflection options.
// GET /api/v1/reflection-options.
func (h *Handler) Options(c *gin.Context) {
	options, err := h.reflectionService.Options(c.Request.Context())
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"options":      options,
		"generated_at": time.Now().UTC(),
	})
}

// Reflect records the chosen outcome for a committed goal.
// POST /api/v1/goals/:id/reflection.
func (h *Handler) Reflect(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		respond.BadRequest(c, "user context missing")
		return
	}

	var req reflectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "reflection_option_id is required")
		return
	}

	reflection, err := h.reflectionService.Reflect(c.Request.Context(), user.ID, c.Param("id"), req.ReflectionOptionID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"reflection":   reflection,
		"generated_at": time.Now().UTC(),
	})
}

// Update re-points an existing reflection to a different option.
// PATCH /api/v1/reflections/:id.
func (h *Handler) Update(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		respond.BadRequest(c, "user context missing")
		return
	}

	var req reflectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "reflection_option_id is required")
		return
	}

	reflection, err := h.reflectionService.UpdateReflection(c.Request.Context(), user.ID, c.Param("id"), req.ReflectionOptionID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reflection":   reflection,
		"generated_at": time.Now().UTC(),
	})
}

// Recent returns the user's most recently reflected goals.
// GET /api/v1/reflections/recent?limit=7.
func (h *Handler) Recent(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		respond.BadRequest(c, "user context missing")
		return
	}

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > 100 {
			respond.BadRequest(c, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	entries, err := h.reflectionService.Recent(c.Request.Context(), user.ID, limit)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reflections":  entries,
		"total":        len(entries),
		"generated_at": time.Now().UTC(),
	})
}
