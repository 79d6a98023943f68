// Package users provides the REST API handler for user bootstrap.
package users

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dailyone-app/dailyone-backend/internal/api/middleware"
	"github.com/dailyone-app/dailyone-backend/internal/api/respond"
	"github.com/dailyone-app/dailyone-backend/internal/models"
	"github.com/dailyone-app/dailyone-backend/internal/service/users"
	"github.com/dailyone-app/dailyone-backend/pkg/logger"
)

// UserService interface for user bootstrap.
type UserService interface {
	EnsureUser(ctx context.Context, subject, email, name string) (*models.User, error)
}

// Handler handles user API requests.
type Handler struct {
	userService UserService
	log         *logger.Logger
}

// NewHandler creates a new user handler.
func NewHandler(userService *users.Service, log *logger.Logger) *Handler {
	return NewHandlerWithInterfaces(userService, log)
}

// NewHandlerWithInterfaces creates a new user handler with interface
// dependencies (useful for testing).
func NewHandlerWithInterfaces(userService UserService, log *logger.Logger) *Handler {
	return &Handler{userService: userService, log: log}
}

// Sync creates or refreshes the application user for the token identity.
// Clients call this once after sign-in, before any other endpoint.
// POST /api/v1/users/sync.
func (h *Handler) Sync(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		respond.BadRequest(c, "identity context missing")
		return
	}

	user, err := h.userService.EnsureUser(c.Request.Context(), identity.Subject, identity.Email, identity.Name)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"generated_at": time.Now().UTC(),
	})
}
