// Package users resolves authenticated identities to application users.
package users

import (
	"context"
	"errors"

	"github.com/dailyone-app/dailyone-backend/internal/models"
	"github.com/dailyone-app/dailyone-backend/internal/repository"
	"github.com/dailyone-app/dailyone-backend/pkg/apperr"
	"github.com/dailyone-app/dailyone-backend/pkg/logger"
)

// Repository interface for user persistence.
type Repository interface {
	Create(user *models.User) error
	GetByID(id string) (*models.User, error)
	GetBySubject(subject string) (*models.User, error)
	Update(user *models.User) error
}

// Service handles user bootstrap and lookup.
type Service struct {
	repo Repository
	log  *logger.Logger
}

// NewService creates a new user service with concrete dependency types.
func NewService(repo *repository.UserRepository, log *logger.Logger) *Service {
	return NewServiceWithInterfaces(repo, log)
}

// NewServiceWithInterfaces creates a new user service with interface
// dependencies (useful for testing).
func NewServiceWithInterfaces(repo Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// EnsureUser finds the user for an authentication subject, creating one on
// first sign-in. Email and name refresh the stored record when they change
// upstream.
func (s *Service) EnsureUser(ctx context.Context, subject, email, name string) (*models.User, error) {
	if subject == "" {
		return nil, apperr.New(apperr.KindUnauthenticated, "users.EnsureUser", "user not authenticated")
	}

	user, err := s.repo.GetBySubject(subject)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.log.Error().Err(err).Msg("Failed to look up user by subject")
		return nil, apperr.Wrap(apperr.KindInternal, "users.EnsureUser", "failed to sync user", err)
	}

	if user == nil || errors.Is(err, repository.ErrNotFound) {
		user = &models.User{
			Subject: subject,
			Email:   email,
			Name:    name,
		}
		if err := s.repo.Create(user); err != nil {
			s.log.Error().Err(err).Msg("Failed to create user")
			return nil, apperr.Wrap(apperr.KindInternal, "users.EnsureUser", "failed to sync user", err)
		}
		s.log.Info().Str("user_id", user.ID).Msg("Created user")
		return user, nil
	}

	if (email != "" && user.Email != email) || (name != "" && user.Name != name) {
		if email != "" {
			user.Email = email
		}
		if name != "" {
			user.Name = name
		}
		if err := s.repo.Update(user); err != nil {
			s.log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to update user profile")
			return nil, apperr.Wrap(apperr.KindInternal, "users.EnsureUser", "failed to sync user", err)
		}
	}
	return user, nil
}

// BySubject looks up an existing user for an authentication subject.
func (s *Service) BySubject(ctx context.Context, subject string) (*models.User, error) {
	user, err := s.repo.GetBySubject(subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "users.BySubject", "user not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "users.BySubject", "failed to look up user", err)
	}
	return user, nil
}
