// Package goals enforces the goal lifecycle state machine and the
// single-active-goal rule. A goal moves draft -> committed -> reflected and
// never backward, except for resetting the draft edit window.
package goals

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dailyone-app/dailyone-backend/internal/config"
	"github.com/dailyone-app/dailyone-backend/internal/metrics"
	"github.com/dailyone-app/dailyone-backend/internal/models"
	"github.com/dailyone-app/dailyone-backend/internal/repository"
	"github.com/dailyone-app/dailyone-backend/pkg/apperr"
	"github.com/dailyone-app/dailyone-backend/pkg/logger"
)

// Repository interface for goal persistence.
type Repository interface {
	Create(goal *models.Goal) error
	GetByID(id string) (*models.Goal, error)
	GetActiveByUser(userID string) (*models.Goal, error)
	UpdateTextIfDraft(id, text string, committedAt time.Time) (*models.Goal, error)
	ClearCommitWindowIfDraft(id string) (*models.Goal, error)
	CommitIfDraft(id string, lockedAt time.Time) (*models.Goal, error)
	DeleteIfDraft(id string) error
}

// Service handles the goal lifecycle.
type Service struct {
	repo Repository
	cfg  config.GoalsConfig
	log  *logger.Logger
	now  func() time.Time
}

// NewService creates a new goal service with the concrete repository type.
func NewService(repo *repository.GoalRepository, cfg config.GoalsConfig, log *logger.Logger) *Service {
	return NewServiceWithInterfaces(repo, cfg, log)
}

// NewServiceWithInterfaces creates a new goal service with interface
// dependencies (useful for testing).
func NewServiceWithInterfaces(repo Repository, cfg config.GoalsConfig, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		cfg:  cfg,
		log:  log,
		now:  time.Now,
	}
}

// Create creates a new draft goal for the user. At most one non-reflected
// goal may exist per user; creation is rejected while one is active.
//
//nolint:unparam // ctx reserved for future context-aware operations
func (s *Service) Create(ctx context.Context, userID, text string) (*models.Goal, error) {
	if userID == "" {
		return nil, apperr.New(apperr.KindUnauthenticated, "goals.Create", "user not authenticated")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.New(apperr.KindValidation, "goals.Create", "goal text is required")
	}

	active, err := s.repo.GetActiveByUser(userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("Failed to check active goal")
		return nil, apperr.Wrap(apperr.KindInternal, "goals.Create", "failed to create goal", err)
	}
	if active != nil {
		return nil, apperr.New(apperr.KindInvalidState, "goals.Create", "an active goal already exists")
	}

	goal := &models.Goal{
		UserID: userID,
		Text:   text,
		Status: models.GoalStatusDraft,
	}
	if s.cfg.StartTimerOnCreate {
		now := s.now()
		goal.CommittedAt = &now
	}

	if err := s.repo.Create(goal); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("Failed to create goal")
		return nil, apperr.Wrap(apperr.KindInternal, "goals.Create", "failed to create goal", err)
	}

	metrics.GoalsCreatedTotal.Inc()
	s.log.Info().Str("goal_id", goal.ID).Str("user_id", userID).Msg("Created goal")
	return goal, nil
}

// UpdateText updates the goal text. Allowed only while the goal is a draft;
// any edit restarts the commit countdown.
func (s *Service) UpdateText(ctx context.Context, userID, goalID, text string) (*models.Goal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.New(apperr.KindValidation, "goals.UpdateText", "goal text is required")
	}

	goal, err := s.getOwned(userID, goalID, "goals.UpdateText")
	if err != nil {
		return nil, err
	}
	if goal.Status != models.GoalStatusDraft {
		return nil, apperr.New(apperr.KindInvalidState, "goals.UpdateText", "can only update draft goals")
	}
	if s.windowExpired(goal) {
		return nil, apperr.New(apperr.KindInvalidState, "goals.UpdateText", "edit window has expired")
	}

	updated, err := s.repo.UpdateTextIfDraft(goalID, text, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, apperr.New(apperr.KindInvalidState, "goals.UpdateText", "can only update draft goals")
		}
		s.log.Error().Err(err).Str("goal_id", goalID).Msg("Failed to update goal text")
		return nil, apperr.Wrap(apperr.KindInternal, "goals.UpdateText", "failed to update goal", err)
	}
	return updated, nil
}

// ResetEditing clears the commit countdown, returning a draft goal to the
// untimed editing sub-state.
func (s *Service) ResetEditing(ctx context.Context, userID, goalID string) (*models.Goal, error) {
	goal, err := s.getOwned(userID, goalID, "goals.ResetEditing")
	if err != nil {
		return nil, err
	}
	if goal.Status != models.GoalStatusDraft {
		return nil, apperr.New(apperr.KindInvalidState, "goals.ResetEditing", "can only reset editing for draft goals")
	}
	if s.windowExpired(goal) {
		return nil, apperr.New(apperr.KindInvalidState, "goals.ResetEditing", "edit window has expired")
	}

	updated, err := s.repo.ClearCommitWindowIfDraft(goalID)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, apperr.New(apperr.KindInvalidState, "goals.ResetEditing", "can only reset editing for draft goals")
		}
		s.log.Error().Err(err).Str("goal_id", goalID).Msg("Failed to reset goal editing")
		return nil, apperr.Wrap(apperr.KindInternal, "goals.ResetEditing", "failed to reset goal editing", err)
	}
	return updated, nil
}

// Commit transitions a draft goal to committed and locks its text.
func (s *Service) Commit(ctx context.Context, userID, goalID string) (*models.Goal, error) {
	goal, err := s.getOwned(userID, goalID, "goals.Commit")
	if err != nil {
		return nil, err
	}
	if goal.Status != models.GoalStatusDraft {
		return nil, apperr.New(apperr.KindInvalidState, "goals.Commit", "can only commit draft goals")
	}

	committed, err := s.repo.CommitIfDraft(goalID, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, apperr.New(apperr.KindInvalidState, "goals.Commit", "can only commit draft goals")
		}
		s.log.Error().Err(err).Str("goal_id", goalID).Msg("Failed to commit goal")
		return nil, apperr.Wrap(apperr.KindInternal, "goals.Commit", "failed to commit goal", err)
	}

	metrics.GoalsCommittedTotal.Inc()
	s.log.Info().Str("goal_id", goalID).Str("user_id", userID).Msg("Committed goal")
	return committed, nil
}

// Current returns the user's active (draft or committed) goal, or nil.
func (s *Service) Current(ctx context.Context, userID string) (*models.Goal, error) {
	if userID == "" {
		return nil, apperr.New(apperr.KindUnauthenticated, "goals.Current", "user not authenticated")
	}
	goal, err := s.repo.GetActiveByUser(userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("Failed to get current goal")
		return nil, apperr.Wrap(apperr.KindInternal, "goals.Current", "failed to get current goal", err)
	}
	return goal, nil
}

// Delete removes a goal, allowed only while it is a draft.
func (s *Service) Delete(ctx context.Context, userID, goalID string) error {
	goal, err := s.getOwned(userID, goalID, "goals.Delete")
	if err != nil {
		return err
	}
	if goal.Status != models.GoalStatusDraft {
		return apperr.New(apperr.KindInvalidState, "goals.Delete", "can only delete draft goals")
	}

	if err := s.repo.DeleteIfDraft(goalID); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return apperr.New(apperr.KindInvalidState, "goals.Delete", "can only delete draft goals")
		}
		s.log.Error().Err(err).Str("goal_id", goalID).Msg("Failed to delete goal")
		return apperr.Wrap(apperr.KindInternal, "goals.Delete", "failed to delete goal", err)
	}

	s.log.Info().Str("goal_id", goalID).Str("user_id", userID).Msg("Deleted goal")
	return nil
}

// RemainingEditSeconds returns the seconds left in the commit countdown for a
// draft goal, or 0 when no countdown is running. The countdown is derived
// purely from CommittedAt; nothing in the engine fires when it hits zero.
func (s *Service) RemainingEditSeconds(goal *models.Goal) int {
	if goal == nil || goal.Status != models.GoalStatusDraft || goal.CommittedAt == nil {
		return 0
	}
	elapsed := s.now().Sub(*goal.CommittedAt)
	remaining := s.cfg.CommitWindow() - elapsed
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds())
}

// windowExpired reports whether the draft's edit window has lapsed. Always
// false unless server-side window enforcement is enabled.
func (s *Service) windowExpired(goal *models.Goal) bool {
	if !s.cfg.EnforceEditWindow || goal.CommittedAt == nil {
		return false
	}
	return s.now().Sub(*goal.CommittedAt) > s.cfg.CommitWindow()
}

// getOwned fetches a goal and verifies ownership. Goals belonging to another
// user are reported as not found.
func (s *Service) getOwned(userID, goalID, op string) (*models.Goal, error) {
	if userID == "" {
		return nil, apperr.New(apperr.KindUnauthenticated, op, "user not authenticated")
	}
	goal, err := s.repo.GetByID(goalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, op, "goal not found")
		}
		s.log.Error().Err(err).Str("goal_id", goalID).Msg("Failed to get goal")
		return nil, apperr.Wrap(apperr.KindInternal, op, "failed to get goal", err)
	}
	if goal.UserID != userID {
		return nil, apperr.New(apperr.KindNotFound, op, "goal not found")
	}
	return goal, nil
}
