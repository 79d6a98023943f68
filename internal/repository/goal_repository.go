package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dailyone-app/dailyone-backend/internal/models"
)

// GoalRepository handles goal-related database operations. State transitions
// use guarded updates (WHERE status = ...) so two racing requests cannot both
// move the same goal forward.
type GoalRepository struct {
	db *DB
}

// NewGoalRepository creates a new goal repository.
func NewGoalRepository(db *DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// Create creates a new goal.
func (r *GoalRepository) Create(goal *models.Goal) error {
	if err := r.db.Create(goal).Error; err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

// GetByID retrieves a goal by ID.
func (r *GoalRepository) GetByID(id string) (*models.Goal, error) {
	var goal models.Goal
	if err := r.db.First(&goal, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get goal %s: %w", id, err)
	}
	return &goal, nil
}

// GetActiveByUser retrieves the user's current non-reflected goal, or nil if
// there is none. Newest first, in case stale duplicates exist.
func (r *GoalRepository) GetActiveByUser(userID string) (*models.Goal, error) {
	var goals []models.Goal
	err := r.db.
		Where("user_id = ? AND status IN ?", userID, []string{models.GoalStatusDraft, models.GoalStatusCommitted}).
		Order("created_at DESC").
		Limit(1).
		Find(&goals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get active goal for user %s: %w", userID, err)
	}
	if len(goals) == 0 {
		return nil, nil
	}
	return &goals[0], nil
}

// UpdateTextIfDraft updates the goal text and restarts the edit window,
// provided the goal is still a draft.
func (r *GoalRepository) UpdateTextIfDraft(id, text string, committedAt time.Time) (*models.Goal, error) {
	res := r.db.Model(&models.Goal{}).
		Where("id = ? AND status = ?", id, models.GoalStatusDraft).
		Updates(map[string]interface{}{
			"text":         text,
			"committed_at": committedAt,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update goal text: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}
	return r.GetByID(id)
}

// ClearCommitWindowIfDraft clears CommittedAt, returning the goal to the
// untimed editing sub-state, provided the goal is still a draft.
func (r *GoalRepository) ClearCommitWindowIfDraft(id string) (*models.Goal, error) {
	res := r.db.Model(&models.Goal{}).
		Where("id = ? AND status = ?", id, models.GoalStatusDraft).
		Update("committed_at", nil)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to reset goal editing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}
	return r.GetByID(id)
}

// CommitIfDraft transitions the goal from draft to committed.
func (r *GoalRepository) CommitIfDraft(id string, lockedAt time.Time) (*models.Goal, error) {
	res := r.db.Model(&models.Goal{}).
		Where("id = ? AND status = ?", id, models.GoalStatusDraft).
		Updates(map[string]interface{}{
			"status":    models.GoalStatusCommitted,
			"locked_at": lockedAt,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to commit goal: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}
	return r.GetByID(id)
}

// DeleteIfDraft deletes the goal, provided it is still a draft.
func (r *GoalRepository) DeleteIfDraft(id string) error {
	res := r.db.Where("id = ? AND status = ?", id, models.GoalStatusDraft).Delete(&models.Goal{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete goal: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// ListReflectedByUser retrieves the user's reflected goals, most recently
// reflected first, with the reflection and its option preloaded.
func (r *GoalRepository) ListReflectedByUser(userID string, limit int) ([]models.Goal, error) {
	var goals []models.Goal
	err := r.db.
		Where("user_id = ? AND status = ?", userID, models.GoalStatusReflected).
		Order("reflected_at DESC").
		Limit(limit).
		Preload("Reflection").
		Preload("Reflection.ReflectionOption").
		Find(&goals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reflected goals for user %s: %w", userID, err)
	}
	return goals, nil
}
