package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dailyone-app/dailyone-backend/internal/models"
)

// ReflectionRepository handles reflection and reflection option database
// operations.
type ReflectionRepository struct {
	db *DB
}

// NewReflectionRepository creates a new reflection repository.
func NewReflectionRepository(db *DB) *ReflectionRepository {
	return &ReflectionRepository{db: db}
}

// CreateForCommittedGoal inserts the reflection and flips its goal from
// committed to reflected in one transaction. The guarded goal update makes
// the transition race-safe: a second concurrent reflect sees zero affected
// rows and the reflection insert never happens.
func (r *ReflectionRepository) CreateForCommittedGoal(reflection *models.Reflection, reflectedAt time.Time) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Goal{}).
			Where("id = ? AND status = ?", reflection.GoalID, models.GoalStatusCommitted).
			Updates(map[string]interface{}{
				"status":       models.GoalStatusReflected,
				"reflected_at": reflectedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}
		return tx.Create(reflection).Error
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return ErrInvalidTransition
		}
		return fmt.Errorf("failed to create reflection for goal %s: %w", reflection.GoalID, err)
	}
	return nil
}

// GetByID retrieves a reflection by ID.
func (r *ReflectionRepository) GetByID(id string) (*models.Reflection, error) {
	var reflection models.Reflection
	if err := r.db.First(&reflection, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get reflection %s: %w", id, err)
	}
	return &reflection, nil
}

// GetByGoalID retrieves the reflection belonging to a goal.
func (r *ReflectionRepository) GetByGoalID(goalID string) (*models.Reflection, error) {
	var reflection models.Reflection
	if err := r.db.First(&reflection, "goal_id = ?", goalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get reflection for goal %s: %w", goalID, err)
	}
	return &reflection, nil
}

// UpdateOption re-points the reflection to a different option and rewrites
// its copied score.
func (r *ReflectionRepository) UpdateOption(id, optionID string, score int) (*models.Reflection, error) {
	res := r.db.Model(&models.Reflection{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reflection_option_id": optionID,
			"score":                score,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update reflection %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(id)
}

// GetOptionByID retrieves a reflection option by ID.
func (r *ReflectionRepository) GetOptionByID(id string) (*models.ReflectionOption, error) {
	var option models.ReflectionOption
	if err := r.db.First(&option, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get reflection option %s: %w", id, err)
	}
	return &option, nil
}

// ListActiveOptions retrieves all active reflection options, highest score
// first.
func (r *ReflectionRepository) ListActiveOptions() ([]models.ReflectionOption, error) {
	var options []models.ReflectionOption
	err := r.db.
		Where("is_active = ?", true).
		Order("score DESC").
		Find(&options).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reflection options: %w", err)
	}
	return options, nil
}
