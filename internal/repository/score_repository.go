package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dailyone-app/dailyone-backend/internal/models"
)

// ScoreRepository handles daily and weekly score database operations. All cap
// arithmetic runs inside transactions so a day and its week never drift apart.
type ScoreRepository struct {
	db *DB
}

// NewScoreRepository creates a new score repository.
func NewScoreRepository(db *DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AddDaily credits points to the user's score for the given day, creating the
// day and week rows if needed. The daily total is capped; the week is
// credited only the actual post-cap delta and is capped separately. Returns
// the daily row and the actual delta applied.
func (r *ScoreRepository) AddDaily(userID string, day, weekStart, weekEnd time.Time, points int) (*models.DailyScore, int, error) {
	var daily *models.DailyScore
	var actual int

	err := r.db.Transaction(func(tx *gorm.DB) error {
		weekly, err := getOrCreateWeekly(tx, userID, weekStart, weekEnd)
		if err != nil {
			return err
		}

		var existing models.DailyScore
		err = tx.Where("user_id = ? AND date = ?", userID, day).First(&existing).Error
		switch {
		case err == nil:
			newScore := clamp(existing.Score+points, 0, models.DailyScoreCap)
			actual = newScore - existing.Score
			err = tx.Model(&existing).Updates(map[string]interface{}{
				"score":            newScore,
				"reflection_count": existing.ReflectionCount + 1,
			}).Error
			if err != nil {
				return err
			}
			existing.Score = newScore
			existing.ReflectionCount++
			daily = &existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			newScore := clamp(points, 0, models.DailyScoreCap)
			actual = newScore
			created := models.DailyScore{
				UserID:          userID,
				Date:            day,
				Score:           newScore,
				ReflectionCount: 1,
				WeeklyScoreID:   weekly.ID,
			}
			if err := tx.Create(&created).Error; err != nil {
				return err
			}
			daily = &created
		default:
			return err
		}

		if actual != 0 {
			return applyWeeklyDelta(tx, weekly, actual)
		}
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to add daily score for user %s: %w", userID, err)
	}
	return daily, actual, nil
}

// AdjustDailyForDate applies a signed delta to an existing day row and
// propagates the actual post-clamp delta to the linked week. The day row is
// never created here; ErrNotFound is returned when the date has no score.
// The reflection count is left untouched.
func (r *ScoreRepository) AdjustDailyForDate(userID string, day time.Time, delta int) (*models.DailyScore, int, error) {
	var daily *models.DailyScore
	var actual int

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.DailyScore
		err := tx.Where("user_id = ? AND date = ?", userID, day).First(&existing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		newScore := clamp(existing.Score+delta, 0, models.DailyScoreCap)
		actual = newScore - existing.Score
		if actual != 0 {
			if err := tx.Model(&existing).Update("score", newScore).Error; err != nil {
				return err
			}
			existing.Score = newScore

			var weekly models.WeeklyScore
			if err := tx.First(&weekly, "id = ?", existing.WeeklyScoreID).Error; err != nil {
				return err
			}
			if err := applyWeeklyDelta(tx, &weekly, actual); err != nil {
				return err
			}
		}
		daily = &existing
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("failed to adjust daily score for user %s: %w", userID, err)
	}
	return daily, actual, nil
}

func getOrCreateWeekly(tx *gorm.DB, userID string, weekStart, weekEnd time.Time) (*models.WeeklyScore, error) {
	var weekly models.WeeklyScore
	err := tx.Where("user_id = ? AND week_start = ?", userID, weekStart).First(&weekly).Error
	if err == nil {
		return &weekly, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	weekly = models.WeeklyScore{
		UserID:     userID,
		WeekStart:  weekStart,
		WeekEnd:    weekEnd,
		Score:      0,
		IsComplete: false,
	}
	if err := tx.Create(&weekly).Error; err != nil {
		return nil, err
	}
	return &weekly, nil
}

func applyWeeklyDelta(tx *gorm.DB, weekly *models.WeeklyScore, delta int) error {
	newScore := clamp(weekly.Score+delta, 0, models.WeeklyScoreCap)
	if newScore == weekly.Score {
		return nil
	}
	if err := tx.Model(weekly).Update("score", newScore).Error; err != nil {
		return err
	}
	weekly.Score = newScore
	return nil
}

// GetDailyByDate retrieves the user's score row for a specific day, or nil if
// none exists.
func (r *ScoreRepository) GetDailyByDate(userID string, day time.Time) (*models.DailyScore, error) {
	var scores []models.DailyScore
	err := r.db.Where("user_id = ? AND date = ?", userID, day).Limit(1).Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get daily score for user %s: %w", userID, err)
	}
	if len(scores) == 0 {
		return nil, nil
	}
	return &scores[0], nil
}

// GetWeeklyByStart retrieves the user's weekly score row for a specific week
// start, or nil if none exists.
func (r *ScoreRepository) GetWeeklyByStart(userID string, weekStart time.Time) (*models.WeeklyScore, error) {
	var scores []models.WeeklyScore
	err := r.db.Where("user_id = ? AND week_start = ?", userID, weekStart).Limit(1).Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly score for user %s: %w", userID, err)
	}
	if len(scores) == 0 {
		return nil, nil
	}
	return &scores[0], nil
}

// ListRecentWeekly retrieves the user's weekly rows starting on or after
// since, newest week first, up to limit rows.
func (r *ScoreRepository) ListRecentWeekly(userID string, since time.Time, limit int) ([]models.WeeklyScore, error) {
	var scores []models.WeeklyScore
	err := r.db.
		Where("user_id = ? AND week_start >= ?", userID, since).
		Order("week_start DESC").
		Limit(limit).
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list weekly scores for user %s: %w", userID, err)
	}
	return scores, nil
}

// ListIncompleteWeekly retrieves the user's weekly rows not yet marked
// complete.
func (r *ScoreRepository) ListIncompleteWeekly(userID string) ([]models.WeeklyScore, error) {
	var scores []models.WeeklyScore
	err := r.db.
		Where("user_id = ? AND is_complete = ?", userID, false).
		Order("week_start ASC").
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list incomplete weeks for user %s: %w", userID, err)
	}
	return scores, nil
}

// MarkWeekComplete flips a weekly row to complete.
func (r *ScoreRepository) MarkWeekComplete(id string) error {
	res := r.db.Model(&models.WeeklyScore{}).Where("id = ?", id).Update("is_complete", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark week %s complete: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
