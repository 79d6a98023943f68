package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dailyone-app/dailyone-backend/internal/models"
)

// RankRepository handles rank tier and user rank database operations.
type RankRepository struct {
	db *DB
}

// NewRankRepository creates a new rank repository.
func NewRankRepository(db *DB) *RankRepository {
	return &RankRepository{db: db}
}

// ListTiers retrieves all rank tiers ordered by MinScore ascending.
func (r *RankRepository) ListTiers() ([]models.RankTier, error) {
	var tiers []models.RankTier
	if err := r.db.Order("min_score ASC").Find(&tiers).Error; err != nil {
		return nil, fmt.Errorf("failed to list rank tiers: %w", err)
	}
	return tiers, nil
}

// GetUserRank retrieves the user's rank row with its tier preloaded, or nil
// if the user has never been ranked.
func (r *RankRepository) GetUserRank(userID string) (*models.UserRank, error) {
	var ranks []models.UserRank
	err := r.db.Where("user_id = ?", userID).Preload("RankTier").Limit(1).Find(&ranks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get rank for user %s: %w", userID, err)
	}
	if len(ranks) == 0 {
		return nil, nil
	}
	return &ranks[0], nil
}

// UpsertUserRank updates the user's singleton rank row, creating it on first
// calculation.
func (r *RankRepository) UpsertUserRank(userID, tierID string, totalScore int, progress float64, calculatedAt time.Time) (*models.UserRank, error) {
	var existing models.UserRank
	err := r.db.Where("user_id = ?", userID).First(&existing).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"rank_tier_id":       tierID,
			"current_score":      totalScore,
			"progress_in_tier":   progress,
			"last_calculated_at": calculatedAt,
		}
		if err := r.db.Model(&existing).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update rank for user %s: %w", userID, err)
		}
		existing.RankTierID = tierID
		existing.CurrentScore = totalScore
		existing.ProgressInTier = progress
		existing.LastCalculatedAt = calculatedAt
		return &existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		rank := models.UserRank{
			UserID:           userID,
			RankTierID:       tierID,
			CurrentScore:     totalScore,
			ProgressInTier:   progress,
			LastCalculatedAt: calculatedAt,
		}
		if err := r.db.Create(&rank).Error; err != nil {
			return nil, fmt.Errorf("failed to create rank for user %s: %w", userID, err)
		}
		return &rank, nil
	default:
		return nil, fmt.Errorf("failed to get rank for user %s: %w", userID, err)
	}
}
