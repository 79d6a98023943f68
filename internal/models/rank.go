package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RankTier is a named score band. Bands are contiguous and non-overlapping,
// with neighbor names precomputed at seed time. Static reference data.
type RankTier struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	Name             string    `gorm:"uniqueIndex;not null;size:100" json:"name"`
	Emoji            string    `gorm:"size:16" json:"emoji"`
	MinScore         int       `gorm:"not null" json:"min_score"`
	MaxScore         int       `gorm:"not null" json:"max_score"`
	Description      string    `gorm:"type:text" json:"description"`
	NextRankName     string    `gorm:"size:100" json:"next_rank_name"`
	PreviousRankName string    `gorm:"size:100" json:"previous_rank_name"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName specifies the table name for RankTier model.
func (RankTier) TableName() string {
	return "rank_tiers"
}

// BeforeCreate assigns a UUID primary key.
func (t *RankTier) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Contains reports whether score falls inside the tier band, inclusive on
// both ends.
func (t *RankTier) Contains(score int) bool {
	return score >= t.MinScore && score <= t.MaxScore
}

// UserRank is a derived, singleton-per-user projection of the trailing
// completed-week history. It is recomputed, never hand-edited.
type UserRank struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	UserID           string    `gorm:"uniqueIndex;not null;size:36" json:"user_id"`
	RankTierID       string    `gorm:"not null;index;size:36" json:"rank_tier_id"`
	RankTier         RankTier  `gorm:"foreignKey:RankTierID" json:"rank_tier,omitempty"`
	CurrentScore     int       `gorm:"not null;default:0" json:"current_score"`
	ProgressInTier   float64   `gorm:"not null;default:0" json:"progress_in_tier"`
	LastCalculatedAt time.Time `gorm:"not null" json:"last_calculated_at"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName specifies the table name for UserRank model.
func (UserRank) TableName() string {
	return "user_ranks"
}

// BeforeCreate assigns a UUID primary key.
func (r *UserRank) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
