package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Score caps. A day holds at most 40 points, a week at most 280 (40 x 7).
const (
	DailyScoreCap  = 40
	WeeklyScoreCap = 280
)

// DailyScore is a user's point total for one calendar day, created lazily
// on the first reflection of that day. Date is normalized to midnight.
type DailyScore struct {
	ID              string      `gorm:"primaryKey;size:36" json:"id"`
	UserID          string      `gorm:"not null;index:idx_daily_user_date,unique;size:36" json:"user_id"`
	Date            time.Time   `gorm:"not null;index:idx_daily_user_date,unique" json:"date"`
	Score           int         `gorm:"not null;default:0" json:"score"`
	ReflectionCount int         `gorm:"not null;default:0" json:"reflection_count"`
	WeeklyScoreID   string      `gorm:"not null;index;size:36" json:"weekly_score_id"`
	WeeklyScore     WeeklyScore `gorm:"foreignKey:WeeklyScoreID" json:"weekly_score,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// TableName specifies the table name for DailyScore model.
func (DailyScore) TableName() string {
	return "daily_scores"
}

// BeforeCreate assigns a UUID primary key.
func (d *DailyScore) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// WeeklyScore is a user's point total for one Sunday-to-Saturday week,
// created lazily alongside the first daily score of the week. IsComplete
// flips to true once WeekEnd has passed; only complete weeks count toward
// rank.
type WeeklyScore struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `gorm:"not null;index:idx_weekly_user_start,unique;size:36" json:"user_id"`
	WeekStart  time.Time `gorm:"not null;index:idx_weekly_user_start,unique" json:"week_start"`
	WeekEnd    time.Time `gorm:"not null" json:"week_end"`
	Score      int       `gorm:"not null;default:0" json:"score"`
	IsComplete bool      `gorm:"not null;default:false;index" json:"is_complete"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for WeeklyScore model.
func (WeeklyScore) TableName() string {
	return "weekly_scores"
}

// BeforeCreate assigns a UUID primary key.
func (w *WeeklyScore) BeforeCreate(_ *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
