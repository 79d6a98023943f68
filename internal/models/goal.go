package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Goal status constants. A goal only ever moves forward along
// draft -> committed -> reflected.
const (
	GoalStatusDraft     = "draft"
	GoalStatusCommitted = "committed"
	GoalStatusReflected = "reflected"
)

// Goal represents a user's single daily goal and its lifecycle state.
// CommittedAt marks the start of the timed edit window while the goal is
// still a draft; LockedAt is set when the goal transitions to committed.
type Goal struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"not null;index;size:36" json:"user_id"`
	User        User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Text        string     `gorm:"type:text;not null" json:"text"`
	Status      string     `gorm:"size:20;not null;index" json:"status"`
	CommittedAt *time.Time `json:"committed_at"`
	LockedAt    *time.Time `json:"locked_at"`
	ReflectedAt *time.Time `gorm:"index" json:"reflected_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Reflection *Reflection `gorm:"foreignKey:GoalID" json:"reflection,omitempty"`
}

// TableName specifies the table name for Goal model.
func (Goal) TableName() string {
	return "goals"
}

// BeforeCreate assigns a UUID primary key.
func (g *Goal) BeforeCreate(_ *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}
