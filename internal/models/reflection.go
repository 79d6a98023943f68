package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reflection type constants, matching the seeded reflection options.
const (
	ReflectionTypeTriedLifeHappened = "tried_life_happened"
	ReflectionTypePrioritiesShifted = "priorities_shifted"
	ReflectionTypeNotToday          = "not_today"
	ReflectionTypeDidIt             = "did_it"
)

// Reflection records the outcome chosen for a reflected goal. Score is
// copied from the option at creation time and rewritten on re-selection.
type Reflection struct {
	ID                 string           `gorm:"primaryKey;size:36" json:"id"`
	UserID             string           `gorm:"not null;index;size:36" json:"user_id"`
	GoalID             string           `gorm:"uniqueIndex;not null;size:36" json:"goal_id"`
	Goal               *Goal            `gorm:"foreignKey:GoalID" json:"goal,omitempty"`
	ReflectionOptionID string           `gorm:"not null;index;size:36" json:"reflection_option_id"`
	ReflectionOption   ReflectionOption `gorm:"foreignKey:ReflectionOptionID" json:"reflection_option,omitempty"`
	Score              int              `gorm:"not null" json:"score"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// TableName specifies the table name for Reflection model.
func (Reflection) TableName() string {
	return "reflections"
}

// BeforeCreate assigns a UUID primary key.
func (r *Reflection) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ReflectionOption is a predefined outcome choice with an associated point
// value. Seeded once; read-only from the application's perspective.
type ReflectionOption struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Text           string    `gorm:"not null;size:255" json:"text"`
	Score          int       `gorm:"not null" json:"score"`
	ReflectionType string    `gorm:"size:50;not null" json:"reflection_type"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for ReflectionOption model.
func (ReflectionOption) TableName() string {
	return "reflection_options"
}

// BeforeCreate assigns a UUID primary key.
func (o *ReflectionOption) BeforeCreate(_ *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}
