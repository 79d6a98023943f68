// Package models defines domain models for the daily goal tracker.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an authenticated application user. Subject holds the
// identity provider's stable subject claim.
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Subject   string    `gorm:"uniqueIndex;not null;size:255" json:"subject"`
	Email     string    `gorm:"not null;size:255" json:"email"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model.
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID primary key.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// AppConfig represents an application configuration key-value pair,
// used to track the reference data seed version.
type AppConfig struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;not null;size:255" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for AppConfig model.
func (AppConfig) TableName() string {
	return "app_config"
}
