package repository

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dailyone-app/dailyone-backend/internal/models"
	"github.com/dailyone-app/dailyone-backend/pkg/logger"
)

// setupTestDB creates an in-memory SQLite database with all tables migrated.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	// Enable foreign key constraints (SQLite default is off)
	gormDB.Exec("PRAGMA foreign_keys = ON")

	db := &DB{gormDB}
	if err := db.AutoMigrate(); err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}

	return db
}

func testLogger() *logger.Logger {
	return logger.New("error", "console", "stdout")
}

// createTestUser creates a test user in the database.
func createTestUser(t *testing.T, db *DB, subject string) *models.User {
	t.Helper()

	user := &models.User{
		Subject: subject,
		Email:   subject + "@example.com",
		Name:    subject,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// createTestGoal creates a test goal in the given status.
func createTestGoal(t *testing.T, db *DB, userID, text, status string) *models.Goal {
	t.Helper()

	goal := &models.Goal{
		UserID: userID,
		Text:   text,
		Status: status,
	}
	if status == models.GoalStatusCommitted || status == models.GoalStatusReflected {
		now := time.Now()
		goal.LockedAt = &now
	}
	if status == models.GoalStatusReflected {
		now := time.Now()
		goal.ReflectedAt = &now
	}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("Failed to create test goal: %v", err)
	}
	return goal
}

// createTestOption creates a reflection option.
func createTestOption(t *testing.T, db *DB, reflectionType string, score int) *models.ReflectionOption {
	t.Helper()

	option := &models.ReflectionOption{
		Text:           reflectionType,
		Score:          score,
		ReflectionType: reflectionType,
		IsActive:       true,
	}
	if err := db.Create(option).Error; err != nil {
		t.Fatalf("Failed to create test reflection option: %v", err)
	}
	return option
}
