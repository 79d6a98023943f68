package ranks

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dailyone-app/dailyone-backend/internal/models"
	"github.com/dailyone-app/dailyone-backend/internal/repository"
	"github.com/dailyone-app/dailyone-backend/internal/service/scores"
	"github.com/dailyone-app/dailyone-backend/pkg/logger"
	"github.com/dailyone-app/dailyone-backend/test/mocks"
)

// setupDBService wires the real score and rank services over an in-memory
// database, so week rows round-trip through gorm the way they do in
// production.
func setupDBService(t *testing.T) (*Service, *scores.Service, *repository.DB) {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	db := &repository.DB{DB: gormDB}
	if err := db.AutoMigrate(); err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}

	log := logger.New("error", "console", "stdout")
	scoreService := scores.NewService(repository.NewScoreRepository(db), log)
	rankService := NewService(scoreService, repository.NewRankRepository(db), mocks.NewMockCache(), time.Hour, log)
	return rankService, scoreService, db
}

func TestRankPageData_ChartReadsPersistedWeeks(t *testing.T) {
	svc, scoreService, db := setupDBService(t)
	ctx := context.Background()

	user := &models.User{Subject: "auth0|chart", Email: "chart@example.com", Name: "chart"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	tier := &models.RankTier{Name: "Starting", MinScore: 0, MaxScore: 399}
	if err := db.Create(tier).Error; err != nil {
		t.Fatalf("Failed to create test tier: %v", err)
	}

	// Credit today through the real score service so the week row is
	// persisted and read back with the database's own time location.
	if _, err := scoreService.AddDailyScore(ctx, user.ID, 5); err != nil {
		t.Fatalf("AddDailyScore failed: %v", err)
	}

	data, err := svc.RankPageData(ctx, user.ID)
	if err != nil {
		t.Fatalf("RankPageData failed: %v", err)
	}

	if len(data.WeeklyProgress) != 13 {
		t.Fatalf("Expected 13 chart slots, got %d", len(data.WeeklyProgress))
	}
	current := data.WeeklyProgress[12]
	if !current.IsCurrentWeek {
		t.Fatalf("Expected the newest slot to be the current week, got %+v", current)
	}
	if current.Score != 5 {
		t.Errorf("Expected the persisted week's 5 points in the current slot, got %d", current.Score)
	}
	if data.CurrentWeekScore != 5 {
		t.Errorf("Expected current week score 5, got %d", data.CurrentWeekScore)
	}
}
