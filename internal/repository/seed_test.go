package repository

import (
	"testing"

	"github.com/dailyone-app/dailyone-backend/internal/models"
)

func TestSeed_LoadsReferenceData(t *testing.T) {
	db := setupTestDB(t)

	if err := Seed(db, testLogger()); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	var options []models.ReflectionOption
	if err := db.Find(&options).Error; err != nil {
		t.Fatalf("Failed to load options: %v", err)
	}
	if len(options) != 4 {
		t.Fatalf("Expected 4 reflection options, got %d", len(options))
	}

	scores := map[string]int{}
	for _, o := range options {
		scores[o.ReflectionType] = o.Score
		if !o.IsActive {
			t.Errorf("Expected option %s active", o.ReflectionType)
		}
	}
	want := map[string]int{
		models.ReflectionTypeDidIt:             5,
		models.ReflectionTypeTriedLifeHappened: 3,
		models.ReflectionTypePrioritiesShifted: 2,
		models.ReflectionTypeNotToday:          1,
	}
	for typ, score := range want {
		if scores[typ] != score {
			t.Errorf("Expected %s worth %d points, got %d", typ, score, scores[typ])
		}
	}

	var tiers []models.RankTier
	if err := db.Order("min_score ASC").Find(&tiers).Error; err != nil {
		t.Fatalf("Failed to load tiers: %v", err)
	}
	if len(tiers) != 7 {
		t.Fatalf("Expected 7 rank tiers, got %d", len(tiers))
	}
	if tiers[0].Name != "Starting" || tiers[6].Name != "Peak" {
		t.Errorf("Expected Starting..Peak, got %s..%s", tiers[0].Name, tiers[6].Name)
	}

	// Bands are contiguous.
	for i := 1; i < len(tiers); i++ {
		if tiers[i].MinScore != tiers[i-1].MaxScore+1 {
			t.Errorf("Gap between %s and %s: %d..%d", tiers[i-1].Name, tiers[i].Name, tiers[i-1].MaxScore, tiers[i].MinScore)
		}
	}
}

func TestSeed_NeighborNames(t *testing.T) {
	db := setupTestDB(t)

	if err := Seed(db, testLogger()); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	var tiers []models.RankTier
	if err := db.Order("min_score ASC").Find(&tiers).Error; err != nil {
		t.Fatalf("Failed to load tiers: %v", err)
	}

	if tiers[0].PreviousRankName != "" {
		t.Errorf("Lowest tier should have no previous rank, got %q", tiers[0].PreviousRankName)
	}
	if tiers[0].NextRankName != tiers[1].Name {
		t.Errorf("Expected next rank %q, got %q", tiers[1].Name, tiers[0].NextRankName)
	}
	last := len(tiers) - 1
	if tiers[last].NextRankName != "" {
		t.Errorf("Highest tier should have no next rank, got %q", tiers[last].NextRankName)
	}
	if tiers[last].PreviousRankName != tiers[last-1].Name {
		t.Errorf("Expected previous rank %q, got %q", tiers[last-1].Name, tiers[last].PreviousRankName)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	if err := Seed(db, testLogger()); err != nil {
		t.Fatalf("First seed failed: %v", err)
	}
	if err := Seed(db, testLogger()); err != nil {
		t.Fatalf("Second seed failed: %v", err)
	}

	var optionCount, tierCount int64
	db.Model(&models.ReflectionOption{}).Count(&optionCount)
	db.Model(&models.RankTier{}).Count(&tierCount)
	if optionCount != 4 {
		t.Errorf("Expected 4 options after reseed, got %d", optionCount)
	}
	if tierCount != 7 {
		t.Errorf("Expected 7 tiers after reseed, got %d", tierCount)
	}
}
