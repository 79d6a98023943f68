package repository

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/dailyone-app/dailyone-backend/internal/models"
	"github.com/dailyone-app/dailyone-backend/pkg/logger"
)

//go:embed seed.yaml
var seedFile []byte

const seedVersionKey = "seed_version"

type seedData struct {
	Version           string       `yaml:"version"`
	ReflectionOptions []seedOption `yaml:"reflection_options"`
	RankTiers         []seedTier   `yaml:"rank_tiers"`
}

type seedOption struct {
	Text           string `yaml:"text"`
	Score          int    `yaml:"score"`
	ReflectionType string `yaml:"reflection_type"`
}

type seedTier struct {
	Name        string `yaml:"name"`
	Emoji       string `yaml:"emoji"`
	MinScore    int    `yaml:"min_score"`
	MaxScore    int    `yaml:"max_score"`
	Description string `yaml:"description"`
}

// Seed loads the embedded reference data (reflection options and rank tiers)
// into the database. The seed version is tracked in app_config so reseeding
// is a no-op until the embedded file changes.
func Seed(db *DB, log *logger.Logger) error {
	var data seedData
	if err := yaml.Unmarshal(seedFile, &data); err != nil {
		return fmt.Errorf("failed to parse seed data: %w", err)
	}

	var current models.AppConfig
	err := db.First(&current, "key = ?", seedVersionKey).Error
	if err == nil && current.Value == data.Version {
		log.Debug().Str("version", data.Version).Msg("Reference data already seeded")
		return nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to read seed version: %w", err)
	}

	sort.Slice(data.RankTiers, func(i, j int) bool {
		return data.RankTiers[i].MinScore < data.RankTiers[j].MinScore
	})

	return db.Transaction(func(tx *gorm.DB) error {
		for _, o := range data.ReflectionOptions {
			option := models.ReflectionOption{
				Text:           o.Text,
				Score:          o.Score,
				ReflectionType: o.ReflectionType,
				IsActive:       true,
			}
			err := tx.Where(models.ReflectionOption{ReflectionType: o.ReflectionType}).
				Assign(map[string]interface{}{
					"text":      o.Text,
					"score":     o.Score,
					"is_active": true,
				}).
				FirstOrCreate(&option).Error
			if err != nil {
				return fmt.Errorf("failed to seed reflection option %s: %w", o.ReflectionType, err)
			}
		}

		for i, t := range data.RankTiers {
			next, prev := "", ""
			if i+1 < len(data.RankTiers) {
				next = data.RankTiers[i+1].Name
			}
			if i > 0 {
				prev = data.RankTiers[i-1].Name
			}
			tier := models.RankTier{Name: t.Name}
			err := tx.Where(models.RankTier{Name: t.Name}).
				Assign(map[string]interface{}{
					"emoji":              t.Emoji,
					"min_score":          t.MinScore,
					"max_score":          t.MaxScore,
					"description":        t.Description,
					"next_rank_name":     next,
					"previous_rank_name": prev,
				}).
				FirstOrCreate(&tier).Error
			if err != nil {
				return fmt.Errorf("failed to seed rank tier %s: %w", t.Name, err)
			}
		}

		cfg := models.AppConfig{Key: seedVersionKey}
		err := tx.Where(models.AppConfig{Key: seedVersionKey}).
			Assign(map[string]interface{}{"value": data.Version}).
			FirstOrCreate(&cfg).Error
		if err != nil {
			return fmt.Errorf("failed to record seed version: %w", err)
		}

		log.Info().
			Str("version", data.Version).
			Int("options", len(data.ReflectionOptions)).
			Int("tiers", len(data.RankTiers)).
			Msg("Seeded reference data")
		return nil
	})
}
