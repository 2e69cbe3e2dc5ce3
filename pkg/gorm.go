package pkg

import (
	"fmt"

	"github.com/SAP-F-2025/exercise-service/internal/config"
	"github.com/SAP-F-2025/exercise-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Info
	} else {
		logLevel = logger.Error
	}

	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "", "postgres":
		dialector = postgres.Open(cfg.DatabaseURL)
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// Migrate creates the tables owned by this service. Users, languages,
// podcasts and episodes belong to other services and are only read.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Exercise{}, &models.ExerciseResponse{}); err != nil {
		return fmt.Errorf("failed to migrate exercise tables: %w", err)
	}
	return nil
}
