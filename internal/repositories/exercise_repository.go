package repositories

import (
	"context"

	"github.com/SAP-F-2025/exercise-service/internal/models"
	"gorm.io/gorm"
)

// ExerciseRepository interface for exercise operations
type ExerciseRepository interface {
	// Basic CRUD operations
	CreateBatch(ctx context.Context, tx *gorm.DB, exercises []*models.Exercise) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exercise, error)
	UpdateContent(ctx context.Context, tx *gorm.DB, exercise *models.Exercise) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, episodeID uint, ids []uint) error

	// Query operations
	GetByEpisode(ctx context.Context, tx *gorm.DB, episodeID uint) ([]*models.Exercise, error)
	GetIDsByEpisode(ctx context.Context, tx *gorm.DB, episodeID uint) ([]uint, error)
	GetTimeline(ctx context.Context, tx *gorm.DB, episodeID uint) ([]*ExerciseTiming, error)
	Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
	// GetEpisodeVersion fingerprints the stored set; any sync that changes it yields a new value.
	GetEpisodeVersion(ctx context.Context, tx *gorm.DB, episodeID uint) (string, error)

	// Statistics
	GetCreatorSummaries(ctx context.Context, tx *gorm.DB, episodeID uint) ([]*ExerciseSummary, error)
}

// ExerciseResponseRepository interface for learner submissions
type ExerciseResponseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, response *models.ExerciseResponse) error
	DeleteByExerciseIDs(ctx context.Context, tx *gorm.DB, exerciseIDs []uint) error

	// GetLatestByUser returns nil without error when the user never answered.
	GetLatestByUser(ctx context.Context, tx *gorm.DB, userID, exerciseID uint) (*models.ExerciseResponse, error)
	GetLatestByUserForExercises(ctx context.Context, tx *gorm.DB, userID uint, exerciseIDs []uint) (map[uint]*models.ExerciseResponse, error)
	GetByExerciseWithUsers(ctx context.Context, tx *gorm.DB, exerciseID uint) ([]*ResponseWithUser, error)
}
