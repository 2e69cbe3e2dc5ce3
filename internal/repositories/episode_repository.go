package repositories

import (
	"context"

	"github.com/SAP-F-2025/exercise-service/internal/models"
	"gorm.io/gorm"
)

// EpisodeRepository reads episode and podcast data owned by the catalog service.
type EpisodeRepository interface {
	Exists(ctx context.Context, tx *gorm.DB, episodeID uint) (bool, error)
	IsCreator(ctx context.Context, tx *gorm.DB, episodeID, userID uint) (bool, error)
	GetLanguage(ctx context.Context, tx *gorm.DB, episodeID uint) (*models.EpisodeLanguage, error)
}
