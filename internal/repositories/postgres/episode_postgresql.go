package postgres

import (
	"context"

	"github.com/SAP-F-2025/exercise-service/internal/models"
	"github.com/SAP-F-2025/exercise-service/internal/repositories"
	"gorm.io/gorm"
)

type EpisodePostgreSQL struct {
	db *gorm.DB
}

func NewEpisodePostgreSQL(db *gorm.DB) repositories.EpisodeRepository {
	return &EpisodePostgreSQL{db: db}
}

func (e *EpisodePostgreSQL) Exists(ctx context.Context, tx *gorm.DB, episodeID uint) (bool, error) {
	db := e.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).Model(&models.Episode{}).Where("id = ?", episodeID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsCreator reports whether userID uploaded the podcast the episode belongs to
func (e *EpisodePostgreSQL) IsCreator(ctx context.Context, tx *gorm.DB, episodeID, userID uint) (bool, error) {
	db := e.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Episode{}).
		Joins("JOIN podcasts ON podcasts.id = episodes.podcast_id").
		Where("episodes.id = ? AND podcasts.uploaded_by_user_id = ?", episodeID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (e *EpisodePostgreSQL) GetLanguage(ctx context.Context, tx *gorm.DB, episodeID uint) (*models.EpisodeLanguage, error) {
	db := e.getDB(tx)
	var episode models.Episode
	if err := db.WithContext(ctx).
		Preload("Podcast.TargetLanguage").
		First(&episode, episodeID).Error; err != nil {
		return nil, err
	}

	return &models.EpisodeLanguage{
		EpisodeID:    episode.ID,
		PodcastID:    episode.PodcastID,
		LanguageID:   episode.Podcast.TargetLanguageID,
		LanguageName: episode.Podcast.TargetLanguage.Name,
		Levels:       episode.Podcast.LevelList(),
	}, nil
}

func (e *EpisodePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	return resolveDB(e.db, tx)
}
