package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/SAP-F-2025/exercise-service/internal/models"
	"github.com/SAP-F-2025/exercise-service/internal/repositories"
	"gorm.io/gorm"
)

type ExercisePostgreSQL struct {
	db *gorm.DB
}

func NewExercisePostgreSQL(db *gorm.DB) repositories.ExerciseRepository {
	return &ExercisePostgreSQL{db: db}
}

// CreateBatch inserts new exercises and fills in their ids
func (e *ExercisePostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, exercises []*models.Exercise) error {
	if len(exercises) == 0 {
		return nil
	}
	db := e.getDB(tx)
	if err := db.WithContext(ctx).Create(exercises).Error; err != nil {
		return fmt.Errorf("failed to create exercises: %w", err)
	}
	return nil
}

func (e *ExercisePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exercise, error) {
	db := e.getDB(tx)
	var exercise models.Exercise
	if err := db.WithContext(ctx).First(&exercise, id).Error; err != nil {
		return nil, err
	}
	return &exercise, nil
}

// UpdateContent overwrites content and timing of an exercise within its episode
func (e *ExercisePostgreSQL) UpdateContent(ctx context.Context, tx *gorm.DB, exercise *models.Exercise) error {
	db := e.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Exercise{}).
		Where("id = ? AND episode_id = ?", exercise.ID, exercise.EpisodeID).
		Updates(map[string]interface{}{
			"content":    exercise.Content,
			"start":      exercise.Start,
			"duration":   exercise.Duration,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update exercise %d: %w", exercise.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (e *ExercisePostgreSQL) DeleteByIDs(ctx context.Context, tx *gorm.DB, episodeID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	db := e.getDB(tx)
	return db.WithContext(ctx).
		Where("episode_id = ? AND id IN ?", episodeID, ids).
		Delete(&models.Exercise{}).Error
}

func (e *ExercisePostgreSQL) GetByEpisode(ctx context.Context, tx *gorm.DB, episodeID uint) ([]*models.Exercise, error) {
	db := e.getDB(tx)
	var exercises []*models.Exercise
	if err := db.WithContext(ctx).
		Where("episode_id = ?", episodeID).
		Order("id ASC").
		Find(&exercises).Error; err != nil {
		return nil, err
	}
	return exercises, nil
}

func (e *ExercisePostgreSQL) GetIDsByEpisode(ctx context.Context, tx *gorm.DB, episodeID uint) ([]uint, error) {
	db := e.getDB(tx)
	var ids []uint
	if err := db.WithContext(ctx).
		Model(&models.Exercise{}).
		Where("episode_id = ?", episodeID).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// GetTimeline returns only exercises anchored on the episode timeline
func (e *ExercisePostgreSQL) GetTimeline(ctx context.Context, tx *gorm.DB, episodeID uint) ([]*repositories.ExerciseTiming, error) {
	db := e.getDB(tx)
	var timings []*repositories.ExerciseTiming
	if err := db.WithContext(ctx).
		Model(&models.Exercise{}).
		Select("id, start, duration, created_at").
		Where("episode_id = ? AND start IS NOT NULL", episodeID).
		Order("start ASC, id ASC").
		Scan(&timings).Error; err != nil {
		return nil, err
	}
	return timings, nil
}

func (e *ExercisePostgreSQL) Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	db := e.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).Model(&models.Exercise{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetEpisodeVersion combines row count, highest id and latest update.
// Deletes lower the count, creates raise the id and updates bump updated_at.
func (e *ExercisePostgreSQL) GetEpisodeVersion(ctx context.Context, tx *gorm.DB, episodeID uint) (string, error) {
	db := e.getDB(tx)
	var (
		count     int64
		maxID     sql.NullInt64
		updatedAt sql.NullString
	)
	if err := db.WithContext(ctx).
		Model(&models.Exercise{}).
		Select("COUNT(*), MAX(id), MAX(updated_at)").
		Where("episode_id = ?", episodeID).
		Row().
		Scan(&count, &maxID, &updatedAt); err != nil {
		return "", fmt.Errorf("failed to read episode version: %w", err)
	}
	return fmt.Sprintf("%d-%d-%s", count, maxID.Int64, updatedAt.String), nil
}

type exerciseStat struct {
	ExerciseID     uint
	CorrectCount   int64
	ResponsesCount int64
}

// GetCreatorSummaries returns every exercise of the episode with response aggregates
func (e *ExercisePostgreSQL) GetCreatorSummaries(ctx context.Context, tx *gorm.DB, episodeID uint) ([]*repositories.ExerciseSummary, error) {
	exercises, err := e.GetByEpisode(ctx, tx, episodeID)
	if err != nil {
		return nil, err
	}
	if len(exercises) == 0 {
		return []*repositories.ExerciseSummary{}, nil
	}

	ids := make([]uint, len(exercises))
	for i, exercise := range exercises {
		ids[i] = exercise.ID
	}

	db := e.getDB(tx)
	var stats []exerciseStat
	if err := db.WithContext(ctx).
		Model(&models.ExerciseResponse{}).
		Select("exercise_id, COALESCE(SUM(score), 0) AS correct_count, COUNT(*) AS responses_count").
		Where("exercise_id IN ?", ids).
		Group("exercise_id").
		Scan(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate responses: %w", err)
	}

	byExercise := make(map[uint]exerciseStat, len(stats))
	for _, s := range stats {
		byExercise[s.ExerciseID] = s
	}

	summaries := make([]*repositories.ExerciseSummary, len(exercises))
	for i, exercise := range exercises {
		s := byExercise[exercise.ID]
		summaries[i] = &repositories.ExerciseSummary{
			Exercise:       exercise,
			CorrectCount:   s.CorrectCount,
			ResponsesCount: s.ResponsesCount,
		}
	}
	return summaries, nil
}

func (e *ExercisePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	return resolveDB(e.db, tx)
}
