package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/exercise-service/internal/models"
	"github.com/SAP-F-2025/exercise-service/internal/repositories"
	"gorm.io/gorm"
)

type ExerciseResponsePostgreSQL struct {
	db *gorm.DB
}

func NewExerciseResponsePostgreSQL(db *gorm.DB) repositories.ExerciseResponseRepository {
	return &ExerciseResponsePostgreSQL{db: db}
}

func (r *ExerciseResponsePostgreSQL) Create(ctx context.Context, tx *gorm.DB, response *models.ExerciseResponse) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(response).Error; err != nil {
		return fmt.Errorf("failed to create exercise response: %w", err)
	}
	return nil
}

func (r *ExerciseResponsePostgreSQL) DeleteByExerciseIDs(ctx context.Context, tx *gorm.DB, exerciseIDs []uint) error {
	if len(exerciseIDs) == 0 {
		return nil
	}
	db := r.getDB(tx)
	return db.WithContext(ctx).
		Where("exercise_id IN ?", exerciseIDs).
		Delete(&models.ExerciseResponse{}).Error
}

func (r *ExerciseResponsePostgreSQL) GetLatestByUser(ctx context.Context, tx *gorm.DB, userID, exerciseID uint) (*models.ExerciseResponse, error) {
	db := r.getDB(tx)
	var response models.ExerciseResponse
	err := db.WithContext(ctx).
		Where("user_id = ? AND exercise_id = ?", userID, exerciseID).
		Order("created_at DESC, id DESC").
		Take(&response).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// GetLatestByUserForExercises keeps the most recent response per exercise
func (r *ExerciseResponsePostgreSQL) GetLatestByUserForExercises(ctx context.Context, tx *gorm.DB, userID uint, exerciseIDs []uint) (map[uint]*models.ExerciseResponse, error) {
	latest := make(map[uint]*models.ExerciseResponse)
	if len(exerciseIDs) == 0 {
		return latest, nil
	}

	db := r.getDB(tx)
	var responses []*models.ExerciseResponse
	if err := db.WithContext(ctx).
		Where("user_id = ? AND exercise_id IN ?", userID, exerciseIDs).
		Order("created_at DESC, id DESC").
		Find(&responses).Error; err != nil {
		return nil, err
	}

	for _, response := range responses {
		if _, seen := latest[response.ExerciseID]; !seen {
			latest[response.ExerciseID] = response
		}
	}
	return latest, nil
}

func (r *ExerciseResponsePostgreSQL) GetByExerciseWithUsers(ctx context.Context, tx *gorm.DB, exerciseID uint) ([]*repositories.ResponseWithUser, error) {
	db := r.getDB(tx)
	var rows []*repositories.ResponseWithUser
	if err := db.WithContext(ctx).
		Table("exercise_responses").
		Select("exercise_responses.*, users.name AS user_name, users.avatar AS user_avatar").
		Joins("LEFT JOIN users ON users.id = exercise_responses.user_id").
		Where("exercise_responses.exercise_id = ?", exerciseID).
		Order("exercise_responses.created_at DESC, exercise_responses.id DESC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ExerciseResponsePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	return resolveDB(r.db, tx)
}
