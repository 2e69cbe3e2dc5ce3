package postgres

import (
	"context"

	"github.com/SAP-F-2025/exercise-service/internal/repositories"
	"gorm.io/gorm"
)

type Repository struct {
	db               *gorm.DB
	exercise         repositories.ExerciseRepository
	exerciseResponse repositories.ExerciseResponseRepository
	episode          repositories.EpisodeRepository
	user             repositories.UserRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &Repository{
		db:               db,
		exercise:         NewExercisePostgreSQL(db),
		exerciseResponse: NewExerciseResponsePostgreSQL(db),
		episode:          NewEpisodePostgreSQL(db),
		user:             NewUserPostgreSQL(db),
	}
}

func (r *Repository) Exercise() repositories.ExerciseRepository {
	return r.exercise
}

func (r *Repository) ExerciseResponse() repositories.ExerciseResponseRepository {
	return r.exerciseResponse
}

func (r *Repository) Episode() repositories.EpisodeRepository {
	return r.episode
}

func (r *Repository) User() repositories.UserRepository {
	return r.user
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func resolveDB(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
