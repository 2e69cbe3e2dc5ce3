package postgres

import (
	"context"

	"github.com/SAP-F-2025/exercise-service/internal/models"
	"github.com/SAP-F-2025/exercise-service/internal/repositories"
	"gorm.io/gorm"
)

type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{db: db}
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	db := u.getDB(tx)
	var user models.User
	if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetLanguagePreferences(ctx context.Context, tx *gorm.DB, userID uint) (*models.LanguagePreferences, error) {
	db := u.getDB(tx)
	var user models.User
	if err := db.WithContext(ctx).
		Select("id", "learning_language_id", "language_variant", "level").
		First(&user, userID).Error; err != nil {
		return nil, err
	}

	return &models.LanguagePreferences{
		LanguageID: user.LearningLanguageID,
		Variant:    user.LanguageVariant,
		Level:      user.Level,
	}, nil
}

func (u *UserPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	return resolveDB(u.db, tx)
}
