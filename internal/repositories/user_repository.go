package repositories

import (
	"context"

	"github.com/SAP-F-2025/exercise-service/internal/models"
	"gorm.io/gorm"
)

// UserRepository interface for user operations (read-only, the identity service owns users)
type UserRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetLanguagePreferences(ctx context.Context, tx *gorm.DB, userID uint) (*models.LanguagePreferences, error)
}
