package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/exercise-service/internal/models"
	"gorm.io/gorm"
)

// Repository groups the stores used by the exercise services. Every method
// takes an optional tx; nil means the default connection.
type Repository interface {
	Exercise() ExerciseRepository
	ExerciseResponse() ExerciseResponseRepository
	Episode() EpisodeRepository
	User() UserRepository

	// WithTransaction runs fn in a transaction, rolling back if it returns an error.
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ===== SHARED READ MODELS =====

// ExerciseTiming is what the embedded timeline needs to place an exercise.
type ExerciseTiming struct {
	ID        uint      `json:"id"`
	Start     float64   `json:"start"`
	Duration  *float64  `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
}

// ExerciseSummary is an exercise with aggregates over all stored responses.
type ExerciseSummary struct {
	Exercise       *models.Exercise `json:"exercise"`
	CorrectCount   int64            `json:"correct_count"`
	ResponsesCount int64            `json:"responses_count"`
}

// ResponseWithUser is a stored response joined with the responder's profile.
type ResponseWithUser struct {
	models.ExerciseResponse
	UserName   *string `json:"user_name"`
	UserAvatar *string `json:"user_avatar"`
}
