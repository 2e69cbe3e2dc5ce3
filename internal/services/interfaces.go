package services

import (
	"context"

	"github.com/SAP-F-2025/exercise-service/internal/models"
	"github.com/SAP-F-2025/exercise-service/internal/repositories"
)

// ServiceManager exposes every service to the transport layer.
type ServiceManager interface {
	Exercise() ExerciseService
	Grading() GradingService
	Export() ExportService
}

// ExerciseService owns authoring and reading of episode exercises.
// A nil userID means an anonymous reader.
type ExerciseService interface {
	// Authoring
	SyncExercises(ctx context.Context, req *SyncExercisesRequest, creatorID uint) (*SyncExercisesResult, error)

	// Learner views
	GetExercisesForEpisode(ctx context.Context, episodeID uint, userID *uint) ([]*ExerciseView, error)
	GetExercise(ctx context.Context, exerciseID uint, userID *uint) (*ExerciseView, error)

	// Creator views
	GetCreatorEpisodeExercises(ctx context.Context, episodeID, creatorID uint) ([]*CreatorExerciseView, error)
	ListExerciseResponses(ctx context.Context, exerciseID, creatorID uint) ([]*ExerciseResponseReview, error)

	// Timeline
	GetExerciseTimeline(ctx context.Context, episodeID uint) ([]*repositories.ExerciseTiming, error)
}

// GradingService scores learner submissions.
type GradingService interface {
	RecordResponse(ctx context.Context, req *RecordResponseRequest, exerciseID, userID uint) (*models.GradeResult, error)
}

// ExportService renders creator data as spreadsheets.
type ExportService interface {
	ExportEpisodeExercises(ctx context.Context, episodeID, creatorID uint) ([]byte, error)
}
