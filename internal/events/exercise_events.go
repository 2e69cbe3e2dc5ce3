package events

import (
	"time"

	"github.com/SAP-F-2025/exercise-service/internal/models"
	"github.com/ThreeDotsLabs/watermill"
)

// EventType represents the kinds of exercise events
type EventType string

const (
	EventExerciseSetSynced      EventType = "exercise.set_synced"
	EventExerciseResponseGraded EventType = "exercise.response_graded"
)

const (
	eventSource  = "exercise-service"
	eventVersion = "1.0"
)

// ExerciseEvent is the envelope published for every exercise event
type ExerciseEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewExerciseEvent wraps data in an envelope with a fresh id and timestamp
func NewExerciseEvent(eventType EventType, data interface{}) *ExerciseEvent {
	return &ExerciseEvent{
		ID:        watermill.NewUUID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

// ExerciseSetSyncedEvent is published after an episode's exercise set was reconciled
type ExerciseSetSyncedEvent struct {
	EpisodeID  uint   `json:"episode_id"`
	CreatorID  uint   `json:"creator_id"`
	CreatedIDs []uint `json:"created_ids"`
	UpdatedIDs []uint `json:"updated_ids"`
	DeletedIDs []uint `json:"deleted_ids"`
}

// ResponseGradedEvent is published after a learner response was scored and stored
type ResponseGradedEvent struct {
	ResponseID   uint                `json:"response_id"`
	ExerciseID   uint                `json:"exercise_id"`
	EpisodeID    uint                `json:"episode_id"`
	UserID       uint                `json:"user_id"`
	ExerciseType models.ExerciseType `json:"exercise_type"`
	Score        int                 `json:"score"`
	GradedAt     time.Time           `json:"graded_at"`
}
