package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/SAP-F-2025/exercise-service/internal/models"
)

// ===== REQUEST TYPES =====

// SyncExercisesRequest replaces the whole exercise set of an episode.
type SyncExercisesRequest struct {
	EpisodeID uint            `json:"episode_id" validate:"required"`
	Exercises []ExerciseInput `json:"exercises" validate:"dive"`
}

// ExerciseInput is one authored exercise. Without ID it is created,
// with ID the stored exercise is overwritten.
//
// On the wire the content fields sit next to id, start and duration:
//
//	{"id":7,"start":12.5,"type":"multiple-choice","question":"...","correctChoice":"...","incorrectChoices":["..."]}
type ExerciseInput struct {
	ID       *uint                  `json:"id,omitempty"`
	Start    *float64               `json:"start,omitempty" validate:"omitempty,gte=0"`
	Duration *float64               `json:"duration,omitempty" validate:"omitempty,gte=0"`
	Content  models.ExerciseContent `json:"content"`
}

type exerciseInputMeta struct {
	ID       *uint    `json:"id"`
	Start    *float64 `json:"start"`
	Duration *float64 `json:"duration"`
}

func (in *ExerciseInput) UnmarshalJSON(data []byte) error {
	var meta exerciseInputMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return err
	}
	var content models.ExerciseContent
	if err := json.Unmarshal(data, &content); err != nil {
		return err
	}
	*in = ExerciseInput{
		ID:       meta.ID,
		Start:    meta.Start,
		Duration: meta.Duration,
		Content:  content,
	}
	return nil
}

func (in ExerciseInput) MarshalJSON() ([]byte, error) {
	return mergeContent(in.Content, map[string]interface{}{
		"id":       in.ID,
		"start":    in.Start,
		"duration": in.Duration,
	})
}

// RecordResponseRequest is a learner submission. Response is validated
// against Type by models.ParseResponse.
type RecordResponseRequest struct {
	Type     models.ExerciseType `json:"type" validate:"required,exercise_type"`
	Response json.RawMessage     `json:"response" validate:"required"`
}

// ===== RESPONSE TYPES =====

type SyncExercisesResult struct {
	EpisodeID  uint   `json:"episode_id"`
	CreatedIDs []uint `json:"created_ids"`
	UpdatedIDs []uint `json:"updated_ids"`
	DeletedIDs []uint `json:"deleted_ids"`
}

// ExerciseView is what a learner sees. Choices are in display order and
// the answer key is never included.
type ExerciseView struct {
	ID        uint                `json:"id"`
	EpisodeID uint                `json:"episode_id"`
	Type      models.ExerciseType `json:"type"`
	Question  string              `json:"question"`
	Choices   []string            `json:"choices,omitempty"`
	Start     *float64            `json:"start"`
	Duration  *float64            `json:"duration"`

	// Latest submission of the reader, null when there is none
	Response    json.RawMessage `json:"response"`
	Score       *int            `json:"score"`
	Feedback    json.RawMessage `json:"feedback"`
	RespondedAt *time.Time      `json:"responded_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreatorExerciseView is the full authored exercise with response aggregates.
// Content is flattened so the creator can send it back unchanged.
type CreatorExerciseView struct {
	ID             uint
	EpisodeID      uint
	Content        models.ExerciseContent
	Start          *float64
	Duration       *float64
	CorrectCount   int64
	ResponsesCount int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (v CreatorExerciseView) MarshalJSON() ([]byte, error) {
	return mergeContent(v.Content, map[string]interface{}{
		"id":              v.ID,
		"episode_id":      v.EpisodeID,
		"start":           v.Start,
		"duration":        v.Duration,
		"correct_count":   v.CorrectCount,
		"responses_count": v.ResponsesCount,
		"created_at":      v.CreatedAt,
		"updated_at":      v.UpdatedAt,
	})
}

// ExerciseResponseReview is a stored submission shown to the creator, with
// choice indices mapped back to the authored order.
type ExerciseResponseReview struct {
	ID         uint            `json:"id"`
	UserID     uint            `json:"user_id"`
	UserName   *string         `json:"user_name"`
	UserAvatar *string         `json:"user_avatar"`
	Response   json.RawMessage `json:"response"`
	Score      int             `json:"score"`
	Feedback   json.RawMessage `json:"feedback"`
	CreatedAt  time.Time       `json:"created_at"`
}

// mergeContent writes content keys and extra keys into one object.
// Nil pointers in extra become JSON null.
func mergeContent(content models.ExerciseContent, extra map[string]interface{}) ([]byte, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to flatten content: %w", err)
	}
	for key, value := range extra {
		b, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		fields[key] = b
	}
	return json.Marshal(fields)
}
