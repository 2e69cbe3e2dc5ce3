package services

import (
	"encoding/json"

	"github.com/SAP-F-2025/exercise-service/internal/models"
	"github.com/SAP-F-2025/exercise-service/internal/permutation"
	"github.com/SAP-F-2025/exercise-service/internal/repositories"
)

// displayOrder is the permutation an exercise's choices are shown in.
func displayOrder(exercise *models.Exercise) []int {
	return permutation.Positions(int64(exercise.ID), exercise.Body().ChoiceCount())
}

// PresentExercise builds the learner view of an exercise. Choice exercises
// show their choices shuffled; the answer key and the model answer are dropped.
// latest is the reader's most recent submission and may be nil.
func PresentExercise(exercise *models.Exercise, latest *models.ExerciseResponse) *ExerciseView {
	content := exercise.Body()

	view := &ExerciseView{
		ID:        exercise.ID,
		EpisodeID: exercise.EpisodeID,
		Type:      content.Type,
		Question:  content.Question(),
		Start:     exercise.Start,
		Duration:  exercise.Duration,
		CreatedAt: exercise.CreatedAt,
		UpdatedAt: exercise.UpdatedAt,
	}

	if content.HasChoices() {
		view.Choices = permutation.Apply(displayOrder(exercise), content.CanonicalChoices())
	}

	if latest != nil {
		score := latest.Score
		respondedAt := latest.CreatedAt
		view.Response = rawOrNull(latest.Response)
		view.Score = &score
		view.Feedback = rawOrNull(latest.Feedback)
		view.RespondedAt = &respondedAt
	}

	return view
}

// PresentCreatorExercise returns the authored exercise with its aggregates.
func PresentCreatorExercise(summary *repositories.ExerciseSummary) *CreatorExerciseView {
	exercise := summary.Exercise
	return &CreatorExerciseView{
		ID:             exercise.ID,
		EpisodeID:      exercise.EpisodeID,
		Content:        exercise.Body(),
		Start:          exercise.Start,
		Duration:       exercise.Duration,
		CorrectCount:   summary.CorrectCount,
		ResponsesCount: summary.ResponsesCount,
		CreatedAt:      exercise.CreatedAt,
		UpdatedAt:      exercise.UpdatedAt,
	}
}

// PresentResponseReview maps a stored submission back to the authored
// choice order. Indices that no longer exist after an edit become -1.
func PresentResponseReview(exercise *models.Exercise, response *repositories.ResponseWithUser) *ExerciseResponseReview {
	review := &ExerciseResponseReview{
		ID:         response.ID,
		UserID:     response.UserID,
		UserName:   response.UserName,
		UserAvatar: response.UserAvatar,
		Response:   rawOrNull(response.Response),
		Score:      response.Score,
		Feedback:   rawOrNull(response.Feedback),
		CreatedAt:  response.CreatedAt,
	}

	if exercise.Body().HasChoices() {
		perm := displayOrder(exercise)
		review.Response = toCanonical(perm, review.Response)
		review.Feedback = toCanonical(perm, review.Feedback)
	}

	return review
}

// toCanonical rewrites a display index or index list. Anything else,
// including null and text, is returned untouched.
func toCanonical(perm []int, raw json.RawMessage) json.RawMessage {
	canonical := func(display int) int {
		if index, ok := permutation.Canonical(perm, display); ok {
			return index
		}
		return -1
	}

	if len(raw) == 0 || string(raw) == "null" {
		return raw
	}

	var single int
	if err := json.Unmarshal(raw, &single); err == nil {
		out, _ := json.Marshal(canonical(single))
		return out
	}

	var many []int
	if err := json.Unmarshal(raw, &many); err == nil && many != nil {
		mapped := make([]int, len(many))
		for i, display := range many {
			mapped[i] = canonical(display)
		}
		out, _ := json.Marshal(mapped)
		return out
	}

	return raw
}

func rawOrNull(data []byte) json.RawMessage {
	if len(data) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(data)
}
