package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/SAP-F-2025/exercise-service/internal/events"
	"github.com/SAP-F-2025/exercise-service/internal/grader"
	"github.com/SAP-F-2025/exercise-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func submit(typ models.ExerciseType, response string) *RecordResponseRequest {
	return &RecordResponseRequest{Type: typ, Response: json.RawMessage(response)}
}

// Episode 42 holds exercise 7 with choices A..D. Its display order is
// [2,0,1,3], so the learner sees C, A, B, D and the correct answer sits at 1.
func TestRecordResponse_Episode42Scenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedExercise(t, env.db, 7, episodeID, models.NewMultipleChoice("Pick the first letter", "A", "B", "C", "D"), nil)

	viewer := learnerID
	views, err := env.services.Exercise().GetExercisesForEpisode(ctx, episodeID, &viewer)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, []string{"C", "A", "B", "D"}, views[0].Choices)

	result, err := env.services.Grading().RecordResponse(ctx, submit(models.MultipleChoice, `1`), 7, learnerID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Score)
	assert.True(t, result.IsCorrect())
	assert.JSONEq(t, `null`, string(result.Feedback))

	result, err = env.services.Grading().RecordResponse(ctx, submit(models.MultipleChoice, `0`), 7, learnerID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
	assert.JSONEq(t, `1`, string(result.Feedback))

	view, err := env.services.Exercise().GetExercise(ctx, 7, &viewer)
	require.NoError(t, err)
	require.NotNil(t, view.Score)
	assert.Equal(t, 0, *view.Score)
	assert.JSONEq(t, `0`, string(view.Response))
	assert.JSONEq(t, `1`, string(view.Feedback))
	assert.NotNil(t, view.RespondedAt)

	assert.Equal(t, int64(2), countRows(t, env.db, &models.ExerciseResponse{}, "exercise_id = ? AND user_id = ?", 7, learnerID))
}

// Bare numeric answers must come back from every read path.
func TestRecordResponse_ChoiceAnswersReadBackEverywhere(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedExercise(t, env.db, 7, episodeID, models.NewMultipleChoice("Q", "A", "B", "C", "D"), nil)

	_, err := env.services.Grading().RecordResponse(ctx, submit(models.MultipleChoice, `0`), 7, learnerID)
	require.NoError(t, err)

	var storage struct {
		ResponseType string
		FeedbackType string
	}
	require.NoError(t, env.db.Raw("SELECT typeof(response) AS response_type, typeof(feedback) AS feedback_type FROM exercise_responses").Scan(&storage).Error)
	assert.Equal(t, "text", storage.ResponseType)
	assert.Equal(t, "text", storage.FeedbackType)

	viewer := learnerID
	views, err := env.services.Exercise().GetExercisesForEpisode(ctx, episodeID, &viewer)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.JSONEq(t, `0`, string(views[0].Response))

	view, err := env.services.Exercise().GetExercise(ctx, 7, &viewer)
	require.NoError(t, err)
	assert.JSONEq(t, `1`, string(view.Feedback))

	reviews, err := env.services.Exercise().ListExerciseResponses(ctx, 7, creatorID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.JSONEq(t, `2`, string(reviews[0].Response))
	assert.JSONEq(t, `0`, string(reviews[0].Feedback))
}

// Exercise 9 has correct A, B and incorrect C, D, E. Display order is
// [1,2,4,3,0], so A is shown at 4 and B at 0.
func TestRecordResponse_SelectMultipleRequiresExactSet(t *testing.T) {
	env := newTestEnv(t)
	seedExercise(t, env.db, 9, episodeID, models.NewSelectMultiple("Vowels?", []string{"A", "B"}, []string{"C", "D", "E"}), nil)

	tests := []struct {
		name     string
		response string
		score    int
		feedback string
	}{
		{name: "exact set", response: `[0,4]`, score: 1, feedback: `null`},
		{name: "exact set any order", response: `[4,0]`, score: 1, feedback: `null`},
		{name: "missing one", response: `[4]`, score: 0, feedback: `[4,0]`},
		{name: "extra incorrect", response: `[0,4,1]`, score: 0, feedback: `[4,0]`},
		{name: "wrong pair", response: `[0,1]`, score: 0, feedback: `[4,0]`},
		{name: "empty", response: `[]`, score: 0, feedback: `[4,0]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := env.services.Grading().RecordResponse(context.Background(), submit(models.SelectMultiple, tt.response), 9, learnerID)
			require.NoError(t, err)
			assert.Equal(t, tt.score, result.Score)
			assert.JSONEq(t, tt.feedback, string(result.Feedback))
		})
	}
}

func TestRecordResponse_Rejections(t *testing.T) {
	env := newTestEnv(t)
	seedExercise(t, env.db, 7, episodeID, models.NewMultipleChoice("Q", "A", "B", "C", "D"), nil)
	seedExercise(t, env.db, 9, episodeID, models.NewSelectMultiple("Q", []string{"A"}, []string{"B"}), nil)
	svc := env.services.Grading()
	ctx := context.Background()

	t.Run("type mismatch", func(t *testing.T) {
		_, err := svc.RecordResponse(ctx, submit(models.SelectMultiple, `[1]`), 7, learnerID)
		assert.True(t, IsTypeMismatch(err))
	})

	t.Run("choice out of range", func(t *testing.T) {
		_, err := svc.RecordResponse(ctx, submit(models.MultipleChoice, `4`), 7, learnerID)
		assert.True(t, IsValidation(err))
		assert.True(t, errors.Is(err, ErrInvalidResponse))
	})

	t.Run("select multiple out of range", func(t *testing.T) {
		_, err := svc.RecordResponse(ctx, submit(models.SelectMultiple, `[0,2]`), 9, learnerID)
		assert.True(t, IsValidation(err))
	})

	t.Run("malformed response", func(t *testing.T) {
		_, err := svc.RecordResponse(ctx, submit(models.MultipleChoice, `"1"`), 7, learnerID)
		var ve ValidationErrors
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := svc.RecordResponse(ctx, submit(models.ExerciseType("essay"), `1`), 7, learnerID)
		assert.True(t, IsValidation(err))
	})

	t.Run("unknown exercise", func(t *testing.T) {
		_, err := svc.RecordResponse(ctx, submit(models.MultipleChoice, `0`), 404, learnerID)
		assert.True(t, errors.Is(err, ErrExerciseNotFound))
	})

	assert.Zero(t, countRows(t, env.db, &models.ExerciseResponse{}, "user_id = ?", learnerID))
}

func TestRecordResponse_FreeResponseUsesGrader(t *testing.T) {
	env := newTestEnv(t)
	seedExercise(t, env.db, 8, episodeID, models.NewFreeResponse("¿Por qué?", "Porque sí"), nil)

	env.grader.On("Grade", mock.Anything, mock.MatchedBy(func(req *grader.Request) bool {
		return req.Question == "¿Por qué?" &&
			req.ModelAnswer == "Porque sí" &&
			req.Response == "porque" &&
			req.Language == "Spanish" &&
			req.Level == "advanced"
	})).Return(&grader.Verdict{IsCorrect: true, Feedback: "¡Bien!"}, nil).Once()

	result, err := env.services.Grading().RecordResponse(context.Background(), submit(models.FreeResponse, `"porque"`), 8, learnerID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Score)
	assert.JSONEq(t, `"¡Bien!"`, string(result.Feedback))
	env.grader.AssertExpectations(t)

	published := env.publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventExerciseResponseGraded, published[0].Type)
	data, ok := published[0].Data.(events.ResponseGradedEvent)
	require.True(t, ok)
	assert.Equal(t, uint(8), data.ExerciseID)
	assert.Equal(t, episodeID, data.EpisodeID)
	assert.Equal(t, 1, data.Score)
}

func TestRecordResponse_GraderFailureStoresNothing(t *testing.T) {
	env := newTestEnv(t)
	seedExercise(t, env.db, 8, episodeID, models.NewFreeResponse("Q", "R"), nil)

	env.grader.On("Grade", mock.Anything, mock.Anything).Return(nil, grader.ErrMalformedVerdict).Once()

	_, err := env.services.Grading().RecordResponse(context.Background(), submit(models.FreeResponse, `"answer"`), 8, learnerID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFreeResponseGrading))
	assert.True(t, IsExternalFailure(err))
	assert.Zero(t, countRows(t, env.db, &models.ExerciseResponse{}, "exercise_id = ?", 8))
	assert.Empty(t, env.publisher.GetPublishedEvents())
}

func TestRecordResponse_FreeResponseWithoutPreferences(t *testing.T) {
	env := newTestEnv(t)
	seedExercise(t, env.db, 8, episodeID, models.NewFreeResponse("Q", "R"), nil)

	env.grader.On("Grade", mock.Anything, mock.MatchedBy(func(req *grader.Request) bool {
		return req.Language == "Spanish" && req.Level == "beginner"
	})).Return(&grader.Verdict{IsCorrect: false, Feedback: "Casi"}, nil).Once()

	// User 999 has no account row.
	result, err := env.services.Grading().RecordResponse(context.Background(), submit(models.FreeResponse, `"x"`), 8, 999)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
	assert.JSONEq(t, `"Casi"`, string(result.Feedback))
}

func TestSelectGradingContext(t *testing.T) {
	spanish := uint(1)
	mandarin := models.MandarinLanguageID

	tests := []struct {
		name      string
		episode   models.EpisodeLanguage
		prefs     *models.LanguagePreferences
		wantLang  string
		wantLevel string
	}{
		{
			name:      "learner level offered",
			episode:   models.EpisodeLanguage{LanguageID: spanish, LanguageName: "Spanish", Levels: []string{"beginner", "advanced"}},
			prefs:     &models.LanguagePreferences{LanguageID: &spanish, Level: strPtr("advanced")},
			wantLang:  "Spanish",
			wantLevel: "advanced",
		},
		{
			name:      "learner level not offered",
			episode:   models.EpisodeLanguage{LanguageID: spanish, LanguageName: "Spanish", Levels: []string{"beginner", "intermediate"}},
			prefs:     &models.LanguagePreferences{LanguageID: &spanish, Level: strPtr("advanced")},
			wantLang:  "Spanish",
			wantLevel: "beginner",
		},
		{
			name:      "learner studies another language",
			episode:   models.EpisodeLanguage{LanguageID: spanish, LanguageName: "Spanish", Levels: []string{"beginner", "advanced"}},
			prefs:     &models.LanguagePreferences{LanguageID: &mandarin, Level: strPtr("advanced")},
			wantLang:  "Spanish",
			wantLevel: "beginner",
		},
		{
			name:      "mandarin with script variant",
			episode:   models.EpisodeLanguage{LanguageID: mandarin, LanguageName: "Mandarin", Levels: []string{"intermediate"}},
			prefs:     &models.LanguagePreferences{LanguageID: &mandarin, Variant: strPtr("simplified"), Level: strPtr("intermediate")},
			wantLang:  "mandarin chinese (simplified writing)",
			wantLevel: "intermediate",
		},
		{
			name:      "no preferences",
			episode:   models.EpisodeLanguage{LanguageID: mandarin, LanguageName: "Mandarin"},
			wantLang:  "Mandarin",
			wantLevel: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lang, level := SelectGradingContext(&tt.episode, tt.prefs)
			assert.Equal(t, tt.wantLang, lang)
			assert.Equal(t, tt.wantLevel, level)
		})
	}
}
