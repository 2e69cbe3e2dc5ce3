package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exercise-service/internal/events"
	"github.com/SAP-F-2025/exercise-service/internal/grader"
	"github.com/SAP-F-2025/exercise-service/internal/models"
	"github.com/SAP-F-2025/exercise-service/internal/permutation"
	"github.com/SAP-F-2025/exercise-service/internal/repositories"
	"github.com/SAP-F-2025/exercise-service/internal/validator"
	"gorm.io/gorm"
)

type gradingService struct {
	repo         repositories.Repository
	grader       grader.FreeResponseGrader
	gradeTimeout time.Duration
	publisher    events.EventPublisher
	logger       *slog.Logger
	ops          *ServiceLogger
	validator    *validator.Validator
}

func NewGradingService(
	repo repositories.Repository,
	freeResponseGrader grader.FreeResponseGrader,
	gradeTimeout time.Duration,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) GradingService {
	ops := NewServiceLogger(logger, "grading")
	return &gradingService{
		repo:         repo,
		grader:       freeResponseGrader,
		gradeTimeout: gradeTimeout,
		publisher:    publisher,
		logger:       ops.Logger(),
		ops:          ops,
		validator:    validator,
	}
}

// RecordResponse scores a submission and stores it. Choice answers are given
// in display order and checked against the permutation derived from the id.
func (s *gradingService) RecordResponse(ctx context.Context, req *RecordResponseRequest, exerciseID, userID uint) (result *models.GradeResult, err error) {
	defer s.ops.Track(ctx, "record_response", userID, exerciseID, "exercise")(&err)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	response, err := models.ParseResponse(req.Type, req.Response)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	exercise, err := s.repo.Exercise().GetByID(ctx, nil, exerciseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrExerciseNotFound
	}
	if err != nil {
		return nil, wrapExerciseLoadError("failed to get exercise", err)
	}

	content := exercise.Body()
	if response.Type != content.Type {
		return nil, NewBusinessRuleError("response_type",
			fmt.Sprintf("exercise %d is %s but the response is %s", exercise.ID, content.Type, response.Type),
			map[string]interface{}{
				"exercise_type": content.Type,
				"response_type": response.Type,
			})
	}

	score, feedback, err := s.grade(ctx, exercise, response, userID)
	if err != nil {
		return nil, err
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	feedbackJSON, err := models.FeedbackJSON(feedback)
	if err != nil {
		return nil, fmt.Errorf("failed to encode feedback: %w", err)
	}

	row := &models.ExerciseResponse{
		UserID:     userID,
		ExerciseID: exercise.ID,
		Response:   models.RawJSON(responseJSON),
		Score:      score,
		Feedback:   feedbackJSON,
	}

	// The exercise may have been removed by a sync while the grader was running.
	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		exists, err := s.repo.Exercise().Exists(ctx, tx, exercise.ID)
		if err != nil {
			return fmt.Errorf("failed to check exercise: %w", err)
		}
		if !exists {
			return ErrExerciseNotFound
		}
		return s.repo.ExerciseResponse().Create(ctx, tx, row)
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.logger, events.NewExerciseEvent(events.EventExerciseResponseGraded, events.ResponseGradedEvent{
		ResponseID:   row.ID,
		ExerciseID:   exercise.ID,
		EpisodeID:    exercise.EpisodeID,
		UserID:       userID,
		ExerciseType: content.Type,
		Score:        score,
		GradedAt:     row.CreatedAt,
	}))

	return &models.GradeResult{
		Score:    score,
		Feedback: rawOrNull(feedbackJSON),
	}, nil
}

func (s *gradingService) grade(ctx context.Context, exercise *models.Exercise, response models.ResponseValue, userID uint) (int, interface{}, error) {
	content := exercise.Body()

	switch content.Type {
	case models.MultipleChoice:
		return GradeMultipleChoice(exercise, response.Choice)
	case models.SelectMultiple:
		return GradeSelectMultiple(exercise, response.Choices)
	case models.FreeResponse:
		return s.gradeFreeResponse(ctx, exercise, response.Text, userID)
	}

	return 0, nil, fmt.Errorf("%w: %q", models.ErrUnknownExerciseType, content.Type)
}

// GradeMultipleChoice scores a display index. A wrong answer gets the
// display index of the correct choice as feedback.
func GradeMultipleChoice(exercise *models.Exercise, choice int) (int, interface{}, error) {
	perm := displayOrder(exercise)
	if choice < 0 || choice >= len(perm) {
		return 0, nil, choiceOutOfRange(choice, len(perm))
	}

	correct := permutation.IndexOf(perm, 0)
	if choice == correct {
		return 1, nil, nil
	}
	return 0, correct, nil
}

// GradeSelectMultiple scores a set of display indices. Only the exact set of
// correct choices scores; otherwise feedback lists where every correct
// choice is displayed, in authored order.
func GradeSelectMultiple(exercise *models.Exercise, choices []int) (int, interface{}, error) {
	perm := displayOrder(exercise)
	correctCount := exercise.Body().CorrectCount()

	allCorrect := len(choices) == correctCount
	for _, choice := range choices {
		canonical, ok := permutation.Canonical(perm, choice)
		if !ok {
			return 0, nil, choiceOutOfRange(choice, len(perm))
		}
		if canonical >= correctCount {
			allCorrect = false
		}
	}
	if allCorrect {
		return 1, nil, nil
	}

	feedback := make([]int, correctCount)
	for i := range feedback {
		feedback[i] = permutation.IndexOf(perm, i)
	}
	return 0, feedback, nil
}

func (s *gradingService) gradeFreeResponse(ctx context.Context, exercise *models.Exercise, text string, userID uint) (int, interface{}, error) {
	if s.grader == nil {
		return 0, nil, fmt.Errorf("%w: no grader configured", ErrFreeResponseGrading)
	}

	language, level, err := s.gradingContext(ctx, exercise.EpisodeID, userID)
	if err != nil {
		return 0, nil, err
	}

	if s.gradeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.gradeTimeout)
		defer cancel()
	}

	body := exercise.Body().FreeResponse
	verdict, err := s.grader.Grade(ctx, &grader.Request{
		Question:    body.Question,
		ModelAnswer: body.Response,
		Response:    text,
		Language:    language,
		Level:       level,
	})
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrFreeResponseGrading, err)
	}

	score := 0
	if verdict.IsCorrect {
		score = 1
	}
	return score, verdict.Feedback, nil
}

func (s *gradingService) gradingContext(ctx context.Context, episodeID, userID uint) (string, string, error) {
	episodeLanguage, err := s.repo.Episode().GetLanguage(ctx, nil, episodeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", "", ErrEpisodeNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to load episode language: %w", err)
	}

	prefs, err := s.repo.User().GetLanguagePreferences(ctx, nil, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		prefs = nil
	} else if err != nil {
		return "", "", fmt.Errorf("failed to load language preferences: %w", err)
	}

	language, level := SelectGradingContext(episodeLanguage, prefs)
	return language, level, nil
}

// SelectGradingContext picks how the grader should describe the language and
// the level of the learner. The learner's own level is used only when they
// study the podcast's language and the podcast offers that level. prefs may be nil.
func SelectGradingContext(episode *models.EpisodeLanguage, prefs *models.LanguagePreferences) (language, level string) {
	language = episode.LanguageName
	if len(episode.Levels) > 0 {
		level = episode.Levels[0]
	}
	if prefs == nil {
		return language, level
	}

	studiesLanguage := prefs.LanguageID != nil && *prefs.LanguageID == episode.LanguageID
	if studiesLanguage && prefs.Level != nil {
		for _, offered := range episode.Levels {
			if offered == *prefs.Level {
				level = offered
				break
			}
		}
	}

	if episode.LanguageID == models.MandarinLanguageID && prefs.Variant != nil && *prefs.Variant != "" {
		language = fmt.Sprintf("mandarin chinese (%s writing)", *prefs.Variant)
	}
	return language, level
}

func choiceOutOfRange(choice, count int) error {
	return fmt.Errorf("%w: %w", ErrInvalidResponse, ValidationErrors{
		*NewValidationErrorWithRule("response",
			fmt.Sprintf("choice %d is out of range for %d choices", choice, count),
			"choice_range", choice),
	})
}
