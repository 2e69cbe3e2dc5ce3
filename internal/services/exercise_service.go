package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exercise-service/internal/cache"
	"github.com/SAP-F-2025/exercise-service/internal/events"
	"github.com/SAP-F-2025/exercise-service/internal/models"
	"github.com/SAP-F-2025/exercise-service/internal/repositories"
	"github.com/SAP-F-2025/exercise-service/internal/validator"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type exerciseService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	cacheTTL  time.Duration
	publisher events.EventPublisher
	logger    *slog.Logger
	ops       *ServiceLogger
	validator *validator.Validator
}

func NewExerciseService(
	repo repositories.Repository,
	cacheService cache.CacheService,
	cacheTTL time.Duration,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) ExerciseService {
	ops := NewServiceLogger(logger, "exercise")
	return &exerciseService{
		repo:      repo,
		cache:     cacheService,
		cacheTTL:  cacheTTL,
		publisher: publisher,
		logger:    ops.Logger(),
		ops:       ops,
		validator: validator,
	}
}

// ===== AUTHORING =====

// SyncExercises reconciles the stored exercise set of an episode with the
// submitted one in a single transaction. Stored exercises missing from the
// input are deleted along with their responses.
func (s *exerciseService) SyncExercises(ctx context.Context, req *SyncExercisesRequest, creatorID uint) (result *SyncExercisesResult, err error) {
	defer s.ops.Track(ctx, "sync_exercises", creatorID, req.EpisodeID, "episode")(&err)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if err := s.checkEpisodeOwner(ctx, req.EpisodeID, creatorID); err != nil {
		return nil, err
	}

	result = &SyncExercisesResult{
		EpisodeID:  req.EpisodeID,
		CreatedIDs: []uint{},
		UpdatedIDs: []uint{},
		DeletedIDs: []uint{},
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		existingIDs, err := s.repo.Exercise().GetIDsByEpisode(ctx, tx, req.EpisodeID)
		if err != nil {
			return fmt.Errorf("failed to load episode exercises: %w", err)
		}
		existing := make(map[uint]struct{}, len(existingIDs))
		for _, id := range existingIDs {
			existing[id] = struct{}{}
		}

		var toCreate, toUpdate []*models.Exercise
		keep := make(map[uint]struct{}, len(req.Exercises))
		for i, input := range req.Exercises {
			exercise := &models.Exercise{
				EpisodeID: req.EpisodeID,
				Content:   datatypes.NewJSONType(input.Content),
				Start:     input.Start,
				Duration:  input.Duration,
			}

			if input.ID == nil {
				toCreate = append(toCreate, exercise)
				continue
			}

			id := *input.ID
			if _, ok := existing[id]; !ok {
				return fmt.Errorf("%w: exercise %d, episode %d", ErrExerciseNotInEpisode, id, req.EpisodeID)
			}
			if _, dup := keep[id]; dup {
				return ValidationErrors{
					*NewValidationErrorWithRule(fmt.Sprintf("exercises[%d].id", i), "exercise id is listed more than once", "unique", id),
				}
			}
			keep[id] = struct{}{}
			exercise.ID = id
			toUpdate = append(toUpdate, exercise)
		}

		var toDelete []uint
		for _, id := range existingIDs {
			if _, ok := keep[id]; !ok {
				toDelete = append(toDelete, id)
			}
		}

		if len(toDelete) > 0 {
			if err := s.repo.ExerciseResponse().DeleteByExerciseIDs(ctx, tx, toDelete); err != nil {
				return fmt.Errorf("failed to delete exercise responses: %w", err)
			}
			if err := s.repo.Exercise().DeleteByIDs(ctx, tx, req.EpisodeID, toDelete); err != nil {
				return fmt.Errorf("failed to delete exercises: %w", err)
			}
			result.DeletedIDs = toDelete
		}

		if err := s.repo.Exercise().CreateBatch(ctx, tx, toCreate); err != nil {
			return err
		}
		for _, exercise := range toCreate {
			result.CreatedIDs = append(result.CreatedIDs, exercise.ID)
		}

		for _, exercise := range toUpdate {
			if err := s.repo.Exercise().UpdateContent(ctx, tx, exercise); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: exercise %d", ErrExerciseNotFound, exercise.ID)
				}
				return err
			}
			result.UpdatedIDs = append(result.UpdatedIDs, exercise.ID)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateEpisode(ctx, req.EpisodeID)
	s.publish(ctx, events.NewExerciseEvent(events.EventExerciseSetSynced, events.ExerciseSetSyncedEvent{
		EpisodeID:  req.EpisodeID,
		CreatorID:  creatorID,
		CreatedIDs: result.CreatedIDs,
		UpdatedIDs: result.UpdatedIDs,
		DeletedIDs: result.DeletedIDs,
	}))

	s.logger.Info("Exercises synced",
		"episode_id", req.EpisodeID,
		"created", len(result.CreatedIDs),
		"updated", len(result.UpdatedIDs),
		"deleted", len(result.DeletedIDs))

	return result, nil
}

// ===== LEARNER VIEWS =====

func (s *exerciseService) GetExercisesForEpisode(ctx context.Context, episodeID uint, userID *uint) ([]*ExerciseView, error) {
	exercises, err := s.loadEpisodeExercises(ctx, episodeID)
	if err != nil {
		return nil, err
	}

	latest := map[uint]*models.ExerciseResponse{}
	if userID != nil && len(exercises) > 0 {
		ids := make([]uint, len(exercises))
		for i, exercise := range exercises {
			ids[i] = exercise.ID
		}
		latest, err = s.repo.ExerciseResponse().GetLatestByUserForExercises(ctx, nil, *userID, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load responses: %w", err)
		}
	}

	views := make([]*ExerciseView, len(exercises))
	for i, exercise := range exercises {
		views[i] = PresentExercise(exercise, latest[exercise.ID])
	}
	return views, nil
}

func (s *exerciseService) GetExercise(ctx context.Context, exerciseID uint, userID *uint) (*ExerciseView, error) {
	exercise, err := s.getExercise(ctx, nil, exerciseID)
	if err != nil {
		return nil, err
	}

	var latest *models.ExerciseResponse
	if userID != nil {
		latest, err = s.repo.ExerciseResponse().GetLatestByUser(ctx, nil, *userID, exerciseID)
		if err != nil {
			return nil, fmt.Errorf("failed to load response: %w", err)
		}
	}

	return PresentExercise(exercise, latest), nil
}

// ===== CREATOR VIEWS =====

func (s *exerciseService) GetCreatorEpisodeExercises(ctx context.Context, episodeID, creatorID uint) (views []*CreatorExerciseView, err error) {
	defer s.ops.Track(ctx, "get_creator_exercises", creatorID, episodeID, "episode")(&err)

	if err := s.checkEpisodeOwner(ctx, episodeID, creatorID); err != nil {
		return nil, err
	}

	summaries, err := s.repo.Exercise().GetCreatorSummaries(ctx, nil, episodeID)
	if err != nil {
		return nil, wrapExerciseLoadError("failed to load exercise summaries", err)
	}

	views = make([]*CreatorExerciseView, len(summaries))
	for i, summary := range summaries {
		views[i] = PresentCreatorExercise(summary)
	}
	return views, nil
}

func (s *exerciseService) ListExerciseResponses(ctx context.Context, exerciseID, creatorID uint) (reviews []*ExerciseResponseReview, err error) {
	defer s.ops.Track(ctx, "list_exercise_responses", creatorID, exerciseID, "exercise")(&err)

	exercise, err := s.getExercise(ctx, nil, exerciseID)
	if err != nil {
		return nil, err
	}

	if err := s.checkEpisodeOwner(ctx, exercise.EpisodeID, creatorID); err != nil {
		return nil, err
	}

	responses, err := s.repo.ExerciseResponse().GetByExerciseWithUsers(ctx, nil, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}

	reviews = make([]*ExerciseResponseReview, len(responses))
	for i, response := range responses {
		reviews[i] = PresentResponseReview(exercise, response)
	}
	return reviews, nil
}

// ===== TIMELINE =====

func (s *exerciseService) GetExerciseTimeline(ctx context.Context, episodeID uint) ([]*repositories.ExerciseTiming, error) {
	timings, err := s.repo.Exercise().GetTimeline(ctx, nil, episodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load exercise timeline: %w", err)
	}
	if timings == nil {
		timings = []*repositories.ExerciseTiming{}
	}
	return timings, nil
}

// ===== HELPERS =====

func (s *exerciseService) getExercise(ctx context.Context, tx *gorm.DB, exerciseID uint) (*models.Exercise, error) {
	exercise, err := s.repo.Exercise().GetByID(ctx, tx, exerciseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrExerciseNotFound
	}
	if err != nil {
		return nil, wrapExerciseLoadError("failed to get exercise", err)
	}
	return exercise, nil
}

func (s *exerciseService) checkEpisodeOwner(ctx context.Context, episodeID, userID uint) error {
	return checkEpisodeOwner(ctx, s.repo, episodeID, userID)
}

// checkEpisodeOwner allows only the uploader of the episode's podcast.
func checkEpisodeOwner(ctx context.Context, repo repositories.Repository, episodeID, userID uint) error {
	exists, err := repo.Episode().Exists(ctx, nil, episodeID)
	if err != nil {
		return fmt.Errorf("failed to check episode: %w", err)
	}
	if !exists {
		return ErrEpisodeNotFound
	}

	isCreator, err := repo.Episode().IsCreator(ctx, nil, episodeID, userID)
	if err != nil {
		return fmt.Errorf("failed to check episode ownership: %w", err)
	}
	if !isCreator {
		return NewPermissionError(userID, episodeID, "episode", "manage_exercises", "not the podcast owner")
	}
	return nil
}

// loadEpisodeExercises reads through the cache under the episode's current
// version. Cache failures only degrade to the database.
func (s *exerciseService) loadEpisodeExercises(ctx context.Context, episodeID uint) ([]*models.Exercise, error) {
	key := ""
	if s.cache != nil {
		version, err := s.repo.Exercise().GetEpisodeVersion(ctx, nil, episodeID)
		if err != nil {
			s.logger.Warn("Failed to read episode version, bypassing cache", "episode_id", episodeID, "error", err)
		} else {
			key = cache.EpisodeExercisesKey(episodeID, version)
		}
	}

	if key != "" {
		var cached []*models.Exercise
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Failed to read exercise cache", "key", key, "error", err)
		}
	}

	exercises, err := s.repo.Exercise().GetByEpisode(ctx, nil, episodeID)
	if err != nil {
		return nil, wrapExerciseLoadError("failed to load episode exercises", err)
	}

	if key != "" {
		if err := s.cache.Set(ctx, key, exercises, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to write exercise cache", "key", key, "error", err)
		}
	}
	return exercises, nil
}

// invalidateEpisode drops every cached version of the episode. Readers
// already key by the new version, so this only frees memory early.
func (s *exerciseService) invalidateEpisode(ctx context.Context, episodeID uint) {
	if s.cache == nil {
		return
	}
	pattern := cache.EpisodeExercisesPattern(episodeID)
	if err := s.cache.DeletePattern(ctx, pattern); err != nil {
		s.logger.Warn("Failed to invalidate exercise cache", "pattern", pattern, "error", err)
	}
}

// wrapExerciseLoadError tags content that no longer decodes so it surfaces
// as corrupt data rather than a generic database failure.
func wrapExerciseLoadError(msg string, err error) error {
	if models.IsContentDecodeError(err) {
		return fmt.Errorf("%s: %w: %w", msg, ErrExerciseContentCorrupt, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func (s *exerciseService) publish(ctx context.Context, event *events.ExerciseEvent) {
	publishEvent(ctx, s.publisher, s.logger, event)
}

// publishEvent is best effort; a failed publish never fails the operation.
func publishEvent(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, event *events.ExerciseEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Error("Failed to publish event", "event_type", event.Type, "event_id", event.ID, "error", err)
	}
}
