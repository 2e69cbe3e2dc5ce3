package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/SAP-F-2025/exercise-service/internal/models"
	"github.com/SAP-F-2025/exercise-service/internal/services"
	"github.com/SAP-F-2025/exercise-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExerciseHandler struct {
	BaseHandler
	exerciseService services.ExerciseService
	gradingService  services.GradingService
	exportService   services.ExportService
}

func NewExerciseHandler(
	exerciseService services.ExerciseService,
	gradingService services.GradingService,
	exportService services.ExportService,
	logger utils.Logger,
) *ExerciseHandler {
	return &ExerciseHandler{
		BaseHandler:     NewBaseHandler(logger),
		exerciseService: exerciseService,
		gradingService:  gradingService,
		exportService:   exportService,
	}
}

// SyncExercises replaces the exercise set of an episode
// @Router /exercises [post]
func (h *ExerciseHandler) SyncExercises(c *gin.Context) {
	var req services.SyncExercisesRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID, _ := currentUserID(c)
	h.LogRequest(c, "Syncing exercises", "episode_id", req.EpisodeID, "count", len(req.Exercises))

	result, err := h.exerciseService.SyncExercises(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListEpisodeExercises lists the exercises of an episode as the caller sees them
// @Router /exercises [get]
func (h *ExerciseHandler) ListEpisodeExercises(c *gin.Context) {
	episodeID := parseIDQuery(c, "episodeId")
	if episodeID == 0 {
		return
	}

	views, err := h.exerciseService.GetExercisesForEpisode(c.Request.Context(), episodeID, optionalUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

// GetExercise returns a single exercise as the caller sees it
// @Router /exercises/{id} [get]
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	exerciseID := parseIDParam(c, "id")
	if exerciseID == 0 {
		return
	}

	view, err := h.exerciseService.GetExercise(c.Request.Context(), exerciseID, optionalUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// RecordResponse grades and stores the caller's answer
// @Router /exercises/{id}/responses [post]
func (h *ExerciseHandler) RecordResponse(c *gin.Context) {
	exerciseID := parseIDParam(c, "id")
	if exerciseID == 0 {
		return
	}

	var req services.RecordResponseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID, _ := currentUserID(c)
	h.LogRequest(c, "Recording exercise response", "exercise_id", exerciseID, "type", req.Type)

	result, err := h.gradingService.RecordResponse(c.Request.Context(), &req, exerciseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListExerciseResponses shows every stored answer to the exercise's creator
// @Router /exercises/{id}/responses [get]
func (h *ExerciseHandler) ListExerciseResponses(c *gin.Context) {
	exerciseID := parseIDParam(c, "id")
	if exerciseID == 0 {
		return
	}

	userID, _ := currentUserID(c)
	reviews, err := h.exerciseService.ListExerciseResponses(c.Request.Context(), exerciseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, reviews)
}

// ListCreatorExercises lists authored exercises with response counts
// @Router /creators/exercises [get]
func (h *ExerciseHandler) ListCreatorExercises(c *gin.Context) {
	episodeID := parseIDQuery(c, "episodeId")
	if episodeID == 0 {
		return
	}

	userID, _ := currentUserID(c)
	views, err := h.exerciseService.GetCreatorEpisodeExercises(c.Request.Context(), episodeID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

// ExportCreatorExercises downloads the creator listing as a spreadsheet
// @Router /creators/exercises/export [get]
func (h *ExerciseHandler) ExportCreatorExercises(c *gin.Context) {
	episodeID := parseIDQuery(c, "episodeId")
	if episodeID == 0 {
		return
	}

	userID, _ := currentUserID(c)
	data, err := h.exportService.ExportEpisodeExercises(c.Request.Context(), episodeID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="episode-%d-exercises.xlsx"`, episodeID))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// GetExerciseTimeline lists the anchored exercises of an episode
// @Router /episodes/{id}/exercise-timeline [get]
func (h *ExerciseHandler) GetExerciseTimeline(c *gin.Context) {
	episodeID := parseIDParam(c, "id")
	if episodeID == 0 {
		return
	}

	timeline, err := h.exerciseService.GetExerciseTimeline(c.Request.Context(), episodeID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, timeline)
}

// ===== HELPERS =====

func (h *ExerciseHandler) bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		if errors.Is(err, models.ErrUnknownExerciseType) {
			h.RespondWithError(c, http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed", err, err.Error())
			return false
		}
		h.RespondWithError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "Invalid request payload", err, err.Error())
		return false
	}
	return true
}

func (h *ExerciseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.RespondWithError(c, http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed", err, validationErrors)
		return
	}

	if services.IsTypeMismatch(err) {
		var rule *services.BusinessRuleError
		var details interface{}
		if errors.As(err, &rule) {
			details = rule.Context
		}
		h.RespondWithError(c, http.StatusBadRequest, "TYPE_MISMATCH", "Response type does not match the exercise", err, details)
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		h.RespondWithError(c, http.StatusUnprocessableEntity, "BUSINESS_RULE", businessRuleError.Message, err, map[string]interface{}{
			"rule":    businessRuleError.Rule,
			"context": businessRuleError.Context,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		h.RespondWithError(c, http.StatusForbidden, "FORBIDDEN", "Access denied", err, map[string]interface{}{
			"resource": permissionError.Resource,
			"action":   permissionError.Action,
			"reason":   permissionError.Reason,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrExerciseContentCorrupt):
		h.RespondWithError(c, http.StatusInternalServerError, "EXERCISE_CONTENT_CORRUPT", "Stored exercise content is invalid", err)
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed", err, err.Error())
	case errors.Is(err, services.ErrExerciseNotFound), errors.Is(err, services.ErrExerciseNotInEpisode):
		h.RespondWithError(c, http.StatusNotFound, "EXERCISE_NOT_FOUND", "Exercise not found", err, err.Error())
	case errors.Is(err, services.ErrEpisodeNotFound):
		h.RespondWithError(c, http.StatusNotFound, "EPISODE_NOT_FOUND", "Episode not found", err)
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, "NOT_FOUND", "Resource not found", err)
	case services.IsUnauthorized(err):
		h.RespondWithError(c, http.StatusForbidden, "FORBIDDEN", "Access denied", err)
	case services.IsExternalFailure(err):
		h.RespondWithError(c, http.StatusBadGateway, "GRADER_UNAVAILABLE", "Free response grading failed", err)
	case errors.Is(err, context.Canceled):
		h.RespondWithError(c, 499, "CANCELED", "Request canceled", err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", err)
	}
}
