package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/exercise-service/internal/services"
	"github.com/SAP-F-2025/exercise-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	exerciseHandler *ExerciseHandler
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		exerciseHandler: NewExerciseHandler(
			serviceManager.Exercise(),
			serviceManager.Grading(),
			serviceManager.Export(),
			logger,
		),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(Identity())
	{
		exercises := v1.Group("/exercises")
		{
			exercises.POST("", RequireUser(), hm.exerciseHandler.SyncExercises)
			exercises.GET("", hm.exerciseHandler.ListEpisodeExercises)
			exercises.GET("/:id", hm.exerciseHandler.GetExercise)
			exercises.POST("/:id/responses", RequireUser(), hm.exerciseHandler.RecordResponse)
			exercises.GET("/:id/responses", RequireUser(), hm.exerciseHandler.ListExerciseResponses)
		}

		// Creator-specific routes
		creators := v1.Group("/creators", RequireUser())
		{
			creators.GET("/exercises", hm.exerciseHandler.ListCreatorExercises)
			creators.GET("/exercises/export", hm.exerciseHandler.ExportCreatorExercises)
		}

		// Consumed by the episode timeline
		v1.GET("/episodes/:id/exercise-timeline", hm.exerciseHandler.GetExerciseTimeline)
	}
}

// HealthCheck reports liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "exercise-service",
	})
}
