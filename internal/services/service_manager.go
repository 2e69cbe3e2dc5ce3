package services

import (
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exercise-service/internal/cache"
	"github.com/SAP-F-2025/exercise-service/internal/events"
	"github.com/SAP-F-2025/exercise-service/internal/grader"
	"github.com/SAP-F-2025/exercise-service/internal/repositories"
	"github.com/SAP-F-2025/exercise-service/internal/validator"
)

// Dependencies are the collaborators shared by all services.
type Dependencies struct {
	Repo         repositories.Repository
	Cache        cache.CacheService
	CacheTTL     time.Duration
	Publisher    events.EventPublisher
	Grader       grader.FreeResponseGrader
	GradeTimeout time.Duration
	Logger       *slog.Logger
	Validator    *validator.Validator
}

type serviceManager struct {
	exercise ExerciseService
	grading  GradingService
	export   ExportService
}

func NewServiceManager(deps Dependencies) ServiceManager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}

	return &serviceManager{
		exercise: NewExerciseService(deps.Repo, deps.Cache, deps.CacheTTL, deps.Publisher, deps.Logger, deps.Validator),
		grading:  NewGradingService(deps.Repo, deps.Grader, deps.GradeTimeout, deps.Publisher, deps.Logger, deps.Validator),
		export:   NewExportService(deps.Repo, deps.Logger),
	}
}

func (m *serviceManager) Exercise() ExerciseService {
	return m.exercise
}

func (m *serviceManager) Grading() GradingService {
	return m.grading
}

func (m *serviceManager) Export() ExportService {
	return m.export
}
