package services

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/SAP-F-2025/exercise-service/internal/cache"
	"github.com/SAP-F-2025/exercise-service/internal/events"
	"github.com/SAP-F-2025/exercise-service/internal/grader"
	"github.com/SAP-F-2025/exercise-service/internal/models"
	"github.com/SAP-F-2025/exercise-service/internal/repositories"
	"github.com/SAP-F-2025/exercise-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/exercise-service/internal/validator"
	"github.com/SAP-F-2025/exercise-service/pkg"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	creatorID         uint = 10
	otherCreatorID    uint = 11
	learnerID         uint = 20
	mandarinLearnerID uint = 21

	episodeID      uint = 42
	otherEpisodeID uint = 43
)

type mockGrader struct {
	mock.Mock
}

func (m *mockGrader) Grade(ctx context.Context, req *grader.Request) (*grader.Verdict, error) {
	args := m.Called(ctx, req)
	verdict, _ := args.Get(0).(*grader.Verdict)
	return verdict, args.Error(1)
}

type testEnv struct {
	db        *gorm.DB
	repo      repositories.Repository
	cache     cache.CacheService
	publisher *events.MockEventPublisher
	grader    *mockGrader
	services  ServiceManager
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Language{}, &models.User{}, &models.Podcast{}, &models.Episode{}))
	require.NoError(t, pkg.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	seedCatalog(t, db)

	env := &testEnv{
		db:        db,
		repo:      postgres.NewRepository(db),
		cache:     cache.NewMemoryCache(),
		publisher: events.NewMockEventPublisher(testLogger()),
		grader:    &mockGrader{},
	}
	env.services = NewServiceManager(Dependencies{
		Repo:         env.repo,
		Cache:        env.cache,
		CacheTTL:     time.Minute,
		Publisher:    env.publisher,
		Grader:       env.grader,
		GradeTimeout: 5 * time.Second,
		Logger:       testLogger(),
		Validator:    validator.New(),
	})
	return env
}

func strPtr(s string) *string { return &s }

func uintPtr(v uint) *uint { return &v }

func floatPtr(v float64) *float64 { return &v }

// seedCatalog creates a Spanish podcast owned by creatorID with episode 42,
// a Mandarin podcast owned by otherCreatorID with episode 43, and two learners.
func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()

	spanish := uint(1)
	require.NoError(t, db.Create(&[]models.Language{
		{ID: spanish, Name: "Spanish"},
		{ID: models.MandarinLanguageID, Name: "Mandarin"},
	}).Error)

	mandarin := models.MandarinLanguageID
	require.NoError(t, db.Create(&[]models.User{
		{ID: creatorID, Name: "Creator", Email: "creator@example.com"},
		{ID: otherCreatorID, Name: "Other Creator", Email: "other@example.com"},
		{ID: learnerID, Name: "Learner", Email: "learner@example.com", Avatar: strPtr("https://cdn.example.com/a.png"),
			LearningLanguageID: &spanish, Level: strPtr("advanced")},
		{ID: mandarinLearnerID, Name: "Mandarin Learner", Email: "zh@example.com",
			LearningLanguageID: &mandarin, LanguageVariant: strPtr("traditional"), Level: strPtr("beginner")},
	}).Error)

	require.NoError(t, db.Create(&[]models.Podcast{
		{ID: 1, Title: "Charlas", Levels: datatypes.JSON(`["beginner","advanced"]`), TargetLanguageID: spanish, UploadedByUserID: creatorID},
		{ID: 2, Title: "Hanzi", Levels: datatypes.JSON(`["intermediate"]`), TargetLanguageID: mandarin, UploadedByUserID: otherCreatorID},
	}).Error)

	require.NoError(t, db.Create(&[]models.Episode{
		{ID: episodeID, PodcastID: 1, Title: "Episodio 42"},
		{ID: otherEpisodeID, PodcastID: 2, Title: "Episode 43"},
	}).Error)
}

func seedExercise(t *testing.T, db *gorm.DB, id, episode uint, content models.ExerciseContent, start *float64) *models.Exercise {
	t.Helper()

	exercise := &models.Exercise{
		ID:        id,
		EpisodeID: episode,
		Content:   datatypes.NewJSONType(content),
		Start:     start,
	}
	require.NoError(t, db.Create(exercise).Error)
	return exercise
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&count).Error)
	return count
}
