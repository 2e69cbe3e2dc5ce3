package config

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/SAP-F-2025/exercise-service/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("GRADER_TIMEOUT", "5s")
	t.Setenv("GRADER_RESILIENCE", "true")
	t.Setenv("EVENTS_ENABLED", "false")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, 5*time.Second, cfg.Grader.Timeout)
	assert.True(t, cfg.Grader.Resilience)
	assert.False(t, cfg.Events.Enabled)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Events.GetKafkaBrokers())
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CACHE_TTL", "not-a-duration")
	t.Setenv("GRADER_RESILIENCE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	// Grader failures go straight back to the caller unless retries are opted into.
	assert.False(t, cfg.Grader.Resilience)
	assert.Equal(t, "exercise-events", cfg.Events.ExerciseTopic)
}

func TestCreateEventPublisher_FallsBackToMock(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, cfg := range []EventConfig{
		{Enabled: false, Publisher: "kafka"},
		{Enabled: true, Publisher: "mock"},
		{Enabled: true, Publisher: "carrier-pigeon"},
	} {
		publisher, err := cfg.CreateEventPublisher(logger)
		require.NoError(t, err)
		assert.IsType(t, &events.MockEventPublisher{}, publisher)
	}
}
