package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/SAP-F-2025/exercise-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportEpisodeExercises(t *testing.T) {
	env := newTestEnv(t)
	seedExercise(t, env.db, 7, episodeID, models.NewMultipleChoice("Pick", "A", "B", "C"), floatPtr(12))
	seedExercise(t, env.db, 8, episodeID, models.NewFreeResponse("Why?", "Because"), nil)
	require.NoError(t, env.db.Create(&models.ExerciseResponse{
		UserID: learnerID, ExerciseID: 7, Response: []byte(`1`), Score: 1,
	}).Error)

	data, err := env.services.Export().ExportEpisodeExercises(context.Background(), episodeID, creatorID)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeaders, rows[0])

	assert.Equal(t, "7", rows[1][0])
	assert.Equal(t, "multiple-choice", rows[1][1])
	assert.Equal(t, "Pick", rows[1][2])
	assert.Equal(t, "A", rows[1][3])
	assert.Equal(t, "B\nC", rows[1][4])
	assert.Equal(t, "12", rows[1][5])
	assert.Equal(t, "1", rows[1][7])

	assert.Equal(t, "free-response", rows[2][1])
	assert.Equal(t, "Because", rows[2][3])
}

func TestExportEpisodeExercises_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Export().ExportEpisodeExercises(context.Background(), episodeID, learnerID)
	assert.True(t, IsUnauthorized(err))
}
