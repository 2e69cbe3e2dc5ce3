package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/exercise-service/internal/models"
	"github.com/SAP-F-2025/exercise-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

const exportSheetName = "Exercises"

var exportHeaders = []string{
	"ID", "Type", "Question", "Correct Answers", "Incorrect Choices",
	"Start (s)", "Duration (s)", "Responses", "Correct", "Correct Rate",
}

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
	ops    *ServiceLogger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	ops := NewServiceLogger(logger, "export")
	return &exportService{
		repo:   repo,
		logger: ops.Logger(),
		ops:    ops,
	}
}

// ExportEpisodeExercises renders the creator listing of an episode as an xlsx workbook.
func (s *exportService) ExportEpisodeExercises(ctx context.Context, episodeID, creatorID uint) (data []byte, err error) {
	defer s.ops.Track(ctx, "export_exercises", creatorID, episodeID, "episode")(&err)

	if err := checkEpisodeOwner(ctx, s.repo, episodeID, creatorID); err != nil {
		return nil, err
	}

	summaries, err := s.repo.Exercise().GetCreatorSummaries(ctx, nil, episodeID)
	if err != nil {
		return nil, wrapExerciseLoadError("failed to load exercise summaries", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	if err := writeRow(f, 1, toCells(exportHeaders)); err != nil {
		return nil, err
	}
	for i, summary := range summaries {
		if err := writeRow(f, i+2, exportRow(summary)); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exercises exported", "episode_id", episodeID, "rows", len(summaries))
	return buf.Bytes(), nil
}

func exportRow(summary *repositories.ExerciseSummary) []interface{} {
	exercise := summary.Exercise
	content := exercise.Body()

	var correct, incorrect []string
	switch content.Type {
	case models.MultipleChoice:
		correct = []string{content.MultipleChoice.CorrectChoice}
		incorrect = content.MultipleChoice.IncorrectChoices
	case models.SelectMultiple:
		correct = content.SelectMultiple.CorrectChoices
		incorrect = content.SelectMultiple.IncorrectChoices
	case models.FreeResponse:
		correct = []string{content.FreeResponse.Response}
	}

	var rate interface{} = ""
	if summary.ResponsesCount > 0 {
		rate = float64(summary.CorrectCount) / float64(summary.ResponsesCount)
	}

	return []interface{}{
		exercise.ID,
		string(content.Type),
		content.Question(),
		strings.Join(correct, "\n"),
		strings.Join(incorrect, "\n"),
		optionalFloat(exercise.Start),
		optionalFloat(exercise.Duration),
		summary.ResponsesCount,
		summary.CorrectCount,
		rate,
	}
}

func writeRow(f *excelize.File, row int, values []interface{}) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(exportSheetName, cell, value); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func optionalFloat(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
