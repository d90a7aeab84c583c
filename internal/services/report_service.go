package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
)

const (
	exposureSheet = "Exposures"
	topicSheet    = "Topics"
)

// ReportService renders session results as downloadable files
type ReportService interface {
	ExportSessionXLSX(ctx context.Context, sessionID string) ([]byte, error)
}

type reportService struct {
	sessions SessionService
	logger   *slog.Logger
}

func NewReportService(sessions SessionService, logger *slog.Logger) ReportService {
	return &reportService{
		sessions: sessions,
		logger:   logger,
	}
}

func (s *reportService) ExportSessionXLSX(ctx context.Context, sessionID string) ([]byte, error) {
	view, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	summary, err := s.sessions.GetSummary(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet rather than leaving an empty one behind
	if err := f.SetSheetName("Sheet1", exposureSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := writeExposureSheet(f, view.Session.Exposures); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(topicSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := writeTopicSheet(f, summary); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported session report",
		"session_id", sessionID,
		"exposures", len(view.Session.Exposures),
		"bytes", buf.Len())
	return buf.Bytes(), nil
}

func writeExposureSheet(f *excelize.File, exposures []models.ExposureRecord) error {
	headers := []interface{}{
		"Sequence", "Item ID", "Topic", "Difficulty", "Correct", "Score", "Max Score",
		"Ability Before", "Ability After", "Response Time (s)", "Answered At",
	}
	if err := f.SetSheetRow(exposureSheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, e := range exposures {
		row := []interface{}{
			e.Sequence, e.ItemID, e.Topic, e.Difficulty, e.IsCorrect, e.Score, e.MaxScore,
			e.AbilityBefore, e.AbilityAfter, e.ResponseTimeSeconds, e.AnsweredAt.Format("2006-01-02 15:04:05"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exposureSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write exposure row: %w", err)
		}
	}
	return nil
}

func writeTopicSheet(f *excelize.File, summary *SessionSummary) error {
	headers := []interface{}{"Topic", "Exposures", "Correct", "Score", "Max Score", "Accuracy (%)", "Ability", "Variance"}
	if err := f.SetSheetRow(topicSheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, t := range summary.Topics {
		row := []interface{}{t.Topic, t.Exposures, t.Correct, t.Score, t.MaxScore, t.Accuracy, t.Ability, t.Variance}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(topicSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write topic row: %w", err)
		}
	}

	// Totals below the breakdown
	totalRow := len(summary.Topics) + 3
	totals := []interface{}{"Total", summary.ExposureCount, summary.CorrectCount, summary.TotalScore, summary.MaxScore,
		summary.Accuracy, summary.FinalAbility, string(summary.ProficiencyLevel)}
	cell, err := excelize.CoordinatesToCellName(1, totalRow)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(topicSheet, cell, &totals); err != nil {
		return fmt.Errorf("failed to write totals: %w", err)
	}
	return nil
}
