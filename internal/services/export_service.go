package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/repositories"
)

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

var resultExportHeaders = []string{
	"Attempt ID", "Student ID", "Student Name", "Attempt #", "Status",
	"Started At", "Submitted At", "Score", "Max Score", "Percentage",
	"Result", "Pending Answers",
}

func (s *exportService) ExportQuizResultsXLSX(ctx context.Context, quizID uint, userID string) ([]byte, string, error) {
	quiz, rows, err := s.collectResults(ctx, quizID, userID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for i, header := range resultExportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, row := range rows {
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write xlsx file: %w", err)
	}

	s.logger.Info("Exported quiz results", "quiz_id", quizID, "format", "xlsx", "rows", len(rows))
	return buf.Bytes(), exportFilename(quiz, "xlsx"), nil
}

func (s *exportService) ExportQuizResultsCSV(ctx context.Context, quizID uint, userID string) ([]byte, string, error) {
	quiz, rows, err := s.collectResults(ctx, quizID, userID)
	if err != nil {
		return nil, "", err
	}

	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	if err := writer.Write(resultExportHeaders); err != nil {
		return nil, "", fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		record := make([]string, len(row))
		for i, value := range row {
			record[i] = fmt.Sprintf("%v", value)
		}
		if err := writer.Write(record); err != nil {
			return nil, "", fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", fmt.Errorf("csv writer error: %w", err)
	}

	s.logger.Info("Exported quiz results", "quiz_id", quizID, "format", "csv", "rows", len(rows))
	return []byte(buf.String()), exportFilename(quiz, "csv"), nil
}

// ===== INTERNALS =====

func (s *exportService) collectResults(ctx context.Context, quizID uint, userID string) (*models.Quiz, [][]interface{}, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrQuizNotFound
		}
		return nil, nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if err := s.checkExportPermission(ctx, quiz, userID); err != nil {
		return nil, nil, err
	}

	attempts, _, err := s.repo.Attempt().List(ctx, repositories.AttemptFilters{
		QuizID:    &quizID,
		SortBy:    "started_at",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	names := make(map[string]string)
	rows := make([][]interface{}, 0, len(attempts))
	for _, attempt := range attempts {
		name, ok := names[attempt.StudentID]
		if !ok {
			if user, err := s.repo.User().GetByID(ctx, attempt.StudentID); err == nil {
				name = user.FullName
			}
			names[attempt.StudentID] = name
		}

		submittedAt := ""
		if attempt.SubmittedAt != nil {
			submittedAt = attempt.SubmittedAt.Format("2006-01-02 15:04:05")
		}
		result := "Fail"
		if attempt.Passed {
			result = "Pass"
		}
		if attempt.PendingCount > 0 {
			result = "Pending"
		}

		rows = append(rows, []interface{}{
			attempt.PublicID,
			attempt.StudentID,
			name,
			attempt.AttemptNumber,
			string(attempt.Status),
			attempt.StartedAt.Format("2006-01-02 15:04:05"),
			submittedAt,
			attempt.Score,
			attempt.MaxScore,
			attempt.Percentage,
			result,
			attempt.PendingCount,
		})
	}

	return quiz, rows, nil
}

func (s *exportService) checkExportPermission(ctx context.Context, quiz *models.Quiz, userID string) error {
	if quiz.CreatedBy == userID {
		return nil
	}
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.Role != models.RoleAdmin {
		return NewPermissionError(userID, quiz.ID, "quiz", "export_results", "not owner or insufficient permissions")
	}
	return nil
}

func exportFilename(quiz *models.Quiz, ext string) string {
	return fmt.Sprintf("quiz_%d_results_%s.%s", quiz.ID, time.Now().Format("20060102"), ext)
}
