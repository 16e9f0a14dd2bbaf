package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/crimewise/crimewise-backend/internal/model"
	"github.com/crimewise/crimewise-backend/internal/repository"
)

// exportPageSize caps a single export at one repository page. Exam
// cohorts are class-sized, so one page covers them.
const exportPageSize = 10000

// ResultsService serves instructor-facing result listings and exports.
type ResultsService struct {
	subRepo *repository.SubmissionRepository
	exams   *ExamService
	log     zerolog.Logger
}

// NewResultsService creates a new ResultsService.
func NewResultsService(
	subRepo *repository.SubmissionRepository,
	exams *ExamService,
	log zerolog.Logger,
) *ResultsService {
	return &ResultsService{
		subRepo: subRepo,
		exams:   exams,
		log:     log.With().Str("component", "results_service").Logger(),
	}
}

// ListByExam retrieves a page of an exam's submissions with student
// identity attached.
func (s *ResultsService) ListByExam(ctx context.Context, examID uuid.UUID, page, perPage int) ([]model.SubmissionReview, int64, error) {
	return s.subRepo.ListByExam(ctx, examID, page, perPage)
}

// ExportExcel renders an exam's results as an .xlsx workbook.
func (s *ResultsService) ExportExcel(ctx context.Context, examID uuid.UUID) ([]byte, string, error) {
	exam, err := s.exams.Get(ctx, examID)
	if err != nil {
		return nil, "", fmt.Errorf("get exam: %w", err)
	}
	reviews, _, err := s.subRepo.ListByExam(ctx, examID, 1, exportPageSize)
	if err != nil {
		return nil, "", fmt.Errorf("list submissions: %w", err)
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	headers := []string{"reg_number", "student_name", "score", "tab_switches", "submitted_at"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for i, rv := range reviews {
		row := i + 2
		values := []any{
			rv.RegNumber,
			rv.StudentName,
			rv.Score,
			rv.TabSwitches,
			rv.SubmittedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	_ = f.SetColWidth(sheet, "A", "E", 22)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("write excel: %w", err)
	}

	filename := fmt.Sprintf("results_%s_%s.xlsx", sanitizeFilename(exam.Title), examID)
	return buf.Bytes(), filename, nil
}

// sanitizeFilename keeps only characters safe for a download filename.
func sanitizeFilename(title string) string {
	out := make([]rune, 0, len(title))
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		case r == ' ', r == '-', r == '_':
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "exam"
	}
	return string(out)
}
