package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/crimewise/crimewise-backend/internal/config"
	"github.com/crimewise/crimewise-backend/internal/model"
	"github.com/crimewise/crimewise-backend/internal/repository"
	"github.com/crimewise/crimewise-backend/internal/scoring"
)

var (
	// ErrExamNotDraft is returned when a structural edit targets an exam
	// that already left DRAFT.
	ErrExamNotDraft = errors.New("exam is no longer a draft")
	// ErrExamNotPublished is returned when a student operation targets an
	// exam that is not open.
	ErrExamNotPublished = errors.New("exam is not published")
)

// paperCacheTTL bounds how long a published paper may live in Redis
// without a refresh. Publishing and prewarm both reset it.
const paperCacheTTL = 24 * time.Hour

// ExamService handles the exam lifecycle and the Redis-cached exam paper.
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// Get retrieves an exam.
func (s *ExamService) Get(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// ListByCourse retrieves a course's exams.
func (s *ExamService) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Exam, error) {
	return s.examRepo.ListByCourse(ctx, courseID)
}

// ListForStudent retrieves the published exams a student may sit.
func (s *ExamService) ListForStudent(ctx context.Context, studentID int) ([]model.Exam, error) {
	return s.examRepo.ListPublishedForStudent(ctx, studentID)
}

// Create inserts a DRAFT exam after checking the question belongs to the
// same course.
func (s *ExamService) Create(ctx context.Context, req model.CreateExamRequest) (*model.Exam, error) {
	q, err := s.questionRepo.GetByID(ctx, req.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	if q.CourseID != req.CourseID {
		return nil, fmt.Errorf("question %s does not belong to course %s", req.QuestionID, req.CourseID)
	}

	e := &model.Exam{
		CourseID:        req.CourseID,
		QuestionID:      req.QuestionID,
		Title:           req.Title,
		DurationMinutes: req.DurationMinutes,
	}
	if err := s.examRepo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}
	return e, nil
}

// Update edits an exam. Status transitions run through the cache: moving
// to PUBLISHED warms the paper, leaving PUBLISHED evicts it.
func (s *ExamService) Update(ctx context.Context, id uuid.UUID, req model.UpdateExamRequest) (*model.Exam, error) {
	e, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}

	if req.Title != "" {
		e.Title = req.Title
	}
	if req.DurationMinutes > 0 {
		e.DurationMinutes = req.DurationMinutes
	}
	prevStatus := e.Status
	if req.Status != "" {
		e.Status = model.ExamStatus(req.Status)
	}

	if err := s.examRepo.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("update exam: %w", err)
	}

	switch {
	case e.Status == model.ExamStatusPublished:
		if err := s.warmPaperCache(ctx, e); err != nil {
			s.log.Error().Err(err).Str("exam_id", e.ID.String()).Msg("Failed to warm exam paper cache")
		}
	case prevStatus == model.ExamStatusPublished:
		s.evictPaperCache(ctx, e.ID)
	}

	return e, nil
}

// Delete removes a DRAFT exam. Published or closed exams keep their
// submission history and must stay.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID) error {
	e, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if e.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}
	return s.examRepo.Delete(ctx, id)
}

// Paper returns the student-facing exam paper, served from Redis when
// warm and rebuilt from the database on a miss.
func (s *ExamService) Paper(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.ExamPaperKey(examID.String())).Result()
	if err == nil {
		var paper model.ExamPaper
		if err := json.Unmarshal([]byte(raw), &paper); err == nil {
			return &paper, nil
		}
		s.log.Warn().Str("exam_id", examID.String()).Msg("Corrupt cached exam paper, rebuilding")
	}

	e, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if e.Status != model.ExamStatusPublished {
		return nil, ErrExamNotPublished
	}

	paper, err := s.buildPaper(ctx, e)
	if err != nil {
		return nil, err
	}
	if err := s.warmPaperCache(ctx, e); err != nil {
		s.log.Error().Err(err).Str("exam_id", examID.String()).Msg("Failed to rewarm exam paper cache")
	}
	return paper, nil
}

// Duration returns the exam duration in minutes, preferring the Redis
// cache over a database round trip.
func (s *ExamService) Duration(ctx context.Context, examID uuid.UUID) (int, error) {
	minutes, err := s.rdb.Get(ctx, config.CacheKey.ExamDurationKey(examID.String())).Int()
	if err == nil && minutes > 0 {
		return minutes, nil
	}

	e, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return 0, err
	}
	return e.DurationMinutes, nil
}

// PrewarmAllCaches loads every published exam paper into Redis. Run at
// startup so the first students in never pay the build cost.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) {
	exams, err := s.examRepo.ListPublished(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list published exams for prewarm")
		return
	}
	warmed := 0
	for i := range exams {
		if err := s.warmPaperCache(ctx, &exams[i]); err != nil {
			s.log.Error().Err(err).Str("exam_id", exams[i].ID.String()).Msg("Failed to prewarm exam paper")
			continue
		}
		warmed++
	}
	s.log.Info().Int("warmed", warmed).Int("total", len(exams)).Msg("Exam paper caches prewarmed")
}

func (s *ExamService) buildPaper(ctx context.Context, e *model.Exam) (*model.ExamPaper, error) {
	q, err := s.questionRepo.GetByID(ctx, e.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}

	stripped := model.QuestionForStudent{
		ID:     q.ID,
		Type:   q.Type,
		Text:   q.Text,
		Images: q.Images,
	}
	if q.Type == model.QuestionTypeForensic {
		// Forensic papers ship the table shape so the client can render
		// the comparison grid, never the reference values themselves.
		if key, ok := scoring.DecodeForensicKey(q.AnswerKey); ok && len(key.Specimens) > 0 {
			stripped.Columns = key.Specimens[0].Columns()
			stripped.Rows = len(key.Specimens)
		}
	}

	return &model.ExamPaper{
		ExamID:   e.ID,
		Title:    e.Title,
		Duration: e.DurationMinutes,
		Question: stripped,
	}, nil
}

func (s *ExamService) warmPaperCache(ctx context.Context, e *model.Exam) error {
	paper, err := s.buildPaper(ctx, e)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.ExamPaperKey(e.ID.String()), payload, paperCacheTTL)
	pipe.Set(ctx, config.CacheKey.ExamDurationKey(e.ID.String()), e.DurationMinutes, paperCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache paper: %w", err)
	}
	return nil
}

func (s *ExamService) evictPaperCache(ctx context.Context, examID uuid.UUID) {
	err := s.rdb.Del(ctx,
		config.CacheKey.ExamPaperKey(examID.String()),
		config.CacheKey.ExamDurationKey(examID.String()),
	).Err()
	if err != nil {
		s.log.Error().Err(err).Str("exam_id", examID.String()).Msg("Failed to evict exam paper cache")
	}
}
