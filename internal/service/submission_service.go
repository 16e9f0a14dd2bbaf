package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/crimewise/crimewise-backend/internal/model"
	"github.com/crimewise/crimewise-backend/internal/repository"
	"github.com/crimewise/crimewise-backend/internal/scoring"
)

var (
	// ErrAlreadySubmitted is returned on a second submit for the same exam.
	ErrAlreadySubmitted = errors.New("exam already submitted")
	// ErrSubmissionNotFound is returned when no submission exists.
	ErrSubmissionNotFound = errors.New("submission not found")
)

const pgUniqueViolation = "23505"

// SubmissionService runs the submit path and serves graded reviews.
type SubmissionService struct {
	subRepo      *repository.SubmissionRepository
	questionRepo *repository.QuestionRepository
	exams        *ExamService
	sessions     *ExamSessionService
	engine       *scoring.Engine
	log          zerolog.Logger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	subRepo *repository.SubmissionRepository,
	questionRepo *repository.QuestionRepository,
	exams *ExamService,
	sessions *ExamSessionService,
	engine *scoring.Engine,
	log zerolog.Logger,
) *SubmissionService {
	return &SubmissionService{
		subRepo:      subRepo,
		questionRepo: questionRepo,
		exams:        exams,
		sessions:     sessions,
		engine:       engine,
		log:          log.With().Str("component", "submission_service").Logger(),
	}
}

// Submit grades the student's answer server-side, records the submission
// and closes the attempt. The stored score is the engine's verdict; no
// client-supplied score is ever consulted.
func (s *SubmissionService) Submit(ctx context.Context, examID uuid.UUID, studentID int, req model.SubmitExamRequest) (*model.Submission, error) {
	if _, err := s.sessions.VerifyActiveSession(ctx, examID, studentID); err != nil {
		return nil, err
	}

	exam, err := s.exams.Get(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	question, err := s.questionRepo.GetByID(ctx, exam.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}

	result := s.engine.Score(scoring.QuestionKey{
		Type:      string(question.Type),
		AnswerKey: question.AnswerKey,
		MaxPoints: question.Points,
	}, req.Answer)

	details, err := json.Marshal(result.Detail)
	if err != nil {
		details = []byte("{}")
	}

	submission := &model.Submission{
		ExamID:      examID,
		StudentID:   studentID,
		Answer:      req.Answer,
		Explanation: extractExplanation(string(question.Type), req.Answer),
		Score:       result.Score,
		TabSwitches: s.sessions.TabSwitchCount(ctx, examID, studentID),
		Details:     string(details),
	}
	if err := s.subRepo.Create(ctx, submission); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("store submission: %w", err)
	}

	if err := s.sessions.Complete(ctx, examID, studentID, float64(result.Score)); err != nil {
		// The submission is the durable record; a stuck session row only
		// blocks state restore, which double-submit checks also cover.
		s.log.Error().Err(err).
			Str("exam_id", examID.String()).
			Int("student_id", studentID).
			Msg("Failed to complete session after submit")
	}

	s.log.Info().
		Str("exam_id", examID.String()).
		Int("student_id", studentID).
		Int("score", result.Score).
		Msg("Submission graded")

	return submission, nil
}

// Result returns a student's own graded submission for an exam.
func (s *SubmissionService) Result(ctx context.Context, examID uuid.UUID, studentID int) (*model.SubmissionReview, error) {
	submission, err := s.subRepo.GetByExamAndStudent(ctx, examID, studentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return s.review(ctx, submission)
}

// Review returns one submission with its breakdown recomputed from the
// raw answer and the current answer key.
func (s *SubmissionService) Review(ctx context.Context, submissionID uuid.UUID) (*model.SubmissionReview, error) {
	submission, err := s.subRepo.GetByID(ctx, submissionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return s.review(ctx, submission)
}

// review recomputes score and details from the raw answer blob so that
// review screens reflect the present answer key even when the regrade
// worker has not caught up. Recomputed reports whether the stored values
// were stale.
func (s *SubmissionService) review(ctx context.Context, submission *model.Submission) (*model.SubmissionReview, error) {
	exam, err := s.exams.Get(ctx, submission.ExamID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	question, err := s.questionRepo.GetByID(ctx, exam.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}

	result := s.engine.Score(scoring.QuestionKey{
		Type:      string(question.Type),
		AnswerKey: question.AnswerKey,
		MaxPoints: question.Points,
	}, submission.Answer)

	details, err := json.Marshal(result.Detail)
	if err != nil {
		details = []byte("{}")
	}

	rv := &model.SubmissionReview{Submission: *submission}
	if result.Score != submission.Score || string(details) != submission.Details {
		rv.Score = result.Score
		rv.Details = string(details)
		rv.Recomputed = true
	}
	return rv, nil
}

// extractExplanation pulls the free-text explanation out of the raw
// answer blob for the denormalized column listings sort and search on.
func extractExplanation(questionType, rawAnswer string) string {
	switch model.QuestionType(questionType) {
	case model.QuestionTypeForensic:
		if answer, ok := scoring.DecodeForensicAnswer(rawAnswer); ok {
			return answer.Explanation
		}
	default:
		if answer, ok := scoring.DecodeTextAnswer(rawAnswer); ok {
			return answer.Explanation
		}
	}
	return ""
}
