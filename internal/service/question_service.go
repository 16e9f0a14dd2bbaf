package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/crimewise/crimewise-backend/internal/config"
	"github.com/crimewise/crimewise-backend/internal/model"
	"github.com/crimewise/crimewise-backend/internal/repository"
	"github.com/crimewise/crimewise-backend/internal/scoring"
)

// ErrMalformedAnswerKey is returned when a forensic answer key fails the
// versioned decode at authoring time. The engine would degrade such keys
// to zero scores; catching them here keeps bad data out of the bank.
var ErrMalformedAnswerKey = errors.New("answer key could not be parsed")

// QuestionService handles question authoring and regrade scheduling.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	examRepo     *repository.ExamRepository
	subRepo      *repository.SubmissionRepository
	engine       *scoring.Engine
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(
	questionRepo *repository.QuestionRepository,
	examRepo *repository.ExamRepository,
	subRepo *repository.SubmissionRepository,
	engine *scoring.Engine,
	rdb *redis.Client,
	log zerolog.Logger,
) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		examRepo:     examRepo,
		subRepo:      subRepo,
		engine:       engine,
		rdb:          rdb,
		log:          log.With().Str("component", "question_service").Logger(),
	}
}

// Get retrieves a question.
func (s *QuestionService) Get(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return s.questionRepo.GetByID(ctx, id)
}

// ListByCourse retrieves a course's questions.
func (s *QuestionService) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Question, error) {
	return s.questionRepo.ListByCourse(ctx, courseID)
}

// Create stores a new question after validating its answer key.
func (s *QuestionService) Create(ctx context.Context, authorID int, req model.CreateQuestionRequest) (*model.Question, error) {
	if err := validateAnswerKey(req.Type, req.AnswerKey); err != nil {
		return nil, err
	}

	points := req.Points
	if points <= 0 {
		points = 1
	}

	q := &model.Question{
		CourseID:  req.CourseID,
		AuthorID:  authorID,
		Type:      model.QuestionType(req.Type),
		Text:      req.Text,
		Images:    req.Images,
		AnswerKey: req.AnswerKey,
		Points:    points,
	}
	if q.Images == nil {
		q.Images = []string{}
	}
	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// Update edits a question. If the answer key changed, every stored
// submission graded against it is queued for regrade so review screens
// and exports converge on the new key.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req model.UpdateQuestionRequest) (*model.Question, error) {
	q, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}

	keyChanged := req.AnswerKey != "" && req.AnswerKey != q.AnswerKey
	if keyChanged {
		if err := validateAnswerKey(string(q.Type), req.AnswerKey); err != nil {
			return nil, err
		}
		q.AnswerKey = req.AnswerKey
	}
	if req.Text != "" {
		q.Text = req.Text
	}
	if req.Images != nil {
		q.Images = req.Images
	}
	if req.Points != nil && *req.Points > 0 {
		q.Points = *req.Points
	}

	if err := s.questionRepo.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}

	if keyChanged {
		if n, err := s.enqueueRegrades(ctx, q.ID); err != nil {
			// The regrade is best-effort: the edit itself succeeded and
			// review recomputation covers reads until a retry.
			s.log.Error().Err(err).Str("question_id", q.ID.String()).Msg("Failed to enqueue regrades")
		} else {
			s.log.Info().Str("question_id", q.ID.String()).Int("submissions", n).Msg("Regrade queued after key edit")
		}
	}

	return q, nil
}

// Delete removes a question.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.questionRepo.Delete(ctx, id)
}

// PreviewGrade dry-runs the scoring engine for an instructor-authored key
// and candidate answer without touching storage.
func (s *QuestionService) PreviewGrade(req model.GradePreviewRequest) scoring.Result {
	return s.engine.Score(scoring.QuestionKey{
		Type:      req.Type,
		AnswerKey: req.AnswerKey,
		MaxPoints: req.Points,
	}, req.Answer)
}

// Regrade queues every submission attached to the question's exams for
// re-scoring against the current key. Key edits queue this automatically;
// the explicit entry point exists for retrying after a queue outage.
func (s *QuestionService) Regrade(ctx context.Context, questionID uuid.UUID) (int, error) {
	if _, err := s.questionRepo.GetByID(ctx, questionID); err != nil {
		return 0, err
	}
	return s.enqueueRegrades(ctx, questionID)
}

// enqueueRegrades pushes every submission attached to the question's
// exams onto the regrade queue. Returns the number queued.
func (s *QuestionService) enqueueRegrades(ctx context.Context, questionID uuid.UUID) (int, error) {
	examIDs, err := s.examRepo.ListIDsByQuestion(ctx, questionID)
	if err != nil {
		return 0, fmt.Errorf("list exams: %w", err)
	}
	if len(examIDs) == 0 {
		return 0, nil
	}

	subIDs, err := s.subRepo.ListIDsByExams(ctx, examIDs)
	if err != nil {
		return 0, fmt.Errorf("list submissions: %w", err)
	}

	pipe := s.rdb.Pipeline()
	for _, id := range subIDs {
		payload, _ := json.Marshal(model.RegradeEvent{SubmissionID: id})
		pipe.RPush(ctx, config.WorkerKey.RegradeQueue, payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("push regrade queue: %w", err)
	}
	return len(subIDs), nil
}

// validateAnswerKey rejects blobs the engine could not grade. Text and
// image keys are plain reference strings and only need to be non-empty.
func validateAnswerKey(questionType, answerKey string) error {
	switch questionType {
	case string(model.QuestionTypeForensic):
		if _, ok := scoring.DecodeForensicKey(answerKey); !ok {
			return ErrMalformedAnswerKey
		}
	default:
		if answerKey == "" {
			return ErrMalformedAnswerKey
		}
	}
	return nil
}
