package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/crimewise/crimewise-backend/internal/config"
	"github.com/crimewise/crimewise-backend/internal/model"
	"github.com/crimewise/crimewise-backend/internal/repository"
	"github.com/crimewise/crimewise-backend/internal/scoring"
)

const (
	regradeBatchSize    = 20
	regradeBatchTimeout = 2 * time.Second
)

// RegradeWorker consumes regrade_queue after an answer-key edit and
// rewrites each submission's score and breakdown. The raw answer blob is
// never touched; only the derived grade changes.
type RegradeWorker struct {
	subRepo      *repository.SubmissionRepository
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	engine       *scoring.Engine
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewRegradeWorker creates a new RegradeWorker.
func NewRegradeWorker(
	subRepo *repository.SubmissionRepository,
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	engine *scoring.Engine,
	rdb *redis.Client,
	log zerolog.Logger,
) *RegradeWorker {
	return &RegradeWorker{
		subRepo:      subRepo,
		examRepo:     examRepo,
		questionRepo: questionRepo,
		engine:       engine,
		rdb:          rdb,
		log:          log.With().Str("component", "regrade_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *RegradeWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	buffer := make([]uuid.UUID, 0, regradeBatchSize)
	lastFlush := time.Now()

	for {
		if len(buffer) > 0 {
			if len(buffer) >= regradeBatchSize || time.Since(lastFlush) >= regradeBatchTimeout {
				w.flush(ctx, buffer)
				buffer = buffer[:0]
				lastFlush = time.Now()
			}
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		result, err := w.rdb.BLPop(ctx, pollTimeout, config.WorkerKey.RegradeQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		var event model.RegradeEvent
		if err := json.Unmarshal([]byte(result[1]), &event); err != nil {
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed regrade event")
			continue
		}

		buffer = append(buffer, event.SubmissionID)
	}
}

// flush regrades a batch and writes all new grades in one UNNEST update,
// falling back to per-row updates when the bulk write fails.
func (w *RegradeWorker) flush(ctx context.Context, batch []uuid.UUID) {
	// Answer keys are shared within an exam; cache per-exam lookups.
	keys := make(map[uuid.UUID]scoring.QuestionKey)

	ids := make([]uuid.UUID, 0, len(batch))
	scores := make([]int, 0, len(batch))
	details := make([]string, 0, len(batch))

	for _, id := range batch {
		submission, err := w.subRepo.GetByID(ctx, id)
		if err != nil {
			// Deleted since queueing, or the database is briefly down.
			// Either way this item is not worth blocking the batch for.
			w.log.Warn().Err(err).Str("submission_id", id.String()).Msg("Skipping unloadable submission")
			continue
		}

		key, ok := keys[submission.ExamID]
		if !ok {
			key, err = w.questionKey(ctx, submission.ExamID)
			if err != nil {
				w.log.Error().Err(err).Str("exam_id", submission.ExamID.String()).Msg("Skipping regrade, key unavailable")
				continue
			}
			keys[submission.ExamID] = key
		}

		result := w.engine.Score(key, submission.Answer)
		detail, err := json.Marshal(result.Detail)
		if err != nil {
			detail = []byte("{}")
		}

		ids = append(ids, submission.ID)
		scores = append(scores, result.Score)
		details = append(details, string(detail))
	}

	if len(ids) == 0 {
		return
	}

	if err := w.subRepo.BulkUpdateScores(ctx, ids, scores, details); err != nil {
		w.log.Warn().Err(err).Int("count", len(ids)).Msg("Bulk update failed, attempting row-by-row recovery")
		w.fallbackUpdate(ctx, ids, scores, details)
		return
	}

	w.log.Info().Int("count", len(ids)).Msg("Submissions regraded")
}

func (w *RegradeWorker) fallbackUpdate(ctx context.Context, ids []uuid.UUID, scores []int, details []string) {
	requeueList := make([]uuid.UUID, 0)

	for i, id := range ids {
		if err := w.subRepo.UpdateScore(ctx, id, scores[i], details[i]); err != nil {
			w.log.Error().Err(err).Str("submission_id", id.String()).Msg("Update failed, requeueing")
			requeueList = append(requeueList, id)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *RegradeWorker) requeue(ctx context.Context, ids []uuid.UUID) {
	pipe := w.rdb.Pipeline()
	for _, id := range ids {
		data, _ := json.Marshal(model.RegradeEvent{SubmissionID: id})
		pipe.RPush(ctx, config.WorkerKey.RegradeQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue items to Redis. Regrades lost.")
		return
	}
	w.log.Info().Int("count", len(ids)).Msg("Requeued failed items back to Redis")
	time.Sleep(2 * time.Second)
}

func (w *RegradeWorker) questionKey(ctx context.Context, examID uuid.UUID) (scoring.QuestionKey, error) {
	exam, err := w.examRepo.GetByID(ctx, examID)
	if err != nil {
		return scoring.QuestionKey{}, err
	}
	question, err := w.questionRepo.GetByID(ctx, exam.QuestionID)
	if err != nil {
		return scoring.QuestionKey{}, err
	}
	return scoring.QuestionKey{
		Type:      string(question.Type),
		AnswerKey: question.AnswerKey,
		MaxPoints: question.Points,
	}, nil
}

func (w *RegradeWorker) shutdown(buffer []uuid.UUID) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flush(shutdownCtx, buffer)
	}
	w.log.Info().Msg("Worker stopped")
}
