package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/crimewise/crimewise-backend/internal/config"
	"github.com/crimewise/crimewise-backend/internal/model"
)

// DraftsWorker consumes persist_drafts_queue and UPSERTs autosaved
// answer fields to PostgreSQL. Redis holds the live copy; this gives
// drafts a durable home surviving a cache flush.
type DraftsWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewDraftsWorker creates a new DraftsWorker.
func NewDraftsWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *DraftsWorker {
	return &DraftsWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "drafts_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *DraftsWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *DraftsWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistDraftsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var event model.DraftEvent
	if err := json.Unmarshal([]byte(result[1]), &event); err != nil {
		w.log.Error().Err(err).Msg("Discarding malformed draft event")
		return
	}

	if err := w.persistDraft(ctx, &event); err != nil {
		w.log.Error().Err(err).
			Int("student_id", event.StudentID).
			Str("exam_id", event.ExamID.String()).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.PersistDraftsQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *DraftsWorker) persistDraft(ctx context.Context, e *model.DraftEvent) error {
	// UPSERT keeps the newest value per field without locking.
	_, err := w.pool.Exec(ctx,
		`INSERT INTO answer_drafts (exam_id, student_id, field, value, saved_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (exam_id, student_id, field) DO UPDATE
		 SET value = EXCLUDED.value, saved_at = EXCLUDED.saved_at`,
		e.ExamID, e.StudentID, e.Field, e.Value, e.SavedAt,
	)
	return err
}

// drain processes all remaining items in the queue before shutdown.
func (w *DraftsWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistDraftsQueue).Result()
		if err != nil {
			break
		}

		var event model.DraftEvent
		if err := json.Unmarshal([]byte(result), &event); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.persistDraft(ctx, &event); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistDraftsQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
