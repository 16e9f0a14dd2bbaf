package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/crimewise/crimewise-backend/internal/config"
	"github.com/crimewise/crimewise-backend/internal/model"
	"github.com/crimewise/crimewise-backend/internal/repository"
)

var (
	// ErrNotSubscribed is returned when a student targets an exam in a
	// course they hold no active subscription to.
	ErrNotSubscribed = errors.New("no active subscription to this course")
	// ErrSessionNotFound is returned when no attempt exists yet.
	ErrSessionNotFound = errors.New("exam session not found")
	// ErrSessionCompleted is returned when an attempt was already submitted.
	ErrSessionCompleted = errors.New("exam session already completed")
	// ErrExamTimeExpired is returned when the attempt's clock ran out.
	ErrExamTimeExpired = errors.New("exam time has expired")
)

// sessionCacheTTL covers the longest allowed exam plus review slack;
// attempts always fall back to the database row when the key is gone.
const sessionCacheTTL = 12 * time.Hour

// MonitorEvent is published on the exam's Pub/Sub channel for live
// proctoring dashboards.
type MonitorEvent struct {
	Type        string    `json:"type"`
	ExamID      uuid.UUID `json:"exam_id"`
	StudentID   int       `json:"student_id"`
	TabSwitches int       `json:"tab_switches,omitempty"`
	At          time.Time `json:"at"`
}

// ExamSessionService runs a student's exam attempt: start, state restore,
// tab-switch accounting and the liveness checks the submit path needs.
type ExamSessionService struct {
	sessionRepo *repository.ExamSessionRepository
	subRepo     *repository.SubscriptionRepository
	exams       *ExamService
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(
	sessionRepo *repository.ExamSessionRepository,
	subRepo *repository.SubscriptionRepository,
	exams *ExamService,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamSessionService {
	return &ExamSessionService{
		sessionRepo: sessionRepo,
		subRepo:     subRepo,
		exams:       exams,
		rdb:         rdb,
		log:         log.With().Str("component", "exam_session_service").Logger(),
	}
}

// Start opens (or resumes) the student's attempt. Starting is idempotent:
// a reload lands back on the existing IN_PROGRESS session with its
// original clock.
func (s *ExamSessionService) Start(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamSession, error) {
	exam, err := s.exams.Get(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, ErrExamNotPublished
	}

	subscribed, err := s.subRepo.IsActive(ctx, studentID, exam.CourseID)
	if err != nil {
		return nil, fmt.Errorf("check subscription: %w", err)
	}
	if !subscribed {
		return nil, ErrNotSubscribed
	}

	session := &model.ExamSession{ExamID: examID, StudentID: studentID}
	err = s.sessionRepo.Create(ctx, session)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the insert race or resuming: load the existing attempt.
		session, err = s.sessionRepo.GetByExamAndStudent(ctx, examID, studentID)
	}
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	if session.Status == model.SessionStatusCompleted {
		return nil, ErrSessionCompleted
	}

	s.cacheStartTime(ctx, examID, studentID, session.StartedAt)
	s.publishMonitorEvent(ctx, MonitorEvent{
		Type:      "session_started",
		ExamID:    examID,
		StudentID: studentID,
		At:        time.Now(),
	})

	return session, nil
}

// State returns everything the client needs to restore an attempt after
// a reload: autosaved drafts, the tab-switch count and the remaining
// clock.
func (s *ExamSessionService) State(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamSessionState, error) {
	session, err := s.activeSession(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}

	remaining, err := s.remainingSeconds(ctx, examID, studentID, session.StartedAt)
	if err != nil {
		return nil, err
	}

	drafts, err := s.rdb.HGetAll(ctx, config.CacheKey.DraftAnswersKey(examID.String(), studentID)).Result()
	if err != nil {
		s.log.Error().Err(err).Int("student_id", studentID).Msg("Failed to load draft answers")
		drafts = map[string]string{}
	}
	if drafts == nil {
		drafts = map[string]string{}
	}

	return &model.ExamSessionState{
		ExamID:           examID,
		StudentID:        studentID,
		AutosavedAnswers: drafts,
		TabSwitches:      s.TabSwitchCount(ctx, examID, studentID),
		RemainingSeconds: remaining,
	}, nil
}

// RecordTabSwitch bumps the student's proctoring counter, queues the
// event for durable persistence and notifies live monitors. Returns the
// new count.
func (s *ExamSessionService) RecordTabSwitch(ctx context.Context, examID uuid.UUID, studentID int) (int, error) {
	if _, err := s.activeSession(ctx, examID, studentID); err != nil {
		return 0, err
	}

	count, err := s.rdb.Incr(ctx, config.CacheKey.TabSwitchKey(examID.String(), studentID)).Result()
	if err != nil {
		return 0, fmt.Errorf("increment tab switches: %w", err)
	}

	event, _ := json.Marshal(model.TabSwitchEvent{
		ExamID:     examID,
		StudentID:  studentID,
		Count:      int(count),
		OccurredAt: time.Now(),
	})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistProctorQueue, event).Err(); err != nil {
		s.log.Error().Err(err).Int("student_id", studentID).Msg("Failed to queue tab switch event")
	}

	s.publishMonitorEvent(ctx, MonitorEvent{
		Type:        "tab_switch",
		ExamID:      examID,
		StudentID:   studentID,
		TabSwitches: int(count),
		At:          time.Now(),
	})

	return int(count), nil
}

// SaveDraft stores an autosaved field in the attempt's Redis draft hash
// and queues it for durable persistence.
func (s *ExamSessionService) SaveDraft(ctx context.Context, examID uuid.UUID, studentID int, field, value string) error {
	if _, err := s.activeSession(ctx, examID, studentID); err != nil {
		return err
	}

	key := config.CacheKey.DraftAnswersKey(examID.String(), studentID)
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, key, field, value)
	pipe.Expire(ctx, key, sessionCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}

	event, _ := json.Marshal(model.DraftEvent{
		ExamID:    examID,
		StudentID: studentID,
		Field:     field,
		Value:     value,
		SavedAt:   time.Now(),
	})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistDraftsQueue, event).Err(); err != nil {
		s.log.Error().Err(err).Int("student_id", studentID).Msg("Failed to queue draft event")
	}
	return nil
}

// VerifyActiveSession returns the session when the student has a live,
// unexpired attempt at the exam. The submit path runs through this.
func (s *ExamSessionService) VerifyActiveSession(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamSession, error) {
	session, err := s.activeSession(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}
	remaining, err := s.remainingSeconds(ctx, examID, studentID, session.StartedAt)
	if err != nil {
		return nil, err
	}
	if remaining <= 0 {
		return nil, ErrExamTimeExpired
	}
	return session, nil
}

// TabSwitchCount reads the live Redis counter. Falls back to zero on a
// cache error; the durable count in exam_sessions wins at completion.
func (s *ExamSessionService) TabSwitchCount(ctx context.Context, examID uuid.UUID, studentID int) int {
	count, err := s.rdb.Get(ctx, config.CacheKey.TabSwitchKey(examID.String(), studentID)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.log.Error().Err(err).Int("student_id", studentID).Msg("Failed to read tab switch counter")
	}
	return count
}

// Complete closes the attempt with its final score and clears the
// attempt's Redis working state.
func (s *ExamSessionService) Complete(ctx context.Context, examID uuid.UUID, studentID int, finalScore float64) error {
	tabSwitches := s.TabSwitchCount(ctx, examID, studentID)
	if err := s.sessionRepo.Complete(ctx, examID, studentID, finalScore, tabSwitches); err != nil {
		return fmt.Errorf("complete session: %w", err)
	}

	err := s.rdb.Del(ctx,
		config.CacheKey.SessionStartKey(examID.String(), studentID),
		config.CacheKey.DraftAnswersKey(examID.String(), studentID),
		config.CacheKey.TabSwitchKey(examID.String(), studentID),
	).Err()
	if err != nil {
		s.log.Error().Err(err).Int("student_id", studentID).Msg("Failed to clear session cache")
	}

	s.publishMonitorEvent(ctx, MonitorEvent{
		Type:        "submitted",
		ExamID:      examID,
		StudentID:   studentID,
		TabSwitches: tabSwitches,
		At:          time.Now(),
	})
	return nil
}

// ListByStudent retrieves a student's attempt history.
func (s *ExamSessionService) ListByStudent(ctx context.Context, studentID int) ([]model.ExamSession, error) {
	return s.sessionRepo.ListByStudent(ctx, studentID)
}

func (s *ExamSessionService) activeSession(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamSession, error) {
	session, err := s.sessionRepo.GetByExamAndStudent(ctx, examID, studentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.Status == model.SessionStatusCompleted {
		return nil, ErrSessionCompleted
	}
	return session, nil
}

// remainingSeconds computes the attempt clock from the cached start time,
// falling back to the database row's started_at.
func (s *ExamSessionService) remainingSeconds(ctx context.Context, examID uuid.UUID, studentID int, dbStartedAt time.Time) (float64, error) {
	startedAt := dbStartedAt
	cached, err := s.rdb.Get(ctx, config.CacheKey.SessionStartKey(examID.String(), studentID)).Result()
	if err == nil {
		if t, parseErr := time.Parse(time.RFC3339Nano, cached); parseErr == nil {
			startedAt = t
		}
	} else if errors.Is(err, redis.Nil) {
		s.cacheStartTime(ctx, examID, studentID, dbStartedAt)
	}

	minutes, err := s.exams.Duration(ctx, examID)
	if err != nil {
		return 0, fmt.Errorf("get duration: %w", err)
	}

	deadline := startedAt.Add(time.Duration(minutes) * time.Minute)
	remaining := time.Until(deadline).Seconds()
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (s *ExamSessionService) cacheStartTime(ctx context.Context, examID uuid.UUID, studentID int, startedAt time.Time) {
	key := config.CacheKey.SessionStartKey(examID.String(), studentID)
	if err := s.rdb.Set(ctx, key, startedAt.Format(time.RFC3339Nano), sessionCacheTTL).Err(); err != nil {
		s.log.Error().Err(err).Int("student_id", studentID).Msg("Failed to cache session start time")
	}
}

func (s *ExamSessionService) publishMonitorEvent(ctx context.Context, event MonitorEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	channel := config.CacheKey.ExamMonitorChannel(event.ExamID.String())
	if err := s.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		s.log.Error().Err(err).Str("channel", channel).Msg("Failed to publish monitor event")
	}
}
