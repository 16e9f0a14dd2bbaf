package model

import (
	"time"

	"github.com/google/uuid"
)

// DraftEvent is one autosaved answer field, queued in Redis and flushed
// to the answer_drafts table by the drafts worker.
type DraftEvent struct {
	ExamID    uuid.UUID `json:"exam_id"`
	StudentID int       `json:"student_id"`
	Field     string    `json:"field"`
	Value     string    `json:"value"`
	SavedAt   time.Time `json:"saved_at"`
}

// TabSwitchEvent is one proctoring observation, queued in Redis and
// flushed to the proctor_events table by the proctor worker.
type TabSwitchEvent struct {
	ExamID     uuid.UUID `json:"exam_id"`
	StudentID  int       `json:"student_id"`
	Count      int       `json:"count"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RegradeEvent names one submission awaiting a regrade after an answer
// key edit.
type RegradeEvent struct {
	SubmissionID uuid.UUID `json:"submission_id"`
}
