package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
)

// ExamSession is a student's attempt at an exam. TabSwitches is the
// proctoring-lite counter accumulated while the attempt is live.
type ExamSession struct {
	ID          uuid.UUID     `json:"id"`
	ExamID      uuid.UUID     `json:"exam_id"`
	StudentID   int           `json:"student_id"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  *time.Time    `json:"finished_at,omitempty"`
	Status      SessionStatus `json:"status"`
	TabSwitches int           `json:"tab_switches"`
	FinalScore  *float64      `json:"final_score,omitempty"`
}

// ExamSessionState is returned on page reload so the client can restore
// draft answers and the countdown.
type ExamSessionState struct {
	ExamID           uuid.UUID         `json:"exam_id"`
	StudentID        int               `json:"student_id"`
	AutosavedAnswers map[string]string `json:"autosaved_answers"`
	TabSwitches      int               `json:"tab_switches"`
	RemainingSeconds float64           `json:"remaining_seconds"`
}
