package model

import (
	"time"

	"github.com/google/uuid"
)

// Submission is the immutable record of a submitted answer. Answer holds
// the raw versioned payload blob exactly as submitted; Details holds the
// engine's grading breakdown at submit time. Review flows recompute the
// breakdown from Answer rather than trusting Details blindly, and the
// regrade worker may rewrite Score/Details after an answer-key edit.
// The raw Answer is never modified.
type Submission struct {
	ID          uuid.UUID `json:"id"`
	ExamID      uuid.UUID `json:"exam_id"`
	StudentID   int       `json:"student_id"`
	Answer      string    `json:"answer"`
	Explanation string    `json:"explanation"`
	Score       int       `json:"score"`
	TabSwitches int       `json:"tab_switches"`
	Details     string    `json:"details"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// SubmitExamRequest is the payload for submitting an exam. Answer is the
// raw JSON blob the scoring engine understands ({tableAnswers, explanation,
// conclusion} for forensic questions, {answer, explanation} for text).
// Any client-computed score is deliberately absent: the server grade is
// authoritative.
type SubmitExamRequest struct {
	Answer string `json:"answer" binding:"required"`
}

// SubmissionReview is a submission joined with its recomputed breakdown
// and identifying info for listings.
type SubmissionReview struct {
	Submission
	StudentName string `json:"student_name"`
	RegNumber   string `json:"reg_number"`
	Recomputed  bool   `json:"recomputed"`
}
