package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the lifecycle states of an examination paper.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusPublished ExamStatus = "PUBLISHED"
	ExamStatusClosed    ExamStatus = "CLOSED"
)

// Exam is one examination paper: a single question presented under a time
// limit to the students subscribed to its course.
type Exam struct {
	ID              uuid.UUID  `json:"id"`
	CourseID        uuid.UUID  `json:"course_id"`
	QuestionID      uuid.UUID  `json:"question_id"`
	Title           string     `json:"title"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          ExamStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ExamPaper is the Redis-cached payload served to students: the exam
// framing plus the answer-key-stripped question.
type ExamPaper struct {
	ExamID   uuid.UUID          `json:"exam_id"`
	Title    string             `json:"title"`
	Duration int                `json:"duration_minutes"`
	Question QuestionForStudent `json:"question"`
}

// CreateExamRequest is the payload for creating an exam.
type CreateExamRequest struct {
	CourseID        uuid.UUID `json:"course_id" binding:"required"`
	QuestionID      uuid.UUID `json:"question_id" binding:"required"`
	Title           string    `json:"title" binding:"required,min=3,max=255"`
	DurationMinutes int       `json:"duration_minutes" binding:"required,min=1,max=480"`
}

// UpdateExamRequest is the payload for editing an exam. Instructor edits
// to name, duration and status never touch stored submissions.
type UpdateExamRequest struct {
	Title           string `json:"title" binding:"omitempty,min=3,max=255"`
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	Status          string `json:"status" binding:"omitempty,oneof=DRAFT PUBLISHED CLOSED"`
}
