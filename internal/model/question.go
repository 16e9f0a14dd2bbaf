package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionType enumerates question kinds. Forensic questions carry a
// specimen comparison table plus a fake/real conclusion; text and image
// questions are graded by free-text similarity against a reference answer.
type QuestionType string

const (
	QuestionTypeForensic QuestionType = "forensic"
	QuestionTypeText     QuestionType = "text"
	QuestionTypeImage    QuestionType = "image"
)

// Question is an examination question owned by an instructor. AnswerKey is
// the persisted grading blob: forensic questions store the versioned
// specimens/explanation JSON document, text and image questions store the
// plain reference answer string.
type Question struct {
	ID        uuid.UUID    `json:"id"`
	CourseID  uuid.UUID    `json:"course_id"`
	AuthorID  int          `json:"author_id"`
	Type      QuestionType `json:"type"`
	Text      string       `json:"text"`
	Images    []string     `json:"images"`
	AnswerKey string       `json:"answer_key,omitempty"`
	Points    float64      `json:"points"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// QuestionForStudent is a question stripped of its answer key, safe to
// embed in the exam paper payload.
type QuestionForStudent struct {
	ID      uuid.UUID    `json:"id"`
	Type    QuestionType `json:"type"`
	Text    string       `json:"text"`
	Images  []string     `json:"images"`
	Columns []string     `json:"columns,omitempty"`
	Rows    int          `json:"rows,omitempty"`
}

// CreateQuestionRequest is the payload for creating a question.
type CreateQuestionRequest struct {
	CourseID  uuid.UUID `json:"course_id" binding:"required"`
	Type      string    `json:"type" binding:"required,oneof=forensic text image"`
	Text      string    `json:"text" binding:"required,min=1,max=5000"`
	Images    []string  `json:"images" binding:"omitempty,dive,url"`
	AnswerKey string    `json:"answer_key" binding:"required"`
	Points    float64   `json:"points" binding:"omitempty,min=0"`
}

// UpdateQuestionRequest is the payload for editing a question.
type UpdateQuestionRequest struct {
	Text      string   `json:"text" binding:"omitempty,min=1,max=5000"`
	Images    []string `json:"images" binding:"omitempty,dive,url"`
	AnswerKey string   `json:"answer_key" binding:"omitempty"`
	Points    *float64 `json:"points" binding:"omitempty,min=0"`
}

// GradePreviewRequest lets an instructor dry-run the scoring engine
// against a candidate key and answer before publishing.
type GradePreviewRequest struct {
	Type      string  `json:"type" binding:"required,oneof=forensic text image"`
	AnswerKey string  `json:"answer_key" binding:"required"`
	Answer    string  `json:"answer" binding:"required"`
	Points    float64 `json:"points" binding:"omitempty,min=0"`
}
