package model

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus enumerates subscription states.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
)

// Subscription enrolls a student in a course. Only students with an
// active subscription can see and enter the course's exams.
type Subscription struct {
	ID        uuid.UUID          `json:"id"`
	StudentID int                `json:"student_id"`
	CourseID  uuid.UUID          `json:"course_id"`
	Status    SubscriptionStatus `json:"status"`
	StartedAt time.Time          `json:"started_at"`
	EndedAt   *time.Time         `json:"ended_at,omitempty"`
}
