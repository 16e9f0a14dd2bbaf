package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crimewise/crimewise-backend/internal/model"
)

// SubscriptionRepository handles course subscription data access.
type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

// ListByStudent retrieves a student's subscriptions.
func (r *SubscriptionRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Subscription, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, student_id, course_id, status, started_at, ended_at
		 FROM subscriptions WHERE student_id = $1
		 ORDER BY started_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		var s model.Subscription
		if err := rows.Scan(&s.ID, &s.StudentID, &s.CourseID, &s.Status, &s.StartedAt, &s.EndedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// IsActive reports whether the student holds an active subscription to the course.
func (r *SubscriptionRepository) IsActive(ctx context.Context, studentID int, courseID uuid.UUID) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE student_id = $1 AND course_id = $2 AND status = 'ACTIVE'
		 )`, studentID, courseID,
	).Scan(&active)
	return active, err
}

// Subscribe creates or reactivates a subscription. Idempotent: an already
// active subscription is returned unchanged.
func (r *SubscriptionRepository) Subscribe(ctx context.Context, studentID int, courseID uuid.UUID) (*model.Subscription, error) {
	var s model.Subscription
	err := r.pool.QueryRow(ctx,
		`INSERT INTO subscriptions (student_id, course_id, status)
		 VALUES ($1, $2, 'ACTIVE')
		 ON CONFLICT (student_id, course_id)
		 DO UPDATE SET status = 'ACTIVE', ended_at = NULL
		 RETURNING id, student_id, course_id, status, started_at, ended_at`,
		studentID, courseID,
	).Scan(&s.ID, &s.StudentID, &s.CourseID, &s.Status, &s.StartedAt, &s.EndedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Cancel marks a subscription cancelled.
func (r *SubscriptionRepository) Cancel(ctx context.Context, studentID int, courseID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE subscriptions SET status = 'CANCELLED', ended_at = NOW()
		 WHERE student_id = $1 AND course_id = $2`,
		studentID, courseID,
	)
	return err
}
