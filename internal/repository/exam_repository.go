package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crimewise/crimewise-backend/internal/model"
)

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// GetByID retrieves an exam by ID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	var e model.Exam
	err := r.pool.QueryRow(ctx,
		`SELECT id, course_id, question_id, title, duration_minutes, status, created_at, updated_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.CourseID, &e.QuestionID, &e.Title, &e.DurationMinutes, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByCourse retrieves all exams for a course, newest first.
func (r *ExamRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, course_id, question_id, title, duration_minutes, status, created_at, updated_at
		 FROM exams WHERE course_id = $1
		 ORDER BY created_at DESC`, courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanExams(rows)
}

// ListPublishedForStudent retrieves published exams in courses the
// student actively subscribes to.
func (r *ExamRepository) ListPublishedForStudent(ctx context.Context, studentID int) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.course_id, e.question_id, e.title, e.duration_minutes, e.status, e.created_at, e.updated_at
		 FROM exams e
		 JOIN subscriptions s ON s.course_id = e.course_id
		 WHERE s.student_id = $1
		   AND s.status = 'ACTIVE'
		   AND e.status = 'PUBLISHED'
		 ORDER BY e.created_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanExams(rows)
}

// ListPublished retrieves every published exam (used for cache prewarm).
func (r *ExamRepository) ListPublished(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, course_id, question_id, title, duration_minutes, status, created_at, updated_at
		 FROM exams WHERE status = 'PUBLISHED'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanExams(rows)
}

// ListIDsByQuestion retrieves the IDs of exams built on a question.
func (r *ExamRepository) ListIDsByQuestion(ctx context.Context, questionID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM exams WHERE question_id = $1`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Create inserts an exam in DRAFT status.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (course_id, question_id, title, duration_minutes, status)
		 VALUES ($1, $2, $3, $4, 'DRAFT')
		 RETURNING id, status, created_at, updated_at`,
		e.CourseID, e.QuestionID, e.Title, e.DurationMinutes,
	).Scan(&e.ID, &e.Status, &e.CreatedAt, &e.UpdatedAt)
}

// Update saves mutable exam fields.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET title = $1, duration_minutes = $2, status = $3, updated_at = NOW()
		 WHERE id = $4`,
		e.Title, e.DurationMinutes, e.Status, e.ID,
	)
	return err
}

// Delete removes an exam.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	return err
}

func scanExams(rows pgx.Rows) ([]model.Exam, error) {
	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.CourseID, &e.QuestionID, &e.Title, &e.DurationMinutes, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}
