package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crimewise/crimewise-backend/internal/model"
)

// ExamSessionRepository handles exam session data access.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

// GetByExamAndStudent retrieves the student's session for an exam.
func (r *ExamSessionRepository) GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamSession, error) {
	var s model.ExamSession
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, student_id, started_at, finished_at, status, tab_switches, final_score
		 FROM exam_sessions WHERE exam_id = $1 AND student_id = $2`,
		examID, studentID,
	).Scan(&s.ID, &s.ExamID, &s.StudentID, &s.StartedAt, &s.FinishedAt, &s.Status, &s.TabSwitches, &s.FinalScore)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByStudent retrieves all sessions for a student.
func (r *ExamSessionRepository) ListByStudent(ctx context.Context, studentID int) ([]model.ExamSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, student_id, started_at, finished_at, status, tab_switches, final_score
		 FROM exam_sessions WHERE student_id = $1`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.ExamSession
	for rows.Next() {
		var s model.ExamSession
		if err := rows.Scan(&s.ID, &s.ExamID, &s.StudentID, &s.StartedAt, &s.FinishedAt, &s.Status, &s.TabSwitches, &s.FinalScore); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Create inserts a session. The unique (exam_id, student_id) constraint
// turns a concurrent double-start into ErrNoRows via ON CONFLICT DO NOTHING.
func (r *ExamSessionRepository) Create(ctx context.Context, s *model.ExamSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (exam_id, student_id, status)
		 VALUES ($1, $2, 'IN_PROGRESS')
		 ON CONFLICT (exam_id, student_id) DO NOTHING
		 RETURNING id, started_at, status`,
		s.ExamID, s.StudentID,
	).Scan(&s.ID, &s.StartedAt, &s.Status)
}

// Complete marks a session finished with its final score and tab-switch
// count.
func (r *ExamSessionRepository) Complete(ctx context.Context, examID uuid.UUID, studentID int, finalScore float64, tabSwitches int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET status = 'COMPLETED', final_score = $1, tab_switches = $2, finished_at = NOW()
		 WHERE exam_id = $3 AND student_id = $4`,
		finalScore, tabSwitches, examID, studentID,
	)
	return err
}
