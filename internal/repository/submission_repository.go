package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crimewise/crimewise-backend/internal/model"
)

// SubmissionRepository handles submission data access. The answer blob is
// written once at submit time and never updated; only score and details
// may be rewritten by the regrade worker.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// GetByExamAndStudent retrieves a student's submission for an exam.
func (r *SubmissionRepository) GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.Submission, error) {
	var s model.Submission
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, student_id, answer, explanation, score, tab_switches, details, submitted_at
		 FROM submissions WHERE exam_id = $1 AND student_id = $2`,
		examID, studentID,
	).Scan(&s.ID, &s.ExamID, &s.StudentID, &s.Answer, &s.Explanation, &s.Score, &s.TabSwitches, &s.Details, &s.SubmittedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID retrieves a submission by ID.
func (r *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	var s model.Submission
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, student_id, answer, explanation, score, tab_switches, details, submitted_at
		 FROM submissions WHERE id = $1`, id,
	).Scan(&s.ID, &s.ExamID, &s.StudentID, &s.Answer, &s.Explanation, &s.Score, &s.TabSwitches, &s.Details, &s.SubmittedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByExam retrieves a page of submissions for an exam joined with
// student identity, plus the total count.
func (r *SubmissionRepository) ListByExam(ctx context.Context, examID uuid.UUID, page, perPage int) ([]model.SubmissionReview, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM submissions WHERE exam_id = $1`, examID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT sub.id, sub.exam_id, sub.student_id, sub.answer, sub.explanation,
		        sub.score, sub.tab_switches, sub.details, sub.submitted_at,
		        st.name, st.reg_number
		 FROM submissions sub
		 JOIN students st ON st.id = sub.student_id
		 WHERE sub.exam_id = $1
		 ORDER BY st.name
		 LIMIT $2 OFFSET $3`,
		examID, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reviews []model.SubmissionReview
	for rows.Next() {
		var rv model.SubmissionReview
		if err := rows.Scan(
			&rv.ID, &rv.ExamID, &rv.StudentID, &rv.Answer, &rv.Explanation,
			&rv.Score, &rv.TabSwitches, &rv.Details, &rv.SubmittedAt,
			&rv.StudentName, &rv.RegNumber,
		); err != nil {
			return nil, 0, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, total, rows.Err()
}

// ListIDsByExams retrieves submission IDs across a set of exams, used to
// seed the regrade queue after an answer-key edit.
func (r *SubmissionRepository) ListIDsByExams(ctx context.Context, examIDs []uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM submissions WHERE exam_id = ANY($1)`, examIDs)
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

// Create inserts a submission. The unique (exam_id, student_id)
// constraint makes a double submit surface as a conflict error.
func (r *SubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO submissions (exam_id, student_id, answer, explanation, score, tab_switches, details)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, submitted_at`,
		s.ExamID, s.StudentID, s.Answer, s.Explanation, s.Score, s.TabSwitches, s.Details,
	).Scan(&s.ID, &s.SubmittedAt)
}

// BulkUpdateScores rewrites score and details for a batch of regraded
// submissions in one round trip using UNNEST.
func (r *SubmissionRepository) BulkUpdateScores(ctx context.Context, ids []uuid.UUID, scores []int, details []string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE submissions AS s
		 SET score = t.score,
		     details = t.details
		 FROM (
			SELECT u.id, u.score, u.details
			FROM UNNEST($1::uuid[], $2::int[], $3::text[]) AS u (id, score, details)
		 ) AS t
		 WHERE s.id = t.id`,
		ids, scores, details,
	)
	return err
}

// UpdateScore rewrites score and details for a single submission, the
// fallback path when a bulk regrade update fails.
func (r *SubmissionRepository) UpdateScore(ctx context.Context, id uuid.UUID, score int, details string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE submissions SET score = $1, details = $2 WHERE id = $3`,
		score, details, id,
	)
	return err
}
