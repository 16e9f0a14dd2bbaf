package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crimewise/crimewise-backend/internal/model"
)

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetByRegNumber retrieves a student by registration number.
func (r *StudentRepository) GetByRegNumber(ctx context.Context, regNumber string) (*model.Student, error) {
	var s model.Student
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, reg_number, password_hash, created_at
		 FROM students WHERE reg_number = $1`, regNumber,
	).Scan(&s.ID, &s.Name, &s.Email, &s.RegNumber, &s.PasswordHash, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	var s model.Student
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, reg_number, password_hash, created_at
		 FROM students WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Email, &s.RegNumber, &s.PasswordHash, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List retrieves a page of students plus the total count.
func (r *StudentRepository) List(ctx context.Context, page, perPage int) ([]model.Student, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM students`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, reg_number, password_hash, created_at
		 FROM students
		 ORDER BY name
		 LIMIT $1 OFFSET $2`,
		perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.RegNumber, &s.PasswordHash, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		students = append(students, s)
	}
	return students, total, rows.Err()
}

// Create inserts a student.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO students (name, email, reg_number, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		s.Name, s.Email, s.RegNumber, s.PasswordHash,
	).Scan(&s.ID, &s.CreatedAt)
}

// Update saves mutable student fields.
func (r *StudentRepository) Update(ctx context.Context, s *model.Student) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET name = $1, email = $2, password_hash = $3
		 WHERE id = $4`,
		s.Name, s.Email, s.PasswordHash, s.ID,
	)
	return err
}

// Delete removes a student.
func (r *StudentRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	return err
}
