package model

import "time"

// Student is an examinee account.
type Student struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	RegNumber    string    `json:"reg_number"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// StudentLoginRequest is the payload for student authentication.
// Students sign in with their registration number.
type StudentLoginRequest struct {
	RegNumber string `json:"reg_number" binding:"required,min=3,max=30"`
	Password  string `json:"password" binding:"required,min=6"`
}

// CreateStudentRequest is the payload for registering a student.
type CreateStudentRequest struct {
	Name      string `json:"name" binding:"required,min=2,max=100"`
	Email     string `json:"email" binding:"required,email"`
	RegNumber string `json:"reg_number" binding:"required,min=3,max=30"`
	Password  string `json:"password" binding:"required,min=6,max=72"`
}

// UpdateStudentRequest is the payload for editing a student.
type UpdateStudentRequest struct {
	Name     string `json:"name" binding:"omitempty,min=2,max=100"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"omitempty,min=6,max=72"`
}
