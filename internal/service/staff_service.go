package service

import (
	"context"
	"fmt"

	"github.com/crimewise/crimewise-backend/internal/model"
	"github.com/crimewise/crimewise-backend/internal/repository"
)

// StaffService handles staff (admin and instructor) account management.
type StaffService struct {
	userRepo *repository.UserRepository
	auth     *AuthService
}

// NewStaffService creates a new StaffService.
func NewStaffService(userRepo *repository.UserRepository, auth *AuthService) *StaffService {
	return &StaffService{userRepo: userRepo, auth: auth}
}

// Authenticate verifies a staff login and returns the account.
func (s *StaffService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Get retrieves a staff account by ID.
func (s *StaffService) Get(ctx context.Context, id int) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// List retrieves all staff accounts.
func (s *StaffService) List(ctx context.Context) ([]model.User, error) {
	return s.userRepo.List(ctx)
}

// Create registers a staff account with a hashed password.
func (s *StaffService) Create(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.StaffRole(req.Role),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Update edits a staff account.
func (s *StaffService) Update(ctx context.Context, id int, req model.UpdateUserRequest) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Role != "" {
		user.Role = model.StaffRole(req.Role)
	}
	if req.Password != "" {
		hash, err := s.auth.HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// Delete removes a staff account.
func (s *StaffService) Delete(ctx context.Context, id int) error {
	return s.userRepo.Delete(ctx, id)
}
