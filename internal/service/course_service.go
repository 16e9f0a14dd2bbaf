package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/crimewise/crimewise-backend/internal/model"
	"github.com/crimewise/crimewise-backend/internal/repository"
)

// ErrNotCourseOwner is returned when an instructor touches a course they
// do not own. Admins bypass ownership checks.
var ErrNotCourseOwner = errors.New("not the course instructor")

// CourseService handles course business logic.
type CourseService struct {
	courseRepo *repository.CourseRepository
	subRepo    *repository.SubscriptionRepository
}

// NewCourseService creates a new CourseService.
func NewCourseService(courseRepo *repository.CourseRepository, subRepo *repository.SubscriptionRepository) *CourseService {
	return &CourseService{courseRepo: courseRepo, subRepo: subRepo}
}

// List returns courses visible to a staff member: all of them for admins,
// their own for instructors.
func (s *CourseService) List(ctx context.Context, actorID int, role model.StaffRole) ([]model.Course, error) {
	if role == model.RoleAdmin {
		return s.courseRepo.List(ctx, nil)
	}
	return s.courseRepo.List(ctx, &actorID)
}

// ListAll returns every course, for the student catalog.
func (s *CourseService) ListAll(ctx context.Context) ([]model.Course, error) {
	return s.courseRepo.List(ctx, nil)
}

// Get retrieves a single course.
func (s *CourseService) Get(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	return s.courseRepo.GetByID(ctx, id)
}

// Create registers a course owned by the acting instructor.
func (s *CourseService) Create(ctx context.Context, actorID int, req model.CreateCourseRequest) (*model.Course, error) {
	course := &model.Course{
		Title:        req.Title,
		Description:  req.Description,
		InstructorID: actorID,
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	return course, nil
}

// Update edits a course after an ownership check.
func (s *CourseService) Update(ctx context.Context, id uuid.UUID, actorID int, role model.StaffRole, req model.UpdateCourseRequest) (*model.Course, error) {
	course, err := s.authorize(ctx, id, actorID, role)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		course.Title = req.Title
	}
	if req.Description != "" {
		course.Description = req.Description
	}

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, fmt.Errorf("update course: %w", err)
	}
	return course, nil
}

// Delete removes a course after an ownership check.
func (s *CourseService) Delete(ctx context.Context, id uuid.UUID, actorID int, role model.StaffRole) error {
	if _, err := s.authorize(ctx, id, actorID, role); err != nil {
		return err
	}
	return s.courseRepo.Delete(ctx, id)
}

// Subscribe enrolls a student into a course.
func (s *CourseService) Subscribe(ctx context.Context, studentID int, courseID uuid.UUID) (*model.Subscription, error) {
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	return s.subRepo.Subscribe(ctx, studentID, courseID)
}

// Unsubscribe cancels a student's course subscription.
func (s *CourseService) Unsubscribe(ctx context.Context, studentID int, courseID uuid.UUID) error {
	return s.subRepo.Cancel(ctx, studentID, courseID)
}

// Subscriptions lists a student's subscriptions.
func (s *CourseService) Subscriptions(ctx context.Context, studentID int) ([]model.Subscription, error) {
	return s.subRepo.ListByStudent(ctx, studentID)
}

// Authorize loads the course and verifies the actor may modify it or its
// contents. Question and exam management reuse this check.
func (s *CourseService) Authorize(ctx context.Context, id uuid.UUID, actorID int, role model.StaffRole) (*model.Course, error) {
	return s.authorize(ctx, id, actorID, role)
}

// authorize loads the course and verifies the actor may modify it.
func (s *CourseService) authorize(ctx context.Context, id uuid.UUID, actorID int, role model.StaffRole) (*model.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	if role != model.RoleAdmin && course.InstructorID != actorID {
		return nil, ErrNotCourseOwner
	}
	return course, nil
}
