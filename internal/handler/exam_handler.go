package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/crimewise/crimewise-backend/internal/middleware"
	"github.com/crimewise/crimewise-backend/internal/model"
	"github.com/crimewise/crimewise-backend/internal/response"
	"github.com/crimewise/crimewise-backend/internal/service"
	"github.com/crimewise/crimewise-backend/internal/validator"
)

// ExamHandler handles staff-facing exam lifecycle management.
type ExamHandler struct {
	examService   *service.ExamService
	courseService *service.CourseService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, courseService *service.CourseService) *ExamHandler {
	return &ExamHandler{
		examService:   examService,
		courseService: courseService,
	}
}

// ListByCourse godoc
// GET /api/v1/staff/courses/:course_id/exams
func (h *ExamHandler) ListByCourse(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	courseID, err := uuid.Parse(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if _, err := h.courseService.Authorize(c.Request.Context(), courseID, claims.UserID, model.StaffRole(claims.Role)); err != nil {
		failCourseError(c, err)
		return
	}

	exams, err := h.examService.ListByCourse(c.Request.Context(), courseID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if exams == nil {
		exams = []model.Exam{}
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// Get godoc
// GET /api/v1/staff/exams/:exam_id
func (h *ExamHandler) Get(c *gin.Context) {
	exam, ok := h.authorizeExam(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// Create godoc
// POST /api/v1/staff/exams
// New exams start in DRAFT; publishing is an Update status transition.
func (h *ExamHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if _, err := h.courseService.Authorize(c.Request.Context(), req.CourseID, claims.UserID, model.StaffRole(claims.Role)); err != nil {
		failCourseError(c, err)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// Update godoc
// PUT /api/v1/staff/exams/:exam_id
func (h *ExamHandler) Update(c *gin.Context) {
	exam, ok := h.authorizeExam(c)
	if !ok {
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	updated, err := h.examService.Update(c.Request.Context(), exam.ID, req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": updated})
}

// Delete godoc
// DELETE /api/v1/staff/exams/:exam_id
// Only DRAFT exams may be deleted.
func (h *ExamHandler) Delete(c *gin.Context) {
	exam, ok := h.authorizeExam(c)
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), exam.ID); err != nil {
		if errors.Is(err, service.ErrExamNotDraft) {
			response.Fail(c, http.StatusConflict, response.ErrExamNotDraft)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// authorizeExam parses :exam_id, loads the exam and verifies course
// ownership. On failure it writes the error response and returns false.
func (h *ExamHandler) authorizeExam(c *gin.Context) (*model.Exam, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, false
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, false
	}

	exam, err := h.examService.Get(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return nil, false
	}

	if _, err := h.courseService.Authorize(c.Request.Context(), exam.CourseID, claims.UserID, model.StaffRole(claims.Role)); err != nil {
		failCourseError(c, err)
		return nil, false
	}

	return exam, true
}
