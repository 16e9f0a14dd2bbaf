package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/crimewise/crimewise-backend/internal/middleware"
	"github.com/crimewise/crimewise-backend/internal/model"
	"github.com/crimewise/crimewise-backend/internal/response"
	"github.com/crimewise/crimewise-backend/internal/service"
	"github.com/crimewise/crimewise-backend/internal/validator"
)

// QuestionHandler handles staff-facing question authoring.
type QuestionHandler struct {
	questionService *service.QuestionService
	courseService   *service.CourseService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService, courseService *service.CourseService) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		courseService:   courseService,
	}
}

// ListByCourse godoc
// GET /api/v1/staff/courses/:course_id/questions
func (h *QuestionHandler) ListByCourse(c *gin.Context) {
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

	questions, err := h.questionService.ListByCourse(c.Request.Context(), courseID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// Get godoc
// GET /api/v1/staff/questions/:question_id
func (h *QuestionHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	question, err := h.questionService.Get(c.Request.Context(), questionID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if _, err := h.courseService.Authorize(c.Request.Context(), question.CourseID, claims.UserID, model.StaffRole(claims.Role)); err != nil {
		failCourseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// Create godoc
// POST /api/v1/staff/questions
func (h *QuestionHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if _, err := h.courseService.Authorize(c.Request.Context(), req.CourseID, claims.UserID, model.StaffRole(claims.Role)); err != nil {
		failCourseError(c, err)
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		if errors.Is(err, service.ErrMalformedAnswerKey) {
			response.Fail(c, http.StatusBadRequest, response.ErrMalformedAnswer)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// Update godoc
// PUT /api/v1/staff/questions/:question_id
// An answer-key edit schedules a regrade of all affected submissions.
func (h *QuestionHandler) Update(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	existing, err := h.questionService.Get(c.Request.Context(), questionID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	if _, err := h.courseService.Authorize(c.Request.Context(), existing.CourseID, claims.UserID, model.StaffRole(claims.Role)); err != nil {
		failCourseError(c, err)
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), questionID, req)
	if err != nil {
		if errors.Is(err, service.ErrMalformedAnswerKey) {
			response.Fail(c, http.StatusBadRequest, response.ErrMalformedAnswer)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// Regrade godoc
// POST /api/v1/staff/questions/:question_id/regrade
// Queues every submission under the question's exams for re-scoring.
func (h *QuestionHandler) Regrade(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	existing, err := h.questionService.Get(c.Request.Context(), questionID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	if _, err := h.courseService.Authorize(c.Request.Context(), existing.CourseID, claims.UserID, model.StaffRole(claims.Role)); err != nil {
		failCourseError(c, err)
		return
	}

	queued, err := h.questionService.Regrade(c.Request.Context(), questionID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"queued": queued})
}

// Delete godoc
// DELETE /api/v1/staff/questions/:question_id
func (h *QuestionHandler) Delete(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	existing, err := h.questionService.Get(c.Request.Context(), questionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if _, err := h.courseService.Authorize(c.Request.Context(), existing.CourseID, claims.UserID, model.StaffRole(claims.Role)); err != nil {
		failCourseError(c, err)
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), questionID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// PreviewGrade godoc
// POST /api/v1/staff/questions/grade-preview
// Dry-runs the scoring engine so an author can sanity-check a key before
// publishing. Nothing is persisted.
func (h *QuestionHandler) PreviewGrade(c *gin.Context) {
	var req model.GradePreviewRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result := h.questionService.PreviewGrade(req)
	response.Success(c, http.StatusOK, gin.H{"result": result})
}
