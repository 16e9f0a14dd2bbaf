package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/crimewise/crimewise-backend/internal/middleware"
	"github.com/crimewise/crimewise-backend/internal/model"
	"github.com/crimewise/crimewise-backend/internal/response"
	"github.com/crimewise/crimewise-backend/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ResultsHandler serves instructor-facing result listings, reviews and
// the Excel export.
type ResultsHandler struct {
	resultsService    *service.ResultsService
	submissionService *service.SubmissionService
	examService       *service.ExamService
	courseService     *service.CourseService
}

// NewResultsHandler creates a new ResultsHandler.
func NewResultsHandler(
	resultsService *service.ResultsService,
	submissionService *service.SubmissionService,
	examService *service.ExamService,
	courseService *service.CourseService,
) *ResultsHandler {
	return &ResultsHandler{
		resultsService:    resultsService,
		submissionService: submissionService,
		examService:       examService,
		courseService:     courseService,
	}
}

// ListByExam godoc
// GET /api/v1/staff/exams/:exam_id/results?page=1&per_page=50
func (h *ResultsHandler) ListByExam(c *gin.Context) {
	examID, ok := h.authorizeExam(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "50"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 200 {
		perPage = 50
	}

	reviews, total, err := h.resultsService.ListByExam(c.Request.Context(), examID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if reviews == nil {
		reviews = []model.SubmissionReview{}
	}

	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": reviews}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: totalPages,
	})
}

// Review godoc
// GET /api/v1/staff/submissions/:submission_id
// Returns one submission with a breakdown recomputed against the current
// answer key.
func (h *ResultsHandler) Review(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	submissionID, err := uuid.Parse(c.Param("submission_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	review, err := h.submissionService.Review(c.Request.Context(), submissionID)
	if err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	exam, err := h.examService.Get(c.Request.Context(), review.ExamID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if _, err := h.courseService.Authorize(c.Request.Context(), exam.CourseID, claims.UserID, model.StaffRole(claims.Role)); err != nil {
		failCourseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"submission": review})
}

// ExportExcel godoc
// GET /api/v1/staff/exams/:exam_id/results/export
// Streams the exam's results as an .xlsx download.
func (h *ResultsHandler) ExportExcel(c *gin.Context) {
	examID, ok := h.authorizeExam(c)
	if !ok {
		return
	}

	data, filename, err := h.resultsService.ExportExcel(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *ResultsHandler) authorizeExam(c *gin.Context) (uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return uuid.Nil, false
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}

	exam, err := h.examService.Get(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return uuid.Nil, false
	}

	if _, err := h.courseService.Authorize(c.Request.Context(), exam.CourseID, claims.UserID, model.StaffRole(claims.Role)); err != nil {
		failCourseError(c, err)
		return uuid.Nil, false
	}

	return examID, true
}
