package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/crimewise/crimewise-backend/internal/config"
	"github.com/crimewise/crimewise-backend/internal/handler"
	"github.com/crimewise/crimewise-backend/internal/middleware"
	"github.com/crimewise/crimewise-backend/internal/response"
	"github.com/crimewise/crimewise-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	Course        *handler.CourseHandler
	Question      *handler.QuestionHandler
	Exam          *handler.ExamHandler
	Results       *handler.ResultsHandler
	StudentPortal *handler.StudentPortalHandler
	StudentMgmt   *handler.StudentManagementHandler
	StaffUser     *handler.StaffUserHandler
	WS            *handler.WSHandler
	Monitor       *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/student/login", handlers.Auth.StudentLogin)
		auth.POST("/staff/login", handlers.Auth.StaffLogin)

		// Authenticated profile routes
		auth.POST("/student/logout", middleware.RequireStudentJWT(authService), handlers.Auth.StudentLogout)
		auth.GET("/student/me", middleware.RequireStudentJWT(authService), handlers.Auth.GetStudentProfile)
		auth.GET("/staff/me", middleware.RequireStaffJWT(authService), handlers.Auth.GetStaffProfile)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.GET("/courses", handlers.StudentPortal.ListCourses)
		studentAPI.POST("/courses/:course_id/subscribe", handlers.StudentPortal.Subscribe)
		studentAPI.POST("/courses/:course_id/unsubscribe", handlers.StudentPortal.Unsubscribe)
		studentAPI.GET("/subscriptions", handlers.StudentPortal.ListSubscriptions)

		studentAPI.GET("/lobby", handlers.StudentPortal.GetLobby)
		studentAPI.POST("/exams/:exam_id/start", handlers.StudentPortal.StartExam)
		studentAPI.GET("/exams/:exam_id/paper", handlers.StudentPortal.GetExamPaper)
		studentAPI.GET("/exams/:exam_id/state", handlers.StudentPortal.GetState)
		studentAPI.POST("/exams/:exam_id/tab-switch", handlers.StudentPortal.RecordTabSwitch)
		studentAPI.POST("/exams/:exam_id/submit", handlers.StudentPortal.SubmitExam)
		studentAPI.GET("/exams/:exam_id/result", handlers.StudentPortal.GetResult)
	}

	// ─── 3. WebSocket Group (Token via Query Param) ────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/student/exams/:exam_id/stream",
			middleware.RequireStudentWSAuth(authService),
			handlers.WS.ExamStream,
		)
		ws.GET("/staff/exams/:exam_id/monitor",
			middleware.RequireStaffWSAuth(authService),
			handlers.Monitor.MonitorExam,
		)
	}

	// ─── 4. Staff Group (JWT, Role-Gated Where Needed) ─────────────────
	staffAPI := router.Group("/api/v1/staff")
	staffAPI.Use(middleware.RequireStaffJWT(authService))
	{
		// Courses: admins see everything, instructors their own.
		staffAPI.GET("/courses", handlers.Course.List)
		staffAPI.POST("/courses", handlers.Course.Create)
		staffAPI.GET("/courses/:course_id", handlers.Course.Get)
		staffAPI.PUT("/courses/:course_id", handlers.Course.Update)
		staffAPI.DELETE("/courses/:course_id", handlers.Course.Delete)

		// Question bank.
		staffAPI.GET("/courses/:course_id/questions", handlers.Question.ListByCourse)
		staffAPI.POST("/questions", handlers.Question.Create)
		staffAPI.GET("/questions/:question_id", handlers.Question.Get)
		staffAPI.PUT("/questions/:question_id", handlers.Question.Update)
		staffAPI.DELETE("/questions/:question_id", handlers.Question.Delete)
		staffAPI.POST("/questions/grade-preview", handlers.Question.PreviewGrade)
		staffAPI.POST("/questions/:question_id/regrade", handlers.Question.Regrade)

		// Exam lifecycle.
		staffAPI.GET("/courses/:course_id/exams", handlers.Exam.ListByCourse)
		staffAPI.POST("/exams", handlers.Exam.Create)
		staffAPI.GET("/exams/:exam_id", handlers.Exam.Get)
		staffAPI.PUT("/exams/:exam_id", handlers.Exam.Update)
		staffAPI.DELETE("/exams/:exam_id", handlers.Exam.Delete)

		// Results and review.
		staffAPI.GET("/exams/:exam_id/results", handlers.Results.ListByExam)
		staffAPI.GET("/exams/:exam_id/results/export", handlers.Results.ExportExcel)
		staffAPI.GET("/submissions/:submission_id", handlers.Results.Review)

		// Examinee accounts (admin only).
		staffAPI.GET("/students", middleware.RequireAdmin(), handlers.StudentMgmt.List)
		staffAPI.POST("/students", middleware.RequireAdmin(), handlers.StudentMgmt.Create)
		staffAPI.GET("/students/:student_id", middleware.RequireAdmin(), handlers.StudentMgmt.Get)
		staffAPI.PUT("/students/:student_id", middleware.RequireAdmin(), handlers.StudentMgmt.Update)
		staffAPI.DELETE("/students/:student_id", middleware.RequireAdmin(), handlers.StudentMgmt.Delete)

		// Staff accounts (admin only).
		staffAPI.GET("/users", middleware.RequireAdmin(), handlers.StaffUser.List)
		staffAPI.POST("/users", middleware.RequireAdmin(), handlers.StaffUser.Create)
		staffAPI.GET("/users/:user_id", middleware.RequireAdmin(), handlers.StaffUser.Get)
		staffAPI.PUT("/users/:user_id", middleware.RequireAdmin(), handlers.StaffUser.Update)
		staffAPI.DELETE("/users/:user_id", middleware.RequireAdmin(), handlers.StaffUser.Delete)
	}

	return router
}
