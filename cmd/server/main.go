package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/crimewise/crimewise-backend/internal/config"
	"github.com/crimewise/crimewise-backend/internal/database"
	"github.com/crimewise/crimewise-backend/internal/handler"
	"github.com/crimewise/crimewise-backend/internal/logger"
	"github.com/crimewise/crimewise-backend/internal/repository"
	"github.com/crimewise/crimewise-backend/internal/router"
	"github.com/crimewise/crimewise-backend/internal/scoring"
	"github.com/crimewise/crimewise-backend/internal/service"
	"github.com/crimewise/crimewise-backend/internal/validator"
	"github.com/crimewise/crimewise-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting CrimeWise Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	courseRepo := repository.NewCourseRepository(pool)
	subscriptionRepo := repository.NewSubscriptionRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	sessionRepo := repository.NewExamSessionRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	engine := scoring.NewEngine(log)

	authService := service.NewAuthService(cfg, rdb)
	studentService := service.NewStudentService(studentRepo, authService)
	staffService := service.NewStaffService(userRepo, authService)
	courseService := service.NewCourseService(courseRepo, subscriptionRepo)
	questionService := service.NewQuestionService(questionRepo, examRepo, submissionRepo, engine, rdb, log)
	examService := service.NewExamService(examRepo, questionRepo, rdb, log)
	sessionService := service.NewExamSessionService(sessionRepo, subscriptionRepo, examService, rdb, log)
	submissionService := service.NewSubmissionService(submissionRepo, questionRepo, examService, sessionService, engine, log)
	resultsService := service.NewResultsService(submissionRepo, examService, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(authService, studentService, staffService),
		Course:        handler.NewCourseHandler(courseService),
		Question:      handler.NewQuestionHandler(questionService, courseService),
		Exam:          handler.NewExamHandler(examService, courseService),
		Results:       handler.NewResultsHandler(resultsService, submissionService, examService, courseService),
		StudentPortal: handler.NewStudentPortalHandler(courseService, examService, sessionService, submissionService),
		StudentMgmt:   handler.NewStudentManagementHandler(studentService),
		StaffUser:     handler.NewStaffUserHandler(staffService),
		WS:            handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
		Monitor:       handler.NewMonitorHandler(rdb, examService, courseService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	draftsWorker := worker.NewDraftsWorker(pool, rdb, log)
	proctorWorker := worker.NewProctorWorker(pool, rdb, log)
	regradeWorker := worker.NewRegradeWorker(submissionRepo, examRepo, questionRepo, engine, rdb, log)

	go draftsWorker.Start(workerCtx)
	go proctorWorker.Start(workerCtx)
	go regradeWorker.Start(workerCtx)

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load all published exam papers into Redis BEFORE accepting
	// traffic; lazy loading under a thundering herd races.
	examService.PrewarmAllCaches(ctx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
