package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/crimewise/crimewise-backend/internal/config"
	"github.com/crimewise/crimewise-backend/internal/middleware"
	"github.com/crimewise/crimewise-backend/internal/model"
	"github.com/crimewise/crimewise-backend/internal/response"
	"github.com/crimewise/crimewise-backend/internal/service"
	ws "github.com/crimewise/crimewise-backend/internal/websocket"
)

const monitorKeepAlive = 30 * time.Second

// MonitorHandler streams live proctoring events (session starts, tab
// switches, submits) to the exam's instructor over a WebSocket fed by
// Redis Pub/Sub.
type MonitorHandler struct {
	rdb           *redis.Client
	examService   *service.ExamService
	courseService *service.CourseService
	log           zerolog.Logger
	upgrader      websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(
	rdb *redis.Client,
	examService *service.ExamService,
	courseService *service.CourseService,
	log zerolog.Logger,
	allowedOrigins []string,
) *MonitorHandler {
	return &MonitorHandler{
		rdb:           rdb,
		examService:   examService,
		courseService: courseService,
		log:           log.With().Str("component", "monitor_handler").Logger(),
		upgrader:      buildUpgrader(allowedOrigins),
	}
}

// MonitorExam godoc
// WS /ws/v1/staff/exams/:exam_id/monitor
func (h *MonitorHandler) MonitorExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exam, err := h.examService.Get(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	if _, err := h.courseService.Authorize(c.Request.Context(), exam.CourseID, claims.UserID, model.StaffRole(claims.Role)); err != nil {
		failCourseError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	reqCtx := c.Request.Context()
	channelName := config.CacheKey.ExamMonitorChannel(examID.String())
	pubsub := h.rdb.Subscribe(reqCtx, channelName)
	defer pubsub.Close()

	events := pubsub.Channel()
	keepAlive := time.NewTicker(monitorKeepAlive)
	defer keepAlive.Stop()

	h.log.Info().Str("exam_id", examID.String()).Int("user_id", claims.UserID).Msg("Instructor attached to live monitor")

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Str("exam_id", examID.String()).Msg("Instructor detached from live monitor")
			return

		case msg, ok := <-events:
			if !ok {
				return
			}
			// Forward raw JSON as published; the payload is already the
			// wire format.
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				h.log.Debug().Err(err).Msg("Monitor connection closed")
				return
			}

		case <-keepAlive.C:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}
		}
	}
}
