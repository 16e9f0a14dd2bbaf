package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/crimewise/crimewise-backend/internal/middleware"
	"github.com/crimewise/crimewise-backend/internal/response"
	"github.com/crimewise/crimewise-backend/internal/service"
)

// streamRouter wires the two WebSocket routes without auth middleware so
// tests can exercise the pre-upgrade rejections directly. Those paths never
// reach storage, so both handlers are built with nil services.
func streamRouter(withClaims bool) *gin.Engine {
	gin.SetMode(gin.TestMode)

	wsHandler := NewWSHandler(nil, zerolog.Nop(), nil)
	monitorHandler := NewMonitorHandler(nil, nil, nil, zerolog.Nop(), nil)

	r := gin.New()
	if withClaims {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ContextKeyClaims, &service.Claims{UserID: 1, Role: "instructor"})
			c.Next()
		})
	}
	r.GET("/student/exams/:exam_id/stream", wsHandler.ExamStream)
	r.GET("/staff/exams/:exam_id/monitor", monitorHandler.MonitorExam)
	return r
}

func getStream(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeErrCode(t *testing.T, w *httptest.ResponseRecorder) response.ErrCode {
	t.Helper()
	var body struct {
		Error struct {
			Code response.ErrCode `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body.Error.Code
}

func TestExamStreamRejectsWithEnvelope(t *testing.T) {
	anonymous := streamRouter(false)
	authed := streamRouter(true)

	w := getStream(t, anonymous, "/student/exams/3b2c1d0e-0000-0000-0000-000000000000/stream")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if code := decodeErrCode(t, w); code != response.ErrTokenRequired {
		t.Errorf("error code = %q, want %q", code, response.ErrTokenRequired)
	}

	w = getStream(t, authed, "/student/exams/not-a-uuid/stream")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if code := decodeErrCode(t, w); code != response.ErrInvalidID {
		t.Errorf("error code = %q, want %q", code, response.ErrInvalidID)
	}
}

func TestMonitorExamRejectsWithEnvelope(t *testing.T) {
	anonymous := streamRouter(false)
	authed := streamRouter(true)

	w := getStream(t, anonymous, "/staff/exams/3b2c1d0e-0000-0000-0000-000000000000/monitor")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if code := decodeErrCode(t, w); code != response.ErrTokenRequired {
		t.Errorf("error code = %q, want %q", code, response.ErrTokenRequired)
	}

	w = getStream(t, authed, "/staff/exams/not-a-uuid/monitor")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if code := decodeErrCode(t, w); code != response.ErrInvalidID {
		t.Errorf("error code = %q, want %q", code, response.ErrInvalidID)
	}
}
