package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/crimewise/crimewise-backend/internal/scoring"
	"github.com/crimewise/crimewise-backend/internal/service"
	"github.com/crimewise/crimewise-backend/internal/validator"
)

// previewRouter wires only the grade-preview route. The preview path never
// touches storage, so the service is built with nil repositories.
func previewRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	validator.Setup()

	engine := scoring.NewEngine(zerolog.Nop())
	questionService := service.NewQuestionService(nil, nil, nil, engine, nil, zerolog.Nop())
	h := NewQuestionHandler(questionService, nil)

	r := gin.New()
	r.POST("/grade-preview", h.PreviewGrade)
	return r
}

func postPreview(t *testing.T, r *gin.Engine, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/grade-preview", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPreviewGradeForensic(t *testing.T) {
	r := previewRouter()

	key := `{
		"specimens": [
			{"slant": "right", "pressure": "heavy", "points": 2},
			{"slant": "left", "pressure": "light", "points": 1}
		],
		"explanation": {"points": 5, "conclusion": "fake"}
	}`
	answer := `{
		"tableAnswers": [
			{"slant": "right", "pressure": "heavy"},
			{"slant": "left", "pressure": "light"}
		],
		"explanation": "Consistent slant and pressure across all specimens.",
		"conclusion": "fake"
	}`

	w := postPreview(t, r, map[string]any{
		"type":       "forensic",
		"answer_key": key,
		"answer":     answer,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Data struct {
			Result struct {
				Score int `json:"score"`
			} `json:"result"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Data.Result.Score != 8 {
		t.Errorf("score = %d, want 8 (table 3 + conclusion 5)", body.Data.Result.Score)
	}
}

func TestPreviewGradeText(t *testing.T) {
	r := previewRouter()

	w := postPreview(t, r, map[string]any{
		"type":       "text",
		"answer_key": "The ink shows consistent line quality",
		"answer":     `{"answer": "The ink shows consistent line quality"}`,
		"points":     5,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Data struct {
			Result struct {
				Score int `json:"score"`
			} `json:"result"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Data.Result.Score != 5 {
		t.Errorf("score = %d, want full 5 for identical answer", body.Data.Result.Score)
	}
}

func TestPreviewGradeValidation(t *testing.T) {
	r := previewRouter()

	// Missing answer_key and answer must be rejected before grading.
	w := postPreview(t, r, map[string]any{"type": "text"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var body struct {
		Error struct {
			Fields map[string]string `json:"fields"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := body.Error.Fields["answer_key"]; !ok {
		t.Errorf("expected field error for answer_key, got %v", body.Error.Fields)
	}
}

func TestPreviewGradeMalformedKeyDegrades(t *testing.T) {
	r := previewRouter()

	w := postPreview(t, r, map[string]any{
		"type":       "forensic",
		"answer_key": "{not json",
		"answer":     `{"tableAnswers": []}`,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Data struct {
			Result struct {
				Score int `json:"score"`
			} `json:"result"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Data.Result.Score != 0 {
		t.Errorf("score = %d, want 0 for malformed key", body.Data.Result.Score)
	}
}
