package scoring

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func testEngine() *Engine {
	return NewEngine(zerolog.Nop())
}

func TestEngineScoreForensic(t *testing.T) {
	key := `{
		"specimens": [
			{"specimen": "Q1", "writer": "John", "points": 2},
			{"specimen": "Q2", "writer": "Mary", "points": 3}
		],
		"explanation": {"points": 5, "conclusion": "fake"}
	}`

	tests := []struct {
		name      string
		answer    string
		wantScore int
	}{
		{
			name: "everything correct",
			answer: `{
				"tableAnswers": [
					{"specimen": "Q1", "writer": "john"},
					{"specimen": "q2", "writer": " Mary "}
				],
				"explanation": "the slant is inconsistent",
				"conclusion": "fake"
			}`,
			wantScore: 10,
		},
		{
			name: "wrong conclusion drops explanation points",
			answer: `{
				"tableAnswers": [
					{"specimen": "Q1", "writer": "John"},
					{"specimen": "Q2", "writer": "Mary"}
				],
				"conclusion": "real"
			}`,
			wantScore: 5,
		},
		{
			name: "one row wrong",
			answer: `{
				"tableAnswers": [
					{"specimen": "Q1", "writer": "John"},
					{"specimen": "Q2", "writer": "Nancy"}
				],
				"conclusion": "fake"
			}`,
			wantScore: 7,
		},
		{
			name:      "no answers at all",
			answer:    `{"tableAnswers": [], "conclusion": ""}`,
			wantScore: 0,
		},
		{
			name:      "malformed submission scores zero",
			answer:    `{not valid json`,
			wantScore: 0,
		},
	}

	engine := testEngine()
	question := QuestionKey{Type: QuestionTypeForensic, AnswerKey: key}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.Score(question, tc.answer)
			if got.Score != tc.wantScore {
				t.Fatalf("Score = %d, want %d", got.Score, tc.wantScore)
			}
			detail, ok := got.Detail.(ForensicDetail)
			if !ok {
				t.Fatalf("Detail type = %T, want ForensicDetail", got.Detail)
			}
			if detail.TotalPossiblePoints != 5 {
				t.Errorf("TotalPossiblePoints = %v, want 5", detail.TotalPossiblePoints)
			}
		})
	}
}

func TestEngineScoreForensicMalformedKey(t *testing.T) {
	engine := testEngine()
	got := engine.Score(
		QuestionKey{Type: QuestionTypeForensic, AnswerKey: `{not valid json`},
		`{"tableAnswers": [{"specimen": "Q1"}]}`,
	)
	if got.Score != 0 {
		t.Fatalf("Score = %d, want 0", got.Score)
	}
	if _, ok := got.Detail.(EmptyDetail); !ok {
		t.Fatalf("Detail type = %T, want EmptyDetail", got.Detail)
	}
	raw, err := json.Marshal(got.Detail)
	if err != nil {
		t.Fatalf("marshal detail: %v", err)
	}
	if string(raw) != "{}" {
		t.Fatalf("empty detail marshals to %s, want {}", raw)
	}
}

func TestEngineScoreForensicNonArraySpecimens(t *testing.T) {
	engine := testEngine()
	got := engine.Score(
		QuestionKey{Type: QuestionTypeForensic, AnswerKey: `{"specimens": "oops"}`},
		`{"tableAnswers": []}`,
	)
	if got.Score != 0 {
		t.Fatalf("Score = %d, want 0", got.Score)
	}
}

func TestEngineScoreText(t *testing.T) {
	engine := testEngine()
	question := QuestionKey{
		Type:      QuestionTypeText,
		AnswerKey: "ink density is uniform across strokes",
		MaxPoints: 10,
	}

	// Worked example from the similarity tests: 71.75% of 10 rounds to 7.
	got := engine.Score(question, `{"answer": "ink density uniform strokes"}`)
	if got.Score != 7 {
		t.Fatalf("Score = %d, want 7", got.Score)
	}

	detail, ok := got.Detail.(TextDetail)
	if !ok {
		t.Fatalf("Detail type = %T, want TextDetail", got.Detail)
	}
	if detail.Similarity != "71.8%" {
		t.Errorf("Similarity = %q, want %q", detail.Similarity, "71.8%")
	}
	if detail.MaxPoints != 10 {
		t.Errorf("MaxPoints = %v, want 10", detail.MaxPoints)
	}
	if detail.UserAnswer != "ink density uniform strokes" {
		t.Errorf("UserAnswer = %q", detail.UserAnswer)
	}
}

func TestEngineScoreTextEdgeCases(t *testing.T) {
	engine := testEngine()

	tests := []struct {
		name      string
		question  QuestionKey
		answer    string
		wantScore int
	}{
		{
			name:      "empty answer",
			question:  QuestionKey{Type: QuestionTypeText, AnswerKey: "reference", MaxPoints: 10},
			answer:    `{"answer": ""}`,
			wantScore: 0,
		},
		{
			name:      "malformed submission",
			question:  QuestionKey{Type: QuestionTypeText, AnswerKey: "reference", MaxPoints: 10},
			answer:    `{not json`,
			wantScore: 0,
		},
		{
			name:      "zero max points defaults to one",
			question:  QuestionKey{Type: QuestionTypeText, AnswerKey: "uniform", MaxPoints: 0},
			answer:    `{"answer": "uniform"}`,
			wantScore: 1,
		},
		{
			name:      "image grades like text",
			question:  QuestionKey{Type: QuestionTypeImage, AnswerKey: "uniform", MaxPoints: 4},
			answer:    `{"answer": "uniform"}`,
			wantScore: 4,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.Score(tc.question, tc.answer)
			if got.Score != tc.wantScore {
				t.Fatalf("Score = %d, want %d", got.Score, tc.wantScore)
			}
		})
	}
}

func TestEngineUnknownTypeScoresZero(t *testing.T) {
	engine := testEngine()
	got := engine.Score(QuestionKey{Type: "essay", AnswerKey: "x"}, `{"answer": "x"}`)
	if got.Score != 0 {
		t.Fatalf("Score = %d, want 0", got.Score)
	}
	if _, ok := got.Detail.(EmptyDetail); !ok {
		t.Fatalf("Detail type = %T, want EmptyDetail", got.Detail)
	}
}

// Re-grading the same inputs must produce a deep-equal result; the regrade
// worker and review-time recomputation both rely on this.
func TestEngineDeterministic(t *testing.T) {
	engine := testEngine()
	question := QuestionKey{
		Type: QuestionTypeForensic,
		AnswerKey: `{
			"specimens": [
				{"specimen": "Q1", "writer": "John", "slant": "right", "points": 2},
				{"specimen": "Q2", "writer": "Mary", "slant": "left"}
			],
			"explanation": {"points": 5, "conclusion": "fake"}
		}`,
	}
	answer := `{
		"tableAnswers": [
			{"specimen": "Q1", "writer": "John", "slant": "right"},
			{"specimen": "Q2", "writer": "mary", "slant": "LEFT"}
		],
		"explanation": "tremor in the baseline",
		"conclusion": "fake"
	}`

	first := engine.Score(question, answer)
	firstJSON, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	for i := 0; i < 20; i++ {
		again := engine.Score(question, answer)
		againJSON, err := json.Marshal(again)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(againJSON) != string(firstJSON) {
			t.Fatalf("run %d differs:\n%s\n%s", i, firstJSON, againJSON)
		}
	}
}

func TestEngineScoreBounds(t *testing.T) {
	engine := testEngine()
	question := QuestionKey{
		Type:      QuestionTypeForensic,
		AnswerKey: `{"specimens": [{"specimen": "Q1", "points": 2}], "explanation": {"points": 5, "conclusion": "fake"}}`,
	}

	answers := []string{
		`{"tableAnswers": [{"specimen": "Q1"}], "conclusion": "fake"}`,
		`{"tableAnswers": [{"specimen": "wrong"}], "conclusion": "real"}`,
		`{"tableAnswers": []}`,
		`broken`,
	}
	for _, ans := range answers {
		got := engine.Score(question, ans)
		if got.Score < 0 || got.Score > 7 {
			t.Fatalf("Score = %d out of [0,7] for answer %s", got.Score, ans)
		}
	}
}
