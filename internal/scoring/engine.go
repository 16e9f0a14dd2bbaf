package scoring

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
)

// Question types understood by the engine. Image questions grade exactly
// like text questions: the images are presentation, the answer is text.
const (
	QuestionTypeForensic = "forensic"
	QuestionTypeText     = "text"
	QuestionTypeImage    = "image"
)

// QuestionKey is the engine's read-only view of a question: its type, the
// raw persisted answer-key blob and the flat maximum for text grading.
type QuestionKey struct {
	Type      string
	AnswerKey string
	MaxPoints float64
}

// Detail is the JSON-serializable grading breakdown persisted alongside a
// score and re-rendered at review time. Implementations are the typed sum
// variants of the loosely-shaped details object the dashboards consume.
type Detail interface {
	isDetail()
}

// ForensicDetail is the breakdown for a forensic table + conclusion grade.
type ForensicDetail struct {
	RowDetails          []RowResult       `json:"rowDetails"`
	TotalScore          float64           `json:"totalScore"`
	TotalPossiblePoints float64           `json:"totalPossiblePoints"`
	ExplanationScore    float64           `json:"explanationScore"`
	ExplanationDetails  *ConclusionResult `json:"explanationDetails,omitempty"`
	ExplanationText     string            `json:"explanationText,omitempty"`
}

func (ForensicDetail) isDetail() {}

// TextDetail is the breakdown for a free-text similarity grade.
type TextDetail struct {
	Similarity    string  `json:"similarity"`
	Score         int     `json:"score"`
	MaxPoints     float64 `json:"maxPoints"`
	UserAnswer    string  `json:"userAnswer"`
	CorrectAnswer string  `json:"correctAnswer"`
}

func (TextDetail) isDetail() {}

// EmptyDetail marks a grade degraded by malformed data. It marshals to {}.
type EmptyDetail struct{}

func (EmptyDetail) isDetail() {}

// Result is the engine's output: an integer score within the question's
// possible points, plus the audit breakdown.
type Result struct {
	Score  int    `json:"score"`
	Detail Detail `json:"details"`
}

// Engine grades submissions. It is stateless and safe for concurrent use;
// the only dependency is a logger for reporting degraded inputs, because
// a student must be able to submit even when the grading data is corrupt.
type Engine struct {
	log zerolog.Logger
}

// NewEngine creates a scoring engine.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("component", "scoring_engine").Logger()}
}

// Score grades a raw submission blob against a question. It is pure given
// its inputs and never panics or returns an error: malformed JSON on
// either side degrades to a zero score with an empty detail, logged for
// instructors to investigate. Re-invoking with unchanged inputs yields an
// identical result, which is what makes review-time recomputation and
// batch regrades safe.
func (e *Engine) Score(question QuestionKey, rawAnswer string) Result {
	switch question.Type {
	case QuestionTypeForensic:
		return e.scoreForensic(question, rawAnswer)
	case QuestionTypeText, QuestionTypeImage:
		return e.scoreText(question, rawAnswer)
	default:
		e.log.Warn().Str("question_type", question.Type).Msg("Unknown question type, scoring zero")
		return Result{Score: 0, Detail: EmptyDetail{}}
	}
}

func (e *Engine) scoreForensic(question QuestionKey, rawAnswer string) Result {
	key, ok := DecodeForensicKey(question.AnswerKey)
	if !ok {
		e.log.Error().Str("reason", "malformed answer key").Msg("Forensic grading degraded")
		return Result{Score: 0, Detail: EmptyDetail{}}
	}

	ans, ok := DecodeForensicAnswer(rawAnswer)
	if !ok {
		// A corrupt submission still produces a full zero breakdown so
		// the review screen can show the key side of the table.
		e.log.Warn().Str("reason", "malformed submission").Msg("Forensic answer unreadable, scoring as unanswered")
		ans = ForensicAnswer{TableAnswers: []SpecimenRow{}}
	}

	table := GradeTable(key.Specimens, ans.TableAnswers)

	detail := ForensicDetail{
		RowDetails:          table.RowDetails,
		TotalScore:          table.TotalScore,
		TotalPossiblePoints: table.TotalPossiblePoints,
		ExplanationText:     ans.Explanation,
	}

	total := table.TotalScore
	possible := table.TotalPossiblePoints

	if key.Explanation != nil {
		conclusion := GradeConclusion(key.Explanation.Conclusion, ans.Conclusion, key.Explanation.Points)
		detail.ExplanationDetails = &conclusion
		detail.ExplanationScore = conclusion.EarnedPoints
		total += conclusion.EarnedPoints
		if key.Explanation.Points > 0 {
			possible += key.Explanation.Points
		}
	}

	return Result{Score: clampScore(total, possible), Detail: detail}
}

func (e *Engine) scoreText(question QuestionKey, rawAnswer string) Result {
	ans, ok := DecodeTextAnswer(rawAnswer)
	if !ok {
		e.log.Warn().Str("reason", "malformed submission").Msg("Text answer unreadable, scoring as unanswered")
		return Result{Score: 0, Detail: EmptyDetail{}}
	}

	maxPoints := question.MaxPoints
	if maxPoints <= 0 {
		maxPoints = 1
	}

	pct := Similarity(ans.Answer, question.AnswerKey)
	score := clampScore(pct/100*maxPoints, maxPoints)

	return Result{
		Score: score,
		Detail: TextDetail{
			Similarity:    fmt.Sprintf("%.1f%%", pct),
			Score:         score,
			MaxPoints:     maxPoints,
			UserAnswer:    ans.Answer,
			CorrectAnswer: question.AnswerKey,
		},
	}
}

// clampScore rounds to the nearest integer and keeps the result inside
// [0, possible]. Rounding may otherwise push a score of 1.5 past a
// possible total of 1.4.
func clampScore(earned, possible float64) int {
	score := int(math.Round(earned))
	if score < 0 {
		score = 0
	}
	if float64(score) > possible {
		score = int(possible)
	}
	return score
}
