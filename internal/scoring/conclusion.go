package scoring

import "strings"

// Conclusion values a student may assert about the examined document.
const (
	ConclusionFake = "fake"
	ConclusionReal = "real"
)

// ConclusionResult is the grading outcome of the fake/real conclusion.
type ConclusionResult struct {
	EarnedPoints      float64 `json:"earnedPoints"`
	ConclusionMatched bool    `json:"conclusionMatched"`
	Expected          string  `json:"expected,omitempty"`
	Selected          string  `json:"selected,omitempty"`
}

// GradeConclusion awards the explanation points configured on the answer
// key. Matching is trim + case-fold. Policy for a key without an expected
// conclusion: any non-empty selection earns full credit, since the
// instructor asked for a judgement without committing to one. An empty
// selection never earns points. maxPoints <= 0 disables conclusion
// grading entirely. The function cannot fail; absent fields are treated
// as empty strings by the decode layer.
func GradeConclusion(expected, studentConclusion string, maxPoints float64) ConclusionResult {
	expected = strings.ToLower(strings.TrimSpace(expected))
	selected := strings.ToLower(strings.TrimSpace(studentConclusion))

	result := ConclusionResult{Expected: expected, Selected: selected}

	if maxPoints <= 0 || selected == "" {
		return result
	}

	if expected == "" || expected == selected {
		result.ConclusionMatched = true
		result.EarnedPoints = maxPoints
	}

	return result
}
