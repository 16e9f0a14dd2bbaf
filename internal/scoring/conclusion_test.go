package scoring

import "testing"

func TestGradeConclusion(t *testing.T) {
	tests := []struct {
		name        string
		expected    string
		selected    string
		maxPoints   float64
		wantPoints  float64
		wantMatched bool
	}{
		{name: "match earns full points", expected: "fake", selected: "fake", maxPoints: 5, wantPoints: 5, wantMatched: true},
		{name: "mismatch earns nothing", expected: "fake", selected: "real", maxPoints: 5, wantPoints: 0, wantMatched: false},
		{name: "case and whitespace folded", expected: "fake", selected: "  Fake  ", maxPoints: 3, wantPoints: 3, wantMatched: true},
		{name: "no expectation any answer counts", expected: "", selected: "real", maxPoints: 4, wantPoints: 4, wantMatched: true},
		{name: "empty selection never scores", expected: "fake", selected: "", maxPoints: 5, wantPoints: 0, wantMatched: false},
		{name: "empty selection with no expectation", expected: "", selected: "", maxPoints: 5, wantPoints: 0, wantMatched: false},
		{name: "zero max points disables grading", expected: "fake", selected: "fake", maxPoints: 0, wantPoints: 0, wantMatched: false},
		{name: "negative max points disables grading", expected: "fake", selected: "fake", maxPoints: -2, wantPoints: 0, wantMatched: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := GradeConclusion(tc.expected, tc.selected, tc.maxPoints)
			if got.EarnedPoints != tc.wantPoints {
				t.Errorf("EarnedPoints = %v, want %v", got.EarnedPoints, tc.wantPoints)
			}
			if got.ConclusionMatched != tc.wantMatched {
				t.Errorf("ConclusionMatched = %v, want %v", got.ConclusionMatched, tc.wantMatched)
			}
		})
	}
}
