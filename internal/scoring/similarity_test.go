package scoring

import (
	"math"
	"testing"
)

const similarityEpsilon = 1e-9

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		user string
		ref  string
		want float64
	}{
		{name: "empty user", user: "", ref: "anything", want: 0},
		{name: "empty reference", user: "anything", ref: "", want: 0},
		{name: "both empty", user: "", ref: "", want: 0},
		{name: "whitespace user", user: "   ", ref: "anything", want: 0},
		{name: "user normalizes to nothing", user: "the a of", ref: "ink density", want: 0},
		{name: "reference normalizes to nothing", user: "ink density", ref: "the a of", want: 0},
		{name: "no overlap at all", user: "watermark missing", ref: "signature slant", want: 0},
		// Single identical token: 70 exact + 15 order bonus (relPos 0 on
		// both sides) + 0.5*15 fuzzy = 92.5 over max 100.
		{name: "identical single token", user: "uniform", ref: "uniform", want: 92.5},
		// "ink" is only 3 characters and sits out the fuzzy pass, so the
		// identical sentence lands at (3*70 + 3*15 + 2*0.5*15)/300.
		{name: "identical sentence with short token", user: "ink density uniform", ref: "ink density uniform", want: 90},
		// With every token past the fuzzy length cutoff, identical answers
		// score n*(70+15+7.5) over n*100 whatever n is.
		{name: "identical sentence all fuzzy-eligible", user: "density uniform strokes", ref: "density uniform strokes", want: 92.5},
		// Reversed two-token answer: both position bonuses are zero,
		// only "strokes" qualifies for fuzzy. (140+0+7.5)/200.
		{name: "reversed order loses position bonus", user: "strokes ink", ref: "ink strokes", want: 73.75},
		// Repeated user tokens re-hit the same reference token and the
		// raw total blows past 100, so the clamp engages.
		{name: "clamped at 100", user: "ink ink ink ink", ref: "ink", want: 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Similarity(tc.user, tc.ref)
			if math.Abs(got-tc.want) > similarityEpsilon {
				t.Fatalf("Similarity(%q, %q) = %v, want %v", tc.user, tc.ref, got, tc.want)
			}
		})
	}
}

// Worked example: reference "ink density is uniform across strokes"
// normalizes to 5 tokens, the user answer to 4, all matching exactly.
// exact = 4*70 = 280; position bonuses 1 + 0.91666.. + 0.83333.. + 1 =
// 3.75 → 56.25; fuzzy hits density/uniform/strokes ("ink" is too short)
// → 1.5*15 = 22.5. Total 358.75 of 500 = 71.75%.
func TestSimilarityWorkedExample(t *testing.T) {
	got := Similarity("ink density uniform strokes", "ink density is uniform across strokes")
	if math.Abs(got-71.75) > similarityEpsilon {
		t.Fatalf("Similarity = %v, want 71.75", got)
	}
}

func TestSimilarityBounds(t *testing.T) {
	pairs := [][2]string{
		{"ink", "ink density uniform across strokes"},
		{"ink density uniform across strokes and more words here", "ink"},
		{"completely unrelated answer text", "ink density"},
		{"ink ink ink ink ink ink", "ink"},
	}
	for _, p := range pairs {
		got := Similarity(p[0], p[1])
		if got < 0 || got > 100 {
			t.Fatalf("Similarity(%q, %q) = %v out of [0,100]", p[0], p[1], got)
		}
	}
}

func TestSimilarityDeterministic(t *testing.T) {
	user := "ink density appears uniform across the questioned strokes"
	ref := "ink density is uniform across strokes"
	first := Similarity(user, ref)
	for i := 0; i < 10; i++ {
		if got := Similarity(user, ref); got != first {
			t.Fatalf("run %d: Similarity = %v, want %v", i, got, first)
		}
	}
}
