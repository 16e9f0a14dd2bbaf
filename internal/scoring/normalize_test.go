package scoring

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty input", in: "", want: []string{}},
		{name: "whitespace only", in: "   \t\n ", want: []string{}},
		{name: "lowercases", in: "Ink DENSITY", want: []string{"ink", "density"}},
		{name: "strips punctuation", in: "ink, density! (uniform)", want: []string{"ink", "density", "uniform"}},
		{name: "hyphen collapses word", in: "well-known stroke", want: []string{"wellknown", "stroke"}},
		{name: "drops stop words", in: "the ink is on the paper", want: []string{"ink", "paper"}},
		{name: "drops single chars", in: "a b c ink", want: []string{"ink"}},
		{name: "whitespace runs", in: "ink   density\t\tstroke", want: []string{"ink", "density", "stroke"}},
		{name: "only stop words", in: "the and of", want: []string{}},
		{name: "only punctuation", in: ".,;:!", want: []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Normalize(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIsPure(t *testing.T) {
	in := "The ink density is uniform"
	first := Normalize(in)
	second := Normalize(in)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Normalize not deterministic: %v vs %v", first, second)
	}
}
