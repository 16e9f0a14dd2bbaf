package scoring

import "testing"

func row(pairs ...string) SpecimenRow {
	r := SpecimenRow{}
	for i := 0; i+1 < len(pairs); i += 2 {
		r[pairs[i]] = pairs[i+1]
	}
	return r
}

func weighted(r SpecimenRow, points float64) SpecimenRow {
	r["points"] = points
	return r
}

func TestGradeTable(t *testing.T) {
	tests := []struct {
		name         string
		key          []SpecimenRow
		answers      []SpecimenRow
		wantScore    float64
		wantPossible float64
		wantCorrect  []bool
	}{
		{
			name:         "empty key and answers",
			key:          []SpecimenRow{},
			answers:      []SpecimenRow{},
			wantScore:    0,
			wantPossible: 0,
			wantCorrect:  []bool{},
		},
		{
			name:         "weighted row fully correct",
			key:          []SpecimenRow{weighted(row("specimen", "Q1", "writer", "John"), 2)},
			answers:      []SpecimenRow{row("specimen", "Q1", "writer", "John")},
			wantScore:    2,
			wantPossible: 2,
			wantCorrect:  []bool{true},
		},
		{
			name:         "weighted row one field wrong",
			key:          []SpecimenRow{weighted(row("specimen", "Q1", "writer", "John"), 2)},
			answers:      []SpecimenRow{row("specimen", "Q1", "writer", "Jane")},
			wantScore:    0,
			wantPossible: 2,
			wantCorrect:  []bool{false},
		},
		{
			name: "all or nothing two of three",
			key:  []SpecimenRow{row("specimen", "Q1", "writer", "John", "slant", "right")},
			answers: []SpecimenRow{
				row("specimen", "Q1", "writer", "John", "slant", "left"),
			},
			wantScore:    0,
			wantPossible: 1,
			wantCorrect:  []bool{false},
		},
		{
			name: "all or nothing three of three",
			key:  []SpecimenRow{row("specimen", "Q1", "writer", "John", "slant", "right")},
			answers: []SpecimenRow{
				row("specimen", "Q1", "writer", "John", "slant", "right"),
			},
			wantScore:    1,
			wantPossible: 1,
			wantCorrect:  []bool{true},
		},
		{
			name:         "trim and case fold",
			key:          []SpecimenRow{row("writer", "john doe")},
			answers:      []SpecimenRow{row("writer", "  John Doe  ")},
			wantScore:    1,
			wantPossible: 1,
			wantCorrect:  []bool{true},
		},
		{
			name:         "blank reference column skipped",
			key:          []SpecimenRow{row("specimen", "Q1", "notes", "")},
			answers:      []SpecimenRow{row("specimen", "Q1", "notes", "anything at all")},
			wantScore:    1,
			wantPossible: 1,
			wantCorrect:  []bool{true},
		},
		{
			name:         "missing student row",
			key:          []SpecimenRow{row("specimen", "Q1"), row("specimen", "Q2")},
			answers:      []SpecimenRow{row("specimen", "Q1")},
			wantScore:    1,
			wantPossible: 2,
			wantCorrect:  []bool{true, false},
		},
		{
			name: "mixed weights accumulate",
			key: []SpecimenRow{
				weighted(row("specimen", "Q1", "writer", "John"), 2),
				row("specimen", "Q2", "writer", "Mary"),
				weighted(row("specimen", "Q3", "writer", "Alice"), 3),
			},
			answers: []SpecimenRow{
				row("specimen", "Q1", "writer", "John"),
				row("specimen", "Q2", "writer", "WRONG"),
				row("specimen", "Q3", "writer", "alice"),
			},
			wantScore:    5,
			wantPossible: 6,
			wantCorrect:  []bool{true, false, true},
		},
		{
			name:         "rows with differing shapes grade their own columns",
			key:          []SpecimenRow{row("specimen", "Q1"), row("specimen", "Q2", "tremor", "present")},
			answers:      []SpecimenRow{row("specimen", "Q1"), row("specimen", "Q2", "tremor", "absent")},
			wantScore:    1,
			wantPossible: 2,
			wantCorrect:  []bool{true, false},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := GradeTable(tc.key, tc.answers)
			if got.TotalScore != tc.wantScore {
				t.Errorf("TotalScore = %v, want %v", got.TotalScore, tc.wantScore)
			}
			if got.TotalPossiblePoints != tc.wantPossible {
				t.Errorf("TotalPossiblePoints = %v, want %v", got.TotalPossiblePoints, tc.wantPossible)
			}
			if len(got.RowDetails) != len(tc.wantCorrect) {
				t.Fatalf("len(RowDetails) = %d, want %d", len(got.RowDetails), len(tc.wantCorrect))
			}
			for i, want := range tc.wantCorrect {
				if got.RowDetails[i].Correct != want {
					t.Errorf("row %d correct = %v, want %v", i, got.RowDetails[i].Correct, want)
				}
			}
		})
	}
}

func TestGradeTableColumnScores(t *testing.T) {
	key := []SpecimenRow{row("specimen", "Q1", "writer", "John")}
	answers := []SpecimenRow{row("specimen", "Q1", "writer", "Jane")}

	got := GradeTable(key, answers)

	cs := got.RowDetails[0].ColumnScores
	if len(cs) != 2 {
		t.Fatalf("len(ColumnScores) = %d, want 2", len(cs))
	}
	if !cs["specimen"].IsExactMatch {
		t.Errorf("specimen column should match")
	}
	if cs["writer"].IsExactMatch {
		t.Errorf("writer column should not match")
	}
	if cs["writer"].UserValue != "Jane" || cs["writer"].CorrectValue != "John" {
		t.Errorf("writer column values = %+v", cs["writer"])
	}
}

func TestGradeTableMissingRowHasEmptyColumnScores(t *testing.T) {
	got := GradeTable([]SpecimenRow{row("specimen", "Q1")}, []SpecimenRow{})
	if len(got.RowDetails) != 1 {
		t.Fatalf("len(RowDetails) = %d, want 1", len(got.RowDetails))
	}
	rd := got.RowDetails[0]
	if rd.Correct || rd.Points != 0 || len(rd.ColumnScores) != 0 {
		t.Fatalf("missing row graded as %+v, want incorrect with no column scores", rd)
	}
}
