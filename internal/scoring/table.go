package scoring

import "strings"

// ColumnScore records how a single table cell compared against the key.
// It is persisted inside the details blob and rendered in the results
// breakdown, so the field names are part of the stored wire format.
type ColumnScore struct {
	IsExactMatch bool   `json:"isExactMatch"`
	UserValue    string `json:"userValue"`
	CorrectValue string `json:"correctValue"`
}

// RowResult is the grading outcome for one specimen row.
type RowResult struct {
	RowIndex       int                    `json:"rowIndex"`
	Correct        bool                   `json:"correct"`
	Points         float64                `json:"points"`
	PossiblePoints float64                `json:"possiblePoints"`
	ColumnScores   map[string]ColumnScore `json:"columnScores"`
}

// TableResult aggregates per-row outcomes for a forensic table.
type TableResult struct {
	RowDetails          []RowResult `json:"rowDetails"`
	TotalScore          float64     `json:"totalScore"`
	TotalPossiblePoints float64     `json:"totalPossiblePoints"`
}

// GradeTable compares a forensic answer key against a student's table
// answers. Grading is all-or-nothing per row: the row's full weight is
// awarded only when every non-empty reference column matches the student's
// value after trimming and case-folding, otherwise zero. Columns are taken
// from each key row's own shape, so keys whose rows differ in fields still
// grade every legitimate field. A missing student row is simply incorrect.
func GradeTable(key []SpecimenRow, studentAnswers []SpecimenRow) TableResult {
	result := TableResult{RowDetails: make([]RowResult, 0, len(key))}

	for i, keyRow := range key {
		weight := keyRow.Weight()
		result.TotalPossiblePoints += weight

		row := RowResult{
			RowIndex:       i,
			PossiblePoints: weight,
			ColumnScores:   map[string]ColumnScore{},
		}

		if i >= len(studentAnswers) {
			result.RowDetails = append(result.RowDetails, row)
			continue
		}
		studentRow := studentAnswers[i]

		// Vacuously correct when every reference cell is blank: a row
		// with no required fields cannot be failed, only skipped rows
		// (missing student row above) score zero.
		correct := true
		for _, col := range keyRow.Columns() {
			expected := strings.TrimSpace(keyRow.Field(col))
			if expected == "" {
				// Blank reference cell: the field is not required.
				continue
			}

			got := strings.TrimSpace(studentRow.Field(col))
			match := strings.EqualFold(expected, got)
			if !match {
				correct = false
			}
			row.ColumnScores[col] = ColumnScore{
				IsExactMatch: match,
				UserValue:    got,
				CorrectValue: expected,
			}
		}

		if correct {
			row.Correct = true
			row.Points = weight
			result.TotalScore += weight
		}

		result.RowDetails = append(result.RowDetails, row)
	}

	return result
}
