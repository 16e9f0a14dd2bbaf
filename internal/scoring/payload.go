package scoring

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"
)

// The answer blobs for questions and submissions are persisted as JSON
// strings. This file is the single decode site for those blobs: every
// loose-schema coercion (stringly-typed points, missing fields, non-array
// specimens) lives here so the graders themselves work on clean types.
//
// Blobs may carry an optional integer "version" field. Absent means
// version 1, the only version in circulation. Unknown versions decode as
// empty structures rather than failing, keeping submission paths alive.

// CurrentPayloadVersion is the schema version written for new blobs.
const CurrentPayloadVersion = 1

// rowPointsField is the reserved per-row key holding the point weight.
// It is never treated as a gradeable column.
const rowPointsField = "points"

// SpecimenRow is one row of a forensic comparison table: field name to
// expected (or submitted) value, plus the optional reserved points weight.
type SpecimenRow map[string]any

// Field returns the row's value for a column as a string. Non-string
// values are coerced; missing values yield "".
func (r SpecimenRow) Field(name string) string {
	return coerceString(r[name])
}

// Weight returns the row's point weight. Absent, unparseable or zero
// values all fall back to 1, preserving the historical behaviour of
// loosely-authored keys where a blank weight meant "one point".
func (r SpecimenRow) Weight() float64 {
	raw, ok := r[rowPointsField]
	if !ok {
		return 1
	}
	if w, parsed := coerceNumber(raw); parsed && w != 0 {
		return w
	}
	return 1
}

// Columns returns the row's gradeable column names, excluding the points
// field, sorted for deterministic iteration and output.
func (r SpecimenRow) Columns() []string {
	cols := make([]string, 0, len(r))
	for name := range r {
		if name == rowPointsField {
			continue
		}
		cols = append(cols, name)
	}
	slices.Sort(cols)
	return cols
}

// ForensicKey is the decoded answer key of a forensic question.
type ForensicKey struct {
	Version     int             `json:"version,omitempty"`
	Specimens   []SpecimenRow   `json:"specimens"`
	Explanation *ExplanationKey `json:"explanation,omitempty"`
}

// ExplanationKey configures conclusion grading for a forensic question.
type ExplanationKey struct {
	Points     float64 `json:"points"`
	Conclusion string  `json:"conclusion"`
}

// ForensicAnswer is the decoded submission payload for a forensic question.
type ForensicAnswer struct {
	Version      int           `json:"version,omitempty"`
	TableAnswers []SpecimenRow `json:"tableAnswers"`
	Explanation  string        `json:"explanation"`
	Conclusion   string        `json:"conclusion"`
}

// TextAnswer is the decoded submission payload for a text or image question.
type TextAnswer struct {
	Version     int    `json:"version,omitempty"`
	Answer      string `json:"answer"`
	Explanation string `json:"explanation"`
}

// DecodeForensicKey parses a forensic question's answer key blob. Any
// malformed input or unknown version yields an empty key and false; it
// never returns an error because grading must degrade, not fail.
func DecodeForensicKey(raw string) (ForensicKey, bool) {
	var key ForensicKey
	if err := json.Unmarshal([]byte(raw), &key); err != nil {
		return ForensicKey{}, false
	}
	if !versionSupported(key.Version) {
		return ForensicKey{}, false
	}
	if key.Specimens == nil {
		key.Specimens = []SpecimenRow{}
	}
	return key, true
}

// DecodeForensicAnswer parses a forensic submission blob with the same
// degradation policy as DecodeForensicKey.
func DecodeForensicAnswer(raw string) (ForensicAnswer, bool) {
	var ans ForensicAnswer
	if err := json.Unmarshal([]byte(raw), &ans); err != nil {
		return ForensicAnswer{}, false
	}
	if !versionSupported(ans.Version) {
		return ForensicAnswer{}, false
	}
	if ans.TableAnswers == nil {
		ans.TableAnswers = []SpecimenRow{}
	}
	return ans, true
}

// DecodeTextAnswer parses a text/image submission blob.
func DecodeTextAnswer(raw string) (TextAnswer, bool) {
	var ans TextAnswer
	if err := json.Unmarshal([]byte(raw), &ans); err != nil {
		return TextAnswer{}, false
	}
	if !versionSupported(ans.Version) {
		return TextAnswer{}, false
	}
	return ans, true
}

func versionSupported(v int) bool {
	return v == 0 || v == CurrentPayloadVersion
}

// coerceString renders a loose JSON value the way the original dashboards
// did: strings pass through, numbers print compactly, everything else
// (objects, arrays, null, bool) is treated as empty.
func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

// coerceNumber extracts a numeric value from a loose JSON field. The
// second return reports whether parsing succeeded.
func coerceNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
