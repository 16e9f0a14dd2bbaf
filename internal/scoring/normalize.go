package scoring

import "strings"

// punctuation is the fixed character set stripped before tokenizing.
const punctuation = ".,/#!$%^&*;:{}=-_`~()"

// stopWords are dropped from token streams before comparison. Articles,
// pronouns, conjunctions and the most common prepositions carry no signal
// for forensic free-text answers.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {},
	"i": {}, "me": {}, "my": {}, "we": {}, "our": {}, "you": {}, "your": {},
	"he": {}, "him": {}, "his": {}, "she": {}, "her": {}, "it": {}, "its": {},
	"they": {}, "them": {}, "their": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"and": {}, "or": {}, "but": {}, "nor": {}, "so": {}, "yet": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "of": {}, "for": {}, "by": {},
	"with": {}, "from": {}, "as": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "has": {}, "have": {}, "had": {},
}

// Normalize lowercases the input, strips punctuation, splits on whitespace
// runs and drops stop-words and tokens of length <= 1. Empty input yields
// an empty slice. The function is pure and allocation is proportional to
// the number of surviving tokens.
func Normalize(text string) []string {
	lowered := strings.ToLower(text)

	// Punctuation is removed, not replaced: "well-known" collapses to
	// "wellknown", matching how stored reference answers were authored.
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if strings.ContainsRune(punctuation, r) {
			continue
		}
		b.WriteRune(r)
	}

	fields := strings.Fields(b.String())
	tokens := make([]string, 0, len(fields))
	for _, tok := range fields {
		if len(tok) <= 1 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}
