package scoring

import (
	"math"
	"strings"
)

// Weights of the similarity heuristic. Exact token overlap dominates;
// positional agreement and fuzzy substring overlap act as smaller bonuses.
const (
	exactMatchWeight = 70
	orderBonusWeight = 15
	fuzzyBonusWeight = 15

	// Tokens must be longer than this to participate in the fuzzy pass.
	fuzzyMinTokenLen = 3
)

// Similarity compares a free-text answer against a reference answer and
// returns a percentage in [0, 100]. It is a heuristic over normalized
// tokens, not an edit distance:
//
//   - exact pass: each user token scores a hit against the first
//     case-insensitive equal reference token, plus a position bonus of
//     1 - |relPosUser - relPosRef| rewarding tokens that sit at a
//     proportionally similar place in both answers;
//   - fuzzy pass: user tokens longer than three characters score 0.5 when
//     they contain or are contained by any qualifying reference token.
//
// The passes are independent: reference tokens are never consumed, so a
// repeated user token can hit the same reference token twice. Iteration is
// slice order, so the result is deterministic for fixed inputs.
func Similarity(userAnswer, referenceAnswer string) float64 {
	if strings.TrimSpace(userAnswer) == "" || strings.TrimSpace(referenceAnswer) == "" {
		return 0
	}

	userTokens := Normalize(userAnswer)
	refTokens := Normalize(referenceAnswer)
	if len(userTokens) == 0 || len(refTokens) == 0 {
		return 0
	}

	matchCount := 0
	orderScoreSum := 0.0

	for ui, ut := range userTokens {
		for ri, rt := range refTokens {
			if ut != rt {
				continue
			}
			matchCount++
			orderScoreSum += 1 - math.Abs(relativePosition(ui, len(userTokens))-relativePosition(ri, len(refTokens)))
			break
		}
	}

	fuzzyMatchScore := 0.0
	for _, ut := range userTokens {
		if len(ut) <= fuzzyMinTokenLen {
			continue
		}
		for _, rt := range refTokens {
			if len(rt) <= fuzzyMinTokenLen {
				continue
			}
			if strings.Contains(rt, ut) || strings.Contains(ut, rt) {
				fuzzyMatchScore += 0.5
				break
			}
		}
	}

	maxPossible := float64(len(refTokens) * 100)
	if maxPossible == 0 {
		return 0
	}

	total := float64(matchCount)*exactMatchWeight +
		orderScoreSum*orderBonusWeight +
		fuzzyMatchScore*fuzzyBonusWeight

	return math.Min(100, total/maxPossible*100)
}

// relativePosition maps a token index to [0, 1]. A single-token sequence
// maps to 0 to avoid dividing by zero.
func relativePosition(index, length int) float64 {
	if length <= 1 {
		return 0
	}
	return float64(index) / float64(length-1)
}
