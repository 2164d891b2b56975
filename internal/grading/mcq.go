package grading

import (
	"context"
	"errors"
	"strings"
)

// mcqStrategy scores a single-choice answer against the one option flagged
// correct. The submitted token matches either the correct option's identifier
// or the uppercase letter of its position in display order (A = first).
// Scoring is strictly binary: full marks or zero, never partial.
type mcqStrategy struct{}

func (mcqStrategy) Grade(_ context.Context, q Q, response interface{}) (Result, error) {
	res := Result{MaxMarks: q.Marks, Verdict: VerdictIncorrect}
	resp, ok := response.(string)
	if !ok {
		return res, errors.New("response must be string")
	}

	correctIdx := -1
	for i, c := range q.Choices {
		if c.Correct {
			correctIdx = i
			break
		}
	}
	if correctIdx < 0 {
		// Malformed question data. Deterministic zero rather than an error:
		// a broken question must never crash a student's attempt.
		return res, nil
	}

	token := strings.TrimSpace(resp)
	correct := q.Choices[correctIdx]
	if token == correct.ID || strings.ToUpper(token) == positionLetter(correctIdx) {
		res.Score = q.Marks
		res.Verdict = VerdictCorrect
	}
	return res, nil
}

// positionLetter maps an option index to its display letter: 0 -> "A".
func positionLetter(i int) string {
	if i < 0 || i >= 26 {
		return ""
	}
	return string(rune('A' + i))
}
