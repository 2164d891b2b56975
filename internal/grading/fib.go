package grading

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
)

// fibStrategy scores one-or-more fill-in-blank answers. Both the answer key
// and the submission may encode multiple blanks as a JSON array of strings;
// anything that does not parse as an array is treated as a single value,
// except a non-JSON submission against a multi-blank key, which is split on
// commas into parallel entries.
//
// Per blank, first rule that applies wins:
//  1. empty expected value: blank skipped, contributes no weight
//  2. exact normalized equality: full credit
//  3. multi-term expected value with term overlap >= threshold: credit equal
//     to the overlap fraction
//  4. zero
type fibStrategy struct {
	threshold float64
}

func (s fibStrategy) Grade(_ context.Context, q Q, response interface{}) (Result, error) {
	res := Result{MaxMarks: q.Marks, Verdict: VerdictIncorrect}
	resp, ok := response.(string)
	if !ok {
		return res, errors.New("response must be string")
	}
	if strings.TrimSpace(q.AnswerKey) == "" {
		// No answer key on record: deterministic zero, not an error.
		return res, nil
	}

	expected := decodeBlanks(q.AnswerKey)
	submitted, isJSON := tryDecodeBlanks(resp)
	if !isJSON && len(expected) > 1 {
		submitted = strings.Split(resp, ",")
	}

	for i := range expected {
		expected[i] = normalize(expected[i])
	}
	for i := range submitted {
		submitted[i] = normalize(submitted[i])
	}
	// Pad the shorter side so blanks align by index. Positions beyond the
	// expected length carry no weight.
	for len(submitted) < len(expected) {
		submitted = append(submitted, "")
	}

	blanks := 0
	credit := 0.0
	for i, exp := range expected {
		if exp == "" {
			continue
		}
		blanks++
		sub := submitted[i]
		if exp == sub {
			credit += 1.0
			continue
		}
		expTerms := terms(exp)
		if len(expTerms) > 1 {
			if frac := termOverlap(expTerms, terms(sub)); frac >= s.threshold {
				credit += frac
			}
		}
	}
	if blanks == 0 {
		return res, nil
	}

	marksPerBlank := q.Marks / float64(blanks)
	score := math.Round(credit * marksPerBlank)
	if score > q.Marks {
		score = q.Marks
	}
	res.Score = score
	switch {
	case score == q.Marks:
		res.Verdict = VerdictCorrect
	case score > 0:
		res.Verdict = VerdictPartial
	default:
		res.Verdict = VerdictIncorrect
	}
	return res, nil
}

// decodeBlanks parses a value that may be a JSON array of blanks; any other
// shape is a single blank.
func decodeBlanks(raw string) []string {
	out, ok := tryDecodeBlanks(raw)
	if !ok {
		return []string{raw}
	}
	return out
}

func tryDecodeBlanks(raw string) ([]string, bool) {
	var arr []string
	if err := json.Unmarshal([]byte(raw), &arr); err != nil {
		return []string{raw}, false
	}
	return arr, true
}
