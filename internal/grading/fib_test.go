package grading

import (
	"context"
	"testing"
)

func fibQuestion(marks float64, key string) Q {
	return Q{ID: "q1", Type: TypeFIB, Marks: marks, AnswerKey: key}
}

func gradeFIB(t *testing.T, q Q, response string) Result {
	t.Helper()
	res, err := fibStrategy{threshold: 0.70}.Grade(context.Background(), q, response)
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	return res
}

func TestFIBExactMatch(t *testing.T) {
	cases := []struct {
		name     string
		response string
	}{
		{"verbatim", "photosynthesis"},
		{"case folded", "PhotoSynthesis"},
		{"whitespace trimmed", "  photosynthesis \n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := gradeFIB(t, fibQuestion(5, "photosynthesis"), tc.response)
			if res.Score != 5 || res.Verdict != VerdictCorrect {
				t.Fatalf("got score=%v verdict=%q, want full marks correct", res.Score, res.Verdict)
			}
		})
	}
}

func TestFIBWhitespaceCollapsed(t *testing.T) {
	res := gradeFIB(t, fibQuestion(5, "New   Delhi"), "new delhi")
	if res.Score != 5 {
		t.Fatalf("score = %v, want 5", res.Score)
	}
}

func TestFIBWrongAnswer(t *testing.T) {
	res := gradeFIB(t, fibQuestion(5, "photosynthesis"), "respiration")
	if res.Score != 0 || res.Verdict != VerdictIncorrect {
		t.Fatalf("got score=%v verdict=%q, want zero incorrect", res.Score, res.Verdict)
	}
}

func TestFIBMultiBlankJSON(t *testing.T) {
	q := fibQuestion(10, `["red","blue"]`)

	res := gradeFIB(t, q, `["red","blue"]`)
	if res.Score != 10 || res.Verdict != VerdictCorrect {
		t.Fatalf("both right: got score=%v verdict=%q", res.Score, res.Verdict)
	}

	res = gradeFIB(t, q, `["red","green"]`)
	if res.Score != 5 || res.Verdict != VerdictPartial {
		t.Fatalf("one right: got score=%v verdict=%q, want 5 partial", res.Score, res.Verdict)
	}

	// Blanks align by position, not by set membership.
	res = gradeFIB(t, q, `["blue","red"]`)
	if res.Score != 0 {
		t.Fatalf("swapped: score = %v, want 0", res.Score)
	}
}

func TestFIBCommaFallback(t *testing.T) {
	// A plain-text submission against a multi-blank key splits on commas.
	q := fibQuestion(10, `["paris","france"]`)
	res := gradeFIB(t, q, "Paris, France")
	if res.Score != 10 || res.Verdict != VerdictCorrect {
		t.Fatalf("got score=%v verdict=%q, want full marks correct", res.Score, res.Verdict)
	}
}

func TestFIBMissingTrailingBlanks(t *testing.T) {
	q := fibQuestion(10, `["red","blue"]`)
	res := gradeFIB(t, q, `["red"]`)
	if res.Score != 5 || res.Verdict != VerdictPartial {
		t.Fatalf("got score=%v verdict=%q, want 5 partial", res.Score, res.Verdict)
	}
}

func TestFIBTermOverlapPartialCredit(t *testing.T) {
	// Expected terms: london, the, capital, england (short tokens drop out).
	// Submission hits 3 of 4: overlap 0.75 clears the 0.70 threshold and the
	// credit equals the fraction, so 0.75 * 4 marks rounds to 3.
	q := fibQuestion(4, "London is the capital of England")
	res := gradeFIB(t, q, "london the capital")
	if res.Score != 3 || res.Verdict != VerdictPartial {
		t.Fatalf("got score=%v verdict=%q, want 3 partial", res.Score, res.Verdict)
	}
}

func TestFIBOverlapBelowThreshold(t *testing.T) {
	// 2 of 4 expected terms is 0.50, below threshold: no credit at all.
	q := fibQuestion(4, "London is the capital of England")
	res := gradeFIB(t, q, "london capital")
	if res.Score != 0 || res.Verdict != VerdictIncorrect {
		t.Fatalf("got score=%v verdict=%q, want zero incorrect", res.Score, res.Verdict)
	}
}

func TestFIBSingleTermNoOverlapCredit(t *testing.T) {
	// Overlap scoring needs at least two expected terms; a near-miss on a
	// single-term key stays zero.
	res := gradeFIB(t, fibQuestion(5, "photosynthesis"), "photosynthesis process")
	if res.Score != 0 {
		t.Fatalf("score = %v, want 0", res.Score)
	}
}

func TestFIBEmptyAnswerKey(t *testing.T) {
	res := gradeFIB(t, fibQuestion(5, "   "), "anything")
	if res.Score != 0 || res.Verdict != VerdictIncorrect {
		t.Fatalf("got score=%v verdict=%q, want zero incorrect", res.Score, res.Verdict)
	}
}

func TestFIBEmptyExpectedBlankCarriesNoWeight(t *testing.T) {
	// The empty second blank is skipped, so the single real blank carries all
	// the marks.
	q := fibQuestion(10, `["red",""]`)
	res := gradeFIB(t, q, `["red","whatever"]`)
	if res.Score != 10 || res.Verdict != VerdictCorrect {
		t.Fatalf("got score=%v verdict=%q, want full marks correct", res.Score, res.Verdict)
	}
}

func TestFIBScoreCappedAtMarks(t *testing.T) {
	// Rounding must never push the score past the question's marks.
	res := gradeFIB(t, fibQuestion(2.5, "osmosis"), "osmosis")
	if res.Score != 2.5 {
		t.Fatalf("score = %v, want 2.5", res.Score)
	}
	if res.Verdict != VerdictCorrect {
		t.Fatalf("verdict = %q, want correct", res.Verdict)
	}
}

func TestFIBNonStringResponse(t *testing.T) {
	if _, err := fibStrategy{threshold: 0.70}.Grade(context.Background(), fibQuestion(5, "x"), []string{"x"}); err == nil {
		t.Fatal("expected error for non-string response")
	}
}
