package grading

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type fakeEvaluator struct {
	resp EvalResponse
	err  error
	got  EvalRequest
}

func (f *fakeEvaluator) Evaluate(_ context.Context, req EvalRequest) (EvalResponse, error) {
	f.got = req
	return f.resp, f.err
}

func openQuestion(marks float64) Q {
	return Q{
		ID:          "q1",
		Type:        TypeOpenEnded,
		Text:        "Explain the water cycle.",
		Marks:       marks,
		ModelAnswer: "Evaporation, condensation, precipitation and collection.",
	}
}

func TestOpenEndedGrade(t *testing.T) {
	raw := json.RawMessage(`{"score":8.4,"feedback":"good"}`)
	ev := &fakeEvaluator{resp: EvalResponse{Score: 8.4, Feedback: "good", Raw: raw}}
	s := openEndedStrategy{evaluator: ev}

	res, err := s.Grade(context.Background(), openQuestion(10), "Water evaporates and falls as rain.")
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if res.Score != 8 {
		t.Fatalf("score = %v, want 8 (fractional model output rounds)", res.Score)
	}
	if res.Verdict != VerdictPartial {
		t.Fatalf("verdict = %q, want partial", res.Verdict)
	}
	if string(res.AIEvaluation) != string(raw) {
		t.Fatalf("AIEvaluation not carried through: %s", res.AIEvaluation)
	}
	if ev.got.MaxMarks != 10 || ev.got.ModelAnswer == "" || ev.got.QuestionText == "" {
		t.Fatalf("request not fully populated: %+v", ev.got)
	}
}

func TestOpenEndedVerdictBounds(t *testing.T) {
	cases := []struct {
		score   float64
		verdict Verdict
	}{
		{10, VerdictCorrect},
		{12, VerdictCorrect}, // model overshoot still reads as correct
		{0.4, VerdictIncorrect},
		{0, VerdictIncorrect},
		{5, VerdictPartial},
	}
	for _, tc := range cases {
		s := openEndedStrategy{evaluator: &fakeEvaluator{resp: EvalResponse{Score: tc.score}}}
		res, err := s.Grade(context.Background(), openQuestion(10), "answer")
		if err != nil {
			t.Fatalf("Grade(%v): %v", tc.score, err)
		}
		if res.Verdict != tc.verdict {
			t.Fatalf("score %v: verdict = %q, want %q", tc.score, res.Verdict, tc.verdict)
		}
	}
}

func TestOpenEndedEmptySubmissionIsLegal(t *testing.T) {
	ev := &fakeEvaluator{resp: EvalResponse{Score: 0}}
	s := openEndedStrategy{evaluator: ev}
	if _, err := s.Grade(context.Background(), openQuestion(10), ""); err != nil {
		t.Fatalf("empty string submission must reach the evaluator: %v", err)
	}
	if ev.got.StudentAnswer != "" {
		t.Fatalf("student answer = %q, want empty", ev.got.StudentAnswer)
	}
}

func TestOpenEndedPreconditions(t *testing.T) {
	ev := &fakeEvaluator{resp: EvalResponse{Score: 5}}

	cases := []struct {
		name string
		q    Q
		resp interface{}
		s    openEndedStrategy
	}{
		{"missing question text", func() Q { q := openQuestion(10); q.Text = " "; return q }(), "a", openEndedStrategy{evaluator: ev}},
		{"missing model answer", func() Q { q := openQuestion(10); q.ModelAnswer = ""; return q }(), "a", openEndedStrategy{evaluator: ev}},
		{"nil response", openQuestion(10), nil, openEndedStrategy{evaluator: ev}},
		{"non-string response", openQuestion(10), 7, openEndedStrategy{evaluator: ev}},
		{"non-positive marks", openQuestion(0), "a", openEndedStrategy{evaluator: ev}},
		{"no evaluator configured", openQuestion(10), "a", openEndedStrategy{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := tc.s.Grade(context.Background(), tc.q, tc.resp)
			if err == nil {
				t.Fatal("expected error")
			}
			if res.Score != 0 || res.Verdict != VerdictIncorrect {
				t.Fatalf("failed grade must be zero incorrect, got score=%v verdict=%q", res.Score, res.Verdict)
			}
		})
	}
}

func TestOpenEndedEvaluatorErrorPropagates(t *testing.T) {
	want := errors.New("service down")
	s := openEndedStrategy{evaluator: &fakeEvaluator{err: want}}
	_, err := s.Grade(context.Background(), openQuestion(10), "answer")
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}
