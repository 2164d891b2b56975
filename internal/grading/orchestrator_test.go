package grading

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func batchQuestions() []Q {
	return []Q{
		{
			ID: "q-mcq", Type: TypeMCQ, Marks: 10,
			Choices: []Choice{{ID: "a", Text: "Venus"}, {ID: "b", Text: "Mars", Correct: true}},
		},
		{ID: "q-fib", Type: TypeFIB, Marks: 10, AnswerKey: "paris"},
		{
			ID: "q-open", Type: TypeOpenEnded, Marks: 10,
			Text: "Explain photosynthesis.", ModelAnswer: "Plants convert light into chemical energy.",
		},
		{
			ID: "q-skip", Type: TypeMCQ, Marks: 5,
			Choices: []Choice{{ID: "x", Text: "Yes", Correct: true}, {ID: "y", Text: "No"}},
		},
	}
}

func TestEvaluateAllMixedBatch(t *testing.T) {
	ev := &fakeEvaluator{resp: EvalResponse{Score: 8.4, Raw: json.RawMessage(`{"score":8.4}`)}}
	grader := NewDefaultGrader(WithSemanticEvaluator(ev))
	o := NewOrchestrator(grader, nil)

	batch := o.EvaluateAll(context.Background(), batchQuestions(), []AnswerInput{
		{QuestionID: "q-mcq", Text: "B"},
		{QuestionID: "q-fib", Text: "Paris"},
		{QuestionID: "q-open", Text: "Plants turn sunlight into energy."},
		{QuestionID: "q-skip", Text: "   "},
	})

	if len(batch.Answers) != 4 {
		t.Fatalf("answers = %d, want 4", len(batch.Answers))
	}
	if batch.Total != 28 {
		t.Fatalf("total = %v, want 28", batch.Total)
	}

	byID := map[string]EvaluatedAnswer{}
	for _, a := range batch.Answers {
		byID[a.QuestionID] = a
	}
	if a := byID["q-mcq"]; a.Score != 10 || a.Verdict != VerdictCorrect || a.EvaluatedAt == nil {
		t.Fatalf("mcq: %+v", a)
	}
	if a := byID["q-fib"]; a.Score != 10 || a.Verdict != VerdictCorrect {
		t.Fatalf("fib: %+v", a)
	}
	if a := byID["q-open"]; a.Score != 8 || a.Verdict != VerdictPartial || len(a.AIEvaluation) == 0 {
		t.Fatalf("open: %+v", a)
	}

	// The blank answer resolves synchronously with no evaluator call, but it
	// still counts as evaluated.
	skip := byID["q-skip"]
	if skip.Score != 0 || skip.Verdict != VerdictIncorrect || skip.EvaluatedAt == nil {
		t.Fatalf("blank answer: %+v", skip)
	}
}

func TestEvaluateAllFailureIsolation(t *testing.T) {
	// The external evaluator is down. Open-ended answers score zero but the
	// deterministic questions still grade, and the failed answer carries the
	// nil EvaluatedAt / nil AIEvaluation markers.
	ev := &fakeEvaluator{err: errors.New("connection refused")}
	o := NewOrchestrator(NewDefaultGrader(WithSemanticEvaluator(ev)), nil)

	batch := o.EvaluateAll(context.Background(), batchQuestions(), []AnswerInput{
		{QuestionID: "q-mcq", Text: "B"},
		{QuestionID: "q-open", Text: "an honest effort"},
	})

	byID := map[string]EvaluatedAnswer{}
	for _, a := range batch.Answers {
		byID[a.QuestionID] = a
	}
	if a := byID["q-mcq"]; a.Score != 10 || a.EvaluatedAt == nil {
		t.Fatalf("mcq must grade despite evaluator outage: %+v", a)
	}
	failed := byID["q-open"]
	if failed.Score != 0 || failed.Verdict != VerdictIncorrect {
		t.Fatalf("failed answer must score zero incorrect: %+v", failed)
	}
	if failed.EvaluatedAt != nil || failed.AIEvaluation != nil {
		t.Fatalf("failed answer must not carry evaluation markers: %+v", failed)
	}
	if batch.Total != 10 {
		t.Fatalf("total = %v, want 10", batch.Total)
	}
}

func TestEvaluateAllUnknownQuestionSkipped(t *testing.T) {
	o := NewOrchestrator(NewDefaultGrader(), nil)
	batch := o.EvaluateAll(context.Background(), batchQuestions(), []AnswerInput{
		{QuestionID: "q-mcq", Text: "B"},
		{QuestionID: "q-ghost", Text: "whatever"},
	})
	if len(batch.Answers) != 1 {
		t.Fatalf("answers = %d, want 1 (unknown question dropped)", len(batch.Answers))
	}
}

type panicGrader struct{}

func (panicGrader) Grade(context.Context, Q, interface{}) (Result, error) {
	panic("strategy bug")
}

func TestEvaluateAllSurvivesPanic(t *testing.T) {
	o := NewOrchestrator(panicGrader{}, nil)
	batch := o.EvaluateAll(context.Background(), batchQuestions()[:1], []AnswerInput{
		{QuestionID: "q-mcq", Text: "B"},
	})
	if len(batch.Answers) != 1 {
		t.Fatalf("answers = %d, want 1", len(batch.Answers))
	}
	a := batch.Answers[0]
	if a.Score != 0 || a.Verdict != VerdictIncorrect || a.EvaluatedAt != nil {
		t.Fatalf("panicked evaluation must degrade to failed zero: %+v", a)
	}
}

func TestEvaluateAllEmptyInputs(t *testing.T) {
	o := NewOrchestrator(NewDefaultGrader(), nil)
	batch := o.EvaluateAll(context.Background(), nil, nil)
	if len(batch.Answers) != 0 || batch.Total != 0 {
		t.Fatalf("empty batch: %+v", batch)
	}
}
