package grading

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// EvalRequest is the call contract with the external semantic-evaluation
// service.
type EvalRequest struct {
	QuestionText  string  `json:"question_text"`
	ModelAnswer   string  `json:"model_answer"`
	StudentAnswer string  `json:"student_answer"`
	MaxMarks      float64 `json:"max_marks"`
}

// EvalResponse is a validated response from the external service. Raw keeps
// the full payload for storage alongside the answer.
type EvalResponse struct {
	Score        float64
	Feedback     string
	HowToImprove string
	Raw          json.RawMessage
}

// SemanticEvaluator scores free-form prose against a model answer. The
// implementation calls an external model; see grading/semantic.
type SemanticEvaluator interface {
	Evaluate(ctx context.Context, req EvalRequest) (EvalResponse, error)
}

// openEndedStrategy delegates scoring to the external semantic evaluator.
// Every precondition failure and every malformed response surfaces as a
// distinct error; this strategy never silently converts a bad response into
// a zero score. The caller decides fallback behavior.
type openEndedStrategy struct {
	evaluator SemanticEvaluator
}

func (s openEndedStrategy) Grade(ctx context.Context, q Q, response interface{}) (Result, error) {
	res := Result{MaxMarks: q.Marks, Verdict: VerdictIncorrect}
	if strings.TrimSpace(q.Text) == "" {
		return res, errors.New("question text is required for evaluation")
	}
	if strings.TrimSpace(q.ModelAnswer) == "" {
		return res, errors.New("model answer is required for evaluation")
	}
	if response == nil {
		return res, errors.New("student answer is required for evaluation")
	}
	resp, ok := response.(string)
	if !ok {
		return res, errors.New("response must be string")
	}
	if q.Marks <= 0 {
		return res, fmt.Errorf("question marks must be positive, got %v", q.Marks)
	}
	if s.evaluator == nil {
		return res, errors.New("semantic evaluator not configured")
	}

	ev, err := s.evaluator.Evaluate(ctx, EvalRequest{
		QuestionText:  q.Text,
		ModelAnswer:   q.ModelAnswer,
		StudentAnswer: resp, // empty string is a legal submission
		MaxMarks:      q.Marks,
	})
	if err != nil {
		return res, err
	}

	// Scores are always integral regardless of the model's fractional output.
	score := math.Round(ev.Score)
	res.Score = score
	res.AIEvaluation = ev.Raw
	switch {
	case score >= q.Marks:
		res.Verdict = VerdictCorrect
	case score > 0:
		res.Verdict = VerdictPartial
	default:
		res.Verdict = VerdictIncorrect
	}
	return res, nil
}
