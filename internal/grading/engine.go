package grading

import (
	"context"
	"encoding/json"
	"fmt"
)

// Question types understood by the engine.
const (
	TypeMCQ       = "mcq"
	TypeFIB       = "fib"
	TypeOpenEnded = "open_ended"
)

// Verdict is the tri-state correctness outcome for one answer. The zero
// value means "not yet evaluated" and must never be conflated with
// VerdictPartial.
type Verdict string

const (
	VerdictPending   Verdict = ""
	VerdictCorrect   Verdict = "correct"
	VerdictIncorrect Verdict = "incorrect"
	VerdictPartial   Verdict = "partial"
)

// Choice is a minimal view of one MCQ option needed for grading.
type Choice struct {
	ID      string
	Text    string
	Correct bool
}

// Q is a minimal view of a question needed for grading.
// Keep this in sync with whatever fields your store uses.
type Q struct {
	ID          string
	Type        string
	Text        string
	Marks       float64
	Choices     []Choice // mcq only, in display order
	AnswerKey   string   // fib only; single value or a JSON array of blanks
	ModelAnswer string   // open_ended only
}

// Result is the outcome of grading a single question response.
type Result struct {
	Score        float64
	MaxMarks     float64
	Verdict      Verdict
	AIEvaluation json.RawMessage // raw external payload, open_ended only
}

// Strategy grades a single question.
type Strategy interface {
	Grade(ctx context.Context, q Q, response interface{}) (Result, error)
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, q Q, response interface{}) (Result, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q Q, response interface{}) (Result, error) {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{MaxMarks: q.Marks, Verdict: VerdictIncorrect}, fmt.Errorf("no strategy for question type %q", q.Type)
	}
	return s.Grade(ctx, q, response)
}

// Engine options

type Option func(*config)

type config struct {
	PartialThreshold float64           // minimum term-overlap fraction for fib partial credit
	Evaluator        SemanticEvaluator // external service backing open_ended
}

func WithPartialThreshold(f float64) Option { return func(c *config) { c.PartialThreshold = f } }

func WithSemanticEvaluator(e SemanticEvaluator) Option {
	return func(c *config) { c.Evaluator = e }
}

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{
		PartialThreshold: 0.70,
	}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{
		strategies: map[string]Strategy{
			TypeMCQ:       mcqStrategy{},
			TypeFIB:       fibStrategy{threshold: cfg.PartialThreshold},
			TypeOpenEnded: openEndedStrategy{evaluator: cfg.Evaluator},
		},
	}
}
