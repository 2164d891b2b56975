package exam

import (
	"fmt"
	"math"
	"strings"
)

// Validate checks the structural invariants an exam must satisfy before it
// can be published: every MCQ has exactly four choices with exactly one
// flagged correct, every fib question has an answer key, every open-ended
// question has a model answer, marks are positive, and the exam total equals
// the sum of its questions' marks.
func (e Exam) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("exam %s: title required", e.ID)
	}
	sum := 0.0
	for _, q := range e.Questions {
		if err := q.validate(); err != nil {
			return err
		}
		sum += q.Marks
	}
	if math.Abs(sum-e.TotalMarks) > 0.1 {
		return fmt.Errorf("exam %s: total_marks %.1f does not match question sum %.1f", e.ID, e.TotalMarks, sum)
	}
	return nil
}

func (q Question) validate() error {
	if q.Marks <= 0 {
		return fmt.Errorf("question %s: marks must be positive", q.ID)
	}
	switch q.Type {
	case TypeMCQ:
		if len(q.Choices) != 4 {
			return fmt.Errorf("question %s: mcq requires exactly 4 choices, got %d", q.ID, len(q.Choices))
		}
		correct := 0
		for _, c := range q.Choices {
			if c.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			return fmt.Errorf("question %s: mcq requires exactly 1 correct choice, got %d", q.ID, correct)
		}
	case TypeFIB:
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			return fmt.Errorf("question %s: fib requires a correct_answer", q.ID)
		}
	case TypeOpenEnded:
		if strings.TrimSpace(q.ModelAnswer) == "" {
			return fmt.Errorf("question %s: open_ended requires a model_answer", q.ID)
		}
	default:
		return fmt.Errorf("question %s: unknown type %q", q.ID, q.Type)
	}
	return nil
}
