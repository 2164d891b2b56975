package grading

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AnswerInput is one stored answer handed to the orchestrator for batch
// evaluation.
type AnswerInput struct {
	QuestionID string
	Text       string
}

// EvaluatedAnswer is one answer after batch evaluation. EvaluatedAt is nil
// when the evaluator failed for this question; together with the missing
// AIEvaluation payload that is how callers distinguish "evaluator failed"
// from a genuine zero. These markers are load-bearing, not cosmetic.
type EvaluatedAnswer struct {
	QuestionID   string
	Text         string
	Score        float64
	MaxMarks     float64
	Verdict      Verdict
	AIEvaluation json.RawMessage
	EvaluatedAt  *time.Time
}

// BatchResult is the enriched answer set plus the attempt total. This is the
// only place a single total is derived from heterogeneous per-question
// verdicts.
type BatchResult struct {
	Answers []EvaluatedAnswer
	Total   float64
}

// Orchestrator dispatches each answer to the evaluator matching its question
// type. Evaluations run concurrently with no ordering dependency between
// questions, and a failure in one question degrades to a zero-score result
// for that question only; EvaluateAll always resolves fully.
type Orchestrator struct {
	grader Grader
	log    *zap.Logger
	now    func() time.Time
}

func NewOrchestrator(grader Grader, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{grader: grader, log: log, now: time.Now}
}

// EvaluateAll grades every answer that has a corresponding question.
// Questions with no matching answer are omitted from the result set; filling
// those in is the caller's responsibility.
func (o *Orchestrator) EvaluateAll(ctx context.Context, questions []Q, answers []AnswerInput) BatchResult {
	byID := make(map[string]Q, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	out := make([]EvaluatedAnswer, 0, len(answers))
	type job struct {
		idx int
		q   Q
	}
	var jobs []job
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			o.log.Warn("answer references unknown question, skipping",
				zap.String("question_id", a.QuestionID))
			continue
		}
		ev := EvaluatedAnswer{QuestionID: a.QuestionID, Text: a.Text, MaxMarks: q.Marks}
		if isBlank(a.Text) {
			// Unanswered questions resolve synchronously: no evaluator call,
			// deterministic verdict.
			now := o.now()
			ev.Verdict = VerdictIncorrect
			ev.EvaluatedAt = &now
			out = append(out, ev)
			continue
		}
		ev.Verdict = VerdictPending
		out = append(out, ev)
		jobs = append(jobs, job{idx: len(out) - 1, q: q})
	}

	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			defer func() {
				// A panicking strategy must not take the batch down; it
				// degrades to a failed (zero, unmarked) result.
				if r := recover(); r != nil {
					o.log.Error("evaluator panicked",
						zap.String("question_id", j.q.ID), zap.Any("panic", r))
					out[j.idx].Score = 0
					out[j.idx].Verdict = VerdictIncorrect
					out[j.idx].AIEvaluation = nil
					out[j.idx].EvaluatedAt = nil
				}
			}()
			res, err := o.grader.Grade(ctx, j.q, out[j.idx].Text)
			if err != nil {
				o.log.Warn("evaluation failed, scoring zero",
					zap.String("question_id", j.q.ID),
					zap.String("question_type", j.q.Type),
					zap.Error(err))
				out[j.idx].Verdict = VerdictIncorrect
				return
			}
			now := o.now()
			out[j.idx].Score = math.Round(res.Score)
			out[j.idx].Verdict = res.Verdict
			out[j.idx].AIEvaluation = res.AIEvaluation
			out[j.idx].EvaluatedAt = &now
		}(j)
	}
	wg.Wait()

	total := 0.0
	for _, ev := range out {
		total += ev.Score
	}
	return BatchResult{Answers: out, Total: total}
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
