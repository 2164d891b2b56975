package exam

import (
	"encoding/json"
	"time"

	"github.com/gradeflow/gradeflow/internal/grading"
)

// Question types.
const (
	TypeMCQ       = grading.TypeMCQ
	TypeFIB       = grading.TypeFIB
	TypeOpenEnded = grading.TypeOpenEnded
)

// Attempt statuses. The only legal transition is in_progress -> completed.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

type Choice struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct,omitempty"`
	OrderIndex int    `json:"order_index"`
}

type Question struct {
	ID   string `json:"id"`
	Type string `json:"type"` // mcq, fib, open_ended
	Text string `json:"text"`
	// Marks may carry one decimal place; see AllocateMarks.
	Marks         float64  `json:"marks"`
	Choices       []Choice `json:"choices,omitempty"`        // mcq only, in display order
	CorrectAnswer string   `json:"correct_answer,omitempty"` // fib: single value or JSON array of blanks
	ModelAnswer   string   `json:"model_answer,omitempty"`   // open_ended only
}

type Exam struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	TotalMarks  float64    `json:"total_marks"`
	IsPublished bool       `json:"is_published"`
	Questions   []Question `json:"questions"`
	CreatedAt   int64      `json:"created_at,omitempty"`
}

// ExamSummary is the list view of an exam, without question bodies.
type ExamSummary struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	TotalMarks  float64 `json:"total_marks"`
	IsPublished bool    `json:"is_published"`
	Questions   int     `json:"questions"`
	CreatedAt   int64   `json:"created_at,omitempty"`
}

// Attempt is one student's pass through one exam.
type Attempt struct {
	ID          string     `json:"id"`
	ExamID      string     `json:"exam_id"`
	StudentID   string     `json:"student_id"`
	Status      string     `json:"status"`
	TotalScore  float64    `json:"total_score"`
	StartedAt   time.Time  `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// Answer is one answer to one question within one attempt, unique per
// (attempt_id, question_id). EvaluatedAt is nil until an evaluation ran and
// stays nil when the evaluator failed; do not set it cosmetically.
type Answer struct {
	AttemptID    string          `json:"attempt_id"`
	QuestionID   string          `json:"question_id"`
	Text         string          `json:"text"`
	Verdict      grading.Verdict `json:"verdict,omitempty"`
	Score        float64         `json:"score"`
	AIEvaluation json.RawMessage `json:"ai_evaluation,omitempty"`
	EvaluatedAt  *time.Time      `json:"evaluated_at,omitempty"`
}

// Statistics is the attempt-level tally derived once at submission. The four
// counts always sum to TotalQuestions.
type Statistics struct {
	AttemptID        string `json:"attempt_id"`
	Correct          int    `json:"correct_count"`
	Incorrect        int    `json:"incorrect_count"`
	PartiallyCorrect int    `json:"partially_correct_count"`
	Skipped          int    `json:"skipped_count"`
	TotalQuestions   int    `json:"total_questions"`
}

// Summary converts an exam to its list view.
func (e Exam) Summary() ExamSummary {
	return ExamSummary{
		ID:          e.ID,
		Title:       e.Title,
		TotalMarks:  e.TotalMarks,
		IsPublished: e.IsPublished,
		Questions:   len(e.Questions),
		CreatedAt:   e.CreatedAt,
	}
}

// Question returns the question with the given ID, if present.
func (e Exam) Question(id string) (Question, bool) {
	for _, q := range e.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// GradingView converts a question to the grading engine's input shape.
func (q Question) GradingView() grading.Q {
	gq := grading.Q{
		ID:          q.ID,
		Type:        q.Type,
		Text:        q.Text,
		Marks:       q.Marks,
		AnswerKey:   q.CorrectAnswer,
		ModelAnswer: q.ModelAnswer,
	}
	for _, c := range q.Choices {
		gq.Choices = append(gq.Choices, grading.Choice{ID: c.ID, Text: c.Text, Correct: c.IsCorrect})
	}
	return gq
}
