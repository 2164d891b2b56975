package exam

import "context"

type ListOpts struct {
	Q             string // optional title filter
	PublishedOnly bool
	Limit         int
	Offset        int
}

type AttemptListOpts struct {
	ExamID    string // filter by exam
	StudentID string // filter by student
	Status    string // optional: in_progress|completed
	Limit     int
	Offset    int
}

// Store is the persistence contract consumed by the attempt state machine.
// Operations are synchronous request/response and may fail; retrying is the
// caller's business, not the store's.
type Store interface {
	PutExam(ctx context.Context, e Exam) error
	GetExam(ctx context.Context, id string) (Exam, error)     // student-safe (no answer keys)
	GetExamFull(ctx context.Context, id string) (Exam, error) // with keys, for grading/teachers
	ListExams(ctx context.Context, opts ListOpts) ([]ExamSummary, error)

	CreateAttempt(ctx context.Context, a Attempt) error
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	// ActiveAttempt returns the in_progress attempt for the (exam, student)
	// pair, or ErrAttemptNotFound when there is none.
	ActiveAttempt(ctx context.Context, examID, studentID string) (Attempt, error)
	UpdateAttempt(ctx context.Context, a Attempt) error
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)

	// UpsertAnswer writes an answer keyed by (attempt_id, question_id),
	// overwriting in place. Saving is safe to retry arbitrarily.
	UpsertAnswer(ctx context.Context, a Answer) error
	GetAnswer(ctx context.Context, attemptID, questionID string) (Answer, error)
	ListAnswers(ctx context.Context, attemptID string) ([]Answer, error)

	PutStatistics(ctx context.Context, s Statistics) error
	GetStatistics(ctx context.Context, attemptID string) (Statistics, error)
}
