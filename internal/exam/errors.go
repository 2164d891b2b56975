package exam

import "errors"

var (
	ErrExamNotFound     = errors.New("exam not found")
	ErrExamNotPublished = errors.New("exam is not published")
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrAnswerNotFound   = errors.New("answer not found")
	ErrStatsNotFound    = errors.New("statistics not found")
	ErrQuestionNotFound = errors.New("question not in exam")

	// ErrAttemptCompleted guards the one-way state machine: completed
	// attempts accept no further writes.
	ErrAttemptCompleted = errors.New("attempt already completed")

	// ErrLiveCheckUnsupported marks question types whose live check would
	// spend external-evaluator budget mid-exam.
	ErrLiveCheckUnsupported = errors.New("live check not supported for this question type")
)
