package exam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gradeflow/gradeflow/internal/grading"
	syncx "github.com/gradeflow/gradeflow/internal/sync"
)

// Service is the attempt state machine: it governs attempt creation, answer
// saves, per-question live checks and final submission. It never mutates
// questions; the grading engine receives them as read-only inputs.
type Service struct {
	store  Store
	grader grading.Grader
	orch   *grading.Orchestrator
	events *syncx.EventRepo
	log    *zap.Logger
	now    func() time.Time
	newID  func() string
}

type ServiceOption func(*Service)

// WithEventLog records an AttemptSubmitted event after every successful
// submission.
func WithEventLog(events *syncx.EventRepo) ServiceOption {
	return func(s *Service) { s.events = events }
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *Service) { s.newID = newID }
}

func NewService(store Store, grader grading.Grader, log *zap.Logger, opts ...ServiceOption) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		store:  store,
		grader: grader,
		orch:   grading.NewOrchestrator(grader, log),
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// PutExam validates and stores an exam. Invariants are enforced on publish;
// drafts may still be incomplete.
func (s *Service) PutExam(ctx context.Context, e Exam) error {
	if e.IsPublished {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return s.store.PutExam(ctx, e)
}

func (s *Service) GetExam(ctx context.Context, id string) (Exam, error) {
	return s.store.GetExam(ctx, id)
}

func (s *Service) GetExamFull(ctx context.Context, id string) (Exam, error) {
	return s.store.GetExamFull(ctx, id)
}

func (s *Service) ListExams(ctx context.Context, opts ListOpts) ([]ExamSummary, error) {
	return s.store.ListExams(ctx, opts)
}

// StartAttempt creates an attempt for the (exam, student) pair, or resumes
// the existing in_progress one instead of duplicating it.
func (s *Service) StartAttempt(ctx context.Context, examID, studentID string) (Attempt, error) {
	a, err := s.store.ActiveAttempt(ctx, examID, studentID)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, ErrAttemptNotFound) {
		return Attempt{}, err
	}

	e, err := s.store.GetExam(ctx, examID)
	if err != nil {
		return Attempt{}, err
	}
	if !e.IsPublished {
		return Attempt{}, ErrExamNotPublished
	}
	a = Attempt{
		ID:        s.newID(),
		ExamID:    examID,
		StudentID: studentID,
		Status:    StatusInProgress,
		StartedAt: s.now(),
	}
	if err := s.store.CreateAttempt(ctx, a); err != nil {
		return Attempt{}, err
	}
	s.log.Info("attempt started",
		zap.String("attempt_id", a.ID), zap.String("exam_id", examID), zap.String("student_id", studentID))
	return a, nil
}

func (s *Service) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	return s.store.GetAttempt(ctx, id)
}

func (s *Service) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	return s.store.ListAttempts(ctx, opts)
}

// SaveAnswer upserts the answer for (attempt, question). Answers are saved
// repeatedly during an exam (navigation, autosave), so a second save
// supersedes the first rather than duplicating it. Any stored live-check
// verdict is stale the moment the text changes and is cleared here.
func (s *Service) SaveAnswer(ctx context.Context, attemptID, questionID, text string) (Answer, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return Answer{}, err
	}
	if a.Status != StatusInProgress {
		return Answer{}, ErrAttemptCompleted
	}
	e, err := s.store.GetExamFull(ctx, a.ExamID)
	if err != nil {
		return Answer{}, err
	}
	if _, ok := e.Question(questionID); !ok {
		return Answer{}, ErrQuestionNotFound
	}
	ans := Answer{AttemptID: attemptID, QuestionID: questionID, Text: text}
	if err := s.store.UpsertAnswer(ctx, ans); err != nil {
		return Answer{}, err
	}
	return ans, nil
}

// LiveCheck evaluates the current answer to one question mid-exam without
// touching attempt status, and stores the verdict so navigating back to the
// question redisplays it. Only mcq and fib are checkable live; open-ended
// evaluation is reserved for submission. Evaluation errors propagate to the
// caller as retryable failures and leave the stored answer text intact.
func (s *Service) LiveCheck(ctx context.Context, attemptID, questionID string) (Answer, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return Answer{}, err
	}
	if a.Status != StatusInProgress {
		return Answer{}, ErrAttemptCompleted
	}
	e, err := s.store.GetExamFull(ctx, a.ExamID)
	if err != nil {
		return Answer{}, err
	}
	q, ok := e.Question(questionID)
	if !ok {
		return Answer{}, ErrQuestionNotFound
	}
	if q.Type != TypeMCQ && q.Type != TypeFIB {
		return Answer{}, ErrLiveCheckUnsupported
	}
	ans, err := s.store.GetAnswer(ctx, attemptID, questionID)
	if err != nil {
		return Answer{}, err
	}

	res, err := s.grader.Grade(ctx, q.GradingView(), ans.Text)
	if err != nil {
		return Answer{}, fmt.Errorf("live check: %w", err)
	}
	now := s.now()
	ans.Score = math.Round(res.Score)
	ans.Verdict = res.Verdict
	ans.EvaluatedAt = &now
	if err := s.store.UpsertAnswer(ctx, ans); err != nil {
		return Answer{}, err
	}
	return ans, nil
}

// Submit is the terminal transition. It persists an answer record (possibly
// empty) for every question so the batch result has full coverage, evaluates
// everything in one orchestrator pass, persists per-answer verdicts and the
// total, derives statistics, and only then flips the attempt to completed.
// A failure at any step leaves the attempt in_progress; re-invoking Submit
// re-evaluates from scratch and fully overwrites the total.
func (s *Service) Submit(ctx context.Context, attemptID string) (Attempt, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.Status == StatusCompleted {
		// Already frozen; repeat submits are harmless.
		return a, nil
	}
	e, err := s.store.GetExamFull(ctx, a.ExamID)
	if err != nil {
		return Attempt{}, err
	}

	// Full coverage: every question gets a stored answer, even if empty.
	for _, q := range e.Questions {
		_, err := s.store.GetAnswer(ctx, attemptID, q.ID)
		if errors.Is(err, ErrAnswerNotFound) {
			err = s.store.UpsertAnswer(ctx, Answer{AttemptID: attemptID, QuestionID: q.ID})
		}
		if err != nil && !errors.Is(err, ErrAnswerNotFound) {
			return Attempt{}, err
		}
	}
	answers, err := s.store.ListAnswers(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}

	views := make([]grading.Q, 0, len(e.Questions))
	for _, q := range e.Questions {
		views = append(views, q.GradingView())
	}
	inputs := make([]grading.AnswerInput, 0, len(answers))
	for _, ans := range answers {
		inputs = append(inputs, grading.AnswerInput{QuestionID: ans.QuestionID, Text: ans.Text})
	}

	batch := s.orch.EvaluateAll(ctx, views, inputs)
	for _, ev := range batch.Answers {
		err := s.store.UpsertAnswer(ctx, Answer{
			AttemptID:    attemptID,
			QuestionID:   ev.QuestionID,
			Text:         ev.Text,
			Verdict:      ev.Verdict,
			Score:        ev.Score,
			AIEvaluation: ev.AIEvaluation,
			EvaluatedAt:  ev.EvaluatedAt,
		})
		if err != nil {
			return Attempt{}, err
		}
	}

	a.TotalScore = batch.Total
	if err := s.store.UpdateAttempt(ctx, a); err != nil {
		return Attempt{}, err
	}
	if err := s.store.PutStatistics(ctx, deriveStatistics(attemptID, e.Questions, batch)); err != nil {
		return Attempt{}, err
	}

	now := s.now()
	a.Status = StatusCompleted
	a.SubmittedAt = &now
	if err := s.store.UpdateAttempt(ctx, a); err != nil {
		return Attempt{}, err
	}

	if s.events != nil {
		payload, _ := json.Marshal(map[string]interface{}{
			"exam_id":     a.ExamID,
			"student_id":  a.StudentID,
			"total_score": a.TotalScore,
		})
		if err := s.events.Append(ctx, syncx.Event{
			Type:     syncx.EventAttemptSubmitted,
			Key:      a.ID,
			DataJSON: string(payload),
		}); err != nil {
			// The attempt is already frozen; a missing audit row is not
			// worth failing the submission over.
			s.log.Warn("event log append failed", zap.String("attempt_id", a.ID), zap.Error(err))
		}
	}

	s.log.Info("attempt submitted",
		zap.String("attempt_id", a.ID),
		zap.Float64("total_score", a.TotalScore),
		zap.Int("questions", len(e.Questions)))
	return a, nil
}

func (s *Service) Statistics(ctx context.Context, attemptID string) (Statistics, error) {
	return s.store.GetStatistics(ctx, attemptID)
}

// deriveStatistics tallies the final answer set. An answer with empty text
// counts as skipped regardless of its stored verdict; everything else counts
// by its tri-state verdict.
func deriveStatistics(attemptID string, questions []Question, batch grading.BatchResult) Statistics {
	byQuestion := make(map[string]grading.EvaluatedAnswer, len(batch.Answers))
	for _, ev := range batch.Answers {
		byQuestion[ev.QuestionID] = ev
	}
	st := Statistics{AttemptID: attemptID, TotalQuestions: len(questions)}
	for _, q := range questions {
		ev, ok := byQuestion[q.ID]
		if !ok || isBlankText(ev.Text) {
			st.Skipped++
			continue
		}
		switch ev.Verdict {
		case grading.VerdictCorrect:
			st.Correct++
		case grading.VerdictPartial:
			st.PartiallyCorrect++
		default:
			st.Incorrect++
		}
	}
	return st
}

func isBlankText(s string) bool { return strings.TrimSpace(s) == "" }
