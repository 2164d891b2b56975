package exam

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type memoryStore struct {
	mu       sync.RWMutex
	exams    map[string]Exam
	attempts map[string]Attempt
	answers  map[string]map[string]Answer // attemptID -> questionID -> answer
	stats    map[string]Statistics
}

// NewInMemoryStore backs the state machine without a database; used in tests
// and offline mode.
func NewInMemoryStore() Store {
	return &memoryStore{
		exams:    map[string]Exam{},
		attempts: map[string]Attempt{},
		answers:  map[string]map[string]Answer{},
		stats:    map[string]Statistics{},
	}
}

func (m *memoryStore) PutExam(_ context.Context, e Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exams[e.ID] = e
	return nil
}

func (m *memoryStore) GetExam(_ context.Context, id string) (Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, ErrExamNotFound
	}
	return redact(e), nil
}

func (m *memoryStore) GetExamFull(_ context.Context, id string) (Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, ErrExamNotFound
	}
	return e, nil
}

func (m *memoryStore) ListExams(_ context.Context, opts ListOpts) ([]ExamSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ExamSummary, 0, len(m.exams))
	for _, e := range m.exams {
		if opts.PublishedOnly && !e.IsPublished {
			continue
		}
		if opts.Q != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(opts.Q)) {
			continue
		}
		out = append(out, e.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, opts.Limit, opts.Offset), nil
}

func (m *memoryStore) CreateAttempt(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exams[a.ExamID]; !ok {
		return ErrExamNotFound
	}
	m.attempts[a.ID] = a
	return nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	return a, nil
}

func (m *memoryStore) ActiveAttempt(_ context.Context, examID, studentID string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.attempts {
		if a.ExamID == examID && a.StudentID == studentID && a.Status == StatusInProgress {
			return a, nil
		}
	}
	return Attempt{}, ErrAttemptNotFound
}

func (m *memoryStore) UpdateAttempt(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.attempts[a.ID]; !ok {
		return ErrAttemptNotFound
	}
	m.attempts[a.ID] = a
	return nil
}

func (m *memoryStore) ListAttempts(_ context.Context, opts AttemptListOpts) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Attempt, 0)
	for _, a := range m.attempts {
		if opts.ExamID != "" && a.ExamID != opts.ExamID {
			continue
		}
		if opts.StudentID != "" && a.StudentID != opts.StudentID {
			continue
		}
		if opts.Status != "" && a.Status != opts.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return paginate(out, opts.Limit, opts.Offset), nil
}

func (m *memoryStore) UpsertAnswer(_ context.Context, a Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.attempts[a.AttemptID]; !ok {
		return ErrAttemptNotFound
	}
	byQ, ok := m.answers[a.AttemptID]
	if !ok {
		byQ = map[string]Answer{}
		m.answers[a.AttemptID] = byQ
	}
	byQ[a.QuestionID] = a
	return nil
}

func (m *memoryStore) GetAnswer(_ context.Context, attemptID, questionID string) (Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.answers[attemptID][questionID]
	if !ok {
		return Answer{}, ErrAnswerNotFound
	}
	return a, nil
}

func (m *memoryStore) ListAnswers(_ context.Context, attemptID string) ([]Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byQ := m.answers[attemptID]
	out := make([]Answer, 0, len(byQ))
	for _, a := range byQ {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (m *memoryStore) PutStatistics(_ context.Context, s Statistics) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[s.AttemptID] = s
	return nil
}

func (m *memoryStore) GetStatistics(_ context.Context, attemptID string) (Statistics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stats[attemptID]
	if !ok {
		return Statistics{}, ErrStatsNotFound
	}
	return s, nil
}

// redact hides grading material from students.
func redact(e Exam) Exam {
	qs := make([]Question, len(e.Questions))
	copy(qs, e.Questions)
	for i := range qs {
		qs[i].CorrectAnswer = ""
		qs[i].ModelAnswer = ""
		if len(qs[i].Choices) > 0 {
			cs := make([]Choice, len(qs[i].Choices))
			copy(cs, qs[i].Choices)
			for j := range cs {
				cs[j].IsCorrect = false
			}
			qs[i].Choices = cs
		}
	}
	e.Questions = qs
	return e
}

func paginate[T any](in []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(in) {
			return []T{}
		}
		in = in[offset:]
	}
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
