package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gradeflow/gradeflow/internal/grading"
)

// SQLStore persists exams, attempts, answers and statistics through
// database/sql; works against both the sqlite and postgres drivers.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutExam(ctx context.Context, e Exam) error {
	qj, err := json.Marshal(e.Questions)
	if err != nil {
		return err
	}
	created := e.CreatedAt
	if created == 0 {
		created = time.Now().Unix()
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO exams (id,title,total_marks,is_published,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, total_marks=EXCLUDED.total_marks,
			is_published=EXCLUDED.is_published, questions_json=EXCLUDED.questions_json`,
		e.ID, e.Title, e.TotalMarks, e.IsPublished, string(qj), created)
	return err
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	e, err := s.GetExamFull(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	return redact(e), nil
}

func (s *SQLStore) GetExamFull(ctx context.Context, id string) (Exam, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,title,total_marks,is_published,questions_json,created_at FROM exams WHERE id=$1`, id)
	var e Exam
	var qjson string
	if err := row.Scan(&e.ID, &e.Title, &e.TotalMarks, &e.IsPublished, &qjson, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, ErrExamNotFound
		}
		return Exam{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &e.Questions); err != nil {
		return Exam{}, fmt.Errorf("exam %s: bad questions_json: %w", id, err)
	}
	return e, nil
}

func (s *SQLStore) ListExams(ctx context.Context, opts ListOpts) ([]ExamSummary, error) {
	q := `SELECT id,title,total_marks,is_published,questions_json,created_at FROM exams`
	var args []interface{}
	var where []string
	if opts.PublishedOnly {
		where = append(where, "is_published")
	}
	if opts.Q != "" {
		args = append(args, "%"+opts.Q+"%")
		where = append(where, fmt.Sprintf("title LIKE $%d", len(args)))
	}
	for i, w := range where {
		if i == 0 {
			q += " WHERE " + w
		} else {
			q += " AND " + w
		}
	}
	q += " ORDER BY created_at DESC, id"
	if opts.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	if opts.Offset > 0 {
		q += fmt.Sprintf(" OFFSET %d", opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ExamSummary
	for rows.Next() {
		var e Exam
		var qjson string
		if err := rows.Scan(&e.ID, &e.Title, &e.TotalMarks, &e.IsPublished, &qjson, &e.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(qjson), &e.Questions)
		out = append(out, e.Summary())
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateAttempt(ctx context.Context, a Attempt) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (id,exam_id,student_id,status,total_score,started_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.ExamID, a.StudentID, a.Status, a.TotalScore, a.StartedAt.Unix())
	return err
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,exam_id,student_id,status,total_score,started_at,submitted_at FROM attempts WHERE id=$1`, id)
	return scanAttempt(row)
}

func (s *SQLStore) ActiveAttempt(ctx context.Context, examID, studentID string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,exam_id,student_id,status,total_score,started_at,submitted_at FROM attempts
		 WHERE exam_id=$1 AND student_id=$2 AND status=$3
		 ORDER BY started_at DESC LIMIT 1`,
		examID, studentID, StatusInProgress)
	return scanAttempt(row)
}

func (s *SQLStore) UpdateAttempt(ctx context.Context, a Attempt) error {
	var submitted sql.NullInt64
	if a.SubmittedAt != nil {
		submitted = sql.NullInt64{Int64: a.SubmittedAt.Unix(), Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE attempts SET status=$1, total_score=$2, submitted_at=$3 WHERE id=$4`,
		a.Status, a.TotalScore, submitted, a.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	q := `SELECT id,exam_id,student_id,status,total_score,started_at,submitted_at FROM attempts`
	var args []interface{}
	var where []string
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if opts.ExamID != "" {
		add("exam_id=$%d", opts.ExamID)
	}
	if opts.StudentID != "" {
		add("student_id=$%d", opts.StudentID)
	}
	if opts.Status != "" {
		add("status=$%d", opts.Status)
	}
	for i, w := range where {
		if i == 0 {
			q += " WHERE " + w
		} else {
			q += " AND " + w
		}
	}
	q += " ORDER BY started_at DESC"
	if opts.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	if opts.Offset > 0 {
		q += fmt.Sprintf(" OFFSET %d", opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpsertAnswer writes the answer in place, keyed by (attempt_id, question_id).
// The conflict target is the table's composite primary key, which is what
// makes repeated saves idempotent.
func (s *SQLStore) UpsertAnswer(ctx context.Context, a Answer) error {
	var evaluated sql.NullInt64
	if a.EvaluatedAt != nil {
		evaluated = sql.NullInt64{Int64: a.EvaluatedAt.Unix(), Valid: true}
	}
	var ai sql.NullString
	if len(a.AIEvaluation) > 0 {
		ai = sql.NullString{String: string(a.AIEvaluation), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO answers (attempt_id,question_id,answer_text,verdict,score,ai_evaluation,evaluated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (attempt_id,question_id) DO UPDATE SET
			answer_text=EXCLUDED.answer_text, verdict=EXCLUDED.verdict, score=EXCLUDED.score,
			ai_evaluation=EXCLUDED.ai_evaluation, evaluated_at=EXCLUDED.evaluated_at`,
		a.AttemptID, a.QuestionID, a.Text, string(a.Verdict), a.Score, ai, evaluated)
	return err
}

func (s *SQLStore) GetAnswer(ctx context.Context, attemptID, questionID string) (Answer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT attempt_id,question_id,answer_text,verdict,score,ai_evaluation,evaluated_at
		 FROM answers WHERE attempt_id=$1 AND question_id=$2`, attemptID, questionID)
	a, err := scanAnswer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Answer{}, ErrAnswerNotFound
	}
	return a, err
}

func (s *SQLStore) ListAnswers(ctx context.Context, attemptID string) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT attempt_id,question_id,answer_text,verdict,score,ai_evaluation,evaluated_at
		 FROM answers WHERE attempt_id=$1 ORDER BY question_id`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutStatistics(ctx context.Context, st Statistics) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempt_stats (attempt_id,correct_count,incorrect_count,partially_correct_count,skipped_count,total_questions)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (attempt_id) DO UPDATE SET
			correct_count=EXCLUDED.correct_count, incorrect_count=EXCLUDED.incorrect_count,
			partially_correct_count=EXCLUDED.partially_correct_count, skipped_count=EXCLUDED.skipped_count,
			total_questions=EXCLUDED.total_questions`,
		st.AttemptID, st.Correct, st.Incorrect, st.PartiallyCorrect, st.Skipped, st.TotalQuestions)
	return err
}

func (s *SQLStore) GetStatistics(ctx context.Context, attemptID string) (Statistics, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT attempt_id,correct_count,incorrect_count,partially_correct_count,skipped_count,total_questions
		 FROM attempt_stats WHERE attempt_id=$1`, attemptID)
	var st Statistics
	err := row.Scan(&st.AttemptID, &st.Correct, &st.Incorrect, &st.PartiallyCorrect, &st.Skipped, &st.TotalQuestions)
	if errors.Is(err, sql.ErrNoRows) {
		return Statistics{}, ErrStatsNotFound
	}
	return st, err
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanAttempt(row rowScanner) (Attempt, error) {
	var a Attempt
	var started int64
	var submitted sql.NullInt64
	err := row.Scan(&a.ID, &a.ExamID, &a.StudentID, &a.Status, &a.TotalScore, &started, &submitted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrAttemptNotFound
		}
		return Attempt{}, err
	}
	a.StartedAt = time.Unix(started, 0).UTC()
	if submitted.Valid {
		t := time.Unix(submitted.Int64, 0).UTC()
		a.SubmittedAt = &t
	}
	return a, nil
}

func scanAnswer(row rowScanner) (Answer, error) {
	var a Answer
	var verdict string
	var ai sql.NullString
	var evaluated sql.NullInt64
	err := row.Scan(&a.AttemptID, &a.QuestionID, &a.Text, &verdict, &a.Score, &ai, &evaluated)
	if err != nil {
		return Answer{}, err
	}
	a.Verdict = grading.Verdict(verdict)
	if ai.Valid {
		a.AIEvaluation = json.RawMessage(ai.String)
	}
	if evaluated.Valid {
		t := time.Unix(evaluated.Int64, 0).UTC()
		a.EvaluatedAt = &t
	}
	return a, nil
}
