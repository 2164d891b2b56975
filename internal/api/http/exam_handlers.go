package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gradeflow/gradeflow/internal/exam"
	"github.com/gradeflow/gradeflow/internal/rbac"
)

// PUT /exams/{examID}
func PutExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := strings.TrimSpace(chi.URLParam(r, "examID"))
		if examID == "" {
			http.Error(w, "examID required", http.StatusBadRequest)
			return
		}
		var e exam.Exam
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		e.ID = examID
		if err := svc.PutExam(r.Context(), e); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(e.Summary())
	}
}

// GET /exams/{examID}
// Teachers get the full exam; students get it with answer keys stripped.
func GetExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		role := rbac.RoleFromContext(r.Context())
		var (
			e   exam.Exam
			err error
		)
		if role == "teacher" || role == "admin" {
			e, err = svc.GetExamFull(r.Context(), examID)
		} else {
			e, err = svc.GetExam(r.Context(), examID)
		}
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(e)
	}
}

// GET /exams?q=&limit=&offset=
func ListExamsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := exam.ListOpts{
			Q:      r.URL.Query().Get("q"),
			Limit:  intQuery(r, "limit", 50),
			Offset: intQuery(r, "offset", 0),
		}
		if role := rbac.RoleFromContext(r.Context()); role == "student" {
			opts.PublishedOnly = true
		}
		out, err := svc.ListExams(r.Context(), opts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

// GET /marks/allocate?questions=N
// Exposes the mark-allocation computation used by exam generation.
func AllocateMarksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(r.URL.Query().Get("questions"))
		if err != nil || n < 0 {
			http.Error(w, "questions must be a non-negative integer", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(exam.AllocateMarks(n))
	}
}

func intQuery(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// writeErr maps service sentinel errors onto HTTP statuses.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, exam.ErrExamNotFound),
		errors.Is(err, exam.ErrAttemptNotFound),
		errors.Is(err, exam.ErrAnswerNotFound),
		errors.Is(err, exam.ErrStatsNotFound),
		errors.Is(err, exam.ErrQuestionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, exam.ErrAttemptCompleted):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, exam.ErrExamNotPublished),
		errors.Is(err, exam.ErrLiveCheckUnsupported):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}
