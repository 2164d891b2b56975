package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/gradeflow/gradeflow/internal/auth/middleware"
	"github.com/gradeflow/gradeflow/internal/exam"
	"github.com/gradeflow/gradeflow/internal/rbac"
)

// POST /attempts  { "exam_id": "..." }
// The student comes from the token, never the body. Starting twice resumes
// the open attempt instead of creating a second one.
func CreateAttemptHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ExamID string `json:"exam_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ExamID == "" {
			http.Error(w, "exam_id required", http.StatusBadRequest)
			return
		}
		studentID := auth.SubjectFromContext(r.Context())
		if studentID == "" {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		a, err := svc.StartAttempt(r.Context(), req.ExamID, studentID)
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(a)
	}
}

// PUT /attempts/{attemptID}/answers/{questionID}  { "text": "..." }
func SaveAnswerHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID := chi.URLParam(r, "attemptID")
		questionID := chi.URLParam(r, "questionID")
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if !ownsAttempt(svc, r, attemptID) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		ans, err := svc.SaveAnswer(r.Context(), attemptID, questionID, req.Text)
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(ans)
	}
}

// POST /attempts/{attemptID}/answers/{questionID}/check
func LiveCheckHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID := chi.URLParam(r, "attemptID")
		questionID := chi.URLParam(r, "questionID")
		if !ownsAttempt(svc, r, attemptID) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		ans, err := svc.LiveCheck(r.Context(), attemptID, questionID)
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(ans)
	}
}

// POST /attempts/{attemptID}/submit
func SubmitAttemptHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID := chi.URLParam(r, "attemptID")
		if !ownsAttempt(svc, r, attemptID) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		a, err := svc.Submit(r.Context(), attemptID)
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(a)
	}
}

// GET /attempts/{attemptID}
func GetAttemptHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID := chi.URLParam(r, "attemptID")
		a, err := svc.GetAttempt(r.Context(), attemptID)
		if err != nil {
			writeErr(w, err)
			return
		}
		if !canViewAttempt(r, a) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		_ = json.NewEncoder(w).Encode(a)
	}
}

// GET /attempts/{attemptID}/statistics
func GetStatisticsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID := chi.URLParam(r, "attemptID")
		a, err := svc.GetAttempt(r.Context(), attemptID)
		if err != nil {
			writeErr(w, err)
			return
		}
		if !canViewAttempt(r, a) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		st, err := svc.Statistics(r.Context(), attemptID)
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(st)
	}
}

// GET /attempts?exam_id=&status=&limit=&offset=
// Students only ever see their own attempts; teachers may filter freely.
func ListAttemptsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := exam.AttemptListOpts{
			ExamID: r.URL.Query().Get("exam_id"),
			Status: r.URL.Query().Get("status"),
			Limit:  intQuery(r, "limit", 50),
			Offset: intQuery(r, "offset", 0),
		}
		role := rbac.RoleFromContext(r.Context())
		if role == "teacher" || role == "admin" {
			opts.StudentID = r.URL.Query().Get("student_id")
		} else {
			opts.StudentID = auth.SubjectFromContext(r.Context())
		}
		out, err := svc.ListAttempts(r.Context(), opts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

// ownsAttempt loads the attempt and compares its student to the token
// subject. Mutating endpoints are owner-only regardless of role.
func ownsAttempt(svc *exam.Service, r *http.Request, attemptID string) bool {
	a, err := svc.GetAttempt(r.Context(), attemptID)
	if err != nil {
		// Let the handler surface the not-found; ownership is moot.
		return true
	}
	return a.StudentID == auth.SubjectFromContext(r.Context())
}

func canViewAttempt(r *http.Request, a exam.Attempt) bool {
	if a.StudentID == auth.SubjectFromContext(r.Context()) {
		return true
	}
	role := rbac.RoleFromContext(r.Context())
	return permChecker.Has(role, "attempt:view-all")
}

var permChecker = rbac.NewChecker(nil)
