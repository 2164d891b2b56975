package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	api "github.com/gradeflow/gradeflow/internal/api/http"
	auth "github.com/gradeflow/gradeflow/internal/auth/middleware"
	"github.com/gradeflow/gradeflow/internal/config"
	"github.com/gradeflow/gradeflow/internal/db"
	"github.com/gradeflow/gradeflow/internal/exam"
	"github.com/gradeflow/gradeflow/internal/grading"
	"github.com/gradeflow/gradeflow/internal/grading/semantic"
	"github.com/gradeflow/gradeflow/internal/logging"
	rbac "github.com/gradeflow/gradeflow/internal/rbac"
	syncx "github.com/gradeflow/gradeflow/internal/sync"
)

func main() {
	configPath := flag.String("config", "", "optional config file (yaml/json/toml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log.Level)
	defer logger.Sync()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.Database.Driver), cfg.Database.DSN)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	store := exam.NewSQLStore(dbh, cfg.Database.Driver)
	events := syncx.NewEventRepo(dbh)

	// --- Grading ---
	evaluator := semantic.NewClient(semantic.Config{
		BaseURL: cfg.Evaluator.BaseURL,
		APIKey:  cfg.Evaluator.APIKey,
		Timeout: time.Duration(cfg.Evaluator.TimeoutSec) * time.Second,
	})
	grader := grading.NewDefaultGrader(grading.WithSemanticEvaluator(evaluator))
	svc := exam.NewService(store, grader, logger, exam.WithEventLog(events))

	// --- Auth ---
	accounts := map[string]auth.Account{}
	if cfg.Auth.TeacherUser != "" {
		accounts[cfg.Auth.TeacherUser] = auth.Account{PassHash: cfg.Auth.TeacherPassHash, Role: "teacher"}
	}
	if cfg.Auth.StudentUser != "" {
		accounts[cfg.Auth.StudentUser] = auth.Account{PassHash: cfg.Auth.StudentPassHash, Role: "student"}
	}
	authSvc := auth.NewAuthService(cfg.Auth.HMACSecret, accounts)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc))

	// Protected API (JWT → subject+role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Exams
		pr.With(rbac.Require("exam:create")).
			Put("/exams/{examID}", api.PutExamHandler(svc))
		pr.With(rbac.Require("exam:view")).
			Get("/exams/{examID}", api.GetExamHandler(svc))
		pr.With(rbac.Require("exam:view")).
			Get("/exams", api.ListExamsHandler(svc))
		pr.With(rbac.Require("exam:create")).
			Get("/marks/allocate", api.AllocateMarksHandler())

		// Student flow
		pr.With(rbac.Require("attempt:create")).
			Post("/attempts", api.CreateAttemptHandler(svc))
		pr.With(rbac.Require("attempt:save")).
			Put("/attempts/{attemptID}/answers/{questionID}", api.SaveAnswerHandler(svc))
		pr.With(rbac.Require("attempt:check")).
			Post("/attempts/{attemptID}/answers/{questionID}/check", api.LiveCheckHandler(svc))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/submit", api.SubmitAttemptHandler(svc))

		// Reads; handlers enforce own-vs-all on top of the coarse permission.
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}", api.GetAttemptHandler(svc))
		pr.With(rbac.RequireAny("stats:view-own", "stats:view-all")).
			Get("/attempts/{attemptID}/statistics", api.GetStatisticsHandler(svc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts", api.ListAttemptsHandler(svc))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	logger.Info("listening",
		zap.String("addr", cfg.Server.Addr),
		zap.String("mode", string(cfg.Server.Mode)),
		zap.String("db", cfg.Database.Driver))
	if err := http.ListenAndServe(cfg.Server.Addr, r); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
