// Package server wires the authoritative role: the real database, the
// payroll engine, and the push hub every client hangs off.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"folha/internal/db"
	"folha/internal/domain/attendance"
	"folha/internal/domain/audit"
	"folha/internal/domain/auth"
	"folha/internal/domain/backup"
	"folha/internal/domain/deduction"
	"folha/internal/domain/employee"
	"folha/internal/domain/history"
	"folha/internal/domain/payroll"
	"folha/internal/domain/rules"
	"folha/internal/platform/config"
	"folha/internal/platform/logging"
	"folha/internal/sync"
	attendancehandler "folha/internal/transport/http/handlers/attendance"
	audithandler "folha/internal/transport/http/handlers/audit"
	authhandler "folha/internal/transport/http/handlers/auth"
	backuphandler "folha/internal/transport/http/handlers/backup"
	deductionhandler "folha/internal/transport/http/handlers/deductions"
	employeehandler "folha/internal/transport/http/handlers/employees"
	historyhandler "folha/internal/transport/http/handlers/history"
	payrollhandler "folha/internal/transport/http/handlers/payroll"
	synchandler "folha/internal/transport/http/handlers/sync"
	"folha/internal/transport/http/middleware"
)

func Run(cfg config.Config) error {
	log := logging.New("server", cfg.Environment)
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			return err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, log); err != nil {
			return err
		}
	}

	tbl, err := rules.Load(cfg.RulesFile)
	if err != nil {
		log.Warn().Err(err).Str("file", cfg.RulesFile).Msg("rules file not loaded, using built-in table")
		tbl = rules.DefaultTable()
	}

	hub := sync.NewHub()
	local := sync.NewLocal(pool, hub, log)

	auditSvc := audit.New(pool)
	authSvc := auth.NewService(auth.NewStore(pool), auditSvc, cfg.JWTSecret)
	employeeSvc := employee.NewService(employee.NewStore(pool), auditSvc, local)
	attendanceSvc := attendance.NewService(attendance.NewStore(pool), employeeSvc, local)
	employeeSvc.SetAttendanceRefresher(attendanceSvc)
	deductionSvc := deduction.NewService(deduction.NewStore(pool), auditSvc, local)
	payrollSvc := payroll.NewService(payroll.NewStore(pool), tbl, deductionSvc, auditSvc, authSvc, local)
	historySvc := history.NewService(history.NewStore(pool))
	backupSvc := backup.NewService(pool, auditSvc, local)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
	}))
	router.Use(middleware.BodyLimit(32 << 20))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authSvc).RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			employeehandler.NewHandler(employeeSvc, tbl).RegisterRoutes(r)
			attendancehandler.NewHandler(attendanceSvc).RegisterRoutes(r)
			deductionhandler.NewHandler(deductionSvc).RegisterRoutes(r)
			payrollhandler.NewHandler(payrollSvc).RegisterRoutes(r)
			historyhandler.NewHandler(historySvc).RegisterRoutes(r)
			audithandler.NewHandler(auditSvc).RegisterRoutes(r)
			backuphandler.NewHandler(backupSvc).RegisterRoutes(r)
			synchandler.NewHandler(local, hub.Subscribe, log).RegisterRoutes(r)
		})
	})

	log.Info().Str("addr", cfg.Addr).Msg("payroll server listening")
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: 0, // the sync stream is long-lived
	}
	return srv.ListenAndServe()
}
