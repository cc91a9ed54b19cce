package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"gamehost/internal/api"
	"gamehost/internal/config"
	"gamehost/internal/eventbus"
	"gamehost/internal/monitor"
	"gamehost/internal/provisioner"
	"gamehost/internal/session"
	"gamehost/internal/session/repo"
	"gamehost/internal/session/worker"
	"gamehost/internal/storage"
	"gamehost/internal/workspace"

	"github.com/hibiken/asynq"
)

type Server struct {
	cfg            *config.Config
	deps           *Dependency
	httpServer     *http.Server
	asynqServer    *asynq.Server
	asynqMux       *asynq.ServeMux
	asynqScheduler *asynq.Scheduler
	logger         *slog.Logger
}

func NewServer(cfg *config.Config, deps *Dependency) (*Server, error) {
	logger := deps.Logger

	bus := eventbus.NewRedisBus(deps.Redis, logger)

	prov := provisioner.NewDockerProvisioner(deps.Docker, cfg.Provisioner, logger)

	sessionRepo := repo.NewRepository(deps.PG, deps.Redis)
	workspaceRepo := workspace.NewPGRepository(deps.PG)
	guard := workspace.NewGuard(workspaceRepo, cfg.Session.EligibleEngine)

	orch := session.NewOrchestrator(guard, prov, sessionRepo, bus, cfg.Session, logger)

	blobStore := storage.NewLocalStore(cfg.Storage.Root, cfg.Storage.BaseURL)
	sessionStorage := storage.NewSessionStorage(blobStore, cfg.Storage, logger)

	sweepWorker := worker.NewSweepWorker(orch, logger)

	asynqServer := asynq.NewServer(deps.AsynqRedis, asynq.Config{
		Concurrency: cfg.Sweep.Concurrency,
		Logger:      newAsynqLogger(logger),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(worker.TaskSweepExpired, sweepWorker.HandleSweepExpired)

	scheduler := asynq.NewScheduler(deps.AsynqRedis, &asynq.SchedulerOpts{
		Logger: newAsynqLogger(logger),
	})
	cronspec := fmt.Sprintf("@every %s", cfg.Sweep.Interval)
	if _, err := scheduler.Register(cronspec, asynq.NewTask(worker.TaskSweepExpired, nil)); err != nil {
		return nil, fmt.Errorf("register sweep schedule: %w", err)
	}

	router := api.NewRouter(orch, sessionStorage, bus)
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		cfg:            cfg,
		deps:           deps,
		httpServer:     httpServer,
		asynqServer:    asynqServer,
		asynqMux:       mux,
		asynqScheduler: scheduler,
		logger:         logger,
	}, nil
}

func (s *Server) Start(ctx context.Context) error {
	go func() {
		s.logger.Info("Starting sweep worker", "concurrency", s.cfg.Sweep.Concurrency)
		if err := s.asynqServer.Start(s.asynqMux); err != nil {
			s.logger.Error("Sweep worker failed", "error", err)
		}
	}()

	go func() {
		s.logger.Info("Starting sweep scheduler", "interval", s.cfg.Sweep.Interval)
		if err := s.asynqScheduler.Start(); err != nil {
			s.logger.Error("Sweep scheduler failed", "error", err)
		}
	}()

	go func() {
		if err := monitor.StartMetricsServer(ctx, s.cfg.Metrics.Addr, s.logger); err != nil {
			s.logger.Error("Metrics server failed", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting API server", "addr", s.cfg.Server.Addr)
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutdown signal received, draining...")
	case err := <-errCh:
		return err
	}

	return s.Shutdown()
}

func (s *Server) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.asynqScheduler.Shutdown()
	s.asynqServer.Shutdown()

	s.logger.Info("Server stopped gracefully")
	return nil
}

type asynqLogger struct {
	l *slog.Logger
}

func newAsynqLogger(l *slog.Logger) *asynqLogger {
	return &asynqLogger{l: l.With("component", "asynq")}
}

func (a *asynqLogger) Debug(args ...any) { a.l.Debug("", "msg", args) }
func (a *asynqLogger) Info(args ...any)  { a.l.Info("", "msg", args) }
func (a *asynqLogger) Warn(args ...any)  { a.l.Warn("", "msg", args) }
func (a *asynqLogger) Error(args ...any) { a.l.Error("", "msg", args) }
func (a *asynqLogger) Fatal(args ...any) { a.l.Error("FATAL", "msg", args) }
