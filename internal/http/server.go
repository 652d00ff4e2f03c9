package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"schema_diff_planner/internal/config"
)

type Server struct {
	cfg            config.Config
	logger         requestLogger
	authMiddleware *AuthMiddleware
	sessionHandler *SessionHandler
	diffHandler    *DiffHandler
	planHandler    *PlanHandler
}

type requestLogger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

func New(cfg config.Config, logger requestLogger, authMiddleware *AuthMiddleware, sessionHandler *SessionHandler, diffHandler *DiffHandler, planHandler *PlanHandler) *Server {
	return &Server{
		cfg:            cfg,
		logger:         logger,
		authMiddleware: authMiddleware,
		sessionHandler: sessionHandler,
		diffHandler:    diffHandler,
		planHandler:    planHandler,
	}
}

func (s *Server) Start(ctx context.Context) error {
	r := s.routes()
	httpServer := &http.Server{
		Addr:              s.cfg.HTTPAddress,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", "addr", s.cfg.HTTPAddress)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("http server shutting down")
		return httpServer.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(RequestLogger(s.logger))

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/health", HealthHandler)

		api.Post("/session", s.sessionHandler.Login)
		api.Delete("/session", s.sessionHandler.Logout)

		api.Group(func(authenticated chi.Router) {
			authenticated.Use(s.authMiddleware.RequireSession)
			authenticated.Post("/diff", s.diffHandler.Diff)
			authenticated.Post("/plan", s.planHandler.Create)
			authenticated.Get("/plans", s.planHandler.List)
			authenticated.Get("/plans/{name}", s.planHandler.Get)
			authenticated.Post("/plans/{name}/apply", s.planHandler.Apply)
		})
	})

	return r
}
