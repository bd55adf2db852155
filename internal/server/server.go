// Package server exposes the decision engine over HTTP.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Fatal777/invoisaic/internal/engine"
	"github.com/Fatal777/invoisaic/internal/fraud"
	"github.com/Fatal777/invoisaic/internal/history"
	"github.com/Fatal777/invoisaic/internal/notifications"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Server wires the engine, fraud scorer and stores behind a chi router.
type Server struct {
	cfg        Config
	engine     *engine.Engine
	fraud      *fraud.Engine
	store      history.Store
	notifs     *notifications.Store
	router     chi.Router
	httpServer *http.Server
}

// New creates the server with all dependencies.
func New(cfg Config, eng *engine.Engine, fraudEngine *fraud.Engine, store history.Store, notifs *notifications.Store) *Server {
	s := &Server{
		cfg:    cfg,
		engine: eng,
		fraud:  fraudEngine,
		store:  store,
		notifs: notifs,
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/decisions", s.handleDecide)
		r.Get("/decisions", s.handleListDecisions)
		r.Post("/fraud/assess", s.handleAssessFraud)
		r.Get("/notifications", s.handleListNotifications)
		r.Post("/notifications/subscribers", s.handleAddSubscriber)
	})

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("invoisaic server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
