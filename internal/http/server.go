package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"backoffice/internal/log"
	"backoffice/internal/observability"
	"backoffice/internal/services"
	"backoffice/internal/storage"

	"github.com/go-chi/chi/v5"
)

// SyncStore is the export queue the summary worker drains through the API.
type SyncStore interface {
	PendingSync(ctx context.Context, limit int) ([]storage.PendingDocument, error)
	MarkSynced(ctx context.Context, id, version int64) error
	MarkSyncError(ctx context.Context, id, version int64) error
}

// Deps are the collaborators the server is wired with.
type Deps struct {
	Documents *services.DocumentService
	Auth      *services.AuthService
	Sync      SyncStore
	// Ready reports whether the server can take traffic, e.g. a database ping.
	Ready   func(ctx context.Context) error
	Metrics *observability.Metrics
	Logger  *log.Logger

	RateLimitPerMinute int
	Development        bool
}

type Server struct {
	http.Server
	deps   Deps
	logger *log.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		deps:   deps,
		logger: logger.WithComponent(log.ComponentHTTP),
	}
	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.middlewareStack()...)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/logout", s.handleLogout)
			r.Post("/summary", s.handlePreview)
			r.Get("/dues", s.handleDues)

			r.Route("/documents/{kind}", func(r chi.Router) {
				r.Get("/", s.handleListDocuments)
				r.Post("/", s.handleCreateDocument)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetDocument)
					r.Put("/", s.handleUpdateDocument)
					r.Delete("/", s.handleDeleteDocument)
					r.Get("/summary", s.handleDocumentSummary)
					r.Get("/report", s.handleDocumentReport)
					r.Post("/lines/{key}/settle", s.handleSettleLine)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/users", s.handleListUsers)
				r.Post("/users", s.handleCreateUser)
				r.Get("/users/{id}", s.handleGetUser)
				r.Delete("/users/{id}", s.handleDeleteUser)
				r.Put("/users/{id}/password", s.handleSetPassword)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireService)
				r.Get("/sync/pending", s.handlePendingSync)
				r.Post("/sync/{id}/ack", s.handleAckSync)
				r.Post("/sync/{id}/error", s.handleSyncError)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewProblem(http.StatusNotFound, "no route for "+r.URL.Path).Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewProblem(http.StatusMethodNotAllowed, r.Method+" is not supported here").Write(w)
	})
	return r
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
