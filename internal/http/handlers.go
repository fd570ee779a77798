package http

import (
	"context"
	"net/http"
	"time"

	"backoffice/internal/log"
	"backoffice/internal/recordclient"
	"backoffice/internal/services"
	"backoffice/internal/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			NewProblem(http.StatusServiceUnavailable, "dependencies unavailable").Write(w)
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      storage.User `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sess, user, err := s.deps.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, loginResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt, User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if p, _ := PrincipalFrom(r.Context()); p.Service {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := s.deps.Auth.Logout(r.Context(), bearerToken(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.deps.Auth.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in services.NewUser
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.deps.Auth.CreateUser(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, u)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.deps.Auth.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if p, _ := PrincipalFrom(r.Context()); p.UserID == id {
		NewProblem(http.StatusConflict, "administrators cannot delete their own account").Write(w)
		return
	}
	if err := s.deps.Auth.DeleteUser(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleSetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req passwordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Auth.SetPassword(r.Context(), id, req.Password); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePendingSync(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pending, err := s.deps.Sync.PendingSync(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, pending)
}

func (s *Server) handleAckSync(w http.ResponseWriter, r *http.Request) {
	s.handleSyncReport(w, r, s.deps.Sync.MarkSynced)
}

func (s *Server) handleSyncError(w http.ResponseWriter, r *http.Request) {
	s.handleSyncReport(w, r, s.deps.Sync.MarkSyncError)
}

// handleSyncReport applies mark to the document version named by the path
// and the AckRequest body.
func (s *Server) handleSyncReport(w http.ResponseWriter, r *http.Request, mark func(ctx context.Context, id, version int64) error) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req recordclient.AckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Version <= 0 {
		NewProblem(http.StatusBadRequest, "version must be positive").Write(w)
		return
	}
	if err := mark(r.Context(), id, req.Version); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
