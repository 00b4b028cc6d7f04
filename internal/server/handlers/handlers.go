// Package handlers wires the proxy's HTTP surface: the CSRF handshake, the
// dispatch relay, and the fast-path auth endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/eventcall-app/eventcall/internal/client/models"
	"github.com/eventcall-app/eventcall/internal/common"
	"github.com/eventcall-app/eventcall/internal/github"
	"github.com/eventcall-app/eventcall/internal/logging"
	"github.com/eventcall-app/eventcall/internal/server/csrf"
	"github.com/eventcall-app/eventcall/internal/server/users"
)

// Dispatcher relays a repository_dispatch to GitHub.
type Dispatcher interface {
	RepositoryDispatch(ctx context.Context, eventType string, clientPayload any) error
}

// AuthService answers the fast-path account endpoints.
type AuthService interface {
	Register(ctx context.Context, reg users.Registration) (*models.AuthResponse, error)
	Login(ctx context.Context, username, password string) (*models.AuthResponse, error)
}

type Handler struct {
	signer        *csrf.Signer
	dispatcher    Dispatcher
	auth          AuthService
	allowedOrigin string
	logger        logging.Logger
}

func New(signer *csrf.Signer, dispatcher Dispatcher, auth AuthService, allowedOrigin string, logger logging.Logger) *Handler {
	return &Handler{
		signer:        signer,
		dispatcher:    dispatcher,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		logger:        logger.With("component", "http"),
	}
}

// Router builds the chi router with the proxy's routes.
func (h *Handler) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Get("/api/csrf", h.handshake)
	r.Post("/api/dispatch", h.dispatch)
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/register", h.register)

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) handshake(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.signer.Issue())
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.allowedOrigin != "" {
		if origin := r.Header.Get("Origin"); origin != "" && origin != h.allowedOrigin {
			writeError(w, http.StatusForbidden, "origin not allowed")
			return
		}
	}

	expires, _ := strconv.ParseInt(r.Header.Get("X-CSRF-Expires"), 10, 64)
	if err := h.signer.Verify(r.Header.Get("X-CSRF-Client"), r.Header.Get("X-CSRF-Token"), expires); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	var req struct {
		EventType     string          `json:"event_type"`
		ClientPayload json.RawMessage `json:"client_payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EventType == "" {
		writeError(w, http.StatusBadRequest, "event_type is required")
		return
	}

	if err := h.dispatcher.RepositoryDispatch(ctx, req.EventType, req.ClientPayload); err != nil {
		h.logger.Warn(ctx, "dispatch relay failed", "event_type", req.EventType, "error", err)
		status := github.StatusOf(err)
		if status == 0 {
			status = http.StatusBadGateway
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var reg users.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.auth.Register(r.Context(), reg)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrUserExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
