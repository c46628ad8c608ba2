package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/storefront"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	sessions Sessions
	timeout  time.Duration
	maxBody  int64
	log      logrus.FieldLogger
}

func NewAuthHandler(sessions Sessions, timeout time.Duration, maxBody int64, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		timeout:  timeout,
		maxBody:  maxBody,
		log:      log,
	}
}

type SessionStatusResponse struct {
	SessionID string        `json:"session_id"`
	LoggedIn  bool          `json:"logged_in"`
	Profile   *auth.Profile `json:"profile,omitempty"`
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req auth.RegisterRequest
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}

	var out auth.Session
	err := h.sessions.With(ctx, getSessionID(r.Context()), func(s *storefront.Session) error {
		var err error
		out, err = s.Auth.Register(ctx, req)
		return err
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, out)
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req auth.LoginRequest
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}

	var out auth.Session
	err := h.sessions.With(ctx, getSessionID(r.Context()), func(s *storefront.Session) error {
		var err error
		out, err = s.Auth.Login(ctx, req)
		return err
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	err := h.sessions.With(ctx, getSessionID(r.Context()), func(s *storefront.Session) error {
		return s.Auth.Logout(ctx)
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := SessionStatusResponse{SessionID: getSessionID(r.Context())}
	err := h.sessions.With(ctx, resp.SessionID, func(s *storefront.Session) error {
		resp.LoggedIn = s.Auth.LoggedIn()
		if !resp.LoggedIn {
			return nil
		}
		p, err := s.Auth.Profile(ctx)
		if err != nil {
			return err
		}
		resp.Profile = &p
		return nil
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// GET /api/v1/profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var p auth.Profile
	err := h.sessions.With(ctx, getSessionID(r.Context()), func(s *storefront.Session) error {
		if err := requireLogin(ctx, s, r); err != nil {
			return err
		}
		var err error
		p, err = s.Auth.Profile(ctx)
		return err
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// PUT /api/v1/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req auth.Profile
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}

	var p auth.Profile
	err := h.sessions.With(ctx, getSessionID(r.Context()), func(s *storefront.Session) error {
		if err := requireLogin(ctx, s, r); err != nil {
			return err
		}
		var err error
		p, err = s.Auth.UpdateProfile(ctx, req)
		return err
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// PUT /api/v1/profile/password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req auth.ChangePasswordRequest
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}

	err := h.sessions.With(ctx, getSessionID(r.Context()), func(s *storefront.Session) error {
		if err := requireLogin(ctx, s, r); err != nil {
			return err
		}
		return s.Auth.ChangePassword(ctx, req)
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
