package accounts

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"petshop-backend/internal/auth"
	"petshop-backend/internal/httpx"
	"petshop-backend/internal/middleware"
	"petshop-backend/internal/transport"
	"petshop-backend/internal/validation"

	"github.com/go-chi/chi/v5"
)

// RefreshCookiePath scopes the refresh cookie to the token endpoints.
const RefreshCookiePath = "/api/auth"

type Handler struct {
	service      *Service
	val          *validation.Validator
	log          *slog.Logger
	cookieSecure bool
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger, cookieSecure bool) *Handler {
	return &Handler{
		service:      service,
		val:          val,
		log:          log,
		cookieSecure: cookieSecure,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)
	r.Post("/auth/logout", h.Logout)
}

func (h *Handler) SessionRoutes(r chi.Router) {
	r.Get("/auth/me", h.Me)
}

func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/admin/users", h.List)
	r.Patch("/admin/users/{id}/role", h.SetRole)
	r.Put("/admin/users/{id}/password", h.SetPassword)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req RegisterRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("auth register: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	req.Email = normalizeEmail(req.Email)
	if err := h.val.Struct(req); err != nil {
		log.Warn("auth register: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, tokens, err := h.service.Register(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicate):
			log.Warn("auth register: duplicate", slog.String("email", req.Email))
			transport.WriteError(w, http.StatusConflict, "email already registered", nil)
		case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrEmptyPassword):
			transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"password": "min"})
		case errors.Is(err, ErrNotConfigured):
			log.Warn("auth register: not configured")
			transport.WriteError(w, http.StatusServiceUnavailable, "auth not configured", nil)
		default:
			log.Error("auth register: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	h.setAuthCookies(w, tokens)
	log.Info("auth register: ok", slog.String("user_id", user.ID))
	transport.WriteJSON(w, http.StatusCreated, SessionResponse{User: user, Tokens: tokens})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req LoginRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("auth login: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	req.Email = normalizeEmail(req.Email)
	if err := h.val.Struct(req); err != nil {
		log.Warn("auth login: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, tokens, err := h.service.Login(ctx, req)
	if err != nil {
		h.writeSessionError(w, log, "auth login", err)
		return
	}

	h.setAuthCookies(w, tokens)
	log.Info("auth login: ok", slog.String("user_id", user.ID), slog.String("role", user.Role))
	transport.WriteJSON(w, http.StatusOK, SessionResponse{User: user, Tokens: tokens})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	token := ""
	if cookie, err := r.Cookie(middleware.RefreshCookie); err == nil {
		token = cookie.Value
	}
	if token == "" && r.ContentLength != 0 {
		var req RefreshRequest
		if err := httpx.DecodeJSON(r.Body, &req); err == nil {
			token = strings.TrimSpace(req.RefreshToken)
		}
	}
	if token == "" {
		log.Warn("auth refresh: missing refresh token")
		transport.WriteError(w, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, tokens, err := h.service.Refresh(ctx, token)
	if err != nil {
		h.writeSessionError(w, log, "auth refresh", err)
		return
	}

	h.setAuthCookies(w, tokens)
	log.Info("auth refresh: ok", slog.String("user_id", user.ID))
	transport.WriteJSON(w, http.StatusOK, SessionResponse{User: user, Tokens: tokens})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	h.clearAuthCookies(w)
	log.Info("auth logout: ok")
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	session, _ := auth.SessionFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := h.service.Me(ctx, session)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("auth me: not found", slog.String("user_id", session.UserID))
			transport.WriteError(w, http.StatusNotFound, "user not found", nil)
			return
		}
		log.Error("auth me: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("auth me: ok", slog.String("user_id", user.ID))
	transport.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 20, 100)
	if err != nil {
		log.Warn("admin users list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, total, err := h.service.List(ctx, int64(limit), int64(offset))
	if err != nil {
		log.Error("admin users list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin users list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":  items,
		"limit":  limit,
		"offset": offset,
		"total":  total,
	})
}

func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var req RoleRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin users role: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("admin users role: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := h.service.SetRole(ctx, id, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRole):
			transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"role": "oneof"})
		case errors.Is(err, ErrNotFound):
			log.Warn("admin users role: not found", slog.String("user_id", id))
			transport.WriteError(w, http.StatusNotFound, "user not found", nil)
		default:
			log.Error("admin users role: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	log.Info("admin users role: ok", slog.String("user_id", user.ID), slog.String("role", user.Role))
	transport.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) SetPassword(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var req PasswordRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin users password: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("admin users password: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.SetPassword(ctx, id, req.Password); err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("admin users password: not found", slog.String("user_id", id))
			transport.WriteError(w, http.StatusNotFound, "user not found", nil)
			return
		}
		log.Error("admin users password: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin users password: ok", slog.String("user_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) writeSessionError(w http.ResponseWriter, log *slog.Logger, area string, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		log.Warn(area + ": invalid credentials")
		transport.WriteError(w, http.StatusUnauthorized, "invalid credentials", nil)
	case errors.Is(err, ErrNotConfigured):
		log.Warn(area + ": not configured")
		transport.WriteError(w, http.StatusServiceUnavailable, "auth not configured", nil)
	default:
		log.Error(area+": database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
	}
}

func (h *Handler) setAuthCookies(w http.ResponseWriter, tokens Tokens) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   tokens.ExpiresIn,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.RefreshCookie,
		Value:    tokens.RefreshToken,
		Path:     RefreshCookiePath,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.service.tokens.RefreshTTL.Seconds()),
	})
}

func (h *Handler) clearAuthCookies(w http.ResponseWriter) {
	expire := time.Now().Add(-1 * time.Hour)
	for _, c := range []struct{ name, path string }{
		{middleware.AccessCookie, "/"},
		{middleware.RefreshCookie, RefreshCookiePath},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     c.name,
			Value:    "",
			Path:     c.path,
			HttpOnly: true,
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteLaxMode,
			Expires:  expire,
			MaxAge:   -1,
		})
	}
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return h.log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
