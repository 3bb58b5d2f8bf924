package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"petshop-backend/internal/cache"
	"petshop-backend/internal/httpx"
	"petshop-backend/internal/middleware"
	"petshop-backend/internal/transport"
	"petshop-backend/internal/validation"

	"github.com/go-chi/chi/v5"
)

const publicCacheKey = "services:active"

type Handler struct {
	manager  *Manager
	val      *validation.Validator
	cache    cache.Cache
	cacheTTL time.Duration
	log      *slog.Logger
}

func NewHandler(manager *Manager, val *validation.Validator, c cache.Cache, cacheTTL time.Duration, log *slog.Logger) *Handler {
	if c == nil {
		c = cache.NewNoop()
	}
	return &Handler{
		manager:  manager,
		val:      val,
		cache:    c,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/services", h.ListPublic)
	r.Get("/services/{id}", h.Get)
}

func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/admin/services", h.ListAdmin)
	r.Post("/admin/services", h.Create)
	r.Put("/admin/services/{id}", h.Update)
	r.Patch("/admin/services/{id}/active", h.SetActive)
}

func (h *Handler) ListPublic(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	if cached, ok, err := h.cache.Get(r.Context(), publicCacheKey); err == nil && ok {
		log.Info("services: cache hit")
		transport.WriteRaw(w, http.StatusOK, cached)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.manager.ListPublic(ctx)
	if err != nil {
		log.Error("services: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	response := map[string]interface{}{
		"services": items,
	}
	if payload, err := json.Marshal(response); err == nil {
		_ = h.cache.Set(r.Context(), publicCacheKey, payload, h.cacheTTL)
	}

	log.Info("services: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, response)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	svc, err := h.manager.Get(ctx, id)
	if err != nil || !svc.Active {
		if err == nil || errors.Is(err, ErrNotFound) {
			log.Warn("services get: not found", slog.String("service_id", id))
			transport.WriteError(w, http.StatusNotFound, "service not found", nil)
			return
		}
		log.Error("services get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("services get: ok", slog.String("service_id", id))
	transport.WriteJSON(w, http.StatusOK, svc)
}

func (h *Handler) ListAdmin(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.manager.ListAdmin(ctx)
	if err != nil {
		log.Error("admin services list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin services list: ok", slog.Int("count", len(items)))
	transport.WriteList(w, items, len(items), false)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin services create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("admin services create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	svc, err := h.manager.Create(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidID):
			transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"id": "slug"})
		case errors.Is(err, ErrDuplicate):
			log.Warn("admin services create: duplicate", slog.String("name", req.Name))
			transport.WriteError(w, http.StatusConflict, "service already exists", nil)
		default:
			log.Error("admin services create: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	h.invalidate(r.Context(), log)
	log.Info("admin services create: ok", slog.String("service_id", svc.ID))
	transport.WriteJSON(w, http.StatusCreated, svc)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var req UpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin services update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("admin services update: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	svc, err := h.manager.Update(ctx, id, req)
	if err != nil {
		h.writeWriteError(w, log, "admin services update", id, err)
		return
	}

	h.invalidate(r.Context(), log)
	log.Info("admin services update: ok", slog.String("service_id", svc.ID))
	transport.WriteJSON(w, http.StatusOK, svc)
}

func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var req ActiveRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin services active: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("admin services active: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	svc, err := h.manager.SetActive(ctx, id, *req.Active)
	if err != nil {
		h.writeWriteError(w, log, "admin services active", id, err)
		return
	}

	h.invalidate(r.Context(), log)
	log.Info("admin services active: ok", slog.String("service_id", svc.ID), slog.Bool("active", svc.Active))
	transport.WriteJSON(w, http.StatusOK, svc)
}

func (h *Handler) writeWriteError(w http.ResponseWriter, log *slog.Logger, area, id string, err error) {
	if errors.Is(err, ErrNotFound) {
		log.Warn(area+": not found", slog.String("service_id", id))
		transport.WriteError(w, http.StatusNotFound, "service not found", nil)
		return
	}
	log.Error(area+": database error", slog.String("error", err.Error()))
	transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
}

func (h *Handler) invalidate(ctx context.Context, log *slog.Logger) {
	if err := h.cache.Delete(ctx, publicCacheKey); err != nil {
		log.Warn("services cache: invalidate failed", slog.String("error", err.Error()))
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
