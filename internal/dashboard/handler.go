package dashboard

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"petshop-backend/internal/bookings"
	"petshop-backend/internal/httpx"
	"petshop-backend/internal/middleware"
	"petshop-backend/internal/transport"
	"petshop-backend/internal/validation"

	"github.com/go-chi/chi/v5"
)

type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled completed"`
	Reason string `json:"reason" validate:"max=500"`
}

type PaymentUpdateRequest struct {
	PaymentStatus string `json:"paymentStatus" validate:"required,oneof=pending paid failed refunded"`
}

type Handler struct {
	service *Service
	val     *validation.Validator
	log     *slog.Logger
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{
		service: service,
		val:     val,
		log:     log,
	}
}

// Routes mounts the admin dashboard endpoints; callers wrap them with RequireAdmin.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/admin/bookings", h.List)
	r.Get("/admin/stats", h.Stats)
	r.Patch("/admin/bookings/{id}/status", h.UpdateStatus)
	r.Patch("/admin/bookings/{id}/payment", h.UpdatePayment)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	q := r.URL.Query()

	limit, offset, err := httpx.ParseLimitOffset(q, 50, 500)
	if err != nil {
		log.Warn("admin bookings list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	filters := Filters{
		Date:      strings.TrimSpace(q.Get("date")),
		Status:    strings.TrimSpace(q.Get("status")),
		ServiceID: strings.TrimSpace(q.Get("serviceId")),
		Search:    strings.TrimSpace(q.Get("search")),
	}
	if filters.Status != "" && !strings.EqualFold(filters.Status, StatusAll) {
		if _, err := bookings.ParseStatus(filters.Status); err != nil {
			log.Warn("admin bookings list: invalid status", slog.String("status", filters.Status))
			transport.WriteError(w, http.StatusBadRequest, "invalid query", map[string]string{"status": "oneof"})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	result, err := h.service.List(ctx, filters)
	if err != nil {
		h.writeError(w, log, "admin bookings list", err)
		return
	}

	items := httpx.Page(result.Items, limit, offset)
	log.Info("admin bookings list: ok",
		slog.Int("count", len(items)),
		slog.Bool("degraded", result.Degraded),
		slog.Bool("truncated", result.Truncated),
	)
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":     items,
		"limit":     limit,
		"offset":    offset,
		"total":     len(result.Items),
		"degraded":  result.Degraded,
		"truncated": result.Truncated,
	})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	stats, degraded, err := h.service.Stats(ctx)
	if err != nil {
		h.writeError(w, log, "admin stats", err)
		return
	}

	log.Info("admin stats: ok", slog.Int("total", stats.TotalBookings), slog.Bool("degraded", degraded))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"stats":    stats,
		"degraded": degraded,
	})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var req StatusUpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin bookings status: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("admin bookings status: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	booking, err := h.service.UpdateStatus(ctx, id, req.Status, req.Reason)
	if err != nil {
		h.writeError(w, log, "admin bookings status", err)
		return
	}

	log.Info("admin bookings status: ok", slog.String("booking_id", booking.ID), slog.String("status", string(booking.Status)))
	transport.WriteJSON(w, http.StatusOK, booking)
}

func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var req PaymentUpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin bookings payment: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("admin bookings payment: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	booking, err := h.service.UpdatePaymentStatus(ctx, id, req.PaymentStatus)
	if err != nil {
		h.writeError(w, log, "admin bookings payment", err)
		return
	}

	log.Info("admin bookings payment: ok", slog.String("booking_id", booking.ID), slog.String("payment_status", string(booking.PaymentStatus)))
	transport.WriteJSON(w, http.StatusOK, booking)
}

func (h *Handler) writeError(w http.ResponseWriter, log *slog.Logger, area string, err error) {
	status, message := bookings.StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error(area+": "+message, slog.String("error", err.Error()))
	} else {
		log.Warn(area+": "+message, slog.String("error", err.Error()))
	}
	transport.WriteError(w, status, message, nil)
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
