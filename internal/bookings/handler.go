package bookings

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

type Handler struct {
	store *Store
	val   *validation.Validator
	log   *slog.Logger
}

func NewHandler(store *Store, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{
		store: store,
		val:   val,
		log:   log,
	}
}

// Routes mounts the public availability endpoints. Booking endpoints require a session
// and are mounted by SessionRoutes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/availability", h.AvailableDates)
	r.Get("/availability/check", h.Check)
}

func (h *Handler) SessionRoutes(r chi.Router) {
	r.Post("/bookings", h.Create)
	r.Get("/bookings/me", h.ListMine)
	r.Get("/bookings/{id}", h.Get)
	r.Post("/bookings/{id}/cancel", h.Cancel)
}

func (h *Handler) AvailableDates(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	serviceID := strings.TrimSpace(r.URL.Query().Get("serviceId"))
	if serviceID == "" {
		log.Warn("availability dates: missing serviceId")
		transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"serviceId": "required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	dates, degraded, err := h.store.AvailableDates(ctx, serviceID)
	if err != nil {
		h.writeError(w, log, "availability dates", err)
		return
	}

	log.Info("availability dates: ok", slog.String("service_id", serviceID), slog.Int("count", len(dates)), slog.Bool("degraded", degraded))
	transport.WriteList(w, dates, len(dates), degraded)
}

func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	q := r.URL.Query()
	serviceID := strings.TrimSpace(q.Get("serviceId"))
	date := strings.TrimSpace(q.Get("date"))
	clock := strings.TrimSpace(q.Get("time"))

	details := map[string]string{}
	if serviceID == "" {
		details["serviceId"] = "required"
	}
	if date == "" {
		details["date"] = "required"
	}
	if clock == "" {
		details["time"] = "required"
	}
	if len(details) > 0 {
		log.Warn("availability check: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	avail, err := h.store.IsAvailable(ctx, serviceID, date, clock)
	if err != nil {
		h.writeError(w, log, "availability check", err)
		return
	}

	log.Info("availability check: ok", slog.String("service_id", serviceID), slog.Bool("available", avail.Available))
	transport.WriteJSON(w, http.StatusOK, avail)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	session, _ := auth.SessionFromContext(r.Context())

	var draft Draft
	if err := httpx.DecodeJSON(r.Body, &draft); err != nil {
		log.Warn("bookings create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := h.val.Struct(draft); err != nil {
		log.Warn("bookings create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	booking, err := h.store.Create(ctx, session, draft)
	if err != nil {
		h.writeError(w, log, "bookings create", err)
		return
	}

	log.Info("bookings create: ok",
		slog.String("booking_id", booking.ID),
		slog.String("service_id", booking.ServiceID),
		slog.String("date", booking.Date),
		slog.String("time", booking.Time),
	)
	transport.WriteJSON(w, http.StatusCreated, booking)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	session, _ := auth.SessionFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := h.store.ListByUser(ctx, session.UserID)
	if err != nil {
		h.writeError(w, log, "bookings list user", err)
		return
	}

	log.Info("bookings list user: ok", slog.Int("count", len(result.Items)), slog.Bool("degraded", result.Degraded))
	transport.WriteList(w, result.Items, len(result.Items), result.Degraded)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	session, _ := auth.SessionFromContext(r.Context())
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	booking, err := h.store.GetForSession(ctx, session, id)
	if err != nil {
		h.writeError(w, log, "bookings get", err)
		return
	}

	log.Info("bookings get: ok", slog.String("booking_id", booking.ID))
	transport.WriteJSON(w, http.StatusOK, booking)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	session, _ := auth.SessionFromContext(r.Context())
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var req CancelRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r.Body, &req); err != nil {
			log.Warn("bookings cancel: invalid json")
			transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
			return
		}
		if err := h.val.Struct(req); err != nil {
			log.Warn("bookings cancel: validation error")
			transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	booking, err := h.store.CancelOwn(ctx, session, id, req.Reason)
	if err != nil {
		h.writeError(w, log, "bookings cancel", err)
		return
	}

	log.Info("bookings cancel: ok", slog.String("booking_id", booking.ID))
	transport.WriteJSON(w, http.StatusOK, booking)
}

func (h *Handler) writeError(w http.ResponseWriter, log *slog.Logger, area string, err error) {
	status, message := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error(area+": "+message, slog.String("error", err.Error()))
	} else {
		log.Warn(area+": "+message, slog.String("error", err.Error()))
	}
	transport.WriteError(w, status, message, nil)
}

// StatusFor maps store errors to an HTTP status and a client-facing message.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidStatus):
		return http.StatusBadRequest, "invalid status"
	case errors.Is(err, ErrInvalidPaymentStatus):
		return http.StatusBadRequest, "invalid payment status"
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest, "invalid argument"
	case errors.Is(err, ErrSlotUnavailable):
		return http.StatusBadRequest, "slot not offered"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "booking not found"
	case errors.Is(err, ErrServiceNotFound):
		return http.StatusNotFound, "service not found"
	case errors.Is(err, ErrInvalidStateTransition):
		return http.StatusConflict, "invalid state transition"
	case errors.Is(err, ErrSlotTaken):
		return http.StatusConflict, "slot already booked"
	case errors.Is(err, ErrBackendUnavailable):
		return http.StatusServiceUnavailable, "backend unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
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
