package bookings

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"petshop-backend/internal/auth"
	"petshop-backend/internal/middleware"
	"petshop-backend/internal/validation"

	"github.com/go-chi/chi/v5"
)

func newTestRouter(t *testing.T) (http.Handler, *testEnv, *auth.Manager) {
	t.Helper()
	env := newTestEnv(t)
	manager := &auth.Manager{Secret: []byte("test-secret"), AccessTTL: time.Minute, RefreshTTL: time.Hour, Issuer: "petshop"}
	h := NewHandler(env.store, validation.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	r.Use(middleware.Authenticate(manager, ""))
	h.Routes(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession)
		h.SessionRoutes(r)
	})
	return r, env, manager
}

func bearer(t *testing.T, manager *auth.Manager, s auth.Session) string {
	t.Helper()
	token, err := manager.NewAccessToken(s)
	if err != nil {
		t.Fatalf("NewAccessToken error: %v", err)
	}
	return "Bearer " + token
}

func TestHandlerCreateAndConflict(t *testing.T) {
	router, _, manager := newTestRouter(t)
	body := `{"petName":"Rex","serviceId":"banho_completo","date":"2026-02-05","time":"09:00","paymentMethod":"pix"}`

	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
	req.Header.Set("Authorization", bearer(t, manager, customer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created Booking
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if created.Status != StatusPending || created.ServicePrice != 50 {
		t.Fatalf("unexpected booking: %+v", created)
	}

	req = httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
	req.Header.Set("Authorization", bearer(t, manager, auth.Session{UserID: "user-2", Role: auth.RoleCustomer}))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestHandlerCreateRequiresSession(t *testing.T) {
	router, _, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandlerCreateValidation(t *testing.T) {
	router, _, manager := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(`{"serviceId":"banho_completo","date":"2026-02-05","time":"9h"}`))
	req.Header.Set("Authorization", bearer(t, manager, customer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"time":"clock"`) {
		t.Fatalf("expected clock detail, got %s", rec.Body.String())
	}
}

func TestHandlerAvailabilityCheck(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/availability/check?serviceId=banho_completo&date=2026-02-05&time=09:00", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var avail Availability
	if err := json.Unmarshal(rec.Body.Bytes(), &avail); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if !avail.Available {
		t.Fatalf("expected available slot")
	}

	req = httptest.NewRequest(http.MethodGet, "/availability/check?serviceId=banho_completo", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandlerGetForeignBookingForbidden(t *testing.T) {
	router, env, manager := newTestRouter(t)
	b, err := env.store.Create(context.Background(), customer, bathDraft())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/bookings/"+b.ID, nil)
	req.Header.Set("Authorization", bearer(t, manager, auth.Session{UserID: "user-2", Role: auth.RoleCustomer}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/bookings/"+b.ID+"/cancel", strings.NewReader(`{"reason":"viagem"}`))
	req.Header.Set("Authorization", bearer(t, manager, customer))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"cancellationReason":"viagem"`) {
		t.Fatalf("expected reason in body, got %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/bookings/"+b.ID+"/cancel", nil)
	req.Header.Set("Authorization", bearer(t, manager, customer))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second cancel, got %d", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrInvalidArgument, http.StatusBadRequest},
		{ErrInvalidStatus, http.StatusBadRequest},
		{ErrForbidden, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrInvalidStateTransition, http.StatusConflict},
		{ErrSlotTaken, http.StatusConflict},
		{ErrBackendUnavailable, http.StatusServiceUnavailable},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got, _ := StatusFor(tc.err); got != tc.want {
			t.Fatalf("StatusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
