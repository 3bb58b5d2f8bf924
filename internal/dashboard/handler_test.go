package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"petshop-backend/internal/bookings"
	"petshop-backend/internal/validation"

	"github.com/go-chi/chi/v5"
)

type fakeSource struct {
	items     []bookings.Booking
	degraded  bool
	truncated bool
	listed    int
}

func (f *fakeSource) ListAll(ctx context.Context) (bookings.ListResult, error) {
	f.listed++
	if f.degraded {
		return bookings.ListResult{Items: []bookings.Booking{}, Degraded: true}, nil
	}
	return bookings.ListResult{Items: f.items, Truncated: f.truncated}, nil
}

func (f *fakeSource) UpdateStatus(ctx context.Context, id, status, reason string) (bookings.Booking, error) {
	for i, b := range f.items {
		if b.ID != id {
			continue
		}
		to, err := bookings.ParseStatus(status)
		if err != nil {
			return bookings.Booking{}, err
		}
		if !bookings.CanTransition(b.Status, to) {
			return bookings.Booking{}, bookings.ErrInvalidStateTransition
		}
		f.items[i].Status = to
		return f.items[i], nil
	}
	return bookings.Booking{}, bookings.ErrNotFound
}

func (f *fakeSource) UpdatePaymentStatus(ctx context.Context, id, status string) (bookings.Booking, error) {
	return bookings.Booking{}, errors.New("connection reset")
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memCache) DeletePrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func newDashboard(source *fakeSource, c *memCache) (*Service, http.Handler) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(source, c, time.Minute, time.UTC, log)
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	NewHandler(svc, validation.New(), log).Routes(r)
	return svc, r
}

func TestAdminListFiltersAndPages(t *testing.T) {
	_, router := newDashboard(&fakeSource{items: fixtureBookings()}, &memCache{data: map[string][]byte{}})

	req := httptest.NewRequest(http.MethodGet, "/admin/bookings?status=pending&limit=1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Items []bookings.Booking `json:"items"`
		Total int                `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body.Total != 2 || len(body.Items) != 1 || body.Items[0].ID != "a1" {
		t.Fatalf("unexpected page: %+v", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/bookings?status=archived", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}
}

func TestAdminStatsCachedUntilInvalidated(t *testing.T) {
	source := &fakeSource{items: []bookings.Booking{
		{ID: "x", Status: bookings.StatusCompleted, Date: "2024-03-05", ServicePrice: 45, ServiceName: "Banho"},
	}}
	c := &memCache{data: map[string][]byte{}}
	svc, _ := newDashboard(source, c)

	first, degraded, err := svc.Stats(context.Background())
	if err != nil || degraded {
		t.Fatalf("Stats error: %v degraded=%v", err, degraded)
	}
	if first.MonthlyRevenue != 45 {
		t.Fatalf("expected revenue 45, got %.2f", first.MonthlyRevenue)
	}
	if _, _, err := svc.Stats(context.Background()); err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if source.listed != 1 {
		t.Fatalf("expected cached second read, source listed %d times", source.listed)
	}

	_ = c.DeletePrefix(context.Background(), bookings.StatsCachePrefix)
	if _, _, err := svc.Stats(context.Background()); err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if source.listed != 2 {
		t.Fatalf("expected reload after invalidation, source listed %d times", source.listed)
	}
}

func TestAdminStatsDegradedNotCached(t *testing.T) {
	source := &fakeSource{degraded: true}
	c := &memCache{data: map[string][]byte{}}
	svc, _ := newDashboard(source, c)

	_, degraded, err := svc.Stats(context.Background())
	if err != nil || !degraded {
		t.Fatalf("expected degraded stats, got err=%v degraded=%v", err, degraded)
	}
	if len(c.data) != 0 {
		t.Fatalf("degraded stats must not be cached")
	}
}

func TestAdminUpdateStatus(t *testing.T) {
	_, router := newDashboard(&fakeSource{items: fixtureBookings()}, &memCache{data: map[string][]byte{}})

	req := httptest.NewRequest(http.MethodPatch, "/admin/bookings/a1/status", strings.NewReader(`{"status":"confirmed"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPatch, "/admin/bookings/a5/status", strings.NewReader(`{"status":"pending"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for completed -> pending, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPatch, "/admin/bookings/a1/status", strings.NewReader(`{"status":"archived"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPatch, "/admin/bookings/zz/status", strings.NewReader(`{"status":"confirmed"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAdminUpdatePaymentBackendError(t *testing.T) {
	_, router := newDashboard(&fakeSource{items: fixtureBookings()}, &memCache{data: map[string][]byte{}})

	req := httptest.NewRequest(http.MethodPatch, "/admin/bookings/a1/payment", strings.NewReader(`{"paymentStatus":"paid"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestAdminTruncatedCollectionIsReported(t *testing.T) {
	source := &fakeSource{items: fixtureBookings(), truncated: true}
	svc, router := newDashboard(source, &memCache{data: map[string][]byte{}})

	stats, _, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if !stats.Truncated {
		t.Fatalf("expected truncated stats")
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/bookings", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var body struct {
		Truncated bool `json:"truncated"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if rec.Code != http.StatusOK || !body.Truncated {
		t.Fatalf("expected truncated list, got %d %s", rec.Code, rec.Body.String())
	}
}
