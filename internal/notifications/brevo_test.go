package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"petshop-backend/internal/bookings"
)

func testBooking() bookings.Booking {
	return bookings.Booking{
		ID:            "b1",
		PetName:       "Thor",
		ServiceName:   "Banho Completo",
		ServicePrice:  45,
		Duration:      60,
		Date:          "2026-02-05",
		Time:          "09:00",
		Status:        bookings.StatusPending,
		PaymentMethod: bookings.PaymentPix,
		CustomerName:  "Ana Souza",
		CustomerEmail: "ana@example.com",
	}
}

func TestNewBrevoClientDisabledWithoutKey(t *testing.T) {
	if c := NewBrevoClient("", "loja@example.com", "Pet Shop", false); c != nil {
		t.Fatalf("expected nil client without api key")
	}
	if c := NewBrevoClient("key", " ", "Pet Shop", false); c != nil {
		t.Fatalf("expected nil client without sender")
	}
}

func TestSendBookingConfirmation(t *testing.T) {
	var got brevoSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api-key") != "key" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"<m1@brevo>"}`))
	}))
	defer srv.Close()

	c := NewBrevoClient("key", "loja@example.com", "Pet Shop", true)
	c.endpoint = srv.URL

	if err := c.SendBookingConfirmation(context.Background(), testBooking()); err != nil {
		t.Fatalf("SendBookingConfirmation error: %v", err)
	}
	if len(got.To) != 1 || got.To[0].Email != "ana@example.com" {
		t.Fatalf("unexpected recipients: %+v", got.To)
	}
	if got.Headers["X-Sib-Sandbox"] != "drop" {
		t.Fatalf("expected sandbox header")
	}
	for _, want := range []string{"05/02/2026", "R$ 45,00", "Pix", "Aguardando confirmação", "Thor"} {
		if !strings.Contains(got.HtmlContent, want) {
			t.Fatalf("expected %q in body: %s", want, got.HtmlContent)
		}
	}
}

func TestSendBookingReminderFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewBrevoClient("bad", "loja@example.com", "", false)
	c.endpoint = srv.URL

	err := c.SendBookingReminder(context.Background(), testBooking())
	if err == nil || !strings.Contains(err.Error(), "status=401") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestSendRequiresRecipient(t *testing.T) {
	c := NewBrevoClient("key", "loja@example.com", "Pet Shop", false)
	b := testBooking()
	b.CustomerEmail = ""
	if err := c.SendBookingConfirmation(context.Background(), b); err == nil {
		t.Fatalf("expected missing recipient error")
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := formatDate("2026-12-01"); got != "01/12/2026" {
		t.Fatalf("formatDate = %q", got)
	}
	if got := formatDate("1/12/2026"); got != "1/12/2026" {
		t.Fatalf("formatDate passthrough = %q", got)
	}
	if got := formatPrice(120.5); got != "R$ 120,50" {
		t.Fatalf("formatPrice = %q", got)
	}
}
