package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"petshop-backend/internal/bookings"
)

type fakeLister struct {
	date  string
	items []bookings.Booking
	err   error
}

func (f *fakeLister) ListConfirmedOn(ctx context.Context, date string) ([]bookings.Booking, error) {
	f.date = date
	return f.items, f.err
}

type fakeSender struct {
	sent []string
	fail map[string]bool
}

func (f *fakeSender) SendBookingReminder(ctx context.Context, b bookings.Booking) error {
	if f.fail[b.ID] {
		return errors.New("smtp down")
	}
	f.sent = append(f.sent, b.ID)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReminderJobTargetsTomorrowInLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	lister := &fakeLister{items: []bookings.Booking{
		{ID: "a", CustomerEmail: "a@example.com"},
		{ID: "b"},
		{ID: "c", CustomerEmail: "c@example.com"},
		{ID: "d", CustomerEmail: "d@example.com"},
	}}
	sender := &fakeSender{fail: map[string]bool{"c": true}}

	job := NewReminderJob(lister, sender, loc, discardLogger())
	// 01:30 UTC is still the previous evening in Sao Paulo.
	job.now = func() time.Time { return time.Date(2026, 2, 5, 1, 30, 0, 0, time.UTC) }

	sent, err := job.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if lister.date != "2026-02-05" {
		t.Fatalf("expected tomorrow 2026-02-05, got %s", lister.date)
	}
	if sent != 2 || len(sender.sent) != 2 || sender.sent[0] != "a" || sender.sent[1] != "d" {
		t.Fatalf("unexpected sends: %d %v", sent, sender.sent)
	}
}

func TestReminderJobListError(t *testing.T) {
	lister := &fakeLister{err: bookings.ErrBackendUnavailable}
	job := NewReminderJob(lister, &fakeSender{}, time.UTC, discardLogger())
	if _, err := job.RunOnce(context.Background()); !errors.Is(err, bookings.ErrBackendUnavailable) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := NewScheduler(time.UTC, discardLogger())
	job := NewReminderJob(&fakeLister{}, &fakeSender{}, time.UTC, discardLogger())
	if err := s.Add("reminders", "not a cron", job); err == nil {
		t.Fatalf("expected parse error")
	}
	if err := s.Add("reminders", "0 18 * * *", job); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
