package jobs

import (
	"context"
	"log/slog"
	"time"

	"petshop-backend/internal/bookings"
)

type ConfirmedLister interface {
	ListConfirmedOn(ctx context.Context, date string) ([]bookings.Booking, error)
}

type ReminderSender interface {
	SendBookingReminder(ctx context.Context, b bookings.Booking) error
}

// ReminderJob emails customers with a confirmed booking on the next calendar day.
type ReminderJob struct {
	source   ConfirmedLister
	sender   ReminderSender
	location *time.Location
	timeout  time.Duration
	log      *slog.Logger
	now      func() time.Time
}

func NewReminderJob(source ConfirmedLister, sender ReminderSender, loc *time.Location, log *slog.Logger) *ReminderJob {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &ReminderJob{
		source:   source,
		sender:   sender,
		location: loc,
		timeout:  2 * time.Minute,
		log:      log,
		now:      time.Now,
	}
}

// Run satisfies cron.Job.
func (j *ReminderJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	_, _ = j.RunOnce(ctx)
}

// RunOnce returns the number of reminders sent. Send failures are logged and skipped.
func (j *ReminderJob) RunOnce(ctx context.Context) (int, error) {
	date := j.now().In(j.location).AddDate(0, 0, 1).Format("2006-01-02")
	items, err := j.source.ListConfirmedOn(ctx, date)
	if err != nil {
		j.log.Error("jobs reminders: list failed", slog.String("date", date), slog.String("error", err.Error()))
		return 0, err
	}

	sent := 0
	for _, b := range items {
		if b.CustomerEmail == "" {
			continue
		}
		if err := j.sender.SendBookingReminder(ctx, b); err != nil {
			j.log.Warn("jobs reminders: send failed", slog.String("booking_id", b.ID), slog.String("error", err.Error()))
			continue
		}
		sent++
	}
	j.log.Info("jobs reminders: ok", slog.String("date", date), slog.Int("candidates", len(items)), slog.Int("sent", sent))
	return sent, nil
}
