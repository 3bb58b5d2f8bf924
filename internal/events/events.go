package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	BookingCreated              = "booking.created"
	BookingStatusChanged        = "booking.status_changed"
	BookingPaymentStatusChanged = "booking.payment_status_changed"
)

// Event is the envelope every message on the exchange carries. Type doubles as the routing key.
type Event struct {
	ID         string    `json:"eventId"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

func New(eventType string, data any, now time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: now.UTC(),
		Data:       data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Publish(ctx context.Context, evt Event) error {
	return nil
}
