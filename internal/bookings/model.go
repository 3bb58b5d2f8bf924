package bookings

import (
	"fmt"
	"strings"
	"time"

	"petshop-backend/internal/catalog"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

var allowedTransitions = map[Status]map[Status]bool{
	StatusPending:   {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed: {StatusCompleted: true, StatusCancelled: true},
	StatusCancelled: {},
	StatusCompleted: {},
}

func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusConfirmed:
		return StatusConfirmed, nil
	case StatusCancelled:
		return StatusCancelled, nil
	case StatusCompleted:
		return StatusCompleted, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// IsActive reports whether a booking in this status holds its slot.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

func CanTransition(from, to Status) bool {
	return allowedTransitions[from][to]
}

var activeStatuses = []Status{StatusPending, StatusConfirmed}

type PaymentMethod string

const (
	PaymentLuckCoins  PaymentMethod = "luckcoins"
	PaymentPix        PaymentMethod = "pix"
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentDebitCard  PaymentMethod = "debit_card"
	PaymentMoney      PaymentMethod = "money"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case PaymentLuckCoins, PaymentPix, PaymentCreditCard, PaymentDebitCard, PaymentMoney:
		return m, true
	default:
		return "", false
	}
}

// InitialPaymentStatus: loyalty coins are debited up front, everything else is settled later.
func (m PaymentMethod) InitialPaymentStatus() PaymentStatus {
	if m == PaymentLuckCoins {
		return PaymentPaid
	}
	return PaymentPending
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch p := PaymentStatus(strings.ToLower(strings.TrimSpace(s))); p {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, s)
	}
}

const (
	DefaultPetName            = "Meu Pet"
	DefaultPetType            = "outro"
	DefaultDuration           = 60
	DefaultCancellationReason = "Não informado"
)

type Booking struct {
	ID     string `bson:"_id,omitempty" json:"id"`
	UserID string `bson:"userId" json:"userId"`

	PetName  string `bson:"petName" json:"petName"`
	PetType  string `bson:"petType" json:"petType"`
	PetBreed string `bson:"petBreed,omitempty" json:"petBreed,omitempty"`
	PetAge   string `bson:"petAge,omitempty" json:"petAge,omitempty"`

	ServiceID    string  `bson:"serviceId" json:"serviceId"`
	ServiceName  string  `bson:"serviceName" json:"serviceName"`
	ServicePrice float64 `bson:"servicePrice" json:"servicePrice"`
	Duration     int     `bson:"duration" json:"duration"`

	Date string `bson:"date" json:"date"`
	Time string `bson:"time" json:"time"`

	Status             Status        `bson:"status" json:"status"`
	PaymentMethod      PaymentMethod `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus      PaymentStatus `bson:"paymentStatus" json:"paymentStatus"`
	Notes              string        `bson:"notes,omitempty" json:"notes,omitempty"`
	CancellationReason string        `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`

	CustomerName  string `bson:"customerName" json:"customerName"`
	CustomerPhone string `bson:"customerPhone" json:"customerPhone"`
	CustomerEmail string `bson:"customerEmail" json:"customerEmail"`

	// SlotKey is only present while Status is active; a unique index on it makes slot reservation atomic.
	SlotKey string `bson:"slotKey,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func SlotKey(serviceID, date, clock string) string {
	return serviceID + "|" + date + "|" + clock
}

// Draft is what a customer submits from the booking modal.
type Draft struct {
	PetName  string `json:"petName" validate:"max=80"`
	PetType  string `json:"petType" validate:"max=40"`
	PetBreed string `json:"petBreed" validate:"max=80"`
	PetAge   string `json:"petAge" validate:"max=40"`

	ServiceID    string  `json:"serviceId" validate:"required"`
	ServiceName  string  `json:"serviceName"`
	ServicePrice float64 `json:"servicePrice" validate:"gte=0"`
	Duration     int     `json:"duration" validate:"gte=0"`

	Date string `json:"date" validate:"required"`
	Time string `json:"time" validate:"required,clock"`

	Status        string `json:"status"`
	PaymentMethod string `json:"paymentMethod"`
	Notes         string `json:"notes" validate:"max=1000"`

	CustomerName  string `json:"customerName" validate:"max=120"`
	CustomerPhone string `json:"customerPhone"`
	CustomerEmail string `json:"customerEmail" validate:"omitempty,email"`
}

// NewBooking applies the one canonical defaulting table. Price, duration and name come from
// the catalog record when given; the draft values are used only without a catalog.
func NewBooking(id, userID string, d Draft, svc *catalog.Service, now time.Time) Booking {
	petName := strings.TrimSpace(d.PetName)
	if petName == "" {
		petName = DefaultPetName
	}
	petType := strings.ToLower(strings.TrimSpace(d.PetType))
	if petType == "" {
		petType = DefaultPetType
	}

	serviceName := strings.TrimSpace(d.ServiceName)
	price := d.ServicePrice
	duration := d.Duration
	if svc != nil {
		serviceName = svc.Name
		price = svc.Price
		duration = svc.Duration
	}
	if serviceName == "" {
		serviceName = d.ServiceID
	}
	if duration <= 0 {
		duration = DefaultDuration
	}

	status := Status(strings.ToLower(strings.TrimSpace(d.Status)))
	if status != StatusPending && status != StatusConfirmed {
		status = StatusPending
	}

	method, ok := ParsePaymentMethod(d.PaymentMethod)
	if !ok {
		method = PaymentMoney
	}

	serviceID := strings.TrimSpace(d.ServiceID)
	return Booking{
		ID:            id,
		UserID:        userID,
		PetName:       petName,
		PetType:       petType,
		PetBreed:      strings.TrimSpace(d.PetBreed),
		PetAge:        strings.TrimSpace(d.PetAge),
		ServiceID:     serviceID,
		ServiceName:   serviceName,
		ServicePrice:  price,
		Duration:      duration,
		Date:          d.Date,
		Time:          d.Time,
		Status:        status,
		PaymentMethod: method,
		PaymentStatus: method.InitialPaymentStatus(),
		Notes:         strings.TrimSpace(d.Notes),
		CustomerName:  strings.TrimSpace(d.CustomerName),
		CustomerPhone: strings.TrimSpace(d.CustomerPhone),
		CustomerEmail: strings.ToLower(strings.TrimSpace(d.CustomerEmail)),
		SlotKey:       SlotKey(serviceID, d.Date, d.Time),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// TimeSlot and AvailableDate are computed per request and never stored.
type TimeSlot struct {
	Time         string `json:"time"`
	Available    bool   `json:"available"`
	Professional string `json:"professional,omitempty"`
}

type AvailableDate struct {
	Date  string     `json:"date"`
	Slots []TimeSlot `json:"slots"`
}

// Availability is the checker's answer. Degraded means the backend could not be
// queried and Available is the fail-open default.
type Availability struct {
	Available bool `json:"available"`
	Degraded  bool `json:"degraded,omitempty"`
}

type ListResult struct {
	Items    []Booking
	Degraded bool
	// Truncated is set when the collection is larger than the admin scan limit.
	Truncated bool
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}
