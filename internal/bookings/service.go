package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"petshop-backend/internal/auth"
	"petshop-backend/internal/cache"
	"petshop-backend/internal/catalog"
	"petshop-backend/internal/events"
	"petshop-backend/internal/schedule"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrNotFound               = errors.New("booking not found")
	ErrServiceNotFound        = errors.New("service not found")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidPaymentStatus   = errors.New("invalid payment status")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrSlotTaken              = errors.New("slot already booked")
	ErrSlotUnavailable        = errors.New("slot not offered")
	ErrBackendUnavailable     = errors.New("backend unavailable")
	ErrForbidden              = errors.New("forbidden")
)

const (
	AvailabilityCachePrefix = "bookings:availability:"
	StatsCachePrefix        = "bookings:stats:"

	userListLimit = 20
	adminPageSize = 500
	// adminScanLimit bounds the in-memory admin view; hitting it marks the result Truncated.
	adminScanLimit = 50000
	notifyTimeout  = 10 * time.Second
)

type Catalog interface {
	Get(ctx context.Context, id string) (catalog.Service, error)
}

// Customer is the contact snapshot copied onto a booking.
type Customer struct {
	Name  string
	Phone string
	Email string
}

// Customers resolves the account behind a session. found is false when no account exists,
// as for the X-Admin-Key caller.
type Customers interface {
	Customer(ctx context.Context, userID string) (c Customer, found bool, err error)
}

type Notifier interface {
	SendBookingConfirmation(ctx context.Context, b Booking) error
}

type StoreConfig struct {
	Catalog   Catalog
	Customers Customers
	Policy    schedule.Policy
	Location  *time.Location
	Cache     cache.Cache
	CacheTTL  time.Duration
	Notifier  Notifier
	Publisher events.Publisher
	Log       *slog.Logger
}

// Store owns every write to a booking's status, payment status and cancellation reason.
type Store struct {
	repo      Repository
	catalog   Catalog
	customers Customers
	policy    schedule.Policy
	location  *time.Location
	cache     cache.Cache
	cacheTTL  time.Duration
	notifier  Notifier
	publisher events.Publisher
	log       *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewStore(repo Repository, cfg StoreConfig) *Store {
	s := &Store{
		repo:      repo,
		catalog:   cfg.Catalog,
		customers: cfg.Customers,
		policy:    cfg.Policy,
		location:  cfg.Location,
		cache:     cfg.Cache,
		cacheTTL:  cfg.CacheTTL,
		notifier:  cfg.Notifier,
		publisher: cfg.Publisher,
		log:       cfg.Log,
		now:       time.Now,
		newID:     func() string { return primitive.NewObjectID().Hex() },
	}
	if s.policy.StepMinutes <= 0 {
		s.policy = schedule.DefaultPolicy()
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.cache == nil {
		s.cache = cache.NewNoop()
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = time.Minute
	}
	if s.publisher == nil {
		s.publisher = events.NewNoop()
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

func (s *Store) Policy() schedule.Policy {
	return s.policy
}

// Create reserves the slot and persists a new booking. The availability check is advisory;
// the unique index on slotKey decides concurrent races.
func (s *Store) Create(ctx context.Context, session auth.Session, d Draft) (Booking, error) {
	if session.IsZero() {
		return Booking{}, fmt.Errorf("%w: missing user", ErrInvalidArgument)
	}
	d.ServiceID = strings.TrimSpace(d.ServiceID)
	if d.ServiceID == "" {
		return Booking{}, fmt.Errorf("%w: missing serviceId", ErrInvalidArgument)
	}

	date, clock, err := normalizeSlot(d.Date, d.Time)
	if err != nil {
		return Booking{}, err
	}
	d.Date, d.Time = date, clock

	// Only staff may create a booking that skips the pending state.
	if !session.IsAdmin() {
		d.Status = string(StatusPending)
	}

	svc, err := s.lookupService(ctx, d.ServiceID)
	if err != nil {
		return Booking{}, err
	}
	if d, err = s.applyCustomer(ctx, session, d); err != nil {
		return Booking{}, err
	}

	now := s.now().In(s.location)
	allowed, err := s.policy.IsSlotAllowed(date, clock, s.location)
	if err != nil {
		return Booking{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if !allowed {
		return Booking{}, ErrSlotUnavailable
	}
	if offered, _ := s.policy.IsDateOffered(date, s.location, now); !offered {
		return Booking{}, ErrSlotUnavailable
	}
	if past, _ := schedule.IsSlotPast(date, clock, s.location, now); past {
		return Booking{}, ErrSlotUnavailable
	}

	if avail := s.checkSlot(ctx, d.ServiceID, date, clock); !avail.Available {
		return Booking{}, ErrSlotTaken
	}

	booking := NewBooking(s.newID(), session.UserID, d, svc, now)
	if err := s.repo.Insert(ctx, booking); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Booking{}, ErrSlotTaken
		}
		return Booking{}, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}

	s.invalidate(ctx, booking.ServiceID)
	s.publish(ctx, events.BookingCreated, booking)
	s.notifyCreated(booking)

	return booking, nil
}

func (s *Store) Get(ctx context.Context, id string) (Booking, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Booking{}, fmt.Errorf("%w: missing booking id", ErrInvalidArgument)
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Booking{}, ErrNotFound
		}
		return Booking{}, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	return b, nil
}

// GetForSession returns the booking only to its owner or an admin.
func (s *Store) GetForSession(ctx context.Context, session auth.Session, id string) (Booking, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return Booking{}, err
	}
	if !session.IsAdmin() && b.UserID != session.UserID {
		return Booking{}, ErrForbidden
	}
	return b, nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) (ListResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ListResult{}, fmt.Errorf("%w: missing user", ErrInvalidArgument)
	}
	items, err := s.repo.ListByUser(ctx, userID, userListLimit)
	if err != nil {
		s.log.Warn("bookings list user: degraded read",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return ListResult{Items: []Booking{}, Degraded: true}, nil
	}
	return ListResult{Items: items}, nil
}

// ListAll pages through the whole collection, newest first, for the admin list and stats.
func (s *Store) ListAll(ctx context.Context) (ListResult, error) {
	items := make([]Booking, 0)
	for offset := int64(0); offset < adminScanLimit; offset += adminPageSize {
		page, err := s.repo.ListAll(ctx, adminPageSize, offset)
		if err != nil {
			s.log.Warn("bookings list all: degraded read",
				slog.Int64("offset", offset),
				slog.String("error", err.Error()),
			)
			return ListResult{Items: []Booking{}, Degraded: true}, nil
		}
		items = append(items, page...)
		if int64(len(page)) < adminPageSize {
			return ListResult{Items: items}, nil
		}
	}

	// One more row means the scan limit cut the collection short.
	extra, err := s.repo.ListAll(ctx, 1, adminScanLimit)
	if err != nil || len(extra) > 0 {
		s.log.Warn("bookings list all: truncated", slog.Int("count", len(items)))
		return ListResult{Items: items, Truncated: true}, nil
	}
	return ListResult{Items: items}, nil
}

// ListConfirmedOn returns confirmed bookings for the given YYYY-MM-DD date.
func (s *Store) ListConfirmedOn(ctx context.Context, date string) ([]Booking, error) {
	items, err := s.repo.ListByDate(ctx, date, []Status{StatusConfirmed})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	return items, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id, status, reason string) (Booking, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Booking{}, fmt.Errorf("%w: missing booking id", ErrInvalidArgument)
	}
	to, err := ParseStatus(status)
	if err != nil {
		return Booking{}, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return Booking{}, err
	}
	return s.transition(ctx, current, to, reason)
}

// CancelOwn lets a customer cancel one of their own bookings.
func (s *Store) CancelOwn(ctx context.Context, session auth.Session, id, reason string) (Booking, error) {
	current, err := s.GetForSession(ctx, session, id)
	if err != nil {
		return Booking{}, err
	}
	return s.transition(ctx, current, StatusCancelled, reason)
}

func (s *Store) transition(ctx context.Context, current Booking, to Status, reason string) (Booking, error) {
	if !CanTransition(current.Status, to) {
		return Booking{}, fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, current.Status, to)
	}

	reason = strings.TrimSpace(reason)
	if to == StatusCancelled && reason == "" {
		reason = DefaultCancellationReason
	}
	if to != StatusCancelled {
		reason = ""
	}

	now := s.now().In(s.location)
	if now.Before(current.CreatedAt) {
		now = current.CreatedAt
	}

	updated, err := s.repo.TransitionStatus(ctx, current.ID, current.Status, to, reason, now)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Someone else moved the booking between the read and the write.
			return Booking{}, fmt.Errorf("%w: status changed concurrently", ErrInvalidStateTransition)
		}
		return Booking{}, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}

	s.invalidate(ctx, updated.ServiceID)
	s.publish(ctx, events.BookingStatusChanged, map[string]any{
		"bookingId":          updated.ID,
		"userId":             updated.UserID,
		"from":               current.Status,
		"to":                 updated.Status,
		"cancellationReason": updated.CancellationReason,
	})
	return updated, nil
}

func (s *Store) UpdatePaymentStatus(ctx context.Context, id, status string) (Booking, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Booking{}, fmt.Errorf("%w: missing booking id", ErrInvalidArgument)
	}
	ps, err := ParsePaymentStatus(status)
	if err != nil {
		return Booking{}, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return Booking{}, err
	}
	now := s.now().In(s.location)
	if now.Before(current.CreatedAt) {
		now = current.CreatedAt
	}

	updated, err := s.repo.UpdatePaymentStatus(ctx, id, ps, now)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Booking{}, ErrNotFound
		}
		return Booking{}, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}

	s.invalidateStats(ctx)
	s.publish(ctx, events.BookingPaymentStatusChanged, map[string]any{
		"bookingId":     updated.ID,
		"paymentStatus": updated.PaymentStatus,
	})
	return updated, nil
}

// IsAvailable reports whether no active booking holds the slot. Backend failures fail open
// and are surfaced through Degraded.
func (s *Store) IsAvailable(ctx context.Context, serviceID, date, clock string) (Availability, error) {
	serviceID = strings.TrimSpace(serviceID)
	if serviceID == "" {
		return Availability{}, fmt.Errorf("%w: missing serviceId", ErrInvalidArgument)
	}
	date, clock, err := normalizeSlot(date, clock)
	if err != nil {
		return Availability{}, err
	}
	return s.checkSlot(ctx, serviceID, date, clock), nil
}

func (s *Store) checkSlot(ctx context.Context, serviceID, date, clock string) Availability {
	items, err := s.repo.ListActiveAt(ctx, serviceID, date, clock)
	if err != nil {
		s.log.Warn("bookings availability: failing open",
			slog.String("service_id", serviceID),
			slog.String("date", date),
			slog.String("time", clock),
			slog.String("error", err.Error()),
		)
		return Availability{Available: true, Degraded: true}
	}
	return Availability{Available: len(items) == 0}
}

// AvailableDates expands the policy calendar for a service and marks each slot held by an
// active booking, or already past, as unavailable.
func (s *Store) AvailableDates(ctx context.Context, serviceID string) ([]AvailableDate, bool, error) {
	serviceID = strings.TrimSpace(serviceID)
	if serviceID == "" {
		return nil, false, fmt.Errorf("%w: missing serviceId", ErrInvalidArgument)
	}
	if _, err := s.lookupService(ctx, serviceID); err != nil {
		return nil, false, err
	}

	now := s.now().In(s.location)
	cacheKey := AvailabilityCachePrefix + serviceID + ":" + schedule.FormatDate(now)
	if cached, ok, err := s.cache.Get(ctx, cacheKey); err == nil && ok {
		var dates []AvailableDate
		if err := json.Unmarshal(cached, &dates); err == nil {
			return dates, false, nil
		}
	}

	slots := s.policy.Slots()
	dates := make([]AvailableDate, 0)
	degraded := false
	for _, day := range s.policy.Dates(now) {
		date := schedule.FormatDate(day)
		taken := make(map[string]bool)
		held, err := s.repo.ListActiveOnDate(ctx, serviceID, date)
		if err != nil {
			s.log.Warn("bookings available dates: failing open",
				slog.String("service_id", serviceID),
				slog.String("date", date),
				slog.String("error", err.Error()),
			)
			degraded = true
		}
		for _, b := range held {
			taken[b.Time] = true
		}

		entry := AvailableDate{Date: date, Slots: make([]TimeSlot, 0, len(slots))}
		for _, clock := range slots {
			past, _ := schedule.IsSlotPast(date, clock, s.location, now)
			entry.Slots = append(entry.Slots, TimeSlot{
				Time:      clock,
				Available: !taken[clock] && !past,
			})
		}
		dates = append(dates, entry)
	}

	if !degraded {
		if payload, err := json.Marshal(dates); err == nil {
			_ = s.cache.Set(ctx, cacheKey, payload, s.cacheTTL)
		}
	}
	return dates, degraded, nil
}

func (s *Store) lookupService(ctx context.Context, serviceID string) (*catalog.Service, error) {
	if s.catalog == nil {
		return nil, nil
	}
	svc, err := s.catalog.Get(ctx, serviceID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) || errors.Is(err, catalog.ErrInvalidID) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	if !svc.Active {
		return nil, ErrServiceNotFound
	}
	return &svc, nil
}

// applyCustomer fills the contact snapshot from the caller's account. Customers cannot
// override it; staff booking on someone's behalf keep what they typed, with the account
// as the fallback.
func (s *Store) applyCustomer(ctx context.Context, session auth.Session, d Draft) (Draft, error) {
	if s.customers == nil {
		return d, nil
	}
	c, found, err := s.customers.Customer(ctx, session.UserID)
	if err != nil {
		return Draft{}, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	if !found {
		if !session.IsAdmin() {
			d.CustomerEmail = ""
		}
		return d, nil
	}

	pick := func(draft, account string) string {
		if session.IsAdmin() {
			if strings.TrimSpace(draft) != "" {
				return draft
			}
			return account
		}
		if strings.TrimSpace(account) != "" {
			return account
		}
		return draft
	}
	d.CustomerName = pick(d.CustomerName, c.Name)
	d.CustomerPhone = pick(d.CustomerPhone, c.Phone)
	d.CustomerEmail = pick(d.CustomerEmail, c.Email)
	return d, nil
}

func (s *Store) invalidate(ctx context.Context, serviceID string) {
	if err := s.cache.DeletePrefix(ctx, AvailabilityCachePrefix+serviceID+":"); err != nil {
		s.log.Warn("bookings cache: invalidate availability failed", slog.String("error", err.Error()))
	}
	s.invalidateStats(ctx)
}

func (s *Store) invalidateStats(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, StatsCachePrefix); err != nil {
		s.log.Warn("bookings cache: invalidate stats failed", slog.String("error", err.Error()))
	}
}

func (s *Store) publish(ctx context.Context, eventType string, data any) {
	if err := s.publisher.Publish(ctx, events.New(eventType, data, s.now())); err != nil {
		s.log.Warn("bookings events: publish failed",
			slog.String("type", eventType),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Store) notifyCreated(b Booking) {
	if s.notifier == nil || b.CustomerEmail == "" {
		return
	}
	go func(created Booking) {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.SendBookingConfirmation(ctx, created); err != nil {
			s.log.Warn("bookings create: confirmation email failed",
				slog.String("booking_id", created.ID),
				slog.String("error", err.Error()),
			)
		}
	}(b)
}

func normalizeSlot(rawDate, rawTime string) (string, string, error) {
	date, ok := schedule.NormalizeDate(rawDate)
	if !ok {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidArgument, schedule.ErrInvalidDate)
	}
	minutes, err := schedule.ParseClockToMinutes(strings.TrimSpace(rawTime))
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return date, schedule.MinutesToClock(minutes), nil
}
