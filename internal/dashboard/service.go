package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"petshop-backend/internal/bookings"
	"petshop-backend/internal/cache"
	"petshop-backend/internal/schedule"
)

// BookingSource is the part of the booking store the dashboard reads from and writes through.
type BookingSource interface {
	ListAll(ctx context.Context) (bookings.ListResult, error)
	UpdateStatus(ctx context.Context, id, status, reason string) (bookings.Booking, error)
	UpdatePaymentStatus(ctx context.Context, id, status string) (bookings.Booking, error)
}

type Service struct {
	source   BookingSource
	cache    cache.Cache
	cacheTTL time.Duration
	location *time.Location
	log      *slog.Logger
	now      func() time.Time
}

func NewService(source BookingSource, c cache.Cache, cacheTTL time.Duration, location *time.Location, log *slog.Logger) *Service {
	if c == nil {
		c = cache.NewNoop()
	}
	if location == nil {
		location = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		source:   source,
		cache:    c,
		cacheTTL: cacheTTL,
		location: location,
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) List(ctx context.Context, f Filters) (bookings.ListResult, error) {
	all, err := s.source.ListAll(ctx)
	if err != nil {
		return bookings.ListResult{}, err
	}
	return bookings.ListResult{
		Items:     FilterBookings(all.Items, f),
		Degraded:  all.Degraded,
		Truncated: all.Truncated,
	}, nil
}

// Stats returns the dashboard aggregate. Results are cached per day until the next booking
// write invalidates the stats prefix.
func (s *Service) Stats(ctx context.Context) (AdminStats, bool, error) {
	now := s.now().In(s.location)
	key := bookings.StatsCachePrefix + schedule.FormatDate(now)

	if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var stats AdminStats
		if err := json.Unmarshal(cached, &stats); err == nil {
			return stats, false, nil
		}
	} else if err != nil {
		s.log.Warn("dashboard stats: cache read failed", slog.String("error", err.Error()))
	}

	all, err := s.source.ListAll(ctx)
	if err != nil {
		return AdminStats{}, false, err
	}
	stats := ComputeStats(all.Items, now)
	stats.Truncated = all.Truncated

	if !all.Degraded && s.cacheTTL > 0 {
		if payload, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
				s.log.Warn("dashboard stats: cache write failed", slog.String("error", err.Error()))
			}
		}
	}
	return stats, all.Degraded, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id, status, reason string) (bookings.Booking, error) {
	return s.source.UpdateStatus(ctx, id, status, reason)
}

func (s *Service) UpdatePaymentStatus(ctx context.Context, id, status string) (bookings.Booking, error) {
	return s.source.UpdatePaymentStatus(ctx, id, status)
}
