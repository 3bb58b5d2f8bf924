package dashboard

import (
	"sort"
	"time"

	"petshop-backend/internal/bookings"
	"petshop-backend/internal/schedule"
)

const popularServicesLimit = 5

type PopularService struct {
	ServiceName string `json:"serviceName"`
	Count       int    `json:"count"`
}

type AdminStats struct {
	TotalBookings     int              `json:"totalBookings"`
	PendingBookings   int              `json:"pendingBookings"`
	ConfirmedBookings int              `json:"confirmedBookings"`
	CompletedBookings int              `json:"completedBookings"`
	CancelledBookings int              `json:"cancelledBookings"`
	TodayBookings     int              `json:"todayBookings"`
	MonthlyRevenue    float64          `json:"monthlyRevenue"`
	PopularServices   []PopularService `json:"popularServices"`
	// Truncated means the aggregate covers only the newest bookings up to the scan limit.
	Truncated bool `json:"truncated,omitempty"`
}

// ComputeStats aggregates the booking collection as seen at now. Dates compare as
// YYYY-MM-DD strings, which order correctly because the format is fixed width.
func ComputeStats(all []bookings.Booking, now time.Time) AdminStats {
	today := schedule.FormatDate(now)
	monthStart := now.Format("2006-01") + "-01"

	stats := AdminStats{TotalBookings: len(all)}
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, b := range all {
		switch b.Status {
		case bookings.StatusPending:
			stats.PendingBookings++
		case bookings.StatusConfirmed:
			stats.ConfirmedBookings++
		case bookings.StatusCompleted:
			stats.CompletedBookings++
		case bookings.StatusCancelled:
			stats.CancelledBookings++
		}

		date, ok := schedule.NormalizeDate(b.Date)
		if ok && date == today {
			stats.TodayBookings++
		}
		if ok && b.Status == bookings.StatusCompleted && date >= monthStart {
			stats.MonthlyRevenue += b.ServicePrice
		}

		if _, seen := counts[b.ServiceName]; !seen {
			order = append(order, b.ServiceName)
		}
		counts[b.ServiceName]++
	}

	popular := make([]PopularService, 0, len(order))
	for _, name := range order {
		popular = append(popular, PopularService{ServiceName: name, Count: counts[name]})
	}
	sort.SliceStable(popular, func(i, j int) bool {
		return popular[i].Count > popular[j].Count
	})
	if len(popular) > popularServicesLimit {
		popular = popular[:popularServicesLimit]
	}
	stats.PopularServices = popular

	return stats
}
