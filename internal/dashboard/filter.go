package dashboard

import (
	"strings"

	"petshop-backend/internal/bookings"
	"petshop-backend/internal/schedule"
)

// StatusAll disables the status filter.
const StatusAll = "all"

type Filters struct {
	Date      string
	Status    string
	ServiceID string
	Search    string
}

// serviceSynonyms maps a catalog id to the service-name fragments that count as a match.
// Older bookings carry free-text service names, so an id alone is not enough.
var serviceSynonyms = map[string][]string{
	"banho_completo":       {"banho completo", "banho_completo", "banho"},
	"tosa_higienica":       {"tosa higiênica", "tosa higienica", "tosa_higienica", "tosa"},
	"banho_e_tosa":         {"banho e tosa", "banho & tosa", "banho_e_tosa", "banho + tosa"},
	"consulta_veterinaria": {"consulta veterinária", "consulta veterinaria", "consulta_veterinaria", "consulta", "veterin"},
	"vacinacao":            {"vacinação", "vacinacao", "vacina"},
	"hidratacao":           {"hidratação", "hidratacao", "hidrata"},
}

// FilterBookings applies every non-empty filter; a booking must satisfy all of them.
func FilterBookings(all []bookings.Booking, f Filters) []bookings.Booking {
	date := strings.TrimSpace(f.Date)
	if date != "" {
		date = normalizeOrRaw(date)
	}
	status := strings.ToLower(strings.TrimSpace(f.Status))
	serviceID := strings.ToLower(strings.TrimSpace(f.ServiceID))
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]bookings.Booking, 0, len(all))
	for _, b := range all {
		if date != "" && normalizeOrRaw(b.Date) != date {
			continue
		}
		if status != "" && status != StatusAll && string(b.Status) != status {
			continue
		}
		if serviceID != "" && !matchesService(b, serviceID) {
			continue
		}
		if search != "" && !matchesSearch(b, search) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func matchesService(b bookings.Booking, serviceID string) bool {
	if strings.ToLower(b.ServiceID) == serviceID {
		return true
	}
	name := strings.ToLower(b.ServiceName)
	synonyms, ok := serviceSynonyms[serviceID]
	if !ok {
		return strings.Contains(name, serviceID)
	}
	for _, s := range synonyms {
		if strings.Contains(name, s) {
			return true
		}
	}
	return false
}

func matchesSearch(b bookings.Booking, search string) bool {
	fields := []string{
		b.PetName,
		CustomerDisplayName(b),
		b.ServiceName,
		b.CustomerPhone,
		b.CustomerEmail,
		b.ID,
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

// CustomerDisplayName is the first name of the customer, or a short user reference when
// the booking carries no name.
func CustomerDisplayName(b bookings.Booking) string {
	if parts := strings.Fields(b.CustomerName); len(parts) > 0 {
		return parts[0]
	}
	ref := b.UserID
	if len(ref) > 6 {
		ref = ref[:6]
	}
	return "Cliente #" + ref
}

func normalizeOrRaw(raw string) string {
	if date, ok := schedule.NormalizeDate(raw); ok {
		return date
	}
	return strings.TrimSpace(raw)
}
