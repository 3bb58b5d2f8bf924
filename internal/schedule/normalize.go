package schedule

import (
	"strconv"
	"strings"
	"time"
)

var isoLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// NormalizeDate converts the date shapes stored by older clients into YYYY-MM-DD.
// ISO forms are tried first; otherwise the value is split on "/" or "-" and the
// 4-digit segment decides the order: Y-M-D when leading, DD/MM/YYYY or MM-DD-YYYY when trailing.
func NormalizeDate(raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", false
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(DateLayout), true
		}
	}

	sep := "/"
	if !strings.Contains(value, sep) {
		sep = "-"
	}
	if idx := strings.IndexAny(value, " T"); idx > 0 {
		value = value[:idx]
	}
	parts := strings.Split(value, sep)
	if len(parts) != 3 {
		return "", false
	}

	var year, month, day string
	switch {
	case len(parts[0]) == 4:
		year, month, day = parts[0], parts[1], parts[2]
	case len(parts[2]) == 4 && sep == "/":
		day, month, year = parts[0], parts[1], parts[2]
	case len(parts[2]) == 4:
		month, day, year = parts[0], parts[1], parts[2]
	default:
		return "", false
	}

	y, errY := strconv.Atoi(year)
	m, errM := strconv.Atoi(month)
	d, errD := strconv.Atoi(day)
	if errY != nil || errM != nil || errD != nil {
		return "", false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return "", false
	}
	return t.Format(DateLayout), true
}
