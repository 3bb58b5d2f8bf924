package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

var (
	ErrInvalidDate    = errors.New("invalid date format")
	ErrInvalidTime    = errors.New("invalid time format")
	ErrInvalidWeekday = errors.New("invalid weekday")
)

type WeekdaySet map[time.Weekday]bool

func WeekdaysMonFri() WeekdaySet {
	return WeekdaySet{
		time.Monday:    true,
		time.Tuesday:   true,
		time.Wednesday: true,
		time.Thursday:  true,
		time.Friday:    true,
	}
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseWeekdays reads a comma separated list such as "mon,tue,wed".
func ParseWeekdays(raw string) (WeekdaySet, error) {
	set := WeekdaySet{}
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if len(name) > 3 {
			name = name[:3]
		}
		day, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidWeekday, part)
		}
		set[day] = true
	}
	return set, nil
}

func (s WeekdaySet) Contains(day time.Weekday) bool {
	return s[day]
}

// Policy is the single source of truth for which days and hours can be booked.
type Policy struct {
	WorkingDays     WeekdaySet
	OpeningHour     int
	ClosingHour     int
	StepMinutes     int
	StartOffsetDays int
	HorizonDays     int
}

func DefaultPolicy() Policy {
	return Policy{
		WorkingDays:     WeekdaysMonFri(),
		OpeningHour:     8,
		ClosingHour:     17,
		StepMinutes:     60,
		StartOffsetDays: 1,
		HorizonDays:     14,
	}
}

func (p Policy) IsWorkingDay(date time.Time) bool {
	return p.WorkingDays.Contains(date.Weekday())
}

func (p Policy) Dates(now time.Time) []time.Time {
	return CandidateDates(now, p.StartOffsetDays, p.HorizonDays, p.WorkingDays)
}

func (p Policy) Slots() []string {
	return TimeSlots(p.OpeningHour, p.ClosingHour, p.StepMinutes)
}

// IsSlotAllowed reports whether date/time falls on a working day and on one of the policy slots.
func (p Policy) IsSlotAllowed(dateStr, timeStr string, loc *time.Location) (bool, error) {
	date, err := ParseDate(dateStr, loc)
	if err != nil {
		return false, err
	}
	if _, err := ParseClockToMinutes(timeStr); err != nil {
		return false, err
	}
	if !p.IsWorkingDay(date) {
		return false, nil
	}
	for _, s := range p.Slots() {
		if s == timeStr {
			return true, nil
		}
	}
	return false, nil
}

// IsDateOffered reports whether date lies in the booking window: not before today and within
// [today+StartOffsetDays, today+StartOffsetDays+HorizonDays) in loc.
func (p Policy) IsDateOffered(dateStr string, loc *time.Location, now time.Time) (bool, error) {
	past, err := IsDatePast(dateStr, loc, now)
	if err != nil {
		return false, err
	}
	if past {
		return false, nil
	}
	date, err := ParseDate(dateStr, loc)
	if err != nil {
		return false, err
	}
	local := now.In(loc)
	first := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, p.StartOffsetDays)
	end := first.AddDate(0, 0, p.HorizonDays)
	return !date.Before(first) && date.Before(end), nil
}

// CandidateDates returns the working days in [today+startOffsetDays, today+startOffsetDays+horizonDays),
// at midnight in today's location.
func CandidateDates(today time.Time, startOffsetDays, horizonDays int, workingDays WeekdaySet) []time.Time {
	dates := make([]time.Time, 0, horizonDays)
	if horizonDays <= 0 {
		return dates
	}
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	for i := startOffsetDays; i < startOffsetDays+horizonDays; i++ {
		day := start.AddDate(0, 0, i)
		if workingDays.Contains(day.Weekday()) {
			dates = append(dates, day)
		}
	}
	return dates
}

// TimeSlots lists HH:MM values from openingHour up to and including closingHour.
func TimeSlots(openingHour, closingHour, stepMinutes int) []string {
	slots := make([]string, 0)
	if stepMinutes <= 0 || openingHour < 0 || closingHour > 23 || closingHour < openingHour {
		return slots
	}
	for cursor := openingHour * 60; cursor <= closingHour*60; cursor += stepMinutes {
		slots = append(slots, MinutesToClock(cursor))
	}
	return slots
}

func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation(DateLayout, dateStr, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

func ParseDateTime(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	if _, err := time.Parse(ClockLayout, timeStr); err != nil {
		return time.Time{}, ErrInvalidTime
	}
	if _, err := ParseDate(dateStr, loc); err != nil {
		return time.Time{}, err
	}

	parsed, err := time.ParseInLocation(DateLayout+" "+ClockLayout, dateStr+" "+timeStr, loc)
	if err != nil {
		return time.Time{}, ErrInvalidTime
	}
	return parsed, nil
}

func ParseClockToMinutes(timeStr string) (int, error) {
	tm, err := time.Parse(ClockLayout, timeStr)
	if err != nil {
		return 0, ErrInvalidTime
	}
	return tm.Hour()*60 + tm.Minute(), nil
}

func MinutesToClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func IsDatePast(dateStr string, loc *time.Location, now time.Time) (bool, error) {
	date, err := ParseDate(dateStr, loc)
	if err != nil {
		return false, err
	}
	local := now.In(loc)
	startToday := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return date.Before(startToday), nil
}

func IsSlotPast(dateStr, timeStr string, loc *time.Location, now time.Time) (bool, error) {
	slot, err := ParseDateTime(dateStr, timeStr, loc)
	if err != nil {
		return false, err
	}
	return !slot.After(now.In(loc)), nil
}
