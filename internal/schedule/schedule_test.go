package schedule

import (
	"reflect"
	"testing"
	"time"
)

func mustLoadLoc(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestTimeSlotsDefaultPolicy(t *testing.T) {
	slots := DefaultPolicy().Slots()
	if len(slots) != 10 {
		t.Fatalf("expected 10 slots, got %d", len(slots))
	}
	if slots[0] != "08:00" || slots[len(slots)-1] != "17:00" {
		t.Fatalf("unexpected boundary slots: %v", slots)
	}
}

func TestTimeSlotsHalfHourStep(t *testing.T) {
	slots := TimeSlots(8, 10, 30)
	want := []string{"08:00", "08:30", "09:00", "09:30", "10:00"}
	if !reflect.DeepEqual(slots, want) {
		t.Fatalf("expected %v, got %v", want, slots)
	}
}

func TestTimeSlotsInvalidPolicy(t *testing.T) {
	cases := []struct {
		open, close, step int
	}{
		{8, 17, 0},
		{17, 8, 60},
		{8, 24, 60},
		{-1, 10, 60},
	}
	for _, tc := range cases {
		if slots := TimeSlots(tc.open, tc.close, tc.step); len(slots) != 0 {
			t.Fatalf("TimeSlots(%d, %d, %d) expected empty, got %v", tc.open, tc.close, tc.step, slots)
		}
	}
}

func TestCandidateDatesSkipsWeekends(t *testing.T) {
	loc := mustLoadLoc(t)
	today := time.Date(2026, 2, 6, 10, 0, 0, 0, loc) // friday

	dates := CandidateDates(today, 1, 14, WeekdaysMonFri())
	if len(dates) != 10 {
		t.Fatalf("expected 10 dates, got %d", len(dates))
	}
	if FormatDate(dates[0]) != "2026-02-09" || FormatDate(dates[len(dates)-1]) != "2026-02-20" {
		t.Fatalf("unexpected boundary dates: %s .. %s", FormatDate(dates[0]), FormatDate(dates[len(dates)-1]))
	}
	for _, d := range dates {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			t.Fatalf("weekend date generated: %s", FormatDate(d))
		}
		if d.Hour() != 0 || d.Location() != loc {
			t.Fatalf("expected midnight in %s, got %v", loc, d)
		}
	}
}

func TestCandidateDatesDeterministic(t *testing.T) {
	loc := mustLoadLoc(t)
	today := time.Date(2026, 3, 11, 15, 30, 0, 0, loc)
	p := DefaultPolicy()

	first := p.Dates(today)
	second := p.Dates(today)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical sequences")
	}
	if !reflect.DeepEqual(p.Slots(), p.Slots()) {
		t.Fatalf("expected identical slot sequences")
	}
}

func TestCandidateDatesEmptyHorizon(t *testing.T) {
	loc := mustLoadLoc(t)
	if dates := CandidateDates(time.Date(2026, 2, 6, 0, 0, 0, 0, loc), 1, 0, WeekdaysMonFri()); len(dates) != 0 {
		t.Fatalf("expected no dates, got %d", len(dates))
	}
}

func TestParseWeekdays(t *testing.T) {
	set, err := ParseWeekdays("mon, Tuesday,sat")
	if err != nil {
		t.Fatalf("ParseWeekdays error: %v", err)
	}
	if !set.Contains(time.Monday) || !set.Contains(time.Tuesday) || !set.Contains(time.Saturday) {
		t.Fatalf("unexpected set: %v", set)
	}
	if set.Contains(time.Sunday) {
		t.Fatalf("sunday should not be a working day")
	}

	if _, err := ParseWeekdays("mon,xyz"); err == nil {
		t.Fatalf("expected error for unknown weekday")
	}
}

func TestPolicyIsSlotAllowed(t *testing.T) {
	loc := mustLoadLoc(t)
	p := DefaultPolicy()

	ok, err := p.IsSlotAllowed("2026-02-04", "17:00", loc)
	if err != nil {
		t.Fatalf("IsSlotAllowed error: %v", err)
	}
	if !ok {
		t.Fatalf("expected closing hour slot to be allowed")
	}

	ok, err = p.IsSlotAllowed("2026-02-04", "07:00", loc)
	if err != nil {
		t.Fatalf("IsSlotAllowed error: %v", err)
	}
	if ok {
		t.Fatalf("expected slot before opening to be rejected")
	}

	ok, err = p.IsSlotAllowed("2026-02-07", "09:00", loc)
	if err != nil {
		t.Fatalf("IsSlotAllowed error: %v", err)
	}
	if ok {
		t.Fatalf("expected saturday to be rejected")
	}

	if _, err := p.IsSlotAllowed("04/02/2026", "09:00", loc); err != ErrInvalidDate {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestIsDatePast(t *testing.T) {
	loc := mustLoadLoc(t)
	now := time.Date(2026, 2, 4, 10, 0, 0, 0, loc)
	past, err := IsDatePast("2026-02-03", loc, now)
	if err != nil {
		t.Fatalf("IsDatePast error: %v", err)
	}
	if !past {
		t.Fatalf("expected date to be past")
	}

	past, err = IsDatePast("2026-02-04", loc, now)
	if err != nil {
		t.Fatalf("IsDatePast error: %v", err)
	}
	if past {
		t.Fatalf("expected date to be not past")
	}
}

func TestPolicyIsDateOffered(t *testing.T) {
	loc := mustLoadLoc(t)
	// wednesday
	now := time.Date(2026, 2, 4, 10, 0, 0, 0, loc)
	p := DefaultPolicy()

	cases := []struct {
		date string
		want bool
	}{
		{"2026-02-03", false},
		{"2026-02-04", false},
		{"2026-02-05", true},
		{"2026-02-18", true},
		{"2026-02-19", false},
		{"2030-01-07", false},
	}
	for _, tc := range cases {
		got, err := p.IsDateOffered(tc.date, loc, now)
		if err != nil {
			t.Fatalf("IsDateOffered(%s) error: %v", tc.date, err)
		}
		if got != tc.want {
			t.Fatalf("IsDateOffered(%s) = %v, want %v", tc.date, got, tc.want)
		}
	}

	if _, err := p.IsDateOffered("18/02/2026", loc, now); err == nil {
		t.Fatalf("expected error for non-ISO date")
	}

	// every date the calendar offers must be accepted
	for _, day := range p.Dates(now) {
		if ok, _ := p.IsDateOffered(FormatDate(day), loc, now); !ok {
			t.Fatalf("candidate %s rejected", FormatDate(day))
		}
	}
}

func TestIsSlotPast(t *testing.T) {
	loc := mustLoadLoc(t)
	now := time.Date(2026, 2, 4, 10, 0, 0, 0, loc)
	past, err := IsSlotPast("2026-02-04", "09:00", loc, now)
	if err != nil {
		t.Fatalf("IsSlotPast error: %v", err)
	}
	if !past {
		t.Fatalf("expected slot to be past")
	}
	past, err = IsSlotPast("2026-02-04", "11:00", loc, now)
	if err != nil {
		t.Fatalf("IsSlotPast error: %v", err)
	}
	if past {
		t.Fatalf("expected slot to be future")
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-03-05", "2024-03-05", true},
		{"2024-03-05T13:45:00Z", "2024-03-05", true},
		{"2024-03-05 08:00:00", "2024-03-05", true},
		{"05/03/2024", "2024-03-05", true},
		{"03-05-2024", "2024-03-05", true},
		{"2024/3/5", "2024-03-05", true},
		{"31/02/2024", "", false},
		{"05.03.2024", "", false},
		{"", "", false},
		{"hoje", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeDate(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("NormalizeDate(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
