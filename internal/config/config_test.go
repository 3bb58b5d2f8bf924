package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017/petshop_test?retryWrites=true")
	t.Setenv("WORKING_DAYS", "mon,tue,wed,thu,fri")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.MongoDB != "petshop_test" {
		t.Fatalf("expected db from uri, got %q", cfg.MongoDB)
	}
	if cfg.Schedule.OpeningHour != 8 || cfg.Schedule.ClosingHour != 17 || cfg.Schedule.StepMinutes != 60 {
		t.Fatalf("unexpected schedule policy: %+v", cfg.Schedule)
	}
	if cfg.Schedule.HorizonDays != 14 || cfg.Schedule.StartOffsetDays != 1 {
		t.Fatalf("unexpected horizon: %+v", cfg.Schedule)
	}
	if cfg.Schedule.WorkingDays.Contains(time.Saturday) || !cfg.Schedule.WorkingDays.Contains(time.Friday) {
		t.Fatalf("unexpected working days: %v", cfg.Schedule.WorkingDays)
	}
	if cfg.CacheTTL() != 60*time.Second {
		t.Fatalf("unexpected cache ttl: %v", cfg.CacheTTL())
	}
}

func TestLoadRejectsUnknownWeekday(t *testing.T) {
	t.Setenv("WORKING_DAYS", "mon,funday")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid working days")
	}
}

func TestMongoDBFromURI(t *testing.T) {
	cases := map[string]string{
		"mongodb://localhost:27017/petshop":         "petshop",
		"mongodb://localhost:27017/":                "",
		"mongodb+srv://user:pw@cluster/app/extra":   "app",
		"mongodb://localhost:27017/loja?authSource": "loja",
	}
	for uri, want := range cases {
		if got := mongoDBFromURI(uri); got != want {
			t.Fatalf("mongoDBFromURI(%q) = %q, want %q", uri, got, want)
		}
	}
}
