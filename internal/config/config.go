package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"petshop-backend/internal/schedule"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env             string   `envconfig:"APP_ENV" default:"development"`
	ServerAddr      string   `envconfig:"SERVER_ADDR" default:":8080"`
	MongoURI        string   `envconfig:"MONGO_URI" default:"mongodb://localhost:27017/petshop"`
	MongoDB         string   `envconfig:"MONGO_DB"`
	FrontendOrigins []string `envconfig:"FRONTEND_ORIGINS" default:"http://localhost:5173"`
	TimezoneName    string   `envconfig:"TZ" default:"America/Sao_Paulo"`
	LogLevel        string   `envconfig:"LOG_LEVEL" default:"info"`

	RateLimitBookings  int `envconfig:"RATE_LIMIT_BOOKINGS" default:"10"`
	RateLimitAuth      int `envconfig:"RATE_LIMIT_AUTH" default:"5"`
	RateLimitWindowSec int `envconfig:"RATE_LIMIT_WINDOW_SEC" default:"60"`

	RedisURL        string `envconfig:"REDIS_URL"`
	RedisAddr       string `envconfig:"REDIS_ADDR"`
	RedisPassword   string `envconfig:"REDIS_PASSWORD"`
	RedisDB         int    `envconfig:"REDIS_DB" default:"0"`
	CacheTTLSeconds int    `envconfig:"CACHE_TTL_SECONDS" default:"60"`

	AdminAPIKey       string `envconfig:"ADMIN_API_KEY"`
	JWTSecret         string `envconfig:"JWT_SECRET"`
	AccessTTLMinutes  int    `envconfig:"ACCESS_TTL_MINUTES" default:"15"`
	RefreshTTLMinutes int    `envconfig:"REFRESH_TTL_MINUTES" default:"43200"`
	CookieSecure      bool   `envconfig:"COOKIE_SECURE" default:"false"`

	BrevoAPIKey      string `envconfig:"BREVO_API_KEY"`
	BrevoSenderEmail string `envconfig:"BREVO_SENDER_EMAIL"`
	BrevoSenderName  string `envconfig:"BREVO_SENDER_NAME" default:"Pet Shop"`
	BrevoSandbox     bool   `envconfig:"BREVO_SANDBOX" default:"false"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"petshop.events"`

	ReminderCron string `envconfig:"REMINDER_CRON" default:"0 18 * * *"`

	OpeningHour     int    `envconfig:"OPENING_HOUR" default:"8"`
	ClosingHour     int    `envconfig:"CLOSING_HOUR" default:"17"`
	SlotStepMinutes int    `envconfig:"SLOT_STEP_MINUTES" default:"60"`
	HorizonDays     int    `envconfig:"BOOKING_HORIZON_DAYS" default:"14"`
	StartOffsetDays int    `envconfig:"BOOKING_START_OFFSET_DAYS" default:"1"`
	WorkingDays     string `envconfig:"WORKING_DAYS" default:"mon,tue,wed,thu,fri"`

	Timezone *time.Location  `ignored:"true"`
	Schedule schedule.Policy `ignored:"true"`
}

func Load() (*Config, error) {
	// Variables already present in the environment take precedence over .env.
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	loc, err := time.LoadLocation(cfg.TimezoneName)
	if err != nil {
		return nil, fmt.Errorf("config: timezone: %w", err)
	}
	cfg.Timezone = loc

	if cfg.MongoDB == "" {
		cfg.MongoDB = mongoDBFromURI(cfg.MongoURI)
	}
	if cfg.MongoDB == "" {
		cfg.MongoDB = "petshop"
	}

	days, err := schedule.ParseWeekdays(cfg.WorkingDays)
	if err != nil {
		return nil, fmt.Errorf("config: working days: %w", err)
	}
	cfg.Schedule = schedule.Policy{
		WorkingDays:     days,
		OpeningHour:     cfg.OpeningHour,
		ClosingHour:     cfg.ClosingHour,
		StepMinutes:     cfg.SlotStepMinutes,
		StartOffsetDays: cfg.StartOffsetDays,
		HorizonDays:     cfg.HorizonDays,
	}

	return &cfg, nil
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func mongoDBFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	db := strings.Trim(u.Path, "/")
	if db == "" {
		return ""
	}
	// mongodb URIs sometimes include extra path segments; we only support the first one as db name.
	if idx := strings.Index(db, "/"); idx >= 0 {
		db = db[:idx]
	}
	return db
}
