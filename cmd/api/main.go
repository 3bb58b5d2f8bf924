package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petshop-backend/internal/accounts"
	"petshop-backend/internal/auth"
	"petshop-backend/internal/bookings"
	"petshop-backend/internal/cache"
	"petshop-backend/internal/catalog"
	"petshop-backend/internal/config"
	"petshop-backend/internal/dashboard"
	"petshop-backend/internal/db"
	"petshop-backend/internal/events"
	"petshop-backend/internal/jobs"
	"petshop-backend/internal/middleware"
	"petshop-backend/internal/notifications"
	"petshop-backend/internal/validation"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("mongo connected", slog.String("db", cfg.MongoDB))
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		logger.Error("index creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var cacheStore cache.Cache = cache.NewNoop()
	if cfg.RedisURL != "" || cfg.RedisAddr != "" {
		var redisCache *cache.RedisCache
		var err error
		if cfg.RedisURL != "" {
			redisCache, err = cache.NewRedisFromURL(cfg.RedisURL)
		} else {
			redisCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		}
		if err == nil {
			err = redisCache.Ping(ctx)
		}
		if err != nil {
			// Redis only backs caches; the API keeps serving from Mongo without it.
			logger.Warn("redis unavailable, cache disabled", slog.String("error", err.Error()))
		} else {
			logger.Info("redis connected")
			cacheStore = redisCache
			defer redisCache.Close()
		}
	}

	var jwtManager *auth.Manager
	if cfg.JWTSecret != "" {
		jwtManager = &auth.Manager{
			Secret:     []byte(cfg.JWTSecret),
			AccessTTL:  time.Duration(cfg.AccessTTLMinutes) * time.Minute,
			RefreshTTL: time.Duration(cfg.RefreshTTLMinutes) * time.Minute,
			Issuer:     "petshop-backend",
		}
	} else {
		logger.Warn("JWT_SECRET not set, session auth disabled")
	}

	mailer := notifications.NewBrevoClient(cfg.BrevoAPIKey, cfg.BrevoSenderEmail, cfg.BrevoSenderName, cfg.BrevoSandbox)
	if mailer == nil {
		logger.Info("brevo mailer disabled")
	} else {
		logger.Info("brevo mailer enabled", slog.String("sender", cfg.BrevoSenderEmail), slog.Bool("sandbox", cfg.BrevoSandbox))
	}

	var publisher events.Publisher = events.NewNoop()
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warn("amqp unavailable, events disabled", slog.String("error", err.Error()))
		} else {
			logger.Info("amqp connected", slog.String("exchange", cfg.AMQPExchange))
			publisher = amqpPublisher
			defer amqpPublisher.Close()
		}
	}

	val := validation.New()

	catalogManager := catalog.NewManager(catalog.NewRepository(cols.Services), cfg.Timezone)
	catalogHandler := catalog.NewHandler(catalogManager, val, cacheStore, cfg.CacheTTL(), logger)

	accountsService := accounts.NewService(accounts.NewRepository(cols.Users), jwtManager, cfg.Timezone)
	accountsHandler := accounts.NewHandler(accountsService, val, logger, cfg.CookieSecure)

	storeCfg := bookings.StoreConfig{
		Catalog:   catalogManager,
		Customers: accountsService,
		Policy:    cfg.Schedule,
		Location:  cfg.Timezone,
		Cache:     cacheStore,
		CacheTTL:  cfg.CacheTTL(),
		Publisher: publisher,
		Log:       logger,
	}
	if mailer != nil {
		storeCfg.Notifier = mailer
	}
	store := bookings.NewStore(bookings.NewRepository(cols.Bookings), storeCfg)
	bookingsHandler := bookings.NewHandler(store, val, logger)

	dashboardService := dashboard.NewService(store, cacheStore, cfg.CacheTTL(), cfg.Timezone, logger)
	dashboardHandler := dashboard.NewHandler(dashboardService, val, logger)

	scheduler := jobs.NewScheduler(cfg.Timezone, logger)
	if mailer != nil {
		if err := scheduler.Add("booking-reminders", cfg.ReminderCron, jobs.NewReminderJob(store, mailer, cfg.Timezone, logger)); err != nil {
			logger.Error("reminder job not scheduled", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	scheduler.Start()

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigins))
	r.Use(chiMiddleware.Timeout(30 * time.Second))
	r.Use(middleware.Authenticate(jwtManager, cfg.AdminAPIKey))

	window := time.Duration(cfg.RateLimitWindowSec) * time.Second
	bookingsLimiter := middleware.NewRateLimiter(cfg.RateLimitBookings, window)
	authLimiter := middleware.NewRateLimiter(cfg.RateLimitAuth, window)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		catalogHandler.Routes(api)
		bookingsHandler.Routes(api)

		api.Group(func(public chi.Router) {
			public.Use(authLimiter.Middleware)
			accountsHandler.Routes(public)
		})

		api.Group(func(session chi.Router) {
			session.Use(middleware.RequireSession)
			accountsHandler.SessionRoutes(session)
			session.Group(func(limited chi.Router) {
				limited.Use(bookingsLimiter.Middleware)
				bookingsHandler.SessionRoutes(limited)
			})
		})

		// chi: middlewares must be attached before the routes of the group are defined.
		api.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireAdmin)
			catalogHandler.AdminRoutes(admin)
			dashboardHandler.Routes(admin)
			accountsHandler.AdminRoutes(admin)
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	scheduler.Stop(shutdownCtx)
}
