package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "hotel_booking/internal/adapters/http_server"
	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/adapters/payments"
	redisad "hotel_booking/internal/adapters/redis"
	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/shared"
	"hotel_booking/internal/storage/memory"
	mysqlrepo "hotel_booking/internal/storage/mysql"
)

type stores struct {
	hotels   domain.HotelRepository
	bookings domain.BookingRepository
	cache    domain.Cache
	close    func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	metricsSrv := observability.Serve(cfg.MetricsAddr, reg)

	st := openStores(ctx, cfg)
	defer st.close()

	var gw domain.PaymentGateway
	if cfg.PaymentsKey != "" {
		c, err := payments.New(cfg.PaymentsBase, cfg.PaymentsKey, cfg.PaymentsRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize payments client")
		}
		gw = c
	} else {
		log.Warn().Msg("payments client disabled, refunds will not be requested")
	}

	// http
	srv := server.New(server.Options{
		Logger:         log.Logger,
		RequestTimeout: cfg.RequestTimeout,
		RateRPS:        cfg.RateLimitRPS,
		RateBurst:      cfg.RateLimitBurst,
	})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Hotels:        app.NewHotelService(st.hotels, st.cache, cfg.CacheTTL),
		Bookings:      app.NewBookingService(st.hotels, st.bookings, gw),
		WebhookSecret: []byte(cfg.PaymentsWebhookSecret),
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("storage", cfg.Storage).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}

func openStores(ctx context.Context, cfg shared.Config) stores {
	if cfg.Storage == shared.StorageMemory {
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		repo := memory.New()
		return stores{hotels: repo, bookings: repo, cache: memory.NewCache(), close: func() {}}
	}

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cache.Ping(ctx); err != nil {
		// the services treat cache errors as misses
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable")
	}

	repo := mysqlrepo.New(db)
	return stores{
		hotels:   repo,
		bookings: repo,
		cache:    cache,
		close: func() {
			_ = cache.Close()
			_ = db.Close()
		},
	}
}
