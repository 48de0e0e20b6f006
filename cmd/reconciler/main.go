package main

import (
	"context"
	"database/sql"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/adapters/payments"
	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/shared"
	mysqlrepo "hotel_booking/internal/storage/mysql"
)

// reconciler is a one-shot job: it settles pending bookings whose payment event was
// missed, then audits stored totals.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	ctx = log.Logger.WithContext(ctx)

	log.Info().
		Str("payments", cfg.PaymentsBase).
		Int("workers", cfg.ReconcileWorkers).
		Msg("reconciler starting")

	if cfg.Storage != shared.StorageMySQL {
		log.Fatal().Str("storage", cfg.Storage).Msg("reconciler needs STORAGE=mysql")
	}
	reg := observability.InitRegistry()
	if srv := observability.Serve(cfg.MetricsAddr, reg); srv != nil {
		defer srv.Close()
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := payments.New(cfg.PaymentsBase, cfg.PaymentsKey, cfg.PaymentsRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize payments client")
	}
	bookings := app.NewBookingService(repo, repo, client)
	rec := app.NewReconcileService(repo, repo, client, bookings)

	pending, err := rec.PendingPayments(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list pending payments failed")
	}

	workers := cfg.ReconcileWorkers
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg        sync.WaitGroup
		confirmed atomic.Int64
		failed    atomic.Int64
	)

	for _, b := range pending {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("reconcile interrupted")
			break
		}

		wg.Add(1)
		go func(b domain.Booking) {
			defer wg.Done()
			defer sem.Release(1)

			outcome, err := rec.ReconcileBooking(ctx, b)
			if err != nil {
				failed.Add(1)
				log.Warn().Str("booking", b.ID).Str("intent", b.PaymentIntent).Err(err).Msg("reconcile failed")
				return
			}
			if outcome != app.OutcomeUnchanged {
				confirmed.Add(1)
			}
			log.Debug().Str("booking", b.ID).Str("outcome", string(outcome)).Msg("reconcile ok")
		}(b)
	}

	wg.Wait()
	log.Info().
		Int("pending", len(pending)).
		Int64("settled", confirmed.Load()).
		Int64("failed", failed.Load()).
		Msg("reconciliation completed")

	findings, err := rec.Audit(ctx, domain.BookingScope{})
	if err != nil {
		log.Fatal().Err(err).Msg("audit failed")
	}
	for _, f := range findings {
		log.Warn().Str("booking", f.BookingID).Str("problem", f.Problem).Msg("audit finding")
	}
	log.Info().Int("findings", len(findings)).Msg("audit completed")
}
